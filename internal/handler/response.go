package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"payhub/internal/repository"
	"payhub/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	body := ErrorResponse{Error: err.Error(), Kind: errorKind(err)}
	if code == http.StatusInternalServerError {
		// Never leak internals to clients.
		body = ErrorResponse{Error: "internal error", Kind: "persistence_failure"}
	}
	c.JSON(code, body)
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidCurrency),
		errors.Is(err, service.ErrCurrencyMismatch),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrNoLineItems),
		errors.Is(err, service.ErrRefundExceedsBalance):
		return http.StatusBadRequest

	// State-machine conflicts
	case errors.Is(err, service.ErrIntentNotPending),
		errors.Is(err, service.ErrIntentNotRefundable),
		errors.Is(err, service.ErrTransactionNotRefundable),
		errors.Is(err, service.ErrRefundNotPending),
		errors.Is(err, service.ErrConcurrencyConflict):
		return http.StatusConflict

	// Authorization errors
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrMerchantInactive):
		return http.StatusForbidden

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

// errorKind names the machine-readable error family for clients.
func errorKind(err error) string {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrMerchantInactive):
		return "forbidden"
	case errors.Is(err, service.ErrRefundExceedsBalance):
		return "refund_exceeds_balance"
	case errors.Is(err, service.ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, service.ErrIntentNotPending),
		errors.Is(err, service.ErrIntentNotRefundable),
		errors.Is(err, service.ErrTransactionNotRefundable),
		errors.Is(err, service.ErrRefundNotPending):
		return "invalid_state"
	default:
		return "invalid_request"
	}
}
