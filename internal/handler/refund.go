package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"payhub/internal/domain"
	"payhub/internal/middleware"
	"payhub/internal/service"
)

// RefundHandler handles HTTP requests for refunds.
type RefundHandler struct {
	refundService *service.RefundService
}

// NewRefundHandler creates a new RefundHandler.
func NewRefundHandler(refundService *service.RefundService) *RefundHandler {
	return &RefundHandler{refundService: refundService}
}

// RequestRefundRequest is the HTTP request body for requesting a refund.
type RequestRefundRequest struct {
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
}

// RejectRefundRequest is the HTTP request body for rejecting a refund.
type RejectRefundRequest struct {
	Reason string `json:"reason"`
}

// RefundResponse is the HTTP response for refund operations.
type RefundResponse struct {
	ID             string     `json:"id"`
	TransactionID  string     `json:"transaction_id"`
	Status         string     `json:"status"`
	Amount         string     `json:"amount"`
	Currency       string     `json:"currency"`
	Reason         string     `json:"reason"`
	RejectedReason string     `json:"rejected_reason,omitempty"`
	RequestedAt    time.Time  `json:"requested_at"`
	ResolvedBy     string     `json:"resolved_by,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	RejectedAt     *time.Time `json:"rejected_at,omitempty"`
}

// RequestRefund handles POST /v1/refunds
func (h *RefundHandler) RequestRefund(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
		return
	}

	var req RequestRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.TransactionID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "transaction_id is required"})
		return
	}

	refund, err := h.refundService.RequestRefund(c.Request.Context(), service.RequestRefundParams{
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		Reason:        req.Reason,
		Actor:         actor,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRefundResponse(refund))
}

// GetRefund handles GET /v1/refunds/:id and GET /v1/admin/refunds/:id
func (h *RefundHandler) GetRefund(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
		return
	}

	refund, err := h.refundService.GetRefund(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRefundResponse(refund))
}

// ApproveRefund handles POST /v1/admin/refunds/:id/approve
func (h *RefundHandler) ApproveRefund(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
		return
	}

	refund, err := h.refundService.ApproveRefund(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRefundResponse(refund))
}

// RejectRefund handles POST /v1/admin/refunds/:id/reject
func (h *RefundHandler) RejectRefund(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
		return
	}

	var req RejectRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Reason == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "reason is required"})
		return
	}

	refund, err := h.refundService.RejectRefund(c.Request.Context(), c.Param("id"), req.Reason, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRefundResponse(refund))
}

func toRefundResponse(refund *domain.Refund) RefundResponse {
	return RefundResponse{
		ID:             refund.ID,
		TransactionID:  refund.TransactionID,
		Status:         string(refund.Status),
		Amount:         refund.Amount.String(),
		Currency:       string(refund.Currency),
		Reason:         refund.Reason,
		RejectedReason: refund.RejectedReason,
		RequestedAt:    refund.RequestedAt,
		ResolvedBy:     refund.ResolvedBy,
		ApprovedAt:     refund.ApprovedAt,
		RejectedAt:     refund.RejectedAt,
	}
}
