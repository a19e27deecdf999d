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

// PaymentIntentHandler handles HTTP requests for payment intents.
type PaymentIntentHandler struct {
	intentService *service.PaymentIntentService
}

// NewPaymentIntentHandler creates a new PaymentIntentHandler.
func NewPaymentIntentHandler(intentService *service.PaymentIntentService) *PaymentIntentHandler {
	return &PaymentIntentHandler{intentService: intentService}
}

// LineItemRequest is one billable entry in a create request.
type LineItemRequest struct {
	Name       string          `json:"name"`
	UnitAmount decimal.Decimal `json:"unit_amount"`
	Quantity   int64           `json:"quantity"`
}

// CreatePaymentIntentRequest is the HTTP request body for creating a payment intent.
type CreatePaymentIntentRequest struct {
	Items         []LineItemRequest `json:"items"`
	Currency      string            `json:"currency"`
	ReferenceID   string            `json:"reference_id"`
	CustomerEmail string            `json:"customer_email"`
	CustomerPhone string            `json:"customer_phone"`
	ExpiresAt     *time.Time        `json:"expires_at"`
}

// ConfirmPaymentRequest is the HTTP request body for confirming a payment.
type ConfirmPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Method        string          `json:"method"`
	ReferenceID   string          `json:"reference_id"`
	CustomerEmail string          `json:"customer_email"`
	CustomerPhone string          `json:"customer_phone"`
}

// LineItemResponse is one billable entry on a payment intent response.
type LineItemResponse struct {
	Name       string `json:"name"`
	UnitAmount string `json:"unit_amount"`
	Quantity   int64  `json:"quantity"`
}

// PaymentIntentResponse is the HTTP response for payment intent operations.
type PaymentIntentResponse struct {
	ID          string             `json:"id"`
	MerchantID  string             `json:"merchant_id"`
	Items       []LineItemResponse `json:"items"`
	Amount      string             `json:"amount"`
	Currency    string             `json:"currency"`
	Status      string             `json:"status"`
	ReferenceID string             `json:"reference_id,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	ExpiresAt   time.Time          `json:"expires_at"`
}

// TransactionResponse is the HTTP response for ledger entries.
type TransactionResponse struct {
	ID                  string    `json:"id"`
	PaymentIntentID     string    `json:"payment_intent_id"`
	ParentTransactionID string    `json:"parent_transaction_id,omitempty"`
	Amount              string    `json:"amount"`
	Currency            string    `json:"currency"`
	Method              string    `json:"method"`
	Status              string    `json:"status"`
	ConfirmedAt         time.Time `json:"confirmed_at"`
	RefundReason        string    `json:"refund_reason,omitempty"`
}

// CreatePaymentIntent handles POST /v1/payment-intents
func (h *PaymentIntentHandler) CreatePaymentIntent(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
		return
	}

	var req CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	items := make([]domain.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.LineItem{
			Name:       item.Name,
			UnitAmount: item.UnitAmount,
			Quantity:   item.Quantity,
		})
	}

	params := service.CreatePaymentIntentParams{
		Actor:    actor,
		Items:    items,
		Currency: domain.Currency(req.Currency),
		Metadata: domain.IntentMetadata{
			ReferenceID:   req.ReferenceID,
			CustomerEmail: req.CustomerEmail,
			CustomerPhone: req.CustomerPhone,
		},
	}
	if req.ExpiresAt != nil {
		params.ExpiresAt = *req.ExpiresAt
	}

	intent, err := h.intentService.CreatePaymentIntent(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toPaymentIntentResponse(intent))
}

// GetPaymentIntent handles GET /v1/payment-intents/:id
func (h *PaymentIntentHandler) GetPaymentIntent(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
		return
	}

	intent, err := h.intentService.GetPaymentIntent(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPaymentIntentResponse(intent))
}

// ConfirmPayment handles POST /v1/payment-intents/:id/confirm
func (h *PaymentIntentHandler) ConfirmPayment(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
		return
	}

	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	tx, err := h.intentService.ConfirmPayment(c.Request.Context(), service.ConfirmPaymentParams{
		PaymentIntentID: c.Param("id"),
		Amount:          req.Amount,
		Currency:        domain.Currency(req.Currency),
		Method:          domain.PaymentMethod(req.Method),
		Actor:           actor,
		Metadata: domain.TransactionMetadata{
			ReferenceID:   req.ReferenceID,
			CustomerEmail: req.CustomerEmail,
			CustomerPhone: req.CustomerPhone,
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTransactionResponse(tx))
}

// ListTransactions handles GET /v1/payment-intents/:id/transactions
func (h *PaymentIntentHandler) ListTransactions(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
		return
	}

	txs, err := h.intentService.ListTransactions(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		responses = append(responses, toTransactionResponse(tx))
	}

	respondJSON(c, http.StatusOK, responses)
}

func toPaymentIntentResponse(intent *domain.PaymentIntent) PaymentIntentResponse {
	items := make([]LineItemResponse, 0, len(intent.Items))
	for _, item := range intent.Items {
		items = append(items, LineItemResponse{
			Name:       item.Name,
			UnitAmount: item.UnitAmount.String(),
			Quantity:   item.Quantity,
		})
	}

	return PaymentIntentResponse{
		ID:          intent.ID,
		MerchantID:  intent.MerchantID,
		Items:       items,
		Amount:      intent.Amount.String(),
		Currency:    string(intent.Currency),
		Status:      string(intent.Status),
		ReferenceID: intent.Metadata.ReferenceID,
		CreatedAt:   intent.CreatedAt,
		ExpiresAt:   intent.ExpiresAt,
	}
}

func toTransactionResponse(tx *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                  tx.ID,
		PaymentIntentID:     tx.PaymentIntentID,
		ParentTransactionID: tx.ParentTransactionID,
		Amount:              tx.Amount.String(),
		Currency:            string(tx.Currency),
		Method:              string(tx.Method),
		Status:              string(tx.Status),
		ConfirmedAt:         tx.ConfirmedAt,
		RefundReason:        tx.Metadata.RefundReason,
	}
}
