package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pullum327/Reactorder/internal/auth"
	"github.com/pullum327/Reactorder/internal/order"
	"github.com/pullum327/Reactorder/internal/payment"
)

type paymentHandler struct {
	issuer  *payment.Issuer
	timeout time.Duration
}

func newPaymentHandler(issuer *payment.Issuer, timeout time.Duration) *paymentHandler {
	return &paymentHandler{issuer: issuer, timeout: timeout}
}

type createIntentRequest struct {
	OrderID string           `json:"orderId"`
	Items   []order.CartItem `json:"items"`
}

func (h *paymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.issuer.CreateIntent(ctx, claims.UserID, req.OrderID, req.Items)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
