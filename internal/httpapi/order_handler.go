package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pullum327/Reactorder/internal/auth"
	"github.com/pullum327/Reactorder/internal/order"
)

type orderHandler struct {
	service   *order.Service
	validator *order.Validator
	timeout   time.Duration
}

func newOrderHandler(service *order.Service, validator *order.Validator, timeout time.Duration) *orderHandler {
	return &orderHandler{service: service, validator: validator, timeout: timeout}
}

type validateRequest struct {
	Items []order.CartItem `json:"items"`
}

// Validate is the dry-run endpoint: existence, stock and recomputed total,
// without creating anything.
func (h *orderHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "cart is empty")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	validated, total, err := h.validator.ValidateCart(ctx, req.Items)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"validatedItems": validated,
		"total":          total,
	})
}

func (h *orderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req order.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, err := h.service.Create(ctx, claims.UserID, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": o.ID})
}

func (h *orderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.service.ListForUser(ctx, claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}

	writeJSON(w, http.StatusOK, orders)
}
