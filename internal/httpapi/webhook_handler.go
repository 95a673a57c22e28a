package httpapi

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/pullum327/Reactorder/internal/order"
	"github.com/pullum327/Reactorder/internal/webhook"
)

const maxWebhookBody = 1 << 16 // 64 KiB, well above Stripe's event sizes

type webhookHandler struct {
	reconciler *webhook.Reconciler
	logger     *log.Logger
}

func newWebhookHandler(reconciler *webhook.Reconciler, logger *log.Logger) *webhookHandler {
	return &webhookHandler{reconciler: reconciler, logger: logger}
}

// Handle consumes the body as raw bytes before any JSON parsing: the
// provider signature covers the exact payload, so re-encoding would break
// verification.
//
// Once the signature verifies, responses are 2xx even when reconciliation
// fails internally; the failure is recorded in the audit trail and a
// non-2xx would only trigger a provider retry storm the application cannot
// resolve by retrying.
func (h *webhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	result, err := h.reconciler.Process(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrSignature):
			writeError(w, http.StatusBadRequest, "webhook signature verification failed")
		case errors.Is(err, webhook.ErrMissingMetadata):
			writeError(w, http.StatusBadRequest, "missing orderId metadata")
		case errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		default:
			h.logger.Printf("webhook: unexpected processing error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	resp := map[string]any{
		"received": true,
		"message":  result.Message,
		"status":   string(result.Outcome),
	}
	if result.OrderID != "" {
		resp["orderId"] = result.OrderID
	}
	if result.IntentID != "" {
		resp["paymentIntentId"] = result.IntentID
	}

	writeJSON(w, http.StatusOK, resp)
}
