package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pullum327/Reactorder/internal/order"
	"github.com/pullum327/Reactorder/internal/payment"
	"github.com/pullum327/Reactorder/internal/user"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps domain errors onto the API's error envelope. Any
// error without a mapping is an upstream/store fault and reported as 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var inputErr *order.InputError
	var missingErr *order.ProductNotFoundError
	var stockErr *order.StockError
	var mismatchErr *order.AmountMismatchError

	switch {
	case errors.As(err, &inputErr):
		writeError(w, http.StatusBadRequest, inputErr.Reason)
	case errors.As(err, &missingErr):
		writeError(w, http.StatusBadRequest, "some products do not exist")
	case errors.As(err, &stockErr):
		writeError(w, http.StatusBadRequest, stockErr.Error())
	case errors.As(err, &mismatchErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "order amount verification failed",
			"calculated": mismatchErr.Calculated,
			"provided":   mismatchErr.Provided,
		})
	case errors.Is(err, order.ErrNotFound), errors.Is(err, payment.ErrForbidden):
		// Ownership failures read as not-found so order ids stay unguessable.
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, user.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "request timed out")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
