package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/pullum327/Reactorder/internal/catalog"
)

type productHandler struct {
	catalog catalog.Repository
	timeout time.Duration
}

func newProductHandler(c catalog.Repository, timeout time.Duration) *productHandler {
	return &productHandler{catalog: c, timeout: timeout}
}

func (h *productHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.List(ctx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}

	writeJSON(w, http.StatusOK, products)
}
