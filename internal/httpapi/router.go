package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pullum327/Reactorder/internal/auth"
	"github.com/pullum327/Reactorder/internal/catalog"
	"github.com/pullum327/Reactorder/internal/order"
	"github.com/pullum327/Reactorder/internal/payment"
	"github.com/pullum327/Reactorder/internal/user"
	"github.com/pullum327/Reactorder/internal/webhook"
)

type Deps struct {
	Catalog    catalog.Repository
	Users      user.Repository
	Tokens     *auth.TokenIssuer
	Orders     *order.Service
	Validator  *order.Validator
	Issuer     *payment.Issuer
	Reconciler *webhook.Reconciler

	RequestTimeout   time.Duration
	CORSAllowOrigins []string
	Logger           *log.Logger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(corsMiddleware(d.CORSAllowOrigins))

	products := newProductHandler(d.Catalog, d.RequestTimeout)
	accounts := newAuthHandler(d.Users, d.Tokens, d.RequestTimeout)
	orders := newOrderHandler(d.Orders, d.Validator, d.RequestTimeout)
	payments := newPaymentHandler(d.Issuer, d.RequestTimeout)
	webhooks := newWebhookHandler(d.Reconciler, d.Logger)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", products.List)

		r.Post("/auth/register", accounts.Register)
		r.Post("/auth/login", accounts.Login)

		// Provider-signed, not bearer-authenticated
		r.Post("/stripe/webhook", webhooks.Handle)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(d.Tokens))

			r.Get("/auth/me", accounts.Me)
			r.Post("/orders/validate", orders.Validate)
			r.Post("/orders", orders.Create)
			r.Get("/orders", orders.ListMine)
			r.Post("/create-payment-intent", payments.CreateIntent)
		})
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "order-backend",
	})
}
