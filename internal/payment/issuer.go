package payment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/pullum327/Reactorder/internal/order"
)

// ErrForbidden is returned when the order exists but belongs to another user.
var ErrForbidden = errors.New("order belongs to a different user")

type IntentResult struct {
	ClientSecret string  `json:"client_secret"`
	Amount       float64 `json:"amount"`
	OrderID      string  `json:"orderId"`
}

// Issuer creates one provider payment intent per call for a stored order.
// The cart is re-validated against the stored total, not a fresh
// client-submitted one, to close the gap between order creation and payment.
type Issuer struct {
	orders    order.Repository
	validator *order.Validator
	provider  Provider
	currency  string
}

func NewIssuer(orders order.Repository, validator *order.Validator, provider Provider, currency string) *Issuer {
	return &Issuer{
		orders:    orders,
		validator: validator,
		provider:  provider,
		currency:  currency,
	}
}

func (i *Issuer) CreateIntent(ctx context.Context, userID, orderID string, items []order.CartItem) (IntentResult, error) {
	if orderID == "" || len(items) == 0 {
		return IntentResult{}, &order.InputError{Reason: "order id and items are required"}
	}

	o, err := i.orders.GetByID(ctx, orderID)
	if err != nil {
		return IntentResult{}, fmt.Errorf("load order: %w", err)
	}
	if o == nil {
		return IntentResult{}, order.ErrNotFound
	}
	if o.UserID != userID {
		return IntentResult{}, ErrForbidden
	}

	_, calculated, err := i.validator.ValidateCartTotal(ctx, items, o.Total)
	if err != nil {
		return IntentResult{}, err
	}

	// Minor-unit conversion is exact only for currencies with two decimal
	// subunits; zero- and three-subunit currencies would need a lookup here.
	amount := int64(math.Round(calculated * 100))

	intent, err := i.provider.CreateIntent(ctx, IntentRequest{
		Amount:           amount,
		Currency:         i.currency,
		OrderID:          o.ID,
		UserID:           userID,
		CalculatedAmount: calculated,
	})
	if err != nil {
		return IntentResult{}, err
	}

	return IntentResult{
		ClientSecret: intent.ClientSecret,
		Amount:       calculated,
		OrderID:      o.ID,
	}, nil
}
