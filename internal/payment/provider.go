package payment

import "context"

// IntentRequest carries the validated amount in the provider's minor units
// plus correlation metadata tying the intent back to the order.
type IntentRequest struct {
	Amount           int64
	Currency         string
	OrderID          string
	UserID           string
	CalculatedAmount float64
}

type Intent struct {
	ID           string
	ClientSecret string
}

// Provider creates provider-side payment intents. Nothing is persisted
// locally; the intent exists only provider-side until confirmed.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
}
