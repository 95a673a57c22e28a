package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeVerifier checks the Stripe-Signature header (t=...,v1=... HMAC over
// the exact raw payload) against the shared endpoint secret.
type StripeVerifier struct {
	secret string
}

func NewStripeVerifier(endpointSecret string) *StripeVerifier {
	return &StripeVerifier{secret: endpointSecret}
}

func (v *StripeVerifier) Verify(payload []byte, signature string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrSignature, err)
	}

	out := Event{Type: string(ev.Type)}
	if out.Type == EventPaymentSucceeded {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return Event{}, fmt.Errorf("decode payment intent: %w", err)
		}
		out.IntentID = pi.ID
		out.OrderID = pi.Metadata["orderId"]
	}
	return out, nil
}
