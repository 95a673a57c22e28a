package webhook

import "errors"

var (
	// ErrSignature means the payload could not be authenticated; the event
	// must be rejected without processing.
	ErrSignature = errors.New("webhook signature verification failed")

	// ErrMissingMetadata means a payment event arrived without the orderId
	// correlation metadata set at intent creation.
	ErrMissingMetadata = errors.New("payment intent metadata missing orderId")
)

// EventPaymentSucceeded is the only event class that drives state.
const EventPaymentSucceeded = "payment_intent.succeeded"

// Event is the provider-agnostic view of a verified webhook payload.
type Event struct {
	Type     string
	IntentID string
	OrderID  string
}

// Verifier authenticates a raw webhook payload against the provider's
// timestamp-bound signature scheme.
type Verifier interface {
	Verify(payload []byte, signature string) (Event, error)
}
