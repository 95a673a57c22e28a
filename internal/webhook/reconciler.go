package webhook

import (
	"context"
	"log"

	"github.com/pullum327/Reactorder/internal/order"
)

type Outcome string

const (
	// OutcomeProcessed: the order transitioned to paid and was audited.
	OutcomeProcessed Outcome = "processed"
	// OutcomeAlreadyPaid: provider retry of an event we already applied.
	OutcomeAlreadyPaid Outcome = "already_paid"
	// OutcomeDifferentIntent: another intent id is frozen for this order.
	OutcomeDifferentIntent Outcome = "different_intent"
	// OutcomeIgnored: event type we do not act on.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeFailed: persistence failed after verification; recorded in the
	// audit trail, acknowledged so the provider does not retry.
	OutcomeFailed Outcome = "failed"
)

type Result struct {
	Outcome  Outcome
	OrderID  string
	IntentID string
	Message  string
}

// PaidPublisher announces a completed payment downstream. Optional.
type PaidPublisher interface {
	PublishOrderPaid(ctx context.Context, orderID, paymentIntentID string) error
}

// Reconciler applies provider payment events to order state exactly once.
type Reconciler struct {
	verifier  Verifier
	orders    order.Repository
	logs      LogRepository
	publisher PaidPublisher // nil disables publishing
	logger    *log.Logger
}

func NewReconciler(verifier Verifier, orders order.Repository, logs LogRepository, publisher PaidPublisher, logger *log.Logger) *Reconciler {
	return &Reconciler{
		verifier:  verifier,
		orders:    orders,
		logs:      logs,
		publisher: publisher,
		logger:    logger,
	}
}

// Process verifies and applies one webhook delivery.
//
// Errors are returned only for reject-class conditions the provider may act
// on: bad signature, missing metadata, unknown order. Persistence failures
// after verification are recorded in the audit trail and folded into the
// Result so the transport layer can acknowledge without triggering a retry
// storm for a non-transient fault.
func (r *Reconciler) Process(ctx context.Context, payload []byte, signature string) (Result, error) {
	event, err := r.verifier.Verify(payload, signature)
	if err != nil {
		return Result{}, err
	}

	if event.Type != EventPaymentSucceeded {
		r.logger.Printf("webhook: ignoring event type %s", event.Type)
		return Result{Outcome: OutcomeIgnored, Message: "event type not handled"}, nil
	}

	if event.OrderID == "" {
		return Result{}, ErrMissingMetadata
	}

	// An accepted event runs to completion even if the provider hangs up
	// mid-request; abandoning the update between the status write and the
	// audit append would leave the order inconsistent.
	ctx = context.WithoutCancel(ctx)

	o, err := r.orders.GetByID(ctx, event.OrderID)
	if err != nil {
		return r.fail(ctx, event, "load order: "+err.Error()), nil
	}
	if o == nil {
		return Result{}, order.ErrNotFound
	}

	if o.PaymentStatus == order.StatusPaid {
		r.logger.Printf("webhook: order %s already paid, skipping duplicate delivery", o.ID)
		return Result{Outcome: OutcomeAlreadyPaid, OrderID: o.ID, IntentID: o.PaymentIntentID,
			Message: "order already processed"}, nil
	}
	if o.PaymentIntentID != "" && o.PaymentIntentID != event.IntentID {
		r.logger.Printf("webhook: order %s frozen to intent %s, ignoring %s", o.ID, o.PaymentIntentID, event.IntentID)
		return Result{Outcome: OutcomeDifferentIntent, OrderID: o.ID, IntentID: o.PaymentIntentID,
			Message: "different payment intent already processed"}, nil
	}

	outcome, err := r.orders.MarkPaid(ctx, event.OrderID, event.IntentID)
	if err != nil {
		return r.fail(ctx, event, "mark paid: "+err.Error()), nil
	}

	switch outcome {
	case order.MarkPaidAlreadyPaid:
		// Lost the race to a concurrent delivery of the same intent.
		return Result{Outcome: OutcomeAlreadyPaid, OrderID: event.OrderID, IntentID: event.IntentID,
			Message: "order already processed"}, nil
	case order.MarkPaidDifferentIntent:
		return Result{Outcome: OutcomeDifferentIntent, OrderID: event.OrderID,
			Message: "different payment intent already processed"}, nil
	case order.MarkPaidNotFound:
		return Result{}, order.ErrNotFound
	}

	if err := r.logs.Append(ctx, LogEntry{
		OrderID:         event.OrderID,
		PaymentIntentID: event.IntentID,
		EventType:       event.Type,
		Status:          LogStatusSuccess,
	}); err != nil {
		return r.fail(ctx, event, "append audit log: "+err.Error()), nil
	}

	r.logger.Printf("webhook: order %s marked paid with intent %s", event.OrderID, event.IntentID)

	if r.publisher != nil {
		if err := r.publisher.PublishOrderPaid(ctx, event.OrderID, event.IntentID); err != nil {
			r.logger.Printf("webhook: publish order.paid for %s: %v", event.OrderID, err)
		}
	}

	return Result{Outcome: OutcomeProcessed, OrderID: event.OrderID, IntentID: event.IntentID,
		Message: "order payment processed successfully"}, nil
}

// fail records a failed audit row best-effort; a secondary failure here is
// logged and swallowed, never re-thrown.
func (r *Reconciler) fail(ctx context.Context, event Event, msg string) Result {
	r.logger.Printf("webhook: order %s processing failed: %s", event.OrderID, msg)
	if err := r.logs.Append(ctx, LogEntry{
		OrderID:         event.OrderID,
		PaymentIntentID: event.IntentID,
		EventType:       event.Type,
		Status:          LogStatusFailed,
		ErrorMessage:    msg,
	}); err != nil {
		r.logger.Printf("webhook: order %s audit append failed: %v", event.OrderID, err)
	}
	return Result{Outcome: OutcomeFailed, OrderID: event.OrderID, IntentID: event.IntentID, Message: msg}
}
