package webhook

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pullum327/Reactorder/internal/order"
)

type fakeVerifier struct {
	event Event
	err   error
}

func (f *fakeVerifier) Verify(payload []byte, signature string) (Event, error) {
	if f.err != nil {
		return Event{}, f.err
	}
	return f.event, nil
}

// fakeOrderRepo mimics the store's conditional-update semantics in memory.
type fakeOrderRepo struct {
	orders      map[string]*order.Order
	getErr      error
	markPaidErr error
}

func (f *fakeOrderRepo) Create(ctx context.Context, o *order.Order) error { return nil }

func (f *fakeOrderRepo) GetByID(ctx context.Context, orderID string) (*order.Order, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	o, ok := f.orders[orderID]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	return nil, nil
}

func (f *fakeOrderRepo) MarkPaid(ctx context.Context, orderID, paymentIntentID string) (order.MarkPaidOutcome, error) {
	if f.markPaidErr != nil {
		return order.MarkPaidNotFound, f.markPaidErr
	}
	o, ok := f.orders[orderID]
	if !ok {
		return order.MarkPaidNotFound, nil
	}
	if o.PaymentStatus == order.StatusPaid {
		if o.PaymentIntentID == paymentIntentID {
			return order.MarkPaidAlreadyPaid, nil
		}
		return order.MarkPaidDifferentIntent, nil
	}
	if o.PaymentIntentID != "" && o.PaymentIntentID != paymentIntentID {
		return order.MarkPaidDifferentIntent, nil
	}
	o.PaymentStatus = order.StatusPaid
	o.PaymentIntentID = paymentIntentID
	return order.MarkPaidUpdated, nil
}

type fakeLogRepo struct {
	entries   []LogEntry
	appendErr error
}

func (f *fakeLogRepo) Append(ctx context.Context, entry LogEntry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLogRepo) ListByOrder(ctx context.Context, orderID string) ([]LogEntry, error) {
	var out []LogEntry
	for _, e := range f.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) PublishOrderPaid(ctx context.Context, orderID, paymentIntentID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, orderID)
	return nil
}

func succeededEvent(orderID, intentID string) Event {
	return Event{Type: EventPaymentSucceeded, IntentID: intentID, OrderID: orderID}
}

func pendingOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]*order.Order{
		"ORD-1": {ID: "ORD-1", UserID: "user-1", Total: 100, PaymentStatus: order.StatusPending},
	}}
}

func newTestReconciler(v Verifier, orders order.Repository, logs LogRepository, pub PaidPublisher) *Reconciler {
	return NewReconciler(v, orders, logs, pub, log.New(io.Discard, "", 0))
}

func TestProcess_MarksOrderPaid(t *testing.T) {
	repo := pendingOrderRepo()
	logs := &fakeLogRepo{}
	pub := &fakePublisher{}
	r := newTestReconciler(&fakeVerifier{event: succeededEvent("ORD-1", "pi_1")}, repo, logs, pub)

	result, err := r.Process(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)

	assert.Equal(t, OutcomeProcessed, result.Outcome)
	assert.Equal(t, order.StatusPaid, repo.orders["ORD-1"].PaymentStatus)
	assert.Equal(t, "pi_1", repo.orders["ORD-1"].PaymentIntentID)

	require.Len(t, logs.entries, 1)
	assert.Equal(t, LogStatusSuccess, logs.entries[0].Status)
	assert.Equal(t, "pi_1", logs.entries[0].PaymentIntentID)

	assert.Equal(t, []string{"ORD-1"}, pub.published)
}

func TestProcess_ReplayIsIdempotent(t *testing.T) {
	repo := pendingOrderRepo()
	logs := &fakeLogRepo{}
	r := newTestReconciler(&fakeVerifier{event: succeededEvent("ORD-1", "pi_1")}, repo, logs, nil)
	ctx := context.Background()

	first, err := r.Process(ctx, []byte("{}"), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, first.Outcome)

	second, err := r.Process(ctx, []byte("{}"), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyPaid, second.Outcome)

	// Exactly one paid transition and exactly one success audit row.
	assert.Equal(t, order.StatusPaid, repo.orders["ORD-1"].PaymentStatus)
	require.Len(t, logs.entries, 1)
	assert.Equal(t, LogStatusSuccess, logs.entries[0].Status)
}

func TestProcess_ConflictingIntentsFirstWins(t *testing.T) {
	repo := pendingOrderRepo()
	logs := &fakeLogRepo{}
	r1 := newTestReconciler(&fakeVerifier{event: succeededEvent("ORD-1", "pi_1")}, repo, logs, nil)
	r2 := newTestReconciler(&fakeVerifier{event: succeededEvent("ORD-1", "pi_2")}, repo, logs, nil)
	ctx := context.Background()

	first, err := r1.Process(ctx, []byte("{}"), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, first.Outcome)

	second, err := r2.Process(ctx, []byte("{}"), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDifferentIntent, second.Outcome)

	assert.Equal(t, "pi_1", repo.orders["ORD-1"].PaymentIntentID, "first intent stays frozen")
	require.Len(t, logs.entries, 1)
}

func TestProcess_SignatureFailure(t *testing.T) {
	repo := pendingOrderRepo()
	logs := &fakeLogRepo{}
	r := newTestReconciler(&fakeVerifier{err: ErrSignature}, repo, logs, nil)

	_, err := r.Process(context.Background(), []byte("{}"), "bad-sig")
	assert.ErrorIs(t, err, ErrSignature)

	// No store mutation, no audit entry.
	assert.Equal(t, order.StatusPending, repo.orders["ORD-1"].PaymentStatus)
	assert.Empty(t, logs.entries)
}

func TestProcess_MissingMetadata(t *testing.T) {
	logs := &fakeLogRepo{}
	r := newTestReconciler(&fakeVerifier{event: succeededEvent("", "pi_1")}, pendingOrderRepo(), logs, nil)

	_, err := r.Process(context.Background(), []byte("{}"), "sig")
	assert.ErrorIs(t, err, ErrMissingMetadata)
	assert.Empty(t, logs.entries)
}

func TestProcess_UnknownOrder(t *testing.T) {
	logs := &fakeLogRepo{}
	r := newTestReconciler(&fakeVerifier{event: succeededEvent("ORD-missing", "pi_1")}, pendingOrderRepo(), logs, nil)

	_, err := r.Process(context.Background(), []byte("{}"), "sig")
	assert.ErrorIs(t, err, order.ErrNotFound)
	assert.Empty(t, logs.entries)
}

func TestProcess_UnknownEventTypeIgnored(t *testing.T) {
	repo := pendingOrderRepo()
	logs := &fakeLogRepo{}
	r := newTestReconciler(&fakeVerifier{event: Event{Type: "charge.refunded"}}, repo, logs, nil)

	result, err := r.Process(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, result.Outcome)
	assert.Equal(t, order.StatusPending, repo.orders["ORD-1"].PaymentStatus)
	assert.Empty(t, logs.entries)
}

func TestProcess_MarkPaidFailureAudited(t *testing.T) {
	repo := pendingOrderRepo()
	repo.markPaidErr = errors.New("db down")
	logs := &fakeLogRepo{}
	r := newTestReconciler(&fakeVerifier{event: succeededEvent("ORD-1", "pi_1")}, repo, logs, nil)

	result, err := r.Process(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err, "persistence failures are folded into the result, not returned")

	assert.Equal(t, OutcomeFailed, result.Outcome)
	require.Len(t, logs.entries, 1)
	assert.Equal(t, LogStatusFailed, logs.entries[0].Status)
	assert.Contains(t, logs.entries[0].ErrorMessage, "db down")
}

func TestProcess_AuditAppendFailureSwallowed(t *testing.T) {
	repo := pendingOrderRepo()
	logs := &fakeLogRepo{appendErr: errors.New("logs table gone")}
	r := newTestReconciler(&fakeVerifier{event: succeededEvent("ORD-1", "pi_1")}, repo, logs, nil)

	result, err := r.Process(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)

	// The paid transition happened; the missing audit row is reported as a
	// failed outcome for manual reconciliation.
	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, order.StatusPaid, repo.orders["ORD-1"].PaymentStatus)
}

func TestProcess_PublisherFailureDoesNotFailProcessing(t *testing.T) {
	repo := pendingOrderRepo()
	pub := &fakePublisher{err: errors.New("rabbit down")}
	r := newTestReconciler(&fakeVerifier{event: succeededEvent("ORD-1", "pi_1")}, repo, &fakeLogRepo{}, pub)

	result, err := r.Process(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, result.Outcome)
}
