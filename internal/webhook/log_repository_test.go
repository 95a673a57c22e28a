package webhook

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockLogRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresLogRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresLogRepository(mock)
}

func TestLogAppend(t *testing.T) {
	mock, repo := newMockLogRepo(t)

	mock.ExpectExec("INSERT INTO webhook_logs").
		WithArgs(pgxmock.AnyArg(), "ORD-1", "pi_1", EventPaymentSucceeded, LogStatusSuccess, "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Append(context.Background(), LogEntry{
		OrderID:         "ORD-1",
		PaymentIntentID: "pi_1",
		EventType:       EventPaymentSucceeded,
		Status:          LogStatusSuccess,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLogListByOrder(t *testing.T) {
	mock, repo := newMockLogRepo(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT order_id, payment_intent_id").
		WithArgs("ORD-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"order_id", "payment_intent_id", "event_type", "status", "error_message", "processed_at",
		}).
			AddRow("ORD-1", "pi_1", EventPaymentSucceeded, LogStatusFailed, "db down", now).
			AddRow("ORD-1", "pi_1", EventPaymentSucceeded, LogStatusSuccess, "", now))

	entries, err := repo.ListByOrder(context.Background(), "ORD-1")
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, LogStatusFailed, entries[0].Status)
	assert.Equal(t, "db down", entries[0].ErrorMessage)
	assert.Equal(t, LogStatusSuccess, entries[1].Status)
}
