package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	LogStatusSuccess = "success"
	LogStatusFailed  = "failed"
)

// LogEntry is one append-only audit row. Rows are never mutated or deleted;
// the audit trail, not the HTTP response, is the source of truth for what
// was processed.
type LogEntry struct {
	OrderID         string    `json:"orderId"`
	PaymentIntentID string    `json:"paymentIntentId"`
	EventType       string    `json:"eventType"`
	Status          string    `json:"status"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
	ProcessedAt     time.Time `json:"processedAt"`
}

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type LogRepository interface {
	Append(ctx context.Context, entry LogEntry) error
	ListByOrder(ctx context.Context, orderID string) ([]LogEntry, error)
}

type PostgresLogRepository struct {
	pool DBPool
}

func NewPostgresLogRepository(pool DBPool) *PostgresLogRepository {
	return &PostgresLogRepository{pool: pool}
}

func (r *PostgresLogRepository) Append(ctx context.Context, entry LogEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO webhook_logs (id, order_id, payment_intent_id, event_type, status, error_message, processed_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NOW())
	`, uuid.NewString(), entry.OrderID, entry.PaymentIntentID, entry.EventType, entry.Status, entry.ErrorMessage)
	if err != nil {
		return fmt.Errorf("insert webhook_log: %w", err)
	}
	return nil
}

func (r *PostgresLogRepository) ListByOrder(ctx context.Context, orderID string) ([]LogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT order_id, payment_intent_id, event_type, status, COALESCE(error_message, ''), processed_at
		FROM webhook_logs WHERE order_id = $1 ORDER BY processed_at
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select webhook_logs: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.OrderID, &e.PaymentIntentID, &e.EventType, &e.Status, &e.ErrorMessage, &e.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan webhook_log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return entries, nil
}
