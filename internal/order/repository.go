package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MarkPaidOutcome classifies the result of the conditional paid transition.
type MarkPaidOutcome int

const (
	MarkPaidUpdated MarkPaidOutcome = iota
	MarkPaidAlreadyPaid
	MarkPaidDifferentIntent
	MarkPaidNotFound
)

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	MarkPaid(ctx context.Context, orderID, paymentIntentID string) (MarkPaidOutcome, error)
}

// ErrDuplicateID is returned by Create when the generated order id collides.
var ErrDuplicateID = errors.New("duplicate order id")

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, o *Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, buyer_name, buyer_email, buyer_phone, buyer_address,
		                    total, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`, o.ID, o.UserID, o.Buyer.Name, o.Buyer.Email, o.Buyer.Phone, o.Buyer.Address,
		o.Total, o.PaymentStatus, o.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.NewString(), o.ID, it.ProductID, it.Name, it.Quantity, it.UnitPrice)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetByID returns nil, nil when the order does not exist.
func (r *PostgresRepository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, buyer_name, buyer_email, buyer_phone, buyer_address,
		       total, payment_status, COALESCE(payment_intent_id, ''), created_at, updated_at
		FROM orders WHERE id = $1
	`, orderID).Scan(&o.ID, &o.UserID, &o.Buyer.Name, &o.Buyer.Email, &o.Buyer.Phone,
		&o.Buyer.Address, &o.Total, &o.PaymentStatus, &o.PaymentIntentID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return &o, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, buyer_name, buyer_email, buyer_phone, buyer_address,
		       total, payment_status, COALESCE(payment_intent_id, ''), created_at, updated_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Buyer.Name, &o.Buyer.Email, &o.Buyer.Phone,
			&o.Buyer.Address, &o.Total, &o.PaymentStatus, &o.PaymentIntentID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

// MarkPaid freezes the payment intent id and flips the order to paid in a
// single conditional UPDATE. Two webhook deliveries racing on the same order
// cannot both win: the WHERE clause only matches while the order is unpaid
// and no other intent id has been frozen.
func (r *PostgresRepository) MarkPaid(ctx context.Context, orderID, paymentIntentID string) (MarkPaidOutcome, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET payment_status = 'paid', payment_intent_id = $2, updated_at = NOW()
		WHERE id = $1
		  AND payment_status <> 'paid'
		  AND (payment_intent_id IS NULL OR payment_intent_id = $2)
	`, orderID, paymentIntentID)
	if err != nil {
		return MarkPaidNotFound, fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return MarkPaidUpdated, nil
	}

	// Zero rows: classify why by re-reading the current row.
	var status string
	var existingIntent string
	err = r.pool.QueryRow(ctx, `
		SELECT payment_status, COALESCE(payment_intent_id, '')
		FROM orders WHERE id = $1
	`, orderID).Scan(&status, &existingIntent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MarkPaidNotFound, nil
		}
		return MarkPaidNotFound, fmt.Errorf("select order status: %w", err)
	}

	if status == string(StatusPaid) && existingIntent == paymentIntentID {
		return MarkPaidAlreadyPaid, nil
	}
	if existingIntent != "" && existingIntent != paymentIntentID {
		return MarkPaidDifferentIntent, nil
	}
	return MarkPaidAlreadyPaid, nil
}

func (r *PostgresRepository) loadItems(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT product_id, name, quantity, unit_price
		FROM order_items WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}
