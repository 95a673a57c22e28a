package order

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresRepository(mock)
}

func TestPostgresRepository_Create(t *testing.T) {
	mock, repo := newMockRepo(t)

	now := time.Now().UTC()
	o := &Order{
		ID:     "ORD-12345678",
		UserID: "user-1",
		Buyer: BuyerInfo{
			Name: "Chen Wei", Email: "chen@example.com",
			Phone: "91234567", Address: "1 Harbour Rd",
		},
		Items: []Item{
			{ProductID: 1, Name: "Oolong Tea", Quantity: 2, UnitPrice: 50},
		},
		Total:         100,
		PaymentStatus: StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(o.ID, o.UserID, o.Buyer.Name, o.Buyer.Email, o.Buyer.Phone, o.Buyer.Address,
			o.Total, o.PaymentStatus, o.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(pgxmock.AnyArg(), o.ID, int64(1), "Oolong Tea", 2, 50.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), o))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByID_Missing(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT id, user_id").
		WithArgs("ORD-missing").
		WillReturnError(pgx.ErrNoRows)

	o, err := repo.GetByID(context.Background(), "ORD-missing")
	require.NoError(t, err)
	assert.Nil(t, o)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetByID(t *testing.T) {
	mock, repo := newMockRepo(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, user_id").
		WithArgs("ORD-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "buyer_name", "buyer_email", "buyer_phone", "buyer_address",
			"total", "payment_status", "payment_intent_id", "created_at", "updated_at",
		}).AddRow("ORD-1", "user-1", "Chen Wei", "chen@example.com", "91234567", "1 Harbour Rd",
			100.0, StatusPending, "", now, now))
	mock.ExpectQuery("SELECT product_id, name, quantity, unit_price").
		WithArgs("ORD-1").
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "name", "quantity", "unit_price"}).
			AddRow(int64(1), "Oolong Tea", 2, 50.0))

	o, err := repo.GetByID(context.Background(), "ORD-1")
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, "user-1", o.UserID)
	assert.Equal(t, StatusPending, o.PaymentStatus)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "Oolong Tea", o.Items[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_MarkPaid(t *testing.T) {
	ctx := context.Background()

	t.Run("updates pending order", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectExec("UPDATE orders").
			WithArgs("ORD-1", "pi_1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		outcome, err := repo.MarkPaid(ctx, "ORD-1", "pi_1")
		require.NoError(t, err)
		assert.Equal(t, MarkPaidUpdated, outcome)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already paid with same intent", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectExec("UPDATE orders").
			WithArgs("ORD-1", "pi_1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery("SELECT payment_status").
			WithArgs("ORD-1").
			WillReturnRows(pgxmock.NewRows([]string{"payment_status", "payment_intent_id"}).
				AddRow("paid", "pi_1"))

		outcome, err := repo.MarkPaid(ctx, "ORD-1", "pi_1")
		require.NoError(t, err)
		assert.Equal(t, MarkPaidAlreadyPaid, outcome)
	})

	t.Run("different intent frozen", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectExec("UPDATE orders").
			WithArgs("ORD-1", "pi_2").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery("SELECT payment_status").
			WithArgs("ORD-1").
			WillReturnRows(pgxmock.NewRows([]string{"payment_status", "payment_intent_id"}).
				AddRow("paid", "pi_1"))

		outcome, err := repo.MarkPaid(ctx, "ORD-1", "pi_2")
		require.NoError(t, err)
		assert.Equal(t, MarkPaidDifferentIntent, outcome)
	})

	t.Run("missing order", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		mock.ExpectExec("UPDATE orders").
			WithArgs("ORD-missing", "pi_1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery("SELECT payment_status").
			WithArgs("ORD-missing").
			WillReturnError(pgx.ErrNoRows)

		outcome, err := repo.MarkPaid(ctx, "ORD-missing", "pi_1")
		require.NoError(t, err)
		assert.Equal(t, MarkPaidNotFound, outcome)
	})
}
