package inventory

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmarques/go-products-api/app/observability/metrics"
	"github.com/gmarques/go-products-api/internal/api"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresInventoryRepo) {
	t.Helper()
	metrics.InitAppMetrics()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return mockPool, NewPostgresInventoryRepo(mockPool, slog.Default())
}

func entryRow(userID, productID int64, quantity int) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{"user_id", "product_id", "quantity", "created_at", "updated_at"}).
		AddRow(userID, productID, quantity, now, now)
}

func TestAddItem(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		mockPool.ExpectQuery("INSERT INTO products_users").
			WithArgs(int64(7), int64(1), 3).
			WillReturnRows(entryRow(7, 1, 3))

		entry, err := repo.AddItem(context.Background(), 7, 1, 3)

		require.NoError(t, err)
		assert.Equal(t, int64(7), entry.UserID)
		assert.Equal(t, int64(1), entry.ProductID)
		assert.Equal(t, 3, entry.Quantity)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		mockPool.ExpectQuery("INSERT INTO products_users").
			WithArgs(int64(7), int64(404), 1).
			WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "products_users_product_id_fkey"})

		_, err := repo.AddItem(context.Background(), 7, 404, 1)

		assert.ErrorIs(t, err, api.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DuplicatePair", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		mockPool.ExpectQuery("INSERT INTO products_users").
			WithArgs(int64(7), int64(1), 1).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "products_users_pkey"})

		_, err := repo.AddItem(context.Background(), 7, 1, 1)

		assert.ErrorIs(t, err, api.ErrConflict)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestGetItem(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		rows := pgxmock.NewRows([]string{"product_id", "quantity", "name", "brand", "price", "type"}).
			AddRow(int64(1), 3, "Wireless Mouse", "Acme", 19.99, api.ProductTypeElectronics)
		mockPool.ExpectQuery("SELECT (.+) FROM products_users pu").
			WithArgs(int64(7), int64(1)).
			WillReturnRows(rows)

		item, err := repo.GetItem(context.Background(), 7, 1)

		require.NoError(t, err)
		assert.Equal(t, "Wireless Mouse", item.Name)
		assert.Equal(t, 3, item.Quantity)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotHeld", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		mockPool.ExpectQuery("SELECT (.+) FROM products_users pu").
			WithArgs(int64(7), int64(2)).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetItem(context.Background(), 7, 2)

		assert.ErrorIs(t, err, api.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestListItems(t *testing.T) {
	mockPool, repo := newMockRepo(t)
	// Pages follow insertion order, so a product added later keeps its place
	// even when its ID is lower.
	rows := pgxmock.NewRows([]string{"product_id", "quantity", "name", "brand", "price", "type"}).
		AddRow(int64(4), 1, "Mechanical Keyboard", "Acme", 59.99, api.ProductTypeElectronics).
		AddRow(int64(1), 3, "Wireless Mouse", "Acme", 19.99, api.ProductTypeElectronics)
	mockPool.ExpectQuery(`(?s)SELECT (.+) FROM products_users pu(.+)ORDER BY pu.created_at, pu.product_id`).
		WithArgs(int64(7), 0, 100).
		WillReturnRows(rows)

	items, err := repo.ListItems(context.Background(), 7, 0, 100)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(4), items[0].ProductID)
	assert.Equal(t, int64(1), items[1].ProductID)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestUpdateQuantity(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		// The update answers with the joined product view, the same shape
		// GetItem and ListItems produce.
		rows := pgxmock.NewRows([]string{"product_id", "quantity", "name", "brand", "price", "type"}).
			AddRow(int64(1), 5, "Wireless Mouse", "Acme", 19.99, api.ProductTypeElectronics)
		mockPool.ExpectQuery(`(?s)WITH updated AS(.+)UPDATE products_users(.+)JOIN products p`).
			WithArgs(5, int64(7), int64(1)).
			WillReturnRows(rows)

		item, err := repo.UpdateQuantity(context.Background(), 7, 1, 5)

		require.NoError(t, err)
		assert.Equal(t, int64(1), item.ProductID)
		assert.Equal(t, 5, item.Quantity)
		assert.Equal(t, "Wireless Mouse", item.Name)
		assert.Equal(t, "Acme", item.Brand)
		assert.Equal(t, 19.99, item.Price)
		assert.Equal(t, api.ProductTypeElectronics, item.Type)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotHeld", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		mockPool.ExpectQuery("UPDATE products_users").
			WithArgs(5, int64(7), int64(404)).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.UpdateQuantity(context.Background(), 7, 404, 5)

		assert.ErrorIs(t, err, api.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DatabaseError", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		mockPool.ExpectQuery("UPDATE products_users").
			WithArgs(5, int64(7), int64(1)).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.UpdateQuantity(context.Background(), 7, 1, 5)

		require.Error(t, err)
		assert.NotErrorIs(t, err, api.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
