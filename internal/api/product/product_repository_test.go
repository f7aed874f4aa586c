package product

import (
	"context"
	"log/slog"
	"regexp"
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

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresProductRepo) {
	t.Helper()
	metrics.InitAppMetrics()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return mockPool, NewPostgresProductRepo(mockPool, slog.Default())
}

func productRow(id int64, name string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{"id", "name", "brand", "price", "type", "created_at", "updated_at"}).
		AddRow(id, name, "Acme", 19.99, api.ProductTypeElectronics, now, now)
}

func TestCreateProduct(t *testing.T) {
	params := api.CreateProductRequest{
		Name:  "Wireless Mouse",
		Brand: "Acme",
		Price: 19.99,
		Type:  api.ProductTypeElectronics,
	}

	t.Run("Success", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		mockPool.ExpectQuery("INSERT INTO products").
			WithArgs(params.Name, params.Brand, params.Price, params.Type).
			WillReturnRows(productRow(1, params.Name))

		product, err := repo.CreateProduct(context.Background(), params)

		require.NoError(t, err)
		assert.Equal(t, int64(1), product.ID)
		assert.Equal(t, "Wireless Mouse", product.Name)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DuplicateName", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		mockPool.ExpectQuery("INSERT INTO products").
			WithArgs(params.Name, params.Brand, params.Price, params.Type).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "products_name_key"})

		_, err := repo.CreateProduct(context.Background(), params)

		assert.ErrorIs(t, err, api.ErrConflict)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestGetProductByID(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT id, name, brand, price, type, created_at, updated_at FROM products WHERE id = $1")).
			WithArgs(int64(42)).
			WillReturnRows(productRow(42, "Wireless Mouse"))

		product, err := repo.GetProductByID(context.Background(), 42)

		require.NoError(t, err)
		assert.Equal(t, int64(42), product.ID)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		mockPool.ExpectQuery("SELECT (.+) FROM products WHERE id").
			WithArgs(int64(404)).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetProductByID(context.Background(), 404)

		assert.ErrorIs(t, err, api.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestListProducts(t *testing.T) {
	mockPool, repo := newMockRepo(t)
	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "name", "brand", "price", "type", "created_at", "updated_at"}).
		AddRow(int64(1), "Wireless Mouse", "Acme", 19.99, api.ProductTypeElectronics, now, now).
		AddRow(int64(2), "Mechanical Keyboard", "Acme", 59.99, api.ProductTypeElectronics, now, now)

	mockPool.ExpectQuery("SELECT (.+) FROM products ORDER BY id OFFSET").
		WithArgs(0, 100).
		WillReturnRows(rows)

	products, err := repo.ListProducts(context.Background(), 0, 100)

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Wireless Mouse", products[0].Name)
	assert.Equal(t, "Mechanical Keyboard", products[1].Name)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestReplaceProduct(t *testing.T) {
	params := api.CreateProductRequest{
		Name:  "Wireless Mouse v2",
		Brand: "Acme",
		Price: 24.99,
		Type:  api.ProductTypeElectronics,
	}

	t.Run("NotFound", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		mockPool.ExpectQuery("UPDATE products").
			WithArgs(params.Name, params.Brand, params.Price, params.Type, int64(404)).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.ReplaceProduct(context.Background(), 404, params)

		assert.ErrorIs(t, err, api.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NameTakenByOther", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		mockPool.ExpectQuery("UPDATE products").
			WithArgs(params.Name, params.Brand, params.Price, params.Type, int64(1)).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "products_name_key"})

		_, err := repo.ReplaceProduct(context.Background(), 1, params)

		assert.ErrorIs(t, err, api.ErrConflict)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestDeleteProduct(t *testing.T) {
	mockPool, repo := newMockRepo(t)
	mockPool.ExpectQuery("DELETE FROM products WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(productRow(1, "Wireless Mouse"))

	product, err := repo.DeleteProduct(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, "Wireless Mouse", product.Name)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
