package product

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/gmarques/go-products-api/app/observability/metrics"
	"github.com/gmarques/go-products-api/internal/api"
)

var _ ProductRepo = (*PostgresProductRepo)(nil)

// ProductRepo defines the contract for catalog persistence.
type ProductRepo interface {
	// CreateProduct inserts a new product and returns it with its assigned ID.
	// Returns api.ErrConflict when the name is already taken.
	CreateProduct(ctx context.Context, params api.CreateProductRequest) (*api.Product, error)

	// GetProductByID returns api.ErrNotFound when no product has that ID.
	GetProductByID(ctx context.Context, productID int64) (*api.Product, error)

	// ListProducts returns a stable page of the catalog ordered by ID.
	ListProducts(ctx context.Context, offset, limit int) ([]api.Product, error)

	// ReplaceProduct overwrites every mutable column of a product.
	// Returns api.ErrNotFound when the ID does not exist and api.ErrConflict
	// when the new name collides with another product.
	ReplaceProduct(ctx context.Context, productID int64, params api.CreateProductRequest) (*api.Product, error)

	// DeleteProduct removes a product and returns its last stored state.
	// Returns api.ErrNotFound when no product has that ID.
	DeleteProduct(ctx context.Context, productID int64) (*api.Product, error)
}

type PostgresProductRepo struct {
	logger *slog.Logger
	db     api.DB
}

func NewPostgresProductRepo(db api.DB, logger *slog.Logger) *PostgresProductRepo {
	return &PostgresProductRepo{
		logger: logger,
		db:     db,
	}
}

const productColumns = "id, name, brand, price, type, created_at, updated_at"

func scanProduct(row pgx.Row) (*api.Product, error) {
	var p api.Product
	err := row.Scan(&p.ID, &p.Name, &p.Brand, &p.Price, &p.Type, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresProductRepo) CreateProduct(ctx context.Context, params api.CreateProductRequest) (*api.Product, error) {
	ctx, span := otel.Tracer("ProductRepo").Start(ctx, "CreateProduct", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "products"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "CreateProduct"), slog.String("name", params.Name))

	query := `
        INSERT INTO products (name, brand, price, type)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + productColumns

	product, err := scanProduct(r.db.QueryRow(ctx, query, params.Name, params.Brand, params.Price, params.Type))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			l.WarnContext(ctx, "Product name already taken")
			span.SetStatus(codes.Error, "Duplicate product name")
			return nil, fmt.Errorf("product with name %q already exists: %w", params.Name, api.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert product", slog.Any("error", err))
		span.RecordError(err)
		metrics.RecordDBError(ctx)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error creating product: %w", err)
	}

	l.InfoContext(ctx, "Product created", slog.Int64("productID", product.ID))
	span.SetStatus(codes.Ok, "Product created")
	return product, nil
}

func (r *PostgresProductRepo) GetProductByID(ctx context.Context, productID int64) (*api.Product, error) {
	ctx, span := otel.Tracer("ProductRepo").Start(ctx, "GetProductByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "products"),
		attribute.Int64("db.product.id", productID),
	))
	defer span.End()

	query := "SELECT " + productColumns + " FROM products WHERE id = $1"

	product, err := scanProduct(r.db.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Product not found")
			return nil, fmt.Errorf("product %d not found: %w", productID, api.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to fetch product", slog.Any("error", err))
		span.RecordError(err)
		metrics.RecordDBError(ctx)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching product: %w", err)
	}

	span.SetStatus(codes.Ok, "Product fetched")
	return product, nil
}

func (r *PostgresProductRepo) ListProducts(ctx context.Context, offset, limit int) ([]api.Product, error) {
	ctx, span := otel.Tracer("ProductRepo").Start(ctx, "ListProducts", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "products"),
		attribute.Int("db.offset", offset),
		attribute.Int("db.limit", limit),
	))
	defer span.End()

	query := "SELECT " + productColumns + " FROM products ORDER BY id OFFSET $1 LIMIT $2"

	rows, err := r.db.Query(ctx, query, offset, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query products", slog.Any("error", err))
		span.RecordError(err)
		metrics.RecordDBError(ctx)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing products: %w", err)
	}
	defer rows.Close()

	products := make([]api.Product, 0)
	for rows.Next() {
		var p api.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.Price, &p.Type, &p.CreatedAt, &p.UpdatedAt); err != nil {
			span.RecordError(err)
			metrics.RecordDBError(ctx)
			span.SetStatus(codes.Error, "Row scan failed")
			return nil, fmt.Errorf("database error scanning product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		metrics.RecordDBError(ctx)
		span.SetStatus(codes.Error, "Row iteration failed")
		return nil, fmt.Errorf("database error iterating product rows: %w", err)
	}

	span.SetStatus(codes.Ok, "Products listed")
	return products, nil
}

func (r *PostgresProductRepo) ReplaceProduct(ctx context.Context, productID int64, params api.CreateProductRequest) (*api.Product, error) {
	ctx, span := otel.Tracer("ProductRepo").Start(ctx, "ReplaceProduct", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "products"),
		attribute.Int64("db.product.id", productID),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "ReplaceProduct"), slog.Int64("productID", productID))

	query := `
        UPDATE products
        SET name = $1, brand = $2, price = $3, type = $4, updated_at = NOW()
        WHERE id = $5
        RETURNING ` + productColumns

	product, err := scanProduct(r.db.QueryRow(ctx, query, params.Name, params.Brand, params.Price, params.Type, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Product not found")
			return nil, fmt.Errorf("product %d not found: %w", productID, api.ErrNotFound)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			l.WarnContext(ctx, "Product name already taken")
			span.SetStatus(codes.Error, "Duplicate product name")
			return nil, fmt.Errorf("product with name %q already exists: %w", params.Name, api.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to update product", slog.Any("error", err))
		span.RecordError(err)
		metrics.RecordDBError(ctx)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return nil, fmt.Errorf("database error updating product: %w", err)
	}

	l.InfoContext(ctx, "Product replaced")
	span.SetStatus(codes.Ok, "Product replaced")
	return product, nil
}

func (r *PostgresProductRepo) DeleteProduct(ctx context.Context, productID int64) (*api.Product, error) {
	ctx, span := otel.Tracer("ProductRepo").Start(ctx, "DeleteProduct", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.sql.table", "products"),
		attribute.Int64("db.product.id", productID),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "DeleteProduct"), slog.Int64("productID", productID))

	query := "DELETE FROM products WHERE id = $1 RETURNING " + productColumns

	product, err := scanProduct(r.db.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Product not found")
			return nil, fmt.Errorf("product %d not found: %w", productID, api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to delete product", slog.Any("error", err))
		span.RecordError(err)
		metrics.RecordDBError(ctx)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return nil, fmt.Errorf("database error deleting product: %w", err)
	}

	l.InfoContext(ctx, "Product deleted")
	span.SetStatus(codes.Ok, "Product deleted")
	return product, nil
}
