package inventory

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

var _ InventoryRepo = (*PostgresInventoryRepo)(nil)

// InventoryRepo defines the contract for per-user inventory persistence.
// Every operation is keyed by the owning user; rows of other users are
// invisible to it.
type InventoryRepo interface {
	// AddItem inserts a new (user, product) entry. Returns api.ErrNotFound
	// when the product does not exist and api.ErrConflict when the pair is
	// already present.
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*api.InventoryEntry, error)

	// GetItem returns the joined product view for one entry, or
	// api.ErrNotFound when the user holds no such product.
	GetItem(ctx context.Context, userID, productID int64) (*api.InventoryItem, error)

	// ListItems returns a page of the user's inventory in insertion order.
	ListItems(ctx context.Context, userID int64, offset, limit int) ([]api.InventoryItem, error)

	// UpdateQuantity overwrites the quantity of one entry and returns the
	// joined product view, the same shape reads produce. Returns
	// api.ErrNotFound when the user holds no such product.
	UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) (*api.InventoryItem, error)
}

type PostgresInventoryRepo struct {
	logger *slog.Logger
	db     api.DB
}

func NewPostgresInventoryRepo(db api.DB, logger *slog.Logger) *PostgresInventoryRepo {
	return &PostgresInventoryRepo{
		logger: logger,
		db:     db,
	}
}

const entryColumns = "user_id, product_id, quantity, created_at, updated_at"

func scanEntry(row pgx.Row) (*api.InventoryEntry, error) {
	var e api.InventoryEntry
	err := row.Scan(&e.UserID, &e.ProductID, &e.Quantity, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PostgresInventoryRepo) AddItem(ctx context.Context, userID, productID int64, quantity int) (*api.InventoryEntry, error) {
	ctx, span := otel.Tracer("InventoryRepo").Start(ctx, "AddItem", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "products_users"),
		attribute.Int64("db.user.id", userID),
		attribute.Int64("db.product.id", productID),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "AddItem"),
		slog.Int64("userID", userID), slog.Int64("productID", productID))

	query := `
        INSERT INTO products_users (user_id, product_id, quantity)
        VALUES ($1, $2, $3)
        RETURNING ` + entryColumns

	entry, err := scanEntry(r.db.QueryRow(ctx, query, userID, productID, quantity))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23503":
				// FK violation, the product is gone or never existed.
				l.WarnContext(ctx, "Product does not exist")
				span.SetStatus(codes.Error, "Unknown product")
				return nil, fmt.Errorf("product %d not found: %w", productID, api.ErrNotFound)
			case "23505":
				l.WarnContext(ctx, "Entry already present")
				span.SetStatus(codes.Error, "Duplicate inventory entry")
				return nil, fmt.Errorf("product %d already in inventory: %w", productID, api.ErrConflict)
			}
		}
		l.ErrorContext(ctx, "Failed to insert inventory entry", slog.Any("error", err))
		span.RecordError(err)
		metrics.RecordDBError(ctx)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error adding inventory entry: %w", err)
	}

	l.InfoContext(ctx, "Inventory entry added", slog.Int("quantity", entry.Quantity))
	span.SetStatus(codes.Ok, "Entry added")
	return entry, nil
}

func (r *PostgresInventoryRepo) GetItem(ctx context.Context, userID, productID int64) (*api.InventoryItem, error) {
	ctx, span := otel.Tracer("InventoryRepo").Start(ctx, "GetItem", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "products_users, products"),
		attribute.Int64("db.user.id", userID),
		attribute.Int64("db.product.id", productID),
	))
	defer span.End()

	query := `
        SELECT pu.product_id, pu.quantity, p.name, p.brand, p.price, p.type
        FROM products_users pu
        JOIN products p ON p.id = pu.product_id
        WHERE pu.user_id = $1 AND pu.product_id = $2`

	var item api.InventoryItem
	err := r.db.QueryRow(ctx, query, userID, productID).Scan(
		&item.ProductID, &item.Quantity, &item.Name, &item.Brand, &item.Price, &item.Type,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Entry not found")
			return nil, fmt.Errorf("product %d not in inventory: %w", productID, api.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to fetch inventory entry", slog.Any("error", err))
		span.RecordError(err)
		metrics.RecordDBError(ctx)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching inventory entry: %w", err)
	}

	span.SetStatus(codes.Ok, "Entry fetched")
	return &item, nil
}

func (r *PostgresInventoryRepo) ListItems(ctx context.Context, userID int64, offset, limit int) ([]api.InventoryItem, error) {
	ctx, span := otel.Tracer("InventoryRepo").Start(ctx, "ListItems", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "products_users, products"),
		attribute.Int64("db.user.id", userID),
		attribute.Int("db.offset", offset),
		attribute.Int("db.limit", limit),
	))
	defer span.End()

	query := `
        SELECT pu.product_id, pu.quantity, p.name, p.brand, p.price, p.type
        FROM products_users pu
        JOIN products p ON p.id = pu.product_id
        WHERE pu.user_id = $1
        ORDER BY pu.created_at, pu.product_id
        OFFSET $2 LIMIT $3`

	rows, err := r.db.Query(ctx, query, userID, offset, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query inventory", slog.Any("error", err))
		span.RecordError(err)
		metrics.RecordDBError(ctx)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing inventory: %w", err)
	}
	defer rows.Close()

	items := make([]api.InventoryItem, 0)
	for rows.Next() {
		var item api.InventoryItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.Name, &item.Brand, &item.Price, &item.Type); err != nil {
			span.RecordError(err)
			metrics.RecordDBError(ctx)
			span.SetStatus(codes.Error, "Row scan failed")
			return nil, fmt.Errorf("database error scanning inventory row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		metrics.RecordDBError(ctx)
		span.SetStatus(codes.Error, "Row iteration failed")
		return nil, fmt.Errorf("database error iterating inventory rows: %w", err)
	}

	span.SetStatus(codes.Ok, "Inventory listed")
	return items, nil
}

func (r *PostgresInventoryRepo) UpdateQuantity(ctx context.Context, userID, productID int64, quantity int) (*api.InventoryItem, error) {
	ctx, span := otel.Tracer("InventoryRepo").Start(ctx, "UpdateQuantity", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "products_users"),
		attribute.Int64("db.user.id", userID),
		attribute.Int64("db.product.id", productID),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "UpdateQuantity"),
		slog.Int64("userID", userID), slog.Int64("productID", productID))

	// Single round trip: update, then join the new row with the product so
	// the response carries the same view shape reads do.
	query := `
        WITH updated AS (
            UPDATE products_users
            SET quantity = $1, updated_at = NOW()
            WHERE user_id = $2 AND product_id = $3
            RETURNING product_id, quantity
        )
        SELECT u.product_id, u.quantity, p.name, p.brand, p.price, p.type
        FROM updated u
        JOIN products p ON p.id = u.product_id`

	var item api.InventoryItem
	err := r.db.QueryRow(ctx, query, quantity, userID, productID).Scan(
		&item.ProductID, &item.Quantity, &item.Name, &item.Brand, &item.Price, &item.Type,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "Entry not found")
			return nil, fmt.Errorf("product %d not in inventory: %w", productID, api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to update inventory quantity", slog.Any("error", err))
		span.RecordError(err)
		metrics.RecordDBError(ctx)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return nil, fmt.Errorf("database error updating inventory quantity: %w", err)
	}

	l.InfoContext(ctx, "Inventory quantity updated", slog.Int("quantity", item.Quantity))
	span.SetStatus(codes.Ok, "Quantity updated")
	return &item, nil
}
