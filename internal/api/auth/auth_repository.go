package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/gmarques/go-products-api/app/observability/metrics"
	"github.com/gmarques/go-products-api/internal/api"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo is the persistence surface the login flow and the identity
// resolver need. The full user row is loaded so the middleware can hand the
// resolved caller to downstream handlers.
type AuthRepo interface {
	GetUserByUsername(ctx context.Context, username string) (*api.User, error)
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	db     api.DB
}

func NewPostgresAuthRepo(db api.DB, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		db:     db,
	}
}

func (r *PostgresAuthRepo) GetUserByUsername(ctx context.Context, username string) (*api.User, error) {
	var user api.User
	query := `
        SELECT id, username, email, password_hash, is_superuser, created_at, updated_at
        FROM users
        WHERE username = $1`

	err := r.db.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.Email, &user.Password,
		&user.IsSuperuser, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", api.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to query user by username", slog.Any("error", err))
		metrics.RecordDBError(ctx)
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}

	return &user, nil
}
