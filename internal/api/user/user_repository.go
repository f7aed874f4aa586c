package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

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

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo defines the contract for account persistence.
type UserRepo interface {
	// CreateUser inserts a new account with an already-hashed password.
	// Returns api.ErrConflict when the email or username is taken; the
	// email check runs first so a request that collides on both reports
	// the email.
	CreateUser(ctx context.Context, username, email, hashedPassword string) (*api.User, error)

	// GetUserByID returns api.ErrNotFound when no account has that ID.
	GetUserByID(ctx context.Context, userID int64) (*api.User, error)

	// ListUsers returns a page of accounts ordered by ID.
	ListUsers(ctx context.Context, offset, limit int) ([]api.User, error)

	// UpdateUser applies the non-nil fields of params. The password in
	// params must already be hashed. Returns api.ErrNotFound when the ID
	// does not exist and api.ErrConflict on a uniqueness collision.
	UpdateUser(ctx context.Context, userID int64, params api.UpdateUserParams) (*api.User, error)

	// DeleteUser removes an account and returns its last stored state.
	DeleteUser(ctx context.Context, userID int64) (*api.User, error)
}

type PostgresUserRepo struct {
	logger *slog.Logger
	db     api.DB
}

func NewPostgresUserRepo(db api.DB, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		db:     db,
	}
}

const userColumns = "id, username, email, password_hash, is_superuser, created_at, updated_at"

func scanUser(row pgx.Row) (*api.User, error) {
	var u api.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// conflictFromConstraint translates a unique-violation constraint name into
// the user-facing conflict error.
func conflictFromConstraint(constraint string) error {
	if strings.Contains(constraint, "email") {
		return fmt.Errorf("email already registered: %w", api.ErrConflict)
	}
	return fmt.Errorf("username already taken: %w", api.ErrConflict)
}

func (r *PostgresUserRepo) CreateUser(ctx context.Context, username, email, hashedPassword string) (*api.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "CreateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "CreateUser"), slog.String("username", username))

	// Pre-check gives deterministic precedence: an email collision is
	// reported even when the username collides too. The unique indexes
	// still backstop races below.
	var emailTaken, usernameTaken bool
	err := r.db.QueryRow(ctx,
		`SELECT
            EXISTS (SELECT 1 FROM users WHERE email = $1),
            EXISTS (SELECT 1 FROM users WHERE username = $2)`,
		email, username).Scan(&emailTaken, &usernameTaken)
	if err != nil {
		l.ErrorContext(ctx, "Failed to check account uniqueness", slog.Any("error", err))
		span.RecordError(err)
		metrics.RecordDBError(ctx)
		span.SetStatus(codes.Error, "DB uniqueness check failed")
		return nil, fmt.Errorf("database error checking account uniqueness: %w", err)
	}
	if emailTaken {
		span.SetStatus(codes.Error, "Email taken")
		return nil, fmt.Errorf("email already registered: %w", api.ErrConflict)
	}
	if usernameTaken {
		span.SetStatus(codes.Error, "Username taken")
		return nil, fmt.Errorf("username already taken: %w", api.ErrConflict)
	}

	query := `
        INSERT INTO users (username, email, password_hash)
        VALUES ($1, $2, $3)
        RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, username, email, hashedPassword))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			l.WarnContext(ctx, "Account uniqueness race lost", slog.String("constraint", pgErr.ConstraintName))
			span.SetStatus(codes.Error, "Duplicate account")
			return nil, conflictFromConstraint(pgErr.ConstraintName)
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		span.RecordError(err)
		metrics.RecordDBError(ctx)
		span.SetStatus(codes.Error, "DB INSERT failed")
		return nil, fmt.Errorf("database error creating user: %w", err)
	}

	l.InfoContext(ctx, "User created", slog.Int64("userID", user.ID))
	span.SetStatus(codes.Ok, "User created")
	return user, nil
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, userID int64) (*api.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "GetUserByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
		attribute.Int64("db.user.id", userID),
	))
	defer span.End()

	query := "SELECT " + userColumns + " FROM users WHERE id = $1"

	user, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "User not found")
			return nil, fmt.Errorf("user %d not found: %w", userID, api.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to fetch user", slog.Any("error", err))
		span.RecordError(err)
		metrics.RecordDBError(ctx)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}

	span.SetStatus(codes.Ok, "User fetched")
	return user, nil
}

func (r *PostgresUserRepo) ListUsers(ctx context.Context, offset, limit int) ([]api.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "ListUsers", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
		attribute.Int("db.offset", offset),
		attribute.Int("db.limit", limit),
	))
	defer span.End()

	query := "SELECT " + userColumns + " FROM users ORDER BY id OFFSET $1 LIMIT $2"

	rows, err := r.db.Query(ctx, query, offset, limit)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query users", slog.Any("error", err))
		span.RecordError(err)
		metrics.RecordDBError(ctx)
		span.SetStatus(codes.Error, "DB query failed")
		return nil, fmt.Errorf("database error listing users: %w", err)
	}
	defer rows.Close()

	users := make([]api.User, 0)
	for rows.Next() {
		var u api.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt); err != nil {
			span.RecordError(err)
			metrics.RecordDBError(ctx)
			span.SetStatus(codes.Error, "Row scan failed")
			return nil, fmt.Errorf("database error scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		metrics.RecordDBError(ctx)
		span.SetStatus(codes.Error, "Row iteration failed")
		return nil, fmt.Errorf("database error iterating user rows: %w", err)
	}

	span.SetStatus(codes.Ok, "Users listed")
	return users, nil
}

func (r *PostgresUserRepo) UpdateUser(ctx context.Context, userID int64, params api.UpdateUserParams) (*api.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "UpdateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "users"),
		attribute.Int64("db.user.id", userID),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "UpdateUser"), slog.Int64("userID", userID))

	var setClauses []string
	var args []interface{}
	argID := 1

	if params.Username != nil {
		setClauses = append(setClauses, fmt.Sprintf("username = $%d", argID))
		args = append(args, *params.Username)
		argID++
		span.SetAttributes(attribute.Bool("update.username", true))
	}
	if params.Email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", argID))
		args = append(args, *params.Email)
		argID++
		span.SetAttributes(attribute.Bool("update.email", true))
	}
	if params.Password != nil {
		setClauses = append(setClauses, fmt.Sprintf("password_hash = $%d", argID))
		args = append(args, *params.Password)
		argID++
		span.SetAttributes(attribute.Bool("update.password", true))
	}

	if len(setClauses) == 0 {
		// Nothing to change, return the current state.
		span.SetStatus(codes.Ok, "No update fields provided")
		return r.GetUserByID(ctx, userID)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, userID)

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d RETURNING %s",
		strings.Join(setClauses, ", "), argID, userColumns)

	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "User not found")
			return nil, fmt.Errorf("user %d not found: %w", userID, api.ErrNotFound)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			l.WarnContext(ctx, "Account update collides", slog.String("constraint", pgErr.ConstraintName))
			span.SetStatus(codes.Error, "Duplicate account")
			return nil, conflictFromConstraint(pgErr.ConstraintName)
		}
		l.ErrorContext(ctx, "Failed to update user", slog.Any("error", err))
		span.RecordError(err)
		metrics.RecordDBError(ctx)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return nil, fmt.Errorf("database error updating user: %w", err)
	}

	l.InfoContext(ctx, "User updated")
	span.SetStatus(codes.Ok, "User updated")
	return user, nil
}

func (r *PostgresUserRepo) DeleteUser(ctx context.Context, userID int64) (*api.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "DeleteUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.sql.table", "users"),
		attribute.Int64("db.user.id", userID),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "DeleteUser"), slog.Int64("userID", userID))

	// Inventory rows go with the account via ON DELETE CASCADE.
	query := "DELETE FROM users WHERE id = $1 RETURNING " + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "User not found")
			return nil, fmt.Errorf("user %d not found: %w", userID, api.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to delete user", slog.Any("error", err))
		span.RecordError(err)
		metrics.RecordDBError(ctx)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return nil, fmt.Errorf("database error deleting user: %w", err)
	}

	l.InfoContext(ctx, "User deleted")
	span.SetStatus(codes.Ok, "User deleted")
	return user, nil
}
