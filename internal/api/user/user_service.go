package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gmarques/go-products-api/internal/api"
	"github.com/gmarques/go-products-api/internal/api/auth"
)

var _ UserService = (*UserServiceImpl)(nil)

// UserService defines account business operations. Mutations carry the
// calling user so ownership can be enforced.
type UserService interface {
	CreateUser(ctx context.Context, req api.CreateUserRequest) (*api.User, error)
	GetUser(ctx context.Context, userID int64) (*api.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]api.User, error)

	// UpdateUser applies a partial update. Only the account owner may
	// change it; anything else returns api.ErrUnauthorized.
	UpdateUser(ctx context.Context, caller *api.User, userID int64, params api.UpdateUserParams) (*api.User, error)

	// DeleteUser removes the caller's own account and returns its prior
	// state. Deleting someone else returns api.ErrUnauthorized.
	DeleteUser(ctx context.Context, caller *api.User, userID int64) (*api.User, error)
}

type UserServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
}

func NewUserService(repo UserRepo, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *UserServiceImpl) CreateUser(ctx context.Context, req api.CreateUserRequest) (*api.User, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, fmt.Errorf("username, email and password are required: %w", api.ErrBadRequest)
	}
	if !strings.Contains(req.Email, "@") {
		return nil, fmt.Errorf("invalid email address: %w", api.ErrBadRequest)
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.repo.CreateUser(ctx, req.Username, req.Email, hashed)
}

func (s *UserServiceImpl) GetUser(ctx context.Context, userID int64) (*api.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, offset, limit int) ([]api.User, error) {
	return s.repo.ListUsers(ctx, offset, limit)
}

func (s *UserServiceImpl) UpdateUser(ctx context.Context, caller *api.User, userID int64, params api.UpdateUserParams) (*api.User, error) {
	if caller.ID != userID {
		s.logger.WarnContext(ctx, "Cross-account update rejected",
			slog.Int64("callerID", caller.ID), slog.Int64("targetID", userID))
		return nil, fmt.Errorf("not enough permissions: %w", api.ErrUnauthorized)
	}

	if params.Email != nil && !strings.Contains(*params.Email, "@") {
		return nil, fmt.Errorf("invalid email address: %w", api.ErrBadRequest)
	}
	if params.Username != nil && *params.Username == "" {
		return nil, fmt.Errorf("username cannot be empty: %w", api.ErrBadRequest)
	}

	// A new password is stored hashed, never as given.
	if params.Password != nil {
		if *params.Password == "" {
			return nil, fmt.Errorf("password cannot be empty: %w", api.ErrBadRequest)
		}
		hashed, err := auth.HashPassword(*params.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		params.Password = &hashed
	}

	return s.repo.UpdateUser(ctx, userID, params)
}

func (s *UserServiceImpl) DeleteUser(ctx context.Context, caller *api.User, userID int64) (*api.User, error) {
	if caller.ID != userID {
		s.logger.WarnContext(ctx, "Cross-account delete rejected",
			slog.Int64("callerID", caller.ID), slog.Int64("targetID", userID))
		return nil, fmt.Errorf("not enough permissions: %w", api.ErrUnauthorized)
	}
	return s.repo.DeleteUser(ctx, userID)
}
