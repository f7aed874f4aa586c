package auth

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/gmarques/go-products-api/internal/api"
)

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	// Login verifies the submitted credentials and returns a signed access token.
	Login(ctx context.Context, username, password string) (string, error)
}

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	tokens *TokenService
}

func NewAuthService(repo AuthRepo, tokens *TokenService, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		tokens: tokens,
	}
}

// Login returns a signed access token bound to the user's username. Unknown
// usernames and wrong passwords produce the same error so the endpoint
// cannot be used to probe for accounts.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, error) {
	l := s.logger.With(slog.String("method", "Login"), slog.String("username", username))

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		l.WarnContext(ctx, "Login failed: user lookup", slog.Any("error", err))
		return "", fmt.Errorf("incorrect username or password: %w", api.ErrUnauthenticated)
	}

	if !VerifyPassword(password, user.Password) {
		l.WarnContext(ctx, "Login failed: password mismatch")
		return "", fmt.Errorf("incorrect username or password: %w", api.ErrUnauthenticated)
	}

	token, err := s.tokens.CreateAccessToken(user.Username)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	return token, nil
}

// HashPassword produces an irreversible salted bcrypt hash.
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether plain matches the stored hash. The
// comparison is constant-time and a malformed stored hash fails closed.
func VerifyPassword(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
