package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gmarques/go-products-api/internal/api"
)

type contextKey string

const userKey contextKey = "currentUser"

// CurrentUser returns the authenticated caller stored by Authenticate.
func CurrentUser(ctx context.Context) (*api.User, bool) {
	user, ok := ctx.Value(userKey).(*api.User)
	return user, ok
}

// WithCurrentUser stores the caller on the context. Exposed for handler tests.
func WithCurrentUser(ctx context.Context, user *api.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// Authenticate validates the bearer token and resolves the caller identity.
// The token subject must still exist: a valid token for a since-deleted user
// is rejected. All rejections share one generic message.
func Authenticate(logger *slog.Logger, tokens *TokenService, repo AuthRepo) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				l.WarnContext(ctx, "Missing Authorization header")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Could not validate credentials")
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") {
				l.WarnContext(ctx, "Invalid Authorization header format")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Could not validate credentials")
				return
			}

			subject, err := tokens.ParseAccessToken(headerParts[1])
			if err != nil {
				l.WarnContext(ctx, "Token validation failed", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Could not validate credentials")
				return
			}

			user, err := repo.GetUserByUsername(ctx, subject)
			if err != nil {
				l.WarnContext(ctx, "Token subject no longer resolves to a user", slog.String("subject", subject))
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Could not validate credentials")
				return
			}

			ctx = WithCurrentUser(ctx, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
