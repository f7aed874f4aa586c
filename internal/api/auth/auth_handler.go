package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gmarques/go-products-api/app/observability/metrics"
	"github.com/gmarques/go-products-api/internal/api"
)

type AuthHandler struct {
	authService AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		authService: authService,
	}
}

// Login handles POST /auth/token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	m := metrics.Get()
	defer func() {
		m.LoginDurationSeconds.Record(r.Context(), time.Since(start).Seconds())
	}()
	m.LoginRequestsTotal.Add(r.Context(), 1)

	var req api.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "username and password are required")
		return
	}

	token, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, api.ErrUnauthenticated) {
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		h.logger.ErrorContext(r.Context(), "Login failed unexpectedly", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, api.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}
