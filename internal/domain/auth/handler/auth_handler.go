package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/expense-tracker/internal/domain/auth/service"
	"github.com/FACorreiaa/expense-tracker/internal/domain/user"
	"github.com/FACorreiaa/expense-tracker/pkg/httpx"
)

// Authenticator registers and logs in users.
type Authenticator interface {
	RegisterUser(ctx context.Context, params service.RegisterParams) (*user.Profile, error)
	Login(ctx context.Context, params service.LoginParams) (*service.LoginResult, error)
}

// AuthHandler serves the public authentication routes.
type AuthHandler struct {
	auth   Authenticator
	logger *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// Routes mounts the handlers under the caller's prefix.
func (h *AuthHandler) Routes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.auth.RegisterUser(r.Context(), service.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	switch {
	case errors.Is(err, service.ErrInvalidRegistration):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrAlreadyExists):
		httpx.WriteError(w, http.StatusConflict, "username or email already taken")
	case err != nil:
		h.logger.ErrorContext(r.Context(), "failed to register user", slog.Any("error", err))
		httpx.WriteError(w, http.StatusInternalServerError, "registration failed")
	default:
		httpx.WriteJSON(w, http.StatusCreated, profile)
	}
}

// Login exchanges credentials for an access token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.auth.Login(r.Context(), service.LoginParams{Username: req.Username, Password: req.Password})
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, err.Error())
	case err != nil:
		h.logger.ErrorContext(r.Context(), "failed to log in", slog.Any("error", err))
		httpx.WriteError(w, http.StatusInternalServerError, "login failed")
	default:
		httpx.WriteJSON(w, http.StatusOK, result)
	}
}

// Logout acknowledges a logout. Tokens are stateless; the client discards
// its token and it stays valid until it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
