package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/expense-tracker/internal/domain/user"
	"github.com/FACorreiaa/expense-tracker/pkg/httpx"
	"github.com/FACorreiaa/expense-tracker/pkg/interceptors"
)

// ProfileService reads and updates the caller's profile.
type ProfileService interface {
	Profile(ctx context.Context, id uuid.UUID) (*user.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd user.ProfileUpdate) (*user.Profile, error)
}

// UserHandler serves the authenticated user's own account.
type UserHandler struct {
	service ProfileService
	logger  *slog.Logger
}

// NewUserHandler constructs a new handler.
func NewUserHandler(svc ProfileService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, logger: logger}
}

func (h *UserHandler) Routes(r chi.Router) {
	r.Get("/", h.CurrentUser)
	r.Get("/profile", h.GetProfile)
	r.Put("/profile", h.UpdateProfile)
}

type currentUserResponse struct {
	ID       uuid.UUID    `json:"id"`
	Username string       `json:"username"`
	Role     string       `json:"role"`
	Profile  user.Profile `json:"profile"`
}

// CurrentUser returns the caller as seen by the token together with the
// stored profile.
func (h *UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	p, ok := interceptors.PrincipalFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	profile, err := h.service.Profile(r.Context(), p.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, currentUserResponse{
		ID:       p.UserID,
		Username: p.Username,
		Role:     p.Role,
		Profile:  *profile,
	})
}

// GetProfile retrieves the user's profile.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	profile, err := h.service.Profile(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, profile)
}

type updateProfileRequest struct {
	Name          string           `json:"name"`
	MonthlyIncome *decimal.Decimal `json:"monthlyIncome"`
}

// UpdateProfile replaces name and monthly income. A null income clears it.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	profile, err := h.service.UpdateProfile(r.Context(), id, user.ProfileUpdate{
		Name:          req.Name,
		MonthlyIncome: req.MonthlyIncome,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, user.ErrInvalidProfile):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "user not found")
	default:
		h.logger.ErrorContext(r.Context(), "user request failed", slog.Any("error", err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
