package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
	"github.com/FACorreiaa/expense-tracker/internal/domain/user"
	"github.com/FACorreiaa/expense-tracker/pkg/httpx"
	"github.com/FACorreiaa/expense-tracker/pkg/interceptors"
)

// AdminService is implemented by admin.Service.
type AdminService interface {
	ListUsers(ctx context.Context) ([]user.Profile, error)
	UpdateRole(ctx context.Context, actor, target uuid.UUID, role string) (*user.Profile, error)
	UserExpenses(ctx context.Context, userID uuid.UUID) ([]expense.Expense, error)
}

// AdminHandler serves /api/admin. The caller must already hold the ADMIN
// role; Routes does not check it.
type AdminHandler struct {
	service AdminService
	logger  *slog.Logger
}

func NewAdminHandler(svc AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{service: svc, logger: logger}
}

func (h *AdminHandler) Routes(r chi.Router) {
	r.Get("/users", h.ListUsers)
	r.Put("/users/{id}/role", h.UpdateRole)
	r.Get("/expenses", h.UserExpenses)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, users)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	target, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req roleRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.service.UpdateRole(r.Context(), actor, target, req.Role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

// UserExpenses lists the records of ?userId=.
func (h *AdminHandler) UserExpenses(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "userId must be a valid id")
		return
	}
	records, err := h.service.UserExpenses(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, records)
}

func (h *AdminHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, user.ErrInvalidRole):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "user not found")
	default:
		h.logger.ErrorContext(r.Context(), "admin request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
