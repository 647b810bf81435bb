package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/expense-tracker/internal/domain/admin"
	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
	"github.com/FACorreiaa/expense-tracker/internal/domain/user"
	"github.com/FACorreiaa/expense-tracker/pkg/interceptors"
)

type memUsers map[uuid.UUID]*user.Profile

func (m memUsers) ListUsers(context.Context) ([]user.Profile, error) {
	out := make([]user.Profile, 0, len(m))
	for _, p := range m {
		out = append(out, *p)
	}
	return out, nil
}

func (m memUsers) Profile(_ context.Context, id uuid.UUID) (*user.Profile, error) {
	if p, ok := m[id]; ok {
		return p, nil
	}
	return nil, user.ErrNotFound
}

func (m memUsers) SetRole(ctx context.Context, id uuid.UUID, role string) (*user.Profile, error) {
	normalized, err := user.ParseRole(role)
	if err != nil {
		return nil, err
	}
	p, err := m.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Role = normalized
	return p, nil
}

type memExpenses map[uuid.UUID][]expense.Expense

func (m memExpenses) ListExpenses(_ context.Context, owner uuid.UUID, _ *expense.DateRange) ([]expense.Expense, error) {
	return m[owner], nil
}

type env struct {
	router chi.Router
	users  memUsers
	adm    uuid.UUID
	bob    uuid.UUID
}

func newEnv() *env {
	e := &env{adm: uuid.New(), bob: uuid.New()}
	e.users = memUsers{
		e.adm: {ID: e.adm, Username: "root", Role: "ADMIN"},
		e.bob: {ID: e.bob, Username: "bob", Role: "USER"},
	}
	expenses := memExpenses{e.bob: {{ID: uuid.New(), OwnerID: e.bob, Description: "Taxi"}}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewAdminHandler(admin.NewService(e.users, expenses, logger), logger)

	r := chi.NewRouter()
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(interceptors.RequireRole("ADMIN"))
		h.Routes(r)
	})
	e.router = r
	return e
}

func (e *env) do(as uuid.UUID, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if p, ok := e.users[as]; ok {
		req = req.WithContext(interceptors.WithPrincipal(req.Context(), interceptors.Principal{UserID: p.ID, Username: p.Username, Role: p.Role}))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestAdminHandler_RequiresAdmin(t *testing.T) {
	e := newEnv()
	assert.Equal(t, http.StatusForbidden, e.do(e.bob, http.MethodGet, "/api/admin/users", "").Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(uuid.Nil, http.MethodGet, "/api/admin/users", "").Code)
}

func TestAdminHandler_ListUsers(t *testing.T) {
	e := newEnv()
	w := e.do(e.adm, http.MethodGet, "/api/admin/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got []user.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}

func TestAdminHandler_UpdateRole(t *testing.T) {
	e := newEnv()

	w := e.do(e.adm, http.MethodPut, "/api/admin/users/"+e.bob.String()+"/role", `{"role":"role_admin"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ADMIN", e.users[e.bob].Role)

	w = e.do(e.adm, http.MethodPut, "/api/admin/users/"+e.bob.String()+"/role", `{"role":"OWNER"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(e.adm, http.MethodPut, "/api/admin/users/"+uuid.NewString()+"/role", `{"role":"USER"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(e.adm, http.MethodPut, "/api/admin/users/nope/role", `{"role":"USER"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminHandler_UserExpenses(t *testing.T) {
	e := newEnv()

	w := e.do(e.adm, http.MethodGet, "/api/admin/expenses?userId="+e.bob.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	var got []expense.Expense
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Taxi", got[0].Description)

	assert.Equal(t, http.StatusNotFound, e.do(e.adm, http.MethodGet, "/api/admin/expenses?userId="+uuid.NewString(), "").Code)
	assert.Equal(t, http.StatusBadRequest, e.do(e.adm, http.MethodGet, "/api/admin/expenses", "").Code)
}
