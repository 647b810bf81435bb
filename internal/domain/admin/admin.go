// Package admin implements the operations reserved for the ADMIN role.
package admin

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
	"github.com/FACorreiaa/expense-tracker/internal/domain/user"
)

//revive:disable-next-line:exported
type AdminUsers interface {
	// ListUsers returns every account's profile.
	ListUsers(ctx context.Context) ([]user.Profile, error)
	// Profile returns one account, or user.ErrNotFound.
	Profile(ctx context.Context, id uuid.UUID) (*user.Profile, error)
	// SetRole persists a USER or ADMIN role.
	SetRole(ctx context.Context, id uuid.UUID, role string) (*user.Profile, error)
}

// ExpenseLister reads another owner's records.
type ExpenseLister interface {
	ListExpenses(ctx context.Context, owner uuid.UUID, within *expense.DateRange) ([]expense.Expense, error)
}

// Service is the admin surface.
type Service struct {
	users    AdminUsers
	expenses ExpenseLister
	logger   *slog.Logger
}

func NewService(users AdminUsers, expenses ExpenseLister, logger *slog.Logger) *Service {
	return &Service{users: users, expenses: expenses, logger: logger}
}

func (s *Service) ListUsers(ctx context.Context) ([]user.Profile, error) {
	return s.users.ListUsers(ctx)
}

// UpdateRole changes target's role on behalf of actor.
func (s *Service) UpdateRole(ctx context.Context, actor, target uuid.UUID, role string) (*user.Profile, error) {
	p, err := s.users.SetRole(ctx, target, role)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "admin changed role",
		slog.String("actor_id", actor.String()),
		slog.String("user_id", target.String()),
		slog.String("role", p.Role),
	)
	return p, nil
}

// UserExpenses lists all of a user's records, newest first.
func (s *Service) UserExpenses(ctx context.Context, userID uuid.UUID) ([]expense.Expense, error) {
	if _, err := s.users.Profile(ctx, userID); err != nil {
		return nil, err
	}
	return s.expenses.ListExpenses(ctx, userID, nil)
}
