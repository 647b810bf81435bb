// Package service exposes profile management and the income figure used by
// the spending overview.
package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/expense-tracker/internal/domain/user"
	"github.com/FACorreiaa/expense-tracker/internal/domain/user/repository"
)

// Service handles user profiles.
type Service struct {
	repo   repository.Repository
	logger *slog.Logger
}

func NewService(repo repository.Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Profile returns the caller's profile.
func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*user.Profile, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := u.Profile()
	return &p, nil
}

// UpdateProfile replaces the name and monthly income.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, upd user.ProfileUpdate) (*user.Profile, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	u, err := s.repo.UpdateProfile(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "profile updated", slog.String("user_id", id.String()))
	p := u.Profile()
	return &p, nil
}

// MonthlyIncome returns the user's declared income, nil when unset.
func (s *Service) MonthlyIncome(ctx context.Context, id uuid.UUID) (*decimal.Decimal, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.MonthlyIncome, nil
}

// ListUsers returns every profile.
func (s *Service) ListUsers(ctx context.Context) ([]user.Profile, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]user.Profile, 0, len(users))
	for i := range users {
		out = append(out, users[i].Profile())
	}
	return out, nil
}

// SetRole persists a new role. Only USER and ADMIN are accepted.
func (s *Service) SetRole(ctx context.Context, id uuid.UUID, role string) (*user.Profile, error) {
	normalized, err := user.ParseRole(role)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.UpdateRole(ctx, id, normalized)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "role updated",
		slog.String("user_id", id.String()),
		slog.String("role", normalized),
	)
	p := u.Profile()
	return &p, nil
}
