// Package reminders emails owners about recurring charges falling due within
// a short horizon. Each occurrence is reminded at most once.
package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
	expenseservice "github.com/FACorreiaa/expense-tracker/internal/domain/expense/service"
	"github.com/FACorreiaa/expense-tracker/internal/domain/user"
	"github.com/FACorreiaa/expense-tracker/pkg/clock"
)

// TemplateSource reads templates across all owners and records sent
// reminders.
type TemplateSource interface {
	ListActiveRecurring(ctx context.Context, on time.Time) ([]expense.RecurringExpense, error)
	MarkReminded(ctx context.Context, recurringID uuid.UUID, dueOn time.Time) (bool, error)
}

// UserDirectory resolves the owner of a template.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Charge is one upcoming occurrence.
type Charge struct {
	Recurring expense.RecurringExpense
	DueOn     time.Time
}

// Report summarizes one run.
type Report struct {
	Due    int
	Sent   int
	Failed int
}

// Service finds due charges and sends one digest per owner.
type Service struct {
	templates   TemplateSource
	users       UserDirectory
	sender      Sender
	clock       clock.Clock
	horizonDays int
	currency    string
	logger      *slog.Logger
}

func NewService(templates TemplateSource, users UserDirectory, sender Sender, clk clock.Clock, horizonDays int, currency string, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{
		templates:   templates,
		users:       users,
		sender:      sender,
		clock:       clk,
		horizonDays: horizonDays,
		currency:    currency,
		logger:      logger,
	}
}

// DueWithin returns the charges of templates whose next occurrence, today
// included, falls no later than horizonDays after today. The result is
// ordered by due date.
func DueWithin(templates []expense.RecurringExpense, today time.Time, horizonDays int) []Charge {
	today = expense.DateOf(today)
	limit := today.AddDate(0, 0, horizonDays)

	var out []Charge
	for _, t := range templates {
		due, ok, err := expenseservice.DueAfter(t, today.AddDate(0, 0, -1))
		if err != nil || !ok || due.After(limit) {
			continue
		}
		out = append(out, Charge{Recurring: t, DueOn: due})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueOn.Before(out[j].DueOn) })
	return out
}

// Run sends today's reminders. An occurrence is claimed before its digest
// is sent, so a failed send is not retried on the next run.
func (s *Service) Run(ctx context.Context) (Report, error) {
	today := clock.Today(s.clock)
	templates, err := s.templates.ListActiveRecurring(ctx, today)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list recurring expenses: %w", err)
	}

	charges := DueWithin(templates, today, s.horizonDays)
	report := Report{Due: len(charges)}

	byOwner := make(map[uuid.UUID][]Charge)
	var owners []uuid.UUID
	for _, c := range charges {
		claimed, err := s.templates.MarkReminded(ctx, c.Recurring.ID, c.DueOn)
		if err != nil {
			return report, fmt.Errorf("failed to record reminder: %w", err)
		}
		if !claimed {
			continue
		}
		if _, seen := byOwner[c.Recurring.OwnerID]; !seen {
			owners = append(owners, c.Recurring.OwnerID)
		}
		byOwner[c.Recurring.OwnerID] = append(byOwner[c.Recurring.OwnerID], c)
	}

	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.notify(ctx, owner, byOwner[owner]); err != nil {
			report.Failed++
			s.logger.WarnContext(ctx, "failed to send reminder",
				slog.String("owner_id", owner.String()),
				slog.Any("error", err),
			)
			continue
		}
		report.Sent++
	}

	s.logger.InfoContext(ctx, "reminder run completed",
		slog.Int("due", report.Due),
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed),
	)
	return report, nil
}

func (s *Service) notify(ctx context.Context, owner uuid.UUID, charges []Charge) error {
	u, err := s.users.GetByID(ctx, owner)
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, Digest(u, charges, s.currency))
}
