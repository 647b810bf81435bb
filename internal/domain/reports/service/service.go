// Package service loads an owner's ledger once per request and runs the
// reporting engine over it.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
	"github.com/FACorreiaa/expense-tracker/internal/domain/expense/repository"
	"github.com/FACorreiaa/expense-tracker/internal/domain/reports"
	"github.com/FACorreiaa/expense-tracker/pkg/clock"
)

// IncomeReader exposes a user's declared monthly income.
type IncomeReader interface {
	MonthlyIncome(ctx context.Context, userID uuid.UUID) (*decimal.Decimal, error)
}

// Service handles report business logic
type Service struct {
	ledger repository.LedgerReader
	income IncomeReader
	engine *reports.Engine
	clock  clock.Clock
	tracer trace.Tracer
	logger *slog.Logger
}

// NewService creates a new report service
func NewService(ledger repository.LedgerReader, income IncomeReader, clk clock.Clock, logger *slog.Logger) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{
		ledger: ledger,
		income: income,
		engine: reports.NewEngine(clk),
		clock:  clk,
		tracer: otel.Tracer("expense-tracker/reports"),
		logger: logger,
	}
}

// Now exposes the service clock to callers choosing defaults.
func (s *Service) Now() time.Time { return s.clock.Now() }

func (s *Service) snapshot(ctx context.Context, owner uuid.UUID) (reports.Snapshot, error) {
	expenses, templates, err := s.ledger.LoadLedger(ctx, owner)
	if err != nil {
		return reports.Snapshot{}, fmt.Errorf("failed to load ledger: %w", err)
	}
	return reports.Snapshot{OwnerID: owner, Expenses: expenses, Recurring: templates}, nil
}

func (s *Service) start(ctx context.Context, name string, owner uuid.UUID, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("owner_id", owner.String()))
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) logAnomalies(ctx context.Context, owner uuid.UUID, anomalies []reports.Anomaly) {
	for _, a := range anomalies {
		s.logger.WarnContext(ctx, "skipped malformed ledger entry",
			slog.String("owner_id", owner.String()),
			slog.String("kind", a.Kind),
			slog.String("id", a.ID.String()),
			slog.String("reason", a.Reason),
		)
	}
}

// CategorySummary totals one month by category.
func (s *Service) CategorySummary(ctx context.Context, owner uuid.UUID, year int, month time.Month, includeRecurring bool) (_ *reports.CategorySummary, err error) {
	ctx, span := s.start(ctx, "reports.CategorySummary", owner,
		attribute.Int("year", year), attribute.Int("month", int(month)), attribute.Bool("include_recurring", includeRecurring))
	defer func() { finish(span, err) }()

	snap, err := s.snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	out, err := s.engine.CategorySummary(snap, year, month, includeRecurring)
	if err != nil {
		return nil, err
	}
	s.logAnomalies(ctx, owner, out.Anomalies)
	return out, nil
}

// MonthlySummary totals each month of a year.
func (s *Service) MonthlySummary(ctx context.Context, owner uuid.UUID, year int, category *expense.Category, includeRecurring bool) (_ *reports.MonthlySummary, err error) {
	ctx, span := s.start(ctx, "reports.MonthlySummary", owner,
		attribute.Int("year", year), attribute.Bool("include_recurring", includeRecurring))
	defer func() { finish(span, err) }()

	snap, err := s.snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	out, err := s.engine.MonthlySummary(snap, year, category, includeRecurring)
	if err != nil {
		return nil, err
	}
	s.logAnomalies(ctx, owner, out.Anomalies)
	return out, nil
}

// YearlySummary totals each year with spending.
func (s *Service) YearlySummary(ctx context.Context, owner uuid.UUID, category *expense.Category, includeRecurring bool) (_ *reports.YearlySummary, err error) {
	ctx, span := s.start(ctx, "reports.YearlySummary", owner, attribute.Bool("include_recurring", includeRecurring))
	defer func() { finish(span, err) }()

	snap, err := s.snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	out, err := s.engine.YearlySummary(snap, category, includeRecurring)
	if err != nil {
		return nil, err
	}
	s.logAnomalies(ctx, owner, out.Anomalies)
	return out, nil
}

// AvailableYears lists years with spending, newest first.
func (s *Service) AvailableYears(ctx context.Context, owner uuid.UUID, category *expense.Category, includeRecurring bool) (_ []int, err error) {
	ctx, span := s.start(ctx, "reports.AvailableYears", owner)
	defer func() { finish(span, err) }()

	snap, err := s.snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.engine.AvailableYears(snap, category, includeRecurring)
}

// AvailableCategories lists filter choices, All first.
func (s *Service) AvailableCategories(ctx context.Context, owner uuid.UUID) (_ []expense.Category, err error) {
	ctx, span := s.start(ctx, "reports.AvailableCategories", owner)
	defer func() { finish(span, err) }()

	snap, err := s.snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.engine.AvailableCategories(snap), nil
}

// YearReport runs the whole report pipeline over one snapshot.
func (s *Service) YearReport(ctx context.Context, owner uuid.UUID, category *expense.Category, selected int, includeRecurring bool) (_ *reports.YearReport, err error) {
	ctx, span := s.start(ctx, "reports.YearReport", owner,
		attribute.Int("selected_year", selected), attribute.Bool("include_recurring", includeRecurring))
	defer func() { finish(span, err) }()

	snap, err := s.snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	out, err := s.engine.YearReport(snap, category, selected, includeRecurring)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("year", out.Year))
	s.logAnomalies(ctx, owner, out.Anomalies)
	return out, nil
}

// Overview compares a month's spending with the owner's monthly income.
func (s *Service) Overview(ctx context.Context, owner uuid.UUID, year int, month time.Month) (_ *reports.Overview, err error) {
	ctx, span := s.start(ctx, "reports.Overview", owner, attribute.Int("year", year), attribute.Int("month", int(month)))
	defer func() { finish(span, err) }()

	income, err := s.income.MonthlyIncome(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load income: %w", err)
	}
	snap, err := s.snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.engine.Overview(snap, income, year, month)
}
