// Package repository provides database operations for expenses and
// recurring expense templates.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
)

// DBTX is the subset of pgxpool.Pool used by the repository. pgxmock
// satisfies it in tests.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// ExpenseRepository persists expense records.
type ExpenseRepository interface {
	Create(ctx context.Context, e *expense.Expense) error
	GetByID(ctx context.Context, id uuid.UUID) (*expense.Expense, error)
	Update(ctx context.Context, e *expense.Expense) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByOwner returns the owner's records, newest first. A nil range
	// returns everything.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, within *expense.DateRange) ([]expense.Expense, error)
}

// RecurringRepository persists recurring expense templates.
type RecurringRepository interface {
	CreateRecurring(ctx context.Context, r *expense.RecurringExpense) error
	GetRecurring(ctx context.Context, id uuid.UUID) (*expense.RecurringExpense, error)
	DeleteRecurring(ctx context.Context, id uuid.UUID) error
	ListRecurring(ctx context.Context, ownerID uuid.UUID) ([]expense.RecurringExpense, error)
	// ListActiveRecurring returns every owner's templates still in effect on date.
	ListActiveRecurring(ctx context.Context, on time.Time) ([]expense.RecurringExpense, error)
	// MarkReminded records that a reminder for the occurrence was sent. It
	// reports false when one had already been recorded.
	MarkReminded(ctx context.Context, recurringID uuid.UUID, dueOn time.Time) (bool, error)
}

// LedgerReader loads an owner's records and templates from one consistent
// read.
type LedgerReader interface {
	LoadLedger(ctx context.Context, ownerID uuid.UUID) ([]expense.Expense, []expense.RecurringExpense, error)
}

// Repository is the full persistence surface for the expense domain.
type Repository interface {
	ExpenseRepository
	RecurringRepository
	LedgerReader
}
