package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
	"github.com/FACorreiaa/expense-tracker/pkg/money"
)

const expenseColumns = `id, owner_id, description, amount_minor, spent_on, category, recurring_id, created_at, updated_at`

const recurringColumns = `id, owner_id, description, amount_minor, category, day_of_month, starts_on, ends_on, created_at`

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db DBTX
}

// NewPostgresRepository creates a new PostgreSQL expense repository
func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (expense.Expense, error) {
	var (
		e        expense.Expense
		minor    int64
		category string
	)
	err := row.Scan(
		&e.ID,
		&e.OwnerID,
		&e.Description,
		&minor,
		&e.Date,
		&category,
		&e.RecurringID,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return e, err
	}
	e.Amount = money.FromMinor(minor)
	e.Category = expense.Category(category)
	e.Date = expense.DateOf(e.Date)
	return e, nil
}

func scanRecurring(row scanner) (expense.RecurringExpense, error) {
	var (
		r        expense.RecurringExpense
		minor    int64
		category string
	)
	err := row.Scan(
		&r.ID,
		&r.OwnerID,
		&r.Description,
		&minor,
		&category,
		&r.DayOfMonth,
		&r.StartsOn,
		&r.EndsOn,
		&r.CreatedAt,
	)
	if err != nil {
		return r, err
	}
	r.Amount = money.FromMinor(minor)
	r.Category = expense.Category(category)
	r.StartsOn = expense.DateOf(r.StartsOn)
	return r, nil
}

// Create inserts a new expense
func (r *PostgresRepository) Create(ctx context.Context, e *expense.Expense) error {
	query := `
		INSERT INTO expenses (id, owner_id, description, amount_minor, spent_on, category, recurring_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	err := r.db.QueryRow(ctx, query,
		e.ID,
		e.OwnerID,
		e.Description,
		money.ToMinor(e.Amount),
		expense.DateOf(e.Date),
		string(e.Category),
		e.RecurringID,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// GetByID retrieves an expense by ID
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*expense.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`

	e, err := scanExpense(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, expense.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return &e, nil
}

// Update replaces the mutable fields of an expense
func (r *PostgresRepository) Update(ctx context.Context, e *expense.Expense) error {
	query := `
		UPDATE expenses
		SET description = $2, amount_minor = $3, spent_on = $4, category = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		e.ID,
		e.Description,
		money.ToMinor(e.Amount),
		expense.DateOf(e.Date),
		string(e.Category),
	).Scan(&e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return expense.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return nil
}

// Delete removes an expense
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if result.RowsAffected() == 0 {
		return expense.ErrNotFound
	}
	return nil
}

// ListByOwner retrieves an owner's expenses, optionally within a date range
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, within *expense.DateRange) ([]expense.Expense, error) {
	return listExpenses(ctx, r.db, ownerID, within)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listExpenses(ctx context.Context, q querier, ownerID uuid.UUID, within *expense.DateRange) ([]expense.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE owner_id = $1`
	args := []any{ownerID}
	if within != nil {
		query += ` AND spent_on BETWEEN $2 AND $3`
		args = append(args, expense.DateOf(within.From), expense.DateOf(within.To))
	}
	query += ` ORDER BY spent_on DESC, created_at DESC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var out []expense.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return out, nil
}

// CreateRecurring inserts a new recurring template
func (r *PostgresRepository) CreateRecurring(ctx context.Context, rec *expense.RecurringExpense) error {
	query := `
		INSERT INTO recurring_expenses (id, owner_id, description, amount_minor, category, day_of_month, starts_on, ends_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	err := r.db.QueryRow(ctx, query,
		rec.ID,
		rec.OwnerID,
		rec.Description,
		money.ToMinor(rec.Amount),
		string(rec.Category),
		rec.DayOfMonth,
		expense.DateOf(rec.StartsOn),
		rec.EndsOn,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create recurring expense: %w", err)
	}
	return nil
}

// GetRecurring retrieves a recurring template by ID
func (r *PostgresRepository) GetRecurring(ctx context.Context, id uuid.UUID) (*expense.RecurringExpense, error) {
	query := `SELECT ` + recurringColumns + ` FROM recurring_expenses WHERE id = $1`

	rec, err := scanRecurring(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, expense.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recurring expense: %w", err)
	}
	return &rec, nil
}

// DeleteRecurring removes a recurring template. Linked records keep their
// amounts and lose the link.
func (r *PostgresRepository) DeleteRecurring(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM recurring_expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recurring expense: %w", err)
	}
	if result.RowsAffected() == 0 {
		return expense.ErrNotFound
	}
	return nil
}

// ListRecurring retrieves an owner's recurring templates
func (r *PostgresRepository) ListRecurring(ctx context.Context, ownerID uuid.UUID) ([]expense.RecurringExpense, error) {
	query := `SELECT ` + recurringColumns + ` FROM recurring_expenses WHERE owner_id = $1 ORDER BY day_of_month, created_at`
	return listRecurring(ctx, r.db, query, ownerID)
}

// ListActiveRecurring retrieves all templates in effect on the given date
func (r *PostgresRepository) ListActiveRecurring(ctx context.Context, on time.Time) ([]expense.RecurringExpense, error) {
	query := `SELECT ` + recurringColumns + ` FROM recurring_expenses
		WHERE starts_on <= $1 AND (ends_on IS NULL OR ends_on >= $1)
		ORDER BY owner_id, day_of_month`
	return listRecurring(ctx, r.db, query, expense.DateOf(on))
}

func listRecurring(ctx context.Context, q querier, query string, args ...any) ([]expense.RecurringExpense, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring expenses: %w", err)
	}
	defer rows.Close()

	var out []expense.RecurringExpense
	for rows.Next() {
		rec, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring expense: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recurring expenses: %w", err)
	}
	return out, nil
}

// MarkReminded records a sent reminder once per occurrence
func (r *PostgresRepository) MarkReminded(ctx context.Context, recurringID uuid.UUID, dueOn time.Time) (bool, error) {
	query := `
		INSERT INTO recurring_reminders (recurring_id, due_on)
		VALUES ($1, $2)
		ON CONFLICT (recurring_id, due_on) DO NOTHING`

	result, err := r.db.Exec(ctx, query, recurringID, expense.DateOf(dueOn))
	if err != nil {
		return false, fmt.Errorf("failed to record reminder: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// LoadLedger reads records and templates in one repeatable-read transaction
// so a report never mixes two states of the ledger.
func (r *PostgresRepository) LoadLedger(ctx context.Context, ownerID uuid.UUID) ([]expense.Expense, []expense.RecurringExpense, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin ledger read: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	expenses, err := listExpenses(ctx, tx, ownerID, nil)
	if err != nil {
		return nil, nil, err
	}
	query := `SELECT ` + recurringColumns + ` FROM recurring_expenses WHERE owner_id = $1 ORDER BY day_of_month, created_at`
	templates, err := listRecurring(ctx, tx, query, ownerID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to finish ledger read: %w", err)
	}
	return expenses, templates, nil
}
