package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/expense-tracker/internal/domain/user"
	"github.com/FACorreiaa/expense-tracker/pkg/money"
)

const userColumns = `id, username, email, name, password_hash, role, monthly_income_minor, created_at, updated_at`

const uniqueViolation = "23505"

// PostgresRepository implements Repository.
type PostgresRepository struct {
	db DBTX
}

func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		u     user.User
		minor *int64
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &minor, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if minor != nil {
		income := money.FromMinor(*minor)
		u.MonthlyIncome = &income
	}
	return &u, nil
}

func incomeMinor(d *decimal.Decimal) *int64 {
	if d == nil {
		return nil
	}
	v := money.ToMinor(*d)
	return &v
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return user.ErrNotFound
	}
	return err
}

// Create inserts u and fills its timestamps.
func (r *PostgresRepository) Create(ctx context.Context, u *user.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	query := `
		INSERT INTO users (id, username, email, name, password_hash, role, monthly_income_minor)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		u.ID, u.Username, u.Email, u.Name, u.PasswordHash, u.Role, incomeMinor(u.MonthlyIncome),
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// GetByUsername matches case-insensitively.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, username))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id uuid.UUID, p user.ProfileUpdate) (*user.User, error) {
	query := `
		UPDATE users SET name = $2, monthly_income_minor = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRow(ctx, query, id, p.Name, incomeMinor(p.MonthlyIncome)))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r *PostgresRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) (*user.User, error) {
	query := `
		UPDATE users SET role = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRow(ctx, query, id, role))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// List returns all users ordered by username.
func (r *PostgresRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}
