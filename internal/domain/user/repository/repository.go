// Package repository stores user accounts in PostgreSQL.
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/expense-tracker/internal/domain/user"
)

// DBTX is the subset of pgxpool.Pool the repository needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, p user.ProfileUpdate) (*user.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) (*user.User, error)
	List(ctx context.Context) ([]user.User, error)
}
