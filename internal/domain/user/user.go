// Package user holds account records: identity, role and the optional
// monthly income used by the spending overview.
package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/expense-tracker/internal/domain/auth/claims"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrAlreadyExists  = errors.New("user already exists")
	ErrInvalidRole    = errors.New("invalid role")
	ErrInvalidProfile = errors.New("invalid profile")
)

const maxNameLength = 100

// User is a stored account.
type User struct {
	ID            uuid.UUID
	Username      string
	Email         string
	Name          string
	PasswordHash  string
	Role          string
	MonthlyIncome *decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Profile is the part of a User exposed to its owner and to admins.
type Profile struct {
	ID            uuid.UUID        `json:"id"`
	Username      string           `json:"username"`
	Email         string           `json:"email"`
	Name          string           `json:"name"`
	Role          string           `json:"role"`
	MonthlyIncome *decimal.Decimal `json:"monthlyIncome"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// Profile strips credentials.
func (u *User) Profile() Profile {
	return Profile{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		MonthlyIncome: u.MonthlyIncome,
		CreatedAt:     u.CreatedAt,
	}
}

// ProfileUpdate replaces the mutable profile fields.
type ProfileUpdate struct {
	Name          string
	MonthlyIncome *decimal.Decimal
}

// Validate checks the update and trims the name.
func (p *ProfileUpdate) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	var errs []error
	if len(p.Name) > maxNameLength {
		errs = append(errs, errors.New("name is too long"))
	}
	if p.MonthlyIncome != nil && p.MonthlyIncome.IsNegative() {
		errs = append(errs, errors.New("monthly income must not be negative"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidProfile}, errs...)...)
	}
	return nil
}

// ParseRole accepts the roles that may be persisted, with or without the
// ROLE_ prefix.
func ParseRole(s string) (string, error) {
	role := strings.ToUpper(strings.TrimSpace(s))
	role = strings.TrimPrefix(role, "ROLE_")
	switch role {
	case claims.RoleUser, claims.RoleAdmin:
		return role, nil
	}
	return "", ErrInvalidRole
}
