// Package service registers users, checks credentials and issues access
// tokens.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/FACorreiaa/expense-tracker/internal/domain/auth/claims"
	"github.com/FACorreiaa/expense-tracker/internal/domain/user"
	"github.com/FACorreiaa/expense-tracker/internal/domain/user/repository"
)

var (
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInvalidRegistration = errors.New("invalid registration")
)

// RegisterParams contains the required data for user registration.
type RegisterParams struct {
	Username string
	Email    string
	Name     string
	Password string
}

// LoginParams represents the payload for a login attempt.
type LoginParams struct {
	Username string
	Password string
}

// LoginResult is produced after a successful login.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      user.Profile `json:"user"`
}

// AuthService coordinates registration and login.
type AuthService struct {
	repo       repository.Repository
	tokens     *TokenManager
	adminEmail string
	logger     *slog.Logger
}

// NewAuthService constructs a new AuthService. Accounts registered with
// adminEmail receive the ADMIN role.
func NewAuthService(repo repository.Repository, tokens *TokenManager, adminEmail string, logger *slog.Logger) *AuthService {
	return &AuthService{
		repo:       repo,
		tokens:     tokens,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		logger:     logger,
	}
}

func (p *RegisterParams) validate() error {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Name = strings.TrimSpace(p.Name)

	var errs []error
	if len(p.Username) < 3 || len(p.Username) > 50 {
		errs = append(errs, errors.New("username must be between 3 and 50 characters"))
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		errs = append(errs, errors.New("email is invalid"))
	}
	if err := ValidatePassword(p.Password); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidRegistration}, errs...)...)
	}
	return nil
}

// RegisterUser creates a new account with a bcrypt-hashed password.
func (s *AuthService) RegisterUser(ctx context.Context, params RegisterParams) (*user.Profile, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	hashed, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	role := claims.RoleUser
	if s.adminEmail != "" && params.Email == s.adminEmail {
		role = claims.RoleAdmin
	}

	u := &user.User{
		Username:     params.Username,
		Email:        params.Email,
		Name:         params.Name,
		PasswordHash: hashed,
		Role:         role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", u.ID.String()),
		slog.String("role", role),
	)
	p := u.Profile()
	return &p, nil
}

// Login authenticates a user against stored credentials.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(params.Username))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !ComparePassword(u.PasswordHash, params.Password) {
		s.logger.WarnContext(ctx, "login failed", slog.String("user_id", u.ID.String()))
		return nil, ErrInvalidCredentials
	}

	token, expires, err := s.tokens.Issue(u.ID, u.Username, u.Role)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: expires, User: u.Profile()}, nil
}
