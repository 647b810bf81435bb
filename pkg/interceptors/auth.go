// Package interceptors holds the HTTP middleware chain: authentication,
// role gating, rate limiting, CORS, metrics, tracing and request logging.
package interceptors

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/expense-tracker/internal/domain/auth/claims"
	"github.com/FACorreiaa/expense-tracker/pkg/httpx"
)

type principalKey struct{}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Role     string
}

// IsAdmin reports whether the caller holds the ADMIN role.
func (p Principal) IsAdmin() bool { return p.Role == claims.RoleAdmin }

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller stored by Authenticate.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// GetUserIDFromContext returns the authenticated user id as a string.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return "", false
	}
	return p.UserID.String(), true
}

// TokenParser verifies a bearer token and returns its decoded claims.
type TokenParser interface {
	Parse(token string) (jwt.MapClaims, error)
}

var errMissingToken = errors.New("missing bearer token")

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errMissingToken
	}
	return strings.TrimSpace(token), nil
}

// PrincipalFromClaims builds a Principal from verified claims. The user id
// is read from "uid" and falls back to "sub".
func PrincipalFromClaims(mc jwt.MapClaims) (Principal, error) {
	sub, _ := mc.GetSubject()
	rawID, _ := mc["uid"].(string)
	if rawID == "" {
		rawID = sub
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return Principal{}, errors.New("token does not identify a user")
	}
	username, _ := mc["username"].(string)
	if username == "" {
		username = sub
	}
	return Principal{UserID: id, Username: username, Role: claims.NormalizeRole(mc)}, nil
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller's Principal in the request context.
func Authenticate(parser TokenParser, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			mc, err := parser.Parse(token)
			if err != nil {
				logger.DebugContext(r.Context(), "rejected token", slog.Any("error", err))
				httpx.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			p, err := PrincipalFromClaims(mc)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole lets through only callers whose normalized role is role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if p.Role != role {
				httpx.WriteError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CallerID returns the authenticated user's id. It writes 401 and reports
// false when the request carries no principal.
func CallerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "authentication required")
		return uuid.Nil, false
	}
	return p.UserID, true
}
