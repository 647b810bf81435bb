package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs an access token. The role travels as a single-element
// "roles" sequence carrying the ROLE_ prefix.
func (m *TokenManager) Issue(userID uuid.UUID, username, role string) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.ttl)
	mc := jwt.MapClaims{
		"sub":      username,
		"uid":      userID.String(),
		"username": username,
		"roles":    []string{"ROLE_" + role},
		"iss":      m.issuer,
		"iat":      now.Unix(),
		"exp":      expires.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies signature, issuer and expiry and returns the raw claims.
func (m *TokenManager) Parse(token string) (jwt.MapClaims, error) {
	mc := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, mc,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	return mc, nil
}
