package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for tokens that fail parsing or validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingToken is returned when no bearer token is supplied.
	ErrMissingToken = errors.New("missing bearer token")
)

// Claims are the claims carried by access tokens. The user ID doubles as the
// tenant ID.
type Claims struct {
	TenantID string `json:"tenant_id"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
	now       func() time.Time
}

// NewTokenManager creates a new TokenManager.
func NewTokenManager(secretKey []byte, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secretKey: secretKey,
		issuer:    issuer,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Issue signs a token for the user, valid for the manager's TTL.
func (m *TokenManager) Issue(userID, email string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := Claims{
		TenantID: userID,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses a raw token and returns its claims.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secretKey, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TenantID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyHeader verifies the token of an "Authorization: Bearer <token>" header.
func (m *TokenManager) VerifyHeader(authHeader string) (*Claims, error) {
	tokenString, err := BearerToken(authHeader)
	if err != nil {
		return nil, err
	}
	return m.Verify(tokenString)
}

// BearerToken extracts the token from a "Bearer <token>" header value.
func BearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingToken
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
	}
	return parts[1], nil
}
