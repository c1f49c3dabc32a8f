package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_auth_service.go -package=mocks docqa/internal/service AuthService

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"docqa/internal/auth"
	"docqa/internal/contextutil"
	"docqa/internal/storage"
)

// Password length bounds.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 100
)

// TokenIssuer issues and verifies access tokens.
type TokenIssuer interface {
	Issue(userID, email string) (string, time.Time, error)
	VerifyHeader(authHeader string) (*auth.Claims, error)
}

// Credentials are an email and password pair.
type Credentials struct {
	Email    string
	Password string
}

// AccessToken is the result of a successful login.
type AccessToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthService registers users and authenticates them.
type AuthService interface {
	// Register creates a new active user.
	Register(ctx context.Context, creds Credentials) (*storage.UserRecord, error)
	// Login verifies credentials and issues a token.
	Login(ctx context.Context, creds Credentials) (*AccessToken, error)
	// Authenticate resolves an Authorization header to an active user.
	Authenticate(ctx context.Context, authHeader string) (*storage.UserRecord, error)
}

// authService implements AuthService.
type authService struct {
	users  storage.UserStore
	tokens TokenIssuer
	cost   int
}

// NewAuthService creates a new AuthService. A zero bcrypt cost uses
// bcrypt.DefaultCost.
func NewAuthService(users storage.UserStore, tokens TokenIssuer, bcryptCost int) AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		users:  users,
		tokens: tokens,
		cost:   bcryptCost,
	}
}

// Register creates a new user with a bcrypt-hashed password.
func (s *authService) Register(ctx context.Context, creds Credentials) (*storage.UserRecord, error) {
	logger := contextutil.LoggerFromContext(ctx)

	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" {
		return nil, &ValidationError{Field: "email", Message: "cannot be empty"}
	}
	if n := len(creds.Password); n < MinPasswordLength || n > MaxPasswordLength {
		return nil, &ValidationError{Field: "password", Message: "must be between 6 and 100 characters"}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.cost)
	if err != nil {
		return nil, WrapError(err, "failed to hash password")
	}

	user := &storage.UserRecord{
		Email:          email,
		HashedPassword: string(hashed),
		IsActive:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return nil, &ValidationError{Field: "email", Message: "email already registered"}
		}
		return nil, WrapError(err, "failed to create user")
	}

	logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies the password and issues a bearer token. Unknown emails and
// wrong passwords are reported identically.
func (s *authService) Login(ctx context.Context, creds Credentials) (*AccessToken, error) {
	logger := contextutil.LoggerFromContext(ctx)

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(creds.Email)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, WrapError(ErrUnauthorized, "incorrect email or password")
		}
		return nil, WrapError(err, "failed to look up user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(creds.Password)); err != nil {
		logger.WarnContext(ctx, "login failed", "user_id", user.ID)
		return nil, WrapError(ErrUnauthorized, "incorrect email or password")
	}
	if !user.IsActive {
		return nil, WrapError(ErrUnauthorized, "inactive user")
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, WrapError(err, "failed to issue token")
	}

	logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return &AccessToken{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt}, nil
}

// Authenticate verifies the bearer token and loads the active user it names.
func (s *authService) Authenticate(ctx context.Context, authHeader string) (*storage.UserRecord, error) {
	claims, err := s.tokens.VerifyHeader(authHeader)
	if err != nil {
		return nil, WrapError(ErrUnauthorized, err.Error())
	}

	user, err := s.users.GetByID(ctx, claims.TenantID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, WrapError(ErrUnauthorized, "user no longer exists")
		}
		return nil, WrapError(err, "failed to load user")
	}
	if !user.IsActive {
		return nil, WrapError(ErrUnauthorized, "inactive user")
	}
	return user, nil
}
