package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_user_store.go -package=mocks docqa/internal/storage UserStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// ErrDuplicateEmail is returned when registering an email that is already taken.
var ErrDuplicateEmail = errors.New("email already registered")

// UserStore defines the interface for user storage operations.
type UserStore interface {
	// Create inserts a new user. Returns ErrDuplicateEmail if the email exists.
	Create(ctx context.Context, user *UserRecord) error
	// GetByEmail gets a user by email. Returns ErrNotFound if not found.
	GetByEmail(ctx context.Context, email string) (*UserRecord, error)
	// GetByID gets a user by ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*UserRecord, error)
}

// UserRepo provides methods for user operations.
// It implements the UserStore interface.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new user. Emails are stored lower-cased.
func (r *UserRepo) Create(ctx context.Context, user *UserRecord) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Email = normalizeEmail(user.Email)

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, email, hashed_password, is_active, created_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, user.Email, user.HashedPassword, user.IsActive, formatTimestamp(user.CreatedAt),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetByEmail gets a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*UserRecord, error) {
	return r.getOne(ctx, "email = ?", normalizeEmail(email))
}

// GetByID gets a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*UserRecord, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (*UserRecord, error) {
	var user UserRecord
	var createdAtStr string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, hashed_password, is_active, created_at FROM users WHERE "+where,
		arg,
	).Scan(&user.ID, &user.Email, &user.HashedPassword, &user.IsActive, &createdAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if user.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return nil, err
	}

	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
