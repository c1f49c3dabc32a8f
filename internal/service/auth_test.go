package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"docqa/internal/auth"
	"docqa/internal/storage"
	storage_mocks "docqa/internal/storage/mocks"
)

func newTestAuthService(t *testing.T) (AuthService, *storage_mocks.MockUserStore, *auth.TokenManager) {
	t.Helper()
	ctrl := gomock.NewController(t)
	users := storage_mocks.NewMockUserStore(ctrl)
	tokens := auth.NewTokenManager([]byte("test-secret"), "docqa-test", time.Hour)
	return NewAuthService(users, tokens, bcrypt.MinCost), users, tokens
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}
	return string(h)
}

func TestAuthService_Register(t *testing.T) {
	svc, users, _ := newTestAuthService(t)
	users.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, user *storage.UserRecord) error {
			if user.Email != "ada@example.com" || !user.IsActive {
				t.Errorf("created user = %+v", user)
			}
			if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte("secret1")) != nil {
				t.Error("stored password is not a bcrypt hash of the input")
			}
			user.ID = "user-1"
			return nil
		})

	user, err := svc.Register(context.Background(), Credentials{Email: " Ada@Example.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("Register() ID = %q", user.ID)
	}
}

func TestAuthService_Register_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		creds     Credentials
		createErr error
		wantField string
	}{
		{name: "empty email", creds: Credentials{Password: "secret1"}, wantField: "email"},
		{name: "short password", creds: Credentials{Email: "a@b.c", Password: "12345"}, wantField: "password"},
		{name: "long password", creds: Credentials{Email: "a@b.c", Password: strings.Repeat("x", 101)}, wantField: "password"},
		{name: "duplicate email", creds: Credentials{Email: "a@b.c", Password: "secret1"}, createErr: storage.ErrDuplicateEmail, wantField: "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users, _ := newTestAuthService(t)
			if tt.createErr != nil {
				users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(tt.createErr)
			}

			_, err := svc.Register(context.Background(), tt.creds)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Register() error = %v, want ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("ValidationError.Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, users, tokens := newTestAuthService(t)
	users.EXPECT().GetByEmail(gomock.Any(), "ada@example.com").Return(&storage.UserRecord{
		ID:             "user-1",
		Email:          "ada@example.com",
		HashedPassword: hashed(t, "secret1"),
		IsActive:       true,
	}, nil)

	token, err := svc.Login(context.Background(), Credentials{Email: "ADA@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token.TokenType != "bearer" {
		t.Errorf("TokenType = %q", token.TokenType)
	}
	claims, err := tokens.Verify(token.AccessToken)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.TenantID != "user-1" {
		t.Errorf("TenantID = %q, want user-1", claims.TenantID)
	}
}

func TestAuthService_Login_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		user     *storage.UserRecord
		lookup   error
		password string
		want     error
	}{
		{name: "unknown email", lookup: storage.ErrNotFound, password: "secret1", want: ErrUnauthorized},
		{
			name:     "wrong password",
			user:     &storage.UserRecord{ID: "u", IsActive: true},
			password: "wrong-password",
			want:     ErrUnauthorized,
		},
		{
			name:     "inactive user",
			user:     &storage.UserRecord{ID: "u", IsActive: false},
			password: "secret1",
			want:     ErrUnauthorized,
		},
		{name: "store failure", lookup: errors.New("disk I/O error"), password: "secret1", want: ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users, _ := newTestAuthService(t)
			if tt.user != nil {
				tt.user.HashedPassword = hashed(t, "secret1")
			}
			users.EXPECT().GetByEmail(gomock.Any(), "a@b.c").Return(tt.user, tt.lookup)

			_, err := svc.Login(context.Background(), Credentials{Email: "a@b.c", Password: tt.password})
			if got := Classify(err); got != tt.want {
				t.Errorf("Login() error = %v, classified %v, want %v", err, got, tt.want)
			}
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	svc, users, tokens := newTestAuthService(t)
	token, _, err := tokens.Issue("user-1", "ada@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	users.EXPECT().GetByID(gomock.Any(), "user-1").Return(&storage.UserRecord{ID: "user-1", IsActive: true}, nil)
	user, err := svc.Authenticate(context.Background(), "Bearer "+token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("Authenticate() ID = %q", user.ID)
	}

	if _, err := svc.Authenticate(context.Background(), ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Authenticate() without header error = %v, want ErrUnauthorized", err)
	}

	users.EXPECT().GetByID(gomock.Any(), "user-1").Return(nil, storage.ErrNotFound)
	if _, err := svc.Authenticate(context.Background(), "Bearer "+token); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Authenticate() for deleted user error = %v, want ErrUnauthorized", err)
	}
}
