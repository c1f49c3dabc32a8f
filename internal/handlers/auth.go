package handlers

import (
	"net/http"
	"time"

	"docqa/internal/service"
	"docqa/internal/storage"
)

// AuthHandler handles registration, login and the current-user lookup.
type AuthHandler struct {
	auth service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// CredentialsRequest is the body of register and login requests.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

// UserResponse describes a user without credentials.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(user *storage.UserRecord) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CredentialsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.auth.Register(ctx, service.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		writeServiceError(ctx, w, err, "Not found")
		return
	}
	writeJSON(ctx, w, http.StatusCreated, toUserResponse(user))
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CredentialsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	token, err := h.auth.Login(ctx, service.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		if service.Classify(err) == service.ErrUnauthorized {
			writeError(w, http.StatusUnauthorized, "Incorrect email or password")
			return
		}
		writeServiceError(ctx, w, err, "Not found")
		return
	}
	writeJSON(ctx, w, http.StatusOK, token)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.auth.Authenticate(ctx, r.Header.Get("Authorization"))
	if err != nil {
		writeServiceError(ctx, w, err, "Not found")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toUserResponse(user))
}
