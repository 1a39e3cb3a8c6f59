package handler

import (
	"errors"
	"net/http"

	"sharebnb/internal/httputil"
	"sharebnb/internal/model"
	"sharebnb/internal/service"
	"sharebnb/internal/transport/http/middleware"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		authService: authService,
	}
}

// Signup registers a user and logs them in.
// POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.Signup(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "Failed to sign up")
		return
	}

	h.writeToken(w, http.StatusCreated, user)
}

// Login handles user login
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "Failed to login")
		return
	}

	h.writeToken(w, http.StatusOK, user)
}

func (h *AuthHandler) writeToken(w http.ResponseWriter, status int, user *model.User) {
	token, expiresIn, err := h.authService.GenerateToken(user)
	if err != nil {
		httputil.WriteInternalError(w, "Failed to generate token", err)
		return
	}

	httputil.WriteJSON(w, status, model.AuthResponse{
		User:      user,
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// Logout revokes the token used for this request.
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	if err := h.authService.Revoke(r.Context(), identity); err != nil {
		httputil.WriteInternalError(w, "Failed to logout", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

// Me returns the currently authenticated user
// GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	user, err := h.userService.GetByUsername(r.Context(), username)
	if err != nil {
		// the account was deleted while the token was still valid
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteUnauthorized(w, "Account no longer exists")
			return
		}
		writeServiceError(w, err, "Failed to get user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}
