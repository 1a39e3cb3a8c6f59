package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sharebnb/internal/httputil"
	"sharebnb/internal/model"
	"sharebnb/internal/service"
	"sharebnb/internal/transport/http/middleware"
)

type UserHandler struct {
	userService    *service.UserService
	listingService *service.ListingService
	authService    *service.AuthService
}

func NewUserHandler(userService *service.UserService, listingService *service.ListingService, authService *service.AuthService) *UserHandler {
	return &UserHandler{
		userService:    userService,
		listingService: listingService,
		authService:    authService,
	}
}

// usersResponse wraps GET /users
type usersResponse struct {
	Users []model.User `json:"users"`
}

// List handles GET /users?q=
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err, "Failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}

	httputil.WriteJSON(w, http.StatusOK, usersResponse{Users: users})
}

// GetProfile handles GET /users/{username}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeServiceError(w, err, "Failed to get user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// GetListings handles GET /users/{username}/listings
func (h *UserHandler) GetListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listingService.ListByCreator(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeServiceError(w, err, "Failed to list listings")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, listingsResponse{Listings: model.Summaries(listings)})
}

// UpdateMe handles PATCH /users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.Update(r.Context(), username, &req)
	if err != nil {
		writeServiceError(w, err, "Failed to update user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// DeleteMe handles DELETE /users/me. The presented token is revoked as well;
// other tokens of the account stop parsing once the account is gone.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	username := identity.Username

	if err := h.userService.Delete(r.Context(), username); err != nil {
		writeServiceError(w, err, "Failed to delete user")
		return
	}

	if err := h.authService.Revoke(r.Context(), identity); err != nil {
		log.Printf("[ERROR] Revoke token of deleted user %s: %v", username, err)
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"deleted": username,
	})
}
