package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sharebnb/internal/httputil"
	"sharebnb/internal/model"
)

// writeServiceError maps domain errors to HTTP responses. Anything it does not
// recognise becomes a 500 with fallback as the message.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.WriteValidationError(w, verr)
	case errors.Is(err, model.ErrUsernameTaken):
		httputil.WriteConflict(w, "Username already taken")
	case errors.Is(err, model.ErrEmailTaken):
		httputil.WriteConflict(w, "Email already taken")
	case errors.Is(err, model.ErrInvalidCredentials):
		httputil.WriteUnauthorized(w, "Invalid username or password")
	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, "User not found")
	case errors.Is(err, model.ErrListingNotFound):
		httputil.WriteNotFound(w, "Listing not found")
	case errors.Is(err, model.ErrMessageNotFound):
		httputil.WriteNotFound(w, "Message not found")
	case errors.Is(err, model.ErrReferenceNotFound):
		httputil.WriteNotFound(w, "Referenced user or listing does not exist")
	case errors.Is(err, model.ErrNotListingOwner):
		httputil.WriteForbidden(w, "Only the owner can modify this listing")
	case errors.Is(err, model.ErrNotParticipant):
		httputil.WriteForbidden(w, "Not a participant in this conversation")
	case errors.Is(err, model.ErrSelfMessage):
		httputil.WriteBadRequest(w, "Cannot send a message to yourself")
	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 5MB limit")
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequestWithCode(w, model.CodeInvalidImageType, "Unsupported image type. Allowed: jpeg, png, gif, webp")
	case errors.Is(err, model.ErrMediaNotConfigured):
		httputil.WriteServiceUnavailable(w, "Image uploads are not available")
	default:
		httputil.WriteInternalError(w, fallback, err)
	}
}

// decodeJSON reads the request body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// idParam parses the {id} route parameter. what names the resource in the error.
func idParam(w http.ResponseWriter, r *http.Request, what string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.WriteBadRequest(w, "Invalid "+what+" ID")
		return 0, false
	}
	return id, true
}
