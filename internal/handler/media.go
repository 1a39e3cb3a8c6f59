package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"sharebnb/internal/httputil"
	"sharebnb/internal/model"
	"sharebnb/internal/service"
	"sharebnb/internal/transport/http/middleware"
)

// ImageUploader stores a normalised image and returns where it lives.
// service.MediaService satisfies it.
type ImageUploader interface {
	UploadAvatar(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error)
	UploadListingPhoto(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*model.UploadResult, error)
}

// MediaHandler accepts multipart image uploads for avatars and listing photos.
type MediaHandler struct {
	uploader       ImageUploader
	userService    *service.UserService
	listingService *service.ListingService
}

// NewMediaHandler wires the upload endpoints. uploader may be nil when object
// storage is not configured; the endpoints then answer 503.
func NewMediaHandler(uploader ImageUploader, userService *service.UserService, listingService *service.ListingService) *MediaHandler {
	return &MediaHandler{
		uploader:       uploader,
		userService:    userService,
		listingService: listingService,
	}
}

// UploadAvatar handles POST /users/me/avatar (multipart field "image")
func (h *MediaHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	if h.uploader == nil {
		writeServiceError(w, model.ErrMediaNotConfigured, "")
		return
	}

	file, header, ok := formImage(w, r, "image")
	if !ok {
		return
	}
	defer file.Close()

	upload, err := h.uploader.UploadAvatar(r.Context(), file, header)
	if err != nil {
		writeServiceError(w, err, "Failed to upload avatar")
		return
	}

	user, err := h.userService.SetAvatar(r.Context(), username, upload)
	if err != nil {
		writeServiceError(w, err, "Failed to update avatar")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

// UploadListingPhoto handles POST /listings/{id}/photo (multipart field "photo")
func (h *MediaHandler) UploadListingPhoto(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	id, ok := idParam(w, r, "listing")
	if !ok {
		return
	}
	if h.uploader == nil {
		writeServiceError(w, model.ErrMediaNotConfigured, "")
		return
	}

	// Reject before anything reaches object storage.
	if err := h.listingService.CanEdit(r.Context(), username, id); err != nil {
		writeServiceError(w, err, "Failed to load listing")
		return
	}

	file, header, ok := formImage(w, r, "photo")
	if !ok {
		return
	}
	defer file.Close()

	upload, err := h.uploader.UploadListingPhoto(r.Context(), file, header)
	if err != nil {
		writeServiceError(w, err, "Failed to upload photo")
		return
	}

	listing, err := h.listingService.SetPhoto(r.Context(), username, id, upload)
	if err != nil {
		writeServiceError(w, err, "Failed to update listing photo")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, listing.Detail())
}

// formImage parses a multipart body and returns the named file part.
func formImage(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, bool) {
	maxFormSize := int64(model.MaxImageSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
		case errors.As(err, &tooLarge), strings.Contains(err.Error(), "request body too large"):
			httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 5MB limit")
		default:
			httputil.WriteBadRequest(w, "Invalid form data")
		}
		return nil, nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			httputil.WriteValidationError(w, model.NewValidationError(field, "This field is required."))
		} else {
			httputil.WriteBadRequest(w, "Invalid "+field+" upload")
		}
		return nil, nil, false
	}
	return file, header, true
}
