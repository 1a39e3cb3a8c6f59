package handler

import (
	"net/http"
	"strconv"

	"sharebnb/internal/httputil"
	"sharebnb/internal/model"
	"sharebnb/internal/service"
	"sharebnb/internal/transport/http/middleware"
)

type ListingHandler struct {
	listingService *service.ListingService
}

func NewListingHandler(listingService *service.ListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

type listingsResponse struct {
	Listings []model.ListingSummary `json:"listings"`
}

// Search handles GET /listings with optional max_price, longitude, latitude,
// beds and bathrooms filters.
func (h *ListingHandler) Search(w http.ResponseWriter, r *http.Request) {
	criteria, err := service.ParseListingCriteria(r.URL.Query())
	if err != nil {
		writeServiceError(w, err, "Invalid search parameters")
		return
	}

	listings, err := h.listingService.Find(r.Context(), criteria)
	if err != nil {
		writeServiceError(w, err, "Failed to search listings")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, listingsResponse{Listings: model.Summaries(listings)})
}

// GetByID handles GET /listings/{id}
func (h *ListingHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "listing")
	if !ok {
		return
	}

	listing, err := h.listingService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Failed to get listing")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, listing.Detail())
}

// Create handles POST /listings
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreateListingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	listing, err := h.listingService.Create(r.Context(), username, &req)
	if err != nil {
		writeServiceError(w, err, "Failed to create listing")
		return
	}

	w.Header().Set("Location", "/listings/"+strconv.FormatInt(listing.ID, 10))
	httputil.WriteJSON(w, http.StatusCreated, listing.Detail())
}

// Update handles PATCH /listings/{id}
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	id, ok := idParam(w, r, "listing")
	if !ok {
		return
	}

	var req model.UpdateListingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	listing, err := h.listingService.Update(r.Context(), username, id, &req)
	if err != nil {
		writeServiceError(w, err, "Failed to update listing")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, listing.Detail())
}

// Delete handles DELETE /listings/{id}
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	id, ok := idParam(w, r, "listing")
	if !ok {
		return
	}

	if err := h.listingService.Delete(r.Context(), username, id); err != nil {
		writeServiceError(w, err, "Failed to delete listing")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]int64{
		"deleted": id,
	})
}
