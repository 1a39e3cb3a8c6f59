package handler

import (
	"net/http"

	"sharebnb/internal/httputil"
	"sharebnb/internal/model"
	"sharebnb/internal/service"
	"sharebnb/internal/transport/http/middleware"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func writeMessages(w http.ResponseWriter, msgs []model.Message) {
	if msgs == nil {
		msgs = []model.Message{}
	}
	httputil.WriteJSON(w, http.StatusOK, model.MessageListResponse{Messages: msgs})
}

// ListBetween handles GET /messages?from_user=&to_user=
func (h *MessageHandler) ListBetween(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	q := r.URL.Query()
	msgs, err := h.messageService.ListBetween(r.Context(), username, q.Get("from_user"), q.Get("to_user"))
	if err != nil {
		writeServiceError(w, err, "Failed to get messages")
		return
	}

	writeMessages(w, msgs)
}

// ListForListing handles GET /listings/{id}/messages
func (h *MessageHandler) ListForListing(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	id, ok := idParam(w, r, "listing")
	if !ok {
		return
	}

	msgs, err := h.messageService.ListForListing(r.Context(), id, username)
	if err != nil {
		writeServiceError(w, err, "Failed to get messages")
		return
	}

	writeMessages(w, msgs)
}

// Create handles POST /listings/{id}/messages
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	id, ok := idParam(w, r, "listing")
	if !ok {
		return
	}

	var req model.CreateMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.messageService.Create(r.Context(), username, id, &req)
	if err != nil {
		writeServiceError(w, err, "Failed to send message")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, msg)
}

// GetByID handles GET /messages/{id}
func (h *MessageHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	username, ok := middleware.GetUsernameFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	id, ok := idParam(w, r, "message")
	if !ok {
		return
	}

	msg, err := h.messageService.Get(r.Context(), username, id)
	if err != nil {
		writeServiceError(w, err, "Failed to get message")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, msg)
}
