package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/treyarte/messagely/internal/auth"
	"github.com/treyarte/messagely/internal/model"
	"github.com/treyarte/messagely/internal/service"
)

// MessageHandler serves message detail, creation and mark-read:
//
//	GET  /api/messages/{id}       → {message}  (sender or recipient only)
//	POST /api/messages            → {message}  (sender = principal)
//	POST /api/messages/{id}/read  → {message: {id, read_at}} (recipient only)
//
// RequireAuth guarantees a principal is present; the per-message party
// checks happen in the service because they depend on the stored row.
type MessageHandler struct {
	messageService *service.MessageService
	logger         *slog.Logger
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(messageService *service.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messageService: messageService, logger: logger}
}

// createMessageRequest is the POST /api/messages body. There is no
// from_username field on purpose: the sender is always the authenticated
// principal, never client input.
type createMessageRequest struct {
	ToUsername string `json:"to_username"`
	Body       string `json:"body"`
}

// readReceipt is the payload confirming a mark-read: just the id and the
// (possibly pre-existing) read timestamp.
type readReceipt struct {
	ID     string     `json:"id"`
	ReadAt *time.Time `json:"read_at"`
}

// HandleGet returns a message with both parties expanded.
//
// HTTP: GET /api/messages/{id}
func (h *MessageHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")

	msg, err := h.messageService.Get(r.Context(), principal, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message *model.MessageDetail `json:"message"`
	}{Message: msg})
}

// HandleCreate sends a message from the principal to the named recipient.
//
// HTTP: POST /api/messages
func (h *MessageHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())

	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("create message: invalid JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	msg, err := h.messageService.Send(r.Context(), principal, req.ToUsername, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message *model.MessageDetail `json:"message"`
	}{Message: msg})
}

// HandleMarkRead stamps read_at on a message the principal received.
//
// HTTP: POST /api/messages/{id}/read
func (h *MessageHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")

	msg, err := h.messageService.MarkRead(r.Context(), principal, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message readReceipt `json:"message"`
	}{Message: readReceipt{ID: msg.ID, ReadAt: msg.ReadAt}})
}
