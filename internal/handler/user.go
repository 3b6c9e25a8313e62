package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/treyarte/messagely/internal/model"
	"github.com/treyarte/messagely/internal/service"
)

// UserHandler serves the user listing, profile detail, and a user's inbox
// and outbox:
//
//	GET /api/users                  → {users: [public profiles]}
//	GET /api/users/{username}       → {user}            (correct user only)
//	GET /api/users/{username}/to    → {messages: [...]} (inbox)
//	GET /api/users/{username}/from  → {messages: [...]} (outbox)
//
// Authorization is layered by the router: RequireAuth guards the whole /api
// tree and RequireCorrectUser additionally guards the profile detail route,
// so by the time these run the principal checks have already passed.
type UserHandler struct {
	userService    *service.UserService
	messageService *service.MessageService
	logger         *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(
	userService *service.UserService,
	messageService *service.MessageService,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		userService:    userService,
		messageService: messageService,
		logger:         logger,
	}
}

// HandleList returns the public profile of every user.
//
// HTTP: GET /api/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		h.logger.Error("listing users", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Users []model.PublicUser `json:"users"`
	}{Users: users})
}

// HandleGet returns a user's full profile (join_at and last_login_at
// included, hash excluded by the model's json tags).
//
// HTTP: GET /api/users/{username}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := h.userService.Get(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		User *model.User `json:"user"`
	}{User: user})
}

// HandleMessagesTo returns messages sent TO the user, each with the sender
// expanded to a public profile.
//
// HTTP: GET /api/users/{username}/to
func (h *UserHandler) HandleMessagesTo(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	messages, err := h.messageService.ReceivedBy(r.Context(), username)
	if err != nil {
		h.logger.Error("listing inbox", slog.String("username", username), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Messages []model.ReceivedMessage `json:"messages"`
	}{Messages: messages})
}

// HandleMessagesFrom returns messages sent BY the user, each with the
// recipient expanded to a public profile.
//
// HTTP: GET /api/users/{username}/from
func (h *UserHandler) HandleMessagesFrom(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	messages, err := h.messageService.SentBy(r.Context(), username)
	if err != nil {
		h.logger.Error("listing outbox", slog.String("username", username), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Messages []model.SentMessage `json:"messages"`
	}{Messages: messages})
}
