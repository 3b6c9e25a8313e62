package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/treyarte/messagely/internal/apperror"
	"github.com/treyarte/messagely/internal/model"
	"github.com/treyarte/messagely/internal/repository"
)

// MessageService owns message operations and the per-message authorization
// rules: only the sender or the recipient may read a message, and only the
// recipient may mark it read.
//
// The checks live here, not in middleware, because they need the message row
// itself — who the parties are isn't known until the store is consulted.
type MessageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

// NewMessageService creates a MessageService.
func NewMessageService(
	messages repository.MessageRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		logger:   logger,
	}
}

// Send creates a message from the authenticated principal to the named
// recipient and returns it fully expanded.
//
// The sender is ALWAYS the principal — a client-supplied from_username is
// never trusted. The recipient must exist (→ ErrNotFound); the store's
// foreign keys back this up if the lookup races.
func (s *MessageService) Send(ctx context.Context, from, to, body string) (*model.MessageDetail, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, apperror.ValidationFailed("to_username", "recipient is required")
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperror.ValidationFailed("body", "message body is required")
	}

	if _, err := s.users.GetByUsername(ctx, to); err != nil {
		return nil, err
	}

	msg := &model.Message{
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.logger.Info("message sent",
		slog.String("id", msg.ID),
		slog.String("from", from),
		slog.String("to", to),
	)

	// Reload the expanded shape so the response carries both parties'
	// public profiles, same as a later GET would.
	detail, err := s.messages.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("service/message: reloading message %q: %w", msg.ID, err)
	}
	return detail, nil
}

// Get returns the expanded message, but only to its sender or recipient.
// Anyone else gets ErrUnauthorized — the same response whether or not the
// message exists from their point of view.
func (s *MessageService) Get(ctx context.Context, principal, id string) (*model.MessageDetail, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if msg.FromUser.Username != principal && msg.ToUser.Username != principal {
		return nil, apperror.Unauthorized("only the sender or recipient can read this message")
	}

	return msg, nil
}

// MarkRead stamps read_at on a message. Recipient-only: the sender (or
// anyone else) gets ErrUnauthorized and the row is left untouched.
//
// The storage layer keeps the first timestamp, so calling this twice doesn't
// move read_at.
func (s *MessageService) MarkRead(ctx context.Context, principal, id string) (*model.Message, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if msg.ToUser.Username != principal {
		return nil, apperror.Unauthorized("only the recipient can mark this message read")
	}

	updated, err := s.messages.MarkRead(ctx, id, time.Now())
	if err != nil {
		return nil, err
	}

	s.logger.Info("message marked read",
		slog.String("id", id),
		slog.String("by", principal),
	)

	return updated, nil
}

// SentBy lists the user's sent messages with each recipient expanded.
func (s *MessageService) SentBy(ctx context.Context, username string) ([]model.SentMessage, error) {
	messages, err := s.messages.ListFromUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/message: listing sent by %q: %w", username, err)
	}
	return messages, nil
}

// ReceivedBy lists the user's received messages with each sender expanded.
func (s *MessageService) ReceivedBy(ctx context.Context, username string) ([]model.ReceivedMessage, error) {
	messages, err := s.messages.ListToUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/message: listing received by %q: %w", username, err)
	}
	return messages, nil
}
