package repository

import (
	"context"
	"time"

	"github.com/treyarte/messagely/internal/model"
)

// UserRepository persists user accounts.
//
// Create returns apperror.ErrDuplicate (wrapped) if the username is already
// taken — uniqueness is enforced by the store's constraint, so two racing
// registrations can't both succeed.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context) ([]model.PublicUser, error)
	UpdateLastLogin(ctx context.Context, username string, at time.Time) error
}

// MessageRepository persists messages and serves the expanded read shapes.
//
// MarkRead stamps read_at only if it is still NULL: the null→timestamp
// transition happens at most once, repeated calls keep the first timestamp.
type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	GetByID(ctx context.Context, id string) (*model.MessageDetail, error)
	ListFromUser(ctx context.Context, username string) ([]model.SentMessage, error)
	ListToUser(ctx context.Context, username string) ([]model.ReceivedMessage, error)
	MarkRead(ctx context.Context, id string, at time.Time) (*model.Message, error)
}
