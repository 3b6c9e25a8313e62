package model

import "time"

// Message is a single text message between two users, as stored.
//
// WHY *time.Time FOR ReadAt?
// read_at is NULL until the recipient marks the message read, and JSON
// responses must show `"read_at": null` for unread messages. A pointer maps
// naturally to both: nil ↔ NULL ↔ null. Once set it is never cleared.
type Message struct {
	ID           string     `json:"id"`
	FromUsername string     `json:"from_username"`
	ToUsername   string     `json:"to_username"`
	Body         string     `json:"body"`
	SentAt       time.Time  `json:"sent_at"`
	ReadAt       *time.Time `json:"read_at"`
}

// MessageDetail is the fully-expanded shape returned by GET /api/messages/{id}:
// both parties replaced by their public profiles.
type MessageDetail struct {
	ID       string     `json:"id"`
	Body     string     `json:"body"`
	SentAt   time.Time  `json:"sent_at"`
	ReadAt   *time.Time `json:"read_at"`
	FromUser PublicUser `json:"from_user"`
	ToUser   PublicUser `json:"to_user"`
}

// SentMessage is an entry in a user's outbox: the recipient is expanded,
// the sender is implied by the request.
type SentMessage struct {
	ID     string     `json:"id"`
	ToUser PublicUser `json:"to_user"`
	Body   string     `json:"body"`
	SentAt time.Time  `json:"sent_at"`
	ReadAt *time.Time `json:"read_at"`
}

// ReceivedMessage is an entry in a user's inbox: the sender is expanded.
type ReceivedMessage struct {
	ID       string     `json:"id"`
	FromUser PublicUser `json:"from_user"`
	Body     string     `json:"body"`
	SentAt   time.Time  `json:"sent_at"`
	ReadAt   *time.Time `json:"read_at"`
}
