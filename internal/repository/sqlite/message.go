package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/treyarte/messagely/internal/apperror"
	"github.com/treyarte/messagely/internal/model"
	"github.com/treyarte/messagely/internal/repository"

	sqlite3 "modernc.org/sqlite/lib"
)

// MessageStore implements repository.MessageRepository over the shared pool.
type MessageStore struct {
	conn *sql.DB
}

// compile-time check that *MessageStore implements repository.MessageRepository
var _ repository.MessageRepository = (*MessageStore)(nil)

// readAt converts the nullable read_at column into the model's pointer form.
func readAt(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

// Create inserts a new message with a generated ID, sent_at = now and
// read_at = NULL.
//
// ID GENERATION WITH xid:
// xid produces 20-char URL-safe IDs that sort by creation time, so "ORDER BY
// id" roughly matches send order even without the timestamp.
//
// The foreign key constraints guarantee both parties exist; a violation maps
// to apperror.ErrNotFound so a recipient that vanished between the service's
// existence check and this INSERT still yields a 404, not a 500.
func (s *MessageStore) Create(ctx context.Context, msg *model.Message) error {
	msg.ID = xid.New().String()
	msg.SentAt = time.Now()
	msg.ReadAt = nil

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO messages (id, from_username, to_username, body, sent_at, read_at)
		 VALUES (?, ?, ?, ?, ?, NULL)`,
		msg.ID,
		msg.FromUsername,
		msg.ToUsername,
		msg.Body,
		msg.SentAt,
	)
	if err != nil {
		if isConstraintErr(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY) {
			return apperror.NotFound("user", msg.ToUsername)
		}
		return fmt.Errorf("sqlite: inserting message from %q to %q: %w",
			msg.FromUsername, msg.ToUsername, err)
	}

	return nil
}

// GetByID retrieves a message with both parties expanded to their public
// profiles. Returns apperror.ErrNotFound (wrapped) if no such message.
func (s *MessageStore) GetByID(ctx context.Context, id string) (*model.MessageDetail, error) {
	var (
		m      model.MessageDetail
		readNT sql.NullTime
	)

	err := s.conn.QueryRowContext(ctx,
		`SELECT m.id, m.body, m.sent_at, m.read_at,
		        f.username, f.first_name, f.last_name, f.phone,
		        t.username, t.first_name, t.last_name, t.phone
		 FROM messages m
		 JOIN users f ON m.from_username = f.username
		 JOIN users t ON m.to_username = t.username
		 WHERE m.id = ?`,
		id,
	).Scan(
		&m.ID, &m.Body, &m.SentAt, &readNT,
		&m.FromUser.Username, &m.FromUser.FirstName, &m.FromUser.LastName, &m.FromUser.Phone,
		&m.ToUser.Username, &m.ToUser.FirstName, &m.ToUser.LastName, &m.ToUser.Phone,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("message", id)
		}
		return nil, fmt.Errorf("sqlite: getting message %q: %w", id, err)
	}

	m.ReadAt = readAt(readNT)
	return &m, nil
}

// ListFromUser returns every message sent by the user, with the recipient
// expanded. Ordered by sent_at then id for a stable listing.
func (s *MessageStore) ListFromUser(ctx context.Context, username string) ([]model.SentMessage, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT m.id, m.body, m.sent_at, m.read_at,
		        t.username, t.first_name, t.last_name, t.phone
		 FROM messages m
		 JOIN users t ON m.to_username = t.username
		 WHERE m.from_username = ?
		 ORDER BY m.sent_at, m.id`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing messages from %q: %w", username, err)
	}
	defer rows.Close()

	messages := []model.SentMessage{}
	for rows.Next() {
		var (
			m      model.SentMessage
			readNT sql.NullTime
		)
		if err := rows.Scan(
			&m.ID, &m.Body, &m.SentAt, &readNT,
			&m.ToUser.Username, &m.ToUser.FirstName, &m.ToUser.LastName, &m.ToUser.Phone,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning sent message row: %w", err)
		}
		m.ReadAt = readAt(readNT)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating sent message rows: %w", err)
	}

	return messages, nil
}

// ListToUser returns every message received by the user, with the sender
// expanded. Ordered by sent_at then id.
func (s *MessageStore) ListToUser(ctx context.Context, username string) ([]model.ReceivedMessage, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT m.id, m.body, m.sent_at, m.read_at,
		        f.username, f.first_name, f.last_name, f.phone
		 FROM messages m
		 JOIN users f ON m.from_username = f.username
		 WHERE m.to_username = ?
		 ORDER BY m.sent_at, m.id`,
		username,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing messages to %q: %w", username, err)
	}
	defer rows.Close()

	messages := []model.ReceivedMessage{}
	for rows.Next() {
		var (
			m      model.ReceivedMessage
			readNT sql.NullTime
		)
		if err := rows.Scan(
			&m.ID, &m.Body, &m.SentAt, &readNT,
			&m.FromUser.Username, &m.FromUser.FirstName, &m.FromUser.LastName, &m.FromUser.Phone,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning received message row: %w", err)
		}
		m.ReadAt = readAt(readNT)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating received message rows: %w", err)
	}

	return messages, nil
}

// MarkRead stamps read_at for the message and returns the updated row.
//
// COALESCE keeps the FIRST read timestamp: read_at moves null→timestamp at
// most once, and repeated calls are harmless. Returns apperror.ErrNotFound
// (wrapped) if the message doesn't exist.
func (s *MessageStore) MarkRead(ctx context.Context, id string, at time.Time) (*model.Message, error) {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE messages SET read_at = COALESCE(read_at, ?) WHERE id = ?`,
		at, id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: marking message %q read: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking mark-read result for %q: %w", id, err)
	}
	if affected == 0 {
		return nil, apperror.NotFound("message", id)
	}

	var (
		m      model.Message
		readNT sql.NullTime
	)
	err = s.conn.QueryRowContext(ctx,
		`SELECT id, from_username, to_username, body, sent_at, read_at
		 FROM messages WHERE id = ?`,
		id,
	).Scan(&m.ID, &m.FromUsername, &m.ToUsername, &m.Body, &m.SentAt, &readNT)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reloading message %q: %w", id, err)
	}

	m.ReadAt = readAt(readNT)
	return &m, nil
}
