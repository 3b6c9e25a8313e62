package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/treyarte/messagely/internal/apperror"
	"github.com/treyarte/messagely/internal/model"
	"github.com/treyarte/messagely/internal/repository"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// UserStore implements repository.UserRepository over the shared pool.
type UserStore struct {
	conn *sql.DB
}

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// isConstraintErr reports whether err is a SQLite constraint violation with
// one of the given extended result codes. This is how a racing duplicate
// INSERT is detected: the constraint fires inside the engine, atomically,
// instead of an application-level check-then-insert that two concurrent
// registrations could both pass.
func isConstraintErr(err error, codes ...int) bool {
	var serr *sqlitedrv.Error
	if !errors.As(err, &serr) {
		return false
	}
	for _, code := range codes {
		if serr.Code() == code {
			return true
		}
	}
	return false
}

// Create inserts a new user. The caller supplies the bcrypt hash in
// user.Password; JoinAt and LastLoginAt are stamped here.
//
// A username collision surfaces as apperror.DuplicateUsername, translated
// from the PRIMARY KEY constraint violation.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.JoinAt = now
	user.LastLoginAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (username, password, first_name, last_name, phone, join_at, last_login_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.Password,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.JoinAt,
		user.LastLoginAt,
	)
	if err != nil {
		if isConstraintErr(err, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE) {
			return apperror.DuplicateUsername(user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	return nil
}

// GetByUsername retrieves a user, including the password hash, for
// authentication and profile detail. Returns apperror.ErrNotFound (wrapped)
// if no such user exists.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User

	err := s.conn.QueryRowContext(ctx,
		`SELECT username, password, first_name, last_name, phone, join_at, last_login_at
		 FROM users WHERE username = ?`,
		username,
	).Scan(
		&u.Username,
		&u.Password,
		&u.FirstName,
		&u.LastName,
		&u.Phone,
		&u.JoinAt,
		&u.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", username, err)
	}

	return &u, nil
}

// List returns the public profile of every user, ordered by username.
func (s *UserStore) List(ctx context.Context) ([]model.PublicUser, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT username, first_name, last_name, phone
		 FROM users ORDER BY username`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	// rows MUST be closed or the connection leaks back into the pool locked
	defer rows.Close()

	users := []model.PublicUser{}
	for rows.Next() {
		var u model.PublicUser
		if err := rows.Scan(&u.Username, &u.FirstName, &u.LastName, &u.Phone); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user rows: %w", err)
	}

	return users, nil
}

// UpdateLastLogin re-stamps last_login_at for the user. Called on every
// successful login.
func (s *UserStore) UpdateLastLogin(ctx context.Context, username string, at time.Time) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE username = ?`,
		at, username,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating last login for %q: %w", username, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking last login update for %q: %w", username, err)
	}
	if affected == 0 {
		return apperror.NotFound("user", username)
	}

	return nil
}
