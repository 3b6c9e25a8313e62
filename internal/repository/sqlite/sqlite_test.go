package sqlite

import (
	"context"
	"testing"

	"github.com/treyarte/messagely/internal/model"
)

// newTestDB returns a DB backed by an in-memory SQLite database.
// Each call gets a fresh database; t.Cleanup closes it when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

// createTestUser inserts a user and fails the test if it errors.
// The password field holds a fake "hash" — these tests never verify it.
func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()

	user := &model.User{
		Username:  username,
		Password:  "$2a$04$fakefakefakefakefakefakefakefakefakefakefakefakefakef",
		FirstName: "Test",
		LastName:  "User",
		Phone:     "+14155550100",
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %q: %v", username, err)
	}
	return user
}

// createTestMessage inserts a message and fails the test if it errors.
func createTestMessage(t *testing.T, db *DB, from, to, body string) *model.Message {
	t.Helper()

	msg := &model.Message{
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
	}
	if err := db.Messages().Create(context.Background(), msg); err != nil {
		t.Fatalf("failed to create test message %s to %s: %v", from, to, err)
	}
	return msg
}
