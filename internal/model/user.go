// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// The username IS the primary key — it's what users type to log in, what
// messages reference, and what the session token carries. It never changes
// after registration.
//
// WHY `json:"-"` ON Password?
// Password holds the bcrypt hash, never the plaintext. The "-" tag tells
// encoding/json to skip the field entirely, so no response payload can ever
// leak the hash — even if a handler serializes the whole struct.
type User struct {
	Username    string    `json:"username"`
	Password    string    `json:"-"` // bcrypt hash, never serialized
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Phone       string    `json:"phone"`
	JoinAt      time.Time `json:"join_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}

// PublicUser is the profile shape exposed to OTHER users: the user listing
// and the expanded from_user/to_user fields on messages. It carries no
// timestamps and no hash.
type PublicUser struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// Public returns the user's public profile fields.
func (u *User) Public() PublicUser {
	return PublicUser{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}
