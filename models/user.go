package models

import "time"

// User is an account record. The sync engine only needs identity and a
// credential hash; profile data lives with the application proper.
type User struct {
	// UserID stays server-side; it never appears in JSON.
	UserID int64 `json:"-"`

	// Login identifies the account and is unique across the team.
	Login string `json:"login"`

	// Name is the display name shown next to a user's edits.
	Name string `json:"name"`

	// Password carries the plaintext credential on register/login requests
	// only. It is never persisted; the stored form is PasswordHash.
	Password string `json:"password,omitempty"`

	// PasswordHash is the bcrypt hash kept at the persistence layer.
	PasswordHash string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName names the backing table for query builders.
func (u User) TableName() string {
	return "users"
}
