package model

import "time"

// User mirrors the 'users' table.  The password hash never leaves the
// process: it is excluded from JSON serialization entirely and handlers
// shape their own response types on top of this struct.
type User struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
