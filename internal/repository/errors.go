// Package repository implements the persistence boundary over MySQL.  The
// sentinel values below let higher layers distinguish failure scenarios
// without inspecting driver error strings themselves.
package repository

import "errors"

// ErrEmailExists is returned when registration hits the unique email index.
var ErrEmailExists = errors.New("email already exists")

// ErrUsernameExists is returned when registration hits the unique username
// index.
var ErrUsernameExists = errors.New("username already exists")

// ErrNoteNotFound is returned when a referenced note id does not exist.
// Handlers translate this into an HTTP 404 response.
var ErrNoteNotFound = errors.New("note not found")
