package model

import (
	"slices"
	"time"
)

// Note mirrors the 'notes' table plus its share list from 'note_shares'.
// Relations are held as plain user ids; resolving an id to a full user
// record is the API boundary's job, never the storage layer's.
//
// OwnerID is fixed at creation and never reassigned.  SharedWith is
// append-only and deliberately unconstrained: duplicates are possible and
// the target id is not checked against the users table.  Both gaps are
// long-standing product behavior and are pinned by tests rather than fixed
// here.
type Note struct {
	ID         uint64    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	OwnerID    uint64    `json:"ownerId"`
	SharedWith []uint64  `json:"sharedWith"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SharedWithUser reports whether userID appears in the note's share list.
func (n Note) SharedWithUser(userID uint64) bool {
	return slices.Contains(n.SharedWith, userID)
}
