// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// NoteEvent is published whenever a note is created, updated, deleted or
// shared.  It carries enough information for downstream consumers to log or
// trigger analytics without querying the primary database.  Delivery is
// best-effort: a lost event is never retried.
type NoteEvent struct {
	Action     string `json:"action"` // created | updated | deleted | shared
	NoteID     uint64 `json:"note_id"`
	OwnerID    uint64 `json:"owner_id"`
	ActorID    uint64 `json:"actor_id"`
	Title      string `json:"title,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
