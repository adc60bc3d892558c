// Package service orchestrates note mutations: validate input, authorize
// through the access policy, mutate through the store, then notify connected
// clients fire-and-forget.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/collab-notes/internal/model"
	"github.com/iliyamo/collab-notes/internal/policy"
	"github.com/iliyamo/collab-notes/internal/queue"
	"github.com/iliyamo/collab-notes/internal/realtime"
)

// NoteStore is the persistence boundary for notes.  The MySQL implementation
// lives in internal/repository; tests substitute an in-memory fake.
type NoteStore interface {
	Create(ctx context.Context, n *model.Note) error
	GetByID(ctx context.Context, id uint64) (model.Note, error)
	ListForUser(ctx context.Context, userID uint64) ([]model.Note, error)
	Update(ctx context.Context, n *model.Note) error
	Delete(ctx context.Context, id uint64) error
	AddShare(ctx context.Context, noteID, userID uint64) error
}

// Broadcaster pushes an event to connected realtime clients.  Implementations
// must not block and never report delivery failures back to the caller.
type Broadcaster interface {
	Broadcast(event string, data any)
}

// AuditPublisher records note lifecycle events on the message broker.
type AuditPublisher interface {
	PublishNoteEvent(ctx context.Context, event queue.NoteEvent) error
}

// NotePatch carries the updatable fields of a note.  An empty string means
// "no change": the merge policy replaces a field only when the new value is
// non-empty, so there is no way to clear a field through Update.  That
// matches long-standing client expectations and is pinned by tests.
type NotePatch struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// noteUpdatedPayload is the realtime payload for noteUpdated events.
type noteUpdatedPayload struct {
	ID      uint64 `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NoteService coordinates store, policy, realtime hub and audit queue.  It
// holds no per-request state; every method runs independently and no note is
// locked across requests, so concurrent updates race last-write-wins.
type NoteService struct {
	store NoteStore
	hub   Broadcaster
	audit AuditPublisher
}

// NewNoteService wires a NoteService.  hub and audit may be nil, which
// disables the respective notification path.
func NewNoteService(store NoteStore, hub Broadcaster, audit AuditPublisher) *NoteService {
	return &NoteService{store: store, hub: hub, audit: audit}
}

// Create persists a new note owned by ownerID with an empty share list and
// announces it to connected clients.  Titles are not unique.
func (s *NoteService) Create(ctx context.Context, ownerID uint64, title, content string) (model.Note, error) {
	n := &model.Note{
		Title:      strings.TrimSpace(title),
		Content:    content,
		OwnerID:    ownerID,
		SharedWith: []uint64{},
	}
	if err := s.store.Create(ctx, n); err != nil {
		return model.Note{}, err
	}
	s.broadcast(realtime.EventNewNote, *n)
	s.publishAudit("created", *n, ownerID)
	return *n, nil
}

// ListFor returns the notes identityID owns or that are shared with them.
// The order is implementation-defined.
func (s *NoteService) ListFor(ctx context.Context, identityID uint64) ([]model.Note, error) {
	return s.store.ListForUser(ctx, identityID)
}

// Get returns a single note after a view authorization check.
func (s *NoteService) Get(ctx context.Context, noteID, identityID uint64) (model.Note, error) {
	n, err := s.store.GetByID(ctx, noteID)
	if err != nil {
		return model.Note{}, err
	}
	if err := policy.Authorize(policy.ActionView, n, identityID); err != nil {
		return model.Note{}, err
	}
	return n, nil
}

// Update merges the patch into the note and persists it.  The owner and any
// shared user may update; everyone else gets policy.ErrForbidden.
func (s *NoteService) Update(ctx context.Context, noteID, identityID uint64, patch NotePatch) (model.Note, error) {
	n, err := s.store.GetByID(ctx, noteID)
	if err != nil {
		return model.Note{}, err
	}
	if err := policy.Authorize(policy.ActionUpdate, n, identityID); err != nil {
		return model.Note{}, err
	}
	if patch.Title != "" {
		n.Title = patch.Title
	}
	if patch.Content != "" {
		n.Content = patch.Content
	}
	if err := s.store.Update(ctx, &n); err != nil {
		return model.Note{}, err
	}
	s.broadcast(realtime.EventNoteUpdated, noteUpdatedPayload{ID: n.ID, Title: n.Title, Content: n.Content})
	s.publishAudit("updated", n, identityID)
	return n, nil
}

// Delete removes a note.  Owner-only: shared users get policy.ErrNotOwner,
// which maps to a more specific status than the generic forbidden.
func (s *NoteService) Delete(ctx context.Context, noteID, identityID uint64) error {
	n, err := s.store.GetByID(ctx, noteID)
	if err != nil {
		return err
	}
	if err := policy.Authorize(policy.ActionDelete, n, identityID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, noteID); err != nil {
		return err
	}
	s.broadcast(realtime.EventNoteDeleted, n.ID)
	s.publishAudit("deleted", n, identityID)
	return nil
}

// Share appends targetUserID to the note's share list.  Owner-only.  The
// append is blind: no deduplication and no check that targetUserID names an
// existing user.  Both gaps are deliberate current behavior (pinned by
// tests) pending a product decision.
func (s *NoteService) Share(ctx context.Context, noteID, identityID, targetUserID uint64) (model.Note, error) {
	n, err := s.store.GetByID(ctx, noteID)
	if err != nil {
		return model.Note{}, err
	}
	if err := policy.Authorize(policy.ActionShare, n, identityID); err != nil {
		return model.Note{}, err
	}
	if err := s.store.AddShare(ctx, noteID, targetUserID); err != nil {
		return model.Note{}, err
	}
	n.SharedWith = append(n.SharedWith, targetUserID)
	s.publishAudit("shared", n, identityID)
	return n, nil
}

// broadcast is fire-and-forget: events go out after a successful mutation
// with no delivery confirmation and no retry.
func (s *NoteService) broadcast(event string, data any) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(event, data)
}

// publishAudit hands the event to the broker without blocking the request;
// failures are logged inside the publisher and dropped here.
func (s *NoteService) publishAudit(action string, n model.Note, actorID uint64) {
	if s.audit == nil {
		return
	}
	ev := queue.NoteEvent{
		Action:     action,
		NoteID:     n.ID,
		OwnerID:    n.OwnerID,
		ActorID:    actorID,
		Title:      n.Title,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.audit.PublishNoteEvent(ctx, ev)
	}()
}
