package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/collab-notes/internal/model"
	"github.com/iliyamo/collab-notes/internal/policy"
	"github.com/iliyamo/collab-notes/internal/realtime"
	"github.com/iliyamo/collab-notes/internal/repository"
)

// memStore is an in-memory NoteStore used to exercise the orchestration
// without MySQL.  It mirrors the repository contract, including the
// non-deduplicating share append and the not-found sentinel.
type memStore struct {
	mu     sync.Mutex
	nextID uint64
	notes  map[uint64]model.Note
}

func newMemStore() *memStore {
	return &memStore{notes: make(map[uint64]model.Note)}
}

func (m *memStore) Create(_ context.Context, n *model.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	n.ID = m.nextID
	if n.SharedWith == nil {
		n.SharedWith = []uint64{}
	}
	m.notes[n.ID] = cloneNote(*n)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uint64) (model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok {
		return model.Note{}, repository.ErrNoteNotFound
	}
	return cloneNote(n), nil
}

func (m *memStore) ListForUser(_ context.Context, userID uint64) ([]model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Note
	for id := uint64(1); id <= m.nextID; id++ {
		n, ok := m.notes[id]
		if !ok {
			continue
		}
		if n.OwnerID == userID || n.SharedWithUser(userID) {
			out = append(out, cloneNote(n))
		}
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, n *model.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[n.ID]; !ok {
		return repository.ErrNoteNotFound
	}
	m.notes[n.ID] = cloneNote(*n)
	return nil
}

func (m *memStore) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return repository.ErrNoteNotFound
	}
	delete(m.notes, id)
	return nil
}

func (m *memStore) AddShare(_ context.Context, noteID, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[noteID]
	if !ok {
		return repository.ErrNoteNotFound
	}
	n.SharedWith = append(n.SharedWith, userID)
	m.notes[noteID] = n
	return nil
}

func cloneNote(n model.Note) model.Note {
	shares := make([]uint64, len(n.SharedWith))
	copy(shares, n.SharedWith)
	n.SharedWith = shares
	return n
}

// recordingHub captures broadcasts for assertions.
type recordingHub struct {
	mu     sync.Mutex
	events []string
	data   []any
}

func (h *recordingHub) Broadcast(event string, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	h.data = append(h.data, data)
}

func (h *recordingHub) names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.events))
	copy(out, h.events)
	return out
}

func newService() (*NoteService, *memStore, *recordingHub) {
	store := newMemStore()
	hub := &recordingHub{}
	return NewNoteService(store, hub, nil), store, hub
}

const (
	alice uint64 = 1
	bob   uint64 = 2
	carol uint64 = 3
)

func TestCreate_EmitsNewNote(t *testing.T) {
	svc, _, hub := newService()

	n, err := svc.Create(context.Background(), alice, "T", "C")
	require.NoError(t, err)
	require.NotZero(t, n.ID)
	require.Equal(t, alice, n.OwnerID)
	require.Empty(t, n.SharedWith)
	require.Equal(t, []string{realtime.EventNewNote}, hub.names())
}

func TestListFor_Visibility(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	n, err := svc.Create(ctx, alice, "T", "C")
	require.NoError(t, err)

	owned, err := svc.ListFor(ctx, alice)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	require.Equal(t, n.ID, owned[0].ID)

	other, err := svc.ListFor(ctx, bob)
	require.NoError(t, err)
	require.Empty(t, other)

	_, err = svc.Share(ctx, n.ID, alice, bob)
	require.NoError(t, err)

	shared, err := svc.ListFor(ctx, bob)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	require.Equal(t, n.ID, shared[0].ID)
}

func TestUpdate_EmptyStringMeansNoChange(t *testing.T) {
	svc, _, hub := newService()
	ctx := context.Background()

	n, err := svc.Create(ctx, alice, "keep-title", "keep-content")
	require.NoError(t, err)

	got, err := svc.Update(ctx, n.ID, alice, NotePatch{Title: "", Content: "new-content"})
	require.NoError(t, err)
	require.Equal(t, "keep-title", got.Title, "an explicit empty title must be a no-op, not a clear")
	require.Equal(t, "new-content", got.Content)

	got, err = svc.Update(ctx, n.ID, alice, NotePatch{})
	require.NoError(t, err)
	require.Equal(t, "keep-title", got.Title)
	require.Equal(t, "new-content", got.Content)

	require.Equal(t, []string{realtime.EventNewNote, realtime.EventNoteUpdated, realtime.EventNoteUpdated}, hub.names())
}

func TestUpdate_SharedUserGainsAccess(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	n, err := svc.Create(ctx, alice, "T", "C")
	require.NoError(t, err)

	// Not owner, not shared: denied.
	_, err = svc.Update(ctx, n.ID, bob, NotePatch{Content: "hijack"})
	require.ErrorIs(t, err, policy.ErrForbidden)

	_, err = svc.Share(ctx, n.ID, alice, bob)
	require.NoError(t, err)

	got, err := svc.Update(ctx, n.ID, bob, NotePatch{Content: "from-bob"})
	require.NoError(t, err)
	require.Equal(t, "from-bob", got.Content)

	// The new content is visible to both sides.
	for _, uid := range []uint64{alice, bob} {
		notes, err := svc.ListFor(ctx, uid)
		require.NoError(t, err)
		require.Len(t, notes, 1)
		require.Equal(t, "from-bob", notes[0].Content)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.Update(context.Background(), 999, alice, NotePatch{Title: "x"})
	require.ErrorIs(t, err, repository.ErrNoteNotFound)
}

func TestDelete_OwnerOnly(t *testing.T) {
	svc, _, hub := newService()
	ctx := context.Background()

	n, err := svc.Create(ctx, alice, "T", "C")
	require.NoError(t, err)
	_, err = svc.Share(ctx, n.ID, alice, bob)
	require.NoError(t, err)

	// Shared users and strangers get the distinct owner-only denial.
	require.ErrorIs(t, svc.Delete(ctx, n.ID, bob), policy.ErrNotOwner)
	require.ErrorIs(t, svc.Delete(ctx, n.ID, carol), policy.ErrNotOwner)

	require.NoError(t, svc.Delete(ctx, n.ID, alice))
	notes, err := svc.ListFor(ctx, alice)
	require.NoError(t, err)
	require.Empty(t, notes)

	require.Contains(t, hub.names(), realtime.EventNoteDeleted)
	require.ErrorIs(t, svc.Delete(ctx, n.ID, alice), repository.ErrNoteNotFound)
}

func TestShare_OwnerOnlyAndBlindAppend(t *testing.T) {
	svc, store, _ := newService()
	ctx := context.Background()

	n, err := svc.Create(ctx, alice, "T", "C")
	require.NoError(t, err)

	_, err = svc.Share(ctx, n.ID, bob, carol)
	require.ErrorIs(t, err, policy.ErrForbidden)

	// Sharing twice with the same target must not fail; current behavior
	// appends without deduplication.
	_, err = svc.Share(ctx, n.ID, alice, bob)
	require.NoError(t, err)
	got, err := svc.Share(ctx, n.ID, alice, bob)
	require.NoError(t, err)
	require.Contains(t, got.SharedWith, bob)
	require.Equal(t, []uint64{bob, bob}, got.SharedWith)

	// No check that the target names a real user.
	_, err = svc.Share(ctx, n.ID, alice, 424242)
	require.NoError(t, err)

	stored, err := store.GetByID(ctx, n.ID)
	require.NoError(t, err)
	require.Equal(t, []uint64{bob, bob, 424242}, stored.SharedWith)
}

// Concurrent updates race last-write-wins.  The test characterizes the
// accepted risk: both calls succeed and the final content equals one of the
// two inputs, with no corruption or merge.
func TestUpdate_ConcurrentLastWriteWins(t *testing.T) {
	svc, store, _ := newService()
	ctx := context.Background()

	n, err := svc.Create(ctx, alice, "T", "C")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, content := range []string{"writer-one", "writer-two"} {
		wg.Add(1)
		go func(content string) {
			defer wg.Done()
			_, err := svc.Update(ctx, n.ID, alice, NotePatch{Content: content})
			errs <- err
		}(content)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	final, err := store.GetByID(ctx, n.ID)
	require.NoError(t, err)
	require.Contains(t, []string{"writer-one", "writer-two"}, final.Content)
}

func TestGet_ViewAuthorization(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	n, err := svc.Create(ctx, alice, "T", "C")
	require.NoError(t, err)

	_, err = svc.Get(ctx, n.ID, bob)
	require.ErrorIs(t, err, policy.ErrForbidden)

	_, err = svc.Share(ctx, n.ID, alice, bob)
	require.NoError(t, err)
	got, err := svc.Get(ctx, n.ID, bob)
	require.NoError(t, err)
	require.Equal(t, n.ID, got.ID)

	_, err = svc.Get(ctx, 999, alice)
	require.True(t, errors.Is(err, repository.ErrNoteNotFound))
}
