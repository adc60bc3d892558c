// Package realtime is the publish/subscribe transport that pushes note
// lifecycle and editing-presence events to connected websocket clients.
//
// Delivery is fire-and-forget: at-most-once, unordered across clients, no
// acknowledgment and no replay.  A client that is disconnected during an
// event permanently misses it and recovers by re-fetching the note and user
// lists on reconnect.
package realtime

import (
	"encoding/json"
	"log"
	"sync"
)

// Event names understood by clients.  Lifecycle events originate on the
// server after a successful mutation; editingDetails originates on a client
// and is relayed to every other client.
const (
	EventNewNote     = "newNote"
	EventNoteUpdated = "noteUpdated"
	EventNoteDeleted = "noteDeleted"
	EventEditing     = "editingDetails"
)

// Envelope is the wire format for every hub message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// EditingDetails is the presence payload.  The empty value (both fields "")
// is the explicit clear signal broadcast on save or cancel.
type EditingDetails struct {
	NoteID   string `json:"noteId"`
	Username string `json:"username"`
}

// Hub is the single broadcast instance shared by the websocket endpoint and
// the note service.  It is constructed once at process start and passed by
// reference; there is no package-level singleton.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Register adds a connected client to the broadcast set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// Unregister removes a client.  Removal happens before Client.Close so that
// concurrent broadcasters never send on a closing client.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, id)
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast fans an event out to every connected client.  Marshal failures
// are logged and dropped; they never surface to the emitting request.
func (h *Hub) Broadcast(event string, data any) {
	h.send(event, data, "")
}

// BroadcastExcept fans an event out to every client except senderID.  Used
// for presence so a client never receives its own editing indicator.
func (h *Hub) BroadcastExcept(senderID string, event string, data any) {
	h.send(event, data, senderID)
}

func (h *Hub) send(event string, data any, skipID string) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("realtime: marshal %s event failed: %v", event, err)
		return
	}
	env := Envelope{Event: event, Data: raw}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		if id == skipID {
			continue
		}
		c.trySend(env)
	}
}
