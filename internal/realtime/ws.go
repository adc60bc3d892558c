package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	wsWriteTimeout  = 5 * time.Second
	wsMaxFrameBytes = 32 * 1024
)

// Handler upgrades HTTP requests to websocket sessions and runs the
// per-connection read/write loops against the hub.
//
// The channel is opened independently of the REST bearer credential: the
// hub does not bind a session to an authenticated identity.  Known gap,
// kept to match current client behavior.
type Handler struct {
	hub            *Hub
	originPatterns []string
}

// NewHandler builds a websocket handler for the hub.  Allowed cross-origin
// hosts come from WS_ALLOWED_ORIGINS (comma-separated host patterns); the
// default admits only the local dev frontend.
func NewHandler(hub *Hub) *Handler {
	patterns := []string{"localhost:3000", "127.0.0.1:3000"}
	if env := os.Getenv("WS_ALLOWED_ORIGINS"); env != "" {
		patterns = patterns[:0]
		for _, p := range strings.Split(env, ",") {
			if p = strings.TrimSpace(p); p != "" {
				patterns = append(patterns, p)
			}
		}
	}
	return &Handler{hub: hub, originPatterns: patterns}
}

// HandleWS is the Echo route adapter for GET /ws.
func (h *Handler) HandleWS(c echo.Context) error {
	h.ServeHTTP(c.Response(), c.Request())
	return nil
}

// ServeHTTP accepts the upgrade and runs the session until the peer
// disconnects or a write fails.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		log.Printf("realtime: accept failed: %v", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	conn.SetReadLimit(wsMaxFrameBytes)

	client := NewClient(uuid.NewString(), defaultSendQueueSize)
	h.hub.Register(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// shutdown is idempotent; removal from the hub happens before Close so
	// broadcasters never race a closing session.
	shutdown := func(code websocket.StatusCode, reason string) {
		h.hub.Unregister(client.ID)
		client.Close()
		_ = conn.Close(code, reason)
		cancel()
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case <-client.Done():
				return
			case env := <-client.Send:
				if err := writeEnvelope(ctx, conn, env); err != nil {
					shutdown(websocket.StatusAbnormalClosure, "write failed")
					return
				}
			}
		}
	}()

	h.readLoop(ctx, conn, client)
	shutdown(websocket.StatusNormalClosure, "bye")
	<-writerDone
}

// readLoop relays inbound presence events to every other client.  Unknown
// events and undecodable frames are dropped; the realtime layer never
// reports errors back to the emitting client.
func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, client *Client) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		if env.Event == EventEditing {
			var details EditingDetails
			if err := json.Unmarshal(env.Data, &details); err != nil {
				continue
			}
			h.hub.BroadcastExcept(client.ID, EventEditing, details)
		}
	}
}

func writeEnvelope(ctx context.Context, conn *websocket.Conn, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, data)
}
