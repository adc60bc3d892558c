package realtime

import "sync"

const defaultSendQueueSize = 64

// Client represents one connected websocket session.  The send queue is
// bounded; a slow consumer drops events instead of blocking broadcasters.
// The channel is never closed by the server so concurrent broadcasts stay
// panic-free; shutdown is signalled through done instead.
type Client struct {
	ID   string
	Send chan Envelope

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a Client with a bounded send queue.
func NewClient(id string, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = defaultSendQueueSize
	}
	return &Client{
		ID:   id,
		Send: make(chan Envelope, queueSize),
		done: make(chan struct{}),
	}
}

// Done returns a channel closed when the client is shutting down.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close signals the client goroutines to stop (idempotent).  It does NOT
// close Send.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// trySend enqueues an envelope without blocking.  When the queue is full or
// the client is closing the event is dropped, which is the documented
// at-most-once delivery contract.
func (c *Client) trySend(env Envelope) {
	select {
	case <-c.done:
	case c.Send <- env:
	default:
	}
}
