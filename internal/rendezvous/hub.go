package rendezvous

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

// Hub is the relay engine. A single goroutine (Run) handles every
// register, unregister and inbound message, so a client's frames are
// processed in the order it sent them.
type Hub struct {
	// Registry holds the room table shared with the HTTP layer.
	Registry *Registry

	// register is a channel for registering new clients.
	register chan *Client

	// unregister is a channel for clients whose socket closed.
	unregister chan *Client

	// inbound carries every decoded frame from every client.
	inbound chan *Message

	// done is closed when Run returns.
	done chan struct{}

	idleTTL time.Duration
	clients atomic.Int64
}

// NewHub creates a hub routing through registry. A positive idleTTL
// enables expiry of rooms that never got a second member.
func NewHub(registry *Registry, idleTTL time.Duration) *Hub {
	return &Hub{
		Registry:   registry,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan *Message),
		done:       make(chan struct{}),
		idleTTL:    idleTTL,
	}
}

// Register hands a freshly connected client to the hub. It reports false
// if the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	return int(h.clients.Load())
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// disconnect tells the hub that c's socket has closed.
func (h *Hub) disconnect(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) submit(m *Message) bool {
	select {
	case h.inbound <- m:
		return true
	case <-h.done:
		return false
	}
}

// Run starts the hub's main processing loop and blocks until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	var sweep <-chan time.Time
	if h.idleTTL > 0 {
		ticker := time.NewTicker(sweepInterval(h.idleTTL))
		defer ticker.Stop()
		sweep = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients.Add(1)
			client.logger().Info("client registered")

		case client := <-h.unregister:
			h.clients.Add(-1)
			client.logger().Info("client unregistered")
			h.release(client)

			// Close the client's send channel to stop its WritePump
			close(client.Send)

		case message := <-h.inbound:
			h.handle(message)

		case now := <-sweep:
			h.expire(now)
		}
	}
}

func (h *Hub) handle(m *Message) {
	c := m.client
	if m.invalid {
		h.reject(c, ErrBadRequest)
		return
	}

	switch m.Type {
	case TypeCreate:
		h.create(c)
	case TypeJoin:
		h.join(c, m.Code)
	case TypeLeave:
		h.release(c)
	default:
		h.route(c, m)
	}
}

func (h *Hub) create(c *Client) {
	code, err := h.Registry.Create(c)
	if err != nil {
		h.refuse(c, "create failed", err)
		return
	}

	c.logger().Info("room created", "code", code)
	h.deliver(c, &Message{Type: TypeRoomCreated, Code: code})
}

func (h *Hub) join(c *Client, code string) {
	// Malformed codes never reach the registry.
	if !ValidCode(code) {
		c.logger().Warn("join failed", "code", code, "reason", ReasonInvalidCode)
		h.reject(c, ErrInvalidCode)
		return
	}

	peer, err := h.Registry.Join(code, c)
	if err != nil {
		h.refuse(c, "join failed", err, "code", code)
		return
	}

	c.logger().Info("room matched", "code", code, "peer", peer.ID)
	h.deliver(c, &Message{Type: TypeRoomJoined, Code: code})
	h.deliver(peer, &Message{Type: TypePeerJoined, Code: code})
	h.deliver(c, &Message{Type: TypePeerJoined, Code: code})
}

// route relays m verbatim to the other member of the sender's room.
func (h *Hub) route(from *Client, m *Message) {
	peer, ok := h.Registry.Peer(from)
	if !ok {
		from.logger().Debug("relay refused", "type", m.Type)
		h.reject(from, ErrNotInRoom)
		return
	}
	if h.deliver(peer, m) {
		from.logger().Debug("relayed", "type", m.Type, "peer", peer.ID)
	}
}

// release removes c from its room and tells the surviving member.
func (h *Hub) release(c *Client) {
	peer, code, ok := h.Registry.Remove(c)
	if !ok {
		return
	}

	c.logger().Info("room released", "code", code)
	if peer != nil {
		h.deliver(peer, &Message{Type: TypePeerLeft, Code: code})
	}
}

func (h *Hub) expire(now time.Time) {
	expired := h.Registry.ExpireOpen(now.Add(-h.idleTTL))
	if len(expired) > 0 {
		slog.Info("room sweep", "expired", len(expired), "live", h.Registry.Len())
	}
	for _, room := range expired {
		slog.Info("room expired", "code", room.Code)
		for _, m := range room.Members {
			msg := errorMessage(ErrRoomExpired)
			msg.Code = room.Code
			h.deliver(m, msg)
		}
	}
}

// refuse logs a failed create or join and reports it to c. A client that
// is already in a room is logged with that room's code.
func (h *Hub) refuse(c *Client, msg string, err error, attrs ...any) {
	attrs = append(attrs, "reason", Reason(err))
	if errors.Is(err, ErrAlreadyInRoom) {
		if current, ok := h.Registry.CodeOf(c); ok {
			attrs = append(attrs, "current", current)
		}
	}
	c.logger().Warn(msg, attrs...)
	h.reject(c, err)
}

func (h *Hub) reject(c *Client, err error) {
	h.deliver(c, errorMessage(err))
}

// deliver queues m for c without blocking the hub. A full queue drops the
// message; the hub never retries.
func (h *Hub) deliver(c *Client, m *Message) bool {
	select {
	case c.Send <- m:
		return true
	default:
		c.logger().Warn("outbound buffer full, dropping message", "type", m.Type)
		return false
	}
}

func sweepInterval(ttl time.Duration) time.Duration {
	if iv := ttl / 4; iv > time.Second {
		return iv
	}
	return time.Second
}
