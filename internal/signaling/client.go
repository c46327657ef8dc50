package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gofast/gofast/internal/dns"
)

// Keepalive timings match the relay's.
const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
	readLimit    = 64 * 1024
	queueSize    = 32
)

// ErrClosed is returned when sending on a closed client.
var ErrClosed = errors.New("signaling connection closed")

// Client is one websocket session with the signaling service. Messages
// are queued to a writer goroutine and received through Incoming.
type Client struct {
	serverURL string
	conn      *websocket.Conn

	incoming chan *Message
	outgoing chan *Message

	// done is closed by Close; lost when the connection drops.
	done      chan struct{}
	lost      chan struct{}
	closeOnce sync.Once
}

func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		incoming:  make(chan *Message, queueSize),
		outgoing:  make(chan *Message, queueSize),
		done:      make(chan struct{}),
		lost:      make(chan struct{}),
	}
}

// Connect dials the service and starts the pumps.
func (c *Client) Connect(ctx context.Context) error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	dialer := *websocket.DefaultDialer
	dialer.NetDialContext = dialResolved

	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	conn.SetReadLimit(readLimit)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	c.conn = conn

	go c.readPump()
	go c.writePump()
	return nil
}

// dialResolved resolves the host with dns.Lookup, which falls back to
// public resolvers when the system one fails.
func dialResolved(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	ip, err := dns.Lookup(host)
	if err != nil {
		return nil, fmt.Errorf("dns lookup failed: %w", err)
	}

	var d net.Dialer
	return d.DialContext(ctx, network, net.JoinHostPort(ip, port))
}

func (c *Client) readPump() {
	defer func() {
		close(c.lost)
		c.conn.Close()
		close(c.incoming)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !c.closed() {
				slog.Debug("signaling read stopped", "err", err)
			}
			return
		}

		msg := new(Message)
		if err := json.Unmarshal(data, msg); err != nil {
			slog.Warn("ignoring malformed signaling frame", "err", err)
			continue
		}

		select {
		case c.incoming <- msg:
		case <-c.done:
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.outgoing:
			if err := c.write(msg); err != nil {
				slog.Debug("signaling write failed", "type", msg.Type, "err", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.lost:
			return

		case <-c.done:
			c.flush()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) write(msg *Message) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

// flush writes whatever was queued before Close, so a final leave is not
// lost.
func (c *Client) flush() {
	for {
		select {
		case msg := <-c.outgoing:
			if err := c.write(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// SendMessage queues msg. It fails once the client is closed or the
// connection has dropped.
func (c *Client) SendMessage(msg *Message) error {
	select {
	case <-c.done:
		return ErrClosed
	case <-c.lost:
		return ErrClosed
	default:
	}

	select {
	case c.outgoing <- msg:
		return nil
	case <-c.done:
		return ErrClosed
	case <-c.lost:
		return ErrClosed
	}
}

// Incoming delivers server messages. It is closed when the connection ends.
func (c *Client) Incoming() <-chan *Message {
	return c.incoming
}

// Close ends the session after flushing queued messages. It is safe to
// call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
