package rendezvous

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024 // 64 KB - enough for SDP payloads

	// DefaultSendBuffer is the outbound queue length per client.
	DefaultSendBuffer = 256
)

// Client wraps a single signaling socket. It is the connection handle
// stored in room membership.
type Client struct {
	// ID identifies the connection in logs.
	ID string

	// Addr is the remote address of the socket.
	Addr string

	// Hub is the hub that routes this client's messages.
	Hub *Hub

	// Conn is the websocket connection.
	Conn *websocket.Conn

	// Send is a buffered channel of outbound messages drained by WritePump.
	// Only the hub writes to it and only the hub closes it.
	Send chan *Message
}

// NewClient wraps conn for hub.
func NewClient(hub *Hub, conn *websocket.Conn, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	c := &Client{
		ID:   uuid.NewString(),
		Hub:  hub,
		Conn: conn,
		Send: make(chan *Message, sendBuffer),
	}
	if conn != nil {
		c.Addr = conn.RemoteAddr().String()
	}
	return c
}

func (c *Client) logger() *slog.Logger {
	return slog.With("client", c.ID, "addr", c.Addr)
}

// ReadPump pumps frames from the websocket connection to the hub.
//
// The application runs ReadPump in a per-connection goroutine. The
// application ensures that there is at most one reader on a connection by
// executing all reads from this goroutine. Frames are handed to the hub in
// the order they were read, which keeps relaying FIFO per direction.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.disconnect(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger().Warn("read failed", "err", err)
			}
			return
		}

		msg, err := parseMessage(data)
		if err != nil {
			c.logger().Debug("malformed frame", "err", err)
			msg = &Message{invalid: true}
		}
		msg.client = c

		if !c.Hub.submit(msg) {
			return
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
//
// A goroutine running WritePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := message.Bytes()
			if err != nil {
				c.logger().Error("encode failed", "type", message.Type, "err", err)
				continue
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger().Debug("write failed", "err", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
