package signaling

import "log/slog"

// Handler routes incoming signaling messages to typed channels.
type Handler struct {
	client      *Client
	RoomCreated chan string
	RoomJoined  chan string
	PeerJoined  chan string
	PeerLeft    chan struct{}
	Signal      chan *Message
	Error       chan *ServerError

	// Done is closed after the connection ends and every channel above
	// has been closed.
	Done chan struct{}
}

// NewHandler creates a new message handler.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:      client,
		RoomCreated: make(chan string, 1),
		RoomJoined:  make(chan string, 1),
		PeerJoined:  make(chan string, 1),
		PeerLeft:    make(chan struct{}, 1),
		Signal:      make(chan *Message, 64),
		Error:       make(chan *ServerError, 4),
		Done:        make(chan struct{}),
	}
}

// Start routes messages until the connection closes. Run it in its own
// goroutine; it closes every channel on return.
func (h *Handler) Start() {
	defer h.close()

	for msg := range h.client.Incoming() {
		switch msg.Type {
		case MessageTypeRoomCreated:
			push(h.RoomCreated, msg.Code, msg.Type)

		case MessageTypeRoomJoined:
			push(h.RoomJoined, msg.Code, msg.Type)

		case MessageTypePeerJoined:
			push(h.PeerJoined, msg.Code, msg.Type)

		case MessageTypePeerLeft:
			push(h.PeerLeft, struct{}{}, msg.Type)

		case MessageTypeOffer, MessageTypeAnswer:
			if msg.SDP == nil {
				slog.Warn("signal without session description", "type", msg.Type)
				continue
			}
			push(h.Signal, msg, msg.Type)

		case MessageTypeICECandidate:
			if msg.Candidate == nil {
				slog.Warn("signal without candidate")
				continue
			}
			push(h.Signal, msg, msg.Type)

		case MessageTypeError:
			push(h.Error, &ServerError{Reason: msg.Reason, Message: msg.Error}, msg.Type)

		default:
			slog.Debug("ignoring signaling message", "type", msg.Type)
		}
	}
}

// push hands v to ch without blocking. Once nobody reads the handler's
// channels, extra messages are dropped instead of stalling the read loop.
func push[T any](ch chan T, v T, typ string) {
	select {
	case ch <- v:
	default:
		slog.Warn("dropping signaling message, channel full", "type", typ)
	}
}

func (h *Handler) close() {
	close(h.RoomCreated)
	close(h.RoomJoined)
	close(h.PeerJoined)
	close(h.PeerLeft)
	close(h.Signal)
	close(h.Error)
	close(h.Done)
}
