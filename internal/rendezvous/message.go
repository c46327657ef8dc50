package rendezvous

import "encoding/json"

// Envelope types understood by the service. Anything else is relayed
// verbatim between matched members.
const (
	TypeCreate = "create"
	TypeJoin   = "join"
	TypeLeave  = "leave"

	TypeRoomCreated = "room-created"
	TypeRoomJoined  = "room-joined"
	TypePeerJoined  = "peer-joined"
	TypePeerLeft    = "peer-left"
	TypeError       = "error"
)

// Message is a signaling envelope. Only the routing fields are decoded;
// relayed envelopes keep their original bytes in raw.
type Message struct {
	Type   string `json:"type"`
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`

	// raw is the frame exactly as received from the sender.
	raw []byte

	// client is the client that sent the message.
	client *Client

	// invalid marks a frame that could not be decoded.
	invalid bool
}

// parseMessage decodes the routing fields of a frame and keeps the frame.
func parseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, ErrBadRequest
	}
	msg.raw = data
	return &msg, nil
}

// Bytes returns the wire form of the message.
func (m *Message) Bytes() ([]byte, error) {
	if m.raw != nil {
		return m.raw, nil
	}
	return json.Marshal(m)
}

func errorMessage(err error) *Message {
	return &Message{
		Type:   TypeError,
		Reason: Reason(err),
		Error:  err.Error(),
	}
}
