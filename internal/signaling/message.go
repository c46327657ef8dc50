package signaling

import (
	pion "github.com/pion/webrtc/v4"
)

// Message represents every envelope exchanged with the signaling service.
type Message struct {
	Type      string                   `json:"type"`
	Code      string                   `json:"code,omitempty"`
	SDP       *pion.SessionDescription `json:"sdp,omitempty"`
	Candidate *pion.ICECandidateInit   `json:"candidate,omitempty"`
	Reason    string                   `json:"reason,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

// Message type constants.
const (
	MessageTypeCreate = "create"
	MessageTypeJoin   = "join"
	MessageTypeLeave  = "leave"

	MessageTypeOffer        = "offer"
	MessageTypeAnswer       = "answer"
	MessageTypeICECandidate = "iceCandidate"

	MessageTypeRoomCreated = "room-created"
	MessageTypeRoomJoined  = "room-joined"
	MessageTypePeerJoined  = "peer-joined"
	MessageTypePeerLeft    = "peer-left"
	MessageTypeError       = "error"
)

// Error reasons sent by the service.
const (
	ReasonInvalidCode       = "invalid-code"
	ReasonRoomFull          = "room-full"
	ReasonAlreadyInRoom     = "already-in-room"
	ReasonCapacityExhausted = "capacity-exhausted"
	ReasonNotInRoom         = "not-in-room"
	ReasonRoomExpired       = "room-expired"
	ReasonBadRequest        = "bad-request"
)

// ServerError is an "error" envelope surfaced as a Go error.
type ServerError struct {
	Reason  string
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return e.Reason
	}
	return e.Message
}

// Create asks the service for a new room.
func Create() *Message {
	return &Message{Type: MessageTypeCreate}
}

// Join asks the service to join room code.
func Join(code string) *Message {
	return &Message{Type: MessageTypeJoin, Code: code}
}

// Leave releases the current room without closing the socket.
func Leave() *Message {
	return &Message{Type: MessageTypeLeave}
}

// Offer wraps a local offer for relay.
func Offer(desc pion.SessionDescription) *Message {
	return &Message{Type: MessageTypeOffer, SDP: &desc}
}

// Answer wraps a local answer for relay.
func Answer(desc pion.SessionDescription) *Message {
	return &Message{Type: MessageTypeAnswer, SDP: &desc}
}

// ICECandidate wraps a local candidate for relay.
func ICECandidate(c pion.ICECandidateInit) *Message {
	return &Message{Type: MessageTypeICECandidate, Candidate: &c}
}
