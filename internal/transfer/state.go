package transfer

import (
	pion "github.com/pion/webrtc/v4"
)

// State is the negotiation state of a session.
type State int

const (
	StateIdle State = iota
	StateAwaitingMatch
	StateOfferSent
	StateAwaitingAnswer
	StateAnswerSent
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingMatch:
		return "awaiting-match"
	case StateOfferSent:
		return "offer-sent"
	case StateAwaitingAnswer:
		return "awaiting-answer"
	case StateAnswerSent:
		return "answer-sent"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Role decides which side produces the offer.
type Role int

const (
	// RoleInitiator creates the room and offers once a peer joins.
	RoleInitiator Role = iota
	// RoleResponder joins a room and answers the offer.
	RoleResponder
)

func (r Role) String() string {
	if r == RoleInitiator {
		return "initiator"
	}
	return "responder"
}

// EventKind enumerates what can drive a session.
type EventKind int

const (
	EventStart EventKind = iota
	EventRoomAssigned
	EventPeerJoined
	EventOffer
	EventAnswer
	EventRemoteCandidate
	EventLocalCandidate
	EventGatheringComplete
	EventTransportOpen
	EventTransportFailed
	EventPeerLeft
	EventServerError
	EventSignalingLost
	EventClose
)

var eventNames = map[EventKind]string{
	EventStart:             "start",
	EventRoomAssigned:      "room-assigned",
	EventPeerJoined:        "peer-joined",
	EventOffer:             "offer",
	EventAnswer:            "answer",
	EventRemoteCandidate:   "remote-candidate",
	EventLocalCandidate:    "local-candidate",
	EventGatheringComplete: "gathering-complete",
	EventTransportOpen:     "transport-open",
	EventTransportFailed:   "transport-failed",
	EventPeerLeft:          "peer-left",
	EventServerError:       "server-error",
	EventSignalingLost:     "signaling-lost",
	EventClose:             "close",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is one input to Session.Dispatch. Only the fields relevant to
// Kind are set.
type Event struct {
	Kind      EventKind
	Code      string
	SDP       pion.SessionDescription
	Candidate pion.ICECandidateInit
	Err       error
}
