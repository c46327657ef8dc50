package rendezvous

import "errors"

var (
	ErrInvalidCode       = errors.New("invalid room code")
	ErrRoomFull          = errors.New("room is full")
	ErrAlreadyInRoom     = errors.New("already in a room")
	ErrCapacityExhausted = errors.New("no room codes available")
	ErrNotInRoom         = errors.New("not in a matched room")
	ErrRoomExpired       = errors.New("room expired")
	ErrBadRequest        = errors.New("malformed message")
)

// Wire reasons carried by "error" envelopes.
const (
	ReasonInvalidCode       = "invalid-code"
	ReasonRoomFull          = "room-full"
	ReasonAlreadyInRoom     = "already-in-room"
	ReasonCapacityExhausted = "capacity-exhausted"
	ReasonNotInRoom         = "not-in-room"
	ReasonRoomExpired       = "room-expired"
	ReasonBadRequest        = "bad-request"
	ReasonInternal          = "internal"
)

// Reason maps an error to its wire reason.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCode):
		return ReasonInvalidCode
	case errors.Is(err, ErrRoomFull):
		return ReasonRoomFull
	case errors.Is(err, ErrAlreadyInRoom):
		return ReasonAlreadyInRoom
	case errors.Is(err, ErrCapacityExhausted):
		return ReasonCapacityExhausted
	case errors.Is(err, ErrNotInRoom):
		return ReasonNotInRoom
	case errors.Is(err, ErrRoomExpired):
		return ReasonRoomExpired
	case errors.Is(err, ErrBadRequest):
		return ReasonBadRequest
	default:
		return ReasonInternal
	}
}
