package transfer

import (
	"context"

	"github.com/gofast/gofast/internal/signaling"
)

// Forward turns signaling messages into session events until the handler
// stops, the session closes or ctx ends. When the handler stops, whatever
// it had buffered is delivered first and then EventSignalingLost.
func Forward(ctx context.Context, h *signaling.Handler, s *Session) {
	for {
		var ev Event
		var ok bool

		select {
		case <-ctx.Done():
			return
		case <-s.Done():
			return

		case ev.Code, ok = <-h.RoomCreated:
			ev.Kind = EventRoomAssigned
		case ev.Code, ok = <-h.RoomJoined:
			ev.Kind = EventRoomAssigned
		case ev.Code, ok = <-h.PeerJoined:
			ev.Kind = EventPeerJoined
		case _, ok = <-h.PeerLeft:
			ev.Kind = EventPeerLeft

		case serr, open := <-h.Error:
			ok = open
			ev = Event{Kind: EventServerError, Err: serr}

		case msg, open := <-h.Signal:
			ok = open
			if open {
				ev = signalEvent(msg)
			}
		}

		if !ok {
			flush(ctx, h, s)
			return
		}
		if !s.Post(ev) {
			return
		}
	}
}

// flush drains the stopped handler in protocol order and then reports the
// lost connection.
func flush(ctx context.Context, h *signaling.Handler, s *Session) {
	select {
	case <-h.Done:
	case <-ctx.Done():
		return
	}

	var events []Event
	for code := range h.RoomCreated {
		events = append(events, Event{Kind: EventRoomAssigned, Code: code})
	}
	for code := range h.RoomJoined {
		events = append(events, Event{Kind: EventRoomAssigned, Code: code})
	}
	for code := range h.PeerJoined {
		events = append(events, Event{Kind: EventPeerJoined, Code: code})
	}
	for msg := range h.Signal {
		events = append(events, signalEvent(msg))
	}
	for serr := range h.Error {
		events = append(events, Event{Kind: EventServerError, Err: serr})
	}
	for range h.PeerLeft {
		events = append(events, Event{Kind: EventPeerLeft})
	}
	events = append(events, Event{Kind: EventSignalingLost, Err: signaling.ErrClosed})

	for _, ev := range events {
		if !s.Post(ev) {
			return
		}
	}
}

func signalEvent(msg *signaling.Message) Event {
	switch msg.Type {
	case signaling.MessageTypeOffer:
		return Event{Kind: EventOffer, SDP: *msg.SDP}
	case signaling.MessageTypeAnswer:
		return Event{Kind: EventAnswer, SDP: *msg.SDP}
	default:
		return Event{Kind: EventRemoteCandidate, Candidate: *msg.Candidate}
	}
}
