package transfer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	pion "github.com/pion/webrtc/v4"

	"github.com/gofast/gofast/internal/signaling"
)

const eventBuffer = 128

// Transport is the real-time peer connection a session negotiates.
type Transport interface {
	// CreateOffer creates an offer and installs it as the local description.
	CreateOffer() (pion.SessionDescription, error)
	// CreateAnswer creates an answer and installs it as the local description.
	CreateAnswer() (pion.SessionDescription, error)
	SetRemoteDescription(desc pion.SessionDescription) error
	// AddICECandidate returns ErrNoRemoteDescription when called too early.
	AddICECandidate(c pion.ICECandidateInit) error
	Close() error
}

// Relay carries envelopes to the signaling service.
type Relay interface {
	SendMessage(msg *signaling.Message) error
}

// Session is the negotiation state machine for one peer. Dispatch is the
// only place state changes; Run feeds it from the event queue.
type Session struct {
	role      Role
	transport Transport
	relay     Relay

	// OnStateChange is called from the dispatching goroutine after every
	// transition.
	OnStateChange func(from, to State)

	// OnRoom is called with the room code once the service assigns it.
	OnRoom func(code string)

	mu    sync.Mutex
	state State
	code  string
	err   error

	remoteSet     bool
	pendingLocal  []pion.ICECandidateInit
	pendingRemote []pion.ICECandidateInit

	events    chan Event
	done      chan struct{}
	connected chan struct{}
}

// NewSession creates an idle session.
func NewSession(role Role, transport Transport, relay Relay) *Session {
	return &Session{
		role:      role,
		transport: transport,
		relay:     relay,
		events:    make(chan Event, eventBuffer),
		done:      make(chan struct{}),
		connected: make(chan struct{}),
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Code returns the room code, if known.
func (s *Session) Code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// Err returns why the session closed, or nil for a local teardown.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed once the session reaches StateClosed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Connected is closed the first time the session reaches StateConnected.
func (s *Session) Connected() <-chan struct{} {
	return s.connected
}

// Post queues an event for Run. It blocks only while the queue is full and
// returns false once the session has closed.
func (s *Session) Post(ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// Run dispatches queued events until the session closes or ctx ends.
func (s *Session) Run(ctx context.Context) {
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			s.Dispatch(Event{Kind: EventClose})
			return
		case ev := <-s.events:
			s.Dispatch(ev)
		}
	}
}

// Dispatch applies one event. It must not be called concurrently; Run
// serialises calls.
func (s *Session) Dispatch(ev Event) {
	state := s.State()
	if state == StateClosed {
		return
	}

	slog.Debug("session event", "role", s.role, "state", state, "event", ev.Kind)

	switch ev.Kind {
	case EventStart:
		s.start(state, ev.Code)

	case EventRoomAssigned:
		s.mu.Lock()
		s.code = ev.Code
		s.mu.Unlock()
		if s.OnRoom != nil {
			s.OnRoom(ev.Code)
		}

	case EventPeerJoined:
		if s.role == RoleInitiator && state == StateAwaitingMatch {
			s.offer()
		}

	case EventOffer:
		if s.role != RoleResponder || state != StateAwaitingMatch {
			s.fail(negotiationError("offer", errors.New("unexpected offer in state "+state.String())))
			return
		}
		s.answer(ev.SDP)

	case EventAnswer:
		if s.role != RoleInitiator || (state != StateOfferSent && state != StateAwaitingAnswer) {
			s.fail(negotiationError("answer", errors.New("unexpected answer in state "+state.String())))
			return
		}
		if err := s.applyRemote(ev.SDP); err != nil {
			s.fail(err)
			return
		}
		s.flushLocal()
		s.setState(StateConnected)

	case EventRemoteCandidate:
		if err := s.addRemote(ev.Candidate); err != nil {
			s.fail(err)
		}

	case EventLocalCandidate:
		if !s.remoteSet {
			s.pendingLocal = append(s.pendingLocal, ev.Candidate)
			return
		}
		s.sendCandidate(ev.Candidate)

	case EventGatheringComplete:
		if state == StateOfferSent {
			s.setState(StateAwaitingAnswer)
		}

	case EventTransportOpen:
		if !s.remoteSet {
			return
		}
		if err := s.applyPending(); err != nil {
			s.fail(err)
			return
		}
		s.setState(StateConnected)

	case EventTransportFailed:
		s.fail(WrapError("transport", ErrTransport, errString(ev.Err)))

	case EventPeerLeft:
		s.fail(ErrPeerDisconnected)

	case EventServerError:
		s.fail(WrapError("signaling", ErrSignalingError, errString(ev.Err)))

	case EventSignalingLost:
		// A connected session no longer needs the relay.
		if state == StateConnected {
			slog.Debug("signaling lost after connect", "role", s.role)
			return
		}
		s.fail(WrapError("signaling", ErrTransport, errString(ev.Err)))

	case EventClose:
		s.close(nil)
	}
}

func (s *Session) start(state State, code string) {
	if state != StateIdle {
		return
	}

	msg := signaling.Create()
	if s.role == RoleResponder {
		msg = signaling.Join(code)
		s.mu.Lock()
		s.code = code
		s.mu.Unlock()
	}

	if err := s.relay.SendMessage(msg); err != nil {
		s.fail(NewError("start", err))
		return
	}
	s.setState(StateAwaitingMatch)
}

func (s *Session) offer() {
	offer, err := s.transport.CreateOffer()
	if err != nil {
		s.fail(negotiationError("create offer", err))
		return
	}
	if err := s.relay.SendMessage(signaling.Offer(offer)); err != nil {
		s.fail(NewError("send offer", err))
		return
	}
	s.setState(StateOfferSent)
}

func (s *Session) answer(offer pion.SessionDescription) {
	if err := s.applyRemote(offer); err != nil {
		s.fail(err)
		return
	}

	answer, err := s.transport.CreateAnswer()
	if err != nil {
		s.fail(negotiationError("create answer", err))
		return
	}
	if err := s.relay.SendMessage(signaling.Answer(answer)); err != nil {
		s.fail(NewError("send answer", err))
		return
	}

	s.flushLocal()
	s.setState(StateAnswerSent)
}

// applyRemote installs the remote description and then applies every
// remote candidate that arrived before it, in arrival order.
func (s *Session) applyRemote(desc pion.SessionDescription) error {
	if err := s.transport.SetRemoteDescription(desc); err != nil {
		return negotiationError("set remote description", err)
	}
	s.remoteSet = true
	return s.applyPending()
}

// addRemote queues c behind any candidates still waiting and applies the
// queue if the remote description is known.
func (s *Session) addRemote(c pion.ICECandidateInit) error {
	s.pendingRemote = append(s.pendingRemote, c)
	if !s.remoteSet {
		return nil
	}
	return s.applyPending()
}

// applyPending applies queued remote candidates in order. A transport that
// still reports no remote description keeps the rest queued for the next
// attempt.
func (s *Session) applyPending() error {
	for len(s.pendingRemote) > 0 {
		err := s.transport.AddICECandidate(s.pendingRemote[0])
		switch {
		case err == nil:
			s.pendingRemote = s.pendingRemote[1:]
		case errors.Is(err, ErrNoRemoteDescription):
			return nil
		default:
			return negotiationError("add candidate", err)
		}
	}
	s.pendingRemote = nil
	return nil
}

func (s *Session) flushLocal() {
	queued := s.pendingLocal
	s.pendingLocal = nil
	for _, c := range queued {
		s.sendCandidate(c)
	}
}

func (s *Session) sendCandidate(c pion.ICECandidateInit) {
	if err := s.relay.SendMessage(signaling.ICECandidate(c)); err != nil {
		slog.Warn("failed to relay candidate", "err", err)
	}
}

func (s *Session) setState(to State) {
	s.mu.Lock()
	from := s.state
	if from == to || from == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = to
	s.mu.Unlock()

	slog.Debug("session state", "role", s.role, "from", from, "to", to)
	if to == StateConnected {
		close(s.connected)
	}
	if s.OnStateChange != nil {
		s.OnStateChange(from, to)
	}
}

func (s *Session) fail(err error) {
	slog.Warn("session failed", "role", s.role, "err", err)
	s.close(err)
}

func (s *Session) close(err error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.err = err
	s.mu.Unlock()

	if cerr := s.transport.Close(); cerr != nil {
		slog.Debug("transport close", "err", cerr)
	}
	s.setState(StateClosed)
	close(s.done)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
