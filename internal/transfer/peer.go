package transfer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/pion/logging"
	"github.com/pion/transport/v3"
	pion "github.com/pion/webrtc/v4"
)

// DataChannelLabel names the single channel both peers talk over.
const DataChannelLabel = "gofast"

// PeerOptions configures a Peer.
type PeerOptions struct {
	// STUNServers are used for address discovery; empty disables it.
	STUNServers []string

	// LoggerFactory receives pion's internal logs.
	LoggerFactory logging.LoggerFactory

	// Net replaces the host network, e.g. with a virtual one.
	Net transport.Net

	// MaxMessageSize is the largest single data channel message the peer
	// must be able to receive. Zero keeps pion's receive buffer.
	MaxMessageSize int64
}

// receiveHeadroom covers frame overhead on top of the largest payload.
const receiveHeadroom = 1 << 20

// receiveBufferSize sizes the SCTP receive buffer so a whole message of
// limit bytes can be reassembled.
func receiveBufferSize(limit int64) uint32 {
	size := limit + receiveHeadroom
	if size < receiveHeadroom {
		return receiveHeadroom
	}
	if size > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(size)
}

// Peer is the pion-backed Transport. The initiator opens the data channel;
// the responder receives it.
type Peer struct {
	pc      *pion.PeerConnection
	role    Role
	channel chan *pion.DataChannel

	mu        sync.Mutex
	dc        *pion.DataChannel
	onMessage func(pion.DataChannelMessage)
}

// NewAPI builds a pion API with our setting engine.
func NewAPI(opts PeerOptions) (*pion.API, error) {
	se := pion.SettingEngine{}
	if opts.LoggerFactory != nil {
		se.LoggerFactory = opts.LoggerFactory
	}
	if opts.Net != nil {
		se.SetNet(opts.Net)
	}
	if opts.MaxMessageSize > 0 {
		se.SetSCTPMaxReceiveBufferSize(receiveBufferSize(opts.MaxMessageSize))
	}

	mediaEngine := &pion.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return nil, NewError("register codecs", err)
	}

	return pion.NewAPI(
		pion.WithSettingEngine(se),
		pion.WithMediaEngine(mediaEngine),
	), nil
}

// NewPeer creates a peer connection for role.
func NewPeer(role Role, opts PeerOptions) (*Peer, error) {
	api, err := NewAPI(opts)
	if err != nil {
		return nil, err
	}

	var iceServers []pion.ICEServer
	if len(opts.STUNServers) > 0 {
		iceServers = []pion.ICEServer{{URLs: opts.STUNServers}}
	}

	pc, err := api.NewPeerConnection(pion.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, NewError("create peer connection", err)
	}

	p := &Peer{
		pc:      pc,
		role:    role,
		channel: make(chan *pion.DataChannel, 1),
	}

	if role == RoleInitiator {
		ordered := true
		dc, err := pc.CreateDataChannel(DataChannelLabel, &pion.DataChannelInit{Ordered: &ordered})
		if err != nil {
			pc.Close()
			return nil, NewError("create data channel", err)
		}
		p.adopt(dc)
		p.channel <- dc
	} else {
		// pion starts reading only after this callback returns.
		pc.OnDataChannel(func(dc *pion.DataChannel) {
			if dc.Label() != DataChannelLabel {
				return
			}
			p.adopt(dc)
			select {
			case p.channel <- dc:
			default:
			}
		})
	}

	return p, nil
}

// OnMessage sets the data channel's message handler. It may be called
// before the channel exists; the handler is installed as soon as it does,
// so no frame arriving right after open is lost.
func (p *Peer) OnMessage(f func(pion.DataChannelMessage)) {
	p.mu.Lock()
	p.onMessage = f
	dc := p.dc
	p.mu.Unlock()

	if dc != nil {
		dc.OnMessage(f)
	}
}

func (p *Peer) adopt(dc *pion.DataChannel) {
	p.mu.Lock()
	p.dc = dc
	f := p.onMessage
	p.mu.Unlock()

	if f != nil {
		dc.OnMessage(f)
	}
}

// Bind routes the connection's callbacks into s.
func (p *Peer) Bind(s *Session) {
	p.pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			s.Post(Event{Kind: EventGatheringComplete})
			return
		}
		s.Post(Event{Kind: EventLocalCandidate, Candidate: c.ToJSON()})
	})

	p.pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		if state == pion.PeerConnectionStateFailed {
			s.Post(Event{Kind: EventTransportFailed, Err: fmt.Errorf("peer connection %s", state)})
		}
	})

	go func() {
		dc, err := p.Channel(context.Background(), s.Done())
		if err != nil {
			return
		}
		opened := func() { s.Post(Event{Kind: EventTransportOpen}) }
		dc.OnOpen(opened)
		if dc.ReadyState() == pion.DataChannelStateOpen {
			opened()
		}
	}()
}

// Channel waits for the data channel. The initiator has it immediately.
func (p *Peer) Channel(ctx context.Context, done <-chan struct{}) (*pion.DataChannel, error) {
	select {
	case dc := <-p.channel:
		// Put it back for later callers.
		p.channel <- dc
		return dc, nil
	case <-done:
		return nil, ErrSessionClosed
	case <-ctx.Done():
		return nil, WrapError("wait channel", ErrTimeout, ctx.Err().Error())
	}
}

func (p *Peer) CreateOffer() (pion.SessionDescription, error) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		return pion.SessionDescription{}, err
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		return pion.SessionDescription{}, err
	}
	return offer, nil
}

func (p *Peer) CreateAnswer() (pion.SessionDescription, error) {
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return pion.SessionDescription{}, err
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return pion.SessionDescription{}, err
	}
	return answer, nil
}

func (p *Peer) SetRemoteDescription(desc pion.SessionDescription) error {
	return p.pc.SetRemoteDescription(desc)
}

func (p *Peer) AddICECandidate(c pion.ICECandidateInit) error {
	err := p.pc.AddICECandidate(c)
	if err != nil && (errors.Is(err, pion.ErrNoRemoteDescription) ||
		strings.Contains(err.Error(), pion.ErrNoRemoteDescription.Error())) {
		return fmt.Errorf("%w: %w", ErrNoRemoteDescription, err)
	}
	return err
}

func (p *Peer) Close() error {
	return p.pc.Close()
}

// WaitOpen waits until the data channel is open. It polls because the
// channel's open handler already belongs to the session.
func (p *Peer) WaitOpen(ctx context.Context, done <-chan struct{}) (*pion.DataChannel, error) {
	dc, err := p.Channel(ctx, done)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for dc.ReadyState() != pion.DataChannelStateOpen {
		select {
		case <-done:
			return nil, ErrSessionClosed
		case <-ctx.Done():
			return nil, WrapError("wait channel", ErrTimeout, "channel not open")
		case <-ticker.C:
		}
	}
	return dc, nil
}
