package transfer

import (
	"math"
	"testing"

	pion "github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiveBufferSize(t *testing.T) {
	tests := []struct {
		name  string
		limit int64
		want  uint32
	}{
		{"default file limit", 16 << 20, 17 << 20},
		{"small limit", 1, 1<<20 + 1},
		{"negative", -5 << 20, 1 << 20},
		{"beyond uint32", 1 << 40, math.MaxUint32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, receiveBufferSize(tt.limit))
		})
	}
}

func TestNewPeerWithMaxMessageSize(t *testing.T) {
	p, err := NewPeer(RoleInitiator, PeerOptions{MaxMessageSize: 16 << 20})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	p.mu.Lock()
	dc := p.dc
	p.mu.Unlock()
	require.NotNil(t, dc)
	assert.Equal(t, DataChannelLabel, dc.Label())
}

func TestOnMessageBeforeAndAfterChannel(t *testing.T) {
	p, err := NewPeer(RoleResponder, PeerOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	var calls int
	p.OnMessage(func(pion.DataChannelMessage) { calls++ })

	p.mu.Lock()
	assert.Nil(t, p.dc, "responder has no channel until the initiator opens one")
	assert.NotNil(t, p.onMessage, "kept for the channel that shows up later")
	p.mu.Unlock()

	// The initiator's channel exists already and takes the handler at once.
	opener, err := NewPeer(RoleInitiator, PeerOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = opener.Close() })

	opener.OnMessage(func(pion.DataChannelMessage) { calls++ })
	opener.mu.Lock()
	assert.NotNil(t, opener.dc)
	assert.NotNil(t, opener.onMessage)
	opener.mu.Unlock()
	assert.Zero(t, calls)
}
