package rendezvous

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, alloc *Allocator, idleTTL time.Duration) *Hub {
	t.Helper()

	hub := NewHub(NewRegistry(alloc), idleTTL)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})
	return hub
}

func connect(t *testing.T, hub *Hub, id string) *Client {
	t.Helper()
	c := newTestClient(id)
	c.Hub = hub
	require.True(t, hub.Register(c))
	return c
}

func send(t *testing.T, c *Client, raw string) {
	t.Helper()
	msg, err := parseMessage([]byte(raw))
	require.NoError(t, err)
	msg.client = c
	require.True(t, c.Hub.submit(msg))
}

func expect(t *testing.T, c *Client, typ string) *Message {
	t.Helper()
	select {
	case m, ok := <-c.Send:
		require.True(t, ok, "send channel of %s closed", c.ID)
		require.Equal(t, typ, m.Type, "client %s", c.ID)
		return m
	case <-time.After(2 * time.Second):
		t.Fatalf("client %s: timed out waiting for %q", c.ID, typ)
		return nil
	}
}

func expectNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case m := <-c.Send:
		if m != nil {
			t.Fatalf("client %s: unexpected %q", c.ID, m.Type)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubCreateJoinRelayScenario(t *testing.T) {
	hub := startHub(t, NewAllocatorFromSource(sequence(382913), 4), 0)
	a := connect(t, hub, "a")
	b := connect(t, hub, "b")

	send(t, a, `{"type":"create"}`)
	created := expect(t, a, TypeRoomCreated)
	assert.Equal(t, "482913", created.Code)

	send(t, b, `{"type":"join","code":"482913"}`)
	joined := expect(t, b, TypeRoomJoined)
	assert.Equal(t, "482913", joined.Code)
	expect(t, a, TypePeerJoined)
	expect(t, b, TypePeerJoined)

	offer := `{"type":"offer","sdp":{"type":"offer","sdp":"v=0\r\no=- 1 2 IN IP4 127.0.0.1\r\n"},"extra":[1,2,3]}`
	send(t, a, offer)
	got := expect(t, b, "offer")
	raw, err := got.Bytes()
	require.NoError(t, err)
	assert.Equal(t, offer, string(raw))

	answer := `{"type":"answer","sdp":{"type":"answer","sdp":"v=0"}}`
	send(t, b, answer)
	got = expect(t, a, "answer")
	raw, _ = got.Bytes()
	assert.Equal(t, answer, string(raw))
}

func TestHubRelayPreservesOrder(t *testing.T) {
	hub := startHub(t, NewAllocator(DefaultMaxAttempts), 0)
	a := connect(t, hub, "a")
	b := connect(t, hub, "b")

	send(t, a, `{"type":"create"}`)
	code := expect(t, a, TypeRoomCreated).Code
	send(t, b, `{"type":"join","code":"`+code+`"}`)
	expect(t, b, TypeRoomJoined)
	expect(t, a, TypePeerJoined)
	expect(t, b, TypePeerJoined)

	frames := []string{
		`{"type":"iceCandidate","candidate":{"candidate":"c1"}}`,
		`{"type":"iceCandidate","candidate":{"candidate":"c2"}}`,
		`{"type":"custom","blob":"opaque"}`,
		`{"type":"iceCandidate","candidate":{"candidate":"c3"}}`,
	}
	for _, f := range frames {
		send(t, a, f)
	}
	for _, f := range frames {
		select {
		case m := <-b.Send:
			raw, _ := m.Bytes()
			assert.Equal(t, f, string(raw))
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for relayed frame")
		}
	}
}

func TestHubRefusesRelayBeforeMatch(t *testing.T) {
	hub := startHub(t, NewAllocator(DefaultMaxAttempts), 0)
	a := connect(t, hub, "a")
	lone := connect(t, hub, "lone")

	send(t, lone, `{"type":"offer","sdp":{}}`)
	assert.Equal(t, ReasonNotInRoom, expect(t, lone, TypeError).Reason)

	send(t, a, `{"type":"create"}`)
	expect(t, a, TypeRoomCreated)
	send(t, a, `{"type":"offer","sdp":{}}`)
	assert.Equal(t, ReasonNotInRoom, expect(t, a, TypeError).Reason)
}

func TestHubInvalidCodeAndRoomFull(t *testing.T) {
	hub := startHub(t, NewAllocatorFromSource(sequence(0), 4), 0)
	a := connect(t, hub, "a")
	b := connect(t, hub, "b")
	c := connect(t, hub, "c")

	send(t, a, `{"type":"create"}`)
	assert.Equal(t, "100000", expect(t, a, TypeRoomCreated).Code)

	send(t, c, `{"type":"join","code":"999999"}`)
	assert.Equal(t, ReasonInvalidCode, expect(t, c, TypeError).Reason)
	expectNothing(t, a)

	send(t, b, `{"type":"join","code":"100000"}`)
	expect(t, b, TypeRoomJoined)
	expect(t, a, TypePeerJoined)
	expect(t, b, TypePeerJoined)

	send(t, c, `{"type":"join","code":"100000"}`)
	assert.Equal(t, ReasonRoomFull, expect(t, c, TypeError).Reason)
	expectNothing(t, a)
	expectNothing(t, b)
}

func TestHubRejectsMalformedJoinCode(t *testing.T) {
	hub := startHub(t, NewAllocatorFromSource(sequence(0), 4), 0)
	a := connect(t, hub, "a")
	c := connect(t, hub, "c")

	send(t, a, `{"type":"create"}`)
	assert.Equal(t, "100000", expect(t, a, TypeRoomCreated).Code)

	for _, code := range []string{"", "10000", "1000000", "0100000", "10000a", " 100000"} {
		send(t, c, `{"type":"join","code":"`+code+`"}`)
		assert.Equal(t, ReasonInvalidCode, expect(t, c, TypeError).Reason, "code %q", code)
	}
	expectNothing(t, a)

	// The malformed joins left c free to join for real.
	send(t, c, `{"type":"join","code":"100000"}`)
	expect(t, c, TypeRoomJoined)
	assert.Equal(t, Stats{Matched: 1}, hub.Registry.Stats())
}

func TestHubAlreadyInRoom(t *testing.T) {
	hub := startHub(t, NewAllocator(DefaultMaxAttempts), 0)
	a := connect(t, hub, "a")

	send(t, a, `{"type":"create"}`)
	expect(t, a, TypeRoomCreated)

	send(t, a, `{"type":"create"}`)
	assert.Equal(t, ReasonAlreadyInRoom, expect(t, a, TypeError).Reason)
	assert.Equal(t, 1, hub.Registry.Len())
}

func TestHubMalformedFrame(t *testing.T) {
	hub := startHub(t, NewAllocator(DefaultMaxAttempts), 0)
	a := connect(t, hub, "a")

	require.True(t, hub.submit(&Message{client: a, invalid: true}))
	assert.Equal(t, ReasonBadRequest, expect(t, a, TypeError).Reason)
}

func TestHubDisconnectOpenRoom(t *testing.T) {
	hub := startHub(t, NewAllocator(DefaultMaxAttempts), 0)
	a := connect(t, hub, "a")

	send(t, a, `{"type":"create"}`)
	code := expect(t, a, TypeRoomCreated).Code

	hub.disconnect(a)
	_, ok := <-a.Send
	assert.False(t, ok, "send channel should be closed")

	_, ok = hub.Registry.Lookup(code)
	assert.False(t, ok)
}

func TestHubDisconnectMatchedNotifiesPeerOnce(t *testing.T) {
	hub := startHub(t, NewAllocator(DefaultMaxAttempts), 0)
	a := connect(t, hub, "a")
	b := connect(t, hub, "b")

	send(t, a, `{"type":"create"}`)
	code := expect(t, a, TypeRoomCreated).Code
	send(t, b, `{"type":"join","code":"`+code+`"}`)
	expect(t, b, TypeRoomJoined)
	expect(t, a, TypePeerJoined)
	expect(t, b, TypePeerJoined)

	hub.disconnect(b)
	left := expect(t, a, TypePeerLeft)
	assert.Equal(t, code, left.Code)
	expectNothing(t, a)

	_, ok := hub.Registry.Lookup(code)
	assert.False(t, ok)

	// A frame still in flight from the survivor has nowhere to go.
	send(t, a, `{"type":"iceCandidate","candidate":{}}`)
	assert.Equal(t, ReasonNotInRoom, expect(t, a, TypeError).Reason)
}

func TestHubLeaveBehavesLikeDisconnect(t *testing.T) {
	hub := startHub(t, NewAllocator(DefaultMaxAttempts), 0)
	a := connect(t, hub, "a")
	b := connect(t, hub, "b")

	send(t, a, `{"type":"create"}`)
	code := expect(t, a, TypeRoomCreated).Code
	send(t, b, `{"type":"join","code":"`+code+`"}`)
	expect(t, b, TypeRoomJoined)
	expect(t, a, TypePeerJoined)
	expect(t, b, TypePeerJoined)

	send(t, a, `{"type":"leave"}`)
	expect(t, b, TypePeerLeft)

	// a keeps its socket and can open a new room.
	send(t, a, `{"type":"create"}`)
	expect(t, a, TypeRoomCreated)
}

func TestHubDropsWhenPeerBufferFull(t *testing.T) {
	hub := startHub(t, NewAllocator(DefaultMaxAttempts), 0)
	a := connect(t, hub, "a")
	b := &Client{ID: "b", Hub: hub, Send: make(chan *Message, 3)}
	require.True(t, hub.Register(b))

	send(t, a, `{"type":"create"}`)
	code := expect(t, a, TypeRoomCreated).Code
	send(t, b, `{"type":"join","code":"`+code+`"}`)
	expect(t, a, TypePeerJoined)

	// b's queue holds room-joined and peer-joined; one slot is left.
	send(t, a, `{"type":"offer","n":1}`)
	send(t, a, `{"type":"offer","n":2}`)
	send(t, a, `{"type":"answer"}`)

	// The hub is sequential: once this is answered, the relays above are done.
	send(t, a, `{"type":"create"}`)
	expect(t, a, TypeError)

	expect(t, b, TypeRoomJoined)
	expect(t, b, TypePeerJoined)
	m := expect(t, b, "offer")
	raw, _ := m.Bytes()
	assert.JSONEq(t, `{"type":"offer","n":1}`, string(raw))
	expectNothing(t, b)
}

func TestHubExpiresIdleRooms(t *testing.T) {
	hub := startHub(t, NewAllocator(DefaultMaxAttempts), time.Millisecond)
	a := connect(t, hub, "a")

	send(t, a, `{"type":"create"}`)
	code := expect(t, a, TypeRoomCreated).Code

	select {
	case m := <-a.Send:
		require.Equal(t, TypeError, m.Type)
		assert.Equal(t, ReasonRoomExpired, m.Reason)
		assert.Equal(t, code, m.Code)
	case <-time.After(3 * time.Second):
		t.Fatal("room was not expired")
	}

	_, ok := hub.Registry.Lookup(code)
	assert.False(t, ok)
}

func TestHubClientsCount(t *testing.T) {
	hub := startHub(t, NewAllocator(DefaultMaxAttempts), 0)
	a := connect(t, hub, "a")
	connect(t, hub, "b")

	assert.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, 10*time.Millisecond)
	hub.disconnect(a)
	assert.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
}
