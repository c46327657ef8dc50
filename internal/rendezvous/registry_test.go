package rendezvous

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(id string) *Client {
	return &Client{
		ID:   id,
		Addr: "test",
		Send: make(chan *Message, 32),
	}
}

func TestRegistryCreateJoin(t *testing.T) {
	reg := NewRegistry(NewAllocatorFromSource(sequence(382913), 4))
	a, b := newTestClient("a"), newTestClient("b")

	code, err := reg.Create(a)
	require.NoError(t, err)
	assert.Equal(t, "482913", code)

	room, ok := reg.Lookup(code)
	require.True(t, ok)
	assert.False(t, room.Matched())

	peer, err := reg.Join(code, b)
	require.NoError(t, err)
	assert.Same(t, a, peer)

	room, _ = reg.Lookup(code)
	assert.True(t, room.Matched())
	assert.Equal(t, []*Client{a, b}, room.Members)

	got, ok := reg.Peer(a)
	require.True(t, ok)
	assert.Same(t, b, got)
	got, ok = reg.Peer(b)
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestRegistryPeerBeforeMatch(t *testing.T) {
	reg := NewRegistry(NewAllocator(DefaultMaxAttempts))
	a := newTestClient("a")

	_, err := reg.Create(a)
	require.NoError(t, err)

	_, ok := reg.Peer(a)
	assert.False(t, ok)
}

func TestRegistryAlreadyInRoom(t *testing.T) {
	reg := NewRegistry(NewAllocator(DefaultMaxAttempts))
	a, b := newTestClient("a"), newTestClient("b")

	code, err := reg.Create(a)
	require.NoError(t, err)

	_, err = reg.Create(a)
	assert.ErrorIs(t, err, ErrAlreadyInRoom)

	_, err = reg.Join(code, a)
	assert.ErrorIs(t, err, ErrAlreadyInRoom)

	other, err := reg.Create(b)
	require.NoError(t, err)
	_, err = reg.Join(other, a)
	assert.ErrorIs(t, err, ErrAlreadyInRoom)

	assert.Equal(t, 2, reg.Len())
}

func TestRegistryJoinFailuresDoNotMutate(t *testing.T) {
	reg := NewRegistry(NewAllocatorFromSource(sequence(0), 4))
	a, b, c := newTestClient("a"), newTestClient("b"), newTestClient("c")

	code, err := reg.Create(a)
	require.NoError(t, err)
	require.Equal(t, "100000", code)

	_, err = reg.Join("999999", c)
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.Equal(t, 1, reg.Len())
	_, inRoom := reg.CodeOf(c)
	assert.False(t, inRoom)

	room, _ := reg.Lookup(code)
	assert.Equal(t, []*Client{a}, room.Members)

	_, err = reg.Join(code, b)
	require.NoError(t, err)

	_, err = reg.Join(code, c)
	assert.ErrorIs(t, err, ErrRoomFull)
	room, _ = reg.Lookup(code)
	assert.Equal(t, []*Client{a, b}, room.Members)
	_, inRoom = reg.CodeOf(c)
	assert.False(t, inRoom)
}

func TestRegistryInvalidCodeLeavesRoomJoinable(t *testing.T) {
	reg := NewRegistry(NewAllocatorFromSource(sequence(0), 4))
	a, b, c := newTestClient("a"), newTestClient("b"), newTestClient("c")

	code, err := reg.Create(a)
	require.NoError(t, err)

	_, err = reg.Join("999999", c)
	require.ErrorIs(t, err, ErrInvalidCode)

	peer, err := reg.Join(code, b)
	require.NoError(t, err)
	assert.Same(t, a, peer)
}

func TestRegistryRemoveSoleMember(t *testing.T) {
	reg := NewRegistry(NewAllocator(DefaultMaxAttempts))
	a := newTestClient("a")

	code, err := reg.Create(a)
	require.NoError(t, err)

	peer, got, ok := reg.Remove(a)
	assert.True(t, ok)
	assert.Nil(t, peer)
	assert.Equal(t, code, got)

	_, ok = reg.Lookup(code)
	assert.False(t, ok)
	assert.Zero(t, reg.Len())

	_, _, ok = reg.Remove(a)
	assert.False(t, ok)
}

func TestRegistryRemoveMatchedMemberReleasesBoth(t *testing.T) {
	reg := NewRegistry(NewAllocator(DefaultMaxAttempts))
	a, b := newTestClient("a"), newTestClient("b")

	code, err := reg.Create(a)
	require.NoError(t, err)
	_, err = reg.Join(code, b)
	require.NoError(t, err)

	peer, _, ok := reg.Remove(b)
	require.True(t, ok)
	assert.Same(t, a, peer)

	_, ok = reg.Lookup(code)
	assert.False(t, ok)

	// The survivor holds no code and may start over.
	_, ok = reg.CodeOf(a)
	assert.False(t, ok)
	_, err = reg.Create(a)
	assert.NoError(t, err)
}

func TestRegistryConcurrentCreatesAreDistinct(t *testing.T) {
	reg := NewRegistry(NewAllocator(DefaultMaxAttempts))

	const n = 500
	codes := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := reg.Create(newTestClient(fmt.Sprint(i)))
			assert.NoError(t, err)
			codes[i] = code
		}()
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, code := range codes {
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
	assert.Equal(t, n, reg.Len())
}

func TestRegistryConcurrentJoinsOnlyOneWins(t *testing.T) {
	reg := NewRegistry(NewAllocator(DefaultMaxAttempts))
	code, err := reg.Create(newTestClient("creator"))
	require.NoError(t, err)

	const n = 50
	errs := make([]error, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = reg.Join(code, newTestClient(fmt.Sprint("joiner", i)))
		}()
	}
	close(start)
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, ErrRoomFull)
	}
	assert.Equal(t, 1, wins)

	room, _ := reg.Lookup(code)
	assert.Len(t, room.Members, 2)
}

func TestRegistryExpireOpen(t *testing.T) {
	reg := NewRegistry(NewAllocator(DefaultMaxAttempts))
	now := time.Unix(1_700_000_000, 0)
	reg.now = func() time.Time { return now }

	a, b, c := newTestClient("a"), newTestClient("b"), newTestClient("c")
	stale, err := reg.Create(a)
	require.NoError(t, err)
	matched, err := reg.Create(b)
	require.NoError(t, err)
	_, err = reg.Join(matched, c)
	require.NoError(t, err)

	now = now.Add(time.Minute)
	fresh, err := reg.Create(newTestClient("d"))
	require.NoError(t, err)

	expired := reg.ExpireOpen(now.Add(-30 * time.Second))
	require.Len(t, expired, 1)
	assert.Equal(t, stale, expired[0].Code)

	_, ok := reg.Lookup(stale)
	assert.False(t, ok)
	_, ok = reg.Lookup(matched)
	assert.True(t, ok)
	_, ok = reg.Lookup(fresh)
	assert.True(t, ok)
	_, ok = reg.CodeOf(a)
	assert.False(t, ok)
}

func TestRegistryStats(t *testing.T) {
	reg := NewRegistry(NewAllocator(DefaultMaxAttempts))
	a, b, c := newTestClient("a"), newTestClient("b"), newTestClient("c")

	code, err := reg.Create(a)
	require.NoError(t, err)
	_, err = reg.Create(c)
	require.NoError(t, err)
	_, err = reg.Join(code, b)
	require.NoError(t, err)

	assert.Equal(t, Stats{Open: 1, Matched: 1}, reg.Stats())
}
