package rendezvous

import (
	"sync"
	"time"
)

// Room binds at most two clients under one code.
type Room struct {
	// Code is the 6-digit rendezvous key.
	Code string

	// Members holds the creator first and the joiner second.
	Members []*Client

	// CreatedAt is used by idle expiry of open rooms.
	CreatedAt time.Time
}

// Matched reports whether both slots are taken.
func (r *Room) Matched() bool {
	return len(r.Members) == 2
}

func (r *Room) peerOf(c *Client) *Client {
	for _, m := range r.Members {
		if m != c {
			return m
		}
	}
	return nil
}

// Stats is a point-in-time view of the registry.
type Stats struct {
	Open    int `json:"open"`
	Matched int `json:"matched"`
}

// Registry is the process-wide table of live rooms. Every operation holds
// one lock, so lookup-and-mutate sequences are atomic.
type Registry struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	memberOf map[*Client]*Room
	alloc    *Allocator
	now      func() time.Time
}

// NewRegistry creates an empty registry allocating codes with alloc.
func NewRegistry(alloc *Allocator) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		memberOf: make(map[*Client]*Room),
		alloc:    alloc,
		now:      time.Now,
	}
}

// Create opens a room with c as its only member and returns its code.
func (r *Registry) Create(c *Client) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.memberOf[c]; ok {
		return "", ErrAlreadyInRoom
	}

	code, err := r.alloc.Allocate(func(code string) bool {
		_, taken := r.rooms[code]
		return taken
	})
	if err != nil {
		return "", err
	}

	room := &Room{
		Code:      code,
		Members:   []*Client{c},
		CreatedAt: r.now(),
	}
	r.rooms[code] = room
	r.memberOf[c] = room
	return code, nil
}

// Join claims the second slot of the room under code and returns the
// creator so the caller can wire the relay.
func (r *Registry) Join(code string, c *Client) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.memberOf[c]; ok {
		return nil, ErrAlreadyInRoom
	}

	room, ok := r.rooms[code]
	if !ok {
		return nil, ErrInvalidCode
	}
	if room.Matched() {
		return nil, ErrRoomFull
	}

	peer := room.Members[0]
	room.Members = append(room.Members, c)
	r.memberOf[c] = room
	return peer, nil
}

// Remove drops c from its room and deletes the room. If the room was
// matched, the surviving member is returned so it can be told its peer
// left; the survivor's membership is released too.
func (r *Registry) Remove(c *Client) (peer *Client, code string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.memberOf[c]
	if !ok {
		return nil, "", false
	}

	peer = room.peerOf(c)
	r.deleteLocked(room)
	return peer, room.Code, true
}

// Peer returns the other member of c's room once the room is matched.
func (r *Registry) Peer(c *Client) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.memberOf[c]
	if !ok || !room.Matched() {
		return nil, false
	}
	return room.peerOf(c), true
}

// CodeOf returns the code of the room c belongs to.
func (r *Registry) CodeOf(c *Client) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.memberOf[c]
	if !ok {
		return "", false
	}
	return room.Code, true
}

// Lookup returns a copy of the room under code.
func (r *Registry) Lookup(code string) (Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok {
		return Room{}, false
	}
	cp := *room
	cp.Members = append([]*Client(nil), room.Members...)
	return cp, true
}

// ExpireOpen deletes every open room created before cutoff and returns them.
func (r *Registry) ExpireOpen(cutoff time.Time) []Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []Room
	for _, room := range r.rooms {
		if room.Matched() || !room.CreatedAt.Before(cutoff) {
			continue
		}
		expired = append(expired, *room)
		r.deleteLocked(room)
	}
	return expired
}

// Stats counts open and matched rooms.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s Stats
	for _, room := range r.rooms {
		if room.Matched() {
			s.Matched++
		} else {
			s.Open++
		}
	}
	return s
}

// Len returns the number of live rooms.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

func (r *Registry) deleteLocked(room *Room) {
	for _, m := range room.Members {
		delete(r.memberOf, m)
	}
	delete(r.rooms, room.Code)
}
