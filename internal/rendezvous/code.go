package rendezvous

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	codeMin = 100000
	codeMax = 999999

	// DefaultMaxAttempts bounds the collision retries of a single allocation.
	DefaultMaxAttempts = 64
)

// CodeSource returns a uniformly random offset in [0, codeMax-codeMin].
type CodeSource func() (int, error)

// Allocator hands out 6-digit room codes that are not currently taken.
type Allocator struct {
	source      CodeSource
	maxAttempts int
}

// NewAllocator creates an allocator backed by crypto/rand.
func NewAllocator(maxAttempts int) *Allocator {
	return NewAllocatorFromSource(cryptoSource, maxAttempts)
}

// NewAllocatorFromSource creates an allocator drawing offsets from source.
// Tests use it to force specific codes and collisions.
func NewAllocatorFromSource(source CodeSource, maxAttempts int) *Allocator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Allocator{
		source:      source,
		maxAttempts: maxAttempts,
	}
}

// Allocate draws codes until one is not taken. It gives up with
// ErrCapacityExhausted after maxAttempts collisions.
func (a *Allocator) Allocate(taken func(code string) bool) (string, error) {
	for range a.maxAttempts {
		n, err := a.source()
		if err != nil {
			return "", err
		}

		code := strconv.Itoa(codeMin + n%(codeMax-codeMin+1))
		if !taken(code) {
			return code, nil
		}
	}
	return "", ErrCapacityExhausted
}

// ValidCode reports whether code has the shape of a room code.
func ValidCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return code[0] != '0'
}

// cryptoSource returns a cryptographically secure offset into the code space.
func cryptoSource() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
