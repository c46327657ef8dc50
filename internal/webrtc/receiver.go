package webrtc

import (
	"fmt"
	"sync"
)

// File is a completed transfer.
type File struct {
	Metadata FileMetadata
	Data     []byte
}

// Received is what one incoming frame produced. Both fields are nil while
// a payload is still expected.
type Received struct {
	Text *TextMessage
	File *File
}

// Receiver pairs each binary payload with the metadata announced before
// it. At most one announcement may be outstanding.
type Receiver struct {
	mu      sync.Mutex
	maxSize int64
	pending *FileMetadata
}

// NewReceiver creates a receiver. A positive maxSize rejects larger
// announcements.
func NewReceiver(maxSize int64) *Receiver {
	return &Receiver{maxSize: maxSize}
}

// Pending returns the outstanding announcement, if any.
func (r *Receiver) Pending() (FileMetadata, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return FileMetadata{}, false
	}
	return *r.pending, true
}

// Receive consumes one frame. isText reports whether it arrived as a text
// message; binary frames are payloads.
func (r *Receiver) Receive(isText bool, data []byte) (*Received, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !isText {
		return r.payload(data)
	}

	msg, err := decodeControl(data)
	if err != nil {
		return nil, &ProtocolError{Op: "decode", Err: err}
	}

	switch m := msg.(type) {
	case *TextMessage:
		return &Received{Text: m}, nil

	case *FileMetadata:
		if r.pending != nil {
			// The first announcement stays; its payload is still owed.
			return nil, &ProtocolError{
				Op:  "metadata",
				Err: fmt.Errorf("%w: %q before payload of %q", ErrMetadataOutstanding, m.FileName, r.pending.FileName),
			}
		}
		if r.maxSize > 0 && m.FileSize > r.maxSize {
			return nil, &ProtocolError{
				Op:  "metadata",
				Err: fmt.Errorf("%w: %q is %d bytes, limit %d", ErrPayloadTooLarge, m.FileName, m.FileSize, r.maxSize),
			}
		}
		r.pending = m
		return &Received{}, nil
	}

	return nil, &ProtocolError{Op: "decode", Err: ErrUnknownMessage}
}

func (r *Receiver) payload(data []byte) (*Received, error) {
	meta := r.pending
	if meta == nil {
		return nil, &ProtocolError{Op: "payload", Err: ErrUnexpectedPayload}
	}
	r.pending = nil

	if int64(len(data)) != meta.FileSize {
		return nil, &ProtocolError{
			Op:  "payload",
			Err: fmt.Errorf("%w: %q declared %d, got %d", ErrSizeMismatch, meta.FileName, meta.FileSize, len(data)),
		}
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return &Received{File: &File{Metadata: *meta, Data: buf}}, nil
}
