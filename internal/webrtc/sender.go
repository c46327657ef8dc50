package webrtc

import (
	"encoding/json"
	"fmt"
)

// Conn is the send side of a data channel. *pion.DataChannel satisfies it.
type Conn interface {
	SendText(s string) error
	Send(data []byte) error
}

// SendText sends content as one text message.
func SendText(c Conn, content string) error {
	data, err := json.Marshal(NewText(content))
	if err != nil {
		return &ProtocolError{Op: "encode text", Err: err}
	}
	if err := c.SendText(string(data)); err != nil {
		return &ProtocolError{Op: "send text", Err: err}
	}
	return nil
}

// SendFile announces meta and then sends payload as the very next
// message. The payload must be exactly meta.FileSize bytes.
func SendFile(c Conn, meta FileMetadata, payload []byte) error {
	if int64(len(payload)) != meta.FileSize {
		return &ProtocolError{
			Op:  "send file",
			Err: fmt.Errorf("%w: declared %d, have %d", ErrSizeMismatch, meta.FileSize, len(payload)),
		}
	}
	meta.Type = MessageTypeFile

	data, err := json.Marshal(meta)
	if err != nil {
		return &ProtocolError{Op: "encode metadata", Err: err}
	}
	if err := c.SendText(string(data)); err != nil {
		return &ProtocolError{Op: "send metadata", Err: err}
	}
	if err := c.Send(payload); err != nil {
		return &ProtocolError{Op: "send payload", Err: err}
	}
	return nil
}
