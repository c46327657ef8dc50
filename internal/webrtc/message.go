package webrtc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Control message discriminators.
const (
	MessageTypeText = "text"
	MessageTypeFile = "file"
)

var (
	ErrMetadataOutstanding = errors.New("file metadata already pending")
	ErrUnexpectedPayload   = errors.New("binary payload without metadata")
	ErrSizeMismatch        = errors.New("payload size does not match metadata")
	ErrUnknownMessage      = errors.New("unknown message type")
	ErrMalformedMessage    = errors.New("malformed message")
	ErrPayloadTooLarge     = errors.New("payload exceeds size limit")
)

// ProtocolError reports a channel protocol violation.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// TextMessage carries a chat line.
type TextMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// FileMetadata announces the binary payload that follows it.
type FileMetadata struct {
	Type     string `json:"type"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}

// NewText builds a text message.
func NewText(content string) TextMessage {
	return TextMessage{Type: MessageTypeText, Content: content}
}

// NewFileMetadata builds a file announcement.
func NewFileMetadata(name, mimeType string, size int64) FileMetadata {
	return FileMetadata{Type: MessageTypeFile, FileName: name, FileType: mimeType, FileSize: size}
}

// decodeControl parses a text frame into a *TextMessage or *FileMetadata.
func decodeControl(data []byte) (any, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	switch head.Type {
	case MessageTypeText:
		var msg TextMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
		return &msg, nil

	case MessageTypeFile:
		var meta FileMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}
		if meta.FileSize < 0 {
			return nil, fmt.Errorf("%w: negative file size", ErrMalformedMessage)
		}
		return &meta, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, head.Type)
	}
}
