package transfer

import (
	"errors"
	"fmt"
)

var (
	ErrNegotiation         = errors.New("negotiation failed")
	ErrTransport           = errors.New("transport failed")
	ErrPeerDisconnected    = errors.New("peer disconnected")
	ErrSignalingError      = errors.New("signaling server error")
	ErrNoRemoteDescription = errors.New("remote description not set")
	ErrSessionClosed       = errors.New("session closed")
	ErrTimeout             = errors.New("timeout")
	ErrChannelNotOpen      = errors.New("channel not open")
)

type TransferError struct {
	Op      string
	File    string
	Err     error
	Details string
}

func (e *TransferError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.File, e.Err)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *TransferError {
	return &TransferError{Op: op, Err: err}
}

func NewFileError(op, file string, err error) *TransferError {
	return &TransferError{Op: op, File: file, Err: err}
}

func WrapError(op string, err error, details string) *TransferError {
	return &TransferError{Op: op, Err: err, Details: details}
}

// negotiationError tags cause as a negotiation failure while keeping it
// reachable through errors.Is.
func negotiationError(op string, cause error) error {
	return &TransferError{Op: op, Err: fmt.Errorf("%w: %w", ErrNegotiation, cause)}
}
