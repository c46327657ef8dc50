package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// SimpleSpinner animates one status line until stopped. It does not read
// input, so it can run while nothing else owns the terminal.
type SimpleSpinner struct {
	frames spinner.Spinner

	mu      sync.Mutex
	message string
	done    chan struct{}
	once    sync.Once
}

func newSpinner(frames spinner.Spinner, message string) *SimpleSpinner {
	return &SimpleSpinner{frames: frames, message: message, done: make(chan struct{})}
}

// NewConnectionSpinner is used while talking to the signaling service.
func NewConnectionSpinner(message string) *SimpleSpinner {
	return newSpinner(spinner.Globe, message)
}

// NewWaitingSpinner is used while waiting on the other peer.
func NewWaitingSpinner(message string) *SimpleSpinner {
	return newSpinner(spinner.Points, message)
}

func (s *SimpleSpinner) Start() {
	go s.run()
}

func (s *SimpleSpinner) run() {
	ticker := time.NewTicker(s.frames.FPS)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		if !s.draw(frame) {
			return
		}
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}

// draw renders one frame unless the spinner has stopped. Holding the lock
// keeps a late frame from landing after Stop cleared the line.
func (s *SimpleSpinner) draw(frame int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		return false
	default:
	}

	glyph := s.frames.Frames[frame%len(s.frames.Frames)]
	fmt.Fprintf(Out, "\r\033[K%s %s", SpinnerStyle.Render(glyph), s.message)
	return true
}

// Stop clears the line. Later calls do nothing.
func (s *SimpleSpinner) Stop() {
	s.once.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		close(s.done)
		fmt.Fprint(Out, "\r\033[K")
	})
}

func (s *SimpleSpinner) Success(message string) {
	s.Stop()
	PrintSuccess(message)
}

func (s *SimpleSpinner) Error(message string) {
	s.Stop()
	PrintError(message)
}

func (s *SimpleSpinner) UpdateMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}
