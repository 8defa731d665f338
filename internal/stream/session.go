package stream

import (
	"context"
	"strings"
	"sync"
	"time"
)

// State tracks a generation session through its lifecycle:
// Starting → Streaming → {Completed, Cancelled, Failed}. Terminal
// states are final.
type State int

const (
	StateStarting State = iota
	StateStreaming
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition may leave s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Session is the ephemeral record of one in-flight generation for one
// chat. It owns the cancellation signal and the accumulating output
// buffer; it is never persisted. A Session is created by
// Registry.Acquire and discarded after Registry.Release.
type Session struct {
	chatID    string
	userID    string
	model     string
	token     uint64
	startedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     State
	cancelled bool
	chunks    int
	buf       strings.Builder
}

func newSession(parent context.Context, chatID, userID, model string, token uint64) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		chatID:    chatID,
		userID:    userID,
		model:     model,
		token:     token,
		startedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		state:     StateStarting,
	}
}

func (s *Session) ChatID() string { return s.chatID }
func (s *Session) UserID() string { return s.userID }
func (s *Session) Model() string  { return s.model }
func (s *Session) Token() uint64  { return s.token }

// Context is cancelled when the session is cancelled or finished; the
// provider call must run under it so an abort propagates upstream.
func (s *Session) Context() context.Context { return s.ctx }

// Begin marks the provider call as started. It is a no-op unless the
// session is still in Starting.
func (s *Session) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateStarting {
		s.state = StateStreaming
	}
}

// Append records one provider increment in the output buffer. It
// refuses the chunk once cancellation was requested or the session
// left the Streaming state, so no output is accumulated past the
// cancellation point.
func (s *Session) Append(chunk string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled || s.state != StateStreaming {
		return false
	}
	s.buf.WriteString(chunk)
	s.chunks++
	return true
}

// Cancel raises the cooperative cancellation flag and aborts the
// session context. It reports false when the session already reached a
// terminal state, in which case nothing changes.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return false
	}
	s.cancelled = true
	s.mu.Unlock()
	s.cancel()
	return true
}

// CancelRequested reports whether Cancel was called. The flag is
// checked between increments; already in-flight provider output may
// still arrive after it is set.
func (s *Session) CancelRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// Finish moves the session into the given terminal state. Only the
// first call transitions; later calls (and calls with a non-terminal
// target) report false and leave the state untouched.
func (s *Session) Finish(target State) bool {
	if !target.Terminal() {
		return false
	}
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return false
	}
	s.state = target
	s.mu.Unlock()
	s.cancel()
	return true
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Text snapshots the accumulated output.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// Chunks reports how many increments were accumulated.
func (s *Session) Chunks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunks
}

// Elapsed is the time since the session was acquired.
func (s *Session) Elapsed() time.Duration {
	return time.Since(s.startedAt)
}
