package session

import (
	"strconv"
	"sync"

	"github.com/aretw0/speriment/pkg/domain"
)

// Session allocates identifiers for one compilation.
// The zero value is a closed session: Next fails until one is opened with Open.
type Session struct {
	mu      sync.Mutex
	current int
	active  bool
	issued  int
}

// Open starts a session whose first identifier is seed+1.
func Open(seed int) *Session {
	return &Session{current: seed, active: true}
}

// Next returns a previously unused identifier.
// It returns *domain.NoActiveSessionError once the session is closed.
func (s *Session) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return "", &domain.NoActiveSessionError{Op: "allocate identifier"}
	}
	s.current++
	s.issued++
	return strconv.Itoa(s.current), nil
}

// Close releases the session. Closing twice is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
}

// Active reports whether identifiers can still be allocated.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Issued returns how many identifiers the session has handed out.
func (s *Session) Issued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issued
}

// Scope opens a session, runs fn with it and closes it, even if fn fails or panics.
func Scope(seed int, fn func(*Session) error) error {
	s := Open(seed)
	defer s.Close()
	return fn(s)
}
