package app

import (
	"context"
	"crypto/subtle"
	"sync"

	"dailyweight/internal/domain"
	"dailyweight/internal/observe"
)

// Session holds the currently logged-in user. One Session is shared by every
// screen controller of a running app.
type Session struct {
	mu     sync.Mutex // serializes changes and switch hooks
	cell   *observe.Cell[*domain.User]
	hooks  map[int]func()
	nextID int
}

// NewSession creates a logged-out session.
func NewSession() *Session {
	return &Session{
		cell:  observe.NewCell[*domain.User](nil),
		hooks: make(map[int]func()),
	}
}

// Login makes u the current user. A login with the same id as the current
// user republishes the updated record. Switching to another user runs the
// switch hooks before Login returns.
func (s *Session) Login(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.cell.Get()
	s.cell.Set(&u)
	if prev == nil || prev.ID != u.ID {
		s.runHooksLocked()
	}
}

// Logout clears the current user and runs the switch hooks.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.cell.Get()
	s.cell.Set(nil)
	if prev != nil {
		s.runHooksLocked()
	}
}

// Current returns a copy of the current user, or nil when logged out.
func (s *Session) Current() *domain.User {
	u := s.cell.Get()
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

// IsCurrent reports whether id is the logged-in user.
func (s *Session) IsCurrent(id int64) bool {
	u := s.cell.Get()
	return u != nil && u.ID == id
}

// Watch streams the current user, starting with the present value. The
// published pointers must not be modified.
func (s *Session) Watch(ctx context.Context) <-chan *domain.User {
	return s.cell.Watch(ctx)
}

// onSwitch registers fn to run synchronously, after publishing, whenever the
// logged-in user changes. fn must not call back into the session's Login or
// Logout.
func (s *Session) onSwitch(fn func()) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.hooks[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.hooks, id)
	}
}

// settled waits for an in-progress Login or Logout to finish its hooks.
func (s *Session) settled() {
	s.mu.Lock()
	//nolint:staticcheck // empty critical section used as a barrier
	s.mu.Unlock()
}

func (s *Session) runHooksLocked() {
	for _, fn := range s.hooks {
		fn()
	}
}

// VerifyPassword reports whether candidate matches the stored password.
func VerifyPassword(u *domain.User, candidate string) bool {
	if u == nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(u.Password), []byte(candidate)) == 1
}
