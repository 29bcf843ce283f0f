package app

import (
	"errors"
	"fmt"
	"sync"
)

// Destination names a screen.
type Destination string

// Destinations.
const (
	DestLogin    Destination = "login"
	DestHome     Destination = "home"
	DestHistory  Destination = "history"
	DestSettings Destination = "settings"
)

// StartDestination is where the back stack begins.
const StartDestination = DestLogin

// ErrInvalidRoute is returned for a navigation the graph does not allow.
var ErrInvalidRoute = errors.New("invalid route")

var routes = map[Destination][]Destination{
	DestLogin:    {DestHome},
	DestHome:     {DestHistory, DestSettings},
	DestHistory:  nil,
	DestSettings: {DestLogin},
}

// ParseDestination validates a destination name.
func ParseDestination(s string) (Destination, error) {
	d := Destination(s)
	if _, ok := routes[d]; !ok {
		return "", fmt.Errorf("%w: unknown destination %q", ErrInvalidRoute, s)
	}
	return d, nil
}

// Navigator tracks the back stack.
type Navigator struct {
	mu    sync.Mutex
	stack []Destination
}

// NewNavigator starts at StartDestination.
func NewNavigator() *Navigator {
	return &Navigator{stack: []Destination{StartDestination}}
}

// Current returns the top of the back stack.
func (n *Navigator) Current() Destination {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stack[len(n.stack)-1]
}

// Stack returns a copy of the back stack, bottom first.
func (n *Navigator) Stack() []Destination {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Destination, len(n.stack))
	copy(out, n.stack)
	return out
}

// Navigate pushes to if the current screen links to it. Returning to login
// clears the back stack.
func (n *Navigator) Navigate(to Destination) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	from := n.stack[len(n.stack)-1]
	allowed := false
	for _, d := range routes[from] {
		if d == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidRoute, from, to)
	}
	if to == StartDestination {
		n.stack = []Destination{to}
		return nil
	}
	n.stack = append(n.stack, to)
	return nil
}

// Back pops the current screen. It reports false at the root.
func (n *Navigator) Back() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.stack) == 1 {
		return false
	}
	n.stack = n.stack[:len(n.stack)-1]
	return true
}

// ResetTo replaces the whole back stack with d.
func (n *Navigator) ResetTo(d Destination) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stack = []Destination{d}
}
