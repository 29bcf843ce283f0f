// Package observe provides latest-value cells, stream combinators and a
// table invalidation tracker used to drive screen state from live queries.
package observe

import (
	"context"
	"sync"
)

// Cell holds a single value and publishes every replacement to its watchers.
// Watchers are conflated: a slow reader only ever sees the newest value.
type Cell[T any] struct {
	mu   sync.Mutex
	val  T
	subs map[chan T]struct{}
}

// NewCell creates a cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{val: initial, subs: make(map[chan T]struct{})}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.val
}

// Set replaces the value and notifies watchers.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.val = v
	for ch := range c.subs {
		offer(ch, v)
	}
}

// Update applies fn to the current value atomically and returns the result.
func (c *Cell[T]) Update(fn func(T) T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.val = fn(c.val)
	for ch := range c.subs {
		offer(ch, c.val)
	}
	return c.val
}

// Watch returns a channel that yields the current value straight away and
// then every later value. The channel is closed once ctx is done.
func (c *Cell[T]) Watch(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	c.mu.Lock()
	ch <- c.val
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		delete(c.subs, ch)
		close(ch)
		c.mu.Unlock()
	}()
	return ch
}

// offer performs a conflating send on a buffered channel of size one.
// Callers must be the only sender on ch.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}
