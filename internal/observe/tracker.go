package observe

import (
	"context"
	"log/slog"
	"sync"
)

// Tracker fans out invalidation signals for named topics. Stores call
// Invalidate after a committed write; live queries re-run on the signal.
type Tracker struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{subs: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe returns a signal channel for the given topics. Signals coalesce,
// and the channel is closed once ctx is done.
func (t *Tracker) Subscribe(ctx context.Context, topics ...string) <-chan struct{} {
	ch := make(chan struct{}, 1)

	t.mu.Lock()
	for _, topic := range topics {
		set, ok := t.subs[topic]
		if !ok {
			set = make(map[chan struct{}]struct{})
			t.subs[topic] = set
		}
		set[ch] = struct{}{}
	}
	t.mu.Unlock()

	go func() {
		<-ctx.Done()
		t.mu.Lock()
		for _, topic := range topics {
			delete(t.subs[topic], ch)
			if len(t.subs[topic]) == 0 {
				delete(t.subs, topic)
			}
		}
		close(ch)
		t.mu.Unlock()
	}()
	return ch
}

// Invalidate signals every subscriber of any of the topics.
func (t *Tracker) Invalidate(topics ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, topic := range topics {
		for ch := range t.subs[topic] {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// Query runs load once and again after every invalidation of topics,
// publishing each result. Load errors are logged and the previous result
// stays current. The output closes when ctx is done.
func Query[T any](ctx context.Context, t *Tracker, logger *slog.Logger, load func(context.Context) (T, error), topics ...string) <-chan T {
	if logger == nil {
		logger = slog.Default()
	}
	sig := t.Subscribe(ctx, topics...)
	out := make(chan T, 1)
	go func() {
		defer close(out)
		for {
			v, err := load(ctx)
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				logger.Error("live query failed", "topics", topics, "error", err)
			default:
				offer(out, v)
			}
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sig:
				if !ok {
					return
				}
			}
		}
	}()
	return out
}
