package app

import (
	"context"

	"dailyweight/internal/domain"
)

// Binder is implemented by controllers whose state is scoped to the
// logged-in user.
type Binder interface {
	// Bind runs the subscription for u until ctx is done. It must not touch
	// controller state after it returns.
	Bind(ctx context.Context, u domain.User)
	// Refresh reports a changed record for the already bound user.
	Refresh(u domain.User)
	// Reset restores the logged-out state.
	Reset()
}

// Follow keeps b bound to the session's current user. At most one Bind runs
// at a time: on every change of user the running Bind is cancelled and
// joined, state is Reset, and only then is the next user bound. b.Reset also
// runs synchronously inside Login and Logout, so no caller observes the
// previous user's state once they return. Bind must drop updates for a user
// that is no longer current (Session.IsCurrent). The returned stop function
// cancels everything and waits for it to finish.
func Follow(ctx context.Context, s *Session, b Binder) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	unhook := s.onSwitch(b.Reset)

	go func() {
		defer close(done)

		var (
			current    *domain.User
			bindCancel context.CancelFunc
			bindDone   chan struct{}
		)
		release := func() {
			if bindCancel == nil {
				return
			}
			bindCancel()
			<-bindDone
			bindCancel, bindDone = nil, nil
		}
		defer release()

		for u := range s.Watch(ctx) {
			// Let the switch hooks finish so they never clear the next bind.
			s.settled()
			if u != nil && current != nil && u.ID == current.ID {
				if *u != *current {
					b.Refresh(*u)
				}
				current = u
				continue
			}

			release()
			b.Reset()
			current = u
			if u == nil {
				continue
			}

			bctx, bcancel := context.WithCancel(ctx)
			bdone := make(chan struct{})
			user := *u
			go func() {
				defer close(bdone)
				b.Bind(bctx, user)
			}()
			bindCancel, bindDone = bcancel, bdone
		}
	}()

	return func() {
		unhook()
		cancel()
		<-done
	}
}
