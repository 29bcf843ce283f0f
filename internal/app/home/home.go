// Package home implements the home screen: latest weight, goal and unit for
// the logged-in user.
package home

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"dailyweight/internal/app"
	"dailyweight/internal/domain"
	"dailyweight/internal/observe"
)

// State is the home screen state.
type State struct {
	UserID        int64                `json:"userId,omitempty"`
	Weights       []domain.WeightEntry `json:"weights"`
	MostRecent    *domain.WeightEntry  `json:"mostRecent"`
	GoalWeight    *float64             `json:"goalWeight"`
	Unit          domain.WeightUnit    `json:"unit"`
	ShowAddWeight bool                 `json:"showAddWeight"`
	ShowSetGoal   bool                 `json:"showSetGoal"`
}

func emptyState() State {
	return State{Weights: []domain.WeightEntry{}, Unit: domain.DefaultUnit}
}

// Event is a home screen input.
type Event interface{ homeEvent() }

// Events.
type (
	AddWeightClicked   struct{}
	AddWeightDismissed struct{}
	SetGoalClicked     struct{}
	SetGoalDismissed   struct{}
)

func (AddWeightClicked) homeEvent()   {}
func (AddWeightDismissed) homeEvent() {}
func (SetGoalClicked) homeEvent()     {}
func (SetGoalDismissed) homeEvent()   {}

// Controller drives the home screen.
type Controller struct {
	session *app.Session
	weights domain.WeightRepository
	goals   domain.GoalRepository
	prefs   domain.PreferenceRepository
	log     *slog.Logger

	mu    sync.Mutex // serializes state writes from events and the live query
	state *observe.Cell[State]
	stop  func()
}

var _ app.Binder = (*Controller)(nil)

// New creates a home controller and starts following session.
func New(ctx context.Context, session *app.Session, weights domain.WeightRepository, goals domain.GoalRepository, prefs domain.PreferenceRepository, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		session: session,
		weights: weights,
		goals:   goals,
		prefs:   prefs,
		log:     logger.With("screen", "home"),
		state:   observe.NewCell(emptyState()),
	}
	c.stop = app.Follow(ctx, session, c)
	return c
}

// Close stops the session subscription.
func (c *Controller) Close() { c.stop() }

// State returns the current state. State left over from a user who is no
// longer logged in reads as empty.
func (c *Controller) State() State {
	s := c.state.Get()
	if s.UserID != 0 && !c.session.IsCurrent(s.UserID) {
		return emptyState()
	}
	return s
}

// Watch streams state changes until ctx is done.
func (c *Controller) Watch(ctx context.Context) <-chan State { return c.state.Watch(ctx) }

// Bind combines the user's weights, goal and unit into the screen state.
func (c *Controller) Bind(ctx context.Context, u domain.User) {
	type snapshot struct {
		weights []domain.WeightEntry
		goal    *domain.Goal
		unit    domain.WeightUnit
	}
	joined := observe.Combine3(ctx,
		c.weights.WatchWeights(ctx, u.ID),
		c.goals.WatchGoal(ctx, u.ID),
		c.prefs.WatchUnit(ctx, u.ID),
		func(w []domain.WeightEntry, g *domain.Goal, unit domain.WeightUnit) snapshot {
			return snapshot{w, g, unit}
		},
	)
	for snap := range joined {
		c.mu.Lock()
		if ctx.Err() == nil && c.session.IsCurrent(u.ID) {
			c.state.Update(func(s State) State {
				s.UserID = u.ID
				s.Weights = snap.weights
				s.MostRecent = domain.MostRecent(snap.weights)
				s.GoalWeight = nil
				if snap.goal != nil {
					g := snap.goal.GoalWeight
					s.GoalWeight = &g
				}
				s.Unit = snap.unit
				return s
			})
		}
		c.mu.Unlock()
	}
}

// Refresh is a no-op: nothing on the home screen shows the user record.
func (c *Controller) Refresh(domain.User) {}

// Reset clears the screen for a logged-out session.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Set(emptyState())
}

// OnEvent applies one event.
func (c *Controller) OnEvent(_ context.Context, ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var fn func(State) State
	switch ev.(type) {
	case AddWeightClicked:
		fn = func(s State) State { s.ShowAddWeight = true; return s }
	case AddWeightDismissed:
		fn = func(s State) State { s.ShowAddWeight = false; return s }
	case SetGoalClicked:
		fn = func(s State) State { s.ShowSetGoal = true; return s }
	case SetGoalDismissed:
		fn = func(s State) State { s.ShowSetGoal = false; return s }
	default:
		return fmt.Errorf("home: unsupported event %T", ev)
	}
	c.state.Update(fn)
	return nil
}
