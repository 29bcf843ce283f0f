// Package setgoal implements the set-goal dialog.
package setgoal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"dailyweight/internal/app"
	"dailyweight/internal/domain"
	"dailyweight/internal/observe"
)

// State is the dialog state.
type State struct {
	GoalWeight string            `json:"goalWeight"`
	Unit       domain.WeightUnit `json:"unit"`
}

// Event is a dialog input.
type Event interface{ setGoalEvent() }

// Events.
type (
	// Opened prefills the current goal and loads the user's unit.
	Opened            struct{}
	GoalWeightChanged struct{ GoalWeight string }
	SaveClicked       struct{}
)

func (Opened) setGoalEvent()            {}
func (GoalWeightChanged) setGoalEvent() {}
func (SaveClicked) setGoalEvent()       {}

// Controller drives the set-goal dialog.
type Controller struct {
	session *app.Session
	goals   domain.GoalRepository
	prefs   domain.PreferenceRepository
	log     *slog.Logger

	mu    sync.Mutex
	state *observe.Cell[State]
}

// New creates a set-goal controller.
func New(session *app.Session, goals domain.GoalRepository, prefs domain.PreferenceRepository, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		session: session,
		goals:   goals,
		prefs:   prefs,
		log:     logger.With("screen", "set_goal"),
		state:   observe.NewCell(State{Unit: domain.DefaultUnit}),
	}
}

// State returns the current state.
func (c *Controller) State() State { return c.state.Get() }

// Watch streams state changes until ctx is done.
func (c *Controller) Watch(ctx context.Context) <-chan State { return c.state.Watch(ctx) }

// Save handles a save click and reports whether anything was stored.
func (c *Controller) Save(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx)
}

// OnEvent applies one event.
func (c *Controller) OnEvent(ctx context.Context, ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev := ev.(type) {
	case Opened:
		return c.open(ctx)
	case GoalWeightChanged:
		c.state.Update(func(s State) State { s.GoalWeight = ev.GoalWeight; return s })
	case SaveClicked:
		_, err := c.save(ctx)
		return err
	default:
		return fmt.Errorf("set goal: unsupported event %T", ev)
	}
	return nil
}

func (c *Controller) open(ctx context.Context) error {
	u := c.session.Current()
	if u == nil {
		c.state.Set(State{Unit: domain.DefaultUnit})
		return nil
	}
	goal, err := c.goals.GoalForUser(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("set goal: load goal: %w", err)
	}
	unit, err := c.prefs.Unit(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("set goal: load unit: %w", err)
	}
	s := State{Unit: unit}
	if goal != nil {
		s.GoalWeight = domain.FormatWeight(goal.GoalWeight)
	}
	c.state.Set(s)
	return nil
}

// save replaces the user's goal. Without a user or with unparseable input it
// does nothing and keeps the input.
func (c *Controller) save(ctx context.Context) (bool, error) {
	u := c.session.Current()
	if u == nil {
		return false, nil
	}
	s := c.state.Get()
	value, err := domain.ParseWeight(s.GoalWeight)
	if err != nil {
		c.log.Debug("ignoring unparseable goal", "value", s.GoalWeight)
		return false, nil
	}
	if err := c.goals.SetGoal(ctx, u.ID, value); err != nil {
		return false, fmt.Errorf("set goal: save: %w", err)
	}
	c.log.Info("goal set", "user_id", u.ID, "goal_weight", value)
	c.state.Update(func(s State) State { s.GoalWeight = ""; return s })
	return true, nil
}
