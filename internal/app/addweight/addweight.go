// Package addweight implements the add-weight dialog.
package addweight

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dailyweight/internal/app"
	"dailyweight/internal/domain"
	"dailyweight/internal/metrics"
	"dailyweight/internal/observe"
)

// State is the dialog state.
type State struct {
	Weight string            `json:"weight"`
	Unit   domain.WeightUnit `json:"unit"`
	Day    string            `json:"day"`
}

// Event is a dialog input.
type Event interface{ addWeightEvent() }

// Events.
type (
	// Opened resets the form to today and loads the user's unit.
	Opened        struct{}
	WeightChanged struct{ Weight string }
	DayChanged    struct{ Day string }
	SaveClicked   struct{}
)

func (Opened) addWeightEvent()        {}
func (WeightChanged) addWeightEvent() {}
func (DayChanged) addWeightEvent()    {}
func (SaveClicked) addWeightEvent()   {}

// Controller drives the add-weight dialog.
type Controller struct {
	session  *app.Session
	weights  domain.WeightRepository
	goals    domain.GoalRepository
	prefs    domain.PreferenceRepository
	notifier domain.Notifier
	log      *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	state *observe.Cell[State]
}

// New creates an add-weight controller.
func New(session *app.Session, weights domain.WeightRepository, goals domain.GoalRepository, prefs domain.PreferenceRepository, notifier domain.Notifier, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		session:  session,
		weights:  weights,
		goals:    goals,
		prefs:    prefs,
		notifier: notifier,
		log:      logger.With("screen", "add_weight"),
		now:      time.Now,
	}
	c.state = observe.NewCell(State{Unit: domain.DefaultUnit, Day: c.today()})
	return c
}

func (c *Controller) today() string {
	return c.now().In(time.Local).Format(domain.DayLayout)
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
		unit := domain.DefaultUnit
		if u := c.session.Current(); u != nil {
			var err error
			if unit, err = c.prefs.Unit(ctx, u.ID); err != nil {
				return fmt.Errorf("add weight: load unit: %w", err)
			}
		}
		c.state.Set(State{Unit: unit, Day: c.today()})

	case WeightChanged:
		c.state.Update(func(s State) State { s.Weight = ev.Weight; return s })

	case DayChanged:
		day, err := domain.ParseDay(ev.Day)
		if err != nil {
			c.log.Debug("ignoring invalid day", "day", ev.Day)
			return nil
		}
		c.state.Update(func(s State) State { s.Day = day; return s })

	case SaveClicked:
		_, err := c.save(ctx)
		return err

	default:
		return fmt.Errorf("add weight: unsupported event %T", ev)
	}
	return nil
}

// save stores the entry and notifies when it meets the goal. Without a user
// or with unparseable input it does nothing and keeps the input.
func (c *Controller) save(ctx context.Context) (bool, error) {
	u := c.session.Current()
	if u == nil {
		return false, nil
	}
	s := c.state.Get()
	value, err := domain.ParseWeight(s.Weight)
	if err != nil {
		c.log.Debug("ignoring unparseable weight", "value", s.Weight)
		return false, nil
	}

	id, err := c.weights.AddWeight(ctx, u.ID, value, s.Day)
	if err != nil {
		return false, fmt.Errorf("add weight: insert: %w", err)
	}
	metrics.RecordWeightSaved()
	c.log.Info("weight recorded", "user_id", u.ID, "weight_id", id, "day", s.Day)

	goal, err := c.goals.GoalForUser(ctx, u.ID)
	if err != nil {
		return true, fmt.Errorf("add weight: load goal: %w", err)
	}
	if goal != nil && value <= goal.GoalWeight {
		if err := c.notifier.NotifyGoalReached(ctx, goal.GoalWeight); err != nil {
			c.log.Error("goal notification failed", "error", err)
		}
	}

	c.state.Update(func(s State) State { s.Weight = ""; return s })
	return true, nil
}
