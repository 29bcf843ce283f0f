// Package history implements the weight history screen with confirmed
// delete and single-value edit.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"dailyweight/internal/app"
	"dailyweight/internal/domain"
	"dailyweight/internal/observe"
)

// Entry is one row as displayed.
type Entry struct {
	ID     int64  `json:"id"`
	Weight string `json:"weight"`
	Day    string `json:"day"`
}

// DeleteStatus tracks the delete confirmation.
type DeleteStatus string

// Delete statuses.
const (
	DeleteIdle      DeleteStatus = "idle"
	DeletePending   DeleteStatus = "pending"
	DeleteDone      DeleteStatus = "deleted"
	DeleteCancelled DeleteStatus = "cancelled"
)

// EditStatus tracks the edit dialog.
type EditStatus string

// Edit statuses.
const (
	EditIdle      EditStatus = "idle"
	EditEditing   EditStatus = "editing"
	EditSaved     EditStatus = "saved"
	EditCancelled EditStatus = "cancelled"
)

// State is the history screen state.
type State struct {
	UserID  int64             `json:"userId,omitempty"`
	Entries []Entry           `json:"entries"`
	Unit    domain.WeightUnit `json:"unit"`

	DeleteStatus  DeleteStatus `json:"deleteStatus"`
	PendingDelete *Entry       `json:"pendingDelete"`

	EditStatus EditStatus `json:"editStatus"`
	EditTarget *Entry     `json:"editTarget"`
	EditValue  string     `json:"editValue"`

	rows map[int64]domain.WeightEntry
}

// ShowDeleteConfirmation reports whether the delete dialog is open.
func (s State) ShowDeleteConfirmation() bool { return s.DeleteStatus == DeletePending }

func emptyState() State {
	return State{
		Entries:      []Entry{},
		Unit:         domain.DefaultUnit,
		DeleteStatus: DeleteIdle,
		EditStatus:   EditIdle,
	}
}

// Event is a history screen input.
type Event interface{ historyEvent() }

// Events. Row-targeted events carry the entry id.
type (
	DeleteClicked    struct{ ID int64 }
	DeleteConfirmed  struct{}
	DeleteDismissed  struct{}
	EditClicked      struct{ ID int64 }
	EditValueChanged struct{ Value string }
	EditConfirmed    struct{}
	EditDismissed    struct{}
)

func (DeleteClicked) historyEvent()    {}
func (DeleteConfirmed) historyEvent()  {}
func (DeleteDismissed) historyEvent()  {}
func (EditClicked) historyEvent()      {}
func (EditValueChanged) historyEvent() {}
func (EditConfirmed) historyEvent()    {}
func (EditDismissed) historyEvent()    {}

// Controller drives the history screen.
type Controller struct {
	session *app.Session
	weights domain.WeightRepository
	prefs   domain.PreferenceRepository
	log     *slog.Logger

	mu    sync.Mutex
	state *observe.Cell[State]
	stop  func()
}

var _ app.Binder = (*Controller)(nil)

// New creates a history controller and starts following session.
func New(ctx context.Context, session *app.Session, weights domain.WeightRepository, prefs domain.PreferenceRepository, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		session: session,
		weights: weights,
		prefs:   prefs,
		log:     logger.With("screen", "history"),
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

// Bind combines the user's weights and unit into the entry list.
func (c *Controller) Bind(ctx context.Context, u domain.User) {
	type snapshot struct {
		weights []domain.WeightEntry
		unit    domain.WeightUnit
	}
	joined := observe.Combine2(ctx,
		c.weights.WatchWeights(ctx, u.ID),
		c.prefs.WatchUnit(ctx, u.ID),
		func(w []domain.WeightEntry, unit domain.WeightUnit) snapshot { return snapshot{w, unit} },
	)
	for snap := range joined {
		c.mu.Lock()
		if ctx.Err() == nil && c.session.IsCurrent(u.ID) {
			c.state.Update(func(s State) State {
				s.UserID = u.ID
				s.Unit = snap.unit
				s.Entries = make([]Entry, 0, len(snap.weights))
				s.rows = make(map[int64]domain.WeightEntry, len(snap.weights))
				for _, w := range snap.weights {
					s.Entries = append(s.Entries, toEntry(w))
					s.rows[w.ID] = w
				}
				return s
			})
		}
		c.mu.Unlock()
	}
}

func toEntry(w domain.WeightEntry) Entry {
	return Entry{ID: w.ID, Weight: domain.FormatWeight(w.Value), Day: w.Day}
}

// Refresh is a no-op: the list does not depend on the user record.
func (c *Controller) Refresh(domain.User) {}

// Reset clears the screen for a logged-out session.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Set(emptyState())
}

// OnEvent applies one event.
func (c *Controller) OnEvent(ctx context.Context, ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev := ev.(type) {
	case DeleteClicked:
		row, ok := c.State().rows[ev.ID]
		if !ok {
			return fmt.Errorf("history: entry %d: %w", ev.ID, domain.ErrNotFound)
		}
		c.state.Update(func(s State) State {
			e := toEntry(row)
			s.PendingDelete = &e
			s.DeleteStatus = DeletePending
			return s
		})

	case DeleteConfirmed:
		s := c.State()
		if s.DeleteStatus != DeletePending || s.PendingDelete == nil {
			return nil
		}
		if err := c.weights.DeleteWeight(ctx, s.PendingDelete.ID); err != nil {
			return fmt.Errorf("history: delete: %w", err)
		}
		c.log.Info("weight deleted", "weight_id", s.PendingDelete.ID)
		c.state.Update(func(s State) State {
			s.PendingDelete = nil
			s.DeleteStatus = DeleteDone
			return s
		})

	case DeleteDismissed:
		c.state.Update(func(s State) State {
			if s.DeleteStatus == DeletePending {
				s.DeleteStatus = DeleteCancelled
			}
			s.PendingDelete = nil
			return s
		})

	case EditClicked:
		row, ok := c.State().rows[ev.ID]
		if !ok {
			return fmt.Errorf("history: entry %d: %w", ev.ID, domain.ErrNotFound)
		}
		c.state.Update(func(s State) State {
			e := toEntry(row)
			s.EditTarget = &e
			s.EditValue = e.Weight
			s.EditStatus = EditEditing
			return s
		})

	case EditValueChanged:
		c.state.Update(func(s State) State {
			s.EditValue = ev.Value
			return s
		})

	case EditConfirmed:
		return c.confirmEdit(ctx)

	case EditDismissed:
		c.state.Update(func(s State) State {
			if s.EditStatus == EditEditing {
				s.EditStatus = EditCancelled
			}
			s.EditTarget = nil
			return s
		})

	default:
		return fmt.Errorf("history: unsupported event %T", ev)
	}
	return nil
}

// confirmEdit writes the new value onto the original row. Unparseable input
// is ignored and the dialog stays open.
func (c *Controller) confirmEdit(ctx context.Context) error {
	s := c.State()
	if s.EditStatus != EditEditing || s.EditTarget == nil {
		return nil
	}
	value, err := domain.ParseWeight(s.EditValue)
	if err != nil {
		c.log.Debug("ignoring unparseable edit", "value", s.EditValue)
		return nil
	}
	row, ok := s.rows[s.EditTarget.ID]
	if !ok {
		return fmt.Errorf("history: entry %d: %w", s.EditTarget.ID, domain.ErrNotFound)
	}
	row.Value = value
	if err := c.weights.UpdateWeight(ctx, row); err != nil {
		return fmt.Errorf("history: update: %w", err)
	}
	c.log.Info("weight edited", "weight_id", row.ID)
	c.state.Update(func(s State) State {
		s.EditTarget = nil
		s.EditStatus = EditSaved
		return s
	})
	return nil
}
