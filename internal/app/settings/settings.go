// Package settings implements the account and preferences screen.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"dailyweight/internal/app"
	"dailyweight/internal/domain"
	"dailyweight/internal/observe"
)

// State is the settings screen state. Password fields are never serialized.
type State struct {
	UserID                  int64             `json:"userId,omitempty"`
	Username                string            `json:"username"`
	NewUsername             string            `json:"newUsername"`
	CurrentPassword         string            `json:"-"`
	NewPassword             string            `json:"-"`
	ConfirmPassword         string            `json:"-"`
	Unit                    domain.WeightUnit `json:"unit"`
	GoalNotificationEnabled bool              `json:"goalNotificationEnabled"`
	ShowChangeUsername      bool              `json:"showChangeUsername"`
	ShowChangePassword      bool              `json:"showChangePassword"`
}

func emptyState() State {
	return State{Unit: domain.DefaultUnit}
}

// closeDialogs clears both dialogs and every input field.
func closeDialogs(s State) State {
	s.ShowChangeUsername = false
	s.ShowChangePassword = false
	s.NewUsername = ""
	s.CurrentPassword = ""
	s.NewPassword = ""
	s.ConfirmPassword = ""
	return s
}

// Event is a settings screen input.
type Event interface{ settingsEvent() }

// Events.
type (
	NewUsernameChanged      struct{ Username string }
	NewPasswordChanged      struct{ Password string }
	CurrentPasswordChanged  struct{ Password string }
	ConfirmPasswordChanged  struct{ Password string }
	UnitChanged             struct{ Unit domain.WeightUnit }
	GoalNotificationToggled struct{ Enabled bool }
	ChangeUsernameClicked   struct{}
	ChangePasswordClicked   struct{}
	DialogDismissed         struct{}
	UsernameChangeConfirmed struct{}
	PasswordChangeConfirmed struct{}
	LogoutClicked           struct{}
)

func (NewUsernameChanged) settingsEvent()      {}
func (NewPasswordChanged) settingsEvent()      {}
func (CurrentPasswordChanged) settingsEvent()  {}
func (ConfirmPasswordChanged) settingsEvent()  {}
func (UnitChanged) settingsEvent()             {}
func (GoalNotificationToggled) settingsEvent() {}
func (ChangeUsernameClicked) settingsEvent()   {}
func (ChangePasswordClicked) settingsEvent()   {}
func (DialogDismissed) settingsEvent()         {}
func (UsernameChangeConfirmed) settingsEvent() {}
func (PasswordChangeConfirmed) settingsEvent() {}
func (LogoutClicked) settingsEvent()           {}

// Controller drives the settings screen.
type Controller struct {
	session *app.Session
	users   domain.UserRepository
	prefs   domain.PreferenceRepository
	log     *slog.Logger

	events sync.Mutex // serializes OnEvent
	mu     sync.Mutex // guards state writes
	state  *observe.Cell[State]
	stop   func()
}

var _ app.Binder = (*Controller)(nil)

// New creates a settings controller and starts following session.
func New(ctx context.Context, session *app.Session, users domain.UserRepository, prefs domain.PreferenceRepository, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		session: session,
		users:   users,
		prefs:   prefs,
		log:     logger.With("screen", "settings"),
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

// Bind shows the user's name and follows their unit and notification
// preferences.
func (c *Controller) Bind(ctx context.Context, u domain.User) {
	c.mu.Lock()
	if ctx.Err() == nil && c.session.IsCurrent(u.ID) {
		c.state.Update(func(s State) State {
			s.UserID = u.ID
			s.Username = u.Username
			return s
		})
	}
	c.mu.Unlock()

	type snapshot struct {
		unit    domain.WeightUnit
		enabled bool
	}
	joined := observe.Combine2(ctx,
		c.prefs.WatchUnit(ctx, u.ID),
		c.prefs.WatchGoalNotification(ctx, u.ID),
		func(unit domain.WeightUnit, enabled bool) snapshot { return snapshot{unit, enabled} },
	)
	for snap := range joined {
		c.mu.Lock()
		if ctx.Err() == nil && c.session.IsCurrent(u.ID) {
			c.state.Update(func(s State) State {
				s.UserID = u.ID
				s.Unit = snap.unit
				s.GoalNotificationEnabled = snap.enabled
				return s
			})
		}
		c.mu.Unlock()
	}
}

// Refresh shows the updated username.
func (c *Controller) Refresh(u domain.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.session.IsCurrent(u.ID) {
		return
	}
	c.state.Update(func(s State) State { s.Username = u.Username; return s })
}

// Reset clears the screen for a logged-out session.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Set(emptyState())
}

// OnEvent applies one event.
func (c *Controller) OnEvent(ctx context.Context, ev Event) error {
	c.events.Lock()
	defer c.events.Unlock()

	switch ev := ev.(type) {
	case NewUsernameChanged:
		c.update(func(s State) State { s.NewUsername = ev.Username; return s })
	case NewPasswordChanged:
		c.update(func(s State) State { s.NewPassword = ev.Password; return s })
	case CurrentPasswordChanged:
		c.update(func(s State) State { s.CurrentPassword = ev.Password; return s })
	case ConfirmPasswordChanged:
		c.update(func(s State) State { s.ConfirmPassword = ev.Password; return s })
	case ChangeUsernameClicked:
		c.update(func(s State) State { s.ShowChangeUsername = true; return s })
	case ChangePasswordClicked:
		c.update(func(s State) State { s.ShowChangePassword = true; return s })
	case DialogDismissed:
		c.update(closeDialogs)
	case UnitChanged:
		c.setUnit(ctx, ev.Unit)
	case GoalNotificationToggled:
		c.setGoalNotification(ctx, ev.Enabled)
	case UsernameChangeConfirmed:
		return c.changeUsername(ctx)
	case PasswordChangeConfirmed:
		return c.changePassword(ctx)
	case LogoutClicked:
		c.log.Info("user logged out")
		// Logout runs the reset hooks before returning.
		c.session.Logout()
	default:
		return fmt.Errorf("settings: unsupported event %T", ev)
	}
	return nil
}

func (c *Controller) update(fn func(State) State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Update(fn)
}

// Preference writes are best effort: failures are logged, not returned.
func (c *Controller) setUnit(ctx context.Context, unit domain.WeightUnit) {
	u := c.session.Current()
	if u == nil {
		return
	}
	if err := c.prefs.SetUnit(ctx, u.ID, unit); err != nil {
		c.log.Error("failed to save unit preference", "user_id", u.ID, "unit", unit, "error", err)
	}
}

func (c *Controller) setGoalNotification(ctx context.Context, enabled bool) {
	u := c.session.Current()
	if u == nil {
		return
	}
	if err := c.prefs.SetGoalNotification(ctx, u.ID, enabled); err != nil {
		c.log.Error("failed to save notification preference", "user_id", u.ID, "error", err)
	}
}

// verifiedUser returns the current user if the entered current password
// matches the stored one.
func (c *Controller) verifiedUser(ctx context.Context, password string) (*domain.User, error) {
	cur := c.session.Current()
	if cur == nil {
		return nil, nil
	}
	stored, err := c.users.GetByID(ctx, cur.ID)
	if err != nil {
		return nil, fmt.Errorf("settings: load user: %w", err)
	}
	if !app.VerifyPassword(stored, password) {
		return nil, nil
	}
	return stored, nil
}

// changeUsername applies the new username after verifying the current
// password. A wrong password leaves everything as it was.
func (c *Controller) changeUsername(ctx context.Context) error {
	s := c.State()
	u, err := c.verifiedUser(ctx, s.CurrentPassword)
	if err != nil {
		return err
	}
	if u == nil {
		c.log.Info("username change rejected: current password mismatch")
		return nil
	}
	if strings.TrimSpace(s.NewUsername) == "" {
		c.log.Info("username change rejected: empty username")
		return nil
	}
	if strings.TrimSpace(s.NewUsername) == domain.GuestUsername && !u.IsGuest {
		return fmt.Errorf("settings: username %q: %w", s.NewUsername, domain.ErrUsernameTaken)
	}
	u.Username = s.NewUsername
	if err := c.users.Update(ctx, *u); err != nil {
		return fmt.Errorf("settings: update username: %w", err)
	}
	c.log.Info("username changed", "user_id", u.ID)
	c.update(closeDialogs)
	c.session.Login(*u)
	return nil
}

// changePassword applies the new password after verifying the current one
// and that new and confirmation match.
func (c *Controller) changePassword(ctx context.Context) error {
	s := c.State()
	u, err := c.verifiedUser(ctx, s.CurrentPassword)
	if err != nil {
		return err
	}
	if u == nil {
		c.log.Info("password change rejected: current password mismatch")
		return nil
	}
	if s.NewPassword != s.ConfirmPassword {
		c.log.Info("password change rejected: confirmation mismatch")
		return nil
	}
	u.Password = s.NewPassword
	if err := c.users.Update(ctx, *u); err != nil {
		return fmt.Errorf("settings: update password: %w", err)
	}
	c.log.Info("password changed", "user_id", u.ID)
	c.update(closeDialogs)
	c.session.Login(*u)
	return nil
}
