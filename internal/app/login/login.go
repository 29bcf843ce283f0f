// Package login implements the login screen: sign in, account creation and
// the shared guest account.
package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"dailyweight/internal/app"
	"dailyweight/internal/domain"
	"dailyweight/internal/observe"
)

// Status is the login screen's progress.
type Status string

// Statuses.
const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Messages shown on the screen.
const (
	MsgInvalidCredentials = "Invalid username or password"
	MsgUsernameTaken      = "Username already exists"
	MsgUsernameRequired   = "Username is required"
	MsgCreateFailed       = "Failed to create user."
)

// State is the login screen state.
type State struct {
	Username string `json:"username"`
	Password string `json:"-"`
	Status   Status `json:"status"`
	Error    string `json:"error,omitempty"`
}

// Event is a login screen input.
type Event interface{ loginEvent() }

// Events.
type (
	UsernameChanged        struct{ Username string }
	PasswordChanged        struct{ Password string }
	LoginClicked           struct{}
	CreateUserClicked      struct{}
	ContinueAsGuestClicked struct{}
)

func (UsernameChanged) loginEvent()        {}
func (PasswordChanged) loginEvent()        {}
func (LoginClicked) loginEvent()           {}
func (CreateUserClicked) loginEvent()      {}
func (ContinueAsGuestClicked) loginEvent() {}

// Controller drives the login screen.
type Controller struct {
	users   domain.UserRepository
	session *app.Session
	log     *slog.Logger

	mu    sync.Mutex // serializes OnEvent
	state *observe.Cell[State]
}

// New creates a login controller.
func New(users domain.UserRepository, session *app.Session, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		users:   users,
		session: session,
		log:     logger.With("screen", "login"),
		state:   observe.NewCell(State{Status: StatusIdle}),
	}
}

// State returns the current state.
func (c *Controller) State() State { return c.state.Get() }

// Watch streams state changes until ctx is done.
func (c *Controller) Watch(ctx context.Context) <-chan State { return c.state.Watch(ctx) }

// Reset clears the form, as when the screen is shown again after logout.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Set(State{Status: StatusIdle})
}

// OnEvent applies one event. Errors are returned only for store failures
// that are not part of the screen's own messages.
func (c *Controller) OnEvent(ctx context.Context, ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev := ev.(type) {
	case UsernameChanged:
		c.state.Update(func(s State) State {
			s.Username = ev.Username
			return clearStatus(s)
		})
	case PasswordChanged:
		c.state.Update(func(s State) State {
			s.Password = ev.Password
			return clearStatus(s)
		})
	case LoginClicked:
		return c.login(ctx)
	case CreateUserClicked:
		return c.createUser(ctx)
	case ContinueAsGuestClicked:
		return c.continueAsGuest(ctx)
	default:
		return fmt.Errorf("login: unsupported event %T", ev)
	}
	return nil
}

func clearStatus(s State) State {
	if s.Status != StatusLoading {
		s.Status = StatusIdle
		s.Error = ""
	}
	return s
}

func (c *Controller) setLoading() State {
	return c.state.Update(func(s State) State {
		s.Status = StatusLoading
		s.Error = ""
		return s
	})
}

func (c *Controller) finish(status Status, msg string) {
	c.state.Update(func(s State) State {
		s.Status = status
		s.Error = msg
		return s
	})
}

func (c *Controller) login(ctx context.Context) error {
	form := c.setLoading()

	u, err := c.users.GetByUsername(ctx, form.Username)
	if err != nil {
		c.finish(StatusIdle, "")
		return fmt.Errorf("login: lookup user: %w", err)
	}
	if u == nil || !app.VerifyPassword(u, form.Password) {
		c.log.Info("login failed", "username", form.Username)
		c.finish(StatusError, MsgInvalidCredentials)
		return nil
	}

	c.session.Login(*u)
	c.log.Info("user logged in", "user_id", u.ID)
	c.finish(StatusSuccess, "")
	return nil
}

func (c *Controller) createUser(ctx context.Context) error {
	form := c.setLoading()

	name := strings.TrimSpace(form.Username)
	if name == "" {
		c.finish(StatusError, MsgUsernameRequired)
		return nil
	}
	// The guest account owns its name even before its row exists.
	if name == domain.GuestUsername {
		c.log.Info("create user rejected: reserved name", "username", form.Username)
		c.finish(StatusError, MsgUsernameTaken)
		return nil
	}

	existing, err := c.users.GetByUsername(ctx, form.Username)
	if err != nil {
		c.finish(StatusIdle, "")
		return fmt.Errorf("login: lookup user: %w", err)
	}
	if existing != nil {
		c.finish(StatusError, MsgUsernameTaken)
		return nil
	}

	id, err := c.users.Create(ctx, form.Username, form.Password, false)
	if errors.Is(err, domain.ErrUsernameTaken) {
		// Lost a race with another create of the same name.
		c.finish(StatusError, MsgUsernameTaken)
		return nil
	}
	if err != nil {
		c.log.Error("create user failed", "username", form.Username, "error", err)
		c.finish(StatusError, MsgCreateFailed)
		return nil
	}

	created, err := c.users.GetByID(ctx, id)
	if err != nil || created == nil {
		c.log.Error("reload created user failed", "user_id", id, "error", err)
		c.finish(StatusError, MsgCreateFailed)
		return nil
	}

	c.session.Login(*created)
	c.log.Info("user created", "user_id", created.ID)
	c.finish(StatusSuccess, "")
	return nil
}

func (c *Controller) continueAsGuest(ctx context.Context) error {
	c.setLoading()

	guest, err := c.findOrCreateGuest(ctx)
	if err != nil {
		c.finish(StatusIdle, "")
		return fmt.Errorf("login: guest: %w", err)
	}

	c.session.Login(*guest)
	c.log.Info("guest logged in", "user_id", guest.ID)
	c.finish(StatusSuccess, "")
	return nil
}

func (c *Controller) findOrCreateGuest(ctx context.Context) (*domain.User, error) {
	guest, err := c.users.GetGuest(ctx)
	if err != nil {
		return nil, err
	}
	if guest != nil {
		return guest, nil
	}

	id, err := c.users.Create(ctx, domain.GuestUsername, "", true)
	if errors.Is(err, domain.ErrUsernameTaken) {
		// Another flow created the guest first.
		guest, err = c.users.GetGuest(ctx)
		if err != nil {
			return nil, err
		}
		if guest == nil {
			return nil, errors.New("guest username is held by a regular account")
		}
		return guest, nil
	}
	if err != nil {
		return nil, err
	}

	guest, err = c.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if guest == nil {
		return nil, fmt.Errorf("guest %d vanished after insert", id)
	}
	return guest, nil
}
