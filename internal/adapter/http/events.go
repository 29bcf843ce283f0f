package adapthttp

import (
	"errors"
	"fmt"

	"dailyweight/internal/app/addweight"
	"dailyweight/internal/app/history"
	"dailyweight/internal/app/home"
	"dailyweight/internal/app/login"
	"dailyweight/internal/app/setgoal"
	"dailyweight/internal/app/settings"
	"dailyweight/internal/domain"
)

var errBadEvent = errors.New("bad event")

// eventRequest is the body of POST /api/<screen>/events. Type selects the
// event; the other fields are read only by events that need them.
type eventRequest struct {
	Type    string `json:"type"`
	Value   string `json:"value,omitempty"`
	ID      int64  `json:"id,omitempty"`
	Enabled bool   `json:"enabled,omitempty"`
}

func unknownEvent(screen, typ string) error {
	return fmt.Errorf("%w: %s has no event %q", errBadEvent, screen, typ)
}

func decodeLoginEvent(req eventRequest) (login.Event, error) {
	switch req.Type {
	case "usernameChanged":
		return login.UsernameChanged{Username: req.Value}, nil
	case "passwordChanged":
		return login.PasswordChanged{Password: req.Value}, nil
	case "login":
		return login.LoginClicked{}, nil
	case "createUser":
		return login.CreateUserClicked{}, nil
	case "continueAsGuest":
		return login.ContinueAsGuestClicked{}, nil
	}
	return nil, unknownEvent("login", req.Type)
}

func decodeHomeEvent(req eventRequest) (home.Event, error) {
	switch req.Type {
	case "addWeightClicked":
		return home.AddWeightClicked{}, nil
	case "addWeightDismissed":
		return home.AddWeightDismissed{}, nil
	case "setGoalClicked":
		return home.SetGoalClicked{}, nil
	case "setGoalDismissed":
		return home.SetGoalDismissed{}, nil
	}
	return nil, unknownEvent("home", req.Type)
}

func decodeHistoryEvent(req eventRequest) (history.Event, error) {
	switch req.Type {
	case "deleteClicked":
		return history.DeleteClicked{ID: req.ID}, nil
	case "deleteConfirmed":
		return history.DeleteConfirmed{}, nil
	case "deleteDismissed":
		return history.DeleteDismissed{}, nil
	case "editClicked":
		return history.EditClicked{ID: req.ID}, nil
	case "editValueChanged":
		return history.EditValueChanged{Value: req.Value}, nil
	case "editConfirmed":
		return history.EditConfirmed{}, nil
	case "editDismissed":
		return history.EditDismissed{}, nil
	}
	return nil, unknownEvent("history", req.Type)
}

func decodeAddWeightEvent(req eventRequest) (addweight.Event, error) {
	switch req.Type {
	case "opened":
		return addweight.Opened{}, nil
	case "weightChanged":
		return addweight.WeightChanged{Weight: req.Value}, nil
	case "dayChanged":
		return addweight.DayChanged{Day: req.Value}, nil
	case "save":
		return addweight.SaveClicked{}, nil
	}
	return nil, unknownEvent("add-weight", req.Type)
}

func decodeSetGoalEvent(req eventRequest) (setgoal.Event, error) {
	switch req.Type {
	case "opened":
		return setgoal.Opened{}, nil
	case "goalWeightChanged":
		return setgoal.GoalWeightChanged{GoalWeight: req.Value}, nil
	case "save":
		return setgoal.SaveClicked{}, nil
	}
	return nil, unknownEvent("set-goal", req.Type)
}

func decodeSettingsEvent(req eventRequest) (settings.Event, error) {
	switch req.Type {
	case "newUsernameChanged":
		return settings.NewUsernameChanged{Username: req.Value}, nil
	case "newPasswordChanged":
		return settings.NewPasswordChanged{Password: req.Value}, nil
	case "currentPasswordChanged":
		return settings.CurrentPasswordChanged{Password: req.Value}, nil
	case "confirmPasswordChanged":
		return settings.ConfirmPasswordChanged{Password: req.Value}, nil
	case "unitChanged":
		unit, err := domain.ParseUnit(req.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errBadEvent, err)
		}
		return settings.UnitChanged{Unit: unit}, nil
	case "goalNotificationToggled":
		return settings.GoalNotificationToggled{Enabled: req.Enabled}, nil
	case "changeUsernameClicked":
		return settings.ChangeUsernameClicked{}, nil
	case "changePasswordClicked":
		return settings.ChangePasswordClicked{}, nil
	case "dialogDismissed":
		return settings.DialogDismissed{}, nil
	case "usernameChangeConfirmed":
		return settings.UsernameChangeConfirmed{}, nil
	case "passwordChangeConfirmed":
		return settings.PasswordChangeConfirmed{}, nil
	case "logout":
		return settings.LogoutClicked{}, nil
	}
	return nil, unknownEvent("settings", req.Type)
}
