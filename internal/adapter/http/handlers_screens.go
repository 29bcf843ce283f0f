package adapthttp

import (
	"context"
	"errors"
	"net/http"

	"dailyweight/internal/app"
	"dailyweight/internal/app/addweight"
	"dailyweight/internal/app/home"
	"dailyweight/internal/app/setgoal"
	"dailyweight/internal/app/settings"
	"dailyweight/internal/domain"
)

// readEvent parses the event envelope and decodes it for one screen.
func readEvent[E any](w http.ResponseWriter, r *http.Request, decode func(eventRequest) (E, error)) (E, bool) {
	var zero E
	var req eventRequest
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return zero, false
	}
	ev, err := decode(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return zero, false
	}
	return ev, true
}

// writeEventError maps a controller error to a status code.
func (s *Server) writeEventError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadEvent), errors.Is(err, app.ErrInvalidRoute):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrUsernameTaken):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		s.log.Error("event failed", "path", r.URL.Path, "request_id", requestIDFrom(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func (s *Server) handleLoginState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.screens.Login.State())
}

func (s *Server) handleLoginEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := readEvent(w, r, decodeLoginEvent)
	if !ok {
		return
	}
	if err := s.screens.Login.OnEvent(r.Context(), ev); err != nil {
		s.writeEventError(w, r, err)
		return
	}
	if s.session.Current() != nil && s.nav.Current() == app.DestLogin {
		if err := s.nav.Navigate(app.DestHome); err != nil {
			s.writeEventError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.screens.Login.State())
}

func (s *Server) handleHomeState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.screens.Home.State())
}

// handleHomeEvent also prepares the dialog a click opens.
func (s *Server) handleHomeEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := readEvent(w, r, decodeHomeEvent)
	if !ok {
		return
	}
	ctx := r.Context()
	var err error
	switch ev.(type) {
	case home.AddWeightClicked:
		err = s.screens.AddWeight.OnEvent(ctx, addweight.Opened{})
	case home.SetGoalClicked:
		err = s.screens.SetGoal.OnEvent(ctx, setgoal.Opened{})
	}
	if err == nil {
		err = s.screens.Home.OnEvent(ctx, ev)
	}
	if err != nil {
		s.writeEventError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.screens.Home.State())
}

func (s *Server) handleHistoryState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.screens.History.State())
}

func (s *Server) handleHistoryEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := readEvent(w, r, decodeHistoryEvent)
	if !ok {
		return
	}
	if err := s.screens.History.OnEvent(r.Context(), ev); err != nil {
		s.writeEventError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.screens.History.State())
}

func (s *Server) handleAddWeightState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.screens.AddWeight.State())
}

// handleAddWeightEvent closes the dialog on home once a save went through.
func (s *Server) handleAddWeightEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := readEvent(w, r, decodeAddWeightEvent)
	if !ok {
		return
	}
	ctx := r.Context()
	if _, save := ev.(addweight.SaveClicked); save {
		saved, err := s.screens.AddWeight.Save(ctx)
		if err != nil {
			s.writeEventError(w, r, err)
			return
		}
		if saved {
			s.dismiss(ctx, home.AddWeightDismissed{})
		}
	} else if err := s.screens.AddWeight.OnEvent(ctx, ev); err != nil {
		s.writeEventError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.screens.AddWeight.State())
}

func (s *Server) handleSetGoalState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.screens.SetGoal.State())
}

func (s *Server) handleSetGoalEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := readEvent(w, r, decodeSetGoalEvent)
	if !ok {
		return
	}
	ctx := r.Context()
	if _, save := ev.(setgoal.SaveClicked); save {
		saved, err := s.screens.SetGoal.Save(ctx)
		if err != nil {
			s.writeEventError(w, r, err)
			return
		}
		if saved {
			s.dismiss(ctx, home.SetGoalDismissed{})
		}
	} else if err := s.screens.SetGoal.OnEvent(ctx, ev); err != nil {
		s.writeEventError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.screens.SetGoal.State())
}

func (s *Server) dismiss(ctx context.Context, ev home.Event) {
	if err := s.screens.Home.OnEvent(ctx, ev); err != nil {
		s.log.Error("failed to close dialog", "event", ev, "error", err)
	}
}

func (s *Server) handleSettingsState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.screens.Settings.State())
}

// handleSettingsEvent returns to a fresh login screen after logout.
func (s *Server) handleSettingsEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := readEvent(w, r, decodeSettingsEvent)
	if !ok {
		return
	}
	if err := s.screens.Settings.OnEvent(r.Context(), ev); err != nil {
		s.writeEventError(w, r, err)
		return
	}
	if _, out := ev.(settings.LogoutClicked); out {
		s.screens.Login.Reset()
		if err := s.nav.Navigate(app.DestLogin); err != nil {
			s.nav.ResetTo(app.DestLogin)
		}
	}
	writeJSON(w, http.StatusOK, s.screens.Settings.State())
}
