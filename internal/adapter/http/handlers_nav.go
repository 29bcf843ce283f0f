package adapthttp

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dailyweight/internal/app"
	"dailyweight/internal/domain"
)

type navResponse struct {
	Current app.Destination   `json:"current"`
	Stack   []app.Destination `json:"stack"`
}

func (s *Server) navState() navResponse {
	return navResponse{Current: s.nav.Current(), Stack: s.nav.Stack()}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]*domain.User{"user": s.session.Current()})
}

func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.navState())
}

// handleNavigate follows one edge of the navigation graph. Screens past login
// require a session.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To string `json:"to"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to, err := app.ParseDestination(req.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if to != app.DestLogin && s.session.Current() == nil {
		writeError(w, http.StatusUnauthorized, fmt.Errorf("%s requires a logged-in user", to))
		return
	}
	if err := s.nav.Navigate(to); err != nil {
		s.writeEventError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.navState())
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.nav.Back()
	writeJSON(w, http.StatusOK, s.navState())
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"permission":    s.notifications.Permission(),
		"notifications": s.notifications.Pending(),
	})
}

func (s *Server) handleNotificationPermission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Granted bool `json:"granted"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.notifications.SetPermission(req.Granted)
	s.log.Info("notification permission updated", "granted", req.Granted)
	writeJSON(w, http.StatusOK, map[string]bool{"permission": req.Granted})
}

func (s *Server) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid notification id: %w", err))
		return
	}
	if !s.notifications.Dismiss(id) {
		writeError(w, http.StatusNotFound, fmt.Errorf("notification %d: %w", id, domain.ErrNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
