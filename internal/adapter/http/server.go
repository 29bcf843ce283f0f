package adapthttp

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dailyweight/internal/adapter/notify"
	"dailyweight/internal/app"
	"dailyweight/internal/app/addweight"
	"dailyweight/internal/app/history"
	"dailyweight/internal/app/home"
	"dailyweight/internal/app/login"
	"dailyweight/internal/app/setgoal"
	"dailyweight/internal/app/settings"
	"dailyweight/internal/metrics"
)

// Screens groups the screen controllers served by the API.
type Screens struct {
	Login     *login.Controller
	Home      *home.Controller
	History   *history.Controller
	AddWeight *addweight.Controller
	SetGoal   *setgoal.Controller
	Settings  *settings.Controller
}

// Server is the driving HTTP adapter that routes requests to the screen
// controllers and keeps navigation in step with the session.
type Server struct {
	session       *app.Session
	nav           *app.Navigator
	screens       Screens
	notifications *notify.Dispatcher
	webDir        string
	log           *slog.Logger
}

// New creates a Server wired to the given session, navigator and screens.
func New(session *app.Session, nav *app.Navigator, screens Screens, notifications *notify.Dispatcher, webDir string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		session:       session,
		nav:           nav,
		screens:       screens,
		notifications: notifications,
		webDir:        webDir,
		log:           logger,
	}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.loggingMiddleware)
	r.Use(instrument)
	r.Use(withNoCache)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		})

		r.Get("/session", s.handleSession)
		r.Get("/nav", s.handleNav)
		r.Post("/nav/navigate", s.handleNavigate)
		r.Post("/nav/back", s.handleBack)

		r.Get("/login", s.handleLoginState)
		r.Post("/login/events", s.handleLoginEvent)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/home", s.handleHomeState)
			r.Post("/home/events", s.handleHomeEvent)
			r.Get("/history", s.handleHistoryState)
			r.Post("/history/events", s.handleHistoryEvent)
			r.Get("/add-weight", s.handleAddWeightState)
			r.Post("/add-weight/events", s.handleAddWeightEvent)
			r.Get("/set-goal", s.handleSetGoalState)
			r.Post("/set-goal/events", s.handleSetGoalEvent)
			r.Get("/settings", s.handleSettingsState)
			r.Post("/settings/events", s.handleSettingsEvent)
		})

		r.Get("/notifications", s.handleNotifications)
		r.Post("/notifications/permission", s.handleNotificationPermission)
		r.Delete("/notifications/{id}", s.handleDismissNotification)
	})

	r.Handle("/metrics", metrics.Handler())
	r.Handle("/*", spaFromDisk(s.webDir))

	return r
}
