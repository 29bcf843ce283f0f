package adapthttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	adapthttp "dailyweight/internal/adapter/http"
	"dailyweight/internal/adapter/memory"
	"dailyweight/internal/adapter/notify"
	"dailyweight/internal/adapter/prefs"
	"dailyweight/internal/app"
	"dailyweight/internal/app/addweight"
	"dailyweight/internal/app/history"
	"dailyweight/internal/app/home"
	"dailyweight/internal/app/login"
	"dailyweight/internal/app/setgoal"
	"dailyweight/internal/app/settings"
)

type testApp struct {
	handler http.Handler
	db      *memory.DB
	session *app.Session
	nav     *app.Navigator
	screens adapthttp.Screens
	notes   *notify.Dispatcher
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>daily weight</html>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	store, err := prefs.Open(filepath.Join(dir, "prefs.yaml"), nil)
	if err != nil {
		t.Fatalf("open prefs: %v", err)
	}
	db := memory.New(nil)
	session := app.NewSession()
	notes := notify.New(true, nil)

	screens := adapthttp.Screens{
		Login:     login.New(db, session, nil),
		Home:      home.New(ctx, session, db, db, store, nil),
		History:   history.New(ctx, session, db, store, nil),
		AddWeight: addweight.New(session, db, db, store, notes, nil),
		SetGoal:   setgoal.New(session, db, store, nil),
		Settings:  settings.New(ctx, session, db, store, nil),
	}
	t.Cleanup(func() {
		screens.Home.Close()
		screens.History.Close()
		screens.Settings.Close()
	})

	nav := app.NewNavigator()
	srv := adapthttp.New(session, nav, screens, notes, dir, nil)
	return &testApp{handler: srv.Handler(), db: db, session: session, nav: nav, screens: screens, notes: notes}
}

func (a *testApp) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func (a *testApp) event(t *testing.T, screen string, ev map[string]any, wantStatus int) map[string]any {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/"+screen+"/events", ev)
	if w.Code != wantStatus {
		t.Fatalf("%s event %v: status = %d, want %d, body %s", screen, ev, w.Code, wantStatus, w.Body.String())
	}
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out
}

func (a *testApp) login(t *testing.T, username, password string) {
	t.Helper()
	a.event(t, "login", map[string]any{"type": "usernameChanged", "value": username}, http.StatusOK)
	a.event(t, "login", map[string]any{"type": "passwordChanged", "value": password}, http.StatusOK)
	out := a.event(t, "login", map[string]any{"type": "createUser"}, http.StatusOK)
	if out["status"] != "success" {
		t.Fatalf("create user failed: %v", out)
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 2*time.Millisecond, msg)
}

func (a *testApp) getJSON(t *testing.T, path string, dst any) {
	t.Helper()
	w := a.do(t, http.MethodGet, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s: status = %d, body %s", path, w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)
	w := a.do(t, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
	if w.Header().Get(adapthttp.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	a := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(adapthttp.RequestIDHeader, "0b6f3a6e-6d43-4c3e-9a53-1f2a0c7e9d10")
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	if got := w.Header().Get(adapthttp.RequestIDHeader); got != "0b6f3a6e-6d43-4c3e-9a53-1f2a0c7e9d10" {
		t.Errorf("request id = %q, want the caller's", got)
	}
}

func TestLoginNavigatesHome(t *testing.T) {
	a := newTestApp(t)
	a.login(t, "ana", "pw")

	if a.nav.Current() != app.DestHome {
		t.Fatalf("current = %s, want home", a.nav.Current())
	}
	w := a.do(t, http.MethodGet, "/api/session", nil)
	if !strings.Contains(w.Body.String(), `"username":"ana"`) {
		t.Errorf("session body = %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "pw") {
		t.Errorf("session body leaks password: %s", w.Body.String())
	}
}

func TestDuplicateUserStaysOnLogin(t *testing.T) {
	a := newTestApp(t)
	a.login(t, "ana", "pw")
	a.session.Logout()
	a.nav.ResetTo(app.DestLogin)

	a.event(t, "login", map[string]any{"type": "usernameChanged", "value": "ana"}, http.StatusOK)
	out := a.event(t, "login", map[string]any{"type": "createUser"}, http.StatusOK)
	if out["error"] != login.MsgUsernameTaken {
		t.Fatalf("error = %v, want %q", out["error"], login.MsgUsernameTaken)
	}
	if a.nav.Current() != app.DestLogin {
		t.Fatalf("current = %s, want login", a.nav.Current())
	}
}

func TestUnknownEvent(t *testing.T) {
	a := newTestApp(t)
	a.login(t, "ana", "pw")
	a.event(t, "home", map[string]any{"type": "dance"}, http.StatusBadRequest)
	a.event(t, "settings", map[string]any{"type": "unitChanged", "value": "STONE"}, http.StatusBadRequest)

	w := a.do(t, http.MethodPost, "/api/login/events", map[string]any{"type": "login", "extra": 1})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: status = %d, want 400", w.Code)
	}
}

func TestNavigateRequiresSession(t *testing.T) {
	a := newTestApp(t)
	w := a.do(t, http.MethodPost, "/api/nav/navigate", map[string]string{"to": "home"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	a.login(t, "ana", "pw")
	w = a.do(t, http.MethodPost, "/api/nav/navigate", map[string]string{"to": "login"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("home -> login: status = %d, want 400", w.Code)
	}
	w = a.do(t, http.MethodPost, "/api/nav/navigate", map[string]string{"to": "history"})
	if w.Code != http.StatusOK {
		t.Fatalf("home -> history: status = %d, body %s", w.Code, w.Body.String())
	}
	a.do(t, http.MethodPost, "/api/nav/back", nil)
	if a.nav.Current() != app.DestHome {
		t.Fatalf("after back current = %s", a.nav.Current())
	}
}

func TestScreensRequireSession(t *testing.T) {
	a := newTestApp(t)
	for _, screen := range []string{"home", "history", "add-weight", "set-goal", "settings"} {
		if w := a.do(t, http.MethodGet, "/api/"+screen, nil); w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s: status = %d, want 401", screen, w.Code)
		}
		a.event(t, screen, map[string]any{"type": "dance"}, http.StatusUnauthorized)
	}
	if w := a.do(t, http.MethodGet, "/api/login", nil); w.Code != http.StatusOK {
		t.Fatalf("GET login: status = %d, want 200", w.Code)
	}

	a.login(t, "ana", "pw")
	if w := a.do(t, http.MethodGet, "/api/home", nil); w.Code != http.StatusOK {
		t.Fatalf("GET home after login: status = %d", w.Code)
	}
}

func TestSessionSwitchHidesPreviousUser(t *testing.T) {
	a := newTestApp(t)
	a.login(t, "ana", "pw")
	ana := a.session.Current().ID

	a.event(t, "home", map[string]any{"type": "addWeightClicked"}, http.StatusOK)
	a.event(t, "add-weight", map[string]any{"type": "weightChanged", "value": "180"}, http.StatusOK)
	a.event(t, "add-weight", map[string]any{"type": "save"}, http.StatusOK)
	waitFor(t, func() bool { return len(a.screens.History.State().Entries) == 1 }, "ana's entry listed")
	waitFor(t, func() bool { return a.screens.Settings.State().Username == "ana" }, "settings bound")

	a.event(t, "settings", map[string]any{"type": "logout"}, http.StatusOK)
	a.login(t, "bo", "pw")
	bo := a.session.Current().ID

	// Read straight after the switch, before any subscription catches up.
	var hist history.State
	a.getJSON(t, "/api/history", &hist)
	if len(hist.Entries) != 0 || hist.UserID == ana {
		t.Fatalf("history after switch = %+v, want no rows of user %d", hist, ana)
	}
	var hm home.State
	a.getJSON(t, "/api/home", &hm)
	if hm.UserID == ana || hm.MostRecent != nil {
		t.Fatalf("home after switch = %+v", hm)
	}
	for _, w := range hm.Weights {
		if w.UserID != bo {
			t.Fatalf("home shows weight %d of user %d", w.ID, w.UserID)
		}
	}
	var st settings.State
	a.getJSON(t, "/api/settings", &st)
	if st.Username == "ana" {
		t.Fatalf("settings after switch = %+v", st)
	}

	waitFor(t, func() bool { return a.screens.Settings.State().Username == "bo" }, "settings bound to bo")
	a.getJSON(t, "/api/history", &hist)
	if len(hist.Entries) != 0 {
		t.Fatalf("bo sees entries %+v", hist.Entries)
	}
}

func TestDialogStaysOpenWhenSaveIgnored(t *testing.T) {
	a := newTestApp(t)
	a.login(t, "ana", "pw")

	a.event(t, "home", map[string]any{"type": "addWeightClicked"}, http.StatusOK)
	a.event(t, "add-weight", map[string]any{"type": "save"}, http.StatusOK)
	if !a.screens.Home.State().ShowAddWeight {
		t.Error("add-weight dialog closed after an empty save")
	}

	a.event(t, "home", map[string]any{"type": "setGoalClicked"}, http.StatusOK)
	a.event(t, "set-goal", map[string]any{"type": "goalWeightChanged", "value": ""}, http.StatusOK)
	a.event(t, "set-goal", map[string]any{"type": "save"}, http.StatusOK)
	if !a.screens.Home.State().ShowSetGoal {
		t.Error("set-goal dialog closed after an empty save")
	}

	rows, err := a.db.ListWeights(context.Background(), a.session.Current().ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %v, want none", rows)
	}
}

func TestAddWeightFlowPostsGoalNotification(t *testing.T) {
	a := newTestApp(t)
	a.login(t, "ana", "pw")
	uid := a.session.Current().ID

	a.event(t, "home", map[string]any{"type": "setGoalClicked"}, http.StatusOK)
	a.event(t, "set-goal", map[string]any{"type": "goalWeightChanged", "value": "190"}, http.StatusOK)
	a.event(t, "set-goal", map[string]any{"type": "save"}, http.StatusOK)

	out := a.event(t, "home", map[string]any{"type": "addWeightClicked"}, http.StatusOK)
	if out["showAddWeight"] != true {
		t.Fatalf("add-weight dialog not shown: %v", out)
	}
	a.event(t, "add-weight", map[string]any{"type": "weightChanged", "value": "185.5"}, http.StatusOK)
	a.event(t, "add-weight", map[string]any{"type": "save"}, http.StatusOK)

	if a.screens.Home.State().ShowAddWeight {
		t.Error("dialog should close after a successful save")
	}
	waitFor(t, func() bool {
		mr := a.screens.Home.State().MostRecent
		return mr != nil && mr.Value == 185.5 && mr.UserID == uid
	}, "home shows the new weight")

	w := a.do(t, http.MethodGet, "/api/notifications", nil)
	if !strings.Contains(w.Body.String(), "Congratulations! You reached your goal weight of 190.0.") {
		t.Fatalf("notifications body = %s", w.Body.String())
	}

	w = a.do(t, http.MethodDelete, "/api/notifications/1001", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("dismiss: status = %d", w.Code)
	}
	w = a.do(t, http.MethodDelete, "/api/notifications/1001", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second dismiss: status = %d, want 404", w.Code)
	}
}

func TestHistoryUnknownEntry(t *testing.T) {
	a := newTestApp(t)
	a.login(t, "ana", "pw")
	a.event(t, "history", map[string]any{"type": "deleteClicked", "id": 42}, http.StatusNotFound)
}

func TestSettingsLogoutReturnsToLogin(t *testing.T) {
	a := newTestApp(t)
	a.login(t, "ana", "pw")
	w := a.do(t, http.MethodPost, "/api/nav/navigate", map[string]string{"to": "settings"})
	if w.Code != http.StatusOK {
		t.Fatalf("navigate settings: %d", w.Code)
	}

	a.event(t, "settings", map[string]any{"type": "logout"}, http.StatusOK)
	if a.session.Current() != nil {
		t.Fatal("session not cleared")
	}
	if got := a.nav.Stack(); len(got) != 1 || got[0] != app.DestLogin {
		t.Fatalf("stack = %v, want [login]", got)
	}
	if s := a.screens.Login.State(); s.Username != "" || s.Status != login.StatusIdle {
		t.Fatalf("login not reset: %+v", s)
	}
}

func TestSettingsUsernameConflict(t *testing.T) {
	a := newTestApp(t)
	if _, err := a.db.Create(context.Background(), "bo", "", false); err != nil {
		t.Fatalf("seed: %v", err)
	}
	a.login(t, "ana", "pw")
	waitFor(t, func() bool { return a.screens.Settings.State().Username == "ana" }, "settings bound")

	a.event(t, "settings", map[string]any{"type": "newUsernameChanged", "value": "bo"}, http.StatusOK)
	a.event(t, "settings", map[string]any{"type": "currentPasswordChanged", "value": "pw"}, http.StatusOK)
	a.event(t, "settings", map[string]any{"type": "usernameChangeConfirmed"}, http.StatusConflict)
}

func TestSPAFallback(t *testing.T) {
	a := newTestApp(t)
	for _, p := range []string{"/", "/history", "/settings"} {
		w := a.do(t, http.MethodGet, p, nil)
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "daily weight") {
			t.Errorf("GET %s: status %d body %q", p, w.Code, w.Body.String())
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestApp(t)
	a.do(t, http.MethodGet, "/api/health", nil)
	w := a.do(t, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `dailyweight_http_requests_total{method="GET",route="/api/health",status="200"}`) {
		t.Errorf("metrics body missing health request counter")
	}
}
