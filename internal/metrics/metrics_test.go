package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHTTP_RecordsStatus(t *testing.T) {
	h := InstrumentHTTP(func(*http.Request) string { return "/teapot" },
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/teapot", "418"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	after := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/teapot", "418"))
	assert.Equal(t, before+1, after)
}

func TestCountersAndHandler(t *testing.T) {
	before := testutil.ToFloat64(goalNotifications.WithLabelValues("posted"))
	RecordGoalNotification("posted")
	RecordWeightSaved()
	assert.Equal(t, before+1, testutil.ToFloat64(goalNotifications.WithLabelValues("posted")))

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "dailyweight_weights_recorded_total"))
	assert.True(t, strings.Contains(body, "dailyweight_notifications_goal_reached_total"))
}
