package prefs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailyweight/internal/adapter/prefs"
	"dailyweight/internal/domain"
)

func TestDefaults(t *testing.T) {
	s, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.yaml"), nil)
	require.NoError(t, err)

	u, err := s.Unit(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.LBS, u)

	on, err := s.GoalNotification(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestWritesPersistAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")

	s, err := prefs.Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.SetUnit(ctx, 7, domain.KGS))
	require.NoError(t, s.SetGoalNotification(ctx, 7, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "weight_unit_7: KGS")
	assert.Contains(t, string(data), "goal_notification_7: true")

	reopened, err := prefs.Open(path, nil)
	require.NoError(t, err)
	u, _ := reopened.Unit(ctx, 7)
	on, _ := reopened.GoalNotification(ctx, 7)
	assert.Equal(t, domain.KGS, u)
	assert.True(t, on)

	// Preferences are per user.
	other, _ := reopened.Unit(ctx, 8)
	assert.Equal(t, domain.LBS, other)
}

func TestSetUnit_RejectsUnknown(t *testing.T) {
	s, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.yaml"), nil)
	require.NoError(t, err)
	assert.Error(t, s.SetUnit(context.Background(), 1, domain.WeightUnit("stones")))
}

func TestBadStoredUnitFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weight_unit_1: stones\n"), 0o644))

	s, err := prefs.Open(path, nil)
	require.NoError(t, err)
	u, err := s.Unit(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.LBS, u)
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("[unclosed"), 0o644))
	_, err := prefs.Open(path, nil)
	assert.Error(t, err)
}

func TestWatchUnit_EmitsOnChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.yaml"), nil)
	require.NoError(t, err)

	ch := s.WatchUnit(ctx, 3)
	select {
	case u := <-ch:
		assert.Equal(t, domain.LBS, u)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial emission")
	}

	require.NoError(t, s.SetUnit(ctx, 3, domain.KGS))
	select {
	case u := <-ch:
		assert.Equal(t, domain.KGS, u)
	case <-time.After(2 * time.Second):
		t.Fatal("no emission after SetUnit")
	}
}
