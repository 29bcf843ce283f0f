package setgoal_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dailyweight/internal/app"
	"dailyweight/internal/app/apptest"
	"dailyweight/internal/app/setgoal"
	"dailyweight/internal/domain"
)

func TestSetGoal_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := apptest.NewStores(t)
	u := apptest.MustUser(t, st.DB, "ana", "pw")
	require.NoError(t, st.Prefs.SetUnit(ctx, u.ID, domain.KGS))
	session := app.NewSession()
	session.Login(u)
	c := setgoal.New(session, st.DB, st.Prefs, nil)

	require.NoError(t, c.OnEvent(ctx, setgoal.Opened{}))
	assert.Empty(t, c.State().GoalWeight)
	assert.Equal(t, domain.KGS, c.State().Unit)

	require.NoError(t, c.OnEvent(ctx, setgoal.GoalWeightChanged{GoalWeight: "75"}))
	require.NoError(t, c.OnEvent(ctx, setgoal.SaveClicked{}))
	assert.Empty(t, c.State().GoalWeight)

	g, err := st.DB.GoalForUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, 75.0, g.GoalWeight)

	// Reopening prefills the saved goal.
	require.NoError(t, c.OnEvent(ctx, setgoal.Opened{}))
	assert.Equal(t, "75.0", c.State().GoalWeight)
}

func TestSetGoal_ReplacesExisting(t *testing.T) {
	ctx := context.Background()
	st := apptest.NewStores(t)
	u := apptest.MustUser(t, st.DB, "ana", "pw")
	session := app.NewSession()
	session.Login(u)
	c := setgoal.New(session, st.DB, st.Prefs, nil)

	for _, v := range []string{"180", "175.5"} {
		require.NoError(t, c.OnEvent(ctx, setgoal.GoalWeightChanged{GoalWeight: v}))
		require.NoError(t, c.OnEvent(ctx, setgoal.SaveClicked{}))
	}
	g, err := st.DB.GoalForUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, 175.5, g.GoalWeight)
}

func TestSetGoal_InvalidInputIgnored(t *testing.T) {
	ctx := context.Background()
	st := apptest.NewStores(t)
	u := apptest.MustUser(t, st.DB, "ana", "pw")
	session := app.NewSession()
	session.Login(u)
	c := setgoal.New(session, st.DB, st.Prefs, nil)

	require.NoError(t, c.OnEvent(ctx, setgoal.GoalWeightChanged{GoalWeight: "-3"}))
	require.NoError(t, c.OnEvent(ctx, setgoal.SaveClicked{}))
	assert.Equal(t, "-3", c.State().GoalWeight)

	g, err := st.DB.GoalForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestSetGoal_SaveReportsWhetherStored(t *testing.T) {
	ctx := context.Background()
	st := apptest.NewStores(t)
	u := apptest.MustUser(t, st.DB, "ana", "pw")
	session := app.NewSession()
	c := setgoal.New(session, st.DB, st.Prefs, nil)

	require.NoError(t, c.OnEvent(ctx, setgoal.GoalWeightChanged{GoalWeight: "165"}))
	saved, err := c.Save(ctx)
	require.NoError(t, err)
	assert.False(t, saved, "saved without a user")

	session.Login(u)
	require.NoError(t, c.OnEvent(ctx, setgoal.GoalWeightChanged{GoalWeight: ""}))
	saved, err = c.Save(ctx)
	require.NoError(t, err)
	assert.False(t, saved, "saved an empty goal")

	require.NoError(t, c.OnEvent(ctx, setgoal.GoalWeightChanged{GoalWeight: "165"}))
	saved, err = c.Save(ctx)
	require.NoError(t, err)
	assert.True(t, saved)

	g, err := st.DB.GoalForUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, 165.0, g.GoalWeight)
}
