package goals

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock hands out strictly increasing timestamps so goal ids never
// collide and durations stay deterministic.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time {
	c.current = c.current.Add(time.Second)
	return c.current
}

func (c *fakeClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestManager(t *testing.T, opts Options) (*Manager, *fakeClock) {
	t.Helper()
	opts.DataDir = t.TempDir()
	opts.AutoSaveInterval = time.Hour
	opts.Logger = zerolog.Nop()

	m, err := Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	clock := &fakeClock{current: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m.now = clock.now
	return m, clock
}

func TestCreateGoalDefaults(t *testing.T) {
	m, _ := newTestManager(t, Options{})

	g := m.CreateGoal("u1", "выучить го", "", Priority(99), nil)
	assert.Equal(t, StatusActive, g.Status)
	assert.Equal(t, PriorityMedium, g.Priority)
	assert.Zero(t, g.Progress)
	assert.NotEmpty(t, g.ID)

	list := m.List("u1")
	require.Len(t, list, 1)
	assert.Equal(t, "выучить го", list[0].Title)
}

func TestMilestonesDriveProgressAndCompletion(t *testing.T) {
	m, _ := newTestManager(t, Options{})
	g := m.CreateGoal("u1", "запустить проект", "", PriorityHigh, nil)

	ms1, err := m.AddMilestone("u1", g.ID, "прототип", "")
	require.NoError(t, err)
	ms2, err := m.AddMilestone("u1", g.ID, "релиз", "")
	require.NoError(t, err)
	assert.Equal(t, 1, ms1.ID)
	assert.Equal(t, 2, ms2.ID)

	require.NoError(t, m.CompleteMilestone("u1", g.ID, ms1.ID))
	got, err := m.Get("u1", g.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got.Progress, 1e-9)
	assert.Equal(t, StatusActive, got.Status)

	require.NoError(t, m.CompleteMilestone("u1", g.ID, ms2.ID))
	got, err = m.Get("u1", g.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.Progress, 1e-9)
	assert.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)

	assert.ErrorIs(t, m.CompleteMilestone("u1", g.ID, 99), ErrMilestoneNotFound)
}

func TestCheckInClampsAndAutoCompletes(t *testing.T) {
	m, _ := newTestManager(t, Options{})
	g := m.CreateGoal("u1", "накопить подушку", "", PriorityMedium, nil)

	require.NoError(t, m.CheckIn("u1", g.ID, "первый взнос", "ровно", 0.4))
	got, _ := m.Get("u1", g.ID)
	assert.InDelta(t, 0.4, got.Progress, 1e-9)
	require.Len(t, got.CheckIns, 1)
	assert.InDelta(t, 0.0, got.CheckIns[0].ProgressBefore, 1e-9)

	require.NoError(t, m.CheckIn("u1", g.ID, "", "", 0.9))
	got, _ = m.Get("u1", g.ID)
	assert.InDelta(t, 1.0, got.Progress, 1e-9)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.InDelta(t, 0.4, got.CheckIns[1].ProgressBefore, 1e-9)
}

func TestPauseResumeTransitions(t *testing.T) {
	m, _ := newTestManager(t, Options{})
	g := m.CreateGoal("u1", "цель", "", PriorityMedium, nil)

	require.NoError(t, m.Pause("u1", g.ID))
	got, _ := m.Get("u1", g.ID)
	assert.Equal(t, StatusPaused, got.Status)

	// Pausing a paused goal is a no-op, not an error.
	require.NoError(t, m.Pause("u1", g.ID))

	require.NoError(t, m.Resume("u1", g.ID))
	got, _ = m.Get("u1", g.ID)
	assert.Equal(t, StatusActive, got.Status)

	// Resume on an ACTIVE goal changes nothing.
	require.NoError(t, m.Resume("u1", g.ID))
	got, _ = m.Get("u1", g.ID)
	assert.Equal(t, StatusActive, got.Status)
}

func TestFailIsExplicitOnly(t *testing.T) {
	m, clock := newTestManager(t, Options{})
	deadline := clock.current.Add(time.Hour)
	g := m.CreateGoal("u1", "сгорающая цель", "", PriorityMedium, &deadline)

	clock.advance(48 * time.Hour)
	require.Len(t, m.Overdue("u1"), 1)

	// Without the policy the overdue goal stays ACTIVE.
	assert.Zero(t, m.SweepOverdue())
	got, _ := m.Get("u1", g.ID)
	assert.Equal(t, StatusActive, got.Status)

	require.NoError(t, m.Fail("u1", g.ID))
	got, _ = m.Get("u1", g.ID)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Empty(t, m.Overdue("u1"))
}

func TestSweepOverduePolicy(t *testing.T) {
	m, clock := newTestManager(t, Options{FailOverdueAfter: 24 * time.Hour})
	deadline := clock.current.Add(time.Hour)
	g := m.CreateGoal("u1", "цель с дедлайном", "", PriorityMedium, &deadline)

	clock.advance(2 * time.Hour)
	assert.Zero(t, m.SweepOverdue(), "grace period not over yet")

	clock.advance(30 * time.Hour)
	assert.Equal(t, 1, m.SweepOverdue())
	got, _ := m.Get("u1", g.ID)
	assert.Equal(t, StatusFailed, got.Status)
}

func TestSuggestNextAction(t *testing.T) {
	m, _ := newTestManager(t, Options{})
	assert.Equal(t, "Нет активных целей. Создай новую через /addgoal", m.SuggestNextAction("u1"))

	m.CreateGoal("u1", "второстепенная", "", PriorityLow, nil)
	crit := m.CreateGoal("u1", "главная", "", PriorityCritical, nil)
	_, err := m.AddMilestone("u1", crit.ID, "первый шаг", "")
	require.NoError(t, err)

	assert.Equal(t, "Следующий шаг по «главная»: первый шаг", m.SuggestNextAction("u1"))

	require.NoError(t, m.CompleteMilestone("u1", crit.ID, 1))
	// The critical goal completed; the remaining one has no milestones.
	assert.Equal(t, "Обнови прогресс по «второстепенная» через /checkin", m.SuggestNextAction("u1"))
}

func TestAchievementsAwardedOnce(t *testing.T) {
	m, _ := newTestManager(t, Options{})

	g1 := m.CreateGoal("u1", "первая", "", PriorityMedium, nil)
	require.NoError(t, m.CheckIn("u1", g1.ID, "", "", 1.0))

	got := m.Achievements("u1")
	kinds := map[string]int{}
	for _, a := range got {
		kinds[a.Kind]++
	}
	assert.Equal(t, 1, kinds[AchievementFirstGoal])
	assert.Equal(t, 1, kinds[AchievementSpeedDemon], "completed within a day of creation")

	g2 := m.CreateGoal("u1", "вторая", "", PriorityMedium, nil)
	require.NoError(t, m.CheckIn("u1", g2.ID, "", "", 1.0))
	got = m.Achievements("u1")
	kinds = map[string]int{}
	for _, a := range got {
		kinds[a.Kind]++
	}
	assert.Equal(t, 1, kinds[AchievementFirstGoal], "never re-awarded")
}

func TestOwnerStats(t *testing.T) {
	m, _ := newTestManager(t, Options{})
	a := m.CreateGoal("u1", "а", "", PriorityMedium, nil)
	b := m.CreateGoal("u1", "б", "", PriorityMedium, nil)
	require.NoError(t, m.CheckIn("u1", a.ID, "", "", 0.5))
	require.NoError(t, m.Pause("u1", b.ID))

	st := m.OwnerStats("u1")
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.ByStatus[StatusActive])
	assert.Equal(t, 1, st.ByStatus[StatusPaused])
	assert.InDelta(t, 0.5, st.AvgProgress, 1e-9)
}

func TestManagerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	opts := Options{DataDir: dir, AutoSaveInterval: time.Hour, Logger: zerolog.Nop()}

	m, err := Open(opts)
	require.NoError(t, err)

	g := m.CreateGoal("u1", "переживёт рестарт", "описание", PriorityHigh, nil)
	_, err = m.AddMilestone("u1", g.ID, "шаг", "")
	require.NoError(t, err)
	require.NoError(t, m.Close())

	reopened, err := Open(opts)
	require.NoError(t, err)
	defer reopened.Close()

	list := reopened.List("u1")
	require.Len(t, list, 1)
	assert.Equal(t, g.ID, list[0].ID)
	assert.Equal(t, "переживёт рестарт", list[0].Title)
	require.Len(t, list[0].Milestones, 1)
	assert.Equal(t, PriorityHigh, list[0].Priority)
}
