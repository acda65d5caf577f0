package proactive

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigogots-alt/bigbadbotsbot/internal/goals"
	"github.com/vigogots-alt/bigbadbotsbot/internal/mind"
)

type fakeSender struct {
	sent []string
}

func (f *fakeSender) SendText(_ context.Context, _, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

func newTestAgent(t *testing.T) (*Agent, *fakeSender, *mind.User, *goals.Manager) {
	t.Helper()
	dir := t.TempDir()

	store, err := mind.Open(mind.Options{
		DataDir:          dir,
		AutoSaveInterval: time.Hour,
		Logger:           zerolog.Nop(),
		Defaults:         mind.GenDefaults{Temperature: 0.9, TopP: 0.9, MaxOutputTokens: 8192},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	gm, err := goals.Open(goals.Options{DataDir: dir, AutoSaveInterval: time.Hour, Logger: zerolog.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = gm.Close() })

	user := store.GetOrCreate("100")
	sender := &fakeSender{}
	agent := NewAgent("100", user, gm, sender, time.Minute, zerolog.Nop())
	return agent, sender, user, gm
}

func TestMorningWindowFiresWithinTolerance(t *testing.T) {
	agent, sender, _, _ := newTestAgent(t)
	ctx := context.Background()

	at := time.Date(2026, 3, 2, 9, 2, 0, 0, time.UTC)
	agent.checkWindows(ctx, at)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "Доброе утро")

	// A second tick inside the cooldown window stays silent.
	agent.checkWindows(ctx, at.Add(3*time.Minute))
	assert.Len(t, sender.sent, 1)

	// The next day it fires again.
	agent.checkWindows(ctx, at.Add(24*time.Hour))
	assert.Len(t, sender.sent, 2)
}

func TestWindowOutsideToleranceStaysSilent(t *testing.T) {
	agent, sender, _, _ := newTestAgent(t)

	agent.checkWindows(context.Background(), time.Date(2026, 3, 2, 9, 6, 0, 0, time.UTC))
	agent.checkWindows(context.Background(), time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC))
	assert.Empty(t, sender.sent)
}

func TestMorningGreetingMentionsTopGoal(t *testing.T) {
	agent, sender, _, gm := newTestAgent(t)
	gm.CreateGoal("100", "пробежать марафон", "", goals.PriorityHigh, nil)

	agent.checkWindows(context.Background(), time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "пробежать марафон")
}

func TestComebackFiresOncePerAbsence(t *testing.T) {
	agent, sender, user, _ := newTestAgent(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// Never seen: nothing to come back from.
	agent.checkComeback(ctx, now)
	assert.Empty(t, sender.sent)

	lastSeen := now.Add(-4 * 24 * time.Hour)
	user.LongTerm.LastSeenAt = &lastSeen

	agent.checkComeback(ctx, now)
	require.Len(t, sender.sent, 1)

	// Still absent an hour later: the mark already covers this gap.
	agent.checkComeback(ctx, now.Add(time.Hour))
	assert.Len(t, sender.sent, 1)

	// The user returns, then disappears again: a fresh ping fires.
	seenAgain := now.Add(2 * time.Hour)
	user.LongTerm.LastSeenAt = &seenAgain
	agent.checkComeback(ctx, seenAgain.Add(5*24*time.Hour))
	assert.Len(t, sender.sent, 2)
}

func TestLowMoodSupportMessageCooldown(t *testing.T) {
	agent, sender, user, _ := newTestAgent(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	agent.checkLowMood(ctx, now)
	assert.Empty(t, sender.sent, "neutral mood needs no support")

	for i := 0; i < 5; i++ {
		user.RecordMessage("всё плохо, просто ужас")
	}
	agent.checkLowMood(ctx, now)
	require.Len(t, sender.sent, 1)

	agent.checkLowMood(ctx, now.Add(2*time.Hour))
	assert.Len(t, sender.sent, 1, "cooldown holds for a day")

	agent.checkLowMood(ctx, now.Add(25*time.Hour))
	assert.Len(t, sender.sent, 2)
}

func TestOverdueGoalReminder(t *testing.T) {
	agent, sender, _, gm := newTestAgent(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// The manager checks deadlines against the wall clock, so the
	// deadline is pinned relative to it; cooldown marks use the test
	// timestamps.
	deadline := time.Now().UTC().Add(-time.Hour)
	gm.CreateGoal("100", "сдать отчёт", "", goals.PriorityHigh, &deadline)

	agent.checkOverdueGoals(ctx, now)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "сдать отчёт")

	agent.checkOverdueGoals(ctx, now.Add(time.Hour))
	assert.Len(t, sender.sent, 1)

	agent.checkOverdueGoals(ctx, now.Add(25*time.Hour))
	assert.Len(t, sender.sent, 2)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	agent, _, _, _ := newTestAgent(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- agent.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("agent did not stop after cancellation")
	}
}
