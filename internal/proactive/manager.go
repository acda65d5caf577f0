package proactive

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vigogots-alt/bigbadbotsbot/internal/goals"
	"github.com/vigogots-alt/bigbadbotsbot/internal/mind"
	"github.com/vigogots-alt/bigbadbotsbot/pkg/jobmgr"
)

// Manager supervises one agent per user under cancellable jobs.
type Manager struct {
	store    *mind.Store
	goals    *goals.Manager
	sender   Sender
	jobs     *jobmgr.Manager
	interval time.Duration
	log      zerolog.Logger
}

// NewManager wires the supervisor. Agents inherit ctx: cancelling it
// stops every loop.
func NewManager(ctx context.Context, store *mind.Store, gm *goals.Manager, sender Sender, interval time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		store:    store,
		goals:    gm,
		sender:   sender,
		jobs:     jobmgr.NewManager(ctx, logger),
		interval: interval,
		log:      logger.With().Str("comp", "proactive").Logger(),
	}
}

func jobName(userID string) string { return "proactive:" + userID }

// Start launches the agent for userID; already-running is a no-op.
func (m *Manager) Start(userID string) {
	agent := NewAgent(userID, m.store.GetOrCreate(userID), m.goals, m.sender, m.interval, m.log)
	if err := m.jobs.StartAsync(jobName(userID), agent.Run); err != nil {
		return
	}
	m.log.Info().Str("user", userID).Msg("proactive agent started")
}

// Stop cancels the agent for userID on its next tick boundary.
func (m *Manager) Stop(userID string) {
	if err := m.jobs.Stop(jobName(userID)); err == nil {
		m.log.Info().Str("user", userID).Msg("proactive agent stopped")
	}
}

// Toggle flips the agent and reports the resulting state.
func (m *Manager) Toggle(userID string) bool {
	if m.Running(userID) {
		m.Stop(userID)
		return false
	}
	m.Start(userID)
	return true
}

// Running reports whether userID has an active agent.
func (m *Manager) Running(userID string) bool {
	return m.jobs.Running(jobName(userID))
}

// StopAll cancels every agent; used at shutdown.
func (m *Manager) StopAll() {
	m.jobs.StopAll()
}
