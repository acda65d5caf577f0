// Package jobmgr runs named background jobs with cooperative
// cancellation and in-memory tracking. Jobs run in their own goroutines
// under a shared parent context and remove themselves on completion.
package jobmgr

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

type job struct {
	name   string
	cancel context.CancelFunc
}

// Manager orchestrates starting, stopping and tracking jobs. Safe for
// concurrent use.
type Manager struct {
	mu     sync.Mutex
	jobs   map[string]*job
	parent context.Context
	log    zerolog.Logger
}

// NewManager creates a manager whose jobs inherit from parent: when
// parent is cancelled, every job's context is too.
func NewManager(parent context.Context, logger zerolog.Logger) *Manager {
	if parent == nil {
		parent = context.Background()
	}
	return &Manager{
		jobs:   make(map[string]*job),
		parent: parent,
		log:    logger.With().Str("comp", "jobmgr").Logger(),
	}
}

// StartAsync launches a named job. Starting a name that is already
// running is an error. The job is removed when its runner returns.
func (m *Manager) StartAsync(name string, runner func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(m.parent)

	m.mu.Lock()
	if _, exists := m.jobs[name]; exists {
		m.mu.Unlock()
		cancel()
		return fmt.Errorf("job %q is already running", name)
	}
	m.jobs[name] = &job{name: name, cancel: cancel}
	m.mu.Unlock()

	go func() {
		m.log.Debug().Str("job", name).Msg("job started")
		if err := runner(ctx); err != nil && ctx.Err() == nil {
			m.log.Error().Err(err).Str("job", name).Msg("job failed")
		} else {
			m.log.Debug().Str("job", name).Msg("job finished")
		}

		m.mu.Lock()
		delete(m.jobs, name)
		m.mu.Unlock()
		cancel()
	}()

	return nil
}

// Stop cancels a running job by name.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[name]
	if !ok {
		return fmt.Errorf("job %q not running", name)
	}
	j.cancel()
	delete(m.jobs, name)
	return nil
}

// Running reports whether a job with the given name is active.
func (m *Manager) Running(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jobs[name]
	return ok
}

// StopAll cancels every running job.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, j := range m.jobs {
		j.cancel()
		delete(m.jobs, name)
	}
}

// List returns the sorted names of active jobs.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.jobs))
	for name := range m.jobs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
