package goals

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vigogots-alt/bigbadbotsbot/datastore"
)

const goalsFile = "goals.json"

var (
	ErrGoalNotFound      = errors.New("goal not found")
	ErrMilestoneNotFound = errors.New("milestone not found")
)

// ownerRecord is the persisted per-owner document.
type ownerRecord struct {
	Goals        []*Goal       `json:"goals"`
	Achievements []Achievement `json:"achievements"`
}

// Options configures a Manager.
type Options struct {
	DataDir          string
	AutoSaveInterval time.Duration
	Logger           zerolog.Logger

	// FailOverdueAfter, when non-zero, makes SweepOverdue fail ACTIVE
	// goals whose deadline passed at least this long ago. Disabled by
	// default: no automatic transition into FAILED exists otherwise.
	FailOverdueAfter time.Duration
}

// Manager owns all goal entities, keyed by owner.
type Manager struct {
	mu           sync.Mutex
	goals        map[string][]*Goal
	achievements map[string][]Achievement

	store *datastore.DataStore
	log   zerolog.Logger
	opts  Options

	now func() time.Time
}

// Open loads the goals document and returns a ready manager.
func Open(opts Options) (*Manager, error) {
	cfg := datastore.DefaultConfig(filepath.Join(opts.DataDir, goalsFile))
	cfg.Logger = opts.Logger
	if opts.AutoSaveInterval > 0 {
		cfg.AutoSaveInterval = opts.AutoSaveInterval
	}
	store, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open goals store: %w", err)
	}

	m := &Manager{
		goals:        map[string][]*Goal{},
		achievements: map[string][]Achievement{},
		store:        store,
		log:          opts.Logger.With().Str("comp", "goals").Logger(),
		opts:         opts,
		now:          func() time.Time { return time.Now().UTC() },
	}

	for _, owner := range store.Keys() {
		raw, ok := store.Get(owner)
		if !ok {
			continue
		}
		data, err := json.Marshal(raw)
		if err != nil {
			m.log.Warn().Err(err).Str("owner", owner).Msg("skipping corrupt goals record")
			continue
		}
		var rec ownerRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			m.log.Warn().Err(err).Str("owner", owner).Msg("skipping corrupt goals record")
			continue
		}
		m.goals[owner] = rec.Goals
		m.achievements[owner] = rec.Achievements
	}
	return m, nil
}

// Flush persists every owner's record and forces a disk write.
func (m *Manager) Flush() error {
	m.mu.Lock()
	for owner := range m.goals {
		m.persistLocked(owner)
	}
	m.mu.Unlock()
	return m.store.SaveToFile()
}

// Close flushes and releases the underlying document.
func (m *Manager) Close() error {
	if err := m.Flush(); err != nil {
		m.log.Error().Err(err).Msg("final goals flush failed")
	}
	return m.store.Close()
}

func (m *Manager) persistLocked(owner string) {
	rec := ownerRecord{Goals: m.goals[owner], Achievements: m.achievements[owner]}
	data, err := json.Marshal(rec)
	if err != nil {
		m.log.Error().Err(err).Str("owner", owner).Msg("goals snapshot marshal failed")
		return
	}
	m.store.Add(owner, json.RawMessage(data))
}

// CreateGoal registers a new ACTIVE goal. It always succeeds.
func (m *Manager) CreateGoal(owner, title, description string, priority Priority, deadline *time.Time) *Goal {
	if priority < PriorityCritical || priority > PriorityLow {
		priority = PriorityMedium
	}
	now := m.now()
	g := &Goal{
		ID:          goalID(owner, now),
		Owner:       owner,
		Title:       title,
		Description: description,
		Priority:    priority,
		Status:      StatusActive,
		Deadline:    deadline,
		Milestones:  []Milestone{},
		CheckIns:    []CheckIn{},
		CreatedAt:   now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.goals[owner] = append(m.goals[owner], g)
	m.checkAchievementsLocked(owner, now)
	m.persistLocked(owner)
	m.log.Info().Str("owner", owner).Str("goal", g.ID).Str("title", title).Msg("goal created")
	return cloneGoal(g)
}

// Get returns a copy of the goal with the given id.
func (m *Manager) Get(owner, goalID string) (*Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, err := m.findLocked(owner, goalID)
	if err != nil {
		return nil, err
	}
	return cloneGoal(g), nil
}

// List returns copies of all of owner's goals.
func (m *Manager) List(owner string) []*Goal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Goal, 0, len(m.goals[owner]))
	for _, g := range m.goals[owner] {
		out = append(out, cloneGoal(g))
	}
	return out
}

// Active returns copies of owner's ACTIVE goals.
func (m *Manager) Active(owner string) []*Goal {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Goal
	for _, g := range m.goals[owner] {
		if g.Status == StatusActive {
			out = append(out, cloneGoal(g))
		}
	}
	return out
}

// AddMilestone appends a milestone and recomputes progress from the
// completed ratio.
func (m *Manager) AddMilestone(owner, goalID, title, description string) (*Milestone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, err := m.findLocked(owner, goalID)
	if err != nil {
		return nil, err
	}
	ms := Milestone{ID: len(g.Milestones) + 1, Title: title, Description: description}
	g.Milestones = append(g.Milestones, ms)
	g.recomputeProgress()
	m.persistLocked(owner)
	return &ms, nil
}

// CompleteMilestone marks a milestone done, recomputes progress, and
// completes the goal when progress first reaches 1.0.
func (m *Manager) CompleteMilestone(owner, goalID string, milestoneID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, err := m.findLocked(owner, goalID)
	if err != nil {
		return err
	}
	now := m.now()
	for i := range g.Milestones {
		if g.Milestones[i].ID != milestoneID {
			continue
		}
		if !g.Milestones[i].Completed {
			g.Milestones[i].Completed = true
			ts := now
			g.Milestones[i].CompletedAt = &ts
		}
		g.recomputeProgress()
		if g.Progress >= 1.0 && g.Status == StatusActive {
			g.complete(now)
			m.checkAchievementsLocked(owner, now)
			m.log.Info().Str("goal", g.ID).Msg("goal completed")
		}
		m.persistLocked(owner)
		return nil
	}
	return ErrMilestoneNotFound
}

// CheckIn records a progress report: the entry keeps the progress value
// before the delta, then the delta is applied, clamped at 1.0, with
// auto-complete on reaching it.
func (m *Manager) CheckIn(owner, goalID, note, mood string, delta float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, err := m.findLocked(owner, goalID)
	if err != nil {
		return err
	}
	now := m.now()
	g.CheckIns = append(g.CheckIns, CheckIn{
		TS:             now,
		Note:           note,
		Mood:           mood,
		ProgressBefore: g.Progress,
		Delta:          delta,
	})
	g.Progress = min(1.0, g.Progress+delta)
	if g.Progress >= 1.0 && g.Status == StatusActive {
		g.complete(now)
		m.checkAchievementsLocked(owner, now)
		m.log.Info().Str("goal", g.ID).Msg("goal completed")
	}
	m.persistLocked(owner)
	return nil
}

// Pause suspends an ACTIVE goal.
func (m *Manager) Pause(owner, goalID string) error {
	return m.transition(owner, goalID, StatusActive, StatusPaused)
}

// Resume reactivates a PAUSED goal; any other status is a no-op.
func (m *Manager) Resume(owner, goalID string) error {
	return m.transition(owner, goalID, StatusPaused, StatusActive)
}

// Fail marks a goal FAILED. This is the only built-in path into the
// status besides the opt-in overdue policy.
func (m *Manager) Fail(owner, goalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, err := m.findLocked(owner, goalID)
	if err != nil {
		return err
	}
	g.Status = StatusFailed
	m.persistLocked(owner)
	m.log.Info().Str("goal", g.ID).Msg("goal failed")
	return nil
}

// Archive retires a goal.
func (m *Manager) Archive(owner, goalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, err := m.findLocked(owner, goalID)
	if err != nil {
		return err
	}
	g.Status = StatusArchived
	m.persistLocked(owner)
	return nil
}

func (m *Manager) transition(owner, goalID string, from, to Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, err := m.findLocked(owner, goalID)
	if err != nil {
		return err
	}
	if g.Status != from {
		return nil
	}
	g.Status = to
	m.persistLocked(owner)
	return nil
}

// Overdue returns copies of owner's overdue goals.
func (m *Manager) Overdue(owner string) []*Goal {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var out []*Goal
	for _, g := range m.goals[owner] {
		if g.IsOverdue(now) {
			out = append(out, cloneGoal(g))
		}
	}
	return out
}

// SweepOverdue applies the FailOverdueAfter policy across all owners.
// With a zero policy duration it does nothing.
func (m *Manager) SweepOverdue() int {
	if m.opts.FailOverdueAfter <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	var failed int
	for owner, list := range m.goals {
		var touched bool
		for _, g := range list {
			if g.IsOverdue(now) && now.Sub(*g.Deadline) >= m.opts.FailOverdueAfter {
				g.Status = StatusFailed
				failed++
				touched = true
				m.log.Info().Str("goal", g.ID).Msg("goal failed by overdue policy")
			}
		}
		if touched {
			m.persistLocked(owner)
		}
	}
	return failed
}

// SuggestNextAction picks the most urgent active goal (lowest priority
// number, then highest progress) and returns its first incomplete
// milestone title, or a generic progress prompt.
func (m *Manager) SuggestNextAction(owner string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var active []*Goal
	for _, g := range m.goals[owner] {
		if g.Status == StatusActive {
			active = append(active, g)
		}
	}
	if len(active) == 0 {
		return "Нет активных целей. Создай новую через /addgoal"
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Priority != active[j].Priority {
			return active[i].Priority < active[j].Priority
		}
		return active[i].Progress > active[j].Progress
	})
	top := active[0]
	for _, ms := range top.Milestones {
		if !ms.Completed {
			return fmt.Sprintf("Следующий шаг по «%s»: %s", top.Title, ms.Title)
		}
	}
	return fmt.Sprintf("Обнови прогресс по «%s» через /checkin", top.Title)
}

// Stats aggregates owner's goals for reports.
type Stats struct {
	Total       int
	ByStatus    map[Status]int
	AvgProgress float64
}

// OwnerStats computes status counts and average progress across the
// owner's ACTIVE goals.
func (m *Manager) OwnerStats(owner string) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Stats{ByStatus: map[Status]int{}}
	var activeSum float64
	var activeCount int
	for _, g := range m.goals[owner] {
		st.Total++
		st.ByStatus[g.Status]++
		if g.Status == StatusActive {
			activeSum += g.Progress
			activeCount++
		}
	}
	if activeCount > 0 {
		st.AvgProgress = activeSum / float64(activeCount)
	}
	return st
}

// Achievements returns copies of owner's awarded achievements.
func (m *Manager) Achievements(owner string) []Achievement {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Achievement(nil), m.achievements[owner]...)
}

// checkAchievementsLocked awards each achievement kind at most once:
// first completed goal, tenth completed goal, any goal completed within
// 24 hours of creation.
func (m *Manager) checkAchievementsLocked(owner string, now time.Time) {
	var completed int
	var fast bool
	for _, g := range m.goals[owner] {
		if g.Status != StatusCompleted {
			continue
		}
		completed++
		if g.CompletedAt != nil && g.CompletedAt.Sub(g.CreatedAt) < 24*time.Hour {
			fast = true
		}
	}

	if completed >= 1 {
		m.awardLocked(owner, AchievementFirstGoal, "Первая завершённая цель", now)
	}
	if completed >= 10 {
		m.awardLocked(owner, AchievementGoalMaster, "10 завершённых целей", now)
	}
	if fast {
		m.awardLocked(owner, AchievementSpeedDemon, "Цель закрыта за сутки", now)
	}
}

func (m *Manager) awardLocked(owner, kind, title string, now time.Time) {
	for _, a := range m.achievements[owner] {
		if a.Kind == kind {
			return
		}
	}
	m.achievements[owner] = append(m.achievements[owner], Achievement{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     title,
		AwardedAt: now,
	})
	m.log.Info().Str("owner", owner).Str("kind", kind).Msg("achievement awarded")
}

func (m *Manager) findLocked(owner, goalID string) (*Goal, error) {
	for _, g := range m.goals[owner] {
		if g.ID == goalID {
			return g, nil
		}
	}
	return nil, ErrGoalNotFound
}

func cloneGoal(g *Goal) *Goal {
	cp := *g
	cp.Milestones = append([]Milestone(nil), g.Milestones...)
	cp.CheckIns = append([]CheckIn(nil), g.CheckIns...)
	return &cp
}
