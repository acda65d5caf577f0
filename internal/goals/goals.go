// Package goals tracks structured goal entities with milestones,
// check-ins, status transitions and achievements, independent of the
// free-text goal mentions in the user profile.
package goals

import (
	"fmt"
	"time"
)

// Status is a goal's lifecycle state.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusPaused    Status = "PAUSED"
	StatusFailed    Status = "FAILED"
	StatusArchived  Status = "ARCHIVED"
)

// Priority orders goals; 1 is most urgent.
type Priority int

const (
	PriorityCritical Priority = 1
	PriorityHigh     Priority = 2
	PriorityMedium   Priority = 3
	PriorityLow      Priority = 4
)

// Milestone is a named sub-task contributing to goal progress.
type Milestone struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CheckIn is one progress report against a goal. ProgressBefore is the
// value prior to applying Delta.
type CheckIn struct {
	TS             time.Time `json:"ts"`
	Note           string    `json:"note,omitempty"`
	Mood           string    `json:"mood,omitempty"`
	ProgressBefore float64   `json:"progress_before"`
	Delta          float64   `json:"delta"`
}

// Goal is one tracked goal entity.
type Goal struct {
	ID          string      `json:"id"`
	Owner       string      `json:"owner"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Priority    Priority    `json:"priority"`
	Status      Status      `json:"status"`
	Progress    float64     `json:"progress"`
	Deadline    *time.Time  `json:"deadline,omitempty"`
	Milestones  []Milestone `json:"milestones"`
	CheckIns    []CheckIn   `json:"check_ins"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// Achievement is an awarded badge. Each kind is granted at most once
// per owner.
type Achievement struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	AwardedAt time.Time `json:"awarded_at"`
}

// Achievement kinds.
const (
	AchievementFirstGoal  = "first_goal"
	AchievementGoalMaster = "goal_master"
	AchievementSpeedDemon = "speed_demon"
)

func goalID(owner string, ts time.Time) string {
	return fmt.Sprintf("goal_%s_%d", owner, ts.UnixNano())
}

// recomputeProgress derives progress from the completed-milestone ratio
// when milestones exist; check-in driven progress is left untouched
// otherwise.
func (g *Goal) recomputeProgress() {
	if len(g.Milestones) == 0 {
		return
	}
	var done int
	for _, m := range g.Milestones {
		if m.Completed {
			done++
		}
	}
	g.Progress = float64(done) / float64(len(g.Milestones))
}

// complete finalizes the goal: progress pinned to 1.0, status
// COMPLETED, completion timestamp set.
func (g *Goal) complete(now time.Time) {
	g.Status = StatusCompleted
	g.Progress = 1.0
	ts := now
	g.CompletedAt = &ts
}

// IsOverdue reports whether the goal has a deadline in the past while
// still ACTIVE. Completed and paused goals are never overdue.
func (g *Goal) IsOverdue(now time.Time) bool {
	return g.Deadline != nil && now.After(*g.Deadline) && g.Status == StatusActive
}
