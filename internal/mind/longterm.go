package mind

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const summaryGate = 7 * 24 * time.Hour

// confirmGoals bumps occurrence counters and promotes a goal phrase on
// exactly the third mention. Confirmed lists are monotonic and
// deduplicated.
func (u *User) confirmGoals(goals []string) {
	lt := u.LongTerm
	for _, g := range goals {
		lt.GoalCounts[g]++
		if lt.GoalCounts[g] >= goalConfirmThreshold && !contains(lt.ConfirmedGoals, g) {
			lt.ConfirmedGoals = append(lt.ConfirmedGoals, g)
			u.log.Info().Str("goal", g).Msg("goal confirmed")
		}
	}
}

// confirmHabits promotes a habit phrase on exactly the fifth mention.
func (u *User) confirmHabits(habits []string) {
	lt := u.LongTerm
	for _, h := range habits {
		lt.HabitCounts[h]++
		if lt.HabitCounts[h] >= habitConfirmThreshold && !contains(lt.ConfirmedHabits, h) {
			lt.ConfirmedHabits = append(lt.ConfirmedHabits, h)
			u.log.Info().Str("habit", h).Msg("habit confirmed")
		}
	}
}

func (u *User) updateThemes(tags []string) {
	for _, tag := range tags {
		u.LongTerm.MonthlyThemeCounts[tag]++
	}
}

// makeMonthlySummary snapshots the top themes at most once per seven
// days.
func (u *User) makeMonthlySummary(now time.Time) {
	lt := u.LongTerm
	if lt.LastSummaryAt != nil && now.Sub(*lt.LastSummaryAt) < summaryGate {
		return
	}

	lt.MonthlySummaries = append(lt.MonthlySummaries, MonthlySummary{
		CreatedAt:          now,
		TopThemes:          topThemes(lt.MonthlyThemeCounts, 5),
		Goals:              tailStrings(lt.ConfirmedGoals, 5),
		Habits:             tailStrings(lt.ConfirmedHabits, 5),
		WeeklyFinanceScore: lt.WeeklyFinanceScore,
	})
	ts := now
	lt.LastSummaryAt = &ts
	u.log.Info().Msg("monthly summary generated")
}

func topThemes(counts map[string]int, limit int) string {
	type themeCount struct {
		theme string
		count int
	}
	items := make([]themeCount, 0, len(counts))
	for t, c := range counts {
		items = append(items, themeCount{t, c})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].count != items[j].count {
			return items[i].count > items[j].count
		}
		return items[i].theme < items[j].theme
	})
	if len(items) > limit {
		items = items[:limit]
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s×%d", item.theme, item.count))
	}
	if len(parts) == 0 {
		return "нет данных"
	}
	return strings.Join(parts, ", ")
}

func tailStrings(items []string, n int) []string {
	if len(items) > n {
		items = items[len(items)-n:]
	}
	return append([]string(nil), items...)
}

// ConfirmedGoals returns the promoted long-term goal phrases.
func (u *User) ConfirmedGoals() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.LongTerm.ConfirmedGoals...)
}

// ConfirmedHabits returns the promoted long-term habit phrases.
func (u *User) ConfirmedHabits() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.LongTerm.ConfirmedHabits...)
}

// ProactiveMark returns the cooldown timestamp for key, zero if unset.
func (u *User) ProactiveMark(key string) time.Time {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.LongTerm.ProactiveMarks[key]
}

// SetProactiveMark records a cooldown timestamp for key.
func (u *User) SetProactiveMark(key string, ts time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.LongTerm.ProactiveMarks[key] = ts
}
