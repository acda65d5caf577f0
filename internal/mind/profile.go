package mind

import (
	"math"
	"strings"
	"time"
)

// RecordMessage applies one inbound message to the user's state: the
// full classification, scoring and long-term recomputation pipeline.
// Mutation is best-effort: an internal fault is logged and swallowed,
// leaving previously committed state intact, so the request path can
// still produce a reply.
func (u *User) RecordMessage(text string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			u.log.Error().Any("panic", r).Msg("state update aborted")
		}
	}()

	now := time.Now().UTC()
	p := u.Profile

	p.MessageCount++
	p.LastMessage = text
	p.UpdatedAt = now

	tone := DetectTone(text)
	tags := append(DetectTags(text), u.customFilterHits(text)...)
	mentions := ExtractFreeText(text)

	u.rememberMentions(mentions)
	u.rememberPatterns(tags)
	u.updateScores(tone, tags)
	u.markImportant(text, tags, now)

	p.Observations = append(p.Observations, Observation{TS: now, Message: text, Tone: tone, Tags: tags})
	p.Observations = capObservations(p.Observations, MaxObservations)

	u.confirmGoals(mentions.Goals)
	u.confirmHabits(mentions.Habits)
	u.updateThemes(tags)
	u.makeMonthlySummary(now)
	u.updateEmotionMatrix(text, now)
	u.updatePersonality(now)
	u.updateGoalReasoner()
	u.updateLifeStrategy(now)
	u.evaluateScenarios(now)
	u.generatePlan(now)
	u.recomputeForecast(now)
}

// RecordReply stores the assistant reply and runs self-evaluation plus
// tuning adjustment.
func (u *User) RecordReply(userText, replyText string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			u.log.Error().Any("panic", r).Msg("reply bookkeeping aborted")
		}
	}()

	now := time.Now().UTC()
	u.Profile.LastReply = replyText
	u.Profile.UpdatedAt = now

	u.evaluateMetacognition(userText, replyText, now)
	u.adjustFromMetacognition(now)
	u.selfTune(now)
}

// AppendDialog persists one conversation turn for cross-restart context.
func (u *User) AppendDialog(role, content string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	p := u.Profile
	p.DialogHistory = append(p.DialogHistory, DialogTurn{Role: role, Content: content})
	if n := len(p.DialogHistory); n > MaxDialogHistory {
		p.DialogHistory = append([]DialogTurn(nil), p.DialogHistory[n-MaxDialogHistory:]...)
	}
}

// DialogTail returns up to n most recent dialog turns.
func (u *User) DialogTail(n int) []DialogTurn {
	u.mu.Lock()
	defer u.mu.Unlock()
	hist := u.Profile.DialogHistory
	if len(hist) > n {
		hist = hist[len(hist)-n:]
	}
	out := make([]DialogTurn, len(hist))
	copy(out, hist)
	return out
}

// ClearDialog drops the persisted conversation turns.
func (u *User) ClearDialog() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Profile.DialogHistory = u.Profile.DialogHistory[:0]
}

// SoftReboot resets transient state (scenarios, observations, events,
// dialog) while keeping long-term memory.
func (u *User) SoftReboot() {
	u.mu.Lock()
	defer u.mu.Unlock()
	p := u.Profile
	p.BehaviorScenarios = defaultScenarios()
	p.Observations = []Observation{}
	p.ImportantEvents = []Event{}
	p.DialogHistory = []DialogTurn{}
	p.UpdatedAt = time.Now().UTC()
}

// Touch records that the user was seen now.
func (u *User) Touch() {
	u.mu.Lock()
	defer u.mu.Unlock()
	now := time.Now().UTC()
	u.LongTerm.LastSeenAt = &now
}

// LastSeen returns the last contact time, zero if never seen.
func (u *User) LastSeen() time.Time {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.LongTerm.LastSeenAt == nil {
		return time.Time{}
	}
	return *u.LongTerm.LastSeenAt
}

// AddCustomFilter registers a user-defined substring to track as a tag.
func (u *User) AddCustomFilter(pattern string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if pattern == "" || contains(u.Profile.CustomFilters, pattern) {
		return
	}
	u.Profile.CustomFilters = append(u.Profile.CustomFilters, pattern)
	u.Profile.UpdatedAt = time.Now().UTC()
}

// CustomFilters returns the user-defined tracked substrings.
func (u *User) CustomFilters() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.Profile.CustomFilters...)
}

// SetModel overrides the generation model for this user; empty resets
// to the configured default.
func (u *User) SetModel(model string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Profile.Model = model
}

// Model returns the per-user model override, empty if unset.
func (u *User) Model() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.Profile.Model
}

// Scores returns the current mood and progress scores.
func (u *User) Scores() (mood, progress float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.Profile.MoodScore, u.Profile.ProgressScore
}

// SetPendingAction stages an admin action, overwriting any previous one.
func (u *User) SetPendingAction(kind, payload string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Profile.PendingAction = &PendingAction{Kind: kind, Payload: payload, StagedAt: time.Now().UTC()}
}

// PendingActionSlot returns the staged action, nil if none.
func (u *User) PendingActionSlot() *PendingAction {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Profile.PendingAction == nil {
		return nil
	}
	cp := *u.Profile.PendingAction
	return &cp
}

// ClearPendingAction empties the staged-action slot.
func (u *User) ClearPendingAction() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Profile.PendingAction = nil
}

// ---- pipeline internals (lock held) ----

func (u *User) customFilterHits(text string) []string {
	lower := strings.ToLower(text)
	var hits []string
	for _, flt := range u.Profile.CustomFilters {
		if flt != "" && strings.Contains(lower, strings.ToLower(flt)) {
			hits = append(hits, flt)
		}
	}
	return hits
}

func (u *User) rememberMentions(m FreeTextMentions) {
	p := u.Profile
	for _, g := range m.Goals {
		if !contains(p.Goals, g) {
			p.Goals = append(p.Goals, g)
		}
	}
	for _, h := range m.Habits {
		if !contains(p.Habits, h) {
			p.Habits = append(p.Habits, h)
		}
	}
	for _, mk := range m.Mistakes {
		if !contains(p.Mistakes, mk) {
			p.Mistakes = append(p.Mistakes, mk)
		}
	}
}

func (u *User) rememberPatterns(tags []string) {
	for _, tag := range tags {
		if !contains(u.Profile.Patterns, tag) {
			u.Profile.Patterns = append(u.Profile.Patterns, tag)
		}
	}
}

func (u *User) updateScores(tone float64, tags []string) {
	p := u.Profile
	prevMood, prevProg := p.MoodScore, p.ProgressScore

	p.MoodScore = round3(p.MoodScore*0.8 + tone*0.2)

	var delta float64
	for _, t := range tags {
		switch t {
		case "growth", "health", "finance", "motivation":
			delta += 0.05
		case "stress", "fatigue":
			delta -= 0.05
		}
	}
	p.ProgressScore = round3(clamp(p.ProgressScore+delta, -1.0, 1.5))

	if p.MoodScore != prevMood || p.ProgressScore != prevProg {
		u.log.Debug().
			Float64("mood", p.MoodScore).
			Float64("progress", p.ProgressScore).
			Msg("scores updated")
	}
}

func (u *User) markImportant(text string, tags []string, now time.Time) {
	if !IsImportant(text, tags) {
		return
	}
	p := u.Profile
	p.ImportantEvents = append(p.ImportantEvents, Event{TS: now, Message: truncateRunes(text, 200), Tags: tags})
	p.ImportantEvents = capEvents(p.ImportantEvents, MaxEvents)
}

// ---- small helpers ----

func capObservations(obs []Observation, limit int) []Observation {
	if len(obs) <= limit {
		return obs
	}
	return append([]Observation(nil), obs[len(obs)-limit:]...)
}

func capEvents(events []Event, limit int) []Event {
	if len(events) <= limit {
		return events
	}
	return append([]Event(nil), events[len(events)-limit:]...)
}

func capStrings(items []string, limit int) []string {
	if len(items) <= limit {
		return items
	}
	return append([]string(nil), items[len(items)-limit:]...)
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
