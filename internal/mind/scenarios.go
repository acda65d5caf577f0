package mind

import "time"

// Confirmation thresholds for promoting free-text mentions into
// long-term confirmed lists.
const (
	goalConfirmThreshold  = 3
	habitConfirmThreshold = 5
)

const weeklyFinanceCap = 10.0

// scenarioRule is one row of the scenario table. Deactivation is the
// negation of the activation predicate; onActivate fires once on the
// INACTIVE→ACTIVE edge, onActive fires on every tick the predicate
// holds.
type scenarioRule struct {
	name       ScenarioName
	activate   func(u *User, now time.Time) bool
	onActivate func(u *User, now time.Time)
	onActive   func(u *User, now time.Time)
}

var scenarioRules = []scenarioRule{
	{
		name: ScenarioLowMoodSupport,
		activate: func(u *User, now time.Time) bool {
			if u.Profile.MoodScore < -0.4 {
				return true
			}
			obs := u.Profile.Observations
			if len(obs) == 0 {
				return false
			}
			if len(obs) > 3 {
				obs = obs[len(obs)-3:]
			}
			for _, o := range obs {
				if o.Tone > -0.2 {
					return false
				}
			}
			return true
		},
		onActivate: func(u *User, now time.Time) {
			u.Profile.ImportantEvents = append(u.Profile.ImportantEvents, Event{TS: now, Event: "mood_low_detected"})
			u.Profile.ImportantEvents = capEvents(u.Profile.ImportantEvents, MaxEvents)
		},
	},
	{
		name: ScenarioProductivityPush,
		activate: func(u *User, now time.Time) bool {
			return u.tagMentionsSince(now.AddDate(0, 0, -7), "growth") >= 2 && u.Profile.ProgressScore < 0.3
		},
		onActivate: func(u *User, now time.Time) {
			u.Profile.ImportantEvents = append(u.Profile.ImportantEvents, Event{TS: now, Event: "productivity_coach_day"})
			u.Profile.ImportantEvents = capEvents(u.Profile.ImportantEvents, MaxEvents)
		},
	},
	{
		name: ScenarioFinancialFocus,
		activate: func(u *User, now time.Time) bool {
			return u.tagMentionsSince(now.AddDate(0, 0, -7), "finance") >= 3
		},
		onActive: func(u *User, now time.Time) {
			lt := u.LongTerm
			lt.WeeklyFinanceScore = clamp(lt.WeeklyFinanceScore+0.5, 0, weeklyFinanceCap)
		},
	},
	{
		name: ScenarioSocialBonding,
		activate: func(u *User, now time.Time) bool {
			return u.tagMentionsSince(now.AddDate(0, 0, -7), "relationships") >= 2 && u.Profile.MoodScore > -0.3
		},
	},
}

// evaluateScenarios runs every rule against current state. Activation is
// idempotent: an already-ACTIVE scenario produces no second log entry.
func (u *User) evaluateScenarios(now time.Time) {
	for _, rule := range scenarioRules {
		sc := u.scenario(rule.name)
		if rule.activate(u, now) {
			if sc.State != ScenarioActive {
				u.activateScenario(rule.name, sc, now)
				if rule.onActivate != nil {
					rule.onActivate(u, now)
				}
			}
			if rule.onActive != nil {
				rule.onActive(u, now)
			}
		} else if sc.State == ScenarioActive {
			sc.State = ScenarioInactive
			u.log.Info().Str("scenario", string(rule.name)).Msg("scenario deactivated")
		}
	}
}

func (u *User) scenario(name ScenarioName) *Scenario {
	if u.Profile.BehaviorScenarios == nil {
		u.Profile.BehaviorScenarios = defaultScenarios()
	}
	sc, ok := u.Profile.BehaviorScenarios[name]
	if !ok {
		sc = &Scenario{State: ScenarioInactive}
		u.Profile.BehaviorScenarios[name] = sc
	}
	return sc
}

// activateScenario flips the state and writes one timestamped event into
// both per-user event logs.
func (u *User) activateScenario(name ScenarioName, sc *Scenario, now time.Time) {
	sc.State = ScenarioActive
	ts := now
	sc.LastActivation = &ts

	event := Event{TS: now, Event: string(name) + "_activated"}
	u.Profile.ImportantEvents = append(u.Profile.ImportantEvents, event)
	u.Profile.ImportantEvents = capEvents(u.Profile.ImportantEvents, MaxEvents)
	u.LongTerm.ImportantEvents = append(u.LongTerm.ImportantEvents, event)
	u.LongTerm.ImportantEvents = capEvents(u.LongTerm.ImportantEvents, MaxEvents)

	u.log.Info().Str("scenario", string(name)).Msg("scenario activated")
}

func (u *User) tagMentionsSince(cutoff time.Time, tag string) int {
	var count int
	for _, o := range u.Profile.Observations {
		if !o.TS.After(cutoff) {
			continue
		}
		for _, t := range o.Tags {
			if t == tag {
				count++
			}
		}
	}
	return count
}

// ActiveScenarios lists the names of currently ACTIVE scenarios.
func (u *User) ActiveScenarios() []ScenarioName {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.activeScenariosLocked()
}

func (u *User) activeScenariosLocked() []ScenarioName {
	var active []ScenarioName
	for _, name := range []ScenarioName{ScenarioLowMoodSupport, ScenarioProductivityPush, ScenarioFinancialFocus, ScenarioSocialBonding} {
		if sc, ok := u.Profile.BehaviorScenarios[name]; ok && sc.State == ScenarioActive {
			active = append(active, name)
		}
	}
	return active
}
