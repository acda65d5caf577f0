package mind

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func activationEvents(events []Event, name string) int {
	var n int
	for _, e := range events {
		if e.Event == name {
			n++
		}
	}
	return n
}

func TestLowMoodSupportLifecycle(t *testing.T) {
	u := newTestStore(t).GetOrCreate("1")

	u.RecordMessage("всё плохо")
	assert.Contains(t, u.ActiveScenarios(), ScenarioLowMoodSupport)

	// Repeated negative messages keep it active without a second log
	// entry.
	u.RecordMessage("просто ужас")
	u.RecordMessage("всё плохо")
	assert.Contains(t, u.ActiveScenarios(), ScenarioLowMoodSupport)
	assert.Equal(t, 1, activationEvents(u.Profile.ImportantEvents, "LowMoodSupport_activated"))
	assert.Equal(t, 1, activationEvents(u.LongTerm.ImportantEvents, "LowMoodSupport_activated"))

	// A positive turn lifts the mood above the threshold and breaks the
	// negative observation window.
	u.RecordMessage("я рад, всё отлично, класс")
	assert.NotContains(t, u.ActiveScenarios(), ScenarioLowMoodSupport)

	// Reactivation writes a fresh log entry.
	u.RecordMessage("всё плохо")
	u.RecordMessage("просто ужас")
	u.RecordMessage("всё плохо")
	assert.Contains(t, u.ActiveScenarios(), ScenarioLowMoodSupport)
	assert.Equal(t, 2, activationEvents(u.Profile.ImportantEvents, "LowMoodSupport_activated"))
}

func TestFinancialFocusAccumulatesWeeklyScore(t *testing.T) {
	u := newTestStore(t).GetOrCreate("1")

	u.RecordMessage("деньги и кредит")
	u.RecordMessage("деньги и кредит")
	assert.NotContains(t, u.ActiveScenarios(), ScenarioFinancialFocus)
	assert.Zero(t, u.LongTerm.WeeklyFinanceScore)

	u.RecordMessage("деньги и кредит")
	assert.Contains(t, u.ActiveScenarios(), ScenarioFinancialFocus)
	assert.InDelta(t, 0.5, u.LongTerm.WeeklyFinanceScore, 1e-9)

	u.RecordMessage("деньги и кредит")
	assert.InDelta(t, 1.0, u.LongTerm.WeeklyFinanceScore, 1e-9)
}

func TestProductivityPushActivation(t *testing.T) {
	u := newTestStore(t).GetOrCreate("1")

	u.RecordMessage("строю карьеру")
	assert.NotContains(t, u.ActiveScenarios(), ScenarioProductivityPush)

	u.RecordMessage("учусь новому навыку")
	assert.Contains(t, u.ActiveScenarios(), ScenarioProductivityPush)
	assert.Equal(t, 1, activationEvents(u.Profile.ImportantEvents, "productivity_coach_day"))
}

func TestSocialBondingRequiresDecentMood(t *testing.T) {
	u := newTestStore(t).GetOrCreate("1")

	u.RecordMessage("поговорил с друзьями")
	u.RecordMessage("семья собралась вместе")
	assert.Contains(t, u.ActiveScenarios(), ScenarioSocialBonding)
}

func TestScenarioReportListsEveryScenario(t *testing.T) {
	u := newTestStore(t).GetOrCreate("1")
	report := u.ScenariosReport()
	for _, name := range []ScenarioName{ScenarioLowMoodSupport, ScenarioProductivityPush, ScenarioFinancialFocus, ScenarioSocialBonding} {
		assert.Contains(t, report, string(name))
	}
}
