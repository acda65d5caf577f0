package mind

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildContextNonEmptyForNewUser(t *testing.T) {
	u := newTestStore(t).GetOrCreate("1")

	ctx := u.BuildContext()
	require.NotEmpty(t, ctx)
	assert.Contains(t, ctx, "Сценарии: нет")
	assert.Contains(t, ctx, "Настроение: +0.00")
	assert.LessOrEqual(t, len([]rune(ctx)), contextBudget)
}

func TestBuildContextReflectsState(t *testing.T) {
	u := newTestStore(t).GetOrCreate("1")

	u.RecordMessage("всё плохо")
	for i := 0; i < 3; i++ {
		u.RecordMessage("хочу выучить го")
	}

	ctx := u.BuildContext()
	assert.Contains(t, ctx, string(ScenarioLowMoodSupport))
	assert.Contains(t, ctx, "хочу выучить го")
}

func TestForecastAfterMessage(t *testing.T) {
	u := newTestStore(t).GetOrCreate("1")
	u.RecordMessage("сегодня вторник")

	f := u.ForecastSnapshot()
	require.NotNil(t, f)
	require.Len(t, f.MoodForecast, 3)
	assert.InDelta(t, -0.05, f.MoodForecast[0], 1e-9)
	assert.InDelta(t, -0.10, f.MoodForecast[1], 1e-9)
	assert.InDelta(t, -0.15, f.MoodForecast[2], 1e-9)
	assert.InDelta(t, 0.4, f.GoalPrediction.AchieveGoalProb, 1e-9)
	assert.True(t, f.GoalPrediction.NeedsPush)
}

func TestAchieveProbabilityCapped(t *testing.T) {
	u := newTestStore(t).GetOrCreate("1")
	for i := 0; i < 10; i++ {
		u.RecordMessage("карьера, спорт, деньги, мотивация")
	}
	f := u.ForecastSnapshot()
	require.NotNil(t, f)
	assert.InDelta(t, 0.9, f.GoalPrediction.AchieveGoalProb, 1e-9)
	assert.False(t, f.GoalPrediction.NeedsPush)
}

func TestPlanGeneratedAndMarkedDone(t *testing.T) {
	u := newTestStore(t).GetOrCreate("1")
	u.RecordMessage("хочу выучить го")

	plan := u.CurrentPlan()
	require.NotEmpty(t, plan.Short)

	reply := u.MarkPlanDone("1")
	assert.True(t, strings.HasPrefix(reply, "Отмечено выполненным:"), reply)

	assert.Equal(t, "Не нашёл такой пункт в плане.", u.MarkPlanDone("такого пункта нет точно"))
}

func TestProfileReportMentionsCounts(t *testing.T) {
	u := newTestStore(t).GetOrCreate("1")
	u.RecordMessage("деньги и кредит")

	report := u.ProfileReport()
	assert.Contains(t, report, "Сообщений: 1")
	assert.Contains(t, report, "finance")
}

func TestTopEmotionsAfterMessage(t *testing.T) {
	u := newTestStore(t).GetOrCreate("1")
	u.RecordMessage("я так рад, просто кайф")

	top := u.TopEmotions(3)
	require.NotEmpty(t, top)
	assert.Equal(t, "excitement", top[0])
}
