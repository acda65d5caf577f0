package charts

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigogots-alt/bigbadbotsbot/internal/goals"
	"github.com/vigogots-alt/bigbadbotsbot/internal/mind"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func observationsWithTones(tones []float64) []mind.Observation {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	obs := make([]mind.Observation, 0, len(tones))
	for i, tone := range tones {
		obs = append(obs, mind.Observation{TS: base.Add(time.Duration(i) * time.Hour), Tone: tone})
	}
	return obs
}

func TestMoodTrendRendersPNG(t *testing.T) {
	png, err := MoodTrend(observationsWithTones([]float64{-0.5, 0.1, 0.4, -0.2, 0.7, 0.0, 0.3}))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestMoodTrendNeedsTwoPoints(t *testing.T) {
	_, err := MoodTrend(observationsWithTones([]float64{0.5}))
	assert.ErrorIs(t, err, ErrNotEnoughData)

	_, err = MoodTrend(nil)
	assert.ErrorIs(t, err, ErrNotEnoughData)
}

func TestGoalBreakdownRendersPNG(t *testing.T) {
	list := []*goals.Goal{
		{Status: goals.StatusActive},
		{Status: goals.StatusActive},
		{Status: goals.StatusCompleted},
		{Status: goals.StatusPaused},
	}
	png, err := GoalBreakdown(list)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestGoalBreakdownEmpty(t *testing.T) {
	_, err := GoalBreakdown(nil)
	assert.ErrorIs(t, err, ErrNotEnoughData)
}

func TestMovingAverage(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	xs := []time.Time{base, base.Add(time.Hour), base.Add(2 * time.Hour)}
	ys := []float64{1, 2, 3}

	outXs, outYs := movingAverage(xs, ys, 2)
	require.Len(t, outYs, 2)
	assert.InDelta(t, 1.5, outYs[0], 1e-9)
	assert.InDelta(t, 2.5, outYs[1], 1e-9)
	assert.Equal(t, xs[1], outXs[0])
}
