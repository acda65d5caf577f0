package mind

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveTuningFallsBackToDefaults(t *testing.T) {
	u := newTestStore(t).GetOrCreate("1")
	temp, topP, maxTokens := u.EffectiveTuning()
	assert.InDelta(t, 0.9, temp, 1e-9)
	assert.InDelta(t, 0.9, topP, 1e-9)
	assert.Equal(t, 8192, maxTokens)
}

func TestPoorReplyLowersGenerationParameters(t *testing.T) {
	u := newTestStore(t).GetOrCreate("1")

	// A one-character reply to a long message scores badly on length
	// balance and drags quality under the adjustment threshold.
	u.RecordReply(strings.Repeat("x", 100), "y")

	temp, topP, _ := u.EffectiveTuning()
	assert.InDelta(t, 0.8, temp, 1e-9)
	assert.InDelta(t, 0.85, topP, 1e-9)
}

func TestParameterFloorsHold(t *testing.T) {
	u := newTestStore(t).GetOrCreate("1")

	for i := 0; i < 10; i++ {
		u.RecordReply(strings.Repeat("x", 100), "y")
	}
	temp, topP, _ := u.EffectiveTuning()
	assert.InDelta(t, 0.6, temp, 1e-9)
	assert.InDelta(t, 0.8, topP, 1e-9)
}

func TestSelfTuneOnIgnoredMessages(t *testing.T) {
	u := newTestStore(t).GetOrCreate("1")

	// Over ten recent messages without an exclamation mark read as low
	// engagement.
	for i := 0; i < 15; i++ {
		u.RecordMessage("день как день")
	}
	u.RecordReply("день как день", "понимаю, ровный день")

	temp, topP, maxTokens := u.EffectiveTuning()
	assert.InDelta(t, 0.8, temp, 1e-9)
	assert.InDelta(t, 0.9, topP, 1e-9)
	assert.Equal(t, 2048, maxTokens)
}

func TestMetacognitionHistoryCapped(t *testing.T) {
	u := newTestStore(t).GetOrCreate("1")
	for i := 0; i < metacogHistoryCap+10; i++ {
		u.RecordReply("привет", "привет")
	}
	assert.Len(t, u.LongTerm.Metacognition, metacogHistoryCap)
	assert.Len(t, u.LongTerm.TuningHistory, tuningHistoryCap)
}
