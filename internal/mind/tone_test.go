package mind

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectTone(t *testing.T) {
	assert.Equal(t, 1.0, DetectTone("я так рад, всё отлично"))
	assert.Equal(t, -1.0, DetectTone("всё плохо, просто ужас"))
	assert.Equal(t, 0.0, DetectTone("сегодня вторник"))

	// One positive and one negative hit cancel out.
	assert.Equal(t, 0.0, DetectTone("рад, но устал"))
}

func TestDetectTagsOrderAndMultiHit(t *testing.T) {
	tags := DetectTags("стресс на работе из-за денег")
	assert.Equal(t, []string{"stress", "finance"}, tags)

	assert.Empty(t, DetectTags("сегодня вторник"))
}

func TestExtractFreeText(t *testing.T) {
	m := ExtractFreeText("хочу выучить го")
	assert.Equal(t, []string{"хочу выучить го"}, m.Goals)
	assert.Empty(t, m.Habits)

	m = ExtractFreeText("завёл привычку бегать")
	assert.Equal(t, []string{"завёл привычку бегать"}, m.Habits)

	m = ExtractFreeText("опять ошибся с бюджетом")
	assert.Equal(t, []string{"опять ошибся с бюджетом"}, m.Mistakes)

	long := "хочу " + strings.Repeat("очень ", 40) + "длинную цель"
	m = ExtractFreeText(long)
	assert.Len(t, []rune(m.Goals[0]), 120)
}

func TestDetectEmotions(t *testing.T) {
	hits := DetectEmotions("злюсь и боюсь одновременно")
	assert.ElementsMatch(t, []string{"anger", "fear"}, hits)

	assert.Empty(t, DetectEmotions("сегодня вторник"))
}

func TestIsImportant(t *testing.T) {
	assert.True(t, IsImportant("сегодня вторник", []string{"finance"}))
	assert.True(t, IsImportant("это срочно, помоги", nil))
	assert.False(t, IsImportant("сегодня вторник", nil))
}
