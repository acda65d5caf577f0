package mind

import "strings"

// Topic categories and their trigger substrings. Matching is
// case-insensitive substring search, the same lightweight heuristic the
// rest of the engine is built on.
var keywordGroups = map[string][]string{
	"stress":        {"стресс", "нерв", "тревог", "паник", "выгор"},
	"fatigue":       {"устал", "сон", "sleep", "выспал", "засып"},
	"finance":       {"деньг", "финан", "кредит", "долг", "инвест", "бюджет", "подписк"},
	"growth":        {"развит", "карьер", "цель", "skill", "навык", "учусь", "учеб", "план"},
	"health":        {"здоров", "спорт", "диета", "тело", "вес", "питани", "сон"},
	"relationships": {"отношен", "друз", "семь", "партнер", "любов", "конфликт"},
	"motivation":    {"лень", "мотивац", "не хочу", "не могу", "апат"},
}

var positiveTokens = []string{"рад", "доволен", "счаст", "класс", "ура", "отлично", "кайф", "вдохнов"}

var negativeTokens = []string{"плохо", "ужас", "груст", "злюсь", "злю", "бесит", "устал", "не хочу", "ненавиж", "страх"}

var importantTokens = []string{"важно", "срочно", "кризис", "критич", "help", "помоги"}

var emotionKeywords = map[string][]string{
	"anger":      {"злю", "злость", "бесит", "ярость"},
	"sadness":    {"грусть", "печаль", "плохо", "одиноч"},
	"calmness":   {"спокоен", "тихо", "ровно", "спокойствие"},
	"focus":      {"фокус", "концентрац", "собран", "вниман"},
	"excitement": {"рад", "кайф", "вдохнов", "класс"},
	"fear":       {"страх", "боюсь", "тревог", "паник"},
}

const freeTextLimit = 120

// DetectTone scores sentiment in [-1, 1]: positive-token hits minus
// negative-token hits over total hits. Zero when nothing matches.
func DetectTone(text string) float64 {
	t := strings.ToLower(text)
	var pos, neg int
	for _, token := range positiveTokens {
		if strings.Contains(t, token) {
			pos++
		}
	}
	for _, token := range negativeTokens {
		if strings.Contains(t, token) {
			neg++
		}
	}
	if pos == 0 && neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(max(pos+neg, 1))
}

// DetectTags returns every topic category whose keywords appear in the
// text. Multiple tags may fire per message.
func DetectTags(text string) []string {
	t := strings.ToLower(text)
	var tags []string
	for _, tag := range []string{"stress", "fatigue", "finance", "growth", "health", "relationships", "motivation"} {
		if containsAny(t, keywordGroups[tag]) {
			tags = append(tags, tag)
		}
	}
	return tags
}

// FreeTextMentions holds goal/habit/mistake phrases extracted from one
// message, truncated to a fixed rune limit.
type FreeTextMentions struct {
	Goals    []string
	Habits   []string
	Mistakes []string
}

// ExtractFreeText pulls literal goal/habit/mistake mentions out of the
// message on simple trigger words.
func ExtractFreeText(text string) FreeTextMentions {
	t := strings.ToLower(text)
	trimmed := truncateRunes(strings.TrimSpace(text), freeTextLimit)

	var m FreeTextMentions
	if strings.Contains(t, "хочу") || strings.Contains(t, "цель") {
		m.Goals = append(m.Goals, trimmed)
	}
	if strings.Contains(t, "привыч") {
		m.Habits = append(m.Habits, trimmed)
	}
	if strings.Contains(t, "ошиб") || strings.Contains(t, "факап") {
		m.Mistakes = append(m.Mistakes, trimmed)
	}
	return m
}

// DetectEmotions returns the emotions whose keywords appear in the text.
func DetectEmotions(text string) []string {
	t := strings.ToLower(text)
	var hits []string
	for emo, keys := range emotionKeywords {
		if containsAny(t, keys) {
			hits = append(hits, emo)
		}
	}
	return hits
}

// IsImportant reports whether the message should be flagged into the
// important-event log: urgency tokens or any triggered tag.
func IsImportant(text string, tags []string) bool {
	if len(tags) > 0 {
		return true
	}
	return containsAny(strings.ToLower(text), importantTokens)
}

func containsAny(lower string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
