package mind

import "time"

const strategyGate = 5 * 24 * time.Hour

// updateLifeStrategy rebuilds the strategic snapshot. Skipped when the
// last one is fresh and progress is healthy; low progress forces a
// recompute regardless of age.
func (u *User) updateLifeStrategy(now time.Time) {
	lt := u.LongTerm
	p := u.Profile

	if lt.LastStrategyAt != nil && now.Sub(*lt.LastStrategyAt) < strategyGate && p.ProgressScore > 0.4 {
		return
	}

	var strengths, weaknesses []string
	if contains(p.Patterns, "finance") {
		if p.ProgressScore > 0.3 {
			strengths = append(strengths, "финансовая осознанность")
		} else {
			weaknesses = append(weaknesses, "финансовая гигиена")
		}
	}
	if contains(p.Patterns, "growth") {
		strengths = append(strengths, "ориентация на развитие")
	}
	if p.MoodScore < -0.2 {
		weaknesses = append(weaknesses, "эмоциональная устойчивость")
	}
	if p.ProgressScore < 0.2 {
		weaknesses = append(weaknesses, "дисциплина/планирование")
	}

	lt.LifeMap = LifeMap{
		Directions: []string{"финансы", "карьера", "психология", "дисциплина", "отношения", "стиль жизни"},
		Strengths:  strengths,
		Weaknesses: weaknesses,
	}
	lt.StrategicRecommendations = map[string]string{
		"S1": "Выбери один навык и тренируй 15 минут в день ближайшие 3 недели.",
		"S2": "Сделай weekly review и убери лишние обязательства.",
		"S3": "Добавь короткие практики восстановления (сон/дыхание/прогулки).",
	}

	var risks []string
	if p.MoodScore < -0.3 {
		risks = append(risks, "Потенциальное выгорание — снизить нагрузку, добавить отдых.")
	}
	if contains(p.Patterns, "finance") {
		risks = append(risks, "Финансовый стресс — контроль подписок и трат.")
	}
	lt.StrategicRisks = risks

	thinking := "recover"
	if p.ProgressScore > 0 {
		thinking = "growth"
	}
	lt.MindsetProfile = Mindset{
		ThinkingStyle: thinking,
		Focus:         "balance короткие шаги и отдых",
	}

	ts := now
	lt.LastStrategyAt = &ts
}
