package mind

import (
	"fmt"
	"sort"
	"strings"
)

// Character budget for the composed super-context. Sections are trimmed
// individually and the whole blob is capped as a backstop.
const (
	contextBudget = 6000
	sectionBudget = 800
)

// BuildContext assembles the compact state overview prepended to every
// LLM request: scenarios, plan, forecast, self-evaluation, tuning,
// confirmed goals/habits, life strategy, personality, emotions and the
// goal-reasoner categories. It never fails and renders placeholders for
// empty sub-state, so a brand-new user still gets a non-empty blob.
func (u *User) BuildContext() string {
	u.mu.Lock()
	defer u.mu.Unlock()

	lt := u.LongTerm
	p := u.Profile

	active := u.activeScenariosLocked()
	scenarioLine := "нет"
	if len(active) > 0 {
		names := make([]string, len(active))
		for i, n := range active {
			names[i] = string(n)
		}
		scenarioLine = strings.Join(names, ", ")
	}

	var plan Plan
	if len(lt.Plans) > 0 {
		plan = lt.Plans[len(lt.Plans)-1]
	}

	lines := []string{
		"Сценарии: " + scenarioLine,
		fmt.Sprintf("Настроение: %+.2f, прогресс: %+.2f", p.MoodScore, p.ProgressScore),
		"План: short=" + joinOr(plan.Short, "нет") + " mid=" + joinOr(plan.Mid, "нет") + " long=" + joinOr(plan.Long, "нет"),
		"Прогноз: " + forecastLine(lt.Forecast),
		"Самооценка: " + metacogLine(lt.Metacognition),
		"Тюнинг: " + tuningLine(lt.TuningState),
		"Долгосрочные цели: " + joinOr(lt.ConfirmedGoals, "нет"),
		"Долгосрочные привычки: " + joinOr(lt.ConfirmedHabits, "нет"),
		"Стратегическая карта: сильное=" + joinOr(lt.LifeMap.Strengths, "нет") + " слабое=" + joinOr(lt.LifeMap.Weaknesses, "нет"),
		"Стратегические рекомендации: " + recommendationsLine(lt.StrategicRecommendations),
		"Стратегические риски: " + joinOr(lt.StrategicRisks, "нет"),
		"Mindset: " + mindsetLine(lt.MindsetProfile),
		"Личность: " + personalityLine(lt.PersonalityScores),
		"Эмоции (топ-3): " + emotionsLine(lt.EmotionMatrix),
		"Целевой анализ: implicit=" + joinOr(lt.ImplicitGoals, "нет") +
			" avoided=" + joinOr(lt.AvoidedGoals, "нет") +
			" predicted=" + joinOr(lt.PredictedGoals, "нет") +
			" stalled=" + joinOr(lt.StalledGoals, "нет"),
	}

	for i, line := range lines {
		lines[i] = trimToChars(line, sectionBudget)
	}
	return trimToChars(strings.Join(lines, "\n"), contextBudget)
}

// ProfileReport renders the /profile summary.
func (u *User) ProfileReport() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	p := u.Profile
	lt := u.LongTerm
	lines := []string{
		"Создано: " + p.CreatedAt.Format("2006-01-02 15:04"),
		fmt.Sprintf("Сообщений: %d", p.MessageCount),
		fmt.Sprintf("Настроение (score): %+.2f", p.MoodScore),
		fmt.Sprintf("Прогресс (score): %+.2f", p.ProgressScore),
		"Цели: " + joinOr(p.Goals, "нет"),
		"Привычки: " + joinOr(p.Habits, "нет"),
		"Ошибки: " + joinOr(p.Mistakes, "нет"),
		"Темы: " + joinOr(p.Patterns, "нет"),
		"Долгосрочные цели: " + joinOr(lt.ConfirmedGoals, "нет"),
		"Долгосрочные привычки: " + joinOr(lt.ConfirmedHabits, "нет"),
	}
	return strings.Join(lines, "\n")
}

// ProgressReport renders the /progress summary with the recent theme
// histogram.
func (u *User) ProgressReport() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	p := u.Profile
	lt := u.LongTerm

	recent := p.Observations
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	counts := map[string]int{}
	for _, o := range recent {
		for _, tag := range o.Tags {
			counts[tag]++
		}
	}
	topTags := topThemes(counts, len(counts))

	lines := []string{
		fmt.Sprintf("Сообщений: %d", p.MessageCount),
		fmt.Sprintf("Настроение: %+.2f", p.MoodScore),
		fmt.Sprintf("Прогресс: %+.2f", p.ProgressScore),
		"Темы последних сообщений: " + topTags,
		"Цели: " + joinOr(p.Goals, "нет"),
		"Привычки: " + joinOr(p.Habits, "нет"),
		"Ошибки: " + joinOr(p.Mistakes, "нет"),
		"Долгосрочные цели: " + joinOr(lt.ConfirmedGoals, "нет"),
		"Долгосрочные привычки: " + joinOr(lt.ConfirmedHabits, "нет"),
	}
	return strings.Join(lines, "\n")
}

// MonthReport renders the latest monthly summary.
func (u *User) MonthReport() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	summaries := u.LongTerm.MonthlySummaries
	if len(summaries) == 0 {
		return "Нет сводок за месяц."
	}
	last := summaries[len(summaries)-1]
	lines := []string{
		"Дата: " + last.CreatedAt.Format("2006-01-02"),
		"Топ темы: " + last.TopThemes,
		"Цели: " + joinOr(last.Goals, "нет"),
		"Привычки: " + joinOr(last.Habits, "нет"),
		fmt.Sprintf("Финансы (неделя): %.1f", last.WeeklyFinanceScore),
	}
	return strings.Join(lines, "\n")
}

// ScenariosReport renders the state of every scenario.
func (u *User) ScenariosReport() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	var lines []string
	for _, name := range []ScenarioName{ScenarioLowMoodSupport, ScenarioProductivityPush, ScenarioFinancialFocus, ScenarioSocialBonding} {
		sc := u.scenario(name)
		last := "никогда"
		if sc.LastActivation != nil {
			last = sc.LastActivation.Format("2006-01-02 15:04")
		}
		lines = append(lines, fmt.Sprintf("%s: %s (last: %s)", name, sc.State, last))
	}
	return strings.Join(lines, "\n")
}

// ForecastReport renders the latest forecast for the /forecast command.
func (u *User) ForecastReport() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	f := u.LongTerm.Forecast
	if f == nil {
		return "Прогноз ещё не рассчитан."
	}
	moods := make([]string, len(f.MoodForecast))
	for i, m := range f.MoodForecast {
		moods[i] = fmt.Sprintf("%+.2f", m)
	}
	lines := []string{
		"Настроение (3 шага): " + strings.Join(moods, ", "),
		fmt.Sprintf("Риски: low_mood=%.1f burnout=%.1f financial=%.1f",
			f.CrisisRisk["low_mood"], f.CrisisRisk["burnout"], f.CrisisRisk["financial"]),
		fmt.Sprintf("Вероятность достижения цели: %.2f", f.GoalPrediction.AchieveGoalProb),
		fmt.Sprintf("Нужен толчок: %v", f.GoalPrediction.NeedsPush),
		"Темы: " + joinOr(f.ThemePrediction, "нет"),
	}
	return strings.Join(lines, "\n")
}

// PlanReport renders the current plan with completion marks.
func (u *User) PlanReport() string {
	plan := u.CurrentPlan()
	var b strings.Builder
	b.WriteString("План на " + plan.Date.Format("2006-01-02") + "\n")
	writePlanSection(&b, "Краткосрочно", plan.Short, plan.CompletedShort)
	writePlanSection(&b, "Среднесрочно", plan.Mid, plan.CompletedMid)
	writePlanSection(&b, "Долгосрочно", plan.Long, plan.CompletedLong)
	return strings.TrimRight(b.String(), "\n")
}

func writePlanSection(b *strings.Builder, title string, items, completed []string) {
	b.WriteString(title + ":\n")
	if len(items) == 0 && len(completed) == 0 {
		b.WriteString("  нет пунктов\n")
		return
	}
	for i, item := range items {
		fmt.Fprintf(b, "  %d. %s\n", i+1, item)
	}
	for _, item := range completed {
		b.WriteString("  [готово] " + item + "\n")
	}
}

// ObservationsTail returns up to n recent observations for chart
// rendering.
func (u *User) ObservationsTail(n int) []Observation {
	u.mu.Lock()
	defer u.mu.Unlock()
	obs := u.Profile.Observations
	if len(obs) > n {
		obs = obs[len(obs)-n:]
	}
	out := make([]Observation, len(obs))
	copy(out, obs)
	return out
}

// ---- formatting helpers ----

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

func forecastLine(f *Forecast) string {
	if f == nil {
		return "нет"
	}
	moods := make([]string, len(f.MoodForecast))
	for i, m := range f.MoodForecast {
		moods[i] = fmt.Sprintf("%+.2f", m)
	}
	return fmt.Sprintf("mood=[%s] achieve_prob=%.2f needs_push=%v",
		strings.Join(moods, " "), f.GoalPrediction.AchieveGoalProb, f.GoalPrediction.NeedsPush)
}

func metacogLine(history []MetacogEntry) string {
	if len(history) == 0 {
		return "нет"
	}
	last := history[len(history)-1]
	return fmt.Sprintf("quality=%.2f empathy=%.2f motivation=%.2f",
		last.ReplyQuality, last.EmpathyScore, last.MotivationScore)
}

func tuningLine(t TuningState) string {
	if t.UpdatedAt.IsZero() {
		return "нет"
	}
	return fmt.Sprintf("temp=%.2f top_p=%.2f max_tokens=%d", t.Temperature, t.TopP, t.MaxOutputTokens)
}

func recommendationsLine(recs map[string]string) string {
	if len(recs) == 0 {
		return "нет"
	}
	keys := make([]string, 0, len(recs))
	for k := range recs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+recs[k])
	}
	return strings.Join(parts, " | ")
}

func mindsetLine(m Mindset) string {
	if m.ThinkingStyle == "" {
		return "нет"
	}
	return m.ThinkingStyle + " / " + m.Focus
}

func personalityLine(scores map[string]float64) string {
	if len(scores) == 0 {
		return "нет"
	}
	parts := make([]string, 0, len(traitNames))
	for _, t := range traitNames {
		if v, ok := scores[t]; ok {
			parts = append(parts, fmt.Sprintf("%s=%.2f", t, v))
		}
	}
	return strings.Join(parts, " ")
}

func emotionsLine(matrix map[string]float64) string {
	if len(matrix) == 0 {
		return "нет"
	}
	top := topEmotions(matrix, 3)
	parts := make([]string, 0, len(top))
	for _, emo := range top {
		parts = append(parts, fmt.Sprintf("%s=%.2f", emo, matrix[emo]))
	}
	return strings.Join(parts, " ")
}

func trimToChars(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
