package mind

import (
	"math"
	"time"
)

// recomputeForecast overwrites the forecast snapshot with simple
// projections from current mood/progress and the triggered patterns.
func (u *User) recomputeForecast(now time.Time) {
	p := u.Profile

	moodForecast := make([]float64, 0, 3)
	for i := 1; i <= 3; i++ {
		moodForecast = append(moodForecast, round2(clamp(p.MoodScore-0.05*float64(i), -1, 1)))
	}

	crisis := map[string]float64{
		"low_mood":  0.3,
		"burnout":   0.2,
		"financial": 0.2,
	}
	if p.MoodScore < -0.2 {
		crisis["low_mood"] = 0.7
	}
	if contains(p.Patterns, "fatigue") {
		crisis["burnout"] = 0.6
	}
	if contains(p.Patterns, "finance") {
		crisis["financial"] = 0.6
	}

	themes := p.Patterns
	if len(themes) > 3 {
		themes = themes[:3]
	}

	u.LongTerm.Forecast = &Forecast{
		MoodForecast: moodForecast,
		CrisisRisk:   crisis,
		GoalPrediction: GoalPrediction{
			AchieveGoalProb: round2(math.Min(0.9, 0.4+p.ProgressScore*0.5)),
			NeedsPush:       p.ProgressScore < 0.35,
		},
		ThemePrediction: append([]string(nil), themes...),
		TS:              now,
	}
}

// ForecastSnapshot returns the latest forecast, nil if never computed.
func (u *User) ForecastSnapshot() *Forecast {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.LongTerm.Forecast == nil {
		return nil
	}
	cp := *u.LongTerm.Forecast
	return &cp
}
