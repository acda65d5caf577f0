package mind

import (
	"math"
	"strings"
	"time"
)

const (
	metacogHistoryCap = 50
	tuningHistoryCap  = 50

	minTemperature = 0.6
	minTopP        = 0.8
)

// evaluateMetacognition scores the produced reply on length balance,
// scenario alignment and mood/progress fit, and appends the entry to
// the bounded history.
func (u *User) evaluateMetacognition(userText, replyText string, now time.Time) {
	p := u.Profile

	var lengthScore float64
	if len(userText) == 0 {
		lengthScore = 0.5
	} else {
		lengthScore = math.Min(1.0, float64(len(replyText))/float64(len(userText)))
	}
	lengthScore = 1.0 - math.Abs(lengthScore-1.0)

	align := 1.0
	if p.MoodScore < -0.3 && !u.scenarioActive(ScenarioLowMoodSupport) {
		align = 0.5
	}

	empathy := clamp(0.6+p.MoodScore*0.5, 0.2, 1.0)
	motivation := clamp(0.6+p.ProgressScore*0.5, 0.2, 1.0)
	quality := round3((lengthScore + align + empathy + motivation) / 4)

	lt := u.LongTerm
	lt.Metacognition = append(lt.Metacognition, MetacogEntry{
		TS:              now,
		ReplyQuality:    quality,
		EmpathyScore:    round3(empathy),
		MotivationScore: round3(motivation),
	})
	if len(lt.Metacognition) > metacogHistoryCap {
		lt.Metacognition = append([]MetacogEntry(nil), lt.Metacognition[len(lt.Metacognition)-metacogHistoryCap:]...)
	}

	u.log.Debug().
		Float64("quality", quality).
		Float64("empathy", empathy).
		Float64("motivation", motivation).
		Msg("reply self-evaluated")
}

// adjustFromMetacognition nudges generation parameters down when the
// last reply scored poorly.
func (u *User) adjustFromMetacognition(now time.Time) {
	lt := u.LongTerm
	if len(lt.Metacognition) == 0 {
		return
	}
	last := lt.Metacognition[len(lt.Metacognition)-1]

	tuning := lt.TuningState
	temp := tuning.Temperature
	if temp == 0 {
		temp = u.defaults.Temperature
	}
	topP := tuning.TopP
	if topP == 0 {
		topP = u.defaults.TopP
	}

	if last.ReplyQuality < 0.6 {
		temp = math.Max(minTemperature, temp-0.1)
		topP = math.Max(minTopP, topP-0.05)
	}

	tuning.Temperature = temp
	tuning.TopP = topP
	tuning.UpdatedAt = now
	lt.TuningState = tuning
}

// selfTune inspects the recent observation window: many low-engagement
// messages push temperature down and tighten the output budget.
func (u *User) selfTune(now time.Time) {
	lt := u.LongTerm
	tuning := lt.TuningState

	obs := u.Profile.Observations
	if len(obs) > 20 {
		obs = obs[len(obs)-20:]
	}
	var ignored int
	for _, o := range obs {
		if !strings.Contains(o.Message, "!") {
			ignored++
		}
	}

	if ignored > 10 {
		temp := tuning.Temperature
		if temp == 0 {
			temp = u.defaults.Temperature
		}
		tuning.Temperature = math.Max(minTemperature, temp-0.1)
		tuning.MaxOutputTokens = 2048
	}
	tuning.UpdatedAt = now

	lt.TuningState = tuning
	lt.TuningHistory = append(lt.TuningHistory, tuning)
	if len(lt.TuningHistory) > tuningHistoryCap {
		lt.TuningHistory = append([]TuningState(nil), lt.TuningHistory[len(lt.TuningHistory)-tuningHistoryCap:]...)
	}
}

func (u *User) scenarioActive(name ScenarioName) bool {
	sc, ok := u.Profile.BehaviorScenarios[name]
	return ok && sc.State == ScenarioActive
}

// EffectiveTuning resolves the generation parameters for the next LLM
// call: per-user tuning state with configured defaults as fallback.
func (u *User) EffectiveTuning() (temperature, topP float64, maxOutputTokens int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	t := u.LongTerm.TuningState

	temperature = t.Temperature
	if temperature == 0 {
		temperature = u.defaults.Temperature
	}
	topP = t.TopP
	if topP == 0 {
		topP = u.defaults.TopP
	}
	maxOutputTokens = t.MaxOutputTokens
	if maxOutputTokens == 0 {
		maxOutputTokens = u.defaults.MaxOutputTokens
	}
	return temperature, topP, maxOutputTokens
}
