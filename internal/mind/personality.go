package mind

import "time"

const personalityHistoryCap = 100

// Trait names in the personality model.
const (
	TraitDiscipline         = "discipline"
	TraitEmotionalStability = "emotional_stability"
	TraitDecisiveness       = "decisiveness"
	TraitCreativity         = "creativity"
	TraitSocialEnergy       = "social_energy"
	TraitFinancialMaturity  = "financial_maturity"
)

var traitNames = []string{
	TraitDiscipline, TraitEmotionalStability, TraitDecisiveness,
	TraitCreativity, TraitSocialEnergy, TraitFinancialMaturity,
}

// updatePersonality nudges the six trait scores from the recent
// observation window and the standing patterns.
func (u *User) updatePersonality(now time.Time) {
	lt := u.LongTerm
	p := u.Profile

	scores := lt.PersonalityScores
	if len(scores) == 0 {
		scores = map[string]float64{}
		for _, t := range traitNames {
			scores[t] = 0.5
		}
	}

	obs := p.Observations
	if len(obs) > 10 {
		obs = obs[len(obs)-10:]
	}
	var growthMentions, financeMentions int
	for _, o := range obs {
		if contains(o.Tags, "growth") {
			growthMentions++
		}
		if contains(o.Tags, "finance") {
			financeMentions++
		}
	}

	decisivenessDelta := -0.02
	if p.ProgressScore > 0.3 {
		decisivenessDelta = 0.05
	}
	creativityDelta := 0.0
	if contains(p.Patterns, "motivation") {
		creativityDelta = 0.03
	}
	socialDelta := -0.01
	if contains(p.Patterns, "relationships") {
		socialDelta = 0.02
	}

	scores[TraitDiscipline] = round3(clamp(scores[TraitDiscipline]+0.05*float64(growthMentions), 0, 1))
	scores[TraitEmotionalStability] = round3(clamp(0.6+p.MoodScore*0.4, 0, 1))
	scores[TraitDecisiveness] = round3(clamp(scores[TraitDecisiveness]+decisivenessDelta, 0, 1))
	scores[TraitCreativity] = round3(clamp(scores[TraitCreativity]+creativityDelta, 0, 1))
	scores[TraitSocialEnergy] = round3(clamp(scores[TraitSocialEnergy]+socialDelta, 0, 1))
	scores[TraitFinancialMaturity] = round3(clamp(scores[TraitFinancialMaturity]+0.05*float64(financeMentions), 0, 1))

	lt.PersonalityScores = scores

	snapshot := make(map[string]float64, len(scores))
	for k, v := range scores {
		snapshot[k] = v
	}
	lt.PersonalityHistory = append(lt.PersonalityHistory, PersonalitySnapshot{TS: now, Scores: snapshot})
	if len(lt.PersonalityHistory) > personalityHistoryCap {
		lt.PersonalityHistory = append([]PersonalitySnapshot(nil), lt.PersonalityHistory[len(lt.PersonalityHistory)-personalityHistoryCap:]...)
	}
}
