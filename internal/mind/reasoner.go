package mind

const reasonerCap = 50

// updateGoalReasoner maintains the inferred goal categories: implicit
// (growth-oriented mentions), stalled (low progress), predicted
// (finance pattern) and avoided (low mood). Lists are capped to the
// most recent entries.
func (u *User) updateGoalReasoner() {
	lt := u.LongTerm
	p := u.Profile

	goals := append(append([]string(nil), p.Goals...), lt.ConfirmedGoals...)

	if contains(p.Patterns, "growth") {
		for _, g := range goals {
			if !contains(lt.ImplicitGoals, g) {
				lt.ImplicitGoals = append(lt.ImplicitGoals, g)
			}
		}
	}
	if p.ProgressScore < 0.2 {
		for _, g := range goals {
			if !contains(lt.StalledGoals, g) {
				lt.StalledGoals = append(lt.StalledGoals, g)
			}
		}
	}
	if contains(p.Patterns, "finance") && !contains(lt.PredictedGoals, "финансовая подушка") {
		lt.PredictedGoals = append(lt.PredictedGoals, "финансовая подушка")
	}
	if p.MoodScore < -0.3 && len(goals) > 0 && !contains(lt.AvoidedGoals, "эмоциональные запросы") {
		lt.AvoidedGoals = append(lt.AvoidedGoals, "эмоциональные запросы")
	}

	lt.ImplicitGoals = capStrings(lt.ImplicitGoals, reasonerCap)
	lt.AvoidedGoals = capStrings(lt.AvoidedGoals, reasonerCap)
	lt.PredictedGoals = capStrings(lt.PredictedGoals, reasonerCap)
	lt.StalledGoals = capStrings(lt.StalledGoals, reasonerCap)
}
