package mind

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const planMaxAge = 24 * time.Hour

// generatePlan refreshes the daily plan when the latest one is older
// than a day (or absent).
func (u *User) generatePlan(now time.Time) {
	lt := u.LongTerm
	if len(lt.Plans) > 0 && now.Sub(lt.Plans[len(lt.Plans)-1].Date) < planMaxAge {
		return
	}

	goals := u.Profile.Goals
	if len(goals) == 0 {
		goals = lt.ConfirmedGoals
	}
	goalText := "улучшить общее состояние"
	if len(goals) > 0 {
		goalText = goals[0]
	}

	lt.Plans = append(lt.Plans, Plan{
		Date: now,
		Short: []string{
			"Сделать 1 шаг к цели: " + goalText,
			"10 минут чтения/обучения",
			"2 минуты планирования",
		},
		Mid: []string{
			"Сформировать чек-лист на неделю по цели: " + goalText,
			"Проверить прогресс через 3 дня",
		},
		Long: []string{
			"Оценить результаты через месяц по цели: " + goalText,
		},
		CompletedShort: []string{},
		CompletedMid:   []string{},
		CompletedLong:  []string{},
	})
	u.log.Info().Msg("plan generated")
}

// CurrentPlan returns the latest plan, generating one if none exists.
func (u *User) CurrentPlan() Plan {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.LongTerm.Plans) == 0 {
		u.generatePlan(time.Now().UTC())
	}
	return u.LongTerm.Plans[len(u.LongTerm.Plans)-1]
}

// MarkPlanDone moves a plan item to its completed list, addressed by
// 1-based index or case-insensitive substring. Returns a user-facing
// confirmation line.
func (u *User) MarkPlanDone(text string) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.LongTerm.Plans) == 0 {
		u.generatePlan(time.Now().UTC())
	}
	plan := &u.LongTerm.Plans[len(u.LongTerm.Plans)-1]

	buckets := []struct {
		items     *[]string
		completed *[]string
	}{
		{&plan.Short, &plan.CompletedShort},
		{&plan.Mid, &plan.CompletedMid},
		{&plan.Long, &plan.CompletedLong},
	}

	for _, b := range buckets {
		if idx, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
			if idx >= 1 && idx <= len(*b.items) {
				item := (*b.items)[idx-1]
				*b.items = append((*b.items)[:idx-1], (*b.items)[idx:]...)
				*b.completed = append(*b.completed, item)
				return fmt.Sprintf("Отмечено выполненным: %s", item)
			}
			continue
		}
		needle := strings.ToLower(text)
		for i, item := range *b.items {
			if strings.Contains(strings.ToLower(item), needle) {
				*b.items = append((*b.items)[:i], (*b.items)[i+1:]...)
				*b.completed = append(*b.completed, item)
				return fmt.Sprintf("Отмечено выполненным: %s", item)
			}
		}
	}
	return "Не нашёл такой пункт в плане."
}
