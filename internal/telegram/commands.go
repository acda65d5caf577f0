package telegram

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vigogots-alt/bigbadbotsbot/internal/ai"
	"github.com/vigogots-alt/bigbadbotsbot/internal/charts"
	"github.com/vigogots-alt/bigbadbotsbot/internal/goals"
	"github.com/vigogots-alt/bigbadbotsbot/internal/mind"
	"github.com/vigogots-alt/bigbadbotsbot/internal/version"
)

const helpText = `Я помню твоё состояние, цели и привычки и подстраиваю ответы под них.

Состояние:
/profile — профиль
/progress — настроение и прогресс
/month — сводка за месяц
/report — недельный отчёт
/scenarios — активные сценарии
/forecast — прогноз
/plan — текущий план
/done <пункт> — отметить пункт плана
/filter <слово> — личный фильтр тем
/clear — сбросить контекст

Цели:
/goals — список целей
/addgoal <название> | <описание> | <приоритет 1-4> | <дедлайн ГГГГ-ММ-ДД>
/milestone <цель> <название вехи>
/milestone <цель> done <номер вехи>
/checkin <цель> <сдвиг> [заметка]
/complete <цель>
/pause <цель>  /resume <цель>
/achievements — награды
/next — следующий шаг

Прочее:
/moodchart — график настроения
/goalschart — цели по статусам
/model [имя] — модель генерации
/proactive — вкл/выкл проактивные сообщения
/schedule — расписание проактивных окон

Просто пиши мне — я слушаю.`

func (b *Bot) handleCommand(ctx context.Context, msg *Message, user *mind.User, text string) {
	fields := strings.Fields(text)
	cmd := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	args := strings.TrimSpace(strings.TrimPrefix(text, fields[0]))
	chatID := msg.Chat.ID

	switch cmd {
	case "start", "help":
		b.reply(ctx, chatID, "Привет! "+helpText)
	case "clear":
		user.SoftReboot()
		b.reply(ctx, chatID, "Контекст очищен. Долгосрочная память осталась со мной.")
	case "profile":
		b.reply(ctx, chatID, user.ProfileReport())
	case "progress":
		b.reply(ctx, chatID, user.ProgressReport())
	case "month":
		b.reply(ctx, chatID, user.MonthReport())
	case "report":
		b.reply(ctx, chatID, b.weeklyReport(user))
	case "scenarios":
		b.reply(ctx, chatID, user.ScenariosReport())
	case "forecast":
		b.reply(ctx, chatID, user.ForecastReport())
	case "plan":
		b.reply(ctx, chatID, user.PlanReport())
	case "done":
		if args == "" {
			b.reply(ctx, chatID, "Укажи номер или текст пункта: /done 1")
			return
		}
		b.reply(ctx, chatID, user.MarkPlanDone(args))
	case "filter":
		b.cmdFilter(ctx, chatID, user, args)
	case "goals":
		b.cmdGoals(ctx, chatID, user.ID)
	case "addgoal":
		b.cmdAddGoal(ctx, chatID, user.ID, args)
	case "milestone":
		b.cmdMilestone(ctx, chatID, user.ID, args)
	case "checkin":
		b.cmdCheckIn(ctx, chatID, user.ID, args)
	case "complete":
		b.cmdComplete(ctx, chatID, user.ID, args)
	case "pause":
		b.cmdTransition(ctx, chatID, user.ID, args, b.goals.Pause, "Цель приостановлена.")
	case "resume":
		b.cmdTransition(ctx, chatID, user.ID, args, b.goals.Resume, "Цель снова активна.")
	case "achievements":
		b.cmdAchievements(ctx, chatID, user.ID)
	case "next":
		b.reply(ctx, chatID, b.goals.SuggestNextAction(user.ID))
	case "moodchart":
		b.cmdMoodChart(ctx, chatID, user)
	case "goalschart":
		b.cmdGoalsChart(ctx, chatID, user.ID)
	case "model":
		b.cmdModel(ctx, chatID, user, args)
	case "proactive":
		b.cmdProactive(ctx, chatID, user.ID)
	case "schedule":
		b.cmdSchedule(ctx, chatID, user.ID)
	case "status":
		if !b.cfg.IsAdmin(msg.From.ID) {
			b.reply(ctx, chatID, "Эта команда только для администратора.")
			return
		}
		b.reply(ctx, chatID, b.statusReport())
	case "die":
		if !b.cfg.IsAdmin(msg.From.ID) {
			b.reply(ctx, chatID, "Эта команда только для администратора.")
			return
		}
		user.SetPendingAction("shutdown", "")
		b.reply(ctx, chatID, "Точно выключаемся? Отправь кодовое слово для подтверждения.")
	default:
		b.reply(ctx, chatID, "Не знаю такую команду. /start покажет список.")
	}
}

func (b *Bot) cmdFilter(ctx context.Context, chatID int64, user *mind.User, args string) {
	if args == "" {
		filters := user.CustomFilters()
		if len(filters) == 0 {
			b.reply(ctx, chatID, "Личных фильтров пока нет. Добавь: /filter криптовалюта")
			return
		}
		b.reply(ctx, chatID, "Личные фильтры: "+strings.Join(filters, ", "))
		return
	}
	user.AddCustomFilter(args)
	b.reply(ctx, chatID, fmt.Sprintf("Добавил фильтр «%s». Буду отмечать упоминания.", args))
}

var priorityLabels = map[goals.Priority]string{
	goals.PriorityCritical: "критический",
	goals.PriorityHigh:     "высокий",
	goals.PriorityMedium:   "средний",
	goals.PriorityLow:      "низкий",
}

func (b *Bot) cmdGoals(ctx context.Context, chatID int64, owner string) {
	list := b.goals.List(owner)
	if len(list) == 0 {
		b.reply(ctx, chatID, "Целей пока нет. Создай первую: /addgoal выучить Go")
		return
	}

	var sb strings.Builder
	sb.WriteString("Твои цели:\n")
	for i, g := range list {
		fmt.Fprintf(&sb, "%d. [%s] %s — %.0f%%, приоритет %s\n",
			i+1, g.Status, g.Title, g.Progress*100, priorityLabels[g.Priority])
		if g.Deadline != nil {
			fmt.Fprintf(&sb, "   дедлайн: %s\n", g.Deadline.Format("2006-01-02"))
		}
		for _, ms := range g.Milestones {
			mark := "☐"
			if ms.Completed {
				mark = "☑"
			}
			fmt.Fprintf(&sb, "   %s %d. %s\n", mark, ms.ID, ms.Title)
		}
	}
	b.reply(ctx, chatID, sb.String())
}

func (b *Bot) cmdAddGoal(ctx context.Context, chatID int64, owner, args string) {
	if args == "" {
		b.reply(ctx, chatID, "Формат: /addgoal название | описание | приоритет 1-4 | дедлайн ГГГГ-ММ-ДД")
		return
	}

	parts := strings.Split(args, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	title := parts[0]
	var description string
	priority := goals.PriorityMedium
	var deadline *time.Time

	if len(parts) > 1 {
		description = parts[1]
	}
	if len(parts) > 2 && parts[2] != "" {
		if p, err := strconv.Atoi(parts[2]); err == nil {
			priority = goals.Priority(p)
		}
	}
	if len(parts) > 3 && parts[3] != "" {
		if ts, err := time.Parse("2006-01-02", parts[3]); err == nil {
			deadline = &ts
		}
	}

	g := b.goals.CreateGoal(owner, title, description, priority, deadline)
	b.reply(ctx, chatID, fmt.Sprintf("Цель «%s» создана, приоритет %s. Вехи: /milestone, прогресс: /checkin.", g.Title, priorityLabels[g.Priority]))
}

// resolveGoal accepts a 1-based index from the /goals listing, a full
// goal id, or a case-insensitive title fragment.
func (b *Bot) resolveGoal(owner, ref string) (*goals.Goal, error) {
	list := b.goals.List(owner)
	if len(list) == 0 {
		return nil, goals.ErrGoalNotFound
	}
	if idx, err := strconv.Atoi(ref); err == nil {
		if idx < 1 || idx > len(list) {
			return nil, goals.ErrGoalNotFound
		}
		return list[idx-1], nil
	}
	lowered := strings.ToLower(ref)
	for _, g := range list {
		if g.ID == ref || strings.Contains(strings.ToLower(g.Title), lowered) {
			return g, nil
		}
	}
	return nil, goals.ErrGoalNotFound
}

func (b *Bot) cmdMilestone(ctx context.Context, chatID int64, owner, args string) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		b.reply(ctx, chatID, "Формат: /milestone <цель> <название вехи> или /milestone <цель> done <номер>")
		return
	}

	g, err := b.resolveGoal(owner, fields[0])
	if err != nil {
		b.reply(ctx, chatID, "Не нашёл такую цель. Список: /goals")
		return
	}

	if strings.EqualFold(fields[1], "done") && len(fields) >= 3 {
		msID, err := strconv.Atoi(fields[2])
		if err != nil {
			b.reply(ctx, chatID, "Номер вехи должен быть числом.")
			return
		}
		if err := b.goals.CompleteMilestone(owner, g.ID, msID); err != nil {
			if errors.Is(err, goals.ErrMilestoneNotFound) {
				b.reply(ctx, chatID, "Такой вехи нет у этой цели.")
				return
			}
			b.reply(ctx, chatID, "Не получилось отметить веху.")
			return
		}
		updated, _ := b.goals.Get(owner, g.ID)
		if updated != nil && updated.Status == goals.StatusCompleted {
			b.reply(ctx, chatID, fmt.Sprintf("Веха закрыта, и вместе с ней вся цель «%s». Поздравляю!", updated.Title))
			return
		}
		b.reply(ctx, chatID, "Веха отмечена выполненной.")
		return
	}

	title := strings.TrimSpace(strings.TrimPrefix(args, fields[0]))
	ms, err := b.goals.AddMilestone(owner, g.ID, title, "")
	if err != nil {
		b.reply(ctx, chatID, "Не получилось добавить веху.")
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("Веха %d «%s» добавлена к цели «%s».", ms.ID, ms.Title, g.Title))
}

func (b *Bot) cmdCheckIn(ctx context.Context, chatID int64, owner, args string) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		b.reply(ctx, chatID, "Формат: /checkin <цель> <сдвиг 0..1> [заметка], например /checkin 1 0.1 сделал черновик")
		return
	}

	g, err := b.resolveGoal(owner, fields[0])
	if err != nil {
		b.reply(ctx, chatID, "Не нашёл такую цель. Список: /goals")
		return
	}
	delta, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		b.reply(ctx, chatID, "Сдвиг должен быть числом, например 0.1")
		return
	}
	note := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(args, fields[0])), fields[1]))

	if err := b.goals.CheckIn(owner, g.ID, note, "", delta); err != nil {
		b.reply(ctx, chatID, "Не получилось записать чек-ин.")
		return
	}
	updated, _ := b.goals.Get(owner, g.ID)
	if updated == nil {
		return
	}
	if updated.Status == goals.StatusCompleted {
		b.reply(ctx, chatID, fmt.Sprintf("Цель «%s» достигнута. Поздравляю!", updated.Title))
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("Записал. Прогресс по «%s»: %.0f%%", updated.Title, updated.Progress*100))
}

func (b *Bot) cmdComplete(ctx context.Context, chatID int64, owner, args string) {
	g, err := b.resolveGoal(owner, args)
	if err != nil {
		b.reply(ctx, chatID, "Не нашёл такую цель. Список: /goals")
		return
	}
	if err := b.goals.CheckIn(owner, g.ID, "завершено вручную", "", 1.0); err != nil {
		b.reply(ctx, chatID, "Не получилось завершить цель.")
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("Цель «%s» завершена. Поздравляю!", g.Title))
}

func (b *Bot) cmdTransition(ctx context.Context, chatID int64, owner, args string, op func(owner, goalID string) error, ok string) {
	g, err := b.resolveGoal(owner, args)
	if err != nil {
		b.reply(ctx, chatID, "Не нашёл такую цель. Список: /goals")
		return
	}
	if err := op(owner, g.ID); err != nil {
		b.reply(ctx, chatID, "Не получилось изменить статус цели.")
		return
	}
	b.reply(ctx, chatID, ok)
}

func (b *Bot) cmdAchievements(ctx context.Context, chatID int64, owner string) {
	list := b.goals.Achievements(owner)
	if len(list) == 0 {
		b.reply(ctx, chatID, "Наград пока нет. Первая завершённая цель принесёт первую.")
		return
	}
	var sb strings.Builder
	sb.WriteString("Твои награды:\n")
	for _, a := range list {
		fmt.Fprintf(&sb, "🏅 %s (%s)\n", a.Title, a.AwardedAt.Format("2006-01-02"))
	}
	b.reply(ctx, chatID, sb.String())
}

func (b *Bot) cmdMoodChart(ctx context.Context, chatID int64, user *mind.User) {
	png, err := charts.MoodTrend(user.ObservationsTail(30))
	if err != nil {
		if errors.Is(err, charts.ErrNotEnoughData) {
			b.reply(ctx, chatID, "Мало данных для графика. Поговорим ещё немного?")
			return
		}
		b.reply(ctx, chatID, "Не получилось построить график.")
		return
	}
	b.replyPhoto(ctx, chatID, png, "Тренд настроения за последние сообщения")
}

func (b *Bot) cmdGoalsChart(ctx context.Context, chatID int64, owner string) {
	png, err := charts.GoalBreakdown(b.goals.List(owner))
	if err != nil {
		if errors.Is(err, charts.ErrNotEnoughData) {
			b.reply(ctx, chatID, "Целей пока нет, рисовать нечего. /addgoal")
			return
		}
		b.reply(ctx, chatID, "Не получилось построить график.")
		return
	}
	b.replyPhoto(ctx, chatID, png, "Цели по статусам")
}

func (b *Bot) cmdModel(ctx context.Context, chatID int64, user *mind.User, args string) {
	current := user.Model()
	if current == "" {
		current = b.cfg.DefaultModel
	}
	if args == "" {
		b.reply(ctx, chatID, fmt.Sprintf("Текущая модель: %s\nДоступные: %s", current, strings.Join(ai.KnownModels, ", ")))
		return
	}
	for _, m := range ai.KnownModels {
		if m == args {
			user.SetModel(m)
			b.reply(ctx, chatID, "Переключил модель на "+m)
			return
		}
	}
	b.reply(ctx, chatID, "Такой модели нет. Доступные: "+strings.Join(ai.KnownModels, ", "))
}

func (b *Bot) cmdProactive(ctx context.Context, chatID int64, owner string) {
	if b.proactive == nil {
		b.reply(ctx, chatID, "Проактивный режим недоступен.")
		return
	}
	if b.proactive.Toggle(owner) {
		b.reply(ctx, chatID, "Проактивный режим включён: буду писать сам по расписанию. /schedule покажет окна.")
		return
	}
	b.reply(ctx, chatID, "Проактивный режим выключен. Пишу только в ответ.")
}

func (b *Bot) cmdSchedule(ctx context.Context, chatID int64, owner string) {
	state := "выключен"
	if b.proactive != nil && b.proactive.Running(owner) {
		state = "включён"
	}
	b.reply(ctx, chatID, fmt.Sprintf(`Проактивный режим: %s

Окна (время сервера):
09:00 — утренний чек-ин
14:00 — напоминание о плане
21:00 — вечерняя рефлексия

Плюс: возвращение после 3 дней тишины, поддержка при низком настроении, напоминания о просроченных целях.`, state))
}

func (b *Bot) weeklyReport(user *mind.User) string {
	mood, progress := user.Scores()
	weekAgo := time.Now().UTC().Add(-7 * 24 * time.Hour)

	var count int
	var toneSum float64
	themes := map[string]int{}
	for _, o := range user.ObservationsTail(200) {
		if o.TS.Before(weekAgo) {
			continue
		}
		count++
		toneSum += o.Tone
		for _, tag := range o.Tags {
			themes[tag]++
		}
	}

	var topThemes []string
	for t := range themes {
		topThemes = append(topThemes, t)
	}
	sort.Slice(topThemes, func(i, j int) bool {
		if themes[topThemes[i]] != themes[topThemes[j]] {
			return themes[topThemes[i]] > themes[topThemes[j]]
		}
		return topThemes[i] < topThemes[j]
	})
	if len(topThemes) > 3 {
		topThemes = topThemes[:3]
	}

	avgTone := 0.0
	if count > 0 {
		avgTone = toneSum / float64(count)
	}

	st := b.goals.OwnerStats(user.ID)

	var sb strings.Builder
	sb.WriteString("Отчёт за неделю:\n")
	fmt.Fprintf(&sb, "Сообщений: %d, средний тон: %+.2f\n", count, avgTone)
	fmt.Fprintf(&sb, "Текущее настроение: %+.2f, прогресс: %+.2f\n", mood, progress)
	if len(topThemes) > 0 {
		fmt.Fprintf(&sb, "Главные темы: %s\n", strings.Join(topThemes, ", "))
	}
	fmt.Fprintf(&sb, "Цели: всего %d, активных %d, завершённых %d, средний прогресс %.0f%%\n",
		st.Total, st.ByStatus[goals.StatusActive], st.ByStatus[goals.StatusCompleted], st.AvgProgress*100)
	sb.WriteString(b.goals.SuggestNextAction(user.ID))
	return sb.String()
}

func (b *Bot) statusReport() string {
	uptime := time.Since(b.startedAt).Round(time.Second)
	return fmt.Sprintf(`%s %s
Аптайм: %s
Пользователей в памяти: %d
Горутин: %d`,
		version.AppName, version.Version, uptime, len(b.store.Users()), runtime.NumGoroutine())
}
