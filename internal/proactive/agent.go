// Package proactive runs per-user background agents that emit
// unsolicited messages: daily check-in windows, comeback pings after
// long silence, low-mood support and overdue-goal reminders.
package proactive

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/vigogots-alt/bigbadbotsbot/internal/goals"
	"github.com/vigogots-alt/bigbadbotsbot/internal/mind"
)

// Sender delivers outbound messages. Sends are fire-and-forget:
// failures are logged by the agent, never retried.
type Sender interface {
	SendText(ctx context.Context, userID, text string) error
}

// Schedule windows with a ±5 minute tolerance and a 12 hour cooldown
// per window event.
const (
	windowTolerance = 5 * time.Minute
	windowCooldown  = 12 * time.Hour

	comebackGap      = 3 * 24 * time.Hour
	supportCooldown  = 24 * time.Hour
	reminderCooldown = 24 * time.Hour

	lowMoodThreshold = -0.4
)

type window struct {
	name    string
	hour    int
	minute  int
	message func(a *Agent) string
}

var windows = []window{
	{
		name: "morning_checkin", hour: 9,
		message: func(a *Agent) string {
			mood, _ := a.user.Scores()
			greeting := "Доброе утро! Как настрой?"
			if mood < -0.2 {
				greeting = "Доброе утро. Вчера было непросто, давай сегодня полегче."
			}
			if top := a.topActiveGoal(); top != "" {
				greeting += " Сегодня один шаг к цели: " + top
			}
			return greeting
		},
	},
	{
		name: "midday_reminder", hour: 14,
		message: func(a *Agent) string {
			return "Середина дня. Успел сделать что-то из плана? Напиши /plan, если забыл."
		},
	},
	{
		name: "evening_reflection", hour: 21,
		message: func(a *Agent) string {
			return "Вечер. Что сегодня получилось, а что нет? Пара строк рефлексии помогает."
		},
	},
}

var comebackTemplates = []string{
	"Давно тебя не было. Как дела?",
	"Пропал на несколько дней. Всё в порядке?",
	"Вернись, у нас остались незакрытые цели.",
}

// Agent is one user's proactive loop. It shares the user handle's lock
// with the request path, so reads and cooldown marks stay consistent.
type Agent struct {
	userID string
	user   *mind.User
	goals  *goals.Manager
	sender Sender
	log    zerolog.Logger

	interval time.Duration
	now      func() time.Time
	rng      *rand.Rand
}

// NewAgent builds an agent ticking at interval.
func NewAgent(userID string, user *mind.User, gm *goals.Manager, sender Sender, interval time.Duration, logger zerolog.Logger) *Agent {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Agent{
		userID:   userID,
		user:     user,
		goals:    gm,
		sender:   sender,
		log:      logger.With().Str("comp", "proactive").Str("user", userID).Logger(),
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run loops until ctx is cancelled. Cancellation is cooperative: an
// in-flight send finishes, the next tick never starts.
func (a *Agent) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

func (a *Agent) tick(ctx context.Context) {
	now := a.now()
	a.checkWindows(ctx, now)
	a.checkComeback(ctx, now)
	a.checkLowMood(ctx, now)
	a.checkOverdueGoals(ctx, now)
}

func (a *Agent) checkWindows(ctx context.Context, now time.Time) {
	for _, w := range windows {
		target := time.Date(now.Year(), now.Month(), now.Day(), w.hour, w.minute, 0, 0, now.Location())
		diff := now.Sub(target)
		if diff < -windowTolerance || diff > windowTolerance {
			continue
		}
		markKey := "last_" + w.name
		if last := a.user.ProactiveMark(markKey); !last.IsZero() && now.Sub(last) < windowCooldown {
			continue
		}
		a.send(ctx, w.message(a))
		a.user.SetProactiveMark(markKey, now)
	}
}

// checkComeback pings once per detected absence gap: the mark must
// predate the last-seen timestamp for a new ping to fire.
func (a *Agent) checkComeback(ctx context.Context, now time.Time) {
	lastSeen := a.user.LastSeen()
	if lastSeen.IsZero() || now.Sub(lastSeen) <= comebackGap {
		return
	}
	mark := a.user.ProactiveMark("last_comeback")
	if !mark.IsZero() && mark.After(lastSeen) {
		return
	}
	a.send(ctx, comebackTemplates[a.rng.Intn(len(comebackTemplates))])
	a.user.SetProactiveMark("last_comeback", now)
}

func (a *Agent) checkLowMood(ctx context.Context, now time.Time) {
	mood, _ := a.user.Scores()
	if mood >= lowMoodThreshold {
		return
	}
	if last := a.user.ProactiveMark("last_support_message"); !last.IsZero() && now.Sub(last) < supportCooldown {
		return
	}
	a.send(ctx, "Вижу, что последние дни тяжёлые. Я рядом. Хочешь, разберём, что давит сильнее всего?")
	a.user.SetProactiveMark("last_support_message", now)
}

func (a *Agent) checkOverdueGoals(ctx context.Context, now time.Time) {
	for _, g := range a.goals.Overdue(a.userID) {
		markKey := "reminder_" + g.ID
		if last := a.user.ProactiveMark(markKey); !last.IsZero() && now.Sub(last) < reminderCooldown {
			continue
		}
		a.send(ctx, fmt.Sprintf("Дедлайн по цели «%s» уже прошёл. Обновить срок или закрыть её? /goals", g.Title))
		a.user.SetProactiveMark(markKey, now)
		return
	}
}

func (a *Agent) topActiveGoal() string {
	active := a.goals.Active(a.userID)
	if len(active) == 0 {
		return ""
	}
	top := active[0]
	for _, g := range active[1:] {
		if g.Priority < top.Priority {
			top = g
		}
	}
	return top.Title
}

func (a *Agent) send(ctx context.Context, text string) {
	if err := a.sender.SendText(ctx, a.userID, text); err != nil {
		a.log.Warn().Err(err).Msg("proactive send failed")
	}
}
