package telegram

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vigogots-alt/bigbadbotsbot/internal/ai"
	"github.com/vigogots-alt/bigbadbotsbot/internal/config"
	"github.com/vigogots-alt/bigbadbotsbot/internal/goals"
	"github.com/vigogots-alt/bigbadbotsbot/internal/mind"
	"github.com/vigogots-alt/bigbadbotsbot/internal/proactive"
)

const (
	dialogWindow    = 20
	workerQueueSize = 16
	pollRetryDelay  = 3 * time.Second
)

const apologyReply = "Что-то пошло не так, попробуй ещё раз чуть позже."

// Bot ties the Telegram transport to the state engine, goal tracker and
// LLM provider. Each chat gets its own worker goroutine so one slow
// generation never blocks other users, while messages from the same
// chat stay strictly ordered.
type Bot struct {
	client    *Client
	cfg       *config.Config
	store     *mind.Store
	goals     *goals.Manager
	provider  ai.Provider
	proactive *proactive.Manager
	log       zerolog.Logger
	shutdown  context.CancelFunc
	startedAt time.Time

	mu      sync.Mutex
	workers map[int64]chan *Message
	wg      sync.WaitGroup
}

// New builds the bot. shutdown is invoked by the admin kill switch
// after confirmation.
func New(cfg *config.Config, store *mind.Store, gm *goals.Manager, provider ai.Provider, logger zerolog.Logger, shutdown context.CancelFunc) *Bot {
	return &Bot{
		client:    NewClient(cfg.TelegramToken),
		cfg:       cfg,
		store:     store,
		goals:     gm,
		provider:  provider,
		log:       logger.With().Str("comp", "telegram").Logger(),
		shutdown:  shutdown,
		startedAt: time.Now().UTC(),
		workers:   make(map[int64]chan *Message),
	}
}

// SetProactive attaches the proactive supervisor. Wired after
// construction because the supervisor needs the bot as its Sender.
func (b *Bot) SetProactive(pm *proactive.Manager) {
	b.proactive = pm
}

// SendText implements proactive.Sender. userID doubles as the private
// chat id.
func (b *Bot) SendText(ctx context.Context, userID, text string) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return err
	}
	return b.client.SendChunked(ctx, chatID, text)
}

// Run long-polls until ctx is cancelled, then drains the workers.
func (b *Bot) Run(ctx context.Context) error {
	me, err := b.client.GetMe(ctx)
	if err != nil {
		return err
	}
	b.log.Info().Str("username", me.Username).Msg("bot online")

	var offset int64
	for {
		select {
		case <-ctx.Done():
			b.closeWorkers()
			b.wg.Wait()
			return ctx.Err()
		default:
		}

		updates, err := b.client.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			b.log.Warn().Err(err).Msg("getUpdates failed")
			select {
			case <-ctx.Done():
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			b.dispatch(ctx, upd.Message)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, msg *Message) {
	if msg == nil || msg.Text == "" || msg.From == nil || msg.From.IsBot {
		return
	}

	b.mu.Lock()
	ch, ok := b.workers[msg.Chat.ID]
	if !ok {
		ch = make(chan *Message, workerQueueSize)
		b.workers[msg.Chat.ID] = ch
		b.wg.Add(1)
		go b.worker(ctx, msg.Chat.ID, ch)
	}
	b.mu.Unlock()

	select {
	case ch <- msg:
	default:
		b.log.Warn().Int64("chat", msg.Chat.ID).Msg("worker queue full, update dropped")
	}
}

func (b *Bot) worker(ctx context.Context, chatID int64, ch chan *Message) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.handle(ctx, msg)
		}
	}
}

func (b *Bot) closeWorkers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.workers {
		close(ch)
		delete(b.workers, id)
	}
}

func (b *Bot) handle(ctx context.Context, msg *Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	user := b.store.GetOrCreate(userID)
	user.Touch()

	text := strings.TrimSpace(msg.Text)

	if pending := user.PendingActionSlot(); pending != nil {
		if strings.EqualFold(text, b.cfg.ConfirmKeyword) {
			user.ClearPendingAction()
			b.executePending(ctx, msg.Chat.ID, pending)
			return
		}
		user.ClearPendingAction()
		b.reply(ctx, msg.Chat.ID, "Действие отменено.")
		return
	}

	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, msg, user, text)
		return
	}
	b.chat(ctx, msg.Chat.ID, user, text)
}

func (b *Bot) executePending(ctx context.Context, chatID int64, pending *mind.PendingAction) {
	switch pending.Kind {
	case "shutdown":
		b.reply(ctx, chatID, "Подтверждено. Выключаюсь.")
		b.log.Warn().Msg("admin shutdown confirmed")
		b.shutdown()
	default:
		b.log.Warn().Str("kind", pending.Kind).Msg("unknown pending action")
		b.reply(ctx, chatID, "Это действие мне неизвестно, сбросил его.")
	}
}

// chat runs the ordinary message flow: ingest into the state engine,
// compose the personalized context, generate and record the reply.
func (b *Bot) chat(ctx context.Context, chatID int64, user *mind.User, text string) {
	user.RecordMessage(text)
	user.AppendDialog("user", text)

	messages := []ai.Message{{
		Role:    "system",
		Content: b.cfg.SystemPrompt + "\n\nСостояние собеседника:\n" + user.BuildContext(),
	}}
	for _, turn := range user.DialogTail(dialogWindow) {
		messages = append(messages, ai.Message{Role: turn.Role, Content: turn.Content})
	}

	temperature, topP, maxTokens := user.EffectiveTuning()
	model := user.Model()
	if model == "" {
		model = b.cfg.DefaultModel
	}

	reply, err := b.provider.Generate(ctx, messages, ai.GenOptions{
		Model:           model,
		Temperature:     temperature,
		TopP:            topP,
		MaxOutputTokens: maxTokens,
	})
	if err != nil {
		b.log.Error().Err(err).Str("user", user.ID).Msg("generation failed")
		b.reply(ctx, chatID, apologyReply)
		return
	}

	user.AppendDialog("assistant", reply)
	user.RecordReply(text, reply)
	b.reply(ctx, chatID, reply)
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if text == "" {
		return
	}
	if err := b.client.SendChunked(ctx, chatID, text); err != nil {
		b.log.Warn().Err(err).Int64("chat", chatID).Msg("send failed")
	}
}

func (b *Bot) replyPhoto(ctx context.Context, chatID int64, photo []byte, caption string) {
	if err := b.client.SendPhoto(ctx, chatID, photo, caption); err != nil {
		b.log.Warn().Err(err).Int64("chat", chatID).Msg("send photo failed")
	}
}
