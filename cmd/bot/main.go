// cmd/bot/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vigogots-alt/bigbadbotsbot/internal/ai"
	"github.com/vigogots-alt/bigbadbotsbot/internal/config"
	"github.com/vigogots-alt/bigbadbotsbot/internal/goals"
	"github.com/vigogots-alt/bigbadbotsbot/internal/logger"
	"github.com/vigogots-alt/bigbadbotsbot/internal/mind"
	"github.com/vigogots-alt/bigbadbotsbot/internal/proactive"
	"github.com/vigogots-alt/bigbadbotsbot/internal/telegram"
	v "github.com/vigogots-alt/bigbadbotsbot/internal/version"
)

const flushInterval = 60 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogFile)
	log.Info().Str("app", v.AppName).Str("version", v.Version).Msg("starting bot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := mind.Open(mind.Options{
		DataDir:          cfg.DataDir,
		AutoSaveInterval: cfg.AutoSaveInterval,
		Logger:           log,
		Defaults: mind.GenDefaults{
			Temperature:     cfg.Temperature,
			TopP:            cfg.TopP,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("open state store")
	}
	defer store.Close()

	gm, err := goals.Open(goals.Options{
		DataDir:          cfg.DataDir,
		AutoSaveInterval: cfg.AutoSaveInterval,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("open goal store")
	}
	defer gm.Close()

	provider := ai.NewGemini(cfg.GeminiAPIKey, log)

	bot := telegram.New(cfg, store, gm, provider, log, cancel)
	pm := proactive.NewManager(ctx, store, gm, bot, cfg.ProactiveInterval, log)
	bot.SetProactive(pm)

	go func() {
		ticker := time.NewTicker(flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := store.Flush(); err != nil {
					log.Warn().Err(err).Msg("state flush failed")
				}
				if err := gm.Flush(); err != nil {
					log.Warn().Err(err).Msg("goal flush failed")
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("bot error")
		}
		cancel()
	case <-ctx.Done():
	}

	pm.StopAll()
	log.Info().Msg("bot exited cleanly")
}
