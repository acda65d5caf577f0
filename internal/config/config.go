package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration, sourced from .env and the
// process environment.
type Config struct {
	TelegramToken string `env:"TELEGRAM_TOKEN,required,notEmpty"`
	GeminiAPIKey  string `env:"GEMINI_API_KEY,required,notEmpty"`
	AdminUserIDs  string `env:"ADMIN_USER_IDS" envDefault:""`

	DataDir string `env:"DATA_DIR" envDefault:"./data"`
	LogFile string `env:"LOG_FILE" envDefault:"./data/bot.log"`

	SystemPrompt string `env:"SYSTEM_PROMPT" envDefault:"Ты — личный помощник и коуч. Отвечай по-русски, коротко и по делу, с опорой на состояние и цели собеседника."`

	DefaultModel    string  `env:"DEFAULT_MODEL" envDefault:"gemini-2.5-flash-lite"`
	Temperature     float64 `env:"GEN_TEMPERATURE" envDefault:"0.9"`
	TopP            float64 `env:"GEN_TOP_P" envDefault:"0.9"`
	MaxOutputTokens int     `env:"GEN_MAX_OUTPUT_TOKENS" envDefault:"8192"`

	ProactiveInterval time.Duration `env:"PROACTIVE_INTERVAL" envDefault:"5m"`
	AutoSaveInterval  time.Duration `env:"AUTOSAVE_INTERVAL" envDefault:"30s"`

	// ConfirmKeyword arms the admin side-channel: a staged action only
	// runs after this exact word arrives in a follow-up message.
	ConfirmKeyword string `env:"CONFIRM_KEYWORD" envDefault:"nemesis"`
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// AdminIDs parses ADMIN_USER_IDS into numeric Telegram user ids.
// Malformed entries are skipped.
func (c *Config) AdminIDs() []int64 {
	var ids []int64
	for _, part := range strings.Split(c.AdminUserIDs, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// IsAdmin reports whether id is listed in ADMIN_USER_IDS.
func (c *Config) IsAdmin(id int64) bool {
	for _, admin := range c.AdminIDs() {
		if admin == id {
			return true
		}
	}
	return false
}
