package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	TelegramToken    string        `mapstructure:"telegram_token"`
	ChatID           int64         `mapstructure:"chat_id"`
	AdminIDs         []int64       `mapstructure:"admin_ids"`
	BotHandleTimeout time.Duration `mapstructure:"bot_handle_timeout"`

	DatabaseDriver string `mapstructure:"database_driver"`
	PostgresDSN    string `mapstructure:"postgres_dsn"`
	SQLitePath     string `mapstructure:"sqlite_path"`

	Timezone           string        `mapstructure:"timezone"`
	PromptTTL          time.Duration `mapstructure:"prompt_ttl"`
	PromptCacheSize    int           `mapstructure:"prompt_cache_size"`
	DuelResponseWindow time.Duration `mapstructure:"duel_response_window"`
	MorningReminderAt  string        `mapstructure:"morning_reminder_at"`
	EveningReminderAt  string        `mapstructure:"evening_reminder_at"`

	FactsAPIURL   string `mapstructure:"facts_api_url"`
	APIListenAddr string `mapstructure:"api_listen_addr"`

	location *time.Location
}

func New() *Config {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		logrus.Fatalf("unmarshalling config: %v", err)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logrus.Fatalf("loading timezone %q: %v", cfg.Timezone, err)
	}
	cfg.location = loc
	return cfg
}

// Location is the community's local timezone. Calendar days, ISO weeks and
// reminder times are all evaluated in it.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Config) IsAdmin(userID int64) bool {
	return slices.Contains(c.AdminIDs, userID)
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Config(chat=%d, admins=%v, driver=%s, tz=%s, prompt_ttl=%s, duel_window=%s)",
		c.ChatID,
		c.AdminIDs,
		c.DatabaseDriver,
		c.Timezone,
		c.PromptTTL,
		c.DuelResponseWindow,
	)
}

func SetupCommon() {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	}

	viper.SetDefault("database_driver", "postgres")
	viper.SetDefault("sqlite_path", "data/fitbro.db")
	viper.SetDefault("timezone", "Europe/Moscow")
	viper.SetDefault("bot_handle_timeout", "10s")
	viper.SetDefault("prompt_ttl", "30m")
	viper.SetDefault("prompt_cache_size", 1024)
	viper.SetDefault("duel_response_window", "24h")
	viper.SetDefault("morning_reminder_at", "09:00")
	viper.SetDefault("evening_reminder_at", "22:00")
	viper.SetDefault("facts_api_url", "https://uselessfacts.jsph.pl")
	viper.SetDefault("api_listen_addr", ":8080")
	viper.SetEnvPrefix("FITBRO")

	viper.MustBindEnv("postgres_dsn")
	viper.MustBindEnv("admin_ids")
	viper.AutomaticEnv()
}
