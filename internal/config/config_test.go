package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAndEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("FITBRO_ADMIN_IDS", "11,22")
	t.Setenv("FITBRO_TIMEZONE", "UTC")
	t.Setenv("FITBRO_PROMPT_TTL", "5m")
	t.Setenv("FITBRO_POSTGRES_DSN", "postgres://fitbro@localhost/fitbro")
	SetupCommon()

	cfg := New()
	require.Equal(t, []int64{11, 22}, cfg.AdminIDs)
	require.True(t, cfg.IsAdmin(22))
	require.False(t, cfg.IsAdmin(33))

	require.Equal(t, "postgres", cfg.DatabaseDriver)
	require.Equal(t, "postgres://fitbro@localhost/fitbro", cfg.PostgresDSN)
	require.Equal(t, 5*time.Minute, cfg.PromptTTL)
	require.Equal(t, 24*time.Hour, cfg.DuelResponseWindow)
	require.Equal(t, 1024, cfg.PromptCacheSize)
	require.Equal(t, "22:00", cfg.EveningReminderAt)
	require.Equal(t, "UTC", cfg.Location().String())
}

func TestLocationFallsBackToUTC(t *testing.T) {
	require.Equal(t, time.UTC, (&Config{}).Location())
}
