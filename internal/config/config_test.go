package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"LISTEN_ADDR", "LOG_LEVEL", "PRICE_PROVIDER", "NEWS_PROVIDER", "EODHD_API_KEY", "TAVILY_API_KEY",
	"DRAFTER_PROVIDER", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
	"SQLITE_PATH", "HTTPS_PROXY", "TASK_TIMEOUT", "NEWS_LIMIT",
}

func clearEnv(t *testing.T) {
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.ListenAddr)
	assert.Equal(t, "yahoo", cfg.Market.PriceProvider)
	assert.Equal(t, "none", cfg.Market.NewsProvider)
	assert.Equal(t, "template", cfg.Drafter.Provider)
	assert.Equal(t, 3, cfg.Market.Attempts)
	assert.Equal(t, 10, cfg.Market.NewsLimit)
	assert.Equal(t, 5*time.Minute, cfg.Pipeline.TaskTimeout)
	assert.Equal(t, 1e-6, cfg.Pipeline.Epsilon)
	assert.Equal(t, 2, *cfg.Pipeline.MaxRevisions)
	assert.Equal(t, time.Hour, cfg.Pipeline.Retention)
	assert.Equal(t, "0 * * * * *", cfg.Schedule.SweepCron)
	assert.False(t, cfg.TelegramEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  listen_addr: ":9090"
market:
  price_provider: mock
  news_provider: tavily
  tavily_api_key: tv-key
  backoff: 250ms
pipeline:
  task_timeout: 90s
  max_revisions: 0
schedule:
  watchlist_cron: "0 30 21 * * 1-5"
  watchlist: [AAPL, MSFT]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, "mock", cfg.Market.PriceProvider)
	assert.Equal(t, 250*time.Millisecond, cfg.Market.Backoff)
	assert.Equal(t, 90*time.Second, cfg.Pipeline.TaskTimeout)
	assert.Equal(t, 0, *cfg.Pipeline.MaxRevisions)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Schedule.Watchlist)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "drafter:\n  provider: claude\n")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("LISTEN_ADDR", ":7000")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("TASK_TIMEOUT", "2m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Drafter.APIKey)
	assert.Equal(t, ":7000", cfg.Server.ListenAddr)
	assert.Equal(t, 2*time.Minute, cfg.Pipeline.TaskTimeout)
	assert.True(t, cfg.TelegramEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "server: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown price provider", func(c *Config) { c.Market.PriceProvider = "bloomberg" }, "price_provider"},
		{"eodhd without key", func(c *Config) { c.Market.PriceProvider = "eodhd" }, "eodhd_api_key"},
		{"tavily without key", func(c *Config) { c.Market.NewsProvider = "tavily" }, "tavily_api_key"},
		{"claude without key", func(c *Config) { c.Drafter.Provider = "claude" }, "drafter.api_key"},
		{"unknown drafter", func(c *Config) { c.Drafter.Provider = "gpt" }, "drafter.provider"},
		{"revision cap too high", func(c *Config) { n := 5; c.Pipeline.MaxRevisions = &n }, "max_revisions"},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "x" }, "telegram"},
		{"watchlist cron without tickers", func(c *Config) { c.Schedule.WatchlistCron = "0 0 * * * *" }, "watchlist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
