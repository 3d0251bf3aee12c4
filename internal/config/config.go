// Package config loads the service configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
	Market struct {
		PriceProvider  string        `yaml:"price_provider"` // yahoo, eodhd, mock
		NewsProvider   string        `yaml:"news_provider"`  // eodhd, tavily, mock, none
		Period         string        `yaml:"period"`
		Interval       string        `yaml:"interval"`
		NewsLimit      int           `yaml:"news_limit"`
		Attempts       int           `yaml:"attempts"`
		Backoff        time.Duration `yaml:"backoff"`
		EODHDAPIKey    string        `yaml:"eodhd_api_key"`
		EODHDRateLimit int           `yaml:"eodhd_rate_limit"`
		TavilyAPIKey   string        `yaml:"tavily_api_key"`
	} `yaml:"market"`
	Drafter struct {
		Provider    string  `yaml:"provider"` // claude, gemini, template
		APIKey      string  `yaml:"api_key"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"drafter"`
	Pipeline struct {
		TaskTimeout  time.Duration `yaml:"task_timeout"`
		Epsilon      float64       `yaml:"epsilon"`
		MaxRevisions *int          `yaml:"max_revisions"`
		Retention    time.Duration `yaml:"retention"`
	} `yaml:"pipeline"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		SweepCron     string   `yaml:"sweep_cron"`
		WatchlistCron string   `yaml:"watchlist_cron"`
		Watchlist     []string `yaml:"watchlist"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"` // empty disables the archive
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&c.Server.ListenAddr, "LISTEN_ADDR")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Market.PriceProvider, "PRICE_PROVIDER")
	setString(&c.Market.NewsProvider, "NEWS_PROVIDER")
	setString(&c.Market.EODHDAPIKey, "EODHD_API_KEY")
	setString(&c.Market.TavilyAPIKey, "TAVILY_API_KEY")
	setString(&c.Drafter.Provider, "DRAFTER_PROVIDER")
	setString(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setString(&c.Database.SQLitePath, "SQLITE_PATH")
	setString(&c.Proxy, "HTTPS_PROXY")

	if c.Drafter.APIKey == "" {
		switch strings.ToLower(c.Drafter.Provider) {
		case "claude":
			c.Drafter.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "gemini":
			c.Drafter.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	if v := os.Getenv("TASK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Pipeline.TaskTimeout = d
		}
	}
	if v := os.Getenv("NEWS_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Market.NewsLimit = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8000"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Market.PriceProvider == "" {
		c.Market.PriceProvider = "yahoo"
	}
	if c.Market.NewsProvider == "" {
		c.Market.NewsProvider = "none"
	}
	if c.Market.Period == "" {
		c.Market.Period = "1y"
	}
	if c.Market.Interval == "" {
		c.Market.Interval = "1d"
	}
	if c.Market.NewsLimit == 0 {
		c.Market.NewsLimit = 10
	}
	if c.Market.Attempts == 0 {
		c.Market.Attempts = 3
	}
	if c.Market.EODHDRateLimit == 0 {
		c.Market.EODHDRateLimit = 10
	}
	if c.Drafter.Provider == "" {
		c.Drafter.Provider = "template"
	}
	if c.Drafter.MaxTokens == 0 {
		c.Drafter.MaxTokens = 2048
	}
	if c.Pipeline.TaskTimeout == 0 {
		c.Pipeline.TaskTimeout = 5 * time.Minute
	}
	if c.Pipeline.Epsilon == 0 {
		c.Pipeline.Epsilon = 1e-6
	}
	if c.Pipeline.MaxRevisions == nil {
		n := 2
		c.Pipeline.MaxRevisions = &n
	}
	if c.Pipeline.Retention == 0 {
		c.Pipeline.Retention = time.Hour
	}
	if c.Schedule.SweepCron == "" {
		c.Schedule.SweepCron = "0 * * * * *"
	}
}

// TelegramEnabled reports whether both bot token and chat id are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks provider names and the settings they depend on.
func (c *Config) Validate() error {
	switch c.Market.PriceProvider {
	case "yahoo", "mock":
	case "eodhd":
		if c.Market.EODHDAPIKey == "" {
			return fmt.Errorf("market.eodhd_api_key is required for the eodhd price provider")
		}
	default:
		return fmt.Errorf("unknown market.price_provider %q", c.Market.PriceProvider)
	}

	switch c.Market.NewsProvider {
	case "none", "mock":
	case "eodhd":
		if c.Market.EODHDAPIKey == "" {
			return fmt.Errorf("market.eodhd_api_key is required for the eodhd news provider")
		}
	case "tavily":
		if c.Market.TavilyAPIKey == "" {
			return fmt.Errorf("market.tavily_api_key is required for the tavily news provider")
		}
	default:
		return fmt.Errorf("unknown market.news_provider %q", c.Market.NewsProvider)
	}

	switch strings.ToLower(c.Drafter.Provider) {
	case "template":
	case "claude", "gemini":
		if c.Drafter.APIKey == "" {
			return fmt.Errorf("drafter.api_key is required for the %s drafter", c.Drafter.Provider)
		}
	default:
		return fmt.Errorf("unknown drafter.provider %q", c.Drafter.Provider)
	}

	if c.Market.Attempts < 1 {
		return fmt.Errorf("market.attempts must be at least 1")
	}
	if c.Pipeline.Epsilon < 0 {
		return fmt.Errorf("pipeline.epsilon must not be negative")
	}
	if r := *c.Pipeline.MaxRevisions; r < 0 || r > 2 {
		return fmt.Errorf("pipeline.max_revisions must be between 0 and 2")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Schedule.WatchlistCron != "" && len(c.Schedule.Watchlist) == 0 {
		return fmt.Errorf("schedule.watchlist is required when schedule.watchlist_cron is set")
	}
	return nil
}
