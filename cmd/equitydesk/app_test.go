package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"EquityDesk/internal/collector"
	"EquityDesk/internal/config"
	"EquityDesk/internal/model"
)

func offlineConfig(t *testing.T) *config.Config {
	t.Helper()
	for _, k := range []string{"PRICE_PROVIDER", "NEWS_PROVIDER", "DRAFTER_PROVIDER", "SQLITE_PATH", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID"} {
		t.Setenv(k, "")
	}
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	cfg.Market.PriceProvider = "mock"
	cfg.Market.NewsProvider = "mock"
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "reports.db")
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestMarketSources(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Market.PriceProvider = "eodhd"
	cfg.Market.NewsProvider = "eodhd"
	cfg.Market.EODHDAPIKey = "k"

	prices, news := marketSources(cfg, arbor.NewLogger())
	assert.Equal(t, "eodhd", prices.Name())
	assert.Same(t, prices.(*collector.EODHDClient), news.(*collector.EODHDClient))

	cfg.Market.PriceProvider = "yahoo"
	cfg.Market.NewsProvider = "none"
	prices, news = marketSources(cfg, arbor.NewLogger())
	assert.Equal(t, "yahoo", prices.Name())
	assert.Nil(t, news)
}

func TestAppRunsAndArchives(t *testing.T) {
	cfg := offlineConfig(t)
	a, err := newApp(context.Background(), cfg, arbor.NewLogger(), false)
	require.NoError(t, err)
	defer a.close()

	rec := a.orch.Submit("AAPL")
	a.orch.Wait()

	live, err := a.registry.Get(rec.TaskID)
	require.NoError(t, err)
	require.Equal(t, model.StatusComplete, live.Status, live.Error)

	archived, err := a.recorder.LoadTask(rec.TaskID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusComplete, archived.Status)
	assert.Equal(t, live.Result.DraftReport.Confidence, archived.Result.DraftReport.Confidence)
}
