package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"EquityDesk/internal/collector"
	"EquityDesk/internal/config"
	"EquityDesk/internal/drafter"
	"EquityDesk/internal/logger"
	"EquityDesk/internal/model"
	"EquityDesk/internal/notifier"
	"EquityDesk/internal/pipeline"
	"EquityDesk/internal/recorder"
	"EquityDesk/internal/registry"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg      *config.Config
	logger   arbor.ILogger
	gateway  *collector.Gateway
	registry *registry.Registry
	recorder recorder.Recorder
	notifier *notifier.TelegramNotifier
	orch     *pipeline.Orchestrator
}

func loadConfig() (*config.Config, arbor.ILogger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}
	log := logger.Init(logger.Options{Level: cfg.Logging.Level, Console: true, File: cfg.Logging.File})
	return cfg, log, nil
}

func newApp(ctx context.Context, cfg *config.Config, log arbor.ILogger, withNotifier bool) (*app, error) {
	a := &app{cfg: cfg, logger: log, registry: registry.New()}

	prices, news := marketSources(cfg, log)
	a.gateway = collector.NewGateway(prices, news, log,
		collector.WithAttempts(cfg.Market.Attempts),
		collector.WithBackoff(cfg.Market.Backoff),
	)
	log.Info().Str("prices", prices.Name()).Str("news", cfg.Market.NewsProvider).Msg("market data sources")

	d, err := drafter.New(ctx, drafter.Config{
		Provider:    cfg.Drafter.Provider,
		APIKey:      cfg.Drafter.APIKey,
		Model:       cfg.Drafter.Model,
		MaxTokens:   cfg.Drafter.MaxTokens,
		Temperature: cfg.Drafter.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("init drafter: %w", err)
	}
	log.Info().Str("drafter", d.Name()).Msg("drafter ready")

	a.recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			a.recorder = sr
		}
	}

	opts := []pipeline.Option{
		pipeline.WithBaseContext(ctx),
		pipeline.WithTaskTimeout(cfg.Pipeline.TaskTimeout),
		pipeline.WithListener(a.archive),
	}
	if withNotifier && cfg.TelegramEnabled() {
		tn, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log,
			notifier.WithContext(ctx))
		if err != nil {
			log.Warn().Err(err).Msg("telegram disabled")
		} else {
			a.notifier = tn
			opts = append(opts, pipeline.WithListener(tn.NotifyTask))
		}
	}

	a.orch = pipeline.NewOrchestrator(
		pipeline.NewResearcher(a.gateway, cfg.Market.Period, cfg.Market.Interval, cfg.Market.NewsLimit),
		pipeline.NewWriter(d, log),
		pipeline.NewCritic(cfg.Pipeline.Epsilon, *cfg.Pipeline.MaxRevisions),
		a.registry, log, opts...,
	)
	return a, nil
}

func marketSources(cfg *config.Config, log arbor.ILogger) (collector.PriceSource, collector.NewsSource) {
	var eodhd *collector.EODHDClient
	eod := func() *collector.EODHDClient {
		if eodhd == nil {
			eodhd = collector.NewEODHDClient(cfg.Market.EODHDAPIKey,
				collector.WithEODHDLogger(log),
				collector.WithEODHDRateLimit(cfg.Market.EODHDRateLimit),
			)
		}
		return eodhd
	}

	var prices collector.PriceSource
	switch strings.ToLower(cfg.Market.PriceProvider) {
	case "eodhd":
		prices = eod()
	case "mock":
		prices = &collector.MockFetcher{}
	default:
		prices = collector.NewYahooFetcher(cfg.Proxy)
	}

	var news collector.NewsSource
	switch strings.ToLower(cfg.Market.NewsProvider) {
	case "eodhd":
		news = eod()
	case "tavily":
		news = collector.NewTavilyNews(cfg.Market.TavilyAPIKey, cfg.Proxy)
	case "mock":
		news = &collector.MockNews{}
	}
	return prices, news
}

func (a *app) archive(rec model.TaskRecord) {
	if err := a.recorder.RecordTask(&rec); err != nil {
		a.logger.Error().Str("task_id", rec.TaskID).Err(err).Msg("archive task")
	}
}

func (a *app) close() {
	if err := a.recorder.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("close recorder")
	}
}
