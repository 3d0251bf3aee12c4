package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"EquityDesk/internal/api"
	"EquityDesk/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, scheduler and Telegram bot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a, err := newApp(ctx, cfg, log, true)
		if err != nil {
			return err
		}
		defer a.close()

		sched := scheduler.NewScheduler(a.registry, a.orch, cfg.Pipeline.Retention, log)
		if err := sched.Register(cfg.Schedule.SweepCron, cfg.Schedule.WatchlistCron, cfg.Schedule.Watchlist); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		if a.notifier != nil {
			a.notifier.ListenForCommands(ctx, a.orch, a.registry)
		}

		srv := api.NewServer(cfg.Server.ListenAddr, a.orch, a.registry, a.gateway, log,
			api.WithArchive(a.recorder),
			api.WithNewsLimit(cfg.Market.NewsLimit),
		)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		log.Info().Msg("EquityDesk is running. Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("shutdown signal received, stopping...")
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("api shutdown")
		}
		cancel()
		a.orch.Wait()
		log.Info().Msg("EquityDesk stopped")
		return nil
	},
}
