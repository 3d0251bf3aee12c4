// Package scheduler runs the periodic registry sweep and watchlist analyses.
package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"EquityDesk/internal/model"
)

// Sweeper drops finished tasks older than a retention window.
type Sweeper interface {
	Sweep(olderThan time.Duration) int
}

// Submitter starts a background analysis.
type Submitter interface {
	Submit(ticker string) model.TaskRecord
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	cron      *cron.Cron
	sweeper   Sweeper
	submitter Submitter
	retention time.Duration
	logger    arbor.ILogger
}

// NewScheduler creates a scheduler using six-field (seconds first) cron specs.
func NewScheduler(sweeper Sweeper, submitter Submitter, retention time.Duration, logger arbor.ILogger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		sweeper:   sweeper,
		submitter: submitter,
		retention: retention,
		logger:    logger,
	}
}

// Register adds the sweep job and, when watchlistCron is set, the watchlist job.
func (s *Scheduler) Register(sweepCron, watchlistCron string, watchlist []string) error {
	if _, err := s.cron.AddFunc(sweepCron, s.SweepNow); err != nil {
		return fmt.Errorf("register sweep task: %w", err)
	}
	if watchlistCron == "" {
		return nil
	}
	tickers := normalize(watchlist)
	if _, err := s.cron.AddFunc(watchlistCron, func() { s.RunWatchlist(tickers) }); err != nil {
		return fmt.Errorf("register watchlist task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// SweepNow removes expired tasks from the registry.
func (s *Scheduler) SweepNow() {
	if n := s.sweeper.Sweep(s.retention); n > 0 {
		s.logger.Debug().Int("removed", n).Msg("registry swept")
	}
}

// RunWatchlist submits one analysis per ticker.
func (s *Scheduler) RunWatchlist(tickers []string) {
	for _, t := range tickers {
		rec := s.submitter.Submit(t)
		s.logger.Info().Str("ticker", t).Str("task_id", rec.TaskID).Msg("watchlist analysis submitted")
	}
}

func normalize(tickers []string) []string {
	out := make([]string, 0, len(tickers))
	seen := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
