package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"EquityDesk/internal/model"
)

// DefaultTaskTimeout bounds a single analysis end to end.
const DefaultTaskTimeout = 5 * time.Minute

// maxDrafts is the hard ceiling on Writer invocations per task.
const maxDrafts = 3

// TaskStore is the registry the orchestrator reports progress to.
type TaskStore interface {
	Create(ticker string) model.TaskRecord
	Get(id string) (model.TaskRecord, error)
	MarkRunning(id string) error
	SetStage(id, stage string) error
	Complete(id string, result *model.TaskResult) error
	Fail(id, cause string) error
}

// Listener is called once with every task record that reaches a terminal status.
type Listener func(model.TaskRecord)

// Orchestrator sequences the stages for each submitted ticker.
type Orchestrator struct {
	researcher *Researcher
	writer     *Writer
	critic     *Critic
	store      TaskStore
	logger     arbor.ILogger

	timeout   time.Duration
	base      context.Context
	listeners []Listener
	wg        sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTaskTimeout overrides DefaultTaskTimeout.
func WithTaskTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithBaseContext sets the parent context of background tasks.
func WithBaseContext(ctx context.Context) Option {
	return func(o *Orchestrator) { o.base = ctx }
}

// WithListener registers a terminal-record listener.
func WithListener(l Listener) Option {
	return func(o *Orchestrator) { o.listeners = append(o.listeners, l) }
}

// NewOrchestrator wires the stages to a task store.
func NewOrchestrator(r *Researcher, w *Writer, c *Critic, store TaskStore, logger arbor.ILogger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		researcher: r,
		writer:     w,
		critic:     c,
		store:      store,
		logger:     logger,
		timeout:    DefaultTaskTimeout,
		base:       context.Background(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Submit registers a task for ticker, starts it in the background and
// returns the pending record immediately.
func (o *Orchestrator) Submit(ticker string) model.TaskRecord {
	rec := o.store.Create(ticker)
	o.logger.Info().Str("task_id", rec.TaskID).Str("ticker", ticker).Msg("analysis submitted")

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.execute(rec.TaskID, ticker)
	}()
	return rec
}

// Wait blocks until every submitted task has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Run executes the pipeline synchronously and returns the final state.
func (o *Orchestrator) Run(ctx context.Context, ticker string) (State, error) {
	return o.run(ctx, ticker, func(string) {})
}

func (o *Orchestrator) execute(id, ticker string) {
	ctx, cancel := context.WithTimeout(o.base, o.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Str("task_id", id).Msgf("pipeline panic: %v", r)
			o.fail(id, fmt.Sprintf("internal error: %v", r))
		}
		o.notify(id)
	}()

	if err := o.store.MarkRunning(id); err != nil {
		o.logger.Warn().Str("task_id", id).Err(err).Msg("task not runnable")
		return
	}

	s, err := o.run(ctx, ticker, func(stage string) {
		if err := o.store.SetStage(id, stage); err != nil {
			o.logger.Debug().Str("task_id", id).Err(err).Msg("stage not recorded")
		}
	})
	if err != nil {
		cause := err.Error()
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			cause = "analysis timed out"
		}
		o.fail(id, cause)
		return
	}

	result := &model.TaskResult{DraftReport: s.Draft, RevisionCount: s.RevisionCount}
	if err := o.store.Complete(id, result); err != nil {
		o.logger.Warn().Str("task_id", id).Err(err).Msg("completion ignored")
		return
	}
	o.logger.Info().
		Str("task_id", id).
		Str("ticker", ticker).
		Str("confidence", string(s.Draft.Confidence)).
		Int("revisions", s.RevisionCount).
		Msg("analysis complete")
}

func (o *Orchestrator) fail(id, cause string) {
	if err := o.store.Fail(id, cause); err != nil {
		o.logger.Warn().Str("task_id", id).Err(err).Msg("failure ignored")
		return
	}
	o.logger.Warn().Str("task_id", id).Str("cause", cause).Msg("analysis failed")
}

func (o *Orchestrator) notify(id string) {
	if len(o.listeners) == 0 {
		return
	}
	rec, err := o.store.Get(id)
	if err != nil || !rec.Status.Terminal() {
		return
	}
	for _, l := range o.listeners {
		l(rec)
	}
}

// run drives Researching -> Analyzing -> (Drafting -> Reviewing)* and never
// revisits the first two stages.
func (o *Orchestrator) run(ctx context.Context, ticker string, onStage func(string)) (State, error) {
	s := State{Ticker: ticker}

	o.enter(ticker, StageResearching, onStage)
	s, err := o.researcher.Run(ctx, s)
	if err != nil {
		return s, err
	}

	o.enter(ticker, StageAnalyzing, onStage)
	s = Analyze(s)

	for draft := 1; draft <= maxDrafts; draft++ {
		if err := ctx.Err(); err != nil {
			return s, err
		}

		o.enter(ticker, StageDrafting, onStage)
		s, err = o.writer.Run(ctx, s)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return s, ctxErr
			}
			return s, err
		}

		o.enter(ticker, StageReviewing, onStage)
		var verdict Verdict
		s, verdict = o.critic.Run(s)
		o.logger.Debug().
			Str("ticker", ticker).
			Str("verdict", verdict.String()).
			Int("revision", s.RevisionCount).
			Msg("draft reviewed")
		if verdict != VerdictRevise {
			return s, nil
		}
	}
	// Unreachable while the critic's revision cap is below maxDrafts.
	return s, fmt.Errorf("%w: revision limit exceeded", ErrDraftingFailed)
}

func (o *Orchestrator) enter(ticker, stage string, onStage func(string)) {
	o.logger.Debug().Str("ticker", ticker).Str("stage", stage).Msg("stage")
	onStage(stage)
}
