// Package registry keeps the in-memory table of analysis tasks that the API
// polls.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"EquityDesk/internal/model"
)

var (
	// ErrNotFound is returned for an unknown task id.
	ErrNotFound = errors.New("task not found")
	// ErrTerminal is returned when a finished task is updated again.
	ErrTerminal = errors.New("task already finished")
)

// Registry is safe for concurrent use. Records are returned by value so
// callers never observe a partially written update.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*model.TaskRecord
	now   func() time.Time
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{tasks: make(map[string]*model.TaskRecord), now: time.Now}
}

// Create registers a pending task for ticker and returns it.
func (r *Registry) Create(ticker string) model.TaskRecord {
	now := r.now().UTC()
	rec := &model.TaskRecord{
		TaskID:    uuid.NewString(),
		Ticker:    ticker,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.tasks[rec.TaskID] = rec
	r.mu.Unlock()
	return *rec
}

// Get returns a snapshot of the task.
func (r *Registry) Get(id string) (model.TaskRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.tasks[id]
	if !ok {
		return model.TaskRecord{}, ErrNotFound
	}
	return *rec, nil
}

// MarkRunning moves a pending task to running.
func (r *Registry) MarkRunning(id string) error {
	return r.update(id, func(rec *model.TaskRecord) {
		rec.Status = model.StatusRunning
	})
}

// SetStage records which stage a running task is in.
func (r *Registry) SetStage(id, stage string) error {
	return r.update(id, func(rec *model.TaskRecord) {
		rec.Stage = stage
	})
}

// Complete stores the result and finishes the task.
func (r *Registry) Complete(id string, result *model.TaskResult) error {
	return r.update(id, func(rec *model.TaskRecord) {
		rec.Status = model.StatusComplete
		rec.Stage = ""
		rec.Result = result
	})
}

// Fail finishes the task with a human-readable cause.
func (r *Registry) Fail(id, cause string) error {
	return r.update(id, func(rec *model.TaskRecord) {
		rec.Status = model.StatusError
		rec.Stage = ""
		rec.Error = cause
	})
}

func (r *Registry) update(id string, fn func(*model.TaskRecord)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.tasks[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Status.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrTerminal, id, rec.Status)
	}
	fn(rec)
	rec.UpdatedAt = r.now().UTC()
	return nil
}

// Sweep drops finished tasks last updated before now-olderThan and returns
// how many were removed. Running tasks are never swept.
func (r *Registry) Sweep(olderThan time.Duration) int {
	cutoff := r.now().Add(-olderThan)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, rec := range r.tasks {
		if rec.Status.Terminal() && rec.UpdatedAt.Before(cutoff) {
			delete(r.tasks, id)
			n++
		}
	}
	return n
}

// Len returns the number of tracked tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
