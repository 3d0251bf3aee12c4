// Package recorder archives finished analysis tasks.
package recorder

import (
	"errors"

	"EquityDesk/internal/model"
)

// ErrNotFound is returned when no archived record exists for an id.
var ErrNotFound = errors.New("task not archived")

// Recorder persists terminal task records for later lookup.
type Recorder interface {
	RecordTask(rec *model.TaskRecord) error
	LoadTask(id string) (*model.TaskRecord, error)
	Close() error
}
