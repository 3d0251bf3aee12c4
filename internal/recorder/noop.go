package recorder

import "EquityDesk/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordTask(_ *model.TaskRecord) error         { return nil }
func (n *NoopRecorder) LoadTask(_ string) (*model.TaskRecord, error) { return nil, ErrNotFound }
func (n *NoopRecorder) Close() error                                 { return nil }
