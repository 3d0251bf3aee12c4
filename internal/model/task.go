package model

import "time"

// TaskStatus is the lifecycle state of an analysis task.
type TaskStatus string

const (
	StatusPending  TaskStatus = "pending"
	StatusRunning  TaskStatus = "running"
	StatusComplete TaskStatus = "complete"
	StatusError    TaskStatus = "error"
)

// Terminal reports whether no further transition is allowed.
func (s TaskStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// TaskResult is the payload of a completed task.
type TaskResult struct {
	DraftReport   *DraftReport `json:"draft_report"`
	RevisionCount int          `json:"revision_count"`
}

// TaskRecord is the pollable view of one analysis task.
type TaskRecord struct {
	TaskID    string      `json:"task_id"`
	Ticker    string      `json:"ticker"`
	Status    TaskStatus  `json:"status"`
	Stage     string      `json:"stage,omitempty"`
	Result    *TaskResult `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
