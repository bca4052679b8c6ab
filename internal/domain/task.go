package domain

import (
	"time"

	"github.com/pkg/errors"

	"cvgenius/internal/model"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// Terminal reports whether no further status transition is permitted.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

var (
	// ErrTaskNotFound is returned for ids unknown to the store.
	ErrTaskNotFound = errors.New("task not found")
	// ErrInvalidState is returned when an operation is not valid for the
	// task's current status, e.g. cancelling a finished task.
	ErrInvalidState = errors.New("task already finished")
)

const KindCVGeneration = "cv_generation"

// TaskInput captures the submission payload at creation time. Exactly one of
// FormData or CVText is set depending on the flow (Creator vs Updater).
type TaskInput struct {
	FormData       *model.CVFormData `json:"form_data,omitempty"`
	CVText         string            `json:"cv_text,omitempty"`
	JobDescription string            `json:"job_description,omitempty"`
	Theme          string            `json:"theme,omitempty"`
}

// Task is one unit of orchestrated background work. Records are mutated only
// through the task store; readers always get snapshot copies.
type Task struct {
	ID        string               `json:"id"`
	Kind      string               `json:"kind"`
	Status    TaskStatus           `json:"status"`
	Progress  int                  `json:"progress"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	Input     TaskInput            `json:"-"`
	Result    *model.PDFResponse   `json:"result,omitempty"`
	Error     string               `json:"error,omitempty"`

	// insertion sequence, breaks created_at ties when listing
	Seq uint64 `json:"-"`
}

// TaskSummary is the listing view. It deliberately carries no input, result
// or error payload.
type TaskSummary struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Status    TaskStatus `json:"status"`
	Progress  int        `json:"progress"`
	CreatedAt time.Time  `json:"created_at"`
}

func (t *Task) Summary() TaskSummary {
	return TaskSummary{
		ID:        t.ID,
		Kind:      t.Kind,
		Status:    t.Status,
		Progress:  t.Progress,
		CreatedAt: t.CreatedAt,
	}
}
