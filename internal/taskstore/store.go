package taskstore

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"cvgenius/internal/domain"
	"cvgenius/internal/model"
)

// Store is the process-wide registry of task records. It is the single
// source of truth for task state and is safe for concurrent use by the
// per-task orchestrator goroutines and by poll/cancel/list callers.
//
// Terminal states are write-once: the first Complete or Fail wins and later
// terminal writes are ignored. This closes the race between an external
// cancellation and the in-flight pipeline finishing afterwards.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
	seq   uint64
}

func NewStore() *Store {
	return &Store{tasks: make(map[string]*domain.Task)}
}

// Create inserts a fresh pending record and returns its id.
func (s *Store) Create(kind string, input domain.TaskInput) string {
	now := time.Now()
	t := &domain.Task{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    domain.StatusPending,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
		Input:     input,
	}

	s.mu.Lock()
	s.seq++
	t.Seq = s.seq
	s.tasks[t.ID] = t
	s.mu.Unlock()

	return t.ID
}

// UpdateProgress advances progress and optionally status on a live record.
// Progress never decreases, and terminal records are left untouched.
func (s *Store) UpdateProgress(id string, progress int, status domain.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if t.Status.Terminal() {
		return nil
	}
	if progress > t.Progress {
		t.Progress = progress
	}
	if status != "" {
		t.Status = status
	}
	t.UpdatedAt = time.Now()
	return nil
}

// Complete marks the task completed with its result. A no-op if the task is
// already terminal: a cancelled task stays failed.
func (s *Store) Complete(id string, result *model.PDFResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if t.Status.Terminal() {
		return nil
	}
	t.Status = domain.StatusCompleted
	t.Progress = 100
	t.Result = result
	t.Error = ""
	t.UpdatedAt = time.Now()
	return nil
}

// Fail marks the task failed with a reason. Progress is frozen at whatever
// it last reached. A no-op if the task is already terminal.
func (s *Store) Fail(id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if t.Status.Terminal() {
		return nil
	}
	t.Status = domain.StatusFailed
	t.Error = reason
	t.UpdatedAt = time.Now()
	return nil
}

// Cancel forces a live task to failed with the given reason. Unlike Fail it
// reports ErrInvalidState for terminal tasks, so a cancel racing the
// pipeline's own completion never claims success. The check and the write
// happen under one lock.
func (s *Store) Cancel(id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if t.Status.Terminal() {
		return domain.ErrInvalidState
	}
	t.Status = domain.StatusFailed
	t.Error = reason
	t.UpdatedAt = time.Now()
	return nil
}

// Get returns a snapshot copy of the record so callers never observe a
// record mid-mutation.
func (s *Store) Get(id string) (domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return *t, nil
}

// List returns up to limit summaries, newest first. Ties on created_at fall
// back to insertion order.
func (s *Store) List(limit int) []domain.TaskSummary {
	s.mu.RLock()
	all := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		all = append(all, *t)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Seq > all[j].Seq
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]domain.TaskSummary, 0, len(all))
	for _, t := range all {
		out = append(out, t.Summary())
	}
	return out
}

// Sweep removes every record older than maxAge together with its result.
// Removal happens under the write lock, so a concurrent reader sees either
// the full record or nothing.
func (s *Store) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, t := range s.tasks {
		if t.CreatedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of live records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
