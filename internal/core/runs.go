package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the outcome of a recorded run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunRecord is one entry of run history.
type RunRecord struct {
	ID         uuid.UUID     `json:"id"`
	Year       string        `json:"year"`
	ExamFile   string        `json:"fctc_file"`
	RosterFile string        `json:"roll_call_file"`
	Status     RunStatus     `json:"status"`
	ErrorCode  string        `json:"error_code,omitempty"`
	Summary    Summary       `json:"summary"`
	Files      []string      `json:"files"`
	ClientIP   string        `json:"-"`
	UserAgent  string        `json:"-"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`
}

// RunStore persists run history.
type RunStore interface {
	RecordRun(ctx context.Context, run RunRecord) error
	// ListRuns returns up to limit runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
	// PruneRuns deletes runs started before cutoff.
	PruneRuns(ctx context.Context, cutoff time.Time) (int64, error)
}

// DefaultMemoryRuns is how many runs a MemoryRunStore keeps by default.
const DefaultMemoryRuns = 200

// MemoryRunStore keeps the most recent runs in process memory. It is used
// when no database is configured.
type MemoryRunStore struct {
	mu   sync.Mutex
	max  int
	runs []RunRecord
}

// NewMemoryRunStore creates a store holding at most max runs.
func NewMemoryRunStore(max int) *MemoryRunStore {
	if max <= 0 {
		max = DefaultMemoryRuns
	}
	return &MemoryRunStore{max: max}
}

func (m *MemoryRunStore) RecordRun(_ context.Context, run RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs = append(m.runs, run)
	if over := len(m.runs) - m.max; over > 0 {
		m.runs = append([]RunRecord(nil), m.runs[over:]...)
	}
	return nil
}

func (m *MemoryRunStore) ListRuns(_ context.Context, limit int) ([]RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || limit > len(m.runs) {
		limit = len(m.runs)
	}
	out := make([]RunRecord, 0, limit)
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

func (m *MemoryRunStore) PruneRuns(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.runs[:0]
	var pruned int64
	for _, r := range m.runs {
		if r.StartedAt.Before(cutoff) {
			pruned++
			continue
		}
		kept = append(kept, r)
	}
	m.runs = kept
	return pruned, nil
}
