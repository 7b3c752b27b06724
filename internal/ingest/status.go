package ingest

import (
	"sync"
	"time"
)

// Status is a point-in-time view of pipeline progress.
type Status struct {
	StartedAt       time.Time   `json:"started_at"`
	Running         bool        `json:"running"`
	CyclesCompleted int         `json:"cycles_completed"`
	CyclesFailed    int         `json:"cycles_failed"`
	Current         *CycleStats `json:"current,omitempty"`
	Last            *CycleStats `json:"last,omitempty"`
}

// StatusTracker is written by the pipeline goroutine and read by the status
// endpoint.
type StatusTracker struct {
	mu     sync.RWMutex
	status Status
}

func NewStatusTracker() *StatusTracker {
	return &StatusTracker{status: Status{StartedAt: time.Now()}}
}

func (t *StatusTracker) Begin(stats CycleStats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Running = true
	t.status.Current = &stats
}

func (t *StatusTracker) Progress(stats CycleStats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Current = &stats
}

func (t *StatusTracker) Finish(stats CycleStats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.Running = false
	t.status.Current = nil
	t.status.Last = &stats
	if stats.Error != "" {
		t.status.CyclesFailed++
	} else {
		t.status.CyclesCompleted++
	}
}

func (t *StatusTracker) Snapshot() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.status
	if s.Current != nil {
		cur := *s.Current
		s.Current = &cur
	}
	if s.Last != nil {
		last := *s.Last
		s.Last = &last
	}
	return s
}
