// Package memory provides in-memory selection storage.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	absences map[overtime.WorkerID]map[generic.Date]overtime.AbsenceType
	callOuts map[overtime.WorkerID]map[generic.Date]bool
	runs     []overtime.RunSummary
}

var (
	_ overtime.SelectionStore = (*Memory)(nil)
	_ overtime.RunLog         = (*Memory)(nil)
)

func New() *Memory {
	return &Memory{
		absences: make(map[overtime.WorkerID]map[generic.Date]overtime.AbsenceType),
		callOuts: make(map[overtime.WorkerID]map[generic.Date]bool),
	}
}

// SaveAbsences upserts selections. AbsenceUnset removes a date.
func (m *Memory) SaveAbsences(_ context.Context, worker overtime.WorkerID, absences map[generic.Date]overtime.AbsenceType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	days := m.absences[worker]
	if days == nil {
		days = make(map[generic.Date]overtime.AbsenceType)
		m.absences[worker] = days
	}
	for d, a := range absences {
		if a == overtime.AbsenceUnset {
			delete(days, d)
			continue
		}
		days[d] = a
	}
	return nil
}

// SaveCallOuts upserts selections. An unselected date is removed.
func (m *Memory) SaveCallOuts(_ context.Context, worker overtime.WorkerID, callOuts map[generic.Date]bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	days := m.callOuts[worker]
	if days == nil {
		days = make(map[generic.Date]bool)
		m.callOuts[worker] = days
	}
	for d, selected := range callOuts {
		if !selected {
			delete(days, d)
			continue
		}
		days[d] = true
	}
	return nil
}

// LoadSelections returns copies; callers may modify them freely.
func (m *Memory) LoadSelections(_ context.Context, workers []overtime.WorkerID, period generic.Period) (overtime.Selections, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := func(w overtime.WorkerID) bool {
		if len(workers) == 0 {
			return true
		}
		for _, x := range workers {
			if x == w {
				return true
			}
		}
		return false
	}
	inPeriod := func(d generic.Date) bool {
		if !period.Start.IsZero() && d.Before(period.Start) {
			return false
		}
		return period.End.IsZero() || !d.After(period.End)
	}

	sel := overtime.NewSelections()
	for w, days := range m.absences {
		if !wanted(w) {
			continue
		}
		for d, a := range days {
			if inPeriod(d) {
				sel.SetAbsence(w, d, a)
			}
		}
	}
	for w, days := range m.callOuts {
		if !wanted(w) {
			continue
		}
		for d := range days {
			if inPeriod(d) {
				sel.SetCallOut(w, d, true)
			}
		}
	}
	return sel, nil
}

// RecordRun appends a run. Append-only.
func (m *Memory) RecordRun(_ context.Context, run overtime.RunSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	m.runs = append(m.runs, run)
	return nil
}

// ListRuns returns the most recent runs first.
func (m *Memory) ListRuns(_ context.Context, limit int) ([]overtime.RunSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := append([]overtime.RunSummary(nil), m.runs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
