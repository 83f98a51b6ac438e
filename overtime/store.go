/*
store.go - Selection storage contract

PURPOSE:
  Absence and call-out selections are external state: a worker or an
  administrator decides them after seeing the classification. The engine
  only reads them; collaborators persist them.

KEY INTERFACES:
  SelectionStore: save/load absence and call-out selections per worker
  RunLog:         append-only log of classification runs

IMPLEMENTATIONS:
  - store/memory: In-memory for tests and the CLI
  - store/sqlite: SQLite for the HTTP server
*/
package overtime

import (
	"context"
	"time"

	"github.com/warp/overtime-engine/generic"
)

// Selections carries per-worker absence and call-out choices into a batch.
type Selections struct {
	Absences map[WorkerID]map[generic.Date]AbsenceType
	CallOuts map[WorkerID]map[generic.Date]bool
}

// NewSelections returns empty, writable selections.
func NewSelections() Selections {
	return Selections{
		Absences: make(map[WorkerID]map[generic.Date]AbsenceType),
		CallOuts: make(map[WorkerID]map[generic.Date]bool),
	}
}

// SetAbsence records one absence selection.
func (s Selections) SetAbsence(w WorkerID, d generic.Date, a AbsenceType) {
	if s.Absences[w] == nil {
		s.Absences[w] = make(map[generic.Date]AbsenceType)
	}
	s.Absences[w][d] = a
}

// SetCallOut records one call-out selection.
func (s Selections) SetCallOut(w WorkerID, d generic.Date, selected bool) {
	if s.CallOuts[w] == nil {
		s.CallOuts[w] = make(map[generic.Date]bool)
	}
	s.CallOuts[w][d] = selected
}

// Merge copies other's selections over s. Later selections win.
func (s Selections) Merge(other Selections) {
	for w, days := range other.Absences {
		for d, a := range days {
			s.SetAbsence(w, d, a)
		}
	}
	for w, days := range other.CallOuts {
		for d, sel := range days {
			s.SetCallOut(w, d, sel)
		}
	}
}

// SelectionStore persists selections keyed by worker and date.
type SelectionStore interface {
	SaveAbsences(ctx context.Context, worker WorkerID, absences map[generic.Date]AbsenceType) error
	SaveCallOuts(ctx context.Context, worker WorkerID, callOuts map[generic.Date]bool) error

	// LoadSelections returns the selections of the given workers whose date
	// falls within period.
	LoadSelections(ctx context.Context, workers []WorkerID, period generic.Period) (Selections, error)
}

// RunSummary describes one classification run.
type RunSummary struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Workers   int
	Days      int
	Failures  int
	Defects   int
}

// RunLog records runs. Append-only.
type RunLog interface {
	RecordRun(ctx context.Context, run RunSummary) error
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}
