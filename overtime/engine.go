/*
engine.go - Batch runner

PURPOSE:
  Runs the full pipeline over a batch of raw worker-days:

    resolve schedules -> normalize -> classify -> absences -> call-outs -> weeks

  Classification of one day never depends on another day, so days fan out
  to a bounded worker pool. Weekly aggregation is the fan-in point and only
  starts when every day is done.

FAILURE MODEL:
  - Unknown employee type or uncovered date: the run returns an error and
    no partial result.
  - Malformed or overlapping entries: the day lands in Result.Failures,
    the rest of the batch continues.
  - Conservation failure: the day lands in Result.Defects and is logged at
    error level. It is excluded from Daily and Weekly.
*/
package overtime

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
	"golang.org/x/sync/errgroup"
)

// Batch is the input of one run.
type Batch struct {
	Days       []RawDay
	Selections Selections

	// FillMissingDays adds empty weekdays between each worker's first and
	// last registered date before classification.
	FillMissingDays bool
}

// DayFailure is a worker-day that could not be classified.
type DayFailure struct {
	WorkerID WorkerID
	Date     generic.Date
	Err      error
}

// Result is the outcome of one run.
type Result struct {
	Daily   []DailyRecord
	Weekly  []WeeklyRecord
	Workers []WorkerID

	Failures []DayFailure
	Defects  []DayFailure

	// SkippedAbsences lists absence selections on days with entries.
	SkippedAbsences []DayFailure
	// IneligibleCallOuts lists call-out selections on days without
	// qualifying time.
	IneligibleCallOuts []DayFailure

	CallOutTotal decimal.Decimal
}

// Engine runs batches against a set of rate schedules.
type Engine struct {
	Schedules ScheduleResolver
	Logger    *slog.Logger

	// Concurrency bounds the classification pool. Zero means GOMAXPROCS.
	Concurrency int
}

// NewEngine creates an engine with the default pool size.
func NewEngine(schedules ScheduleResolver, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Schedules: schedules, Logger: logger}
}

type dayOutcome struct {
	record DailyRecord
	err    error
}

// Run classifies a batch. The returned records are ordered by worker then
// date regardless of the order of Batch.Days.
func (e *Engine) Run(ctx context.Context, batch Batch) (*Result, error) {
	log := e.logger()

	days := MergeDays(batch.Days)
	if batch.FillMissingDays {
		days = FillMissingDays(days)
	}

	schedules := make([]*RateSchedule, len(days))
	for i, d := range days {
		s, err := e.Schedules.Resolve(d.Date, d.EmployeeType)
		if err != nil {
			log.Error("schedule resolution failed",
				"worker", d.WorkerID, "date", d.Date, "employee_type", d.EmployeeType, "error", err)
			return nil, err
		}
		schedules[i] = s
	}

	limit := e.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	// Each goroutine owns one slot; no locking needed.
	outcomes := make([]dayOutcome, len(days))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range days {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			wd, err := Normalize(days[i])
			if err != nil {
				outcomes[i].err = err
				return nil
			}
			outcomes[i].record, outcomes[i].err = Classify(wd, schedules[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{CallOutTotal: decimal.Zero}
	records := make([]DailyRecord, 0, len(days))
	for i, o := range outcomes {
		if o.err == nil {
			records = append(records, o.record)
			continue
		}
		f := DayFailure{WorkerID: days[i].WorkerID, Date: days[i].Date, Err: o.err}
		switch {
		case IsDefect(o.err):
			log.Error("classification defect", "worker", f.WorkerID, "date", f.Date, "error", o.err)
			res.Defects = append(res.Defects, f)
		default:
			log.Warn("worker-day rejected", "worker", f.WorkerID, "date", f.Date, "error", o.err)
			res.Failures = append(res.Failures, f)
		}
	}
	SortDaily(records)

	resolved, err := e.applySelections(records, batch.Selections, res)
	if err != nil {
		return nil, err
	}
	res.Daily = resolved
	res.Weekly = AggregateWeeks(resolved)
	res.Workers = workersOf(resolved)

	log.Info("batch classified",
		"days", len(res.Daily), "weeks", len(res.Weekly), "workers", len(res.Workers),
		"failures", len(res.Failures), "defects", len(res.Defects))
	return res, nil
}

// applySelections runs both resolvers per worker. Records must be sorted by
// worker so each worker's days are contiguous.
func (e *Engine) applySelections(records []DailyRecord, sel Selections, res *Result) ([]DailyRecord, error) {
	absences := &AbsenceResolver{Schedules: e.Schedules}
	callOuts := &CallOutResolver{Schedules: e.Schedules}

	out := make([]DailyRecord, 0, len(records))
	for start := 0; start < len(records); {
		end := start
		worker := records[start].WorkerID
		for end < len(records) && records[end].WorkerID == worker {
			end++
		}

		ar, err := absences.Apply(records[start:end], sel.Absences[worker])
		if err != nil {
			return nil, err
		}
		for _, d := range ar.Skipped {
			res.SkippedAbsences = append(res.SkippedAbsences, DayFailure{WorkerID: worker, Date: d, Err: ErrAbsenceOnWorkedDay})
		}

		cr, err := callOuts.Apply(ar.Records, sel.CallOuts[worker])
		if err != nil {
			return nil, err
		}
		for _, d := range cr.Ineligible {
			res.IneligibleCallOuts = append(res.IneligibleCallOuts, DayFailure{WorkerID: worker, Date: d, Err: ErrCallOutNotQualifying})
		}
		res.CallOutTotal = res.CallOutTotal.Add(cr.Total)

		out = append(out, cr.Records...)
		start = end
	}
	return out, nil
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func workersOf(records []DailyRecord) []WorkerID {
	var out []WorkerID
	for i, r := range records {
		if i == 0 || records[i-1].WorkerID != r.WorkerID {
			out = append(out, r.WorkerID)
		}
	}
	return out
}

// Records returns the daily records of one worker.
func (r *Result) Records(worker WorkerID) []DailyRecord {
	var out []DailyRecord
	for _, d := range r.Daily {
		if d.WorkerID == worker {
			out = append(out, d)
		}
	}
	return out
}

// Weeks returns the weekly records of one worker.
func (r *Result) Weeks(worker WorkerID) []WeeklyRecord {
	var out []WeeklyRecord
	for _, w := range r.Weekly {
		if w.WorkerID == worker {
			out = append(out, w)
		}
	}
	return out
}
