/*
errors.go - Error taxonomy of the classification engine

PURPOSE:
  All error types in one place. Three families, never mixed:

ERROR CATEGORIES:
  1. Input errors - one worker-day is unusable (malformed or overlapping
     entries). The batch continues; the day is reported as a failure.
  2. Batch errors - no rate schedule for an employee type or date. The
     whole run aborts, since guessing a schedule would misclassify pay.
  3. Defects - the conservation check failed. This is a bug in the engine,
     not bad data, and is logged and reported separately.

USAGE:
  var entryErr *overtime.EntryError
  if errors.As(err, &entryErr) {
      fmt.Println(entryErr.Worker, entryErr.Date, entryErr.Index)
  }
  if overtime.IsBatchFatal(err) {
      return err
  }
*/
package overtime

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMalformedEntry is returned when an entry's times do not parse or
	// end is not after start.
	ErrMalformedEntry = errors.New("malformed entry")

	// ErrOverlappingEntries is returned when two entries of a day intersect.
	ErrOverlappingEntries = errors.New("overlapping entries")

	// ErrUnknownEmployeeType is returned when no schedule exists for a type.
	ErrUnknownEmployeeType = errors.New("unknown employee type")

	// ErrNoApplicableRateSchedule is returned when no edition covers a date.
	ErrNoApplicableRateSchedule = errors.New("no applicable rate schedule")

	// ErrInvalidSchedule is returned when a rate schedule fails validation.
	ErrInvalidSchedule = errors.New("invalid rate schedule")

	// ErrAbsenceOnWorkedDay marks an absence selection on a day with entries.
	ErrAbsenceOnWorkedDay = errors.New("absence selected on a day with entries")

	// ErrCallOutNotQualifying marks a call-out selection on a day without
	// an entry outside the call-out window.
	ErrCallOutNotQualifying = errors.New("call-out selected on a day without qualifying time")

	// ErrInvariantViolation signals that classified hours do not add up.
	ErrInvariantViolation = errors.New("classification invariant violated")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// EntryError describes one malformed entry.
type EntryError struct {
	Worker WorkerID
	Date   generic.Date
	Index  int
	Start  string
	End    string
	Reason string
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("malformed entry #%d for %s on %s (%q-%q): %s",
		e.Index, e.Worker, e.Date, e.Start, e.End, e.Reason)
}

func (e *EntryError) Unwrap() error { return ErrMalformedEntry }

// OverlapError names the two intersecting entries by their sorted position.
type OverlapError struct {
	Worker WorkerID
	Date   generic.Date
	First  TimeEntry
	Second TimeEntry
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("overlapping entries for %s on %s: %s-%s and %s-%s",
		e.Worker, e.Date,
		e.First.Start.Format("15:04"), e.First.End.Format("15:04"),
		e.Second.Start.Format("15:04"), e.Second.End.Format("15:04"))
}

func (e *OverlapError) Unwrap() error { return ErrOverlappingEntries }

// ScheduleError reports a failed schedule lookup. Err is one of
// ErrUnknownEmployeeType or ErrNoApplicableRateSchedule.
type ScheduleError struct {
	EmployeeType EmployeeType
	Date         generic.Date
	Err          error
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("%v: employee type %q on %s", e.Err, e.EmployeeType, e.Date)
}

func (e *ScheduleError) Unwrap() error { return e.Err }

// InvariantError reports a classification whose categories do not sum to
// the worked total.
type InvariantError struct {
	Worker     WorkerID
	Date       generic.Date
	Total      decimal.Decimal
	Classified decimal.Decimal
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("classification defect for %s on %s: total %s, classified %s",
		e.Worker, e.Date, e.Total.StringFixed(4), e.Classified.StringFixed(4))
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsInputError returns true for per-day input validation failures.
func IsInputError(err error) bool {
	return errors.Is(err, ErrMalformedEntry) || errors.Is(err, ErrOverlappingEntries)
}

// IsBatchFatal returns true for errors that must abort the whole run.
func IsBatchFatal(err error) bool {
	return errors.Is(err, ErrUnknownEmployeeType) || errors.Is(err, ErrNoApplicableRateSchedule)
}

// IsDefect returns true for internal classification defects.
func IsDefect(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}
