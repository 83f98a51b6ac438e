/*
errors.go - Parse and range errors for the generic primitives

PURPOSE:
  Sentinel errors returned while parsing dates, clock times and periods.
  Domain packages wrap these with worker/date context.

USAGE:
  if errors.Is(err, generic.ErrInvalidClock) {
      // report the offending entry
  }

SEE ALSO:
  - overtime/errors.go: Domain errors that wrap these
*/
package generic

import "errors"

var (
	// ErrInvalidDate is returned when a date string matches no accepted layout.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidClock is returned when a time-of-day string cannot be parsed.
	ErrInvalidClock = errors.New("invalid time of day")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidBands is returned when band thresholds are not strictly ascending
	// or the last band is bounded.
	ErrInvalidBands = errors.New("invalid bands")
)
