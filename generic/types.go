/*
Package generic provides the domain-agnostic primitives of the overtime engine.

PURPOSE:
  This package contains the small value types every classification step is
  built from: decimal hours, calendar dates, times of day, inclusive periods
  and the boundary allocator that splits a stretch of time across ordered
  bands. Nothing in here knows about collective agreements, workers or pay.

KEY CONCEPTS IN THIS FILE (types.go):
  - Hours: decimal.Decimal quantities derived from exact time.Duration values
  - HoursOf / DurationOf: lossless conversion between the two
  - RoundHours / NearlyEqual: presentation rounding and invariant tolerance

DESIGN PRINCIPLES:
  1. Precision: arithmetic happens on time.Duration, conversion to decimal
     happens once at the edge, so 20 minutes never becomes 0.33
  2. Comparable keys: Date and ClockTime are plain values usable as map keys
  3. No globals: every threshold is passed in by the caller

USAGE:
  h := generic.HoursOf(7*time.Hour + 24*time.Minute) // 7.4
  d := generic.DurationOf(generic.MustParseDecimal("7.4"))

SEE ALSO:
  - time.go: Date and ClockTime
  - band.go: Allocate, the shared boundary splitter
  - period.go: Inclusive date ranges
*/
package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS - decimal quantities of time
// =============================================================================

// Tolerance is the maximum drift allowed between two hour sums that are
// expected to be equal.
var Tolerance = decimal.RequireFromString("0.01")

var secondsPerHour = decimal.NewFromInt(3600)

// HoursOf converts a duration to decimal hours at second resolution.
func HoursOf(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Second)).Div(secondsPerHour)
}

// DurationOf converts decimal hours back to a duration, rounded to the second.
func DurationOf(h decimal.Decimal) time.Duration {
	secs := h.Mul(secondsPerHour).Round(0).IntPart()
	return time.Duration(secs) * time.Second
}

// RoundHours rounds to two decimals for presentation.
func RoundHours(h decimal.Decimal) decimal.Decimal {
	return h.Round(2)
}

// NearlyEqual reports whether a and b differ by no more than Tolerance.
func NearlyEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// SumHours adds all values.
func SumHours(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
