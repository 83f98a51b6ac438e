/*
band.go - Boundary allocation across ordered bands

PURPOSE:
  Splits a stretch of time across an ordered list of bands. Each band covers
  the half-open range [previous UpTo, UpTo) of some axis and carries a
  category. The same helper serves two very different axes:

    - accumulated worked time in a day (weekday overtime tiers)
    - time of day (Saturday day/night, Sunday before/after the split hour)

  Both reduce to "given a starting offset and a length, how much of the
  length falls into each band", so there is exactly one implementation of
  the boundary arithmetic.

EXAMPLE:
  bands := []generic.Band[string]{
      {UpTo: 7*time.Hour + 24*time.Minute, Category: "normal"},
      {UpTo: 9*time.Hour + 24*time.Minute, Category: "tier1"},
      {UpTo: generic.Unbounded, Category: "tier2"},
  }
  // 3h worked on top of 6h already worked today
  parts := generic.Allocate(bands, 6*time.Hour, 3*time.Hour)
  // -> normal 1h24m, tier1 1h36m

SEE ALSO:
  - overtime/classify.go: Builds the weekday, Saturday and Sunday bands
*/
package generic

import (
	"math"
	"time"
)

// Unbounded is the UpTo value of a band with no upper limit.
const Unbounded = time.Duration(math.MaxInt64)

// Band is one segment of an axis. The band starts where the previous one
// ended (or at zero) and ends, exclusively, at UpTo.
type Band[C comparable] struct {
	UpTo     time.Duration
	Category C
}

// Allocation is the share of a length that fell into one band.
type Allocation[C comparable] struct {
	Category C
	From     time.Duration
	To       time.Duration
}

// Length returns To - From.
func (a Allocation[C]) Length() time.Duration { return a.To - a.From }

// ValidateBands checks that thresholds strictly ascend and the last band is
// Unbounded, so every non-negative offset belongs to exactly one band.
func ValidateBands[C comparable](bands []Band[C]) error {
	if len(bands) == 0 {
		return ErrInvalidBands
	}
	var prev time.Duration
	for i, b := range bands {
		if b.UpTo <= prev {
			return ErrInvalidBands
		}
		if i == len(bands)-1 && b.UpTo != Unbounded {
			return ErrInvalidBands
		}
		prev = b.UpTo
	}
	return nil
}

// Allocate splits [from, from+length) across bands. Bands must be valid
// (see ValidateBands). Zero-length shares are omitted, and adjacent bands
// with the same category are reported as separate allocations.
func Allocate[C comparable](bands []Band[C], from, length time.Duration) []Allocation[C] {
	if length <= 0 {
		return nil
	}
	end := from + length
	var (
		out   []Allocation[C]
		lower time.Duration
	)
	for _, b := range bands {
		upper := b.UpTo
		lo := max(from, lower)
		hi := min(end, upper)
		if hi > lo {
			out = append(out, Allocation[C]{Category: b.Category, From: lo, To: hi})
		}
		if upper >= end {
			break
		}
		lower = upper
	}
	return out
}

// Totals sums allocations per category.
func Totals[C comparable](allocs []Allocation[C]) map[C]time.Duration {
	totals := make(map[C]time.Duration, len(allocs))
	for _, a := range allocs {
		totals[a.Category] += a.Length()
	}
	return totals
}

// Offset shifts every threshold of bands by d, leaving Unbounded alone.
func Offset[C comparable](bands []Band[C], d time.Duration) []Band[C] {
	out := make([]Band[C], len(bands))
	for i, b := range bands {
		out[i] = b
		if b.UpTo != Unbounded {
			out[i].UpTo = b.UpTo + d
		}
	}
	return out
}
