/*
schedule.go - The declarative rate schedule

PURPOSE:
  A RateSchedule is one edition of a collective agreement's pay rules for
  one employee type: the weekly and daily norm, the weekday overtime tiers,
  the weekend time-of-day boundaries, the call-out window and amount, and
  absence crediting. Agreement updates are new RateSchedule values with a
  new effective range, never code changes.

WEEKDAY TIERS:
  Tier thresholds count overtime hours, i.e. hours past the daily norm:

    DailyNorm: 7h24m
    WeekdayTiers: [{2h, tier1}, {4h, tier2}, {Unbounded, tier3}]

  gives the daily bands

    [0, 7h24m)       normal
    [7h24m, 9h24m)   weekday_tier1
    [9h24m, 11h24m)  weekday_tier2
    [11h24m, ...)    weekday_tier3

  An apprentice schedule may simply list [{Unbounded, tier1}].

SEE ALSO:
  - registry.go: Editions keyed by employee type and effective range
  - classify.go: Consumes the bands built here
  - dbr/editions.go: The DBR editions
*/
package overtime

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// RATE SCHEDULE
// =============================================================================

// DayNightBoundary splits a rest day into day hours [DayStart, NightStart)
// and night hours (everything else).
type DayNightBoundary struct {
	DayStart   generic.ClockTime
	NightStart generic.ClockTime
}

// CallOutWindow qualifies entries starting before Before or at/after After.
type CallOutWindow struct {
	Before generic.ClockTime
	After  generic.ClockTime
}

// Qualifies reports whether a start time falls outside the ordinary window.
func (w CallOutWindow) Qualifies(start generic.ClockTime) bool {
	return start < w.Before || start >= w.After
}

// NormWindow is the ordinary working window used for the in/outside split.
type NormWindow struct {
	Start generic.ClockTime
	End   generic.ClockTime
}

// RateSchedule is immutable once registered. Share it by pointer.
type RateSchedule struct {
	ID           string
	Name         string
	EmployeeType EmployeeType
	Effective    generic.Period

	WeeklyNormHours    decimal.Decimal
	DailyNorm          time.Duration
	DailyNormOverrides map[time.Weekday]time.Duration

	WeekdayTiers []generic.Band[Category]
	DayNight     DayNightBoundary
	SundaySplit  generic.ClockTime

	CallOutWindow CallOutWindow
	CallOutAmount decimal.Decimal

	AbsenceCreditHours     decimal.Decimal
	AbsenceCreditOverrides map[time.Weekday]decimal.Decimal

	NormWindow NormWindow

	// Rates holds the hourly premium per overtime category.
	Rates    map[Category]decimal.Decimal
	Currency string

	Holidays generic.HolidayCalendar
}

// DailyNormFor returns the daily norm for a weekday, honouring overrides.
func (s *RateSchedule) DailyNormFor(wd time.Weekday) time.Duration {
	if d, ok := s.DailyNormOverrides[wd]; ok {
		return d
	}
	return s.DailyNorm
}

// AbsenceCreditFor returns the credited hours for an absence on a weekday.
// Saturday and Sunday are rest days and credit nothing unless an override
// names them.
func (s *RateSchedule) AbsenceCreditFor(wd time.Weekday) decimal.Decimal {
	if h, ok := s.AbsenceCreditOverrides[wd]; ok {
		return h
	}
	if DayTypeOf(wd) != DayWeekday {
		return decimal.Zero
	}
	return s.AbsenceCreditHours
}

// Rate returns the hourly premium of a category, zero when unset.
func (s *RateSchedule) Rate(c Category) decimal.Decimal {
	if r, ok := s.Rates[c]; ok {
		return r
	}
	return decimal.Zero
}

// IsHoliday consults the schedule's holiday calendar.
func (s *RateSchedule) IsHoliday(d generic.Date) bool {
	return s.Holidays != nil && s.Holidays.IsHoliday(d)
}

// Covers reports whether the schedule's effective range includes d.
func (s *RateSchedule) Covers(d generic.Date) bool { return s.Effective.Contains(d) }

// =============================================================================
// BANDS
// =============================================================================

// WeekdayBands returns the accumulated-hours bands for a weekday.
func (s *RateSchedule) WeekdayBands(wd time.Weekday) []generic.Band[Category] {
	norm := s.DailyNormFor(wd)
	bands := make([]generic.Band[Category], 0, len(s.WeekdayTiers)+1)
	if norm > 0 {
		bands = append(bands, generic.Band[Category]{UpTo: norm, Category: CategoryNormal})
	}
	return append(bands, generic.Offset(s.WeekdayTiers, norm)...)
}

// SaturdayBands returns the time-of-day bands for Saturday work.
func (s *RateSchedule) SaturdayBands() []generic.Band[Category] {
	return timeOfDayBands(
		generic.Band[Category]{UpTo: s.DayNight.DayStart.Duration(), Category: CategorySaturdayNight},
		generic.Band[Category]{UpTo: s.DayNight.NightStart.Duration(), Category: CategorySaturdayDay},
		generic.Band[Category]{UpTo: generic.Unbounded, Category: CategorySaturdayNight},
	)
}

// SundayBands returns the time-of-day bands for Sunday and holiday work.
func (s *RateSchedule) SundayBands() []generic.Band[Category] {
	return timeOfDayBands(
		generic.Band[Category]{UpTo: s.SundaySplit.Duration(), Category: CategorySundayBeforeSplit},
		generic.Band[Category]{UpTo: generic.Unbounded, Category: CategorySundayAfterSplit},
	)
}

// NormWindowBands splits a day into inside/outside the norm window. The
// boolean category is true inside the window.
func (s *RateSchedule) NormWindowBands() []generic.Band[bool] {
	return timeOfDayBands(
		generic.Band[bool]{UpTo: s.NormWindow.Start.Duration(), Category: false},
		generic.Band[bool]{UpTo: s.NormWindow.End.Duration(), Category: true},
		generic.Band[bool]{UpTo: generic.Unbounded, Category: false},
	)
}

// timeOfDayBands drops empty leading bands (a boundary at 00:00).
func timeOfDayBands[C comparable](bands ...generic.Band[C]) []generic.Band[C] {
	out := bands[:0:0]
	var prev time.Duration
	for _, b := range bands {
		if b.UpTo <= prev {
			continue
		}
		out = append(out, b)
		prev = b.UpTo
	}
	return out
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the schedule for internal consistency.
func (s *RateSchedule) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidSchedule, s.ID, fmt.Sprintf(format, args...))
	}
	if s.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidSchedule)
	}
	if s.EmployeeType == "" {
		return fail("missing employee type")
	}
	if s.Effective.Start.IsZero() {
		return fail("missing effective start")
	}
	if err := s.Effective.Validate(); err != nil {
		return fail("%v", err)
	}
	if !s.WeeklyNormHours.IsPositive() {
		return fail("weekly norm must be positive")
	}
	if s.DailyNorm < 0 {
		return fail("daily norm must not be negative")
	}
	for wd, d := range s.DailyNormOverrides {
		if d < 0 {
			return fail("daily norm override for %s must not be negative", wd)
		}
	}
	if err := generic.ValidateBands(s.WeekdayTiers); err != nil {
		return fail("weekday tiers: %v", err)
	}
	for _, t := range s.WeekdayTiers {
		if !t.Category.IsOvertime() {
			return fail("weekday tier category %q is not an overtime category", t.Category)
		}
	}
	if !s.DayNight.DayStart.Before(s.DayNight.NightStart) || !s.DayNight.NightStart.IsValid() {
		return fail("day/night boundary %s-%s", s.DayNight.DayStart, s.DayNight.NightStart)
	}
	if !s.SundaySplit.IsValid() {
		return fail("sunday split %s", s.SundaySplit)
	}
	if !s.CallOutWindow.Before.IsValid() || !s.CallOutWindow.After.IsValid() ||
		s.CallOutWindow.After.Before(s.CallOutWindow.Before) {
		return fail("call-out window %s/%s", s.CallOutWindow.Before, s.CallOutWindow.After)
	}
	if s.CallOutAmount.IsNegative() {
		return fail("call-out amount must not be negative")
	}
	if s.AbsenceCreditHours.IsNegative() {
		return fail("absence credit must not be negative")
	}
	for wd, h := range s.AbsenceCreditOverrides {
		if h.IsNegative() {
			return fail("absence credit override for %s must not be negative", wd)
		}
	}
	if s.NormWindow.End.Before(s.NormWindow.Start) || !s.NormWindow.End.IsValid() {
		return fail("norm window %s-%s", s.NormWindow.Start, s.NormWindow.End)
	}
	for c, r := range s.Rates {
		if !c.IsOvertime() {
			return fail("rate for non-overtime category %q", c)
		}
		if r.IsNegative() {
			return fail("negative rate for %q", c)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// ParseWeekday accepts English and Danish weekday names.
func ParseWeekday(s string) (time.Weekday, bool) {
	switch normalizeKey(s) {
	case "monday", "mandag", "mon":
		return time.Monday, true
	case "tuesday", "tirsdag", "tue":
		return time.Tuesday, true
	case "wednesday", "onsdag", "wed":
		return time.Wednesday, true
	case "thursday", "torsdag", "thu":
		return time.Thursday, true
	case "friday", "fredag", "fri":
		return time.Friday, true
	case "saturday", "lørdag", "sat":
		return time.Saturday, true
	case "sunday", "søndag", "sun":
		return time.Sunday, true
	}
	return 0, false
}

func normalizeKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "")
}

func isoLabel(year, week int) string {
	return fmt.Sprintf("%d-W%02d", year, week)
}
