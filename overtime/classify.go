/*
classify.go - The day classifier

PURPOSE:
  Converts a normalized WorkerDay into a DailyRecord under one RateSchedule.
  This is a pure function: the same day and schedule always produce the
  same record.

ALGORITHM:
  1. Day type from the weekday. Public holidays (per the schedule's
     calendar) take the Sunday branch and are flagged Holiday.
  2. Weekday: entries are walked in order with a running worked total.
     Each entry is allocated against the accumulated-hours bands
     (normal up to the daily norm, then the overtime tiers) starting at the
     running total before the entry. Time of day plays no part.
  3. Saturday: every hour is overtime, split by time of day into
     saturday_day [DayStart, NightStart) and saturday_night.
  4. Sunday/holiday: every hour is overtime, split at SundaySplit.
  5. Call-out detection: any entry starting outside the call-out window.
  6. Conservation: normal + overtime must equal total within 0.01h.

  Entries that straddle a threshold are split at the exact instant by
  generic.Allocate, the only boundary arithmetic in the engine.

EXAMPLE:
  Wednesday 08:00-16:00 under DBR (daily norm 7h24m):
    normal 7.4, weekday_tier1 0.6

  Saturday 14:00-20:00 with day/night at 18:00:
    saturday_day 4, saturday_night 2

SEE ALSO:
  - schedule.go: Band construction
  - generic/band.go: Allocate
*/
package overtime

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// Classify produces the DailyRecord of a normalized day. It never fails on
// well-formed input; a non-nil error is always an *InvariantError and the
// returned record is still populated for diagnosis.
func Classify(day WorkerDay, schedule *RateSchedule) (DailyRecord, error) {
	rec := DailyRecord{
		WorkerID:     day.WorkerID,
		EmployeeType: day.EmployeeType,
		ScheduleID:   schedule.ID,
		Date:         day.Date,
		Weekday:      day.Weekday(),
		DayType:      DayTypeOf(day.Weekday()),
		Holiday:      schedule.IsHoliday(day.Date),
		Entries:      day.Entries,

		WeeklyNormHours: schedule.WeeklyNormHours,
	}

	var byCategory map[Category]time.Duration
	switch {
	case rec.Holiday || rec.DayType == DaySunday:
		byCategory = allocateByTimeOfDay(day, schedule.SundayBands())
	case rec.DayType == DaySaturday:
		byCategory = allocateByTimeOfDay(day, schedule.SaturdayBands())
	default:
		byCategory = allocateByAccumulation(day, schedule.WeekdayBands(rec.Weekday))
	}

	rec.TotalHours = generic.HoursOf(day.WorkedDuration())
	rec.NormalHours = generic.HoursOf(byCategory[CategoryNormal])
	for _, c := range OvertimeCategories {
		if d := byCategory[c]; d > 0 {
			rec.Overtime = rec.Overtime.Add(c, generic.HoursOf(d))
		}
	}

	inside, outside := normWindowSplit(day, schedule)
	rec.HoursInNormWindow = generic.HoursOf(inside)
	rec.HoursOutsideNormWindow = generic.HoursOf(outside)

	rec.HasCallOutQualifyingTime = DetectCallOut(day.Entries, schedule.CallOutWindow)
	rec.OvertimePremium = Premium(rec.Overtime, schedule)

	if err := CheckConservation(rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// allocateByAccumulation walks entries in order; each entry starts at the
// running total of the day so far.
func allocateByAccumulation(day WorkerDay, bands []generic.Band[Category]) map[Category]time.Duration {
	totals := make(map[Category]time.Duration)
	var running time.Duration
	for _, e := range day.Entries {
		for _, a := range generic.Allocate(bands, running, e.Duration) {
			totals[a.Category] += a.Length()
		}
		running += e.Duration
	}
	return totals
}

// allocateByTimeOfDay places each entry at its clock position.
func allocateByTimeOfDay(day WorkerDay, bands []generic.Band[Category]) map[Category]time.Duration {
	totals := make(map[Category]time.Duration)
	midnight := day.Date.Time()
	for _, e := range day.Entries {
		for _, a := range generic.Allocate(bands, e.Start.Sub(midnight), e.Duration) {
			totals[a.Category] += a.Length()
		}
	}
	return totals
}

func normWindowSplit(day WorkerDay, schedule *RateSchedule) (inside, outside time.Duration) {
	bands := schedule.NormWindowBands()
	midnight := day.Date.Time()
	for _, e := range day.Entries {
		for _, a := range generic.Allocate(bands, e.Start.Sub(midnight), e.Duration) {
			if a.Category {
				inside += a.Length()
			} else {
				outside += a.Length()
			}
		}
	}
	return inside, outside
}

// DetectCallOut reports whether any entry starts outside the window.
func DetectCallOut(entries []TimeEntry, window CallOutWindow) bool {
	for _, e := range entries {
		if window.Qualifies(e.StartClock()) {
			return true
		}
	}
	return false
}

// QualifyingStarts lists the start times that made a day call-out eligible.
func QualifyingStarts(entries []TimeEntry, window CallOutWindow) []generic.ClockTime {
	var out []generic.ClockTime
	for _, e := range entries {
		if c := e.StartClock(); window.Qualifies(c) {
			out = append(out, c)
		}
	}
	return out
}

// Premium prices an overtime breakdown with the schedule's hourly rates.
func Premium(b OvertimeBreakdown, schedule *RateSchedule) decimal.Decimal {
	total := decimal.Zero
	for _, c := range OvertimeCategories {
		total = total.Add(b.Get(c).Mul(schedule.Rate(c)))
	}
	return total
}

// CheckConservation verifies normal + overtime == total within tolerance,
// and that rest days carry no normal hours.
func CheckConservation(rec DailyRecord) error {
	classified := rec.ClassifiedHours()
	restDay := rec.DayType != DayWeekday || rec.Holiday
	if !generic.NearlyEqual(classified, rec.TotalHours) || (restDay && !rec.NormalHours.IsZero()) {
		return &InvariantError{Worker: rec.WorkerID, Date: rec.Date, Total: rec.TotalHours, Classified: classified}
	}
	return nil
}
