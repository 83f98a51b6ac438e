/*
Package overtime implements the overtime and absence classification engine.

PURPOSE:
  Turns a worker's raw time-clock entries into payroll-ready hour
  categories under a versioned collective-agreement rate schedule, and rolls
  the daily results up into ISO weeks.

PIPELINE:
  RawDay --Normalize--> WorkerDay --Classify--> DailyRecord
         --AbsenceResolver / CallOutResolver--> DailyRecord
         --AggregateWeeks--> WeeklyRecord

  Engine.Run drives the whole pipeline for a batch of workers and days.

KEY CONCEPTS IN THIS FILE (types.go):
  - TimeEntry: one validated, same-day interval of work
  - WorkerDay: all entries of one worker on one date
  - DailyRecord: the classified day
  - WeeklyRecord: the ISO-week rollup
  - OvertimeBreakdown: the seven mutually exclusive overtime categories

SEE ALSO:
  - schedule.go: RateSchedule, the declarative rule table
  - classify.go: The day classifier
  - engine.go: Batch runner
*/
package overtime

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type WorkerID string

// EmployeeType selects which rate schedule applies to a worker. Agreement
// packages define the concrete values (see dbr).
type EmployeeType string

// =============================================================================
// DAY TYPE / ABSENCE TYPE
// =============================================================================

type DayType string

const (
	DayWeekday  DayType = "Weekday"
	DaySaturday DayType = "Saturday"
	DaySunday   DayType = "Sunday"
)

// DayTypeOf maps a weekday to its day type.
func DayTypeOf(wd time.Weekday) DayType {
	switch wd {
	case time.Saturday:
		return DaySaturday
	case time.Sunday:
		return DaySunday
	default:
		return DayWeekday
	}
}

// AbsenceType marks a zero-entry day. The empty value means "not decided".
type AbsenceType string

const (
	AbsenceUnset         AbsenceType = ""
	AbsenceNone          AbsenceType = "None"
	AbsenceVacation      AbsenceType = "Vacation"
	AbsenceSick          AbsenceType = "Sick"
	AbsenceCourse        AbsenceType = "Course"
	AbsencePublicHoliday AbsenceType = "Public Holiday"
)

// Credits reports whether the absence earns credited hours.
func (a AbsenceType) Credits() bool {
	return a != AbsenceUnset && a != AbsenceNone
}

// ParseAbsenceType accepts the canonical names case-insensitively.
func ParseAbsenceType(s string) (AbsenceType, bool) {
	switch normalizeKey(s) {
	case "", "unset":
		return AbsenceUnset, true
	case "none":
		return AbsenceNone, true
	case "vacation":
		return AbsenceVacation, true
	case "sick":
		return AbsenceSick, true
	case "course":
		return AbsenceCourse, true
	case "publicholiday", "public_holiday", "holiday":
		return AbsencePublicHoliday, true
	}
	return AbsenceUnset, false
}

// =============================================================================
// TIME ENTRY / WORKER DAY
// =============================================================================

// TimeEntry is one validated interval of work on a single date.
type TimeEntry struct {
	CaseReference string
	ActivityLabel string
	Start         time.Time
	End           time.Time
	Duration      time.Duration
}

// Hours returns the entry's length in decimal hours.
func (e TimeEntry) Hours() decimal.Decimal { return generic.HoursOf(e.Duration) }

// DisplayDuration renders the length as "HH:MM".
func (e TimeEntry) DisplayDuration() string { return generic.FormatHHMM(e.Duration) }

// StartClock returns the start as an offset from the entry's midnight.
func (e TimeEntry) StartClock() generic.ClockTime { return generic.ClockOf(e.Start) }

// WorkerDay is every entry a worker registered on one date, sorted by start
// and free of overlaps. Build a new one when entries change.
type WorkerDay struct {
	WorkerID     WorkerID
	EmployeeType EmployeeType
	Date         generic.Date
	Entries      []TimeEntry
}

func (d WorkerDay) Weekday() time.Weekday { return d.Date.Weekday() }

// WorkedDuration sums entry durations.
func (d WorkerDay) WorkedDuration() time.Duration {
	var total time.Duration
	for _, e := range d.Entries {
		total += e.Duration
	}
	return total
}

// =============================================================================
// CATEGORIES
// =============================================================================

// Category names one hour bucket. CategoryNormal is not overtime.
type Category string

const (
	CategoryNormal            Category = "normal"
	CategoryWeekdayTier1      Category = "weekday_tier1"
	CategoryWeekdayTier2      Category = "weekday_tier2"
	CategoryWeekdayTier3      Category = "weekday_tier3"
	CategorySaturdayDay       Category = "saturday_day"
	CategorySaturdayNight     Category = "saturday_night"
	CategorySundayBeforeSplit Category = "sunday_before_split"
	CategorySundayAfterSplit  Category = "sunday_after_split"
)

// OvertimeCategories lists the overtime categories in reporting order.
var OvertimeCategories = []Category{
	CategoryWeekdayTier1,
	CategoryWeekdayTier2,
	CategoryWeekdayTier3,
	CategorySaturdayDay,
	CategorySaturdayNight,
	CategorySundayBeforeSplit,
	CategorySundayAfterSplit,
}

// IsOvertime reports whether c is one of the seven overtime categories.
func (c Category) IsOvertime() bool {
	for _, oc := range OvertimeCategories {
		if c == oc {
			return true
		}
	}
	return false
}

// =============================================================================
// OVERTIME BREAKDOWN
// =============================================================================

// OvertimeBreakdown holds hours per overtime category. All values are
// non-negative and the categories never overlap.
type OvertimeBreakdown struct {
	WeekdayTier1      decimal.Decimal
	WeekdayTier2      decimal.Decimal
	WeekdayTier3      decimal.Decimal
	SaturdayDay       decimal.Decimal
	SaturdayNight     decimal.Decimal
	SundayBeforeSplit decimal.Decimal
	SundayAfterSplit  decimal.Decimal
}

func (b *OvertimeBreakdown) field(c Category) *decimal.Decimal {
	switch c {
	case CategoryWeekdayTier1:
		return &b.WeekdayTier1
	case CategoryWeekdayTier2:
		return &b.WeekdayTier2
	case CategoryWeekdayTier3:
		return &b.WeekdayTier3
	case CategorySaturdayDay:
		return &b.SaturdayDay
	case CategorySaturdayNight:
		return &b.SaturdayNight
	case CategorySundayBeforeSplit:
		return &b.SundayBeforeSplit
	case CategorySundayAfterSplit:
		return &b.SundayAfterSplit
	}
	return nil
}

// Get returns the hours of one category; non-overtime categories are zero.
func (b OvertimeBreakdown) Get(c Category) decimal.Decimal {
	if f := b.field(c); f != nil {
		return *f
	}
	return decimal.Zero
}

// Add returns a copy with h added to category c.
func (b OvertimeBreakdown) Add(c Category, h decimal.Decimal) OvertimeBreakdown {
	if f := b.field(c); f != nil {
		*f = f.Add(h)
	}
	return b
}

// Merge adds every category of other.
func (b OvertimeBreakdown) Merge(other OvertimeBreakdown) OvertimeBreakdown {
	for _, c := range OvertimeCategories {
		b = b.Add(c, other.Get(c))
	}
	return b
}

// Total sums all categories.
func (b OvertimeBreakdown) Total() decimal.Decimal {
	total := decimal.Zero
	for _, c := range OvertimeCategories {
		total = total.Add(b.Get(c))
	}
	return total
}

// IsZero reports whether every category is zero.
func (b OvertimeBreakdown) IsZero() bool { return b.Total().IsZero() }

// Legacy folds the breakdown into the three columns older payroll exports
// expect: 1st/2nd hour, 3rd/4th hour, and everything else.
func (b OvertimeBreakdown) Legacy() (ot1, ot2, ot3 decimal.Decimal) {
	ot1 = b.WeekdayTier1
	ot2 = b.WeekdayTier2
	ot3 = generic.SumHours(b.WeekdayTier3, b.SaturdayDay, b.SaturdayNight,
		b.SundayBeforeSplit, b.SundayAfterSplit)
	return ot1, ot2, ot3
}

// =============================================================================
// DAILY RECORD
// =============================================================================

// DailyRecord is a classified worker-day.
//
// Classification fields are written once by Classify. AbsenceType and
// CreditedHours belong to AbsenceResolver; CallOutApplied and CallOutPayment
// belong to CallOutResolver. The two resolvers never touch each other's fields.
type DailyRecord struct {
	WorkerID     WorkerID
	EmployeeType EmployeeType
	ScheduleID   string
	Date         generic.Date
	Weekday      time.Weekday
	DayType      DayType
	Holiday      bool

	// WeeklyNormHours is the weekly norm of the schedule the day was
	// classified under.
	WeeklyNormHours decimal.Decimal

	TotalHours  decimal.Decimal
	NormalHours decimal.Decimal
	Overtime    OvertimeBreakdown

	HoursInNormWindow      decimal.Decimal
	HoursOutsideNormWindow decimal.Decimal
	OvertimePremium        decimal.Decimal

	HasCallOutQualifyingTime bool

	AbsenceType   AbsenceType
	CreditedHours decimal.Decimal

	CallOutApplied bool
	CallOutPayment decimal.Decimal

	Entries []TimeEntry
}

// ClassifiedHours returns NormalHours plus every overtime category.
func (r DailyRecord) ClassifiedHours() decimal.Decimal {
	return r.NormalHours.Add(r.Overtime.Total())
}

// IsEmpty reports whether the day has no entries.
func (r DailyRecord) IsEmpty() bool { return len(r.Entries) == 0 }

// =============================================================================
// WEEKLY RECORD
// =============================================================================

// WeeklyRecord is the ISO-week rollup for one worker. TotalHours and
// NormalHours include credited absence hours.
type WeeklyRecord struct {
	WorkerID WorkerID
	ISOYear  int
	ISOWeek  int
	Days     int

	WorkedHours   decimal.Decimal
	CreditedHours decimal.Decimal
	TotalHours    decimal.Decimal
	NormalHours   decimal.Decimal
	Overtime      OvertimeBreakdown

	OvertimePremium decimal.Decimal
	CallOutPayments decimal.Decimal
}

// NormStatus compares credited-inclusive normal hours with the weekly norm.
type NormStatus string

const (
	NormUndershot NormStatus = "undershot"
	NormMet       NormStatus = "met"
	NormExceeded  NormStatus = "exceeded"
)

// NormStatus reports how the week relates to norm. Only total hours can
// exceed the norm; normal hours are capped per day.
func (w WeeklyRecord) NormStatus(norm decimal.Decimal) NormStatus {
	switch {
	case w.TotalHours.GreaterThan(norm.Add(generic.Tolerance)):
		return NormExceeded
	case w.TotalHours.LessThan(norm.Sub(generic.Tolerance)):
		return NormUndershot
	default:
		return NormMet
	}
}

// Label renders the ISO week as "2026-W09".
func (w WeeklyRecord) Label() string {
	return isoLabel(w.ISOYear, w.ISOWeek)
}
