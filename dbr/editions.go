/*
editions.go - DBR collective agreement rate schedules

PURPOSE:
  Ready-to-use rate schedule editions for the DBR agreement. Every agreed
  premium change is a new edition with its own effective range; old
  editions are kept so historical periods classify at the rates that
  applied then.

EDITIONS:
  dbr-2025: 2025-05-01 .. 2026-02-28
  dbr-2026: 2026-03-01 .. 2027-02-28
  dbr-2027: 2027-03-01 .. (open)

  Dates before 2025-05-01 have no edition and fail with
  overtime.ErrNoApplicableRateSchedule.

EMPLOYEE TYPES:
  svend, funktionaer:  tiered weekday overtime (tier1 2h, tier2 2h, tier3 rest)
  laerling, elev:      every weekday overtime hour is tier1

  Apprentice eligibility is expressed as a single tier band, so the
  classifier has no apprentice-specific branch.

SHARED TERMS (all editions):
  weekly norm 37h, daily norm 7h24m, absence credit 7.4h
  norm window 07:00-17:00, rest-day day hours 06:00-18:00
  Sunday split 12:00, call-out 750 DKK outside 07:00-15:30

EXAMPLE:
  registry, err := dbr.NewRegistry()
  schedule, err := registry.Resolve(generic.NewDate(2026, 3, 4), dbr.Svend)

SEE ALSO:
  - holidays.go: Danish public holiday calendar
  - factory: loading editions from YAML/JSON instead
*/
package dbr

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// EMPLOYEE TYPES
// =============================================================================

const (
	Svend       overtime.EmployeeType = "svend"
	Funktionaer overtime.EmployeeType = "funktionaer"
	Laerling    overtime.EmployeeType = "laerling"
	Elev        overtime.EmployeeType = "elev"
)

// EmployeeTypes lists every DBR employee type.
var EmployeeTypes = []overtime.EmployeeType{Svend, Funktionaer, Laerling, Elev}

var displayNames = map[overtime.EmployeeType]string{
	Svend:       "Svend",
	Funktionaer: "Funktionær",
	Laerling:    "Lærling",
	Elev:        "Elev",
}

// DisplayName returns the Danish name of an employee type.
func DisplayName(t overtime.EmployeeType) string {
	if n, ok := displayNames[t]; ok {
		return n
	}
	return string(t)
}

// ParseEmployeeType accepts identifiers and Danish display names, with or
// without the Danish letters.
func ParseEmployeeType(s string) (overtime.EmployeeType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "svend":
		return Svend, true
	case "funktionaer", "funktionær":
		return Funktionaer, true
	case "laerling", "lærling":
		return Laerling, true
	case "elev":
		return Elev, true
	}
	return "", false
}

// IsApprentice reports whether t is paid a single weekday overtime tier.
func IsApprentice(t overtime.EmployeeType) bool {
	return t == Laerling || t == Elev
}

// =============================================================================
// EDITION RATES
// =============================================================================

// Rates are the hourly premiums of one edition in DKK.
type Rates struct {
	Tier1         string
	Tier2         string
	Tier3         string
	SaturdayDay   string
	SaturdayNight string
	SundayBefore  string
	SundayAfter   string
}

func (r Rates) byCategory() map[overtime.Category]decimal.Decimal {
	out := make(map[overtime.Category]decimal.Decimal, len(overtime.OvertimeCategories))
	for c, v := range map[overtime.Category]string{
		overtime.CategoryWeekdayTier1:      r.Tier1,
		overtime.CategoryWeekdayTier2:      r.Tier2,
		overtime.CategoryWeekdayTier3:      r.Tier3,
		overtime.CategorySaturdayDay:       r.SaturdayDay,
		overtime.CategorySaturdayNight:     r.SaturdayNight,
		overtime.CategorySundayBeforeSplit: r.SundayBefore,
		overtime.CategorySundayAfterSplit:  r.SundayAfter,
	} {
		if v != "" {
			out[c] = decimal.RequireFromString(v)
		}
	}
	return out
}

// Edition is one agreed rate period.
type Edition struct {
	ID        string
	Name      string
	Effective generic.Period
	Rates     Rates
}

// Editions are the agreed DBR rate periods, oldest first.
var Editions = []Edition{
	{
		ID:        "dbr-2025",
		Name:      "DBR 2025",
		Effective: generic.Period{Start: generic.NewDate(2025, time.May, 1), End: generic.NewDate(2026, time.February, 28)},
		Rates: Rates{
			Tier1: "46.70", Tier2: "74.55", Tier3: "139.50",
			SaturdayDay: "74.55", SaturdayNight: "139.50",
			SundayBefore: "92.95", SundayAfter: "139.50",
		},
	},
	{
		ID:        "dbr-2026",
		Name:      "DBR 2026",
		Effective: generic.Period{Start: generic.NewDate(2026, time.March, 1), End: generic.NewDate(2027, time.February, 28)},
		Rates: Rates{
			Tier1: "48.10", Tier2: "76.80", Tier3: "143.70",
			SaturdayDay: "76.80", SaturdayNight: "143.70",
			SundayBefore: "95.75", SundayAfter: "143.70",
		},
	},
	{
		ID:        "dbr-2027",
		Name:      "DBR 2027",
		Effective: generic.Period{Start: generic.NewDate(2027, time.March, 1)},
		Rates: Rates{
			Tier1: "49.55", Tier2: "79.10", Tier3: "148.00",
			SaturdayDay: "79.10", SaturdayNight: "148.00",
			SundayBefore: "98.60", SundayAfter: "148.00",
		},
	},
}

// =============================================================================
// SCHEDULES
// =============================================================================

const (
	DailyNorm     = 7*time.Hour + 24*time.Minute
	CallOutAmount = "750"
	Currency      = "DKK"
)

// WeeklyNormHours is the agreed weekly norm.
var WeeklyNormHours = decimal.NewFromInt(37)

// AbsenceCreditHours is credited for each selected absence day.
var AbsenceCreditHours = decimal.RequireFromString("7.4")

// TieredOvertime is the weekday tier table past the daily norm.
func TieredOvertime() []generic.Band[overtime.Category] {
	return []generic.Band[overtime.Category]{
		{UpTo: 2 * time.Hour, Category: overtime.CategoryWeekdayTier1},
		{UpTo: 4 * time.Hour, Category: overtime.CategoryWeekdayTier2},
		{UpTo: generic.Unbounded, Category: overtime.CategoryWeekdayTier3},
	}
}

// ApprenticeOvertime pays every weekday overtime hour at tier1.
func ApprenticeOvertime() []generic.Band[overtime.Category] {
	return []generic.Band[overtime.Category]{
		{UpTo: generic.Unbounded, Category: overtime.CategoryWeekdayTier1},
	}
}

// Schedule builds the rate schedule of one edition for one employee type.
func Schedule(e Edition, t overtime.EmployeeType) *overtime.RateSchedule {
	tiers := TieredOvertime()
	if IsApprentice(t) {
		tiers = ApprenticeOvertime()
	}
	return &overtime.RateSchedule{
		ID:           e.ID + "-" + string(t),
		Name:         e.Name + " " + DisplayName(t),
		EmployeeType: t,
		Effective:    e.Effective,

		WeeklyNormHours: WeeklyNormHours,
		DailyNorm:       DailyNorm,

		WeekdayTiers: tiers,
		DayNight: overtime.DayNightBoundary{
			DayStart:   generic.NewClockTime(6, 0),
			NightStart: generic.NewClockTime(18, 0),
		},
		SundaySplit: generic.NewClockTime(12, 0),

		CallOutWindow: overtime.CallOutWindow{
			Before: generic.NewClockTime(7, 0),
			After:  generic.NewClockTime(15, 30),
		},
		CallOutAmount: decimal.RequireFromString(CallOutAmount),

		AbsenceCreditHours: AbsenceCreditHours,

		NormWindow: overtime.NormWindow{
			Start: generic.NewClockTime(7, 0),
			End:   generic.NewClockTime(17, 0),
		},

		Rates:    e.Rates.byCategory(),
		Currency: Currency,
		Holidays: Calendar{},
	}
}

// Schedules returns every edition for every employee type.
func Schedules() []*overtime.RateSchedule {
	out := make([]*overtime.RateSchedule, 0, len(Editions)*len(EmployeeTypes))
	for _, e := range Editions {
		for _, t := range EmployeeTypes {
			out = append(out, Schedule(e, t))
		}
	}
	return out
}

// NewRegistry returns a registry holding every DBR edition.
func NewRegistry() (*overtime.Registry, error) {
	return overtime.NewRegistry(Schedules()...)
}
