package dbr

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

func TestRegistry_ResolvesEditionByDate(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	tests := []struct {
		date  generic.Date
		id    string
		tier1 string
	}{
		{generic.NewDate(2025, time.May, 1), "dbr-2025-svend", "46.70"},
		{generic.NewDate(2026, time.February, 28), "dbr-2025-svend", "46.70"},
		{generic.NewDate(2026, time.March, 1), "dbr-2026-svend", "48.10"},
		{generic.NewDate(2027, time.February, 28), "dbr-2026-svend", "48.10"},
		{generic.NewDate(2027, time.March, 1), "dbr-2027-svend", "49.55"},
		{generic.NewDate(2031, time.January, 15), "dbr-2027-svend", "49.55"},
	}
	for _, tt := range tests {
		t.Run(tt.date.String(), func(t *testing.T) {
			s, err := registry.Resolve(tt.date, Svend)
			require.NoError(t, err)
			assert.Equal(t, tt.id, s.ID)
			assert.True(t, s.Rate(overtime.CategoryWeekdayTier1).Equal(decimal.RequireFromString(tt.tier1)))
		})
	}
}

func TestRegistry_NoEditionBeforeFirstAgreement(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	// GIVEN a date before the first edition
	// WHEN resolving
	_, err = registry.Resolve(generic.NewDate(2025, time.April, 30), Svend)

	// THEN there is no silent fallback
	assert.True(t, errors.Is(err, overtime.ErrNoApplicableRateSchedule))
	assert.True(t, overtime.IsBatchFatal(err))
}

func TestRegistry_UnknownEmployeeType(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	_, err = registry.Resolve(generic.NewDate(2026, time.March, 4), "mester")
	assert.True(t, errors.Is(err, overtime.ErrUnknownEmployeeType))
}

func TestApprenticeOvertimeIsSingleTier(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)
	date := generic.NewDate(2026, time.March, 4) // Wednesday

	// GIVEN a 14-hour weekday
	raw := overtime.RawDay{
		WorkerID: "w1",
		Date:     date,
		Entries:  []overtime.RawEntry{{Start: "06:00", End: "20:00"}},
	}

	for _, tt := range []struct {
		employeeType overtime.EmployeeType
		tier1, tier3 string
	}{
		{Svend, "2", "2.6"},
		{Laerling, "6.6", "0"},
		{Elev, "6.6", "0"},
	} {
		t.Run(string(tt.employeeType), func(t *testing.T) {
			raw.EmployeeType = tt.employeeType
			day, err := overtime.Normalize(raw)
			require.NoError(t, err)
			s, err := registry.Resolve(date, tt.employeeType)
			require.NoError(t, err)

			// WHEN classified
			rec, err := overtime.Classify(day, s)
			require.NoError(t, err)

			// THEN apprentices collect every overtime hour in tier1
			assert.Equal(t, "7.4", rec.NormalHours.String())
			assert.True(t, rec.Overtime.WeekdayTier1.Equal(decimal.RequireFromString(tt.tier1)), rec.Overtime.WeekdayTier1.String())
			assert.True(t, rec.Overtime.WeekdayTier3.Equal(decimal.RequireFromString(tt.tier3)), rec.Overtime.WeekdayTier3.String())
		})
	}
}

func TestEasterSunday(t *testing.T) {
	assert.Equal(t, generic.NewDate(2024, time.March, 31), EasterSunday(2024))
	assert.Equal(t, generic.NewDate(2025, time.April, 20), EasterSunday(2025))
	assert.Equal(t, generic.NewDate(2026, time.April, 5), EasterSunday(2026))
	assert.Equal(t, generic.NewDate(2027, time.March, 28), EasterSunday(2027))
}

func TestCalendar(t *testing.T) {
	var c Calendar

	name, ok := c.HolidayName(generic.NewDate(2026, time.April, 3))
	assert.True(t, ok)
	assert.Equal(t, "Langfredag", name)

	name, ok = c.HolidayName(generic.NewDate(2026, time.May, 14))
	assert.True(t, ok)
	assert.Equal(t, "Kr. himmelfartsdag", name)

	assert.True(t, c.IsHoliday(generic.NewDate(2026, time.December, 25)))
	assert.False(t, c.IsHoliday(generic.NewDate(2026, time.March, 4)))

	// Store bededag is gone from 2024.
	assert.True(t, c.IsHoliday(generic.NewDate(2023, time.May, 5)))
	assert.False(t, c.IsHoliday(generic.NewDate(2026, time.May, 1)))
}

func TestHolidayClassifiedAsSunday(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)
	goodFriday := generic.NewDate(2026, time.April, 3)

	day, err := overtime.Normalize(overtime.RawDay{
		WorkerID: "w1", EmployeeType: Svend, Date: goodFriday,
		Entries: []overtime.RawEntry{{Start: "10:00", End: "14:00"}},
	})
	require.NoError(t, err)
	s, err := registry.Resolve(goodFriday, Svend)
	require.NoError(t, err)

	rec, err := overtime.Classify(day, s)
	require.NoError(t, err)

	assert.True(t, rec.Holiday)
	assert.True(t, rec.NormalHours.IsZero())
	assert.Equal(t, "2", rec.Overtime.SundayBeforeSplit.String())
	assert.Equal(t, "2", rec.Overtime.SundayAfterSplit.String())
}

func TestDetectAbsence(t *testing.T) {
	tests := []struct {
		activity string
		want     overtime.AbsenceType
		ok       bool
	}{
		{"Ferie", overtime.AbsenceVacation, true},
		{"Afspadsering", overtime.AbsenceVacation, true},
		{"Syg", overtime.AbsenceSick, true},
		{"Barns sygedag", overtime.AbsenceSick, true},
		{"Helligdag", overtime.AbsencePublicHoliday, true},
		{"Grundlovsdag", overtime.AbsencePublicHoliday, true},
		{"Kursus i stillads", overtime.AbsenceCourse, true},
		{"Montage", overtime.AbsenceUnset, false},
		{"", overtime.AbsenceUnset, false},
	}
	for _, tt := range tests {
		t.Run(tt.activity, func(t *testing.T) {
			got, ok := DetectAbsence(tt.activity)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEmployeeType(t *testing.T) {
	et, ok := ParseEmployeeType("Lærling")
	assert.True(t, ok)
	assert.Equal(t, Laerling, et)

	et, ok = ParseEmployeeType("FUNKTIONÆR")
	assert.True(t, ok)
	assert.Equal(t, Funktionaer, et)

	_, ok = ParseEmployeeType("mester")
	assert.False(t, ok)
}
