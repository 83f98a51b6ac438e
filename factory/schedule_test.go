package factory

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/dbr"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

const yamlDoc = `
schedules:
  - id: test-svend
    employee_type: Svend
    effective_from: 2026-03-01
    effective_to: 2027-02-28
    daily_norm: "07:24"
    daily_norm_overrides:
      fredag: 7h
    weekday_tiers:
      - {up_to: 2h, category: weekday_tier1}
      - {category: weekday_tier3}
    sunday_split: "13:00"
    call_out: {before: "06:30", after: "16:00", amount: 800}
    absence_credit_overrides:
      friday: 7.0
    rates:
      weekday_tier1: 48.10
      weekday_tier3: "143.70"
    holidays: none
`

func TestParseSchedules_YAML(t *testing.T) {
	// GIVEN a YAML document overriding some DBR terms
	// WHEN parsed
	schedules, err := ParseSchedules([]byte(yamlDoc))
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	s := schedules[0]

	// THEN explicit values are used and omitted ones default to DBR
	assert.Equal(t, dbr.Svend, s.EmployeeType)
	assert.Equal(t, generic.NewDate(2026, time.March, 1), s.Effective.Start)
	assert.Equal(t, 7*time.Hour+24*time.Minute, s.DailyNorm)
	assert.Equal(t, 7*time.Hour, s.DailyNormFor(time.Friday))
	assert.Equal(t, generic.Unbounded, s.WeekdayTiers[1].UpTo)
	assert.Equal(t, generic.NewClockTime(13, 0), s.SundaySplit)
	assert.Equal(t, generic.NewClockTime(6, 30), s.CallOutWindow.Before)
	assert.True(t, s.CallOutAmount.Equal(decimal.NewFromInt(800)))
	assert.True(t, s.AbsenceCreditFor(time.Friday).Equal(decimal.NewFromInt(7)))
	assert.True(t, s.AbsenceCreditFor(time.Monday).Equal(decimal.RequireFromString("7.4")))
	assert.True(t, s.WeeklyNormHours.Equal(decimal.NewFromInt(37)))
	assert.True(t, s.Rate(overtime.CategoryWeekdayTier3).Equal(decimal.RequireFromString("143.7")))
	assert.Equal(t, generic.NewClockTime(18, 0), s.DayNight.NightStart)
	assert.False(t, s.IsHoliday(generic.NewDate(2026, time.December, 25)))
}

func TestParseSchedules_JSON(t *testing.T) {
	doc := `{"schedules": [{
		"id": "json-elev",
		"employee_type": "elev",
		"effective_from": "2027-03-01",
		"weekday_tiers": [{"category": "weekday_tier1"}],
		"rates": {"weekday_tier1": 49.55, "sunday_after_split": "148.00"}
	}]}`

	schedules, err := ParseSchedules([]byte(doc))
	require.NoError(t, err)
	require.Len(t, schedules, 1)

	s := schedules[0]
	assert.True(t, s.Effective.IsOpen())
	assert.True(t, s.Rate(overtime.CategoryWeekdayTier1).Equal(decimal.RequireFromString("49.55")))
	assert.True(t, s.IsHoliday(generic.NewDate(2027, time.December, 25)))
}

func TestParseSchedules_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":            `schedules: []`,
		"bad date":         "schedules:\n  - {id: x, employee_type: svend, effective_from: soon}",
		"bad tiers":        "schedules:\n  - {id: x, employee_type: svend, effective_from: 2026-03-01, weekday_tiers: [{up_to: 2h, category: weekday_tier1}]}",
		"normal tier":      "schedules:\n  - {id: x, employee_type: svend, effective_from: 2026-03-01, weekday_tiers: [{category: normal}]}",
		"unknown calendar": "schedules:\n  - {id: x, employee_type: svend, effective_from: 2026-03-01, holidays: mars}",
		"bad weekday":      "schedules:\n  - {id: x, employee_type: svend, effective_from: 2026-03-01, daily_norm_overrides: {someday: 7h}}",
		"bad rate":         "schedules:\n  - {id: x, employee_type: svend, effective_from: 2026-03-01, rates: {weekday_tier1: cheap}}",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSchedules([]byte(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, overtime.ErrInvalidSchedule), err.Error())
		})
	}
}

func TestMarshalSchedules_RoundTripsBuiltInEditions(t *testing.T) {
	// GIVEN the built-in editions
	original := dbr.Schedules()

	// WHEN dumped and parsed again
	data, err := MarshalSchedules(original)
	require.NoError(t, err)
	parsed, err := ParseSchedules(data)
	require.NoError(t, err)

	// THEN a registry built from the file resolves identical terms
	require.Len(t, parsed, len(original))
	registry, err := overtime.NewRegistry(parsed...)
	require.NoError(t, err)

	date := generic.NewDate(2026, time.June, 10)
	want := dbr.Schedule(dbr.Editions[1], dbr.Laerling)
	got, err := registry.Resolve(date, dbr.Laerling)
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Effective, got.Effective)
	assert.Equal(t, want.DailyNorm, got.DailyNorm)
	assert.Equal(t, want.WeekdayTiers, got.WeekdayTiers)
	assert.Equal(t, want.CallOutWindow, got.CallOutWindow)
	for _, c := range overtime.OvertimeCategories {
		assert.True(t, want.Rate(c).Equal(got.Rate(c)), c)
	}
	assert.True(t, got.IsHoliday(generic.NewDate(2026, time.June, 5)))
}

func TestLoadRegistry_DefaultsToDBR(t *testing.T) {
	registry, err := LoadRegistry("")
	require.NoError(t, err)
	assert.ElementsMatch(t, dbr.EmployeeTypes, registry.EmployeeTypes())
}
