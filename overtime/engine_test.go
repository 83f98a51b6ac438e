package overtime_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/dbr"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

func newEngine(t *testing.T) *overtime.Engine {
	t.Helper()
	registry, err := dbr.NewRegistry()
	require.NoError(t, err)
	return overtime.NewEngine(registry, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// tenHourWeek is Monday to Friday of ISO week 11 2026, 07:00-17:00, with
// Wednesday left empty.
func tenHourWeek(worker overtime.WorkerID) []overtime.RawDay {
	var days []overtime.RawDay
	for _, d := range []int{9, 10, 12, 13} {
		days = append(days, rawDay(worker, date(time.March, d), entry("07:00", "17:00")))
	}
	return append(days, rawDay(worker, date(time.March, 11)))
}

// =============================================================================
// ABSENCES
// =============================================================================

func TestEngine_VacationCreditsWeeklyNorm(t *testing.T) {
	// GIVEN four ten-hour days and a vacation Wednesday
	sel := overtime.NewSelections()
	sel.SetAbsence("w1", date(time.March, 11), overtime.AbsenceVacation)

	// WHEN the batch runs
	res, err := newEngine(t).Run(context.Background(), overtime.Batch{Days: tenHourWeek("w1"), Selections: sel})
	require.NoError(t, err)

	// THEN the week meets the norm exactly and overtime is untouched
	require.Len(t, res.Weekly, 1)
	week := res.Weekly[0]
	assert.Equal(t, 2026, week.ISOYear)
	assert.Equal(t, 11, week.ISOWeek)
	assert.Equal(t, 5, week.Days)
	assertHours(t, "40", week.WorkedHours)
	assertHours(t, "7.4", week.CreditedHours)
	assertHours(t, "37", week.NormalHours)
	assertHours(t, "47.4", week.TotalHours)
	assertHours(t, "10.4", week.Overtime.Total())
	assertHours(t, "8", week.Overtime.WeekdayTier1)
	assertHours(t, "2.4", week.Overtime.WeekdayTier2)
	assert.True(t, overtime.CheckWeek(week))
	assert.Equal(t, overtime.NormExceeded, week.NormStatus(dbr.WeeklyNormHours))
	assert.Equal(t, "2026-W11", week.Label())

	wed := res.Daily[2]
	assert.Equal(t, date(time.March, 11), wed.Date)
	assert.Equal(t, overtime.AbsenceVacation, wed.AbsenceType)
	assertHours(t, "7.4", wed.CreditedHours)
	assertHours(t, "0", wed.NormalHours)
}

func TestEngine_AbsenceOnWorkedDayIsSkipped(t *testing.T) {
	sel := overtime.NewSelections()
	sel.SetAbsence("w1", date(time.March, 9), overtime.AbsenceSick)

	res, err := newEngine(t).Run(context.Background(), overtime.Batch{Days: tenHourWeek("w1"), Selections: sel})
	require.NoError(t, err)

	require.Len(t, res.SkippedAbsences, 1)
	assert.ErrorIs(t, res.SkippedAbsences[0].Err, overtime.ErrAbsenceOnWorkedDay)
	assert.Equal(t, overtime.AbsenceUnset, res.Daily[0].AbsenceType)
	assertHours(t, "0", res.Weekly[0].CreditedHours)
	assert.Equal(t, overtime.NormExceeded, res.Weekly[0].NormStatus(dbr.WeeklyNormHours))
}

func TestAbsenceResolver_NoneEarnsNothing(t *testing.T) {
	records := []overtime.DailyRecord{{WorkerID: "w1", EmployeeType: dbr.Svend, Date: date(time.March, 11), Weekday: time.Wednesday}}
	resolver := &overtime.AbsenceResolver{Schedules: overtime.Fixed(svend2026())}

	res, err := resolver.Apply(records, map[generic.Date]overtime.AbsenceType{date(time.March, 11): overtime.AbsenceNone})
	require.NoError(t, err)

	assert.Equal(t, overtime.AbsenceNone, res.Records[0].AbsenceType)
	assert.True(t, res.Records[0].CreditedHours.IsZero())
	assert.Empty(t, res.Skipped)
	// Input is not mutated.
	assert.Equal(t, overtime.AbsenceUnset, records[0].AbsenceType)
}

func TestAbsenceResolver_WeekdayOverride(t *testing.T) {
	schedule := svend2026()
	schedule.AbsenceCreditOverrides = map[time.Weekday]decimal.Decimal{time.Friday: decimal.NewFromInt(7)}
	records := []overtime.DailyRecord{{WorkerID: "w1", EmployeeType: dbr.Svend, Date: date(time.March, 13), Weekday: time.Friday}}
	resolver := &overtime.AbsenceResolver{Schedules: overtime.Fixed(schedule)}

	res, err := resolver.Apply(records, map[generic.Date]overtime.AbsenceType{date(time.March, 13): overtime.AbsenceCourse})
	require.NoError(t, err)
	assertHours(t, "7", res.Records[0].CreditedHours)
}

func TestAbsenceResolver_RestDaysCreditNothing(t *testing.T) {
	// GIVEN empty Saturday and Sunday records
	records := []overtime.DailyRecord{
		classify(t, date(time.March, 14)),
		classify(t, date(time.March, 15)),
	}
	resolver := &overtime.AbsenceResolver{Schedules: overtime.Fixed(svend2026())}

	// WHEN both are marked as vacation
	res, err := resolver.Apply(records, map[generic.Date]overtime.AbsenceType{
		date(time.March, 14): overtime.AbsenceVacation,
		date(time.March, 15): overtime.AbsenceVacation,
	})
	require.NoError(t, err)

	// THEN the selection is kept but nothing is credited
	for _, r := range res.Records {
		assert.Equal(t, overtime.AbsenceVacation, r.AbsenceType)
		assertHours(t, "0", r.CreditedHours, r.Date.String())
	}
}

// eightHourWeek is Monday to Friday of ISO week 11 2026, 07:00-15:00, plus
// an empty Saturday.
func eightHourWeek(worker overtime.WorkerID) []overtime.RawDay {
	var days []overtime.RawDay
	for d := 9; d <= 13; d++ {
		days = append(days, rawDay(worker, date(time.March, d), entry("07:00", "15:00")))
	}
	return append(days, rawDay(worker, date(time.March, 14)))
}

func TestEngine_SaturdayVacationKeepsWeeklyNorm(t *testing.T) {
	// GIVEN a full eight-hour week and a vacation Saturday
	sel := overtime.NewSelections()
	sel.SetAbsence("w1", date(time.March, 14), overtime.AbsenceVacation)

	// WHEN the batch runs
	res, err := newEngine(t).Run(context.Background(), overtime.Batch{Days: eightHourWeek("w1"), Selections: sel})
	require.NoError(t, err)

	// THEN the rest day adds nothing and normal hours stop at the norm
	require.Len(t, res.Weekly, 1)
	week := res.Weekly[0]
	assertHours(t, "40", week.WorkedHours)
	assertHours(t, "0", week.CreditedHours)
	assertHours(t, "37", week.NormalHours)
	assertHours(t, "3", week.Overtime.WeekdayTier1)
	assert.True(t, overtime.CheckWeek(week))
}

func TestAggregateWeeks_CreditCappedAtWeeklyNorm(t *testing.T) {
	// GIVEN a schedule that credits Saturdays and a full eight-hour week
	schedule := svend2026()
	schedule.AbsenceCreditOverrides = map[time.Weekday]decimal.Decimal{time.Saturday: decimal.RequireFromString("7.4")}
	var records []overtime.DailyRecord
	for _, raw := range eightHourWeek("w1") {
		day, err := overtime.Normalize(raw)
		require.NoError(t, err)
		rec, err := overtime.Classify(day, schedule)
		require.NoError(t, err)
		records = append(records, rec)
	}
	resolver := &overtime.AbsenceResolver{Schedules: overtime.Fixed(schedule)}
	credited, err := resolver.Apply(records, map[generic.Date]overtime.AbsenceType{date(time.March, 14): overtime.AbsenceVacation})
	require.NoError(t, err)

	// WHEN the week is aggregated
	weeks := overtime.AggregateWeeks(credited.Records)

	// THEN credit beyond the norm is reported as overtime
	require.Len(t, weeks, 1)
	week := weeks[0]
	assertHours(t, "7.4", week.CreditedHours)
	assertHours(t, "47.4", week.TotalHours)
	assertHours(t, "37", week.NormalHours)
	assertHours(t, "10.4", week.Overtime.WeekdayTier1)
	assertHours(t, "10.4", week.Overtime.Total())
	assert.True(t, overtime.CheckWeek(week))
}

func TestAggregateWeeks_NormalNeverExceedsNorm(t *testing.T) {
	// GIVEN random weeks where every day is either worked or an absence,
	// with rest days credited through overrides
	schedule := svend2026()
	schedule.AbsenceCreditOverrides = map[time.Weekday]decimal.Decimal{
		time.Saturday: decimal.RequireFromString("7.4"),
		time.Sunday:   decimal.RequireFromString("7.4"),
	}
	resolver := &overtime.AbsenceResolver{Schedules: overtime.Fixed(schedule)}
	absences := []overtime.AbsenceType{overtime.AbsenceVacation, overtime.AbsenceSick, overtime.AbsenceCourse, overtime.AbsenceNone}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 300; i++ {
		var records []overtime.DailyRecord
		selected := make(map[generic.Date]overtime.AbsenceType)
		for d := 9; d <= 15; d++ {
			raw := rawDay("w1", date(time.March, d))
			if rng.Intn(3) == 0 {
				selected[raw.Date] = absences[rng.Intn(len(absences))]
			} else if rng.Intn(4) > 0 {
				start := 5*60 + rng.Intn(4*60)
				raw.Entries = []overtime.RawEntry{entry(clock(start), clock(start+60+rng.Intn(10*60)))}
			}
			day, err := overtime.Normalize(raw)
			require.NoError(t, err)
			rec, err := overtime.Classify(day, schedule)
			require.NoError(t, err)
			records = append(records, rec)
		}
		res, err := resolver.Apply(records, selected)
		require.NoError(t, err)

		// WHEN aggregated
		weeks := overtime.AggregateWeeks(res.Records)

		// THEN normal hours stay within the norm and the week balances
		require.Len(t, weeks, 1)
		w := weeks[0]
		assert.True(t, overtime.CheckWeek(w), "iteration %d", i)
		assert.False(t, w.NormalHours.GreaterThan(schedule.WeeklyNormHours), "iteration %d: normal %s", i, w.NormalHours)
	}
}

// =============================================================================
// CALL-OUTS
// =============================================================================

func TestEngine_CallOutPayment(t *testing.T) {
	// GIVEN an early start on Monday and a normal Tuesday, both selected
	days := []overtime.RawDay{
		rawDay("w1", date(time.March, 9), entry("05:00", "13:00")),
		rawDay("w1", date(time.March, 10), entry("07:00", "15:00")),
	}
	sel := overtime.NewSelections()
	sel.SetCallOut("w1", date(time.March, 9), true)
	sel.SetCallOut("w1", date(time.March, 10), true)

	res, err := newEngine(t).Run(context.Background(), overtime.Batch{Days: days, Selections: sel})
	require.NoError(t, err)

	// THEN only the qualifying day pays, on top of its overtime
	mon, tue := res.Daily[0], res.Daily[1]
	assert.True(t, mon.CallOutApplied)
	assertHours(t, "750", mon.CallOutPayment)
	assertHours(t, "0.6", mon.Overtime.WeekdayTier1)
	assert.False(t, tue.CallOutApplied)
	assertHours(t, "0", tue.CallOutPayment)

	require.Len(t, res.IneligibleCallOuts, 1)
	assert.Equal(t, date(time.March, 10), res.IneligibleCallOuts[0].Date)
	assert.ErrorIs(t, res.IneligibleCallOuts[0].Err, overtime.ErrCallOutNotQualifying)
	assertHours(t, "750", res.CallOutTotal)
	assertHours(t, "750", res.Weekly[0].CallOutPayments)
}

func TestCallOutResolver_Idempotent(t *testing.T) {
	rec := classify(t, date(time.March, 9), entry("16:00", "20:00"))
	resolver := &overtime.CallOutResolver{Schedules: overtime.Fixed(svend2026())}
	selected := map[generic.Date]bool{rec.Date: true}

	// WHEN the same selection is applied twice
	first, err := resolver.Apply([]overtime.DailyRecord{rec}, selected)
	require.NoError(t, err)
	second, err := resolver.Apply(first.Records, selected)
	require.NoError(t, err)

	// THEN the payment is not doubled
	assertHours(t, "750", first.Total)
	assertHours(t, "750", second.Total)
	assertHours(t, "750", second.Records[0].CallOutPayment)

	// AND deselecting clears it
	cleared, err := resolver.Apply(second.Records, nil)
	require.NoError(t, err)
	assert.False(t, cleared.Records[0].CallOutApplied)
	assertHours(t, "0", cleared.Total)
}

func TestEligibleDays(t *testing.T) {
	records := []overtime.DailyRecord{
		classify(t, date(time.March, 9), entry("05:30", "12:00")),
		classify(t, date(time.March, 10), entry("08:00", "12:00")),
	}
	eligible, err := overtime.EligibleDays(records, overtime.Fixed(svend2026()))
	require.NoError(t, err)

	require.Len(t, eligible, 1)
	assert.Equal(t, date(time.March, 9), eligible[0].Date)
	assert.Equal(t, "05:30", eligible[0].QualifyingTimes[0].String())
}

// =============================================================================
// BATCH BEHAVIOUR
// =============================================================================

func TestEngine_BadDayDoesNotStopBatch(t *testing.T) {
	days := []overtime.RawDay{
		rawDay("w1", date(time.March, 9), entry("08:00", "12:00"), entry("11:00", "13:00")),
		rawDay("w1", date(time.March, 10), entry("08:00", "12:00")),
		rawDay("w2", date(time.March, 10), entry("bad", "12:00")),
	}

	res, err := newEngine(t).Run(context.Background(), overtime.Batch{Days: days})
	require.NoError(t, err)

	assert.Len(t, res.Daily, 1)
	require.Len(t, res.Failures, 2)
	assert.ErrorIs(t, res.Failures[0].Err, overtime.ErrOverlappingEntries)
	assert.ErrorIs(t, res.Failures[1].Err, overtime.ErrMalformedEntry)
	assert.Empty(t, res.Defects)
}

func TestEngine_ScheduleErrorsAbortBatch(t *testing.T) {
	tests := []struct {
		name string
		day  overtime.RawDay
		want error
	}{
		{
			name: "unknown employee type",
			day:  overtime.RawDay{WorkerID: "w1", EmployeeType: "mester", Date: date(time.March, 9)},
			want: overtime.ErrUnknownEmployeeType,
		},
		{
			name: "before first edition",
			day:  overtime.RawDay{WorkerID: "w1", EmployeeType: dbr.Svend, Date: generic.NewDate(2025, time.April, 30)},
			want: overtime.ErrNoApplicableRateSchedule,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := []overtime.RawDay{rawDay("w0", date(time.March, 9), entry("07:00", "15:00")), tt.day}

			res, err := newEngine(t).Run(context.Background(), overtime.Batch{Days: days})

			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, overtime.IsBatchFatal(err))
		})
	}
}

func TestEngine_DefectsAreReportedSeparately(t *testing.T) {
	broken := svend2026()
	broken.WeekdayTiers = broken.WeekdayTiers[:1]
	engine := overtime.NewEngine(overtime.Fixed(broken), slog.New(slog.NewTextHandler(io.Discard, nil)))

	res, err := engine.Run(context.Background(), overtime.Batch{Days: []overtime.RawDay{
		rawDay("w1", date(time.March, 9), entry("06:00", "18:00")),
		rawDay("w1", date(time.March, 10), entry("07:00", "15:00")),
	}})
	require.NoError(t, err)

	require.Len(t, res.Defects, 1)
	assert.Equal(t, date(time.March, 9), res.Defects[0].Date)
	assert.Empty(t, res.Failures)
	require.Len(t, res.Daily, 1)
	assertHours(t, "8", res.Weekly[0].TotalHours)
}

func TestEngine_OrdersOutputAndRunsConcurrently(t *testing.T) {
	// GIVEN many workers, days given newest first
	var days []overtime.RawDay
	for w := 5; w >= 1; w-- {
		for d := 27; d >= 2; d-- {
			if generic.NewDate(2026, time.March, d).IsWeekend() {
				continue
			}
			days = append(days, rawDay(overtime.WorkerID(fmt.Sprintf("w%d", w)), date(time.March, d), entry("07:00", "16:00")))
		}
	}
	engine := newEngine(t)
	engine.Concurrency = 3

	res, err := engine.Run(context.Background(), overtime.Batch{Days: days})
	require.NoError(t, err)

	// THEN records are sorted by worker then date and weeks add up
	require.Len(t, res.Daily, len(days))
	for i := 1; i < len(res.Daily); i++ {
		prev, cur := res.Daily[i-1], res.Daily[i]
		assert.True(t, prev.WorkerID < cur.WorkerID || (prev.WorkerID == cur.WorkerID && prev.Date.Before(cur.Date)))
	}
	assert.Equal(t, []overtime.WorkerID{"w1", "w2", "w3", "w4", "w5"}, res.Workers)
	assert.Len(t, res.Weekly, 5*4)
	for _, w := range res.Weekly {
		assert.True(t, overtime.CheckWeek(w))
	}
	assert.Len(t, res.Weeks("w3"), 4)
	assert.Len(t, res.Records("w3"), len(days)/5)
}

func TestEngine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newEngine(t).Run(ctx, overtime.Batch{Days: tenHourWeek("w1")})

	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_FillMissingDays(t *testing.T) {
	days := []overtime.RawDay{
		rawDay("w1", date(time.March, 6), entry("07:00", "15:00")),
		rawDay("w1", date(time.March, 11), entry("07:00", "15:00")),
	}
	sel := overtime.NewSelections()
	sel.SetAbsence("w1", date(time.March, 9), overtime.AbsenceSick)

	res, err := newEngine(t).Run(context.Background(), overtime.Batch{Days: days, Selections: sel, FillMissingDays: true})
	require.NoError(t, err)

	// Fri, Mon, Tue, Wed; the weekend is not filled.
	require.Len(t, res.Daily, 4)
	assert.Equal(t, overtime.AbsenceSick, res.Daily[1].AbsenceType)
	assert.True(t, res.Daily[2].IsEmpty())
	assert.Len(t, res.Weekly, 2)
}
