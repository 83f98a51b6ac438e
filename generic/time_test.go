package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/generic"
)

func TestParseDate_Formats(t *testing.T) {
	for _, s := range []string{"2026-03-09", "09-03-2026"} {
		d, err := generic.ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, generic.NewDate(2026, time.March, 9), d)
	}

	_, err := generic.ParseDate("9 March")
	assert.ErrorIs(t, err, generic.ErrInvalidDate)
}

func TestDate_Formatting(t *testing.T) {
	d := generic.NewDate(2026, time.March, 9)

	assert.Equal(t, "2026-03-09", d.String())
	assert.Equal(t, "09-03-2026", d.Danish())
	year, week := d.ISOWeek()
	assert.Equal(t, 2026, year)
	assert.Equal(t, 11, week)
	assert.Equal(t, d, d.AddDays(3).Monday())
	assert.True(t, d.AddDays(5).IsWeekend())
}

func TestDate_ISOWeekAcrossYearEnd(t *testing.T) {
	year, week := generic.NewDate(2027, time.January, 1).ISOWeek()
	assert.Equal(t, 2026, year)
	assert.Equal(t, 53, week)
}

func TestParseClock(t *testing.T) {
	c, err := generic.ParseClock("15:30")
	require.NoError(t, err)
	assert.Equal(t, generic.NewClockTime(15, 30), c)

	c, err = generic.ParseClock("24:00")
	require.NoError(t, err)
	assert.Equal(t, generic.EndOfDay, c)
	assert.Equal(t, "24:00", c.String())

	_, err = generic.ParseClock("25:00")
	assert.ErrorIs(t, err, generic.ErrInvalidClock)
}

func TestHoursOf(t *testing.T) {
	assert.Equal(t, "7.4", generic.HoursOf(7*time.Hour+24*time.Minute).String())
	assert.Equal(t, "0.5", generic.HoursOf(30*time.Minute).String())
	assert.Equal(t, 7*time.Hour+24*time.Minute, generic.DurationOf(generic.MustParseDecimal("7.4")))
	assert.Equal(t, "07:24", generic.FormatHHMM(7*time.Hour+24*time.Minute))
}

func TestPeriod(t *testing.T) {
	p := generic.Period{Start: generic.NewDate(2026, time.March, 1), End: generic.NewDate(2026, time.March, 3)}
	open := generic.Period{Start: generic.NewDate(2026, time.March, 3)}

	assert.Len(t, p.Days(), 3)
	assert.True(t, p.Contains(generic.NewDate(2026, time.March, 3)))
	assert.False(t, p.Contains(generic.NewDate(2026, time.March, 4)))
	assert.True(t, open.Contains(generic.NewDate(2099, time.January, 1)))
	assert.True(t, p.Overlaps(open))
	assert.True(t, open.IsOpen())

	bad := generic.Period{Start: p.End, End: p.Start}
	assert.ErrorIs(t, bad.Validate(), generic.ErrInvalidPeriod)
}
