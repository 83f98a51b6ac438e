package generic

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// DATE - Calendar day without a clock or zone
// =============================================================================

// Date is a calendar day. It is comparable and safe to use as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func Today() Date { return DateOf(time.Now()) }

// ParseDate accepts ISO "2006-01-02" and the Danish "02-01-2006".
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "02-01-2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time { return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC) }

// At returns the instant at the given offset from midnight UTC.
func (d Date) At(c ClockTime) time.Time { return d.Time().Add(time.Duration(c)) }

// Comparison
func (d Date) Before(other Date) bool { return d.Time().Before(other.Time()) }
func (d Date) After(other Date) bool { return d.Time().After(other.Time()) }
func (d Date) Equal(other Date) bool { return d == other }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return DateOf(d.Time().AddDate(0, 0, n)) }

// Properties
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }
func (d Date) IsZero() bool { return d == Date{} }
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// ISOWeek returns the ISO-8601 year and week number (Monday start).
func (d Date) ISOWeek() (year, week int) { return d.Time().ISOWeek() }

// Monday returns the Monday of the ISO week containing d.
func (d Date) Monday() Date {
	wd := int(d.Weekday())
	if wd == 0 {
		wd = 7
	}
	return d.AddDays(-(wd - 1))
}

func (d Date) String() string { return d.Time().Format("2006-01-02") }

// Danish formats the date as DD-MM-YYYY, the layout used by Danish payroll exports.
func (d Date) Danish() string { return d.Time().Format("02-01-2006") }

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// CLOCK TIME - Offset from midnight
// =============================================================================

// ClockTime is a time of day expressed as the offset from midnight.
// EndOfDay (24:00) is valid and marks the closing instant of a day.
type ClockTime time.Duration

const EndOfDay = ClockTime(24 * time.Hour)

func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// ClockOf returns the time of day of t.
func ClockOf(t time.Time) ClockTime {
	return ClockTime(time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second)
}

// ParseClock parses "HH:MM" or "HH:MM:SS". "24:00" is accepted.
func ParseClock(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	if s == "24:00" || s == "24:00:00" {
		return EndOfDay, nil
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockOf(t), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
}

func MustParseClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c ClockTime) Duration() time.Duration { return time.Duration(c) }
func (c ClockTime) Before(o ClockTime) bool { return c < o }
func (c ClockTime) IsValid() bool { return c >= 0 && c <= EndOfDay }

func (c ClockTime) String() string {
	total := int(time.Duration(c) / time.Minute)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func (c ClockTime) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *ClockTime) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// FormatHHMM renders a duration as "HH:MM", truncating seconds.
func FormatHHMM(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// Holiday is a named public holiday.
type Holiday struct {
	Date Date
	Name string
}

// HolidayCalendar answers whether a date is a public holiday.
type HolidayCalendar interface {
	IsHoliday(date Date) bool
}

// NoHolidays is a calendar without holidays.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(Date) bool { return false }
