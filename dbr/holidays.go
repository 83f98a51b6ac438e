package dbr

import (
	"sort"
	"time"

	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// DANISH PUBLIC HOLIDAYS
// =============================================================================

// Calendar is the Danish public holiday calendar used by the DBR editions.
// Work on these days is classified like Sunday work.
//
// Store bededag was abolished from 2024 and only appears for earlier years.
type Calendar struct{}

var _ generic.HolidayCalendar = Calendar{}

type fixedHoliday struct {
	month time.Month
	day   int
	name  string
}

var fixedHolidays = []fixedHoliday{
	{time.January, 1, "Nytårsdag"},
	{time.June, 5, "Grundlovsdag"},
	{time.December, 24, "Juleaftensdag"},
	{time.December, 25, "Juledag"},
	{time.December, 26, "2. juledag"},
}

type easterHoliday struct {
	offset int
	name   string
}

var easterHolidays = []easterHoliday{
	{-3, "Skærtorsdag"},
	{-2, "Langfredag"},
	{0, "Påskedag"},
	{1, "2. påskedag"},
	{39, "Kr. himmelfartsdag"},
	{49, "Pinsedag"},
	{50, "2. pinsedag"},
}

const storeBededagOffset = 26

// Holidays lists the holidays of a year in date order.
func (Calendar) Holidays(year int) []generic.Holiday {
	out := make([]generic.Holiday, 0, len(fixedHolidays)+len(easterHolidays)+1)
	for _, h := range fixedHolidays {
		out = append(out, generic.Holiday{Date: generic.NewDate(year, h.month, h.day), Name: h.name})
	}
	easter := EasterSunday(year)
	for _, h := range easterHolidays {
		out = append(out, generic.Holiday{Date: easter.AddDays(h.offset), Name: h.name})
	}
	if year < 2024 {
		out = append(out, generic.Holiday{Date: easter.AddDays(storeBededagOffset), Name: "Store bededag"})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// HolidayName returns the holiday falling on d, if any.
func (c Calendar) HolidayName(d generic.Date) (string, bool) {
	for _, h := range c.Holidays(d.Year) {
		if h.Date == d {
			return h.Name, true
		}
	}
	return "", false
}

// IsHoliday implements generic.HolidayCalendar.
func (c Calendar) IsHoliday(d generic.Date) bool {
	_, ok := c.HolidayName(d)
	return ok
}

// EasterSunday computes Western Easter with the anonymous Gregorian
// algorithm.
func EasterSunday(year int) generic.Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return generic.NewDate(year, time.Month(month), day)
}
