package timesheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/overtime"
)

// DailyColumns is the header of the daily payroll export.
var DailyColumns = []string{
	"Medarbejder", "Dato", "Dag", "Dagtype",
	"TotalTimer", "TimerNormtid", "TimerUdenforNorm",
	"UgeNummer", "UgeTotal",
	"NormaleTimer", "Overtid1", "Overtid2", "Overtid3",
	"CallOutBetaling",
	"Fravaer", "KrediteredeTimer", "OvertidsTillaeg",
}

// WeeklyColumns is the header of the weekly summary export.
var WeeklyColumns = []string{
	"Medarbejder", "År", "UgeNummer",
	"TotalTimer", "NormaleTimer", "Overtid1", "Overtid2", "Overtid3",
	"KrediteredeTimer", "CallOutBetaling",
}

func newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	return cw
}

func hours(d decimal.Decimal) string { return d.StringFixed(2) }

// WriteDaily writes one row per daily record. UgeTotal is the worker's
// credited-inclusive total for the ISO week of the row.
func WriteDaily(w io.Writer, daily []overtime.DailyRecord, weekly []overtime.WeeklyRecord) error {
	type weekKey struct {
		worker     overtime.WorkerID
		year, week int
	}
	weekTotals := make(map[weekKey]decimal.Decimal, len(weekly))
	for _, wr := range weekly {
		weekTotals[weekKey{wr.WorkerID, wr.ISOYear, wr.ISOWeek}] = wr.TotalHours
	}

	cw := newWriter(w)
	if err := cw.Write(DailyColumns); err != nil {
		return err
	}
	for _, r := range daily {
		year, week := r.Date.ISOWeek()
		ot1, ot2, ot3 := r.Overtime.Legacy()
		dayType := string(r.DayType)
		if r.Holiday {
			dayType = "Holiday"
		}
		row := []string{
			string(r.WorkerID),
			r.Date.Danish(),
			r.Weekday.String(),
			dayType,
			hours(r.TotalHours),
			hours(r.HoursInNormWindow),
			hours(r.HoursOutsideNormWindow),
			strconv.Itoa(week),
			hours(weekTotals[weekKey{r.WorkerID, year, week}]),
			hours(r.NormalHours),
			hours(ot1),
			hours(ot2),
			hours(ot3),
			hours(r.CallOutPayment),
			string(r.AbsenceType),
			hours(r.CreditedHours),
			hours(r.OvertimePremium),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteWeekly writes one row per worker and ISO week.
func WriteWeekly(w io.Writer, weekly []overtime.WeeklyRecord) error {
	cw := newWriter(w)
	if err := cw.Write(WeeklyColumns); err != nil {
		return err
	}
	for _, wr := range weekly {
		ot1, ot2, ot3 := wr.Overtime.Legacy()
		row := []string{
			string(wr.WorkerID),
			strconv.Itoa(wr.ISOYear),
			strconv.Itoa(wr.ISOWeek),
			hours(wr.TotalHours),
			hours(wr.NormalHours),
			hours(ot1),
			hours(ot2),
			hours(ot3),
			hours(wr.CreditedHours),
			hours(wr.CallOutPayments),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCombined writes the daily export followed by the weekly summary.
func WriteCombined(w io.Writer, daily []overtime.DailyRecord, weekly []overtime.WeeklyRecord) error {
	if err := WriteDaily(w, daily, weekly); err != nil {
		return err
	}
	if _, err := fmt.Fprint(w, "\n\nUGENTLIG OPSUMMERING\n"); err != nil {
		return err
	}
	return WriteWeekly(w, weekly)
}
