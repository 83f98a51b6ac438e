package overtime

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// WEEK AGGREGATOR
// =============================================================================

type weekKey struct {
	worker WorkerID
	year   int
	week   int
}

// AggregateWeeks groups records by worker and ISO week and sums them.
//
// Credited absence hours count as normal hours up to the weekly norm: a
// Vacation Wednesday with 7.4 credited hours adds 7.4 to NormalHours,
// CreditedHours and TotalHours. Credit that would lift NormalHours above
// the week's WeeklyNormHours is reported as WeekdayTier1 instead, so
// TotalHours == NormalHours + overtime holds and NormalHours never exceeds
// the norm. Premiums are the sum of the daily premiums; credited hours
// carry none. Records with a zero norm leave the credit uncapped.
//
// The result is ordered by worker, ISO year, ISO week.
func AggregateWeeks(records []DailyRecord) []WeeklyRecord {
	weeks := make(map[weekKey]*WeeklyRecord)
	norms := make(map[weekKey]decimal.Decimal)
	for _, r := range records {
		year, week := r.Date.ISOWeek()
		k := weekKey{worker: r.WorkerID, year: year, week: week}
		w, ok := weeks[k]
		if !ok {
			w = &WeeklyRecord{WorkerID: r.WorkerID, ISOYear: year, ISOWeek: week}
			weeks[k] = w
		}
		if r.WeeklyNormHours.GreaterThan(norms[k]) {
			norms[k] = r.WeeklyNormHours
		}

		w.Days++
		w.WorkedHours = w.WorkedHours.Add(r.TotalHours)
		w.NormalHours = w.NormalHours.Add(r.NormalHours)
		w.Overtime = w.Overtime.Merge(r.Overtime)
		w.OvertimePremium = w.OvertimePremium.Add(r.OvertimePremium)
		w.CallOutPayments = w.CallOutPayments.Add(r.CallOutPayment)

		if r.AbsenceType.Credits() {
			w.CreditedHours = w.CreditedHours.Add(r.CreditedHours)
		}
	}

	out := make([]WeeklyRecord, 0, len(weeks))
	for k, w := range weeks {
		credit := w.CreditedHours
		if norm := norms[k]; norm.IsPositive() {
			room := decimal.Max(decimal.Zero, norm.Sub(w.NormalHours))
			if credit.GreaterThan(room) {
				w.Overtime.WeekdayTier1 = w.Overtime.WeekdayTier1.Add(credit.Sub(room))
				credit = room
			}
		}
		w.NormalHours = w.NormalHours.Add(credit)
		w.TotalHours = w.WorkedHours.Add(w.CreditedHours)
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.WorkerID != b.WorkerID {
			return a.WorkerID < b.WorkerID
		}
		if a.ISOYear != b.ISOYear {
			return a.ISOYear < b.ISOYear
		}
		return a.ISOWeek < b.ISOWeek
	})
	return out
}

// CheckWeek verifies TotalHours == NormalHours + overtime for a week.
func CheckWeek(w WeeklyRecord) bool {
	return generic.NearlyEqual(w.TotalHours, w.NormalHours.Add(w.Overtime.Total()))
}

// SortDaily orders records by worker then date, keeping the relative order
// of equal keys.
func SortDaily(records []DailyRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.WorkerID != b.WorkerID {
			return a.WorkerID < b.WorkerID
		}
		return a.Date.Before(b.Date)
	})
}
