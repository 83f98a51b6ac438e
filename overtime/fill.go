package overtime

import (
	"sort"

	"github.com/warp/overtime-engine/generic"
)

// MergeDays combines raw days that share a worker and date, so overlap
// detection sees every entry of the day. The first employee type wins.
func MergeDays(days []RawDay) []RawDay {
	type key struct {
		worker WorkerID
		date   generic.Date
	}
	index := make(map[key]int, len(days))
	out := make([]RawDay, 0, len(days))
	for _, d := range days {
		k := key{d.WorkerID, d.Date}
		if i, ok := index[k]; ok {
			out[i].Entries = append(out[i].Entries[:len(out[i].Entries):len(out[i].Entries)], d.Entries...)
			continue
		}
		index[k] = len(out)
		out = append(out, d)
	}
	return out
}

// FillMissingDays adds empty weekdays between each worker's first and last
// registered date, so absences can be marked on them. Weekends are only
// present when registered.
func FillMissingDays(days []RawDay) []RawDay {
	type span struct {
		period       generic.Period
		employeeType EmployeeType
		seen         map[generic.Date]bool
	}
	spans := make(map[WorkerID]*span)
	var order []WorkerID
	for _, d := range days {
		s, ok := spans[d.WorkerID]
		if !ok {
			s = &span{period: generic.Period{Start: d.Date, End: d.Date}, employeeType: d.EmployeeType,
				seen: make(map[generic.Date]bool)}
			spans[d.WorkerID] = s
			order = append(order, d.WorkerID)
		}
		if d.Date.Before(s.period.Start) {
			s.period.Start = d.Date
		}
		if d.Date.After(s.period.End) {
			s.period.End = d.Date
		}
		s.seen[d.Date] = true
	}

	out := append([]RawDay(nil), days...)
	for _, w := range order {
		s := spans[w]
		for _, date := range s.period.Days() {
			if s.seen[date] || date.IsWeekend() {
				continue
			}
			out = append(out, RawDay{WorkerID: w, EmployeeType: s.employeeType, Date: date})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WorkerID != out[j].WorkerID {
			return out[i].WorkerID < out[j].WorkerID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
