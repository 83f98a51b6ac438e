package overtime

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// ABSENCE RESOLVER
// =============================================================================

// AbsenceResolver credits zero-entry days with the absence a worker or
// administrator selected. It only writes AbsenceType and CreditedHours.
type AbsenceResolver struct {
	Schedules ScheduleResolver
}

// AbsenceResult is the outcome of one Apply.
type AbsenceResult struct {
	Records []DailyRecord
	// Skipped lists selected dates that have entries; absences only apply
	// to days without registered work.
	Skipped []generic.Date
}

// Apply returns a copy of records with the selections applied. Records
// without a selection keep whatever absence they already had.
func (ar *AbsenceResolver) Apply(records []DailyRecord, selections map[generic.Date]AbsenceType) (AbsenceResult, error) {
	out := make([]DailyRecord, len(records))
	copy(out, records)

	var skipped []generic.Date
	for i := range out {
		sel, ok := selections[out[i].Date]
		if !ok {
			continue
		}
		if !out[i].IsEmpty() {
			if sel.Credits() {
				skipped = append(skipped, out[i].Date)
			}
			continue
		}
		schedule, err := ar.Schedules.Resolve(out[i].Date, out[i].EmployeeType)
		if err != nil {
			return AbsenceResult{}, err
		}
		out[i].AbsenceType, out[i].CreditedHours = CreditFor(sel, out[i].Weekday, schedule)
	}
	return AbsenceResult{Records: out, Skipped: skipped}, nil
}

// CreditFor returns the absence and credited hours for a selection.
// None and unset earn nothing.
func CreditFor(sel AbsenceType, wd time.Weekday, schedule *RateSchedule) (AbsenceType, decimal.Decimal) {
	if !sel.Credits() {
		return sel, decimal.Zero
	}
	return sel, schedule.AbsenceCreditFor(wd)
}
