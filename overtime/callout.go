package overtime

import (
	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
)

// =============================================================================
// CALL-OUT RESOLVER
// =============================================================================

// CallOutResolver turns the worker-confirmed call-out selection into
// payments. Detection (HasCallOutQualifyingTime) comes from the classifier;
// payment needs confirmation because time of day alone does not prove a
// call-out happened.
//
// Call-out pay is additive to any overtime on the same day.
type CallOutResolver struct {
	Schedules ScheduleResolver
}

// CallOutResult is the outcome of one Apply.
type CallOutResult struct {
	Records []DailyRecord
	Total   decimal.Decimal
	// Ineligible lists selected dates without qualifying time.
	Ineligible []generic.Date
}

// Apply returns a copy of records where every selected, eligible day pays
// the schedule's flat call-out amount and every other day pays nothing.
// Applying the same selection twice yields the same result.
func (cr *CallOutResolver) Apply(records []DailyRecord, selections map[generic.Date]bool) (CallOutResult, error) {
	out := make([]DailyRecord, len(records))
	copy(out, records)

	res := CallOutResult{Total: decimal.Zero}
	for i := range out {
		out[i].CallOutApplied = false
		out[i].CallOutPayment = decimal.Zero

		if !selections[out[i].Date] {
			continue
		}
		if !out[i].HasCallOutQualifyingTime {
			res.Ineligible = append(res.Ineligible, out[i].Date)
			continue
		}
		schedule, err := cr.Schedules.Resolve(out[i].Date, out[i].EmployeeType)
		if err != nil {
			return CallOutResult{}, err
		}
		out[i].CallOutApplied = true
		out[i].CallOutPayment = schedule.CallOutAmount
		res.Total = res.Total.Add(schedule.CallOutAmount)
	}
	res.Records = out
	return res, nil
}

// EligibleDay describes a day that could be selected for call-out pay.
type EligibleDay struct {
	WorkerID        WorkerID
	Date            generic.Date
	QualifyingTimes []generic.ClockTime
}

// EligibleDays lists call-out candidates so a collaborator can ask the
// worker to confirm them.
func EligibleDays(records []DailyRecord, schedules ScheduleResolver) ([]EligibleDay, error) {
	var out []EligibleDay
	for _, r := range records {
		if !r.HasCallOutQualifyingTime {
			continue
		}
		schedule, err := schedules.Resolve(r.Date, r.EmployeeType)
		if err != nil {
			return nil, err
		}
		out = append(out, EligibleDay{
			WorkerID:        r.WorkerID,
			Date:            r.Date,
			QualifyingTimes: QualifyingStarts(r.Entries, schedule.CallOutWindow),
		})
	}
	return out, nil
}
