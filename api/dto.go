/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's records from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

NUMBERS:
  Hours and money are decimal.Decimal, which marshal as JSON strings
  ("7.4", "750"). Clients must not round-trip them through floats.

DATES:
  ISO "2006-01-02". The Danish "02-01-2006" is accepted on input.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/schedule.go: ScheduleDoc, the schedule wire format
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// CLASSIFY
// =============================================================================

// EntryDTO is one registered interval of work.
type EntryDTO struct {
	CaseReference string `json:"case_reference,omitempty"`
	Activity      string `json:"activity,omitempty"`
	Start         string `json:"start"`
	End           string `json:"end"`
}

// DayDTO is one worker-day of raw entries.
type DayDTO struct {
	WorkerID     string       `json:"worker_id"`
	EmployeeType string       `json:"employee_type"`
	Date         generic.Date `json:"date"`
	Entries      []EntryDTO   `json:"entries"`
}

// AbsenceSelectionDTO selects an absence for one worker-day.
type AbsenceSelectionDTO struct {
	WorkerID string       `json:"worker_id"`
	Date     generic.Date `json:"date"`
	Absence  string       `json:"absence"`
}

// CallOutSelectionDTO confirms (or withdraws) a call-out for one worker-day.
type CallOutSelectionDTO struct {
	WorkerID string       `json:"worker_id"`
	Date     generic.Date `json:"date"`
	Selected bool         `json:"selected"`
}

// ClassifyRequest is the body of POST /api/classify. Selections given here
// take precedence over stored ones for the same worker-day.
type ClassifyRequest struct {
	Days            []DayDTO              `json:"days"`
	FillMissingDays bool                  `json:"fill_missing_days,omitempty"`
	Absences        []AbsenceSelectionDTO `json:"absences,omitempty"`
	CallOuts        []CallOutSelectionDTO `json:"call_outs,omitempty"`
}

// OvertimeDTO is an overtime breakdown plus the legacy three-column rollup.
type OvertimeDTO struct {
	WeekdayTier1      decimal.Decimal `json:"weekday_tier1"`
	WeekdayTier2      decimal.Decimal `json:"weekday_tier2"`
	WeekdayTier3      decimal.Decimal `json:"weekday_tier3"`
	SaturdayDay       decimal.Decimal `json:"saturday_day"`
	SaturdayNight     decimal.Decimal `json:"saturday_night"`
	SundayBeforeSplit decimal.Decimal `json:"sunday_before_split"`
	SundayAfterSplit  decimal.Decimal `json:"sunday_after_split"`

	OT1 decimal.Decimal `json:"ot1"`
	OT2 decimal.Decimal `json:"ot2"`
	OT3 decimal.Decimal `json:"ot3"`
}

// DailyRecordDTO is one classified worker-day.
type DailyRecordDTO struct {
	WorkerID     string       `json:"worker_id"`
	EmployeeType string       `json:"employee_type"`
	ScheduleID   string       `json:"schedule_id"`
	Date         generic.Date `json:"date"`
	Weekday      string       `json:"weekday"`
	DayType      string       `json:"day_type"`
	Holiday      bool         `json:"holiday,omitempty"`

	TotalHours             decimal.Decimal `json:"total_hours"`
	NormalHours            decimal.Decimal `json:"normal_hours"`
	Overtime               OvertimeDTO     `json:"overtime"`
	HoursInNormWindow      decimal.Decimal `json:"hours_in_norm_window"`
	HoursOutsideNormWindow decimal.Decimal `json:"hours_outside_norm_window"`
	OvertimePremium        decimal.Decimal `json:"overtime_premium"`

	HasCallOutQualifyingTime bool            `json:"has_call_out_qualifying_time"`
	CallOutApplied           bool            `json:"call_out_applied"`
	CallOutPayment           decimal.Decimal `json:"call_out_payment"`

	AbsenceType   string          `json:"absence_type,omitempty"`
	CreditedHours decimal.Decimal `json:"credited_hours"`

	Entries []EntryDTO `json:"entries"`
}

// WeeklyRecordDTO is the ISO-week rollup of one worker.
type WeeklyRecordDTO struct {
	WorkerID        string          `json:"worker_id"`
	Week            string          `json:"week"`
	ISOYear         int             `json:"iso_year"`
	ISOWeek         int             `json:"iso_week"`
	Days            int             `json:"days"`
	WorkedHours     decimal.Decimal `json:"worked_hours"`
	CreditedHours   decimal.Decimal `json:"credited_hours"`
	TotalHours      decimal.Decimal `json:"total_hours"`
	NormalHours     decimal.Decimal `json:"normal_hours"`
	Overtime        OvertimeDTO     `json:"overtime"`
	OvertimePremium decimal.Decimal `json:"overtime_premium"`
	CallOutPayments decimal.Decimal `json:"call_out_payments"`
	NormStatus      string          `json:"norm_status,omitempty"`
}

// FailureDTO names a worker-day that was rejected or flagged.
type FailureDTO struct {
	WorkerID string       `json:"worker_id"`
	Date     generic.Date `json:"date"`
	Error    string       `json:"error"`
}

// EligibleCallOutDTO is a day the worker may confirm as a call-out.
type EligibleCallOutDTO struct {
	WorkerID        string       `json:"worker_id"`
	Date            generic.Date `json:"date"`
	QualifyingTimes []string     `json:"qualifying_times"`
}

// ClassifyResponse is the result of a classification run.
type ClassifyResponse struct {
	RunID              string               `json:"run_id"`
	Daily              []DailyRecordDTO     `json:"daily"`
	Weekly             []WeeklyRecordDTO    `json:"weekly"`
	Failures           []FailureDTO         `json:"failures"`
	Defects            []FailureDTO         `json:"defects"`
	SkippedAbsences    []FailureDTO         `json:"skipped_absences"`
	IneligibleCallOuts []FailureDTO         `json:"ineligible_call_outs"`
	EligibleCallOuts   []EligibleCallOutDTO `json:"eligible_call_outs"`
	CallOutTotal       decimal.Decimal      `json:"call_out_total"`
	Warnings           []string             `json:"warnings,omitempty"`
}

// =============================================================================
// SELECTIONS
// =============================================================================

// AbsencesDTO is a worker's absence selections keyed by ISO date.
type AbsencesDTO struct {
	WorkerID string            `json:"worker_id"`
	Absences map[string]string `json:"absences"`
}

// CallOutsDTO is a worker's confirmed call-out dates.
type CallOutsDTO struct {
	WorkerID string   `json:"worker_id"`
	CallOuts []string `json:"call_outs"`
}

// =============================================================================
// RUNS / SCENARIOS / ERRORS
// =============================================================================

// RunDTO summarises one classification run.
type RunDTO struct {
	ID         string `json:"id"`
	StartedAt  string `json:"started_at"`
	DurationMS int64  `json:"duration_ms"`
	Workers    int    `json:"workers"`
	Days       int    `json:"days"`
	Failures   int    `json:"failures"`
	Defects    int    `json:"defects"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toRawDays(days []DayDTO) []overtime.RawDay {
	out := make([]overtime.RawDay, len(days))
	for i, d := range days {
		entries := make([]overtime.RawEntry, len(d.Entries))
		for j, e := range d.Entries {
			entries[j] = overtime.RawEntry{
				CaseReference: e.CaseReference,
				ActivityLabel: e.Activity,
				Start:         e.Start,
				End:           e.End,
			}
		}
		out[i] = overtime.RawDay{
			WorkerID:     overtime.WorkerID(d.WorkerID),
			EmployeeType: overtime.EmployeeType(d.EmployeeType),
			Date:         d.Date,
			Entries:      entries,
		}
	}
	return out
}

func toOvertimeDTO(b overtime.OvertimeBreakdown) OvertimeDTO {
	ot1, ot2, ot3 := b.Legacy()
	return OvertimeDTO{
		WeekdayTier1:      b.WeekdayTier1,
		WeekdayTier2:      b.WeekdayTier2,
		WeekdayTier3:      b.WeekdayTier3,
		SaturdayDay:       b.SaturdayDay,
		SaturdayNight:     b.SaturdayNight,
		SundayBeforeSplit: b.SundayBeforeSplit,
		SundayAfterSplit:  b.SundayAfterSplit,
		OT1:               ot1,
		OT2:               ot2,
		OT3:               ot3,
	}
}

func toDailyRecordDTO(r overtime.DailyRecord) DailyRecordDTO {
	entries := make([]EntryDTO, len(r.Entries))
	for i, e := range r.Entries {
		entries[i] = EntryDTO{
			CaseReference: e.CaseReference,
			Activity:      e.ActivityLabel,
			Start:         e.Start.Format("15:04"),
			End:           e.End.Format("15:04"),
		}
		if generic.DateOf(e.End) != r.Date {
			entries[i].End = "24:00"
		}
	}
	return DailyRecordDTO{
		WorkerID:                 string(r.WorkerID),
		EmployeeType:             string(r.EmployeeType),
		ScheduleID:               r.ScheduleID,
		Date:                     r.Date,
		Weekday:                  r.Weekday.String(),
		DayType:                  string(r.DayType),
		Holiday:                  r.Holiday,
		TotalHours:               r.TotalHours,
		NormalHours:              r.NormalHours,
		Overtime:                 toOvertimeDTO(r.Overtime),
		HoursInNormWindow:        r.HoursInNormWindow,
		HoursOutsideNormWindow:   r.HoursOutsideNormWindow,
		OvertimePremium:          r.OvertimePremium,
		HasCallOutQualifyingTime: r.HasCallOutQualifyingTime,
		CallOutApplied:           r.CallOutApplied,
		CallOutPayment:           r.CallOutPayment,
		AbsenceType:              string(r.AbsenceType),
		CreditedHours:            r.CreditedHours,
		Entries:                  entries,
	}
}

func toWeeklyRecordDTO(w overtime.WeeklyRecord, norm decimal.Decimal) WeeklyRecordDTO {
	dto := WeeklyRecordDTO{
		WorkerID:        string(w.WorkerID),
		Week:            w.Label(),
		ISOYear:         w.ISOYear,
		ISOWeek:         w.ISOWeek,
		Days:            w.Days,
		WorkedHours:     w.WorkedHours,
		CreditedHours:   w.CreditedHours,
		TotalHours:      w.TotalHours,
		NormalHours:     w.NormalHours,
		Overtime:        toOvertimeDTO(w.Overtime),
		OvertimePremium: w.OvertimePremium,
		CallOutPayments: w.CallOutPayments,
	}
	if norm.IsPositive() {
		dto.NormStatus = string(w.NormStatus(norm))
	}
	return dto
}

func toFailureDTOs(failures []overtime.DayFailure) []FailureDTO {
	out := make([]FailureDTO, len(failures))
	for i, f := range failures {
		out[i] = FailureDTO{WorkerID: string(f.WorkerID), Date: f.Date, Error: f.Err.Error()}
	}
	return out
}

func toRunDTO(r overtime.RunSummary) RunDTO {
	return RunDTO{
		ID:         r.ID,
		StartedAt:  r.StartedAt.UTC().Format(time.RFC3339),
		DurationMS: r.Duration.Milliseconds(),
		Workers:    r.Workers,
		Days:       r.Days,
		Failures:   r.Failures,
		Defects:    r.Defects,
	}
}
