/*
handlers.go - HTTP API handlers for the overtime classification engine

PURPOSE:
  Exposes the classification engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the engine.

ENDPOINTS:
  Schedules:
    GET    /api/schedules                 List registered rate schedules

  Classification:
    POST   /api/classify                  Classify worker-days (JSON)
    POST   /api/timesheets                Classify an uploaded timesheet (CSV)

  Selections:
    GET    /api/workers/{id}/absences     Stored absence selections
    PUT    /api/workers/{id}/absences     Upsert absence selections
    GET    /api/workers/{id}/callouts     Stored call-out selections
    PUT    /api/workers/{id}/callouts     Upsert call-out selections

  Runs:
    GET    /api/runs                      Recent classification runs

  Scenarios:
    GET    /api/scenarios                 List demo scenarios
    POST   /api/scenarios/load            Load and classify a demo scenario

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Load stored selections, overlay request selections
  4. Run the engine
  5. Record the run and serialize the response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed request or timesheet
  - 422: No rate schedule for an employee type or date
  - 500: Storage failures and internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenarios
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/timesheet"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is what the API needs from persistence.
type Store interface {
	overtime.SelectionStore
	overtime.RunLog
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     Store
	Schedules *overtime.Registry
	Engine    *overtime.Engine
	Logger    *slog.Logger

	// DefaultEmployeeType applies to uploaded timesheets that do not name one.
	DefaultEmployeeType overtime.EmployeeType
}

// NewHandler creates a new handler. A nil logger uses slog.Default.
func NewHandler(store Store, schedules *overtime.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:               store,
		Schedules:           schedules,
		Engine:              overtime.NewEngine(schedules, logger),
		Logger:              logger,
		DefaultEmployeeType: "svend",
	}
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// ListSchedules returns every registered edition in the file format.
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	editions := h.Schedules.Editions()
	docs := make([]factory.ScheduleDoc, len(editions))
	for i, s := range editions {
		docs[i] = factory.ToDoc(s)
	}
	writeJSON(w, http.StatusOK, docs)
}

// =============================================================================
// CLASSIFICATION HANDLERS
// =============================================================================

// Classify runs a JSON batch of worker-days.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Days) == 0 {
		writeError(w, http.StatusBadRequest, "No days to classify", nil)
		return
	}
	for i, d := range req.Days {
		if d.Date.IsZero() {
			writeError(w, http.StatusBadRequest, "Missing date", fmt.Errorf("day %d (worker %q) has no date", i, d.WorkerID))
			return
		}
	}

	override := overtime.NewSelections()
	for _, a := range req.Absences {
		absence, ok := overtime.ParseAbsenceType(a.Absence)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid absence type", fmt.Errorf("%q", a.Absence))
			return
		}
		override.SetAbsence(overtime.WorkerID(a.WorkerID), a.Date, absence)
	}
	for _, c := range req.CallOuts {
		override.SetCallOut(overtime.WorkerID(c.WorkerID), c.Date, c.Selected)
	}

	batch := overtime.Batch{Days: toRawDays(req.Days), FillMissingDays: req.FillMissingDays}
	resp, err := h.run(r.Context(), batch, override)
	if err != nil {
		writeError(w, statusFor(err), "Classification failed", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// UploadTimesheet classifies one timesheet file sent as the request body.
//
// Query parameters:
//
//	employee_type  schedule to apply (default: the handler's default)
//	fill           "false" disables filling unregistered weekdays
//	format         "csv" returns the payroll export instead of JSON
func (h *Handler) UploadTimesheet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	employeeType := h.DefaultEmployeeType
	if t := q.Get("employee_type"); t != "" {
		employeeType = overtime.EmployeeType(strings.ToLower(t))
	}

	sheet, err := timesheet.NewParser(employeeType).Parse(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid timesheet", err)
		return
	}

	batch := overtime.Batch{Days: sheet.Days, FillMissingDays: q.Get("fill") != "false"}
	res, runID, err := h.execute(r.Context(), batch, sheet.Selections(), true)
	if err != nil {
		writeError(w, statusFor(err), "Classification failed", err)
		return
	}

	if q.Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "overtime-"+runID+".csv"))
		w.WriteHeader(http.StatusOK)
		if err := timesheet.WriteCombined(w, res.Daily, res.Weekly); err != nil {
			h.Logger.Error("timesheet export failed", "run_id", runID, "error", err)
		}
		return
	}

	resp, err := NewClassifyResponse(runID, res, h.Schedules)
	if err != nil {
		writeError(w, statusFor(err), "Classification failed", err)
		return
	}
	for _, warn := range sheet.Warnings {
		resp.Warnings = append(resp.Warnings, warn.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

// run executes a batch with stored selections overlaid by override.
func (h *Handler) run(ctx context.Context, batch overtime.Batch, override overtime.Selections) (*ClassifyResponse, error) {
	res, runID, err := h.execute(ctx, batch, override, false)
	if err != nil {
		return nil, err
	}
	return NewClassifyResponse(runID, res, h.Schedules)
}

// execute loads stored selections for the batch's workers and runs it.
// With storedWins, stored selections override the given ones (explicit
// choices beat values detected from a file); otherwise the reverse.
func (h *Handler) execute(ctx context.Context, batch overtime.Batch, given overtime.Selections, storedWins bool) (*overtime.Result, string, error) {
	workers, period := batchScope(batch.Days)
	stored, err := h.Store.LoadSelections(ctx, workers, period)
	if err != nil {
		return nil, "", err
	}

	sel := overtime.NewSelections()
	if storedWins {
		sel.Merge(given)
		sel.Merge(stored)
	} else {
		sel.Merge(stored)
		sel.Merge(given)
	}
	batch.Selections = sel

	started := time.Now()
	res, err := h.Engine.Run(ctx, batch)
	if err != nil {
		return nil, "", err
	}

	summary := overtime.RunSummary{
		ID:        uuid.NewString(),
		StartedAt: started,
		Duration:  time.Since(started),
		Workers:   len(res.Workers),
		Days:      len(res.Daily),
		Failures:  len(res.Failures),
		Defects:   len(res.Defects),
	}
	if err := h.Store.RecordRun(ctx, summary); err != nil {
		h.Logger.Warn("failed to record run", "run_id", summary.ID, "error", err)
	}
	return res, summary.ID, nil
}

// NewClassifyResponse converts an engine result into the API response. The
// weekly norm status of each worker-week comes from the schedule of any
// day in it.
func NewClassifyResponse(runID string, res *overtime.Result, schedules overtime.ScheduleResolver) (*ClassifyResponse, error) {
	eligible, err := overtime.EligibleDays(res.Daily, schedules)
	if err != nil {
		return nil, err
	}

	resp := &ClassifyResponse{
		RunID:              runID,
		Daily:              make([]DailyRecordDTO, len(res.Daily)),
		Weekly:             make([]WeeklyRecordDTO, len(res.Weekly)),
		Failures:           toFailureDTOs(res.Failures),
		Defects:            toFailureDTOs(res.Defects),
		SkippedAbsences:    toFailureDTOs(res.SkippedAbsences),
		IneligibleCallOuts: toFailureDTOs(res.IneligibleCallOuts),
		EligibleCallOuts:   make([]EligibleCallOutDTO, len(eligible)),
		CallOutTotal:       res.CallOutTotal,
	}

	norms := make(map[string]decimal.Decimal)
	for i, d := range res.Daily {
		resp.Daily[i] = toDailyRecordDTO(d)
		key := weekKey(d.WorkerID, d.Date)
		if _, ok := norms[key]; ok {
			continue
		}
		if s, err := schedules.Resolve(d.Date, d.EmployeeType); err == nil {
			norms[key] = s.WeeklyNormHours
		}
	}
	for i, wk := range res.Weekly {
		monday := generic.DateOf(isoMonday(wk.ISOYear, wk.ISOWeek))
		resp.Weekly[i] = toWeeklyRecordDTO(wk, norms[weekKey(wk.WorkerID, monday)])
	}
	for i, e := range eligible {
		times := make([]string, len(e.QualifyingTimes))
		for j, c := range e.QualifyingTimes {
			times[j] = c.String()
		}
		resp.EligibleCallOuts[i] = EligibleCallOutDTO{WorkerID: string(e.WorkerID), Date: e.Date, QualifyingTimes: times}
	}
	return resp, nil
}

// =============================================================================
// SELECTION HANDLERS
// =============================================================================

// GetAbsences returns a worker's stored absences, optionally limited by
// the from/to query parameters.
func (h *Handler) GetAbsences(w http.ResponseWriter, r *http.Request) {
	worker := overtime.WorkerID(chi.URLParam(r, "id"))
	period, err := periodParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	sel, err := h.Store.LoadSelections(r.Context(), []overtime.WorkerID{worker}, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load absences", err)
		return
	}

	dto := AbsencesDTO{WorkerID: string(worker), Absences: make(map[string]string)}
	for d, a := range sel.Absences[worker] {
		dto.Absences[d.String()] = string(a)
	}
	writeJSON(w, http.StatusOK, dto)
}

// PutAbsences upserts absence selections given as {"2026-03-11": "Vacation"}.
// An empty value or "unset" removes the selection.
func (h *Handler) PutAbsences(w http.ResponseWriter, r *http.Request) {
	worker := overtime.WorkerID(chi.URLParam(r, "id"))

	var body map[generic.Date]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	absences := make(map[generic.Date]overtime.AbsenceType, len(body))
	for d, s := range body {
		a, ok := overtime.ParseAbsenceType(s)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid absence type", fmt.Errorf("%s: %q", d, s))
			return
		}
		absences[d] = a
	}

	if err := h.Store.SaveAbsences(r.Context(), worker, absences); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save absences", err)
		return
	}
	h.Logger.Info("absences saved", "worker", worker, "count", len(absences))
	h.GetAbsences(w, r)
}

// GetCallOuts returns a worker's confirmed call-out dates.
func (h *Handler) GetCallOuts(w http.ResponseWriter, r *http.Request) {
	worker := overtime.WorkerID(chi.URLParam(r, "id"))
	period, err := periodParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	sel, err := h.Store.LoadSelections(r.Context(), []overtime.WorkerID{worker}, period)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load call-outs", err)
		return
	}

	dates := make([]generic.Date, 0, len(sel.CallOuts[worker]))
	for d := range sel.CallOuts[worker] {
		dates = append(dates, d)
	}
	sortDates(dates)

	dto := CallOutsDTO{WorkerID: string(worker), CallOuts: make([]string, len(dates))}
	for i, d := range dates {
		dto.CallOuts[i] = d.String()
	}
	writeJSON(w, http.StatusOK, dto)
}

// PutCallOuts upserts call-out selections given as {"2026-03-09": true}.
func (h *Handler) PutCallOuts(w http.ResponseWriter, r *http.Request) {
	worker := overtime.WorkerID(chi.URLParam(r, "id"))

	var body map[generic.Date]bool
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Store.SaveCallOuts(r.Context(), worker, body); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save call-outs", err)
		return
	}
	h.Logger.Info("call-outs saved", "worker", worker, "count", len(body))
	h.GetCallOuts(w, r)
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// ListRuns returns recent classification runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}
	dtos := make([]RunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
		resp.Code = errorCode(err)
	}
	writeJSON(w, status, resp)
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case overtime.IsBatchFatal(err):
		return http.StatusUnprocessableEntity
	case overtime.IsInputError(err), errors.Is(err, timesheet.ErrEmptyTimesheet):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, overtime.ErrUnknownEmployeeType):
		return "unknown_employee_type"
	case errors.Is(err, overtime.ErrNoApplicableRateSchedule):
		return "no_applicable_rate_schedule"
	case errors.Is(err, timesheet.ErrEmptyTimesheet):
		return "empty_timesheet"
	case overtime.IsDefect(err):
		return "invariant_violation"
	}
	return ""
}

// batchScope returns the workers and date span of a batch.
func batchScope(days []overtime.RawDay) ([]overtime.WorkerID, generic.Period) {
	var (
		workers []overtime.WorkerID
		period  generic.Period
		seen    = make(map[overtime.WorkerID]bool)
	)
	for _, d := range days {
		if !seen[d.WorkerID] {
			seen[d.WorkerID] = true
			workers = append(workers, d.WorkerID)
		}
		if period.Start.IsZero() || d.Date.Before(period.Start) {
			period.Start = d.Date
		}
		if d.Date.After(period.End) {
			period.End = d.Date
		}
	}
	return workers, period
}

func periodParam(r *http.Request) (generic.Period, error) {
	var p generic.Period
	var err error
	q := r.URL.Query()
	if s := q.Get("from"); s != "" {
		if p.Start, err = generic.ParseDate(s); err != nil {
			return p, err
		}
	}
	if s := q.Get("to"); s != "" {
		if p.End, err = generic.ParseDate(s); err != nil {
			return p, err
		}
	}
	return p, p.Validate()
}

func weekKey(worker overtime.WorkerID, d generic.Date) string {
	year, week := d.ISOWeek()
	return fmt.Sprintf("%s|%d|%d", worker, year, week)
}

// isoMonday returns the Monday of an ISO week.
func isoMonday(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	return jan4.AddDate(0, 0, -offset+(week-1)*7)
}

func sortDates(dates []generic.Date) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
}
