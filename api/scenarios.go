/*
scenarios.go - Demo scenarios for testing and demonstrations

PURPOSE:
  Provides pre-built worker-weeks that show the classification rules on
  realistic data. Loading a scenario stores its selections and classifies
  its days, exactly as a client would via PUT selections + POST classify.

AVAILABLE SCENARIOS:
  tiered-weekday:  14 hour weekday for a journeyman and an apprentice
  vacation-week:   Four long days and a vacation day meeting the weekly norm
  weekend-work:    Saturday day/night split and Sunday split at noon
  call-out:        Early start confirmed as a call-out, plus an ineligible one
  public-holiday:  Work on Ascension Day paid as Sunday

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "vacation-week"}

ADDING NEW SCENARIOS:
  Add an entry to 'scenarios' with its days and selections. Worker IDs are
  prefixed "demo-" so scenarios never touch real workers' selections.

SEE ALSO:
  - handlers.go: Classification flow shared with POST /api/classify
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenario struct {
	ScenarioDTO
	days       func() []overtime.RawDay
	selections func() overtime.Selections
}

func demoDay(worker overtime.WorkerID, employeeType overtime.EmployeeType, d generic.Date, spans ...string) overtime.RawDay {
	day := overtime.RawDay{WorkerID: worker, EmployeeType: employeeType, Date: d}
	for i := 0; i+1 < len(spans); i += 2 {
		day.Entries = append(day.Entries, overtime.RawEntry{
			CaseReference: "33511",
			ActivityLabel: "Arbejdskort",
			Start:         spans[i],
			End:           spans[i+1],
		})
	}
	return day
}

func march2026(day int) generic.Date { return generic.NewDate(2026, time.March, day) }

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "tiered-weekday",
			Name:        "Tiered Weekday",
			Description: "06:00-20:00 on a Wednesday: journeyman pays tier1/2/3, apprentice pays all overtime at tier1",
		},
		days: func() []overtime.RawDay {
			return []overtime.RawDay{
				demoDay("demo-svend", "svend", march2026(4), "06:00", "20:00"),
				demoDay("demo-laerling", "laerling", march2026(4), "06:00", "20:00"),
			}
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "vacation-week",
			Name:        "Vacation Week",
			Description: "Four 10 hour days and a vacation Wednesday credited with 7.4 hours",
		},
		days: func() []overtime.RawDay {
			var days []overtime.RawDay
			for _, d := range []int{9, 10, 12, 13} {
				days = append(days, demoDay("demo-vacation", "svend", march2026(d), "07:00", "17:00"))
			}
			return append(days, demoDay("demo-vacation", "svend", march2026(11)))
		},
		selections: func() overtime.Selections {
			sel := overtime.NewSelections()
			sel.SetAbsence("demo-vacation", march2026(11), overtime.AbsenceVacation)
			return sel
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "weekend-work",
			Name:        "Weekend Work",
			Description: "Saturday 14:00-20:00 split at 18:00, Sunday 10:00-14:00 split at noon",
		},
		days: func() []overtime.RawDay {
			return []overtime.RawDay{
				demoDay("demo-weekend", "svend", march2026(14), "14:00", "20:00"),
				demoDay("demo-weekend", "svend", march2026(15), "10:00", "14:00"),
			}
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "call-out",
			Name:        "Call-Out",
			Description: "05:00 start confirmed as a call-out; a confirmed day without qualifying time pays nothing",
		},
		days: func() []overtime.RawDay {
			return []overtime.RawDay{
				demoDay("demo-callout", "svend", march2026(9), "05:00", "13:00"),
				demoDay("demo-callout", "svend", march2026(10), "07:00", "15:00"),
			}
		},
		selections: func() overtime.Selections {
			sel := overtime.NewSelections()
			sel.SetCallOut("demo-callout", march2026(9), true)
			sel.SetCallOut("demo-callout", march2026(10), true)
			return sel
		},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "public-holiday",
			Name:        "Public Holiday",
			Description: "07:00-15:00 on Ascension Day 2026, paid on the Sunday branch",
		},
		days: func() []overtime.RawDay {
			return []overtime.RawDay{
				demoDay("demo-holiday", "svend", generic.NewDate(2026, time.May, 14), "07:00", "15:00"),
			}
		},
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadScenario stores a scenario's selections and classifies its days.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown scenario", fmt.Errorf("%q", req.ScenarioID))
		return
	}

	ctx := r.Context()
	if s.selections != nil {
		sel := s.selections()
		for worker, absences := range sel.Absences {
			if err := h.Store.SaveAbsences(ctx, worker, absences); err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to save scenario absences", err)
				return
			}
		}
		for worker, callOuts := range sel.CallOuts {
			if err := h.Store.SaveCallOuts(ctx, worker, callOuts); err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to save scenario call-outs", err)
				return
			}
		}
	}

	resp, err := h.run(ctx, overtime.Batch{Days: s.days()}, overtime.NewSelections())
	if err != nil {
		writeError(w, statusFor(err), "Failed to classify scenario", err)
		return
	}
	h.Logger.Info("scenario loaded", "scenario", s.ID, "run_id", resp.RunID)
	writeJSON(w, http.StatusOK, resp)
}
