/*
Package factory converts schedule documents into overtime.RateSchedule values.

PURPOSE:
  Rate schedules are agreement data. New editions are negotiated every
  couple of years, so they can be supplied as YAML or JSON files instead of
  code. The factory parses the document, applies defaults and validates the
  result.

DOCUMENT SCHEMA (YAML shown, JSON uses the same keys):
  schedules:
    - id: dbr-2026-svend
      name: DBR 2026 Svend
      employee_type: svend
      effective_from: 2026-03-01
      effective_to: 2027-02-28        # omit for open-ended
      weekly_norm_hours: 37
      daily_norm: 7h24m               # or "07:24"
      daily_norm_overrides: {friday: 7h}
      weekday_tiers:
        - {up_to: 2h, category: weekday_tier1}
        - {up_to: 4h, category: weekday_tier2}
        - {category: weekday_tier3}   # no up_to: unbounded
      day_night: {day_start: "06:00", night_start: "18:00"}
      sunday_split: "12:00"
      call_out: {before: "07:00", after: "15:30", amount: 750}
      absence_credit_hours: 7.4
      absence_credit_overrides: {}
      norm_window: {start: "07:00", end: "17:00"}
      rates: {weekday_tier1: 48.10, ...}
      currency: DKK
      holidays: dk                    # dk | none

  Tier thresholds count overtime hours past the daily norm.

USAGE:
  schedules, err := factory.ParseSchedules(data)
  registry, err := overtime.NewRegistry(schedules...)

SEE ALSO:
  - dbr/editions.go: the built-in editions in Go
  - overtime/schedule.go: RateSchedule and Validate
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/overtime-engine/dbr"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// Document is the root of a schedule file.
type Document struct {
	Schedules []ScheduleDoc `json:"schedules" yaml:"schedules"`
}

// ScheduleDoc is the file representation of one rate schedule.
type ScheduleDoc struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name,omitempty" yaml:"name,omitempty"`
	EmployeeType string `json:"employee_type" yaml:"employee_type"`
	From         string `json:"effective_from" yaml:"effective_from"`
	To           string `json:"effective_to,omitempty" yaml:"effective_to,omitempty"`

	WeeklyNormHours    Number            `json:"weekly_norm_hours,omitempty" yaml:"weekly_norm_hours,omitempty"`
	DailyNorm          string            `json:"daily_norm,omitempty" yaml:"daily_norm,omitempty"`
	DailyNormOverrides map[string]string `json:"daily_norm_overrides,omitempty" yaml:"daily_norm_overrides,omitempty"`

	WeekdayTiers []TierDoc    `json:"weekday_tiers,omitempty" yaml:"weekday_tiers,omitempty"`
	DayNight     *DayNightDoc `json:"day_night,omitempty" yaml:"day_night,omitempty"`
	SundaySplit  string       `json:"sunday_split,omitempty" yaml:"sunday_split,omitempty"`

	CallOut *CallOutDoc `json:"call_out,omitempty" yaml:"call_out,omitempty"`

	AbsenceCreditHours     Number            `json:"absence_credit_hours,omitempty" yaml:"absence_credit_hours,omitempty"`
	AbsenceCreditOverrides map[string]Number `json:"absence_credit_overrides,omitempty" yaml:"absence_credit_overrides,omitempty"`

	NormWindow *NormWindowDoc    `json:"norm_window,omitempty" yaml:"norm_window,omitempty"`
	Rates      map[string]Number `json:"rates" yaml:"rates"`
	Currency   string            `json:"currency,omitempty" yaml:"currency,omitempty"`
	Holidays   string            `json:"holidays,omitempty" yaml:"holidays,omitempty"`
}

// TierDoc is one weekday overtime tier. An empty UpTo is unbounded.
type TierDoc struct {
	UpTo     string `json:"up_to,omitempty" yaml:"up_to,omitempty"`
	Category string `json:"category" yaml:"category"`
}

type DayNightDoc struct {
	DayStart   string `json:"day_start" yaml:"day_start"`
	NightStart string `json:"night_start" yaml:"night_start"`
}

type CallOutDoc struct {
	Before string `json:"before" yaml:"before"`
	After  string `json:"after" yaml:"after"`
	Amount Number `json:"amount" yaml:"amount"`
}

type NormWindowDoc struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// Number is a decimal written either as a number or a string. It is kept
// as text until conversion so no precision is lost to float64.
type Number string

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	*n = Number(s)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if n == "" {
		return []byte("null"), nil
	}
	return []byte(n), nil
}

func (n *Number) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	*n = Number(node.Value)
	return nil
}

func (n Number) MarshalYAML() (any, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: string(n)}, nil
}

func (n Number) decimal(field string, def decimal.Decimal) (decimal.Decimal, error) {
	if n == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %q is not a number", field, string(n))
	}
	return d, nil
}

// =============================================================================
// PARSING
// =============================================================================

// ParseSchedules parses a YAML or JSON schedule document and validates
// every schedule. JSON is recognised by a leading '{'.
func ParseSchedules(data []byte) ([]*overtime.RateSchedule, error) {
	var doc Document
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse schedule JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse schedule YAML: %w", err)
		}
	}
	if len(doc.Schedules) == 0 {
		return nil, fmt.Errorf("%w: document has no schedules", overtime.ErrInvalidSchedule)
	}

	out := make([]*overtime.RateSchedule, 0, len(doc.Schedules))
	for _, sd := range doc.Schedules {
		s, err := FromDoc(sd)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// LoadFile reads and parses a schedule file.
func LoadFile(path string) ([]*overtime.RateSchedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedules: %w", err)
	}
	return ParseSchedules(data)
}

// LoadRegistry builds a registry from a schedule file, or from the built-in
// DBR editions when path is empty.
func LoadRegistry(path string) (*overtime.Registry, error) {
	if path == "" {
		return dbr.NewRegistry()
	}
	schedules, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return overtime.NewRegistry(schedules...)
}

// FromDoc converts one schedule document, filling DBR defaults for
// omitted terms, and validates it.
func FromDoc(sd ScheduleDoc) (*overtime.RateSchedule, error) {
	wrap := func(err error) error {
		return fmt.Errorf("%w: %s: %v", overtime.ErrInvalidSchedule, sd.ID, err)
	}

	effective, err := parsePeriod(sd.From, sd.To)
	if err != nil {
		return nil, wrap(err)
	}

	employeeType := overtime.EmployeeType(sd.EmployeeType)
	if et, ok := dbr.ParseEmployeeType(sd.EmployeeType); ok {
		employeeType = et
	}

	// Start from the DBR terms; every field in the document overrides.
	base := dbr.Schedule(dbr.Edition{}, employeeType)
	s := &overtime.RateSchedule{
		ID:           sd.ID,
		Name:         sd.Name,
		EmployeeType: employeeType,
		Effective:    effective,

		DayNight:      base.DayNight,
		SundaySplit:   base.SundaySplit,
		CallOutWindow: base.CallOutWindow,
		NormWindow:    base.NormWindow,
		Rates:         make(map[overtime.Category]decimal.Decimal),
		Currency:      sd.Currency,
	}
	if s.Name == "" {
		s.Name = sd.ID
	}
	if s.Currency == "" {
		s.Currency = dbr.Currency
	}

	if s.WeeklyNormHours, err = sd.WeeklyNormHours.decimal("weekly_norm_hours", base.WeeklyNormHours); err != nil {
		return nil, wrap(err)
	}
	if s.DailyNorm, err = parseLength(sd.DailyNorm, base.DailyNorm); err != nil {
		return nil, wrap(fmt.Errorf("daily_norm: %v", err))
	}
	if len(sd.DailyNormOverrides) > 0 {
		s.DailyNormOverrides = make(map[time.Weekday]time.Duration, len(sd.DailyNormOverrides))
		for day, v := range sd.DailyNormOverrides {
			wd, ok := overtime.ParseWeekday(day)
			if !ok {
				return nil, wrap(fmt.Errorf("daily_norm_overrides: unknown weekday %q", day))
			}
			if s.DailyNormOverrides[wd], err = parseLength(v, 0); err != nil {
				return nil, wrap(fmt.Errorf("daily_norm_overrides.%s: %v", day, err))
			}
		}
	}

	if s.WeekdayTiers, err = parseTiers(sd.WeekdayTiers, base.WeekdayTiers); err != nil {
		return nil, wrap(err)
	}

	if sd.DayNight != nil {
		if s.DayNight.DayStart, err = generic.ParseClock(sd.DayNight.DayStart); err != nil {
			return nil, wrap(err)
		}
		if s.DayNight.NightStart, err = generic.ParseClock(sd.DayNight.NightStart); err != nil {
			return nil, wrap(err)
		}
	}
	if sd.SundaySplit != "" {
		if s.SundaySplit, err = generic.ParseClock(sd.SundaySplit); err != nil {
			return nil, wrap(err)
		}
	}

	s.CallOutAmount = base.CallOutAmount
	if sd.CallOut != nil {
		if s.CallOutWindow.Before, err = generic.ParseClock(sd.CallOut.Before); err != nil {
			return nil, wrap(err)
		}
		if s.CallOutWindow.After, err = generic.ParseClock(sd.CallOut.After); err != nil {
			return nil, wrap(err)
		}
		if s.CallOutAmount, err = sd.CallOut.Amount.decimal("call_out.amount", base.CallOutAmount); err != nil {
			return nil, wrap(err)
		}
	}

	if s.AbsenceCreditHours, err = sd.AbsenceCreditHours.decimal("absence_credit_hours", base.AbsenceCreditHours); err != nil {
		return nil, wrap(err)
	}
	if len(sd.AbsenceCreditOverrides) > 0 {
		s.AbsenceCreditOverrides = make(map[time.Weekday]decimal.Decimal, len(sd.AbsenceCreditOverrides))
		for day, v := range sd.AbsenceCreditOverrides {
			wd, ok := overtime.ParseWeekday(day)
			if !ok {
				return nil, wrap(fmt.Errorf("absence_credit_overrides: unknown weekday %q", day))
			}
			if s.AbsenceCreditOverrides[wd], err = v.decimal("absence_credit_overrides."+day, decimal.Zero); err != nil {
				return nil, wrap(err)
			}
		}
	}

	if sd.NormWindow != nil {
		if s.NormWindow.Start, err = generic.ParseClock(sd.NormWindow.Start); err != nil {
			return nil, wrap(err)
		}
		if s.NormWindow.End, err = generic.ParseClock(sd.NormWindow.End); err != nil {
			return nil, wrap(err)
		}
	}

	for name, v := range sd.Rates {
		rate, err := v.decimal("rates."+name, decimal.Zero)
		if err != nil {
			return nil, wrap(err)
		}
		s.Rates[overtime.Category(name)] = rate
	}

	switch strings.ToLower(sd.Holidays) {
	case "", "dk", "denmark":
		s.Holidays = dbr.Calendar{}
	case "none":
		s.Holidays = generic.NoHolidays{}
	default:
		return nil, wrap(fmt.Errorf("unknown holiday calendar %q", sd.Holidays))
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func parsePeriod(from, to string) (generic.Period, error) {
	var p generic.Period
	var err error
	if p.Start, err = generic.ParseDate(from); err != nil {
		return p, fmt.Errorf("effective_from: %w", err)
	}
	if to != "" {
		if p.End, err = generic.ParseDate(to); err != nil {
			return p, fmt.Errorf("effective_to: %w", err)
		}
	}
	return p, p.Validate()
}

// parseLength accepts Go durations ("7h24m") and clock notation ("07:24").
func parseLength(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	c, err := generic.ParseClock(s)
	if err != nil {
		return 0, fmt.Errorf("%q is neither a duration nor HH:MM", s)
	}
	return c.Duration(), nil
}

func parseTiers(docs []TierDoc, def []generic.Band[overtime.Category]) ([]generic.Band[overtime.Category], error) {
	if len(docs) == 0 {
		return def, nil
	}
	tiers := make([]generic.Band[overtime.Category], 0, len(docs))
	for i, td := range docs {
		upTo := generic.Unbounded
		if td.UpTo != "" {
			d, err := parseLength(td.UpTo, 0)
			if err != nil {
				return nil, fmt.Errorf("weekday_tiers[%d].up_to: %v", i, err)
			}
			upTo = d
		}
		tiers = append(tiers, generic.Band[overtime.Category]{UpTo: upTo, Category: overtime.Category(td.Category)})
	}
	return tiers, nil
}

// =============================================================================
// MARSHALING
// =============================================================================

// ToDoc converts a schedule back to its document form.
func ToDoc(s *overtime.RateSchedule) ScheduleDoc {
	sd := ScheduleDoc{
		ID:              s.ID,
		Name:            s.Name,
		EmployeeType:    string(s.EmployeeType),
		From:            s.Effective.Start.String(),
		WeeklyNormHours: Number(s.WeeklyNormHours.String()),
		DailyNorm:       s.DailyNorm.String(),
		DayNight: &DayNightDoc{
			DayStart:   s.DayNight.DayStart.String(),
			NightStart: s.DayNight.NightStart.String(),
		},
		SundaySplit: s.SundaySplit.String(),
		CallOut: &CallOutDoc{
			Before: s.CallOutWindow.Before.String(),
			After:  s.CallOutWindow.After.String(),
			Amount: Number(s.CallOutAmount.String()),
		},
		AbsenceCreditHours: Number(s.AbsenceCreditHours.String()),
		NormWindow: &NormWindowDoc{
			Start: s.NormWindow.Start.String(),
			End:   s.NormWindow.End.String(),
		},
		Rates:    make(map[string]Number, len(s.Rates)),
		Currency: s.Currency,
		Holidays: "none",
	}
	if !s.Effective.IsOpen() {
		sd.To = s.Effective.End.String()
	}
	if len(s.DailyNormOverrides) > 0 {
		sd.DailyNormOverrides = make(map[string]string, len(s.DailyNormOverrides))
		for wd, d := range s.DailyNormOverrides {
			sd.DailyNormOverrides[strings.ToLower(wd.String())] = d.String()
		}
	}
	if len(s.AbsenceCreditOverrides) > 0 {
		sd.AbsenceCreditOverrides = make(map[string]Number, len(s.AbsenceCreditOverrides))
		for wd, h := range s.AbsenceCreditOverrides {
			sd.AbsenceCreditOverrides[strings.ToLower(wd.String())] = Number(h.String())
		}
	}
	for _, t := range s.WeekdayTiers {
		td := TierDoc{Category: string(t.Category)}
		if t.UpTo != generic.Unbounded {
			td.UpTo = t.UpTo.String()
		}
		sd.WeekdayTiers = append(sd.WeekdayTiers, td)
	}
	for c, r := range s.Rates {
		sd.Rates[string(c)] = Number(r.StringFixed(2))
	}
	if _, ok := s.Holidays.(dbr.Calendar); ok {
		sd.Holidays = "dk"
	}
	return sd
}

// MarshalSchedules renders schedules as a YAML document ordered by
// employee type, then effective start.
func MarshalSchedules(schedules []*overtime.RateSchedule) ([]byte, error) {
	sorted := append([]*overtime.RateSchedule(nil), schedules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].EmployeeType != sorted[j].EmployeeType {
			return sorted[i].EmployeeType < sorted[j].EmployeeType
		}
		return sorted[i].Effective.Start.Before(sorted[j].Effective.Start)
	})
	doc := Document{Schedules: make([]ScheduleDoc, 0, len(sorted))}
	for _, s := range sorted {
		doc.Schedules = append(doc.Schedules, ToDoc(s))
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode schedules: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
