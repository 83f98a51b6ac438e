/*
Package timesheet reads and writes the Danish time-registration CSV format.

INPUT FORMAT (';'-separated, UTF-8 or Windows-1252):
  Tidsregistrering;;;;;
  Jens Jensen;;;;;
  Mandag 12-01-2026;;;;;
  Aktivitet:;Start tid:;;Slut tid:;Total tid:
  Arbejdskort Sag Nr. 33511;07:00;-;15:00;8 Timer 0 Minutter
  Aktivitet: Ferie;07:00;-;14:24;7 Timer 24 Minutter
  Total tid for dagen:;;;;15 Timer 24 Minutter
  ...
  Total tid i alt:;;;;...

  Line 1 is the title, line 2 holds the worker name. Each day starts with
  a Danish weekday header. Column headers, totals and page footers are
  skipped.

ABSENCE ROWS:
  Rows whose activity names an absence ("Ferie", "Syg", "Helligdag"...)
  become absence selections for that day instead of worked entries.

OUTPUT:
  WriteDaily / WriteWeekly produce the ';'-separated payroll export with
  two-decimal hours and the legacy Overtid1/2/3 columns.
*/
package timesheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/warp/overtime-engine/dbr"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrEmptyTimesheet is returned when the file has no worker line.
	ErrEmptyTimesheet = errors.New("timesheet has no worker")
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// Sheet is one parsed timesheet.
type Sheet struct {
	Worker   overtime.WorkerID
	Days     []overtime.RawDay
	Absences map[generic.Date]overtime.AbsenceType
	Warnings []Warning
}

// Warning describes a row that looked like an entry but was not used.
type Warning struct {
	Line   int
	Text   string
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s (%s)", w.Line, w.Reason, w.Text)
}

// Selections returns the sheet's absences in batch form.
func (s *Sheet) Selections() overtime.Selections {
	sel := overtime.NewSelections()
	for d, a := range s.Absences {
		sel.SetAbsence(s.Worker, d, a)
	}
	return sel
}

// =============================================================================
// PARSER
// =============================================================================

// Parser converts timesheet files into raw worker-days.
type Parser struct {
	EmployeeType overtime.EmployeeType

	// DetectAbsence classifies activity labels. Defaults to dbr.DetectAbsence.
	DetectAbsence func(activity string) (overtime.AbsenceType, bool)
}

// NewParser creates a parser for workers of one employee type.
func NewParser(employeeType overtime.EmployeeType) *Parser {
	return &Parser{EmployeeType: employeeType, DetectAbsence: dbr.DetectAbsence}
}

var (
	dayHeaderPattern = regexp.MustCompile(`^(mandag|tirsdag|onsdag|torsdag|fredag|lørdag|søndag)\b.*?(\d{2}-\d{2}-\d{4})`)
	durationPattern  = regexp.MustCompile(`(?i)(\d+)\s*timer\s*(\d+)\s*minutter`)
	casePattern      = regexp.MustCompile(`(?i)arbejdskort\s+sag\s+nr\.\s*(\d+)`)
	activityPattern  = regexp.MustCompile(`(?i)aktivitet:\s*(.+)`)
)

// Parse reads one timesheet. Encoding is detected: valid UTF-8 is used as
// is, anything else is decoded as Windows-1252.
func (p *Parser) Parse(r io.Reader) (*Sheet, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read timesheet: %w", err)
	}
	text, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read timesheet rows: %w", err)
	}
	if len(rows) < 2 || strings.TrimSpace(rows[1][0]) == "" {
		return nil, ErrEmptyTimesheet
	}

	sheet := &Sheet{
		Worker:   overtime.WorkerID(strings.TrimSpace(rows[1][0])),
		Absences: make(map[generic.Date]overtime.AbsenceType),
	}

	var current *overtime.RawDay
	flush := func() {
		if current == nil {
			return
		}
		_, absent := sheet.Absences[current.Date]
		if len(current.Entries) > 0 || absent {
			sheet.Days = append(sheet.Days, *current)
		}
		current = nil
	}

	for i, row := range rows[2:] {
		line := i + 3
		first := strings.TrimSpace(row[0])
		joined := strings.ToLower(strings.Join(row, ";"))

		switch {
		case isBlank(row):
			continue
		case dayHeaderPattern.MatchString(strings.ToLower(first)):
			flush()
			date, err := parseDayHeader(first)
			if err != nil {
				sheet.Warnings = append(sheet.Warnings, Warning{Line: line, Text: first, Reason: err.Error()})
				continue
			}
			current = &overtime.RawDay{WorkerID: sheet.Worker, EmployeeType: p.EmployeeType, Date: date}
			continue
		case strings.Contains(joined, "aktivitet:") && strings.Contains(joined, "start tid:"),
			strings.Contains(joined, "total tid for dagen:"),
			strings.Contains(joined, "total tid i alt:"),
			strings.Contains(joined, "fordelt p"),
			strings.HasSuffix(strings.TrimRight(joined, "; "), "1/1"):
			continue
		}

		if len(row) < 5 || first == "" {
			continue
		}
		if current == nil {
			sheet.Warnings = append(sheet.Warnings, Warning{Line: line, Text: first, Reason: "entry before first day header"})
			continue
		}

		entry, reason := parseEntryRow(row)
		if reason != "" {
			sheet.Warnings = append(sheet.Warnings, Warning{Line: line, Text: first, Reason: reason})
			continue
		}
		if p.DetectAbsence != nil {
			if absence, ok := p.DetectAbsence(entry.ActivityLabel); ok {
				sheet.Absences[current.Date] = absence
				continue
			}
		}
		current.Entries = append(current.Entries, entry)
	}
	flush()
	return sheet, nil
}

// Decode returns the file as UTF-8 text without a byte order mark.
func Decode(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode timesheet: %w", err)
	}
	return string(decoded), nil
}

func isBlank(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseDayHeader(header string) (generic.Date, error) {
	m := dayHeaderPattern.FindStringSubmatch(strings.ToLower(header))
	if m == nil {
		return generic.Date{}, fmt.Errorf("not a day header")
	}
	return generic.ParseDate(m[2])
}

// parseEntryRow reads activity;start;-;end;duration. A non-empty reason
// means the row was rejected.
func parseEntryRow(row []string) (overtime.RawEntry, string) {
	activity := strings.TrimSpace(row[0])
	start := strings.TrimSpace(row[1])
	end := strings.TrimSpace(row[3])

	if _, err := generic.ParseClock(start); err != nil {
		return overtime.RawEntry{}, "invalid start time"
	}
	if _, err := generic.ParseClock(end); err != nil {
		return overtime.RawEntry{}, "invalid end time"
	}
	if d, ok := ParseDuration(row[4]); !ok || d <= 0 {
		return overtime.RawEntry{}, "missing duration"
	}

	entry := overtime.RawEntry{Start: start, End: end, ActivityLabel: activity}
	if m := casePattern.FindStringSubmatch(activity); m != nil {
		entry.ActivityLabel = "Arbejdskort"
		entry.CaseReference = m[1]
	} else if m := activityPattern.FindStringSubmatch(activity); m != nil {
		entry.ActivityLabel = strings.TrimSpace(m[1])
	}
	return entry, ""
}

// ParseDuration reads "X Timer Y Minutter".
func ParseDuration(s string) (time.Duration, bool) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	return time.Duration(h)*time.Hour + time.Duration(minutes)*time.Minute, true
}
