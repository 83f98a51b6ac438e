package timesheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/dbr"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
	"golang.org/x/text/encoding/charmap"
)

const sample = `Tidsregistrering;;;;;
Jens Jensen;;;;;
Mandag 09-03-2026;;;;;
Aktivitet:;Start tid:;;Slut tid:;Total tid:
Arbejdskort Sag Nr. 33511;07:00;-;12:00;5 Timer 0 Minutter
Aktivitet: Oprydning;12:30;-;17:30;5 Timer 0 Minutter
Total tid for dagen:;;;;10 Timer 0 Minutter
;;;;;
Tirsdag 10-03-2026;;;;;
Aktivitet:;Start tid:;;Slut tid:;Total tid:
Aktivitet: Ferie;07:00;-;14:24;7 Timer 24 Minutter
Total tid for dagen:;;;;7 Timer 24 Minutter
Onsdag 11-03-2026;;;;;
Arbejdskort Sag Nr. 40001;05:30;-;13:00;7 Timer 30 Minutter
Arbejdskort Sag Nr. 40001;xx:yy;-;13:00;7 Timer 30 Minutter
Lørdag 14-03-2026;;;;;
Arbejdskort Sag Nr. 40001;14:00;-;20:00;6 Timer 0 Minutter
Total tid i alt:;;;;36 Timer 24 Minutter
Timer fordelt pr. sag;;;;;
Side 1/1;;;;;
`

func TestParse_Sample(t *testing.T) {
	// GIVEN a timesheet with work, an absence row and a bad row
	p := NewParser(dbr.Svend)

	// WHEN parsed
	sheet, err := p.Parse(strings.NewReader(sample))
	require.NoError(t, err)

	// THEN worked days become raw days and the absence becomes a selection
	assert.Equal(t, overtime.WorkerID("Jens Jensen"), sheet.Worker)
	require.Len(t, sheet.Days, 4)

	monday := sheet.Days[0]
	assert.Equal(t, generic.NewDate(2026, time.March, 9), monday.Date)
	assert.Equal(t, dbr.Svend, monday.EmployeeType)
	require.Len(t, monday.Entries, 2)
	assert.Equal(t, "33511", monday.Entries[0].CaseReference)
	assert.Equal(t, "Arbejdskort", monday.Entries[0].ActivityLabel)
	assert.Equal(t, "Oprydning", monday.Entries[1].ActivityLabel)
	assert.Equal(t, "12:30", monday.Entries[1].Start)

	tuesday := sheet.Days[1]
	assert.Empty(t, tuesday.Entries)
	assert.Equal(t, overtime.AbsenceVacation, sheet.Absences[tuesday.Date])

	assert.Len(t, sheet.Days[2].Entries, 1)
	assert.Equal(t, time.Saturday, sheet.Days[3].Date.Weekday())

	require.Len(t, sheet.Warnings, 1)
	assert.Equal(t, "invalid start time", sheet.Warnings[0].Reason)
	assert.Equal(t, 15, sheet.Warnings[0].Line)
}

func TestParse_Windows1252(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String(sample)
	require.NoError(t, err)

	sheet, err := NewParser(dbr.Svend).Parse(strings.NewReader(encoded))
	require.NoError(t, err)

	// The Saturday header only parses if "ø" decoded correctly.
	require.Len(t, sheet.Days, 4)
	assert.Equal(t, time.Saturday, sheet.Days[3].Date.Weekday())
}

func TestParse_Empty(t *testing.T) {
	_, err := NewParser(dbr.Svend).Parse(strings.NewReader("Tidsregistrering\n"))
	assert.ErrorIs(t, err, ErrEmptyTimesheet)
}

func TestParseDuration(t *testing.T) {
	d, ok := ParseDuration("1 Timer 30 Minutter")
	assert.True(t, ok)
	assert.Equal(t, 90*time.Minute, d)

	d, ok = ParseDuration("0 timer 45 minutter")
	assert.True(t, ok)
	assert.Equal(t, 45*time.Minute, d)

	_, ok = ParseDuration("")
	assert.False(t, ok)
}

func TestParseAndExport_EndToEnd(t *testing.T) {
	// GIVEN a parsed timesheet run through the engine
	sheet, err := NewParser(dbr.Svend).Parse(strings.NewReader(sample))
	require.NoError(t, err)
	registry, err := dbr.NewRegistry()
	require.NoError(t, err)

	engine := overtime.NewEngine(registry, nil)
	sel := sheet.Selections()
	sel.SetCallOut(sheet.Worker, generic.NewDate(2026, time.March, 11), true)
	res, err := engine.Run(context.Background(), overtime.Batch{Days: sheet.Days, Selections: sel, FillMissingDays: true})
	require.NoError(t, err)

	// WHEN exported
	var buf bytes.Buffer
	require.NoError(t, WriteDaily(&buf, res.Daily, res.Weekly))

	// THEN every day of the range has a row with the expected figures
	rows, err := readRows(buf.String())
	require.NoError(t, err)
	assert.Equal(t, DailyColumns, rows[0])

	byDate := make(map[string][]string)
	for _, row := range rows[1:] {
		byDate[row[1]] = row
	}
	// Monday to Friday plus the registered Saturday.
	assert.Len(t, byDate, 6)

	monday := byDate["09-03-2026"]
	assert.Equal(t, "10.00", monday[4])
	assert.Equal(t, "7.40", monday[9])
	assert.Equal(t, "2.00", monday[10])
	assert.Equal(t, "0.60", monday[11])
	assert.Equal(t, "11", monday[7])

	tuesday := byDate["10-03-2026"]
	assert.Equal(t, "Vacation", tuesday[14])
	assert.Equal(t, "7.40", tuesday[15])

	wednesday := byDate["11-03-2026"]
	assert.Equal(t, "750.00", wednesday[13])

	saturday := byDate["14-03-2026"]
	assert.Equal(t, "Saturday", saturday[3])
	assert.Equal(t, "6.00", saturday[12])

	// Week 11: worked 10 + 7.5 + 6, credited 7.4.
	assert.Equal(t, "30.90", monday[8])

	var weekly bytes.Buffer
	require.NoError(t, WriteWeekly(&weekly, res.Weekly))
	wrows, err := readRows(weekly.String())
	require.NoError(t, err)
	require.Len(t, wrows, 2)
	assert.Equal(t, []string{"Jens Jensen", "2026", "11", "30.90", "22.20", "2.10", "0.60", "6.00", "7.40", "750.00"}, wrows[1])
}

func readRows(s string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(s))
	r.Comma = ';'
	return r.ReadAll()
}
