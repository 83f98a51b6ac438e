package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/overtime-engine/api"
	"github.com/warp/overtime-engine/dbr"
	"github.com/warp/overtime-engine/factory"
	"github.com/warp/overtime-engine/overtime"
)

const sheet = `Tidsregistrering;;;;;
Jens Jensen;;;;;
Mandag 09-03-2026;;;;;
Arbejdskort Sag Nr. 33511;07:00;-;17:00;10 Timer 0 Minutter
Tirsdag 10-03-2026;;;;;
Aktivitet: Ferie;07:00;-;14:24;7 Timer 24 Minutter
Onsdag 11-03-2026;;;;;
Arbejdskort Sag Nr. 33511;05:00;-;13:00;8 Timer 0 Minutter
`

func writeSheetFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jens.csv")
	require.NoError(t, os.WriteFile(path, []byte(sheet), 0o644))
	return path
}

func testApp(t *testing.T) app {
	t.Helper()
	registry, err := dbr.NewRegistry()
	require.NoError(t, err)
	return app{registry: registry, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestClassifyFiles_FlagsOverrideDetected(t *testing.T) {
	// GIVEN a sheet with a detected vacation and flags selecting sick leave
	// and a call-out
	a := testApp(t)
	opts := inputOptions{
		employeeType: "Svend",
		fill:         true,
		absences:     map[string]string{"10-03-2026": "sick"},
		callOuts:     []string{"2026-03-11"},
	}

	// WHEN classified
	c, err := a.classifyFiles(context.Background(), opts, []string{writeSheetFile(t)})
	require.NoError(t, err)

	// THEN the flags win and the call-out is paid
	require.Len(t, c.result.Daily, 3)
	assert.NotEmpty(t, c.runID)
	assert.Equal(t, overtime.AbsenceSick, c.result.Daily[1].AbsenceType)
	assert.True(t, c.result.Daily[2].CallOutApplied)
	assert.True(t, decimal.NewFromInt(750).Equal(c.result.CallOutTotal))
}

func TestClassifyFiles_Errors(t *testing.T) {
	a := testApp(t)
	path := writeSheetFile(t)

	_, err := a.classifyFiles(context.Background(), inputOptions{employeeType: "mester"}, []string{path})
	assert.ErrorIs(t, err, overtime.ErrUnknownEmployeeType)

	_, err = a.classifyFiles(context.Background(), inputOptions{employeeType: "svend"}, []string{filepath.Join(t.TempDir(), "missing.csv")})
	assert.Error(t, err)

	_, err = a.classifyFiles(context.Background(), inputOptions{employeeType: "svend", absences: map[string]string{"2026-03-10": "party"}}, []string{path})
	assert.ErrorContains(t, err, "--absence")

	_, err = a.classifyFiles(context.Background(), inputOptions{employeeType: "svend", callOuts: []string{"tuesday"}}, []string{path})
	assert.ErrorContains(t, err, "--call-out")
}

func TestWriteSheet(t *testing.T) {
	a := testApp(t)
	c, err := a.classifyFiles(context.Background(), inputOptions{employeeType: "svend", fill: true}, []string{writeSheetFile(t)})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeSheet(&buf, "weekly", c))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)

	assert.Error(t, writeSheet(&buf, "monthly", c))
}

func TestExecute_SchedulesRoundTrip(t *testing.T) {
	// GIVEN the built-in editions dumped as JSON
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	rootCmd.SetArgs([]string{"schedules", "--format", "json"})
	require.NoError(t, rootCmd.Execute())

	var doc factory.Document
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Len(t, doc.Schedules, len(dbr.Editions)*len(dbr.EmployeeTypes))

	schedules := filepath.Join(t.TempDir(), "schedules.json")
	require.NoError(t, os.WriteFile(schedules, out.Bytes(), 0o644))

	// WHEN a sheet is classified against the dumped file
	out.Reset()
	rootCmd.SetArgs([]string{"classify", "--schedules", schedules, "--format", "json", writeSheetFile(t)})
	require.NoError(t, rootCmd.Execute())

	// THEN the result matches the built-in editions
	var resp api.ClassifyResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.Len(t, resp.Weekly, 1)
	assert.True(t, decimal.RequireFromString("22.2").Equal(resp.Weekly[0].NormalHours), resp.Weekly[0].NormalHours.String())
	assert.Equal(t, "undershot", resp.Weekly[0].NormStatus)
	require.Len(t, resp.EligibleCallOuts, 1)
	assert.Equal(t, []string{"05:00"}, resp.EligibleCallOuts[0].QualifyingTimes)
}
