package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/warp/overtime-engine/api"
	"github.com/warp/overtime-engine/dbr"
	"github.com/warp/overtime-engine/generic"
	"github.com/warp/overtime-engine/overtime"
	"github.com/warp/overtime-engine/store/memory"
	"github.com/warp/overtime-engine/timesheet"
)

// inputOptions are the flags shared by classify and export.
type inputOptions struct {
	employeeType string
	fill         bool
	absences     map[string]string
	callOuts     []string
}

func addInputFlags(cmd *cobra.Command, opts *inputOptions) {
	cmd.Flags().StringVar(&opts.employeeType, "employee-type", "svend", "Employee type: svend, funktionaer, laerling, elev")
	cmd.Flags().BoolVar(&opts.fill, "fill", true, "Add empty weekdays between the first and last registered date")
	cmd.Flags().StringToStringVar(&opts.absences, "absence", nil, "Absence selection, e.g. 2026-03-11=vacation (repeatable)")
	cmd.Flags().StringSliceVar(&opts.callOuts, "call-out", nil, "Confirm a call-out on a date (repeatable)")
}

var (
	classifyOpts   inputOptions
	classifyFormat string
)

var classifyCmd = &cobra.Command{
	Use:   "classify FILE...",
	Short: "Classify timesheet files and print weekly totals",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cli.classifyFiles(cmd.Context(), classifyOpts, args)
		if err != nil {
			return err
		}
		resp, err := api.NewClassifyResponse(c.runID, c.result, cli.registry)
		if err != nil {
			return err
		}
		resp.Warnings = c.warnings

		switch classifyFormat {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		case "table":
			return printTable(cmd.OutOrStdout(), resp)
		}
		return fmt.Errorf("unknown format %q (use table or json)", classifyFormat)
	},
}

func init() {
	addInputFlags(classifyCmd, &classifyOpts)
	classifyCmd.Flags().StringVar(&classifyFormat, "format", "table", "Output format: table or json")
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

type classification struct {
	runID    string
	result   *overtime.Result
	warnings []string
}

// classifyFiles parses every file, stores detected and explicit selections,
// and runs the engine once over all worker-days.
func (a app) classifyFiles(ctx context.Context, opts inputOptions, paths []string) (*classification, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	employeeType := overtime.EmployeeType(strings.ToLower(opts.employeeType))
	if t, ok := dbr.ParseEmployeeType(opts.employeeType); ok {
		employeeType = t
	}
	absences, callOuts, err := opts.selections()
	if err != nil {
		return nil, err
	}

	store := memory.New()
	parser := timesheet.NewParser(employeeType)
	var (
		days     []overtime.RawDay
		workers  []overtime.WorkerID
		warnings []string
	)
	for _, path := range paths {
		sheet, err := parseFile(parser, path)
		if err != nil {
			return nil, err
		}
		days = append(days, sheet.Days...)
		workers = append(workers, sheet.Worker)
		if err := store.SaveAbsences(ctx, sheet.Worker, sheet.Absences); err != nil {
			return nil, err
		}
		for _, w := range sheet.Warnings {
			warnings = append(warnings, fmt.Sprintf("%s: %s", path, w))
		}
	}

	// Flags apply to every worker and win over detected absences.
	for _, w := range workers {
		if err := store.SaveAbsences(ctx, w, absences); err != nil {
			return nil, err
		}
		if err := store.SaveCallOuts(ctx, w, callOuts); err != nil {
			return nil, err
		}
	}
	sel, err := store.LoadSelections(ctx, workers, generic.Period{})
	if err != nil {
		return nil, err
	}

	started := time.Now()
	res, err := overtime.NewEngine(a.registry, a.logger).Run(ctx, overtime.Batch{
		Days:            days,
		Selections:      sel,
		FillMissingDays: opts.fill,
	})
	if err != nil {
		return nil, err
	}

	run := overtime.RunSummary{
		ID:        uuid.NewString(),
		StartedAt: started,
		Duration:  time.Since(started),
		Workers:   len(res.Workers),
		Days:      len(res.Daily),
		Failures:  len(res.Failures),
		Defects:   len(res.Defects),
	}
	if err := store.RecordRun(ctx, run); err != nil {
		return nil, err
	}
	a.logger.Info("run complete", "run_id", run.ID, "files", len(paths), "days", run.Days,
		"failures", run.Failures, "defects", run.Defects, "duration", run.Duration)
	for _, f := range res.Failures {
		a.logger.Warn("day rejected", "worker", f.WorkerID, "date", f.Date, "error", f.Err)
	}

	return &classification{runID: run.ID, result: res, warnings: warnings}, nil
}

func parseFile(parser *timesheet.Parser, path string) (*timesheet.Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet, err := parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sheet, nil
}

// selections parses the --absence and --call-out flags.
func (o inputOptions) selections() (map[generic.Date]overtime.AbsenceType, map[generic.Date]bool, error) {
	absences := make(map[generic.Date]overtime.AbsenceType, len(o.absences))
	for ds, as := range o.absences {
		d, err := generic.ParseDate(ds)
		if err != nil {
			return nil, nil, fmt.Errorf("--absence: %w", err)
		}
		a, ok := overtime.ParseAbsenceType(as)
		if !ok || a == overtime.AbsenceUnset {
			return nil, nil, fmt.Errorf("--absence: unknown absence type %q", as)
		}
		absences[d] = a
	}

	callOuts := make(map[generic.Date]bool, len(o.callOuts))
	for _, ds := range o.callOuts {
		d, err := generic.ParseDate(ds)
		if err != nil {
			return nil, nil, fmt.Errorf("--call-out: %w", err)
		}
		callOuts[d] = true
	}
	return absences, callOuts, nil
}

// =============================================================================
// OUTPUT
// =============================================================================

func printTable(out io.Writer, resp *api.ClassifyResponse) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "WORKER\tWEEK\tDAYS\tWORKED\tCREDITED\tNORMAL\tOT1\tOT2\tOT3\tPREMIUM\tCALL-OUT\tNORM\t")
	for _, w := range resp.Weekly {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			w.WorkerID, w.Week, w.Days,
			w.WorkedHours.StringFixed(2), w.CreditedHours.StringFixed(2), w.NormalHours.StringFixed(2),
			w.Overtime.OT1.StringFixed(2), w.Overtime.OT2.StringFixed(2), w.Overtime.OT3.StringFixed(2),
			w.OvertimePremium.StringFixed(2), w.CallOutPayments.StringFixed(2), w.NormStatus)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, e := range resp.EligibleCallOuts {
		fmt.Fprintf(out, "call-out eligible: %s %s (starts %s)\n", e.WorkerID, e.Date, strings.Join(e.QualifyingTimes, ", "))
	}
	for _, f := range resp.Failures {
		fmt.Fprintf(out, "rejected: %s %s: %s\n", f.WorkerID, f.Date, f.Error)
	}
	for _, f := range resp.Defects {
		fmt.Fprintf(out, "defect: %s %s: %s\n", f.WorkerID, f.Date, f.Error)
	}
	for _, f := range resp.SkippedAbsences {
		fmt.Fprintf(out, "absence skipped: %s %s: %s\n", f.WorkerID, f.Date, f.Error)
	}
	for _, f := range resp.IneligibleCallOuts {
		fmt.Fprintf(out, "call-out ineligible: %s %s: %s\n", f.WorkerID, f.Date, f.Error)
	}
	for _, w := range resp.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	return nil
}
