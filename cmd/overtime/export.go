package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/warp/overtime-engine/timesheet"
)

var (
	exportOpts   inputOptions
	exportOutput string
	exportSheet  string
)

var exportCmd = &cobra.Command{
	Use:   "export FILE...",
	Short: "Classify timesheet files and write the payroll CSV",
	Long: `export writes semicolon-separated CSV with two-decimal hours. The combined
sheet holds the daily records followed by the weekly summary.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cli.classifyFiles(cmd.Context(), exportOpts, args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		if err := writeSheet(out, exportSheet, c); err != nil {
			return err
		}
		for _, w := range c.warnings {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
		}
		return nil
	},
}

func init() {
	addInputFlags(exportCmd, &exportOpts)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	exportCmd.Flags().StringVar(&exportSheet, "sheet", "combined", "Sheet: daily, weekly or combined")
}

func writeSheet(w io.Writer, sheet string, c *classification) error {
	switch sheet {
	case "daily":
		return timesheet.WriteDaily(w, c.result.Daily, c.result.Weekly)
	case "weekly":
		return timesheet.WriteWeekly(w, c.result.Weekly)
	case "combined":
		return timesheet.WriteCombined(w, c.result.Daily, c.result.Weekly)
	}
	return fmt.Errorf("unknown sheet %q (use daily, weekly or combined)", sheet)
}
