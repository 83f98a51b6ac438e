package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/overtime-engine/factory"
)

var schedulesFormat string

var schedulesCmd = &cobra.Command{
	Use:   "schedules",
	Short: "Print the loaded rate schedules",
	Long: `schedules prints every loaded edition in the schedule file format, so the
built-in DBR editions can be dumped, edited and passed back via --schedules.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		editions := cli.registry.Editions()
		switch schedulesFormat {
		case "yaml":
			data, err := factory.MarshalSchedules(editions)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		case "json":
			doc := factory.Document{Schedules: make([]factory.ScheduleDoc, len(editions))}
			for i, s := range editions {
				doc.Schedules[i] = factory.ToDoc(s)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		}
		return fmt.Errorf("unknown format %q (use yaml or json)", schedulesFormat)
	},
}

func init() {
	schedulesCmd.Flags().StringVar(&schedulesFormat, "format", "yaml", "Output format: yaml or json")
}
