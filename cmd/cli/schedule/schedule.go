package schedule

import (
	"fmt"
	"strings"

	"github.com/crucial707/mlregistry/cmd/cli/output"
	"github.com/crucial707/mlregistry/cmd/cli/root"
	"github.com/spf13/cobra"
)

func InitSchedule(rootCmd *cobra.Command) {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Describe cron schedules",
	}
	scheduleCmd.AddCommand(labelCmd(), cadenceCmd())
	rootCmd.AddCommand(scheduleCmd)
}

func labelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "label [expression]",
		Short: "Print the human label of a cron expression",
		Long: `Print the label the dashboard shows for a 5-field cron expression.

Example:
  mlreg schedule label "0 8 * * 1"`,
		Args: cobra.MaximumNArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := root.Client()
			if err != nil {
				return err
			}
			// unquoted expressions arrive as separate args
			resp, err := client.ScheduleLabel(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Label)
			if !resp.Valid {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: not a valid 5-field cron expression")
			} else if resp.NextRun != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Next run: %s\n", output.Time(resp.NextRun))
			}
			return nil
		},
	}
}

func cadenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cadence",
		Short: "List the cadences a deployment can use",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := root.Client()
			if err != nil {
				return err
			}
			cadences, err := client.Cadences(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]interface{}, 0, len(cadences))
			for _, c := range cadences {
				expr := c.Expression
				if expr == "" {
					expr = "-"
				}
				rows = append(rows, []interface{}{c.Cadence, expr, c.Label})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"Cadence", "Expression", "Label"}, rows)
			return nil
		},
	}
}
