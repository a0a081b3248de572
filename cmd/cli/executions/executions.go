package executions

import (
	"fmt"
	"strconv"

	"github.com/crucial707/mlregistry/cmd/cli/output"
	"github.com/crucial707/mlregistry/cmd/cli/root"
	"github.com/crucial707/mlregistry/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Executions
// ==========================
func InitExecutions(rootCmd *cobra.Command) {
	executionsCmd := &cobra.Command{
		Use:     "executions",
		Aliases: []string{"runs"},
		Short:   "List, trigger and cancel executions",
	}

	executionsCmd.AddCommand(
		listExecutionsCmd(),
		logsCmd(),
		triggerCmd(),
		cancelCmd(),
	)

	rootCmd.AddCommand(executionsCmd)
}

func parseID(kind, arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, arg)
	}
	return id, nil
}

// ==========================
// LIST (newest first)
// ==========================
func listExecutionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List executions, newest first",
	}
	query := root.FilterFlags(cmd, models.ExecutionFilter)
	jsonOut := root.JSONFlag(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client, err := root.Client()
		if err != nil {
			return err
		}
		list, err := client.ListExecutions(cmd.Context(), query())
		if err != nil {
			return err
		}
		if *jsonOut {
			return output.RenderJSON(cmd.OutOrStdout(), list.Items)
		}
		rows := make([][]interface{}, 0, len(list.Items))
		for _, e := range list.Items {
			duration := "-"
			if d, ok := e.Duration(); ok {
				duration = d.String()
			}
			rows = append(rows, []interface{}{e.ID, e.DeploymentName, e.ModelName, e.Status, e.TriggeredBy, output.Time(&e.CreatedAt), duration})
		}
		output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Deployment", "Model", "Status", "Triggered by", "Created", "Duration"}, rows)
		return nil
	}
	return cmd
}

// ==========================
// LOGS
// ==========================
func logsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logs [id]",
		Short: "Print the log lines of an execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("execution", args[0])
			if err != nil {
				return err
			}
			client, err := root.Client()
			if err != nil {
				return err
			}
			logs, err := client.ExecutionLogs(cmd.Context(), id)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Run %s (%s)\n", logs.RunID, logs.Status)
			if len(logs.Logs) == 0 {
				fmt.Fprintln(w, "No logs yet.")
			}
			for _, line := range logs.Logs {
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}
}

// ==========================
// TRIGGER
// ==========================
func triggerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger [deployment-id]",
		Short: "Queue a manual execution of a deployment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("deployment", args[0])
			if err != nil {
				return err
			}
			client, err := root.Client()
			if err != nil {
				return err
			}
			e, err := client.TriggerExecution(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Execution %d queued (run %s)\n", e.ID, e.RunID)
			return nil
		},
	}
}

// ==========================
// CANCEL
// ==========================
func cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel [id]",
		Short: "Cancel a queued or running execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("execution", args[0])
			if err != nil {
				return err
			}
			client, err := root.Client()
			if err != nil {
				return err
			}
			e, err := client.CancelExecution(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Execution %d cancelled (status %s)\n", e.ID, e.Status)
			return nil
		},
	}
}
