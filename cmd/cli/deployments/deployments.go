package deployments

import (
	"context"
	"fmt"
	"strconv"

	"github.com/crucial707/mlregistry/cmd/cli/output"
	"github.com/crucial707/mlregistry/cmd/cli/root"
	"github.com/crucial707/mlregistry/internal/apiclient"
	"github.com/crucial707/mlregistry/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Deployments
// ==========================
func InitDeployments(rootCmd *cobra.Command) {
	deploymentsCmd := &cobra.Command{
		Use:     "deployments",
		Aliases: []string{"deploy"},
		Short:   "Manage deployments",
	}

	deploymentsCmd.AddCommand(
		listDeploymentsCmd(),
		getDeploymentCmd(),
		transitionCmd("start", "Start a deployment", (*apiclient.Client).StartDeployment),
		transitionCmd("stop", "Stop a deployment", (*apiclient.Client).StopDeployment),
	)

	rootCmd.AddCommand(deploymentsCmd)
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid deployment id %q", arg)
	}
	return id, nil
}

// ==========================
// LIST
// ==========================
func listDeploymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deployments with their schedules",
	}
	query := root.FilterFlags(cmd, models.DeploymentFilter)
	jsonOut := root.JSONFlag(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client, err := root.Client()
		if err != nil {
			return err
		}
		list, err := client.ListDeployments(cmd.Context(), query())
		if err != nil {
			return err
		}
		if *jsonOut {
			return output.RenderJSON(cmd.OutOrStdout(), list.Items)
		}
		rows := make([][]interface{}, 0, len(list.Items))
		for _, d := range list.Items {
			rows = append(rows, []interface{}{d.ID, d.Name, d.ModelName, d.Department, d.Region, d.Status, d.ScheduleLabel, output.Time(d.LastExecution)})
		}
		output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Model", "Department", "Region", "Status", "Schedule", "Last run"}, rows)
		return nil
	}
	return cmd
}

// ==========================
// GET
// ==========================
func getDeploymentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show one deployment and its next run",
		Args:  cobra.ExactArgs(1),
	}
	jsonOut := root.JSONFlag(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		client, err := root.Client()
		if err != nil {
			return err
		}
		d, err := client.GetDeployment(cmd.Context(), id)
		if err != nil {
			return err
		}
		if *jsonOut {
			return output.RenderJSON(cmd.OutOrStdout(), d)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Deployment %d: %s\n", d.ID, d.Name)
		fmt.Fprintf(w, "Model: %s (#%d), Status: %s\n", d.ModelName, d.ModelID, d.Status)
		fmt.Fprintf(w, "Schedule: %s [%s]\n", d.ScheduleLabel, d.Cadence)
		fmt.Fprintf(w, "Next run: %s, Last run: %s\n", output.Time(d.NextRun), output.Time(d.LastExecution))
		return nil
	}
	return cmd
}

type transitionFunc func(*apiclient.Client, context.Context, int) (models.Deployment, error)

// ==========================
// START / STOP
// ==========================
func transitionCmd(use, short string, call transitionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := root.Client()
			if err != nil {
				return err
			}
			d, err := call(client, cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deployment %d is now %s\n", d.ID, d.Status)
			return nil
		},
	}
}
