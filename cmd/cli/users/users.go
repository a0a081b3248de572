package users

import (
	"github.com/crucial707/mlregistry/cmd/cli/output"
	"github.com/crucial707/mlregistry/cmd/cli/root"
	"github.com/crucial707/mlregistry/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// CLI Command Init
// ==========================
func InitUsers(rootCmd *cobra.Command) {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect registry users (admin only)",
	}
	usersCmd.AddCommand(listUsersCmd())
	rootCmd.AddCommand(usersCmd)
}

// ==========================
// List Users
// ==========================
func listUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
	}
	query := root.FilterFlags(cmd, models.UserFilter)
	jsonOut := root.JSONFlag(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client, err := root.Client()
		if err != nil {
			return err
		}
		list, err := client.ListUsers(cmd.Context(), query())
		if err != nil {
			return err
		}
		if *jsonOut {
			return output.RenderJSON(cmd.OutOrStdout(), list.Items)
		}
		rows := make([][]interface{}, 0, len(list.Items))
		for _, u := range list.Items {
			rows = append(rows, []interface{}{u.ID, u.Username, u.FullName, u.Email, u.Department, u.Role, u.Status(), output.Time(u.LastLogin)})
		}
		output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Username", "Name", "Email", "Department", "Role", "Status", "Last login"}, rows)
		return nil
	}
	return cmd
}
