package auth

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/crucial707/mlregistry/cmd/cli/config"
	"github.com/crucial707/mlregistry/cmd/cli/output"
	"github.com/crucial707/mlregistry/cmd/cli/root"
	"github.com/crucial707/mlregistry/internal/apiclient"
	"github.com/spf13/cobra"
)

// InitAuth registers login, logout and whoami on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(loginCmd(), logoutCmd(), whoamiCmd())
}

// loginCmd logs in a user and stores the JWT token locally.
func loginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the registry API",
		Long:  "Authenticate with the registry API and store a JWT token for subsequent CLI commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			if username == "" {
				username = prompt(cmd.OutOrStdout(), in, "Username: ")
			}
			if password == "" {
				password = prompt(cmd.OutOrStdout(), in, "Password: ")
			}
			if username == "" || password == "" {
				return fmt.Errorf("username and password are required")
			}

			resp, err := apiclient.New(config.APIURL(), "").Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("failed to login: %w", err)
			}
			if resp.Token == "" {
				return fmt.Errorf("login succeeded but no token returned")
			}
			if err := config.SaveToken(resp.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s). Token valid until %s.\n",
				resp.User.Username, resp.User.Role, output.Time(&resp.ExpiresAt))
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username to authenticate as")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func prompt(w io.Writer, r *bufio.Reader, label string) string {
	fmt.Fprint(w, label)
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the locally saved token",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := config.RemoveToken()
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintln(cmd.OutOrStdout(), "No user logged in.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out successfully.")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
	}
	jsonOut := root.JSONFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client, err := root.Client()
		if err != nil {
			return err
		}
		u, err := client.Me(cmd.Context())
		if err != nil {
			return err
		}
		if *jsonOut {
			return output.RenderJSON(cmd.OutOrStdout(), u)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) role=%s department=%s\n", u.Username, u.Email, u.Role, u.Department)
		return nil
	}
	return cmd
}
