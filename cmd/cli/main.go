package main

import (
	"fmt"
	"os"

	"github.com/crucial707/mlregistry/cmd/cli/auth"
	"github.com/crucial707/mlregistry/cmd/cli/deployments"
	"github.com/crucial707/mlregistry/cmd/cli/executions"
	"github.com/crucial707/mlregistry/cmd/cli/models"
	"github.com/crucial707/mlregistry/cmd/cli/root"
	"github.com/crucial707/mlregistry/cmd/cli/schedule"
	"github.com/crucial707/mlregistry/cmd/cli/users"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	models.InitModels(rootCmd)
	deployments.InitDeployments(rootCmd)
	executions.InitExecutions(rootCmd)
	users.InitUsers(rootCmd)
	schedule.InitSchedule(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
