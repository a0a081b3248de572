package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/crucial707/mlregistry/cmd/cli/output"
	"github.com/crucial707/mlregistry/cmd/cli/root"
	"github.com/crucial707/mlregistry/internal/handlers"
	mlmodels "github.com/crucial707/mlregistry/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Models
// ==========================
func InitModels(rootCmd *cobra.Command) {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Manage registered models",
	}

	modelsCmd.AddCommand(
		listModelsCmd(),
		getModelCmd(),
		createModelCmd(),
		deleteModelCmd(),
	)

	rootCmd.AddCommand(modelsCmd)
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid model id %q", arg)
	}
	return id, nil
}

// ==========================
// LIST
// ==========================
func listModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List models",
		Long: `List models, optionally filtered.

Example:
  mlreg models list --q forecast --department Sales`,
	}
	query := root.FilterFlags(cmd, mlmodels.ModelFilter)
	jsonOut := root.JSONFlag(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client, err := root.Client()
		if err != nil {
			return err
		}
		list, err := client.ListModels(cmd.Context(), query())
		if err != nil {
			return err
		}
		if *jsonOut {
			return output.RenderJSON(cmd.OutOrStdout(), list.Items)
		}
		rows := make([][]interface{}, 0, len(list.Items))
		for _, m := range list.Items {
			rows = append(rows, []interface{}{m.ID, m.Name, m.Type, m.Framework, m.Version, m.Department, m.Region, m.Status})
		}
		output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Type", "Framework", "Version", "Department", "Region", "Status"}, rows)
		return nil
	}
	return cmd
}

// ==========================
// GET
// ==========================
func getModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show one model",
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
		m, err := client.GetModel(cmd.Context(), id)
		if err != nil {
			return err
		}
		if *jsonOut {
			return output.RenderJSON(cmd.OutOrStdout(), m)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Model %d: %s (v%s)\n", m.ID, m.Name, m.Version)
		fmt.Fprintf(w, "Type: %s, Framework: %s, Status: %s\n", m.Type, m.Framework, m.Status)
		fmt.Fprintf(w, "Department: %s, Region: %s, Brand: %s\n", m.Department, m.Region, output.Str(m.Brand))
		fmt.Fprintf(w, "Tags: %s\n", output.Join(m.Tags))
		if m.Description != "" {
			fmt.Fprintf(w, "\n%s\n", m.Description)
		}
		return nil
	}
	return cmd
}

// ==========================
// CREATE
// ==========================
func createModelCmd() *cobra.Command {
	var in handlers.ModelInput
	var tags string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a model",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tags != "" {
				for _, t := range strings.Split(tags, ",") {
					if t = strings.TrimSpace(t); t != "" {
						in.Tags = append(in.Tags, t)
					}
				}
			}
			client, err := root.Client()
			if err != nil {
				return err
			}
			m, err := client.CreateModel(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Model %d created: %s\n", m.ID, m.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "model name")
	cmd.Flags().StringVar(&in.Description, "description", "", "model description")
	cmd.Flags().StringVar(&in.Type, "type", "", "classification, regression, clustering, forecasting, recommendation or custom")
	cmd.Flags().StringVar(&in.Framework, "framework", "", "scikit-learn, tensorflow, pytorch, xgboost, r or custom")
	cmd.Flags().StringVar(&in.Version, "version", "1.0.0", "model version")
	cmd.Flags().StringVar(&in.Department, "department", "", "owning department")
	cmd.Flags().StringVar(&in.Region, "region", "", "region")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("framework")
	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteModelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a model and its deployments",
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
			if err := client.DeleteModel(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Model %d deleted\n", id)
			return nil
		},
	}
}
