package root

import (
	"net/url"

	"github.com/crucial707/mlregistry/cmd/cli/config"
	"github.com/crucial707/mlregistry/internal/apiclient"
	"github.com/crucial707/mlregistry/internal/recordfilter"
	"github.com/spf13/cobra"
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:           "mlreg",
	Short:         "ML model registry CLI",
	Long:          "Command line interface for the ML model registry API: models, deployments, executions and users.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Optional helper to return the RootCmd
func GetRoot() *cobra.Command {
	return RootCmd
}

// Client returns an API client authenticated with the stored token.
func Client() (*apiclient.Client, error) {
	token, err := config.LoadToken()
	if err != nil {
		return nil, err
	}
	return apiclient.New(config.APIURL(), token), nil
}

// FilterFlags registers --q and one flag per categorical field of schema on cmd. The returned
// func collects the set flags as API query parameters.
func FilterFlags(cmd *cobra.Command, schema recordfilter.Schema) func() url.Values {
	query := cmd.Flags().String("q", "", "free-text search")
	values := make(map[string]*string, len(schema.Categorical))
	for _, field := range schema.Categorical {
		values[field] = cmd.Flags().String(field, "", "only rows whose "+field+" equals this value")
	}
	return func() url.Values {
		q := url.Values{}
		if *query != "" {
			q.Set("q", *query)
		}
		for field, v := range values {
			if *v != "" {
				q.Set(field, *v)
			}
		}
		return q
	}
}

// JSONFlag registers --json on cmd.
func JSONFlag(cmd *cobra.Command) *bool {
	return cmd.Flags().BoolP("json", "j", false, "Output raw JSON instead of a table")
}
