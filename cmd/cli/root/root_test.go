package root

import (
	"testing"

	"github.com/crucial707/mlregistry/internal/recordfilter"
	"github.com/spf13/cobra"
)

func TestFilterFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "list"}
	collect := FilterFlags(cmd, recordfilter.Schema{Text: []string{"name"}, Categorical: []string{"department", "status"}})

	if q := collect(); len(q) != 0 {
		t.Errorf("no flags set: got %v", q)
	}
	_ = cmd.Flags().Set("q", "sal")
	_ = cmd.Flags().Set("department", "Sales")
	q := collect()
	if q.Get("q") != "sal" || q.Get("department") != "Sales" || q.Has("status") {
		t.Errorf("got %v", q)
	}
	if cmd.Flags().Lookup("name") != nil {
		t.Error("text fields must not become flags")
	}
}
