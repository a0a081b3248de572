package handlers

import (
	"net/http"
	"time"

	"github.com/crucial707/mlregistry/internal/schedule"
)

// ScheduleHandler exposes schedule labelling to clients that render their own forms.
type ScheduleHandler struct {
	Now func() time.Time
}

// LabelResponse describes one schedule expression.
type LabelResponse struct {
	Expression string           `json:"expression"`
	Label      string           `json:"label"`
	Cadence    schedule.Cadence `json:"cadence"`
	Valid      bool             `json:"valid"`
	NextRun    *time.Time       `json:"next_run,omitempty"`
}

func (h *ScheduleHandler) describe(expr string) LabelResponse {
	resp := LabelResponse{
		Expression: expr,
		Label:      schedule.LabelString(expr),
		Cadence:    schedule.CadenceOf(&expr),
		Valid:      expr == "" || schedule.Validate(expr) == nil,
	}
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	if next, ok := schedule.Next(&expr, now); ok {
		resp.NextRun = &next
	}
	return resp
}

// Label returns the label of ?expr= (absent or empty means manual). Unreadable expressions are
// not an error: the label is the raw expression and valid is false.
func (h *ScheduleHandler) Label(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.describe(r.URL.Query().Get("expr")))
}

// Cadences lists the form choices with the expression each one stores.
func (h *ScheduleHandler) Cadences(w http.ResponseWriter, r *http.Request) {
	out := make([]LabelResponse, 0, len(schedule.Cadences))
	for _, c := range schedule.Cadences {
		resp := h.describe(c.Expression())
		resp.Cadence = c
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}
