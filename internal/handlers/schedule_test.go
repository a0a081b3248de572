package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/crucial707/mlregistry/internal/schedule"
)

func TestScheduleHandler_Label(t *testing.T) {
	h := &ScheduleHandler{Now: fixedNow}

	tests := []struct {
		query     string
		wantLabel string
		wantValid bool
		wantNext  bool
	}{
		{"/schedules/label", "Manual", true, false},
		{"/schedules/label?expr=0+0+*+*+*", "Every day at midnight", true, true},
		{"/schedules/label?expr=0+6+*+*+1", "Every Monday at 6h", true, true},
		{"/schedules/label?expr=every+day", "every day", false, false},
		{"/schedules/label?expr=*/15+*+*+*+*", "*/15 * * * *", true, true},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		h.Label(rr, requestWithChiURLParams("GET", tt.query, nil, nil))
		out := decode[LabelResponse](t, rr)
		if out.Label != tt.wantLabel || out.Valid != tt.wantValid || (out.NextRun != nil) != tt.wantNext {
			t.Errorf("%s: got %+v", tt.query, out)
		}
	}
}

func TestScheduleHandler_Cadences(t *testing.T) {
	h := &ScheduleHandler{Now: fixedNow}
	rr := httptest.NewRecorder()
	h.Cadences(rr, requestWithChiURLParams("GET", "/schedules/cadences", nil, nil))
	out := decode[[]LabelResponse](t, rr)
	if len(out) != len(schedule.Cadences) {
		t.Fatalf("got %d cadences", len(out))
	}
	if out[2].Cadence != schedule.Weekly || out[2].Expression != "0 0 * * 1" || out[2].Label != "Every Monday at 0h" {
		t.Errorf("weekly = %+v", out[2])
	}
	if out[4].Cadence != schedule.Custom || out[4].Expression != "" {
		t.Errorf("custom = %+v", out[4])
	}
}
