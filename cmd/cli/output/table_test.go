package output

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	RenderTable(&buf, []string{"ID", "Name"}, [][]interface{}{{1, "alpha"}, {2, "beta"}})
	out := strings.ToLower(buf.String())
	for _, want := range []string{"id", "name", "alpha", "beta", "2 rows"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderJSON(&buf, map[string]int{"a": 1}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"a": 1`) {
		t.Errorf("got %s", buf.String())
	}
}

func TestCells(t *testing.T) {
	if Time(nil) != "-" || Str(nil) != "-" || Join(nil) != "-" {
		t.Error("absent values should render as -")
	}
	s := "x"
	if Str(&s) != "x" || Join([]string{"a", "b"}) != "a, b" {
		t.Error("unexpected cell rendering")
	}
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local)
	if Time(&ts) != "2025-03-01 00:00" {
		t.Errorf("Time = %q", Time(&ts))
	}
}
