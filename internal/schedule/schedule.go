// Package schedule turns 5-field cron-like schedule strings into display labels and maps the
// cadence choices offered by create/edit forms onto canonical expressions.
//
// The label table is deliberately narrow: only the handful of shapes the registry generates are
// recognised, everything else is shown verbatim. Nothing in this package ever fails on input it
// cannot read; callers get the raw string back instead.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ManualLabel is shown for deployments without a schedule.
const ManualLabel = "Manual"

const (
	exprDaily   = "0 0 * * *"
	exprWeekly  = "0 0 * * 1"
	exprMonthly = "0 0 1 * *"
)

// Cadence is the recurrence selected on a deployment form.
type Cadence string

const (
	Manual  Cadence = "manual"
	Daily   Cadence = "daily"
	Weekly  Cadence = "weekly"
	Monthly Cadence = "monthly"
	Custom  Cadence = "custom"
)

// Cadences lists the selectable cadences in form order.
var Cadences = []Cadence{Manual, Daily, Weekly, Monthly, Custom}

// ParseCadence maps a form value onto a Cadence. Unknown values are treated as Manual.
func ParseCadence(s string) Cadence {
	switch c := Cadence(strings.ToLower(strings.TrimSpace(s))); c {
	case Daily, Weekly, Monthly, Custom:
		return c
	default:
		return Manual
	}
}

// Expression returns the canonical expression for c. Manual and Custom have none and yield "".
func (c Cadence) Expression() string {
	switch c {
	case Daily:
		return exprDaily
	case Weekly:
		return exprWeekly
	case Monthly:
		return exprMonthly
	default:
		return ""
	}
}

// Resolve returns the schedule to store for a form submission: nil for manual, the canonical
// expression for daily/weekly/monthly, and the operator's literal, untouched, for custom.
func Resolve(c Cadence, custom string) *string {
	var expr string
	if c == Custom {
		expr = custom
	} else {
		expr = c.Expression()
	}
	if expr == "" {
		return nil
	}
	return &expr
}

// CadenceOf reports which cadence produced expr, so edit forms can pre-select it.
// Expressions that are not canonical are Custom.
func CadenceOf(expr *string) Cadence {
	if expr == nil || *expr == "" {
		return Manual
	}
	switch *expr {
	case exprDaily:
		return Daily
	case exprWeekly:
		return Weekly
	case exprMonthly:
		return Monthly
	default:
		return Custom
	}
}

// Label renders a schedule for list and detail screens. A nil or empty schedule is "Manual".
func Label(expr *string) string {
	if expr == nil {
		return ManualLabel
	}
	return LabelString(*expr)
}

// LabelString is Label for callers holding a plain string.
func LabelString(expr string) string {
	if expr == "" {
		return ManualLabel
	}

	parts := strings.Split(expr, " ")
	if len(parts) != 5 {
		return expr
	}
	minute, hour, dayOfMonth, month, dayOfWeek := parts[0], parts[1], parts[2], parts[3], parts[4]

	switch {
	case minute == "0" && hour == "0" && dayOfMonth == "*" && month == "*" && dayOfWeek == "*":
		return "Every day at midnight"
	case minute == "0" && dayOfMonth == "*" && month == "*":
		switch dayOfWeek {
		case "*":
			return fmt.Sprintf("Every day at %sh", hour)
		case "1":
			return fmt.Sprintf("Every Monday at %sh", hour)
		case "1,4":
			return fmt.Sprintf("Every Monday and Thursday at %sh", hour)
		}
	case minute == "0" && dayOfMonth == "1" && month == "*" && dayOfWeek == "*":
		return fmt.Sprintf("On the 1st of the month at %sh", hour)
	}
	return expr
}

// parser accepts exactly the five standard fields; descriptors such as @daily are rejected.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate checks that a custom expression is a well-formed 5-field cron spec.
func Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return fmt.Errorf("empty cron expression")
	}
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// Next returns the next activation of expr after from, for display only.
// ok is false for manual or unparsable schedules, and for valid ones that never fire
// (such as February 30th).
func Next(expr *string, from time.Time) (next time.Time, ok bool) {
	if expr == nil || *expr == "" {
		return time.Time{}, false
	}
	sched, err := parser.Parse(*expr)
	if err != nil {
		return time.Time{}, false
	}
	next = sched.Next(from)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}
