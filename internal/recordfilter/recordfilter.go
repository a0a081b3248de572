// Package recordfilter implements the filter bar shared by every list screen: a free-text query
// matched against a few text fields, combined (AND) with exact-match categorical constraints,
// plus the derivation of the choices offered for each categorical field.
//
// Everything here is a pure function over an already-loaded collection.
package recordfilter

import (
	"slices"
	"strconv"
	"strings"
)

// Record is one entity as a field mapping. Values are strings, integers, floats, bools or nil.
type Record map[string]any

// Recorder is implemented by entity types that can be viewed as a Record.
type Recorder interface {
	Record() Record
}

// Constraint requires Field to equal Value exactly. An empty Value disables the constraint.
type Constraint struct {
	Field string
	Value string
}

// Criteria is the state of a filter bar.
type Criteria struct {
	// Query is matched case-insensitively as a substring of any of TextFields.
	Query      string
	TextFields []string

	Constraints []Constraint
}

// IsEmpty reports whether c lets every record through.
func (c Criteria) IsEmpty() bool {
	if c.Query != "" {
		return false
	}
	for _, con := range c.Constraints {
		if con.Value != "" {
			return false
		}
	}
	return true
}

// Schema describes the filterable fields of one list screen.
type Schema struct {
	Text        []string
	Categorical []string
}

// Criteria builds the criteria for query and the categorical selections in values.
// Fields of values that are not categorical for s are ignored.
func (s Schema) Criteria(query string, values map[string]string) Criteria {
	c := Criteria{Query: query, TextFields: s.Text}
	for _, f := range s.Categorical {
		c.Constraints = append(c.Constraints, Constraint{Field: f, Value: values[f]})
	}
	return c
}

// Matches reports whether r satisfies every active part of c.
func Matches(r Record, c Criteria) bool {
	if c.Query != "" {
		q := strings.ToLower(c.Query)
		found := false
		for _, f := range c.TextFields {
			if strings.Contains(strings.ToLower(Value(r, f)), q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, con := range c.Constraints {
		if con.Value == "" {
			continue
		}
		if Value(r, con.Field) != con.Value {
			return false
		}
	}
	return true
}

// Apply returns the records matching c in their original order.
// With empty criteria the input is returned as is.
func Apply(records []Record, c Criteria) []Record {
	if c.IsEmpty() {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if Matches(r, c) {
			out = append(out, r)
		}
	}
	return out
}

// Filter is Apply for typed entities.
func Filter[T Recorder](items []T, c Criteria) []T {
	if c.IsEmpty() {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if Matches(it.Record(), c) {
			out = append(out, it)
		}
	}
	return out
}

// DeriveOptions returns the distinct values of field across records, sorted.
// Missing, nil and empty values are not options: an empty selection already means "no
// constraint", so such a choice could never narrow the list.
func DeriveOptions(records []Record, field string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, r := range records {
		v := Value(r, field)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Options derives the choices for every field, keyed by field name.
func Options[T Recorder](items []T, fields ...string) map[string][]string {
	records := make([]Record, len(items))
	for i, it := range items {
		records[i] = it.Record()
	}
	out := make(map[string][]string, len(fields))
	for _, f := range fields {
		out[f] = DeriveOptions(records, f)
	}
	return out
}

// Value returns the string form of field in r; "" when absent or nil.
func Value(r Record, field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []string:
		return strings.Join(v, ",")
	default:
		return ""
	}
}
