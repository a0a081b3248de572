package handlers

import (
	"net/url"

	"github.com/crucial707/mlregistry/internal/recordfilter"
)

// ListResponse is the body of every list endpoint. Options are derived from the whole
// collection so a selection never hides its own alternatives.
type ListResponse[T any] struct {
	Items   []T                 `json:"items"`
	Total   int                 `json:"total"`
	Options map[string][]string `json:"options"`
}

// CriteriaFromQuery reads the filter bar state: q for the free-text query and one parameter per
// categorical field of schema.
func CriteriaFromQuery(schema recordfilter.Schema, q url.Values) recordfilter.Criteria {
	values := make(map[string]string, len(schema.Categorical))
	for _, f := range schema.Categorical {
		values[f] = q.Get(f)
	}
	return schema.Criteria(q.Get("q"), values)
}

func filterList[T recordfilter.Recorder](items []T, schema recordfilter.Schema, q url.Values) ListResponse[T] {
	filtered := recordfilter.Filter(items, CriteriaFromQuery(schema, q))
	if filtered == nil {
		filtered = []T{}
	}
	return ListResponse[T]{
		Items:   filtered,
		Total:   len(filtered),
		Options: recordfilter.Options(items, schema.Categorical...),
	}
}
