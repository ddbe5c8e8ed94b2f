package fetchxml

import "strings"

// FilterBuilder accumulates condition fragments in order and renders them as
// a balanced AND filter. Consecutive fragments are paired into binary AND
// groups; a trailing odd fragment is appended on its own. Sequences longer
// than two are wrapped in one more outer AND group.
//
// A FilterBuilder is owned by its creator. Use Clone to branch a partially
// built filter.
type FilterBuilder struct {
	queries []string
}

// NewFilterBuilder returns an empty filter builder.
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{queries: make([]string, 0)}
}

// AddQuery appends a fragment: a condition, a filter group or a pre-built
// filter element.
func (fb *FilterBuilder) AddQuery(query string) *FilterBuilder {
	fb.queries = append(fb.queries, query)
	return fb
}

// Len returns the number of fragments added so far.
func (fb *FilterBuilder) Len() int {
	return len(fb.queries)
}

// ToFilterElement renders the accumulated fragments. It may be called any
// number of times; the builder is not consumed.
func (fb *FilterBuilder) ToFilterElement() string {
	n := len(fb.queries)
	var sb strings.Builder
	for i := 0; i < n; i += 2 {
		if i+1 < n {
			sb.WriteString(FilterAnd(fb.queries[i], fb.queries[i+1]))
		} else {
			sb.WriteString(fb.queries[i])
		}
	}
	if n > 2 {
		return FilterAnd(sb.String())
	}
	return sb.String()
}

// Clone returns an independent copy of the builder.
func (fb *FilterBuilder) Clone() *FilterBuilder {
	queries := make([]string, len(fb.queries))
	copy(queries, fb.queries)
	return &FilterBuilder{queries: queries}
}

// FilterAnd wraps the fragments in a single flat AND filter.
func FilterAnd(queries ...string) string {
	return filterGroup("and", queries)
}

// FilterOr wraps the fragments in a single flat OR filter.
func FilterOr(queries ...string) string {
	return filterGroup("or", queries)
}

func filterGroup(kind string, queries []string) string {
	return "<filter type='" + kind + "'>" + strings.Join(queries, " ") + "</filter>"
}
