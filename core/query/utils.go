// Package query provides a set of utility functions to support the query
// builder and generators: numeric coercion, list flattening and deep copies
// of DSL values.
package query

import (
	"fmt"
	"reflect"
	"strconv"
)

// ToFloat64 is a utility function that converts a value of various numeric types
// to a float64. It returns the converted float64 and a boolean indicating whether
// the conversion was successful.
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	case interface{ Float64() (float64, error) }: // json.Number
		f, err := val.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ToValueList flattens a membership value into a list. Any slice or array
// is accepted, which covers values decoded from JSON or YAML ([]any) as well
// as typed slices. A nil value yields an empty list. Values with a string
// form, such as uuid.UUID, are scalars even when backed by an array.
func ToValueList(v FilterValue) ([]any, bool) {
	if v == nil {
		return []any{}, true
	}
	if _, ok := v.(fmt.Stringer); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func cloneValue(v FilterValue) FilterValue {
	switch val := v.(type) {
	case []FilterValue:
		return append([]FilterValue(nil), val...)
	case []any:
		return append([]any(nil), val...)
	default:
		return v
	}
}

func cloneFilter(f QueryFilter) QueryFilter {
	var out QueryFilter
	if f.Condition != nil {
		c := *f.Condition
		c.Value = cloneValue(c.Value)
		out.Condition = &c
	}
	if f.Group != nil {
		out.Group = &FilterGroup{
			Operator:   f.Group.Operator,
			Conditions: cloneFilters(f.Group.Conditions),
		}
	}
	return out
}

func cloneFilters(filters []QueryFilter) []QueryFilter {
	if filters == nil {
		return nil
	}
	out := make([]QueryFilter, len(filters))
	for i, f := range filters {
		out[i] = cloneFilter(f)
	}
	return out
}

func cloneProjection(p *ProjectionConfiguration) *ProjectionConfiguration {
	if p == nil {
		return nil
	}
	return &ProjectionConfiguration{
		All:     p.All,
		Include: append([]ProjectionField(nil), p.Include...),
	}
}

func cloneLinks(links []LinkConfiguration) []LinkConfiguration {
	if links == nil {
		return nil
	}
	out := make([]LinkConfiguration, len(links))
	for i, l := range links {
		out[i] = l
		out[i].Projection = cloneProjection(l.Projection)
		if l.Filters != nil {
			f := cloneFilter(*l.Filters)
			out[i].Filters = &f
		}
		out[i].Sort = append([]SortConfiguration(nil), l.Sort...)
		out[i].Links = cloneLinks(l.Links)
	}
	return out
}

func cloneDSL(dsl QueryDSL) QueryDSL {
	out := dsl
	out.Projection = cloneProjection(dsl.Projection)
	if dsl.Filters != nil {
		f := cloneFilter(*dsl.Filters)
		out.Filters = &f
	}
	out.Links = cloneLinks(dsl.Links)
	out.Sort = append([]SortConfiguration(nil), dsl.Sort...)
	return out
}

// Clone returns a deep copy of the query.
func (dsl QueryDSL) Clone() QueryDSL {
	return cloneDSL(dsl)
}
