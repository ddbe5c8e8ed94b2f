// Package query defines a declarative form of FetchXML queries. A QueryDSL
// can be built with the fluent QueryBuilder or decoded from JSON or YAML, and
// is turned into markup by a QueryGenerator.
package query

import (
	"github.com/asaidimu/go-fetchxml/core/fetchxml"
	"github.com/asaidimu/go-fetchxml/core/schema"
)

// ComparisonOperator is a FetchXML condition operator code.
type ComparisonOperator string

// Supported comparison operators. The values are the operator codes written
// into the condition element.
const (
	ComparisonOperatorEq         ComparisonOperator = "eq"
	ComparisonOperatorNeq        ComparisonOperator = "ne"
	ComparisonOperatorIn         ComparisonOperator = "in"
	ComparisonOperatorNotIn      ComparisonOperator = "not-in"
	ComparisonOperatorGt         ComparisonOperator = "gt"
	ComparisonOperatorLt         ComparisonOperator = "lt"
	ComparisonOperatorGte        ComparisonOperator = "eq-or-above"
	ComparisonOperatorLte        ComparisonOperator = "eq-or-under"
	ComparisonOperatorLike       ComparisonOperator = "like"
	ComparisonOperatorNotLike    ComparisonOperator = "not-like"
	ComparisonOperatorBeginsWith ComparisonOperator = "begins-with"
	ComparisonOperatorNull       ComparisonOperator = "null"
	ComparisonOperatorNotNull    ComparisonOperator = "not-null"
	ComparisonOperatorOn         ComparisonOperator = "on"
	ComparisonOperatorOnOrBefore ComparisonOperator = "on-or-before"
	ComparisonOperatorOnOrAfter  ComparisonOperator = "on-or-after"
	ComparisonOperatorLastYear   ComparisonOperator = "last-year"
	ComparisonOperatorThisYear   ComparisonOperator = "this-year"
	ComparisonOperatorNextYear   ComparisonOperator = "next-year"
	ComparisonOperatorToday      ComparisonOperator = "today"
	// ComparisonOperatorEqUserID with a nil value means "the current user".
	ComparisonOperatorEqUserID ComparisonOperator = "eq-userid"
	ComparisonOperatorNeUserID ComparisonOperator = "ne-userid"
)

// FilterValue represents the value used in a filter condition. Membership
// operators expect a []FilterValue.
type FilterValue any

// FilterCondition defines a single comparison on one column.
type FilterCondition struct {
	Field    string             `json:"field" yaml:"field"`
	Operator ComparisonOperator `json:"operator" yaml:"operator"`
	Value    FilterValue        `json:"value,omitempty" yaml:"value,omitempty"`
	// Scope ties the condition to a linked entity.
	fetchxml.ConditionAttribute `yaml:",inline"`
}

// FilterGroup combines multiple filters using a logical operator.
type FilterGroup struct {
	Operator   schema.LogicalOperator `json:"operator" yaml:"operator"`
	Conditions []QueryFilter          `json:"conditions" yaml:"conditions"`
}

// QueryFilter is a union type that can represent either a single filter condition
// or a group of conditions.
type QueryFilter struct {
	Condition *FilterCondition `json:"condition,omitempty" yaml:"condition,omitempty"`
	Group     *FilterGroup     `json:"group,omitempty" yaml:"group,omitempty"`
}

// SortDirection specifies the direction for sorting.
type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// SortConfiguration defines the sorting order for a specific field.
type SortConfiguration struct {
	Field     string        `json:"field" yaml:"field"`
	Direction SortDirection `json:"direction,omitempty" yaml:"direction,omitempty"`
}

// AggregationType specifies the aggregate function of a projected field.
type AggregationType string

const (
	AggregationTypeCount       AggregationType = "count"
	AggregationTypeCountColumn AggregationType = "countcolumn"
	AggregationTypeSum         AggregationType = "sum"
	AggregationTypeAvg         AggregationType = "avg"
	AggregationTypeMin         AggregationType = "min"
	AggregationTypeMax         AggregationType = "max"
)

// ProjectionField defines a returned column.
type ProjectionField struct {
	Name      string          `json:"name" yaml:"name"`
	Alias     string          `json:"alias,omitempty" yaml:"alias,omitempty"`
	GroupBy   bool            `json:"groupBy,omitempty" yaml:"groupBy,omitempty"`
	Aggregate AggregationType `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`
	Distinct  bool            `json:"distinct,omitempty" yaml:"distinct,omitempty"`
}

// ProjectionConfiguration defines which columns are returned. All takes
// precedence over Include.
type ProjectionConfiguration struct {
	All     bool              `json:"all,omitempty" yaml:"all,omitempty"`
	Include []ProjectionField `json:"include,omitempty" yaml:"include,omitempty"`
}

// JoinType specifies the type of link-entity.
type JoinType string

const (
	JoinTypeInner JoinType = "inner"
	JoinTypeOuter JoinType = "outer"
)

// LinkConfiguration defines a join to another entity and everything nested
// inside it.
type LinkConfiguration struct {
	Type       JoinType                 `json:"type,omitempty" yaml:"type,omitempty"`
	Entity     string                   `json:"entity" yaml:"entity"`
	From       string                   `json:"from" yaml:"from"`
	To         string                   `json:"to" yaml:"to"`
	Alias      string                   `json:"alias,omitempty" yaml:"alias,omitempty"`
	Intersect  bool                     `json:"intersect,omitempty" yaml:"intersect,omitempty"`
	Projection *ProjectionConfiguration `json:"projection,omitempty" yaml:"projection,omitempty"`
	Filters    *QueryFilter             `json:"filters,omitempty" yaml:"filters,omitempty"`
	Sort       []SortConfiguration      `json:"sort,omitempty" yaml:"sort,omitempty"`
	Links      []LinkConfiguration      `json:"links,omitempty" yaml:"links,omitempty"`
}

// QueryDSL is the top-level structure that represents a complete query.
type QueryDSL struct {
	Entity     string                   `json:"entity" yaml:"entity"`
	Distinct   bool                     `json:"distinct,omitempty" yaml:"distinct,omitempty"`
	Aggregate  bool                     `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`
	Top        int                      `json:"top,omitempty" yaml:"top,omitempty"`
	Count      int                      `json:"count,omitempty" yaml:"count,omitempty"`
	Projection *ProjectionConfiguration `json:"projection,omitempty" yaml:"projection,omitempty"`
	Filters    *QueryFilter             `json:"filters,omitempty" yaml:"filters,omitempty"`
	Links      []LinkConfiguration      `json:"links,omitempty" yaml:"links,omitempty"`
	Sort       []SortConfiguration      `json:"sort,omitempty" yaml:"sort,omitempty"`
}

// standardComparisonOperators is a set of all the standard, built-in comparison operators.
var standardComparisonOperators = map[ComparisonOperator]struct{}{
	ComparisonOperatorEq:         {},
	ComparisonOperatorNeq:        {},
	ComparisonOperatorIn:         {},
	ComparisonOperatorNotIn:      {},
	ComparisonOperatorGt:         {},
	ComparisonOperatorLt:         {},
	ComparisonOperatorGte:        {},
	ComparisonOperatorLte:        {},
	ComparisonOperatorLike:       {},
	ComparisonOperatorNotLike:    {},
	ComparisonOperatorBeginsWith: {},
	ComparisonOperatorNull:       {},
	ComparisonOperatorNotNull:    {},
	ComparisonOperatorOn:         {},
	ComparisonOperatorOnOrBefore: {},
	ComparisonOperatorOnOrAfter:  {},
	ComparisonOperatorLastYear:   {},
	ComparisonOperatorThisYear:   {},
	ComparisonOperatorNextYear:   {},
	ComparisonOperatorToday:      {},
	ComparisonOperatorEqUserID:   {},
	ComparisonOperatorNeUserID:   {},
}

// IsStandard checks if a comparison operator is one of the built-in operators.
func (c ComparisonOperator) IsStandard() bool {
	_, ok := standardComparisonOperators[c]
	return ok
}

// GetStandardComparisonOperators returns a map of all standard comparison operators.
func GetStandardComparisonOperators() map[ComparisonOperator]struct{} {
	return standardComparisonOperators
}
