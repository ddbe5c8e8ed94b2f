// Package query provides a fluent API for building QueryDSL structures. The
// builder records what the query asks for; rendering it to FetchXML is the
// job of a QueryGenerator.
package query

import (
	"fmt"
	"strings"

	"github.com/asaidimu/go-fetchxml/core/fetchxml"
	"github.com/asaidimu/go-fetchxml/core/schema"
)

// QueryBuilder provides a fluent and intuitive API for building QueryDSL structures.
// Successive Where and WhereGroup calls are combined with AND.
type QueryBuilder struct {
	query   QueryDSL
	filters []QueryFilter
}

// NewQueryBuilder creates a new query builder for the given entity.
func NewQueryBuilder(entity string) *QueryBuilder {
	return &QueryBuilder{
		query: QueryDSL{Entity: entity},
	}
}

// Build returns the constructed QueryDSL object. The result does not share
// memory with the builder.
func (qb *QueryBuilder) Build() QueryDSL {
	dsl := cloneDSL(qb.query)
	dsl.Filters = combineFilters(qb.filters)
	return dsl
}

// Clone creates a deep copy of the current query builder, allowing for the creation
// of new queries based on an existing one without modifying the original.
func (qb *QueryBuilder) Clone() *QueryBuilder {
	return &QueryBuilder{
		query:   cloneDSL(qb.query),
		filters: cloneFilters(qb.filters),
	}
}

// Reset clears all configurations except the entity name.
func (qb *QueryBuilder) Reset() *QueryBuilder {
	qb.query = QueryDSL{Entity: qb.query.Entity}
	qb.filters = nil
	return qb
}

func (qb *QueryBuilder) addFilter(filter QueryFilter) *QueryBuilder {
	qb.filters = append(qb.filters, filter)
	return qb
}

// Where begins the construction of a filter condition for a specific field.
func (qb *QueryBuilder) Where(field string) *ConditionBuilder[*QueryBuilder] {
	return newConditionBuilder(field, func(c FilterCondition) *QueryBuilder {
		return qb.addFilter(QueryFilter{Condition: &c})
	})
}

// WhereGroup begins the construction of a group of filter conditions, combined
// with a logical operator (AND or OR).
func (qb *QueryBuilder) WhereGroup(operator schema.LogicalOperator) *FilterGroupBuilder[*QueryBuilder] {
	return &FilterGroupBuilder[*QueryBuilder]{
		operator: operator,
		add:      qb.addFilter,
	}
}

// ConditionBuilder builds a single condition and hands it to its parent P,
// which is returned to continue the chain.
type ConditionBuilder[P any] struct {
	field string
	scope fetchxml.ConditionAttribute
	add   func(FilterCondition) P
}

func newConditionBuilder[P any](field string, add func(FilterCondition) P) *ConditionBuilder[P] {
	return &ConditionBuilder[P]{field: field, add: add}
}

// Linked scopes the condition to the link-entity with the given alias.
func (cb *ConditionBuilder[P]) Linked(alias string) *ConditionBuilder[P] {
	cb.scope.EntityName = alias
	return cb
}

// UI sets the uitype and uiname attributes of the condition.
func (cb *ConditionBuilder[P]) UI(uiType, uiName string) *ConditionBuilder[P] {
	cb.scope.UIType = uiType
	cb.scope.UIName = uiName
	return cb
}

func (cb *ConditionBuilder[P]) Eq(value FilterValue) P {
	return cb.Custom(ComparisonOperatorEq, value)
}

func (cb *ConditionBuilder[P]) Neq(value FilterValue) P {
	return cb.Custom(ComparisonOperatorNeq, value)
}

func (cb *ConditionBuilder[P]) In(values ...FilterValue) P {
	return cb.Custom(ComparisonOperatorIn, values)
}

func (cb *ConditionBuilder[P]) NotIn(values ...FilterValue) P {
	return cb.Custom(ComparisonOperatorNotIn, values)
}

func (cb *ConditionBuilder[P]) Gt(value FilterValue) P {
	return cb.Custom(ComparisonOperatorGt, value)
}

func (cb *ConditionBuilder[P]) Lt(value FilterValue) P {
	return cb.Custom(ComparisonOperatorLt, value)
}

func (cb *ConditionBuilder[P]) Gte(value FilterValue) P {
	return cb.Custom(ComparisonOperatorGte, value)
}

func (cb *ConditionBuilder[P]) Lte(value FilterValue) P {
	return cb.Custom(ComparisonOperatorLte, value)
}

func (cb *ConditionBuilder[P]) Like(value FilterValue) P {
	return cb.Custom(ComparisonOperatorLike, value)
}

func (cb *ConditionBuilder[P]) NotLike(value FilterValue) P {
	return cb.Custom(ComparisonOperatorNotLike, value)
}

func (cb *ConditionBuilder[P]) BeginsWith(value string) P {
	return cb.Custom(ComparisonOperatorBeginsWith, value)
}

func (cb *ConditionBuilder[P]) Null() P {
	return cb.Custom(ComparisonOperatorNull, nil)
}

func (cb *ConditionBuilder[P]) NotNull() P {
	return cb.Custom(ComparisonOperatorNotNull, nil)
}

func (cb *ConditionBuilder[P]) On(date string) P {
	return cb.Custom(ComparisonOperatorOn, date)
}

func (cb *ConditionBuilder[P]) OnOrBefore(date string) P {
	return cb.Custom(ComparisonOperatorOnOrBefore, date)
}

func (cb *ConditionBuilder[P]) OnOrAfter(date string) P {
	return cb.Custom(ComparisonOperatorOnOrAfter, date)
}

func (cb *ConditionBuilder[P]) LastYear() P {
	return cb.Custom(ComparisonOperatorLastYear, nil)
}

func (cb *ConditionBuilder[P]) ThisYear() P {
	return cb.Custom(ComparisonOperatorThisYear, nil)
}

func (cb *ConditionBuilder[P]) NextYear() P {
	return cb.Custom(ComparisonOperatorNextYear, nil)
}

func (cb *ConditionBuilder[P]) Today() P {
	return cb.Custom(ComparisonOperatorToday, nil)
}

// UserID compares a user column against a specific user.
func (cb *ConditionBuilder[P]) UserID(id string) P {
	return cb.Custom(ComparisonOperatorEqUserID, id)
}

// NotUserID is the negation of UserID.
func (cb *ConditionBuilder[P]) NotUserID(id string) P {
	return cb.Custom(ComparisonOperatorNeUserID, id)
}

// CurrentUser compares a user column against the calling user.
func (cb *ConditionBuilder[P]) CurrentUser() P {
	return cb.Custom(ComparisonOperatorEqUserID, nil)
}

// Custom adds a condition with an arbitrary operator code.
func (cb *ConditionBuilder[P]) Custom(operator ComparisonOperator, value FilterValue) P {
	return cb.add(FilterCondition{
		Field:              cb.field,
		Operator:           operator,
		Value:              value,
		ConditionAttribute: cb.scope,
	})
}

// FilterGroupBuilder builds a group of filter conditions and hands it to its
// parent P, either the query or a link-entity, when closed with End.
type FilterGroupBuilder[P any] struct {
	parentGroup *FilterGroupBuilder[P]
	operator    schema.LogicalOperator
	conditions  []QueryFilter
	add         func(QueryFilter) P
}

// Where adds a new condition to the current filter group.
func (fgb *FilterGroupBuilder[P]) Where(field string) *ConditionBuilder[*FilterGroupBuilder[P]] {
	return newConditionBuilder(field, func(c FilterCondition) *FilterGroupBuilder[P] {
		fgb.conditions = append(fgb.conditions, QueryFilter{Condition: &c})
		return fgb
	})
}

// WhereGroup opens a nested group. Close it with EndGroup to return to this
// group.
func (fgb *FilterGroupBuilder[P]) WhereGroup(operator schema.LogicalOperator) *FilterGroupBuilder[P] {
	return &FilterGroupBuilder[P]{
		parentGroup: fgb,
		operator:    operator,
		add:         fgb.add,
	}
}

func (fgb *FilterGroupBuilder[P]) filter() QueryFilter {
	return QueryFilter{Group: &FilterGroup{
		Operator:   fgb.operator,
		Conditions: fgb.conditions,
	}}
}

// EndGroup closes a nested group and returns its enclosing group. It returns
// nil for a top-level group; use End there.
func (fgb *FilterGroupBuilder[P]) EndGroup() *FilterGroupBuilder[P] {
	if fgb.parentGroup == nil {
		return nil
	}
	fgb.parentGroup.conditions = append(fgb.parentGroup.conditions, fgb.filter())
	return fgb.parentGroup
}

// End closes this group, and every enclosing group, and returns to the
// parent builder.
func (fgb *FilterGroupBuilder[P]) End() P {
	if fgb.parentGroup != nil {
		return fgb.EndGroup().End()
	}
	return fgb.add(fgb.filter())
}

// Select adds plain columns to the projection.
func (qb *QueryBuilder) Select(fields ...string) *QueryBuilder {
	qb.query.Projection = addProjection(qb.query.Projection, fields...)
	return qb
}

// SelectField adds a fully described column to the projection.
func (qb *QueryBuilder) SelectField(field ProjectionField) *QueryBuilder {
	if qb.query.Projection == nil {
		qb.query.Projection = &ProjectionConfiguration{}
	}
	qb.query.Projection.Include = append(qb.query.Projection.Include, field)
	return qb
}

// SelectAll requests every column of the entity.
func (qb *QueryBuilder) SelectAll() *QueryBuilder {
	if qb.query.Projection == nil {
		qb.query.Projection = &ProjectionConfiguration{}
	}
	qb.query.Projection.All = true
	return qb
}

func addProjection(p *ProjectionConfiguration, fields ...string) *ProjectionConfiguration {
	if p == nil {
		p = &ProjectionConfiguration{}
	}
	for _, field := range fields {
		p.Include = append(p.Include, ProjectionField{Name: field})
	}
	return p
}

// OrderBy adds a sorting configuration to the query.
func (qb *QueryBuilder) OrderBy(field string, direction SortDirection) *QueryBuilder {
	qb.query.Sort = append(qb.query.Sort, SortConfiguration{
		Field:     field,
		Direction: direction,
	})
	return qb
}

// OrderByAsc adds an ascending sort order for a specific field.
func (qb *QueryBuilder) OrderByAsc(field string) *QueryBuilder {
	return qb.OrderBy(field, SortDirectionAsc)
}

// OrderByDesc adds a descending sort order for a specific field.
func (qb *QueryBuilder) OrderByDesc(field string) *QueryBuilder {
	return qb.OrderBy(field, SortDirectionDesc)
}

// Top sets the maximum number of records to be returned by the query.
func (qb *QueryBuilder) Top(n int) *QueryBuilder {
	qb.query.Top = n
	return qb
}

// Count sets the record count. It is rendered under the same attribute as
// Top and wins over it.
func (qb *QueryBuilder) Count(n int) *QueryBuilder {
	qb.query.Count = n
	return qb
}

// Distinct asks for distinct rows only.
func (qb *QueryBuilder) Distinct() *QueryBuilder {
	qb.query.Distinct = true
	return qb
}

// Aggregate adds an aggregated column and marks the query as an aggregate query.
func (qb *QueryBuilder) Aggregate(aggType AggregationType, field string, alias string) *QueryBuilder {
	qb.query.Aggregate = true
	return qb.SelectField(ProjectionField{Name: field, Alias: alias, Aggregate: aggType})
}

// GroupBy adds a grouping column to an aggregate query.
func (qb *QueryBuilder) GroupBy(field string, alias string) *QueryBuilder {
	qb.query.Aggregate = true
	return qb.SelectField(ProjectionField{Name: field, Alias: alias, GroupBy: true})
}

// Sum adds a sum aggregation to the query.
func (qb *QueryBuilder) Sum(field string, alias string) *QueryBuilder {
	return qb.Aggregate(AggregationTypeSum, field, alias)
}

// Avg adds an average aggregation to the query.
func (qb *QueryBuilder) Avg(field string, alias string) *QueryBuilder {
	return qb.Aggregate(AggregationTypeAvg, field, alias)
}

// Min adds a minimum aggregation to the query.
func (qb *QueryBuilder) Min(field string, alias string) *QueryBuilder {
	return qb.Aggregate(AggregationTypeMin, field, alias)
}

// Max adds a maximum aggregation to the query.
func (qb *QueryBuilder) Max(field string, alias string) *QueryBuilder {
	return qb.Aggregate(AggregationTypeMax, field, alias)
}

// CountRows adds a count aggregation to the query.
func (qb *QueryBuilder) CountRows(field string, alias string) *QueryBuilder {
	return qb.Aggregate(AggregationTypeCount, field, alias)
}

// JoinBuilder is used to build a link-entity.
type JoinBuilder struct {
	parent     *QueryBuilder
	parentJoin *JoinBuilder
	link       LinkConfiguration
	filters    []QueryFilter
}

// Join begins the construction of a link to another entity. from is the
// column on the linked entity, to the column on this one.
func (qb *QueryBuilder) Join(joinType JoinType, entity, from, to string) *JoinBuilder {
	return &JoinBuilder{
		parent: qb,
		link: LinkConfiguration{
			Type:   joinType,
			Entity: entity,
			From:   from,
			To:     to,
		},
	}
}

// InnerJoin creates an inner link-entity.
func (qb *QueryBuilder) InnerJoin(entity, from, to string) *JoinBuilder {
	return qb.Join(JoinTypeInner, entity, from, to)
}

// OuterJoin creates an outer link-entity.
func (qb *QueryBuilder) OuterJoin(entity, from, to string) *JoinBuilder {
	return qb.Join(JoinTypeOuter, entity, from, to)
}

// Alias sets an alias for the linked entity.
func (jb *JoinBuilder) Alias(alias string) *JoinBuilder {
	jb.link.Alias = alias
	return jb
}

// Intersect marks the link as an intersect link.
func (jb *JoinBuilder) Intersect() *JoinBuilder {
	jb.link.Intersect = true
	return jb
}

// Select adds columns of the linked entity to the result.
func (jb *JoinBuilder) Select(fields ...string) *JoinBuilder {
	jb.link.Projection = addProjection(jb.link.Projection, fields...)
	return jb
}

// SelectAll returns every column of the linked entity.
func (jb *JoinBuilder) SelectAll() *JoinBuilder {
	if jb.link.Projection == nil {
		jb.link.Projection = &ProjectionConfiguration{}
	}
	jb.link.Projection.All = true
	return jb
}

// Where adds a condition evaluated inside the link-entity.
func (jb *JoinBuilder) Where(field string) *ConditionBuilder[*JoinBuilder] {
	return newConditionBuilder(field, func(c FilterCondition) *JoinBuilder {
		jb.filters = append(jb.filters, QueryFilter{Condition: &c})
		return jb
	})
}

// WhereGroup opens a group of conditions evaluated inside the link-entity.
// End on the group returns to this link.
func (jb *JoinBuilder) WhereGroup(operator schema.LogicalOperator) *FilterGroupBuilder[*JoinBuilder] {
	return &FilterGroupBuilder[*JoinBuilder]{
		operator: operator,
		add: func(f QueryFilter) *JoinBuilder {
			jb.filters = append(jb.filters, f)
			return jb
		},
	}
}

// OrderByAsc sorts by a column of the linked entity.
func (jb *JoinBuilder) OrderByAsc(field string) *JoinBuilder {
	jb.link.Sort = append(jb.link.Sort, SortConfiguration{Field: field, Direction: SortDirectionAsc})
	return jb
}

// OrderByDesc sorts descending by a column of the linked entity.
func (jb *JoinBuilder) OrderByDesc(field string) *JoinBuilder {
	jb.link.Sort = append(jb.link.Sort, SortConfiguration{Field: field, Direction: SortDirectionDesc})
	return jb
}

// Join opens a link nested inside this one. Close it with Up.
func (jb *JoinBuilder) Join(joinType JoinType, entity, from, to string) *JoinBuilder {
	child := jb.parent.Join(joinType, entity, from, to)
	child.parentJoin = jb
	return child
}

func (jb *JoinBuilder) finalize() LinkConfiguration {
	link := jb.link
	link.Filters = combineFilters(jb.filters)
	return link
}

// Up closes a nested link and returns the enclosing one. It returns nil for a
// top-level link.
func (jb *JoinBuilder) Up() *JoinBuilder {
	if jb.parentJoin == nil {
		return nil
	}
	jb.parentJoin.link.Links = append(jb.parentJoin.link.Links, jb.finalize())
	return jb.parentJoin
}

// End closes this link, and every enclosing link, and returns to the query
// builder.
func (jb *JoinBuilder) End() *QueryBuilder {
	if jb.parentJoin != nil {
		return jb.Up().End()
	}
	jb.parent.query.Links = append(jb.parent.query.Links, jb.finalize())
	return jb.parent
}

// QueryValidationError represents an error found during query validation.
type QueryValidationError struct {
	Field   string
	Message string
}

// Error returns the error message for a QueryValidationError.
func (ve QueryValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// QueryValidationResult contains the results of a query validation.
type QueryValidationResult struct {
	IsValid bool
	Errors  []QueryValidationError
}

// Validate checks the built query for structural mistakes: a missing entity,
// negative limits, ambiguous top/count, incomplete links and aggregate
// columns without an alias.
func (qb *QueryBuilder) Validate() QueryValidationResult {
	dsl := qb.Build()
	return ValidateDSL(&dsl)
}

// ValidateDSL runs the same checks as QueryBuilder.Validate on a decoded query.
func ValidateDSL(dsl *QueryDSL) QueryValidationResult {
	var errors []QueryValidationError

	if dsl.Entity == "" {
		errors = append(errors, QueryValidationError{Field: "entity", Message: "entity cannot be empty"})
	}
	if dsl.Top < 0 {
		errors = append(errors, QueryValidationError{Field: "top", Message: "top cannot be negative"})
	}
	if dsl.Count < 0 {
		errors = append(errors, QueryValidationError{Field: "count", Message: "count cannot be negative"})
	}
	if dsl.Top > 0 && dsl.Count > 0 {
		errors = append(errors, QueryValidationError{Field: "count", Message: "count and top are both rendered as top; count wins"})
	}

	errors = append(errors, validateProjection("projection", dsl.Projection, dsl.Aggregate)...)
	for i, link := range dsl.Links {
		errors = append(errors, validateLink(fmt.Sprintf("links[%d]", i), link, dsl.Aggregate)...)
	}
	for i, s := range dsl.Sort {
		if s.Field == "" {
			errors = append(errors, QueryValidationError{Field: fmt.Sprintf("sort[%d].field", i), Message: "field cannot be empty"})
		}
	}

	return QueryValidationResult{
		IsValid: len(errors) == 0,
		Errors:  errors,
	}
}

func validateProjection(path string, p *ProjectionConfiguration, aggregate bool) []QueryValidationError {
	if p == nil {
		return nil
	}
	var errors []QueryValidationError
	for i, field := range p.Include {
		fieldPath := fmt.Sprintf("%s.include[%d]", path, i)
		if field.Name == "" {
			errors = append(errors, QueryValidationError{Field: fieldPath + ".name", Message: "name cannot be empty"})
		}
		if (field.Aggregate != "" || field.GroupBy) && field.Alias == "" {
			errors = append(errors, QueryValidationError{Field: fieldPath + ".alias", Message: "alias is required for aggregate and group-by columns"})
		}
		if field.Aggregate != "" && !aggregate {
			errors = append(errors, QueryValidationError{Field: fieldPath + ".aggregate", Message: "aggregate columns require an aggregate query"})
		}
	}
	return errors
}

func validateLink(path string, link LinkConfiguration, aggregate bool) []QueryValidationError {
	var errors []QueryValidationError
	if link.Entity == "" {
		errors = append(errors, QueryValidationError{Field: path + ".entity", Message: "entity cannot be empty"})
	}
	if link.From == "" {
		errors = append(errors, QueryValidationError{Field: path + ".from", Message: "from cannot be empty"})
	}
	if link.To == "" {
		errors = append(errors, QueryValidationError{Field: path + ".to", Message: "to cannot be empty"})
	}
	if link.Type != "" && link.Type != JoinTypeInner && link.Type != JoinTypeOuter {
		errors = append(errors, QueryValidationError{Field: path + ".type", Message: fmt.Sprintf("unknown join type %q", link.Type)})
	}
	errors = append(errors, validateProjection(path+".projection", link.Projection, aggregate)...)
	for i, child := range link.Links {
		errors = append(errors, validateLink(fmt.Sprintf("%s.links[%d]", path, i), child, aggregate)...)
	}
	return errors
}

// String returns a human-readable representation of the built query.
func (qb *QueryBuilder) String() string {
	parts := []string{fmt.Sprintf("ENTITY: %s", qb.query.Entity)}

	if qb.query.Projection != nil {
		if qb.query.Projection.All {
			parts = append(parts, "SELECT: *")
		} else if len(qb.query.Projection.Include) > 0 {
			fields := make([]string, len(qb.query.Projection.Include))
			for i, field := range qb.query.Projection.Include {
				fields[i] = field.Name
			}
			parts = append(parts, fmt.Sprintf("SELECT: %s", strings.Join(fields, ", ")))
		}
	}

	if len(qb.filters) > 0 {
		parts = append(parts, fmt.Sprintf("FILTERS: %d", len(qb.filters)))
	}

	if len(qb.query.Links) > 0 {
		parts = append(parts, fmt.Sprintf("LINKS: %d", len(qb.query.Links)))
	}

	if len(qb.query.Sort) > 0 {
		sortFields := make([]string, len(qb.query.Sort))
		for i, sort := range qb.query.Sort {
			sortFields[i] = fmt.Sprintf("%s %s", sort.Field, sort.Direction)
		}
		parts = append(parts, fmt.Sprintf("ORDER BY: %s", strings.Join(sortFields, ", ")))
	}

	if qb.query.Top > 0 {
		parts = append(parts, fmt.Sprintf("TOP: %d", qb.query.Top))
	}
	if qb.query.Count > 0 {
		parts = append(parts, fmt.Sprintf("COUNT: %d", qb.query.Count))
	}

	return strings.Join(parts, " | ")
}

// CreateSimpleFilter is a helper function to create a simple filter condition.
func CreateSimpleFilter(field string, operator ComparisonOperator, value FilterValue) QueryFilter {
	return QueryFilter{
		Condition: &FilterCondition{
			Field:    field,
			Operator: operator,
			Value:    value,
		},
	}
}

// CreateFilterGroup is a helper function to create a filter group.
func CreateFilterGroup(operator schema.LogicalOperator, conditions ...QueryFilter) QueryFilter {
	return QueryFilter{
		Group: &FilterGroup{
			Operator:   operator,
			Conditions: conditions,
		},
	}
}

func combineFilters(filters []QueryFilter) *QueryFilter {
	switch len(filters) {
	case 0:
		return nil
	case 1:
		f := cloneFilter(filters[0])
		return &f
	default:
		f := CreateFilterGroup(schema.LogicalAnd, cloneFilters(filters)...)
		return &f
	}
}
