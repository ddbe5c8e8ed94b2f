// Package dataverse renders QueryDSL values into FetchXML. The generator is
// schema-aware: the category of every column decides which operator variant
// renders its conditions and which comparisons it accepts.
package dataverse

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/asaidimu/go-fetchxml/core/fetchxml"
	"github.com/asaidimu/go-fetchxml/core/query"
	"github.com/asaidimu/go-fetchxml/core/schema"
	"go.uber.org/zap"
)

var (
	ErrInvalidQuery        = errors.New("invalid query")
	ErrUnknownField        = errors.New("unknown field")
	ErrUnknownAlias        = errors.New("unknown link-entity alias")
	ErrUnsupportedOperator = errors.New("unsupported operator")
	ErrInvalidValue        = errors.New("invalid value")
)

// FetchQueryFactory implements query.QueryGeneratorFactory.
type FetchQueryFactory struct {
	opts []Option
}

// NewFetchQueryFactory creates a factory whose generators share opts.
func NewFetchQueryFactory(opts ...Option) *FetchQueryFactory {
	return &FetchQueryFactory{opts: opts}
}

// CreateGenerator creates a FetchQuery for the given entity.
func (f *FetchQueryFactory) CreateGenerator(entity *schema.EntityDefinition) (query.QueryGenerator, error) {
	g, err := NewFetchQuery(entity, f.opts...)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Option configures a FetchQuery.
type Option func(*FetchQuery)

// WithLogger sets the logger used to report generated documents and failures.
func WithLogger(logger *zap.Logger) Option {
	return func(q *FetchQuery) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithLinkedEntity registers the schema of an entity that queries may join
// to. Columns of linked entities without a registered schema are not
// checked; their category is inferred from the operator.
func WithLinkedEntity(entity *schema.EntityDefinition) Option {
	return func(q *FetchQuery) {
		if entity != nil {
			q.linked[entity.Name] = entity
		}
	}
}

// FetchQuery is a schema-aware FetchXML generator. It is immutable after
// construction and safe for concurrent use.
type FetchQuery struct {
	entity *schema.EntityDefinition
	linked map[string]*schema.EntityDefinition
	logger *zap.Logger
}

// NewFetchQuery creates a generator for the given root entity.
func NewFetchQuery(entity *schema.EntityDefinition, opts ...Option) (*FetchQuery, error) {
	if entity == nil {
		return nil, errors.New("EntityDefinition cannot be nil")
	}
	if errs := entity.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid schema for entity %q: %w", entity.Name, errs[0])
	}
	q := &FetchQuery{
		entity: entity,
		linked: make(map[string]*schema.EntityDefinition),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	for name, def := range q.linked {
		if errs := def.Validate(); len(errs) > 0 {
			return nil, fmt.Errorf("invalid schema for linked entity %q: %w", name, errs[0])
		}
	}
	return q, nil
}

// scope is the entity a part of the query is rendered against, plus the
// aliases visible to its conditions.
type scope struct {
	entity  string
	def     *schema.EntityDefinition
	aliases map[string]*schema.EntityDefinition
}

// GenerateFetchXML creates a complete FetchXML document from a QueryDSL.
func (q *FetchQuery) GenerateFetchXML(dsl *query.QueryDSL) (string, error) {
	doc, err := q.generate(dsl)
	if err != nil {
		q.logger.Error("Failed to generate FetchXML", zap.String("entity", q.entity.Name), zap.Error(err))
		return "", err
	}
	q.logger.Debug("Generated FetchXML", zap.String("entity", q.entity.Name), zap.String("fetchxml", doc))
	return doc, nil
}

func (q *FetchQuery) generate(dsl *query.QueryDSL) (string, error) {
	if dsl == nil {
		return "", fmt.Errorf("%w: QueryDSL cannot be nil", ErrInvalidQuery)
	}
	if dsl.Entity != "" && dsl.Entity != q.entity.Name {
		return "", fmt.Errorf("%w: query targets %q but generator is bound to %q", ErrInvalidQuery, dsl.Entity, q.entity.Name)
	}

	aliases := make(map[string]*schema.EntityDefinition)
	if err := q.collectAliases(dsl.Links, aliases); err != nil {
		return "", err
	}
	root := scope{entity: q.entity.Name, def: q.entity, aliases: aliases}

	body, err := q.buildBody(root, dsl.Projection, dsl.Filters, dsl.Sort, dsl.Links)
	if err != nil {
		return "", err
	}

	opts := fetchxml.FetchOptions{
		Entity:    q.entity.Name,
		Distinct:  dsl.Distinct,
		Aggregate: dsl.Aggregate,
		Top:       dsl.Top,
		Count:     dsl.Count,
	}
	return fetchxml.FetchXML(opts, body...), nil
}

// collectAliases maps every link alias to the linked entity's schema, which
// is nil when no schema was registered for it.
func (q *FetchQuery) collectAliases(links []query.LinkConfiguration, aliases map[string]*schema.EntityDefinition) error {
	for _, link := range links {
		if link.Alias != "" {
			if _, dup := aliases[link.Alias]; dup {
				return fmt.Errorf("%w: alias %q is used by more than one link-entity", ErrInvalidQuery, link.Alias)
			}
			aliases[link.Alias] = q.linked[link.Entity]
		}
		if err := q.collectAliases(link.Links, aliases); err != nil {
			return err
		}
	}
	return nil
}

// buildBody renders the children of an entity or link-entity element in
// document order: attributes, filter, orders, nested links.
func (q *FetchQuery) buildBody(sc scope, projection *query.ProjectionConfiguration, filters *query.QueryFilter, sort []query.SortConfiguration, links []query.LinkConfiguration) ([]string, error) {
	var body []string

	attrs, err := q.buildProjection(sc, projection)
	if err != nil {
		return nil, fmt.Errorf("projection error: %w", err)
	}
	if attrs != "" {
		body = append(body, attrs)
	}

	if filters != nil {
		filter, err := q.buildFilter(sc, filters)
		if err != nil {
			return nil, fmt.Errorf("error building filter: %w", err)
		}
		if filter != "" {
			body = append(body, wrapFilter(filter))
		}
	}

	orders, err := q.buildSort(sc, sort)
	if err != nil {
		return nil, fmt.Errorf("sort error: %w", err)
	}
	if orders != "" {
		body = append(body, orders)
	}

	for i, link := range links {
		element, err := q.buildLink(sc, link)
		if err != nil {
			return nil, fmt.Errorf("link-entity %d (%s): %w", i, link.Entity, err)
		}
		body = append(body, element)
	}
	return body, nil
}

// wrapFilter guarantees the fragment placed under an entity is a filter
// element; a lone condition is not valid there.
func wrapFilter(fragment string) string {
	if strings.HasPrefix(fragment, "<filter") {
		return fragment
	}
	return fetchxml.FilterAnd(fragment)
}

func (q *FetchQuery) lookupField(sc scope, name string) (*schema.FieldDefinition, error) {
	if sc.def == nil {
		return nil, nil
	}
	field := sc.def.FindField(name)
	if field == nil {
		return nil, fmt.Errorf("%w: '%s' not found in entity %s", ErrUnknownField, name, sc.entity)
	}
	return field, nil
}

func (q *FetchQuery) buildProjection(sc scope, p *query.ProjectionConfiguration) (string, error) {
	if p == nil {
		return "", nil
	}
	if p.All {
		return fetchxml.AllAttributes(), nil
	}
	specs := make([]fetchxml.AttributeSpec, 0, len(p.Include))
	for _, field := range p.Include {
		if _, err := q.lookupField(sc, field.Name); err != nil {
			return "", err
		}
		attr := fetchxml.Attribute{
			Name:      field.Name,
			Alias:     field.Alias,
			Aggregate: fetchxml.AggregateType(field.Aggregate),
			Distinct:  field.Distinct,
		}
		if field.GroupBy {
			attr.GroupBy = "true"
		}
		specs = append(specs, attr)
	}
	return fetchxml.Attributes(specs...), nil
}

func (q *FetchQuery) buildSort(sc scope, sort []query.SortConfiguration) (string, error) {
	orders := make([]fetchxml.Order, 0, len(sort))
	for _, s := range sort {
		if _, err := q.lookupField(sc, s.Field); err != nil {
			return "", err
		}
		switch s.Direction {
		case "", query.SortDirectionAsc:
			orders = append(orders, fetchxml.Order{LogicalName: s.Field})
		case query.SortDirectionDesc:
			orders = append(orders, fetchxml.Order{LogicalName: s.Field, Desc: true})
		default:
			return "", fmt.Errorf("%w: unknown sort direction %q for '%s'", ErrInvalidQuery, s.Direction, s.Field)
		}
	}
	return fetchxml.OrderBy(orders...), nil
}

func (q *FetchQuery) buildLink(parent scope, link query.LinkConfiguration) (string, error) {
	var linkType fetchxml.LinkType
	switch link.Type {
	case "":
	case query.JoinTypeInner:
		linkType = fetchxml.LinkTypeInner
	case query.JoinTypeOuter:
		linkType = fetchxml.LinkTypeOuter
	default:
		return "", fmt.Errorf("%w: unknown join type %q", ErrInvalidQuery, link.Type)
	}
	if link.Entity == "" || link.From == "" || link.To == "" {
		return "", fmt.Errorf("%w: link-entity requires entity, from and to", ErrInvalidQuery)
	}
	if _, err := q.lookupField(parent, link.To); err != nil {
		return "", err
	}

	sc := scope{entity: link.Entity, def: q.linked[link.Entity], aliases: parent.aliases}
	if _, err := q.lookupField(sc, link.From); err != nil {
		return "", err
	}

	children, err := q.buildBody(sc, link.Projection, link.Filters, link.Sort, link.Links)
	if err != nil {
		return "", err
	}
	return fetchxml.LinkEntity(fetchxml.LinkEntityOptions{
		Type:      linkType,
		Entity:    link.Entity,
		From:      link.From,
		To:        link.To,
		Alias:     link.Alias,
		Intersect: link.Intersect,
	}, children...), nil
}

// buildFilter recursively renders a filter. AND groups go through a
// FilterBuilder, OR groups are flat.
func (q *FetchQuery) buildFilter(sc scope, filter *query.QueryFilter) (string, error) {
	if filter.Condition != nil {
		return q.buildCondition(sc, filter.Condition)
	}
	if filter.Group != nil {
		var clauses []string
		for i := range filter.Group.Conditions {
			clause, err := q.buildFilter(sc, &filter.Group.Conditions[i])
			if err != nil {
				return "", err
			}
			if clause != "" {
				clauses = append(clauses, clause)
			}
		}
		if len(clauses) == 0 {
			return "", nil
		}
		switch filter.Group.Operator {
		case schema.LogicalAnd:
			fb := fetchxml.NewFilterBuilder()
			for _, clause := range clauses {
				fb.AddQuery(clause)
			}
			return fb.ToFilterElement(), nil
		case schema.LogicalOr:
			return fetchxml.FilterOr(clauses...), nil
		case "":
			return "", fmt.Errorf("%w: logical operator missing in filter group", ErrInvalidQuery)
		default:
			return "", fmt.Errorf("%w: unsupported logical operator %q", ErrUnsupportedOperator, filter.Group.Operator)
		}
	}
	return "", fmt.Errorf("%w: neither Condition nor Group is set", ErrInvalidQuery)
}

func (q *FetchQuery) buildCondition(sc scope, cond *query.FilterCondition) (string, error) {
	if !cond.Operator.IsStandard() {
		return "", fmt.Errorf("%w: unknown operator '%s' on '%s'", ErrUnsupportedOperator, cond.Operator, cond.Field)
	}
	target := sc
	if cond.EntityName != "" {
		def, ok := sc.aliases[cond.EntityName]
		if !ok {
			return "", fmt.Errorf("%w: '%s' used by condition on '%s'", ErrUnknownAlias, cond.EntityName, cond.Field)
		}
		target = scope{entity: cond.EntityName, def: def, aliases: sc.aliases}
	}

	columnType := inferColumnType(cond.Operator)
	field, err := q.lookupField(target, cond.Field)
	if err != nil {
		return "", err
	}
	if field != nil {
		columnType = field.Type
	} else {
		q.logger.Debug("Column category inferred from operator",
			zap.String("field", cond.Field),
			zap.String("operator", string(cond.Operator)),
			zap.String("category", string(columnType)))
	}

	fragment, err := renderCondition(columnType, cond)
	if err != nil {
		return "", fmt.Errorf("condition on '%s': %w", cond.Field, err)
	}
	return fragment, nil
}

// inferColumnType picks the narrowest category supporting operator, used
// when no schema describes the column.
func inferColumnType(operator query.ComparisonOperator) schema.ColumnType {
	switch operator {
	case query.ComparisonOperatorGt, query.ComparisonOperatorLt, query.ComparisonOperatorGte, query.ComparisonOperatorLte:
		return schema.ColumnTypeNumber
	case query.ComparisonOperatorLike, query.ComparisonOperatorNotLike, query.ComparisonOperatorBeginsWith:
		return schema.ColumnTypeText
	case query.ComparisonOperatorOn, query.ComparisonOperatorOnOrBefore, query.ComparisonOperatorOnOrAfter,
		query.ComparisonOperatorLastYear, query.ComparisonOperatorThisYear, query.ComparisonOperatorNextYear,
		query.ComparisonOperatorToday:
		return schema.ColumnTypeDate
	case query.ComparisonOperatorEqUserID, query.ComparisonOperatorNeUserID:
		return schema.ColumnTypeUser
	default:
		return schema.ColumnTypeChoice
	}
}

func unsupported(columnType schema.ColumnType, operator query.ComparisonOperator) error {
	return fmt.Errorf("%w: %s columns do not support '%s'", ErrUnsupportedOperator, columnType, operator)
}

// renderCondition selects the operator variant for the column category and
// renders one condition.
func renderCondition(columnType schema.ColumnType, cond *query.FilterCondition) (string, error) {
	attrs := cond.ConditionAttribute
	switch cond.Operator {
	case query.ComparisonOperatorNull:
		return fetchxml.IDColumn(cond.Field, attrs).IsNull(), nil
	case query.ComparisonOperatorNotNull:
		return fetchxml.IDColumn(cond.Field, attrs).IsNotNull(), nil
	}

	switch columnType {
	case schema.ColumnTypeID, schema.ColumnTypeChoice:
		return renderColumn(fetchxml.ChoiceColumn(cond.Field, attrs), columnType, cond)
	case schema.ColumnTypeNumber:
		return renderNumber(fetchxml.NumberColumn(cond.Field, attrs), cond)
	case schema.ColumnTypeText:
		return renderText(fetchxml.TextColumn(cond.Field, attrs), cond)
	case schema.ColumnTypeBoolean:
		return renderBoolean(fetchxml.BooleanColumn(cond.Field, attrs), cond)
	case schema.ColumnTypeDate:
		return renderDate(fetchxml.DateColumn(cond.Field, attrs), cond)
	case schema.ColumnTypeLookup:
		return renderLookup(fetchxml.LookupColumn(cond.Field, attrs), cond)
	case schema.ColumnTypeUser:
		return renderUser(fetchxml.UserColumn(cond.Field, attrs), cond)
	default:
		return "", fmt.Errorf("%w: unknown column type %q", ErrInvalidQuery, columnType)
	}
}

func renderColumn(op fetchxml.ColumnOperator, columnType schema.ColumnType, cond *query.FilterCondition) (string, error) {
	switch cond.Operator {
	case query.ComparisonOperatorEq, query.ComparisonOperatorNeq:
		value, err := scalar(cond.Value)
		if err != nil {
			return "", err
		}
		if cond.Operator == query.ComparisonOperatorEq {
			return op.EqualTo(value), nil
		}
		return op.NotEqualTo(value), nil
	case query.ComparisonOperatorIn, query.ComparisonOperatorNotIn:
		values, err := list(cond.Value)
		if err != nil {
			return "", err
		}
		if cond.Operator == query.ComparisonOperatorIn {
			return op.In(values...), nil
		}
		return op.NotIn(values...), nil
	default:
		return "", unsupported(columnType, cond.Operator)
	}
}

func renderNumber(op fetchxml.NumberOperator, cond *query.FilterCondition) (string, error) {
	var render func(any) string
	switch cond.Operator {
	case query.ComparisonOperatorGt:
		render = op.GreaterThan
	case query.ComparisonOperatorLt:
		render = op.LessThan
	case query.ComparisonOperatorGte:
		render = op.GreaterThanOrEqualTo
	case query.ComparisonOperatorLte:
		render = op.LessThanOrEqualTo
	case query.ComparisonOperatorEq:
		render = op.EqualTo
	case query.ComparisonOperatorNeq:
		render = op.NotEqualTo
	case query.ComparisonOperatorIn, query.ComparisonOperatorNotIn:
		values, err := list(cond.Value)
		if err != nil {
			return "", err
		}
		for _, v := range values {
			if _, ok := query.ToFloat64(v); !ok {
				return "", fmt.Errorf("%w: expected numbers, got %T", ErrInvalidValue, v)
			}
		}
		return renderColumn(op.ColumnOperator, schema.ColumnTypeNumber, cond)
	default:
		return "", unsupported(schema.ColumnTypeNumber, cond.Operator)
	}
	if _, ok := query.ToFloat64(cond.Value); !ok {
		return "", fmt.Errorf("%w: expected a number, got %T", ErrInvalidValue, cond.Value)
	}
	return render(cond.Value), nil
}

func renderText(op fetchxml.TextOperator, cond *query.FilterCondition) (string, error) {
	switch cond.Operator {
	case query.ComparisonOperatorLike, query.ComparisonOperatorNotLike, query.ComparisonOperatorBeginsWith:
		value, err := scalar(cond.Value)
		if err != nil {
			return "", err
		}
		switch cond.Operator {
		case query.ComparisonOperatorLike:
			return op.Like(value), nil
		case query.ComparisonOperatorNotLike:
			return op.NotLike(value), nil
		default:
			return op.BeginsWith(fmt.Sprint(value)), nil
		}
	default:
		return renderColumn(op.ColumnOperator, schema.ColumnTypeText, cond)
	}
}

func renderBoolean(op fetchxml.BooleanOperator, cond *query.FilterCondition) (string, error) {
	if cond.Operator != query.ComparisonOperatorEq && cond.Operator != query.ComparisonOperatorNeq {
		return "", unsupported(schema.ColumnTypeBoolean, cond.Operator)
	}
	value, ok := toBool(cond.Value)
	if !ok {
		return "", fmt.Errorf("%w: expected a boolean, got %v", ErrInvalidValue, cond.Value)
	}
	if cond.Operator == query.ComparisonOperatorNeq {
		value = !value
	}
	if value {
		return op.IsTrue(), nil
	}
	return op.IsFalse(), nil
}

func renderDate(op fetchxml.DateOperator, cond *query.FilterCondition) (string, error) {
	switch cond.Operator {
	case query.ComparisonOperatorLastYear:
		return op.LastYear(), nil
	case query.ComparisonOperatorThisYear:
		return op.ThisYear(), nil
	case query.ComparisonOperatorNextYear:
		return op.NextYear(), nil
	case query.ComparisonOperatorToday:
		return op.IsToday(), nil
	}

	var render func(string) string
	switch cond.Operator {
	case query.ComparisonOperatorOn:
		render = op.On
	case query.ComparisonOperatorOnOrBefore:
		render = op.OnOrBefore
	case query.ComparisonOperatorOnOrAfter:
		render = op.OnOrAfter
	default:
		return "", unsupported(schema.ColumnTypeDate, cond.Operator)
	}
	value, err := dateValue(cond.Value)
	if err != nil {
		return "", err
	}
	return render(value), nil
}

func renderLookup(op fetchxml.LookupOperator, cond *query.FilterCondition) (string, error) {
	switch cond.Operator {
	case query.ComparisonOperatorEq:
		id, err := identifier(cond.Value)
		if err != nil {
			return "", err
		}
		return op.IDEqualTo(id), nil
	case query.ComparisonOperatorIn:
		values, err := list(cond.Value)
		if err != nil {
			return "", err
		}
		ids := make([]string, len(values))
		for i, v := range values {
			if ids[i], err = identifier(v); err != nil {
				return "", err
			}
		}
		return op.IDIn(ids...), nil
	default:
		return "", unsupported(schema.ColumnTypeLookup, cond.Operator)
	}
}

func renderUser(op fetchxml.UserOperator, cond *query.FilterCondition) (string, error) {
	switch cond.Operator {
	case query.ComparisonOperatorEqUserID:
		if cond.Value == nil {
			return op.EqualToCurrentUser(), nil
		}
		id, err := identifier(cond.Value)
		if err != nil {
			return "", err
		}
		return op.IDEqualTo(id), nil
	case query.ComparisonOperatorNeUserID:
		id, err := identifier(cond.Value)
		if err != nil {
			return "", err
		}
		return op.IDNotEqualTo(id), nil
	default:
		return "", unsupported(schema.ColumnTypeUser, cond.Operator)
	}
}

func scalar(v query.FilterValue) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: value is required", ErrInvalidValue)
	}
	if _, isList := query.ToValueList(v); isList {
		return nil, fmt.Errorf("%w: expected a single value, got %T", ErrInvalidValue, v)
	}
	return v, nil
}

func list(v query.FilterValue) ([]any, error) {
	values, ok := query.ToValueList(v)
	if !ok {
		return nil, fmt.Errorf("%w: expected a list, got %T", ErrInvalidValue, v)
	}
	return values, nil
}

func identifier(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case fmt.Stringer:
		return val.String(), nil
	default:
		return "", fmt.Errorf("%w: expected an identifier, got %T", ErrInvalidValue, v)
	}
}

func dateValue(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case time.Time:
		// A date without a time of day is written as a plain date.
		if h, m, sec := val.Clock(); h == 0 && m == 0 && sec == 0 && val.Nanosecond() == 0 {
			return val.Format(time.DateOnly), nil
		}
		return val.Format(time.RFC3339), nil
	default:
		return "", fmt.Errorf("%w: expected a date, got %T", ErrInvalidValue, v)
	}
}

func toBool(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		switch val {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
		return false, false
	default:
		f, ok := query.ToFloat64(v)
		if !ok || (f != 0 && f != 1) {
			return false, false
		}
		return f == 1, true
	}
}
