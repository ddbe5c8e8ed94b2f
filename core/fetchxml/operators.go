package fetchxml

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator codes understood by the consuming system. These strings are part of
// the wire contract and must not change.
const (
	opEqual          = "eq"
	opNotEqual       = "ne"
	opIn             = "in"
	opNotIn          = "not-in"
	opGreaterThan    = "gt"
	opLessThan       = "lt"
	opGreaterOrEqual = "eq-or-above"
	opLessOrEqual    = "eq-or-under"
	opLike           = "like"
	opNotLike        = "not-like"
	opBeginsWith     = "begins-with"
	opNull           = "null"
	opNotNull        = "not-null"
	opOn             = "on"
	opOnOrBefore     = "on-or-before"
	opOnOrAfter      = "on-or-after"
	opLastYear       = "last-year"
	opThisYear       = "this-year"
	opNextYear       = "next-year"
	opToday          = "today"
	opEqualUserID    = "eq-userid"
	opNotEqualUserID = "ne-userid"
)

// SystemUserType is the uitype stamped on user identity equality conditions.
const SystemUserType = "systemuser"

// ConditionAttribute scopes a condition to a linked entity. All fields are
// optional; empty fields are left out of the rendered condition.
type ConditionAttribute struct {
	// EntityName is the alias of the linked entity the column belongs to.
	EntityName string `json:"entityname,omitempty" yaml:"entityname,omitempty"`
	// UIType is the logical entity type of the column.
	UIType string `json:"uitype,omitempty" yaml:"uitype,omitempty"`
	// UIName is the logical name of the column as shown to users.
	UIName string `json:"uiname,omitempty" yaml:"uiname,omitempty"`
}

func (a ConditionAttribute) render(sb *strings.Builder) {
	if a.UIType != "" {
		fmt.Fprintf(sb, " uitype='%s'", a.UIType)
	}
	if a.UIName != "" {
		fmt.Fprintf(sb, " uiname='%s'", a.UIName)
	}
	if a.EntityName != "" {
		fmt.Fprintf(sb, " entityname='%s'", a.EntityName)
	}
}

// Condition is the capability shared by every operator variant.
type Condition interface {
	LogicalName() string
	IsNull() string
	IsNotNull() string
}

// Operator is the base of every column operator. On its own it can only test
// whether a column holds a value.
type Operator struct {
	logicalName string
	attrs       ConditionAttribute
}

func newOperator(logicalName string, attrs []ConditionAttribute) Operator {
	op := Operator{logicalName: logicalName}
	if len(attrs) > 0 {
		op.attrs = attrs[0]
	}
	return op
}

// LogicalName returns the column the operator compares.
func (o Operator) LogicalName() string {
	return o.logicalName
}

// IsNull checks whether the column has no value.
func (o Operator) IsNull() string {
	return o.condition(opNull)
}

// IsNotNull checks whether the column has a value.
func (o Operator) IsNotNull() string {
	return o.condition(opNotNull)
}

func (o Operator) open(sb *strings.Builder, operator string) {
	fmt.Fprintf(sb, "<condition attribute='%s' operator='%s'", o.logicalName, operator)
}

func (o Operator) condition(operator string) string {
	var sb strings.Builder
	o.open(&sb, operator)
	o.attrs.render(&sb)
	sb.WriteString("/>")
	return sb.String()
}

func (o Operator) conditionValue(operator string, value any) string {
	return o.conditionValueWith(operator, value, o.attrs)
}

func (o Operator) conditionValueWith(operator string, value any, attrs ConditionAttribute) string {
	var sb strings.Builder
	o.open(&sb, operator)
	fmt.Fprintf(&sb, " value='%s'", formatValue(value))
	attrs.render(&sb)
	sb.WriteString("/>")
	return sb.String()
}

// formatValue writes floats in plain decimal notation; everything else uses
// its default format.
func formatValue(v any) string {
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

func (o Operator) conditionList(operator string, values []any) string {
	var sb strings.Builder
	o.open(&sb, operator)
	o.attrs.render(&sb)
	sb.WriteByte('>')
	for _, v := range values {
		fmt.Fprintf(&sb, "<value>%s</value>", formatValue(v))
	}
	sb.WriteString("</condition>")
	return sb.String()
}

// ColumnOperator compares a column for equality and set membership.
type ColumnOperator struct {
	Operator
}

// EqualTo checks whether the column equals value.
func (o ColumnOperator) EqualTo(value any) string {
	return o.conditionValue(opEqual, value)
}

// NotEqualTo checks whether the column differs from value.
func (o ColumnOperator) NotEqualTo(value any) string {
	return o.conditionValue(opNotEqual, value)
}

// In checks whether the column equals one of values. An empty list still
// renders the condition wrapper, without value children.
func (o ColumnOperator) In(values ...any) string {
	return o.conditionList(opIn, values)
}

// NotIn checks whether the column equals none of values.
func (o ColumnOperator) NotIn(values ...any) string {
	return o.conditionList(opNotIn, values)
}

// NumberOperator adds ordering comparisons for numeric columns.
type NumberOperator struct {
	ColumnOperator
}

func (o NumberOperator) GreaterThan(value any) string {
	return o.conditionValue(opGreaterThan, value)
}

func (o NumberOperator) LessThan(value any) string {
	return o.conditionValue(opLessThan, value)
}

func (o NumberOperator) GreaterThanOrEqualTo(value any) string {
	return o.conditionValue(opGreaterOrEqual, value)
}

func (o NumberOperator) LessThanOrEqualTo(value any) string {
	return o.conditionValue(opLessOrEqual, value)
}

// TextOperator adds pattern matching for text and note columns.
type TextOperator struct {
	ColumnOperator
}

// Like searches for value anywhere in the column. Wildcards are the caller's
// responsibility.
func (o TextOperator) Like(value any) string {
	return o.conditionValue(opLike, value)
}

// NotLike is the negation of Like.
func (o TextOperator) NotLike(value any) string {
	return o.conditionValue(opNotLike, value)
}

// BeginsWith searches for value at the start of the column.
func (o TextOperator) BeginsWith(value string) string {
	return o.conditionValue(opBeginsWith, value)
}

// BooleanOperator compares two-option columns.
type BooleanOperator struct {
	Operator
}

func (o BooleanOperator) IsTrue() string {
	return o.conditionValue(opEqual, 1)
}

func (o BooleanOperator) IsFalse() string {
	return o.conditionValue(opEqual, 0)
}

// DateOperator compares date columns against absolute dates (ISO formatted
// strings) or relative periods.
type DateOperator struct {
	Operator
}

func (o DateOperator) On(value string) string {
	return o.conditionValue(opOn, value)
}

func (o DateOperator) OnOrBefore(value string) string {
	return o.conditionValue(opOnOrBefore, value)
}

func (o DateOperator) OnOrAfter(value string) string {
	return o.conditionValue(opOnOrAfter, value)
}

func (o DateOperator) LastYear() string {
	return o.condition(opLastYear)
}

func (o DateOperator) ThisYear() string {
	return o.condition(opThisYear)
}

func (o DateOperator) NextYear() string {
	return o.condition(opNextYear)
}

func (o DateOperator) IsToday() string {
	return o.condition(opToday)
}

// LookupOperator compares lookup columns by record identifier.
type LookupOperator struct {
	Operator
}

// IDEqualTo checks whether the lookup points at id. The identifier is passed
// through SanitizeGUID first.
func (o LookupOperator) IDEqualTo(id string) string {
	return o.conditionValue(opEqual, SanitizeGUID(id))
}

// IDIn checks whether the lookup points at one of ids. Unlike IDEqualTo the
// identifiers are used verbatim.
func (o LookupOperator) IDIn(ids ...string) string {
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return o.conditionList(opIn, values)
}

// UserOperator compares user (owner) columns.
type UserOperator struct {
	Operator
}

// IDEqualTo checks whether the column references the user id. The condition
// is marked with the systemuser uitype, which replaces any uitype given in
// the condition attributes.
func (o UserOperator) IDEqualTo(id string) string {
	attrs := o.attrs
	attrs.UIType = SystemUserType
	return o.conditionValueWith(opEqualUserID, id, attrs)
}

func (o UserOperator) IDNotEqualTo(id string) string {
	return o.conditionValue(opNotEqualUserID, id)
}

// EqualToCurrentUser checks whether the column references the calling user.
// The missing value attribute is what tells the server to use the caller.
func (o UserOperator) EqualToCurrentUser() string {
	return o.condition(opEqualUserID)
}

// IDColumn returns an operator for a primary identifier column.
func IDColumn(logicalName string, attrs ...ConditionAttribute) ColumnOperator {
	return ColumnOperator{newOperator(logicalName, attrs)}
}

// ChoiceColumn returns an operator for a choice (option set) column.
func ChoiceColumn(logicalName string, attrs ...ConditionAttribute) ColumnOperator {
	return ColumnOperator{newOperator(logicalName, attrs)}
}

// NumberColumn returns an operator for a whole number, decimal or currency column.
func NumberColumn(logicalName string, attrs ...ConditionAttribute) NumberOperator {
	return NumberOperator{ColumnOperator{newOperator(logicalName, attrs)}}
}

// TextColumn returns an operator for a single line or multiline text column.
func TextColumn(logicalName string, attrs ...ConditionAttribute) TextOperator {
	return TextOperator{ColumnOperator{newOperator(logicalName, attrs)}}
}

// DateColumn returns an operator for a date or date-time column.
func DateColumn(logicalName string, attrs ...ConditionAttribute) DateOperator {
	return DateOperator{newOperator(logicalName, attrs)}
}

// BooleanColumn returns an operator for a two-option column.
func BooleanColumn(logicalName string, attrs ...ConditionAttribute) BooleanOperator {
	return BooleanOperator{newOperator(logicalName, attrs)}
}

// LookupColumn returns an operator for a lookup column.
func LookupColumn(logicalName string, attrs ...ConditionAttribute) LookupOperator {
	return LookupOperator{newOperator(logicalName, attrs)}
}

// UserColumn returns an operator for a user or owner column.
func UserColumn(logicalName string, attrs ...ConditionAttribute) UserOperator {
	return UserOperator{newOperator(logicalName, attrs)}
}
