package fetchxml

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOperators(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		expected string
	}{
		{"is null", IDColumn("parentid").IsNull(), "<condition attribute='parentid' operator='null'/>"},
		{"is not null", IDColumn("parentid").IsNotNull(), "<condition attribute='parentid' operator='not-null'/>"},
		{"equal", ChoiceColumn("statecode").EqualTo(0), "<condition attribute='statecode' operator='eq' value='0'/>"},
		{"not equal", ChoiceColumn("statecode").NotEqualTo("1"), "<condition attribute='statecode' operator='ne' value='1'/>"},
		{"in", ChoiceColumn("statuscode").In(1, 2), "<condition attribute='statuscode' operator='in'><value>1</value><value>2</value></condition>"},
		{"not in", ChoiceColumn("statuscode").NotIn("a", "b"), "<condition attribute='statuscode' operator='not-in'><value>a</value><value>b</value></condition>"},
		{"greater than", NumberColumn("revenue").GreaterThan(1000), "<condition attribute='revenue' operator='gt' value='1000'/>"},
		{"less than", NumberColumn("revenue").LessThan(10.5), "<condition attribute='revenue' operator='lt' value='10.5'/>"},
		{"greater or equal", NumberColumn("revenue").GreaterThanOrEqualTo(5), "<condition attribute='revenue' operator='eq-or-above' value='5'/>"},
		{"large float", NumberColumn("revenue").GreaterThan(2000000.0), "<condition attribute='revenue' operator='gt' value='2000000'/>"},
		{"fractional float", NumberColumn("revenue").LessThan(1500000.5), "<condition attribute='revenue' operator='lt' value='1500000.5'/>"},
		{"float32", NumberColumn("revenue").LessThanOrEqualTo(float32(2.5)), "<condition attribute='revenue' operator='eq-or-under' value='2.5'/>"},
		{"float list", NumberColumn("revenue").In(1e6, 2.25), "<condition attribute='revenue' operator='in'><value>1000000</value><value>2.25</value></condition>"},
		{"less or equal", NumberColumn("revenue").LessThanOrEqualTo(5), "<condition attribute='revenue' operator='eq-or-under' value='5'/>"},
		{"number equal", NumberColumn("revenue").EqualTo(7), "<condition attribute='revenue' operator='eq' value='7'/>"},
		{"like", TextColumn("fullname").Like("%smith%"), "<condition attribute='fullname' operator='like' value='%smith%'/>"},
		{"not like", TextColumn("fullname").NotLike("%smith%"), "<condition attribute='fullname' operator='not-like' value='%smith%'/>"},
		{"begins with", TextColumn("fullname").BeginsWith("Jo"), "<condition attribute='fullname' operator='begins-with' value='Jo'/>"},
		{"text in", TextColumn("city").In("Paris"), "<condition attribute='city' operator='in'><value>Paris</value></condition>"},
		{"is true", BooleanColumn("donotemail").IsTrue(), "<condition attribute='donotemail' operator='eq' value='1'/>"},
		{"is false", BooleanColumn("donotemail").IsFalse(), "<condition attribute='donotemail' operator='eq' value='0'/>"},
		{"on", DateColumn("createdon").On("2024-01-02"), "<condition attribute='createdon' operator='on' value='2024-01-02'/>"},
		{"on or before", DateColumn("createdon").OnOrBefore("2024-01-02"), "<condition attribute='createdon' operator='on-or-before' value='2024-01-02'/>"},
		{"on or after", DateColumn("createdon").OnOrAfter("2024-01-02"), "<condition attribute='createdon' operator='on-or-after' value='2024-01-02'/>"},
		{"last year", DateColumn("createdon").LastYear(), "<condition attribute='createdon' operator='last-year'/>"},
		{"this year", DateColumn("createdon").ThisYear(), "<condition attribute='createdon' operator='this-year'/>"},
		{"next year", DateColumn("createdon").NextYear(), "<condition attribute='createdon' operator='next-year'/>"},
		{"today", DateColumn("createdon").IsToday(), "<condition attribute='createdon' operator='today'/>"},
		{"user not equal", UserColumn("ownerid").IDNotEqualTo("u1"), "<condition attribute='ownerid' operator='ne-userid' value='u1'/>"},
		{"current user", UserColumn("ownerid").EqualToCurrentUser(), "<condition attribute='ownerid' operator='eq-userid'/>"},
		{"user equal", UserColumn("ownerid").IDEqualTo("u1"), "<condition attribute='ownerid' operator='eq-userid' value='u1' uitype='systemuser'/>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.fragment)
		})
	}
}

func TestConditionAttribute_Order(t *testing.T) {
	attrs := ConditionAttribute{EntityName: "acc", UIType: "account", UIName: "Contoso"}
	assert.Equal(t,
		"<condition attribute='name' operator='eq' value='x' uitype='account' uiname='Contoso' entityname='acc'/>",
		TextColumn("name", attrs).EqualTo("x"))

	assert.Equal(t,
		"<condition attribute='name' operator='null' entityname='acc'/>",
		TextColumn("name", ConditionAttribute{EntityName: "acc"}).IsNull())

	assert.Equal(t,
		"<condition attribute='code' operator='in' entityname='acc'><value>1</value></condition>",
		ChoiceColumn("code", ConditionAttribute{EntityName: "acc"}).In(1))
}

func TestConditionAttribute_EmptyFieldsOmitted(t *testing.T) {
	fragment := NumberColumn("age", ConditionAttribute{}).GreaterThan(3)
	assert.NotContains(t, fragment, "uitype")
	assert.NotContains(t, fragment, "uiname")
	assert.NotContains(t, fragment, "entityname")
}

func TestLookupOperator(t *testing.T) {
	id := uuid.New()

	t.Run("equality sanitizes", func(t *testing.T) {
		got := LookupColumn("parentcustomerid").IDEqualTo("{" + id.String() + "}")
		assert.Equal(t, "<condition attribute='parentcustomerid' operator='eq' value='"+id.String()+"'/>", got)
	})

	t.Run("equality passes through non identifiers", func(t *testing.T) {
		got := LookupColumn("parentcustomerid").IDEqualTo("abc")
		assert.Equal(t, "<condition attribute='parentcustomerid' operator='eq' value='abc'/>", got)
	})

	t.Run("membership does not sanitize", func(t *testing.T) {
		raw := "{" + id.String() + "}"
		got := LookupColumn("parentcustomerid").IDIn(raw)
		assert.Equal(t, "<condition attribute='parentcustomerid' operator='in'><value>"+raw+"</value></condition>", got)
	})

	t.Run("uuid values render canonically", func(t *testing.T) {
		got := IDColumn("contactid").EqualTo(id)
		assert.Equal(t, "<condition attribute='contactid' operator='eq' value='"+id.String()+"'/>", got)
	})
}

func TestUserOperator_Value(t *testing.T) {
	user := UserColumn("ownerid", ConditionAttribute{UIType: "team", EntityName: "o"})

	current := user.EqualToCurrentUser()
	assert.NotContains(t, current, "value=")
	assert.Equal(t, "<condition attribute='ownerid' operator='eq-userid' uitype='team' entityname='o'/>", current)

	byID := user.IDEqualTo("u1")
	assert.Contains(t, byID, "value='u1'")
	assert.Equal(t, "<condition attribute='ownerid' operator='eq-userid' value='u1' uitype='systemuser' entityname='o'/>", byID)
}

func TestMembership_EmptyList(t *testing.T) {
	assert.Equal(t, "<condition attribute='a' operator='in'></condition>", ChoiceColumn("a").In())
	assert.Equal(t, "<condition attribute='a' operator='not-in'></condition>", ChoiceColumn("a").NotIn())
	assert.Equal(t, "<condition attribute='a' operator='in'></condition>", LookupColumn("a").IDIn())
}

func TestCondition_Interface(t *testing.T) {
	conditions := []Condition{
		IDColumn("a"),
		ChoiceColumn("a"),
		NumberColumn("a"),
		TextColumn("a"),
		DateColumn("a"),
		BooleanColumn("a"),
		LookupColumn("a"),
		UserColumn("a"),
	}
	for _, c := range conditions {
		assert.Equal(t, "a", c.LogicalName())
		assert.Equal(t, "<condition attribute='a' operator='null'/>", c.IsNull())
		assert.Equal(t, "<condition attribute='a' operator='not-null'/>", c.IsNotNull())
	}
}

func TestFactory_UsesFirstConditionAttribute(t *testing.T) {
	got := TextColumn("name", ConditionAttribute{EntityName: "first"}, ConditionAttribute{EntityName: "second"}).IsNull()
	assert.Equal(t, "<condition attribute='name' operator='null' entityname='first'/>", got)
}
