package fetchxml

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func TestAttributes(t *testing.T) {
	tests := []struct {
		name     string
		specs    []AttributeSpec
		expected string
	}{
		{"none", nil, ""},
		{"bare names", []AttributeSpec{Column("fullname"), Column("emailaddress1")}, "<attribute name='fullname'/><attribute name='emailaddress1'/>"},
		{
			name:     "full spec",
			specs:    []AttributeSpec{Attribute{Name: "revenue", Alias: "total", GroupBy: "true", Aggregate: AggregateSum, Distinct: true}},
			expected: "<attribute name='revenue' alias='total' groupby='true' aggregate='sum' distinct='true'/>",
		},
		{
			name:     "mixed",
			specs:    []AttributeSpec{Column("name"), Attribute{Name: "accountid", Aggregate: AggregateCountColumn, Alias: "n"}},
			expected: "<attribute name='name'/><attribute name='accountid' alias='n' aggregate='countcolumn'/>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Attributes(tt.specs...))
		})
	}
}

func TestAttributeNames(t *testing.T) {
	assert.Equal(t, Attributes(Column("a"), Column("b")), AttributeNames("a", "b"))
	assert.Equal(t, "<all-attributes/>", AllAttributes())
}

func TestOrderBy(t *testing.T) {
	assert.Equal(t, "<order attribute='createdon' descending='true'/><order attribute='fullname'/>",
		OrderBy(Order{LogicalName: "createdon", Desc: true}, Order{LogicalName: "fullname"}))
	assert.Equal(t, "<order attribute='fullname'/>", OrderBy(Order{Desc: true}, Order{LogicalName: "fullname"}))
	assert.Equal(t, "", OrderBy())
}

func TestFetchXML_Options(t *testing.T) {
	tests := []struct {
		name     string
		opts     FetchOptions
		expected string
	}{
		{"entity only", FetchOptions{Entity: "contact"}, "<fetch><entity name='contact'></entity></fetch>"},
		{"distinct", FetchOptions{Entity: "contact", Distinct: true}, "<fetch distinct='true'><entity name='contact'></entity></fetch>"},
		{"aggregate", FetchOptions{Entity: "contact", Aggregate: true}, "<fetch aggregate='true'><entity name='contact'></entity></fetch>"},
		{"top", FetchOptions{Entity: "contact", Top: 10}, "<fetch top='10'><entity name='contact'></entity></fetch>"},
		{"count", FetchOptions{Entity: "contact", Count: 5}, "<fetch top='5'><entity name='contact'></entity></fetch>"},
		{"count overrides top", FetchOptions{Entity: "contact", Top: 10, Count: 5}, "<fetch top='5'><entity name='contact'></entity></fetch>"},
		{
			name:     "all flags",
			opts:     FetchOptions{Entity: "contact", Distinct: true, Aggregate: true, Top: 3},
			expected: "<fetch distinct='true' aggregate='true' top='3'><entity name='contact'></entity></fetch>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FetchXML(tt.opts)
			assert.Equal(t, tt.expected, got)
			assert.LessOrEqual(t, strings.Count(got, "top="), 1)
		})
	}
}

func TestFetchXML_BodyConcatenatedWithoutSeparator(t *testing.T) {
	got := FetchXML(FetchOptions{Entity: "contact"}, "<a/>", "<b/>")
	assert.Equal(t, "<fetch><entity name='contact'><a/><b/></entity></fetch>", got)
}

func TestFetchXML_EndToEnd(t *testing.T) {
	doc := FetchXML(FetchOptions{Entity: "contact"},
		AllAttributes(),
		FilterAnd(ChoiceColumn("statecode").EqualTo(0)),
		OrderBy(Order{LogicalName: "createdon", Desc: true}),
	)

	body := doc[strings.Index(doc, "<entity name='contact'>"):]
	assert.Equal(t, 1, strings.Count(body, "<condition "))
	assert.Contains(t, body, "<condition attribute='statecode' operator='eq' value='0'/>")
	assert.Equal(t, 1, strings.Count(body, "<order "))
	assert.Contains(t, body, "<order attribute='createdon' descending='true'/>")
}

func TestFetchXML_Golden(t *testing.T) {
	g := goldie.New(t)

	t.Run("contact_query", func(t *testing.T) {
		doc := FetchXML(FetchOptions{Entity: "contact", Top: 50},
			AttributeNames("fullname", "emailaddress1"),
			NewFilterBuilder().
				AddQuery(ChoiceColumn("statecode").EqualTo(0)).
				AddQuery(TextColumn("fullname").BeginsWith("Jo")).
				AddQuery(UserColumn("ownerid").EqualToCurrentUser()).
				ToFilterElement(),
			LinkEntity(LinkEntityOptions{Entity: "account", To: "parentcustomerid", From: "accountid", Alias: "acc"},
				AttributeNames("name")),
			OrderBy(Order{LogicalName: "createdon", Desc: true}),
		)
		g.Assert(t, "contact_query", []byte(doc))
	})

	t.Run("aggregate_query", func(t *testing.T) {
		doc := FetchXML(FetchOptions{Entity: "opportunity", Distinct: true, Aggregate: true},
			Attributes(
				Attribute{Name: "estimatedvalue", Alias: "total", Aggregate: AggregateSum},
				Attribute{Name: "ownerid", Alias: "owner", GroupBy: "true"},
			),
			FilterOr(DateColumn("actualclosedate").ThisYear(), DateColumn("actualclosedate").LastYear()),
		)
		g.Assert(t, "aggregate_query", []byte(doc))
	})
}
