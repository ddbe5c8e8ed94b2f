package fetchxml

import (
	"fmt"
	"strings"
)

// AggregateType is the aggregate function applied to an attribute.
type AggregateType string

const (
	AggregateCount       AggregateType = "count"
	AggregateCountColumn AggregateType = "countcolumn"
	AggregateMin         AggregateType = "min"
	AggregateMax         AggregateType = "max"
	AggregateSum         AggregateType = "sum"
	AggregateAvg         AggregateType = "avg"
)

// AttributeSpec is anything that describes a returned attribute: a bare
// Column name or a full Attribute.
type AttributeSpec interface {
	attribute() Attribute
}

// Column is a bare attribute name.
type Column string

func (c Column) attribute() Attribute {
	return Attribute{Name: string(c)}
}

// Attribute describes a returned column.
type Attribute struct {
	Name string `json:"name" yaml:"name"`
	// Alias must be unique across all attributes in the query. On a
	// link-entity an alias equal to the name hides the attribute entirely.
	Alias     string        `json:"alias,omitempty" yaml:"alias,omitempty"`
	GroupBy   string        `json:"groupby,omitempty" yaml:"groupby,omitempty"`
	Aggregate AggregateType `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`
	Distinct  bool          `json:"distinct,omitempty" yaml:"distinct,omitempty"`
}

func (a Attribute) attribute() Attribute {
	return a
}

func (a Attribute) render(sb *strings.Builder) {
	fmt.Fprintf(sb, "<attribute name='%s'", a.Name)
	if a.Alias != "" {
		fmt.Fprintf(sb, " alias='%s'", a.Alias)
	}
	if a.GroupBy != "" {
		fmt.Fprintf(sb, " groupby='%s'", a.GroupBy)
	}
	if a.Aggregate != "" {
		fmt.Fprintf(sb, " aggregate='%s'", a.Aggregate)
	}
	if a.Distinct {
		sb.WriteString(" distinct='true'")
	}
	sb.WriteString("/>")
}

// Attributes renders one attribute element per spec, with no separator.
func Attributes(specs ...AttributeSpec) string {
	var sb strings.Builder
	for _, spec := range specs {
		spec.attribute().render(&sb)
	}
	return sb.String()
}

// AttributeNames is shorthand for Attributes with bare column names.
func AttributeNames(names ...string) string {
	specs := make([]AttributeSpec, len(names))
	for i, name := range names {
		specs[i] = Column(name)
	}
	return Attributes(specs...)
}

// AllAttributes requests every column of the entity.
func AllAttributes() string {
	return "<all-attributes/>"
}

// Order describes one sort key.
type Order struct {
	LogicalName string `json:"logicalName" yaml:"logicalName"`
	Desc        bool   `json:"desc,omitempty" yaml:"desc,omitempty"`
}

// OrderBy renders one order element per entry. Entries without a logical
// name are skipped.
func OrderBy(orders ...Order) string {
	var sb strings.Builder
	for _, o := range orders {
		if o.LogicalName == "" {
			continue
		}
		fmt.Fprintf(&sb, "<order attribute='%s'", o.LogicalName)
		if o.Desc {
			sb.WriteString(" descending='true'")
		}
		sb.WriteString("/>")
	}
	return sb.String()
}

// FetchOptions holds the root query options and the queried entity.
type FetchOptions struct {
	Entity    string `json:"entity" yaml:"entity"`
	Distinct  bool   `json:"distinct,omitempty" yaml:"distinct,omitempty"`
	Top       int    `json:"top,omitempty" yaml:"top,omitempty"`
	Aggregate bool   `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`
	// Count is rendered under the same top attribute as Top. When both are
	// set Count wins.
	Count int `json:"count,omitempty" yaml:"count,omitempty"`
}

func (o FetchOptions) render(sb *strings.Builder) {
	if o.Distinct {
		sb.WriteString(" distinct='true'")
	}
	if o.Aggregate {
		sb.WriteString(" aggregate='true'")
	}
	top := o.Top
	if o.Count != 0 {
		top = o.Count
	}
	if top != 0 {
		fmt.Fprintf(sb, " top='%d'", top)
	}
}

// FetchXML assembles a complete document. The body fragments (attributes,
// filters, link-entities, orders) are concatenated without separator inside
// the entity element.
func FetchXML(opts FetchOptions, body ...string) string {
	var sb strings.Builder
	sb.WriteString("<fetch")
	opts.render(&sb)
	fmt.Fprintf(&sb, "><entity name='%s'>", opts.Entity)
	for _, b := range body {
		sb.WriteString(b)
	}
	sb.WriteString("</entity></fetch>")
	return sb.String()
}
