package fetchxml

import (
	"fmt"
	"strings"
)

// LinkType is the join type of a link-entity.
type LinkType string

const (
	LinkTypeOuter LinkType = "outer"
	LinkTypeInner LinkType = "inner"
)

// LinkEntityOptions describes a join to another entity.
type LinkEntityOptions struct {
	// Type defaults to LinkTypeOuter when empty.
	Type LinkType `json:"type,omitempty" yaml:"type,omitempty"`
	// To is the column on the parent entity.
	To string `json:"to" yaml:"to"`
	// From is the column on the linked entity itself.
	From string `json:"from" yaml:"from"`
	// Alias must be unique within a document. It is not validated here.
	Alias string `json:"alias,omitempty" yaml:"alias,omitempty"`
	// Entity is the logical name of the linked entity.
	Entity string `json:"entity" yaml:"entity"`
	// Intersect marks the link as passing through an intersect entity.
	Intersect bool `json:"intersect,omitempty" yaml:"intersect,omitempty"`
}

// LinkEntity renders a link-entity element around children. Children are
// joined with a single space.
func LinkEntity(opts LinkEntityOptions, children ...string) string {
	if opts.Type == "" {
		opts.Type = LinkTypeOuter
	}
	return renderLinkEntity(opts, children)
}

// LinkEntitySimple renders a link-entity element from positional arguments.
// It never carries an alias or intersect attribute.
func LinkEntitySimple(entity string, linkType LinkType, from, to string, children ...string) string {
	return LinkEntity(LinkEntityOptions{Entity: entity, Type: linkType, From: from, To: to}, children...)
}

func renderLinkEntity(opts LinkEntityOptions, children []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<link-entity name='%s' link-type='%s' to='%s' from='%s'", opts.Entity, opts.Type, opts.To, opts.From)
	if opts.Alias != "" {
		fmt.Fprintf(&sb, " alias='%s'", opts.Alias)
	}
	if opts.Intersect {
		sb.WriteString(" intersect='true'")
	}
	sb.WriteByte('>')
	sb.WriteString(strings.Join(children, " "))
	sb.WriteString("</link-entity>")
	return sb.String()
}
