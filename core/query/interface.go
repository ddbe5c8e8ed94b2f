// Package query defines the interfaces for rendering the abstract QueryDSL
// into FetchXML.
package query

import (
	"github.com/asaidimu/go-fetchxml/core/schema"
)

// QueryGeneratorFactory creates QueryGenerator instances bound to an entity
// schema.
type QueryGeneratorFactory interface {
	// CreateGenerator creates a new QueryGenerator for a specific entity.
	CreateGenerator(entity *schema.EntityDefinition) (QueryGenerator, error)
}

// QueryGenerator renders a QueryDSL into a FetchXML document.
type QueryGenerator interface {
	// GenerateFetchXML translates filters, projection, links, ordering and
	// root options into one document. Columns the generator cannot place
	// and operators a column does not support are reported as errors.
	GenerateFetchXML(dsl *QueryDSL) (string, error)
}
