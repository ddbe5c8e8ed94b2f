package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/asaidimu/go-fetchxml/core/query"
	"github.com/asaidimu/go-fetchxml/core/schema"
	"gopkg.in/yaml.v3"
)

// QueryDocument is the file format read by the CLI. JSON documents are
// valid YAML and load the same way.
type QueryDocument struct {
	Schema *schema.EntityDefinition   `yaml:"schema"`
	Linked []*schema.EntityDefinition `yaml:"linked,omitempty"`
	Query  query.QueryDSL             `yaml:"query"`
}

// LoadDocument reads and decodes a query document.
func LoadDocument(path string) (*QueryDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDocument(data)
}

// ParseDocument decodes a query document from YAML or JSON.
func ParseDocument(data []byte) (*QueryDocument, error) {
	var doc QueryDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding query document: %w", err)
	}
	if doc.Schema == nil {
		return nil, errors.New("query document has no schema")
	}
	if doc.Query.Entity == "" {
		doc.Query.Entity = doc.Schema.Name
	}
	return &doc, nil
}
