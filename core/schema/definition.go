// Package schema describes the entities a query is written against: the
// entity's logical name and the category of each of its columns. The
// category decides which comparisons a column supports.
package schema

import (
	"fmt"
	"sort"
)

// LogicalOperator for combining conditions.
type LogicalOperator string

const (
	LogicalAnd LogicalOperator = "and" // All conditions must be true
	LogicalOr  LogicalOperator = "or"  // At least one condition must be true
)

// ColumnType is the logical category of a column.
type ColumnType string

const (
	ColumnTypeID      ColumnType = "id"      // Primary identifier
	ColumnTypeChoice  ColumnType = "choice"  // Option set value
	ColumnTypeNumber  ColumnType = "number"  // Whole number, decimal, float or currency
	ColumnTypeText    ColumnType = "text"    // Single line or multiline text
	ColumnTypeDate    ColumnType = "date"    // Date or date and time
	ColumnTypeBoolean ColumnType = "boolean" // Two options
	ColumnTypeLookup  ColumnType = "lookup"  // Reference to another record
	ColumnTypeUser    ColumnType = "user"    // Reference to a system user or team
)

var columnTypes = map[ColumnType]struct{}{
	ColumnTypeID:      {},
	ColumnTypeChoice:  {},
	ColumnTypeNumber:  {},
	ColumnTypeText:    {},
	ColumnTypeDate:    {},
	ColumnTypeBoolean: {},
	ColumnTypeLookup:  {},
	ColumnTypeUser:    {},
}

// IsValid reports whether t is one of the known column categories.
func (t ColumnType) IsValid() bool {
	_, ok := columnTypes[t]
	return ok
}

// FieldDefinition describes a single column.
type FieldDefinition struct {
	Name        string     `json:"name" yaml:"name"`
	Type        ColumnType `json:"type" yaml:"type"`
	Description *string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// EntityDefinition describes an entity and its columns, keyed by logical name.
type EntityDefinition struct {
	Name        string                      `json:"name" yaml:"name"`
	Description string                      `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      map[string]*FieldDefinition `json:"fields" yaml:"fields"`
}

// SchemaValidationError represents a structural problem in a definition.
type SchemaValidationError struct {
	Field   string
	Message string
}

func (e SchemaValidationError) Error() string {
	return fmt.Sprintf("schema error in %s: %s", e.Field, e.Message)
}

// Validate checks the definition's structure. It does not check names
// against any real system.
func (s *EntityDefinition) Validate() []SchemaValidationError {
	var errs []SchemaValidationError
	if s.Name == "" {
		errs = append(errs, SchemaValidationError{Field: "name", Message: "entity name cannot be empty"})
	}

	keys := make([]string, 0, len(s.Fields))
	for key := range s.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		field := s.Fields[key]
		path := fmt.Sprintf("fields.%s", key)
		if field == nil {
			errs = append(errs, SchemaValidationError{Field: path, Message: "definition cannot be nil"})
			continue
		}
		if field.Name != "" && field.Name != key {
			errs = append(errs, SchemaValidationError{Field: path, Message: fmt.Sprintf("name %q does not match key", field.Name)})
		}
		if !field.Type.IsValid() {
			errs = append(errs, SchemaValidationError{Field: path + ".type", Message: fmt.Sprintf("unknown column type %q", field.Type)})
		}
	}
	return errs
}
