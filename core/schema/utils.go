package schema

// FindField returns the column with the given logical name, or nil. Fields
// keyed by a different name but carrying a matching Name are found as well.
func (s *EntityDefinition) FindField(name string) *FieldDefinition {
	if field, ok := s.Fields[name]; ok && field != nil {
		return field
	}
	for _, field := range s.Fields {
		if field != nil && field.Name == name {
			return field
		}
	}
	return nil
}
