package fetchxml

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeGUID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"canonical", "3f2504e0-4f89-11d3-9a0c-0305e82c3301", "3f2504e0-4f89-11d3-9a0c-0305e82c3301"},
		{"upper case", "3F2504E0-4F89-11D3-9A0C-0305E82C3301", "3F2504E0-4F89-11D3-9A0C-0305E82C3301"},
		{"braces", "{3f2504e0-4f89-11d3-9a0c-0305e82c3301}", "3f2504e0-4f89-11d3-9a0c-0305e82c3301"},
		{"surrounding noise", "contact(3f2504e0-4f89-11d3-9a0c-0305e82c3301)?x=1", "3f2504e0-4f89-11d3-9a0c-0305e82c3301"},
		{"not an identifier", "not-a-guid", "not-a-guid"},
		{"too short", "3f2504e0-4f89-11d3-9a0c-0305e82c330", "3f2504e0-4f89-11d3-9a0c-0305e82c330"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeGUID(tt.input))
		})
	}
}

func TestSanitizeGUID_Idempotent(t *testing.T) {
	for i := 0; i < 20; i++ {
		id := uuid.NewString()
		once := SanitizeGUID(id)
		assert.Equal(t, id, once)
		assert.Equal(t, once, SanitizeGUID(once))
	}
}

func TestEscapeText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a<b", "a&#60;b"},
		{"a>b", "a&#62;b"},
		{"fish & chips", "fish &#38; chips"},
		{"<&>", "&#60;&#38;&#62;"},
		{"plain text", "plain text"},
		{"", ""},
		{"quotes ' and \" stay", "quotes ' and \" stay"},
		{"ünïcödé <", "ünïcödé &#60;"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, EscapeText(tt.input))
		})
	}
}

func TestEscapeText_IdentityWithoutSpecialCharacters(t *testing.T) {
	s := "nothing to see here; it's fine"
	assert.Equal(t, s, EscapeText(s))
	assert.Equal(t, s, EscapeText(EscapeText(s)))
}

func TestSanitizeQuery(t *testing.T) {
	input := "<fetch>\n  <entity name='contact'>\n\t<attribute name='fullname'/>\n  </entity>\n</fetch>"
	assert.Equal(t, "<fetch><entity name='contact'><attribute name='fullname'/></entity></fetch>", SanitizeQuery(input))

	// whitespace inside values is preserved
	withValue := "<condition attribute='name' operator='eq' value='a  b'/>  <order attribute='x'/>"
	assert.Equal(t, "<condition attribute='name' operator='eq' value='a  b'/><order attribute='x'/>", SanitizeQuery(withValue))

	assert.False(t, strings.Contains(SanitizeQuery("<a> \r\n <b/></a>"), " "))
}
