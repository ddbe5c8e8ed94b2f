// Package fetchxml builds FetchXML query documents from typed calls. Every
// function returns a fragment of markup text that can be composed into larger
// fragments and finally wrapped by FetchXML into a complete document.
package fetchxml

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	guidPattern       = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	interElementSpace = regexp.MustCompile(`>\s+<`)
)

// SanitizeGUID extracts the canonical 8-4-4-4-12 identifier embedded anywhere
// in s. If s is empty or holds no such identifier it is returned unchanged.
func SanitizeGUID(s string) string {
	if s == "" {
		return s
	}
	if match := guidPattern.FindString(s); match != "" {
		return match
	}
	return s
}

// EscapeText replaces '<', '>' and '&' with numeric character references so
// that free text can be placed inside a text node. Strings without any of
// these characters are returned as-is.
//
// Attribute values are never passed through EscapeText by this package.
func EscapeText(s string) string {
	if !strings.ContainsAny(s, "<>&") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '<', '>', '&':
			sb.WriteString("&#")
			sb.WriteString(strconv.Itoa(int(r)))
			sb.WriteByte(';')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// SanitizeQuery strips whitespace found between a closing '>' and the next
// '<', which turns an indented document into its compact form.
func SanitizeQuery(query string) string {
	return interElementSpace.ReplaceAllString(query, "><")
}
