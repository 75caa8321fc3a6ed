// Package escape implements pqmarkup-lite's two HTML escaping variants:
// text context and attribute context. Order matters in both: '&' is
// always replaced first so that the entities introduced by the second
// replacement are never themselves re-escaped.
package escape

import "strings"

// Text escapes s for placement in HTML text content: '&' then '<'.
func Text(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return s
}

// Attr escapes s for placement inside a double-quoted HTML attribute
// value: '&' then '"'.
func Attr(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
