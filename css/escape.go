package css

import (
	"strconv"
	"strings"
)

// EscapeIdent serializes s as a CSS identifier following the CSSOM
// "serialize an identifier" algorithm.
func EscapeIdent(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i, r := range runes {
		switch {
		case r == 0:
			b.WriteRune('�')
		case (r >= 0x1 && r <= 0x1f) || r == 0x7f:
			writeCodePoint(&b, r)
		case i == 0 && r >= '0' && r <= '9':
			writeCodePoint(&b, r)
		case i == 1 && r >= '0' && r <= '9' && runes[0] == '-':
			writeCodePoint(&b, r)
		case i == 0 && r == '-' && len(runes) == 1:
			b.WriteString(`\-`)
		case r >= 0x80 || r == '-' || r == '_' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EscapeClass returns the class selector matching the raw class name.
func EscapeClass(class string) string {
	return "." + EscapeIdent(class)
}

func writeCodePoint(b *strings.Builder, r rune) {
	b.WriteByte('\\')
	b.WriteString(strconv.FormatInt(int64(r), 16))
	b.WriteByte(' ')
}

// Quote returns s as a double quoted CSS string.
func Quote(s string) string {
	return `"` + escapeDoubleQuoted(s) + `"`
}

// escapeDoubleQuoted escapes a string for use inside CSS double quotes.
// Backslashes and double quotes are escaped per CSS syntax: \" and \\.
func escapeDoubleQuoted(s string) string {
	// Fast path: nothing to escape.
	if !strings.ContainsAny(s, `"\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
