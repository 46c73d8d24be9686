// Package entity converts text to and from HTML-entity form, scoped to what
// markdown path and title handling needs: the five reserved characters on the
// encode side, and on the decode side the named entities amp and colon plus
// decimal and hexadecimal numeric character references. It is deliberately
// not a general HTML entity codec.
package entity

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Escape rewrites the HTML-reserved characters in s as character references.
// The ampersand becomes the named entity &amp;; the other four become numeric
// references, which keeps Unescape an exact inverse.
//
// With encode set every ampersand is rewritten. Without it an ampersand that
// already opens an entity-shaped span ('&', optional '#', word characters,
// ';') passes through untouched, so escaping applied twice yields the same
// text as escaping applied once.
func Escape(s string, encode bool) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			if !encode && opensEntity(s[i+1:]) {
				b.WriteByte(c)
				continue
			}
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&#60;")
		case '>':
			b.WriteString("&#62;")
		case '"':
			b.WriteString("&#34;")
		case '\'':
			b.WriteString("&#39;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Unescape decodes entity-shaped spans in s. The span's name is lower-cased
// first; amp and colon decode to their characters, a leading '#' marks a
// numeric character reference ("#x" or "#X" hexadecimal, decimal otherwise),
// and any other name decodes to nothing. A numeric reference whose digits do
// not parse, or that names an invalid code point, is left in the text exactly
// as written. Text outside entity spans passes through untouched.
func Unescape(s string) string {
	i := strings.IndexByte(s, '&')
	if i < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(s[:i])
	for i < len(s) {
		c := s[i]
		if c != '&' {
			b.WriteByte(c)
			i++
			continue
		}
		name, size := spanAfterAmp(s[i+1:])
		if size == 0 {
			b.WriteByte(c)
			i++
			continue
		}
		if rep, ok := decode(strings.ToLower(name)); ok {
			b.WriteString(rep)
		} else {
			b.WriteString(s[i : i+1+size])
		}
		i += 1 + size
	}
	return b.String()
}

// opensEntity reports whether s, the text following an ampersand, begins with
// the rest of an entity-shaped span.
func opensEntity(s string) bool {
	i := 0
	if i < len(s) && s[i] == '#' {
		i++
	}
	start := i
	for i < len(s) && isWordByte(s[i]) {
		i++
	}
	return i > start && i < len(s) && s[i] == ';'
}

// spanAfterAmp scans an entity-shaped span in s, the text following an
// ampersand. It returns the span's name and the total number of bytes the
// span occupies in s including the terminating semicolon, or 0 when s does
// not open a span.
func spanAfterAmp(s string) (string, int) {
	i := 0
	for i < len(s) && (s[i] == '#' || isWordByte(s[i])) {
		i++
	}
	if i == 0 || i >= len(s) || s[i] != ';' {
		return "", 0
	}
	return s[:i], i + 1
}

// decode maps a lower-cased entity name to its replacement. The second result
// is false only for a malformed numeric reference, which the caller preserves
// verbatim; unknown named entities decode to the empty string.
func decode(name string) (string, bool) {
	switch name {
	case "amp":
		return "&", true
	case "colon":
		return ":", true
	}
	if rest, ok := strings.CutPrefix(name, "#"); ok {
		return decodeNumeric(rest)
	}
	return "", true
}

func decodeNumeric(digits string) (string, bool) {
	base := 10
	if rest, ok := strings.CutPrefix(digits, "x"); ok {
		base = 16
		digits = rest
	}
	n, err := strconv.ParseUint(digits, base, 32)
	if err != nil || n > utf8.MaxRune || !utf8.ValidRune(rune(n)) {
		return "", false
	}
	return string(rune(n)), true
}

func isWordByte(c byte) bool {
	return c == '_' ||
		('0' <= c && c <= '9') ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z')
}
