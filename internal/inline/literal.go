package inline

import "unicode"

// MatchLiteral consumes runes from the cursor while they match lit, rune for
// rune, and reports whether all of lit was matched. With caseSensitive false
// both sides are compared lower-cased.
//
// The matched prefix stays consumed on failure, and so does the rune that
// broke the match: each comparison reads the current rune and advances before
// checking it. Matching "Help" against "Hello" therefore returns false with
// the cursor on 'o'. Callers needing the entry position snapshot the cursor.
func MatchLiteral(cur *Cursor, lit string, caseSensitive bool) bool {
	for _, want := range lit {
		got := cur.Peek()
		if got == EOI {
			return false
		}
		cur.Next()
		if !caseSensitive {
			got = unicode.ToLower(got)
			want = unicode.ToLower(want)
		}
		if got != want {
			return false
		}
	}
	return true
}
