package inline

import "unicode"

// SkipSpaces advances past spaces and tabs and returns the rune the cursor
// ends on.
func SkipSpaces(cur *Cursor) rune {
	ch := cur.Peek()
	for ch == ' ' || ch == '\t' {
		ch = cur.Next()
	}
	return ch
}

// SkipWhitespace advances past all Unicode whitespace, newlines included, and
// returns the rune the cursor ends on.
func SkipWhitespace(cur *Cursor) rune {
	ch := cur.Peek()
	for ch != EOI && unicode.IsSpace(ch) {
		ch = cur.Next()
	}
	return ch
}

// ResetLineIndent rewinds the cursor's column bookkeeping to the column
// recorded by MarkIndent. The position itself does not move; the host uses
// this when it hands out the remainder of a line whose indentation it has
// already consumed.
func ResetLineIndent(cur *Cursor) {
	cur.col = cur.indent
}

func isSpace(ch rune) bool {
	return ch != EOI && unicode.IsSpace(ch)
}

func runeIn(set []rune, ch rune) bool {
	for _, s := range set {
		if s == ch {
			return true
		}
	}
	return false
}
