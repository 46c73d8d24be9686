// Package inline is a low-level character scanning toolkit for inline
// markdown constructs: reference-style link heads, escape-aware literal
// runs, literal matching against a cursor, and inclusion-directive
// delimiters.
//
// All matchers advance a Cursor in place. Only ExtractBefore restores the
// cursor on failure; the other matchers leave it wherever they stopped, so
// callers that compose them into a larger optional construct snapshot the
// cursor first. Cursor is a plain value, which makes that snapshot an
// ordinary copy:
//
//	saved := *cur
//	if _, ok := inline.MatchLink(cur); !ok {
//		*cur = saved
//	}
package inline

import "unicode/utf8"

// EOI is the end-of-input sentinel returned by Peek and Next once the cursor
// has passed the last rune. It is distinguishable from every real character
// and may itself be used as a member of an ExtractBefore stop set.
const EOI rune = -1

// Cursor is a position into an immutable text buffer. The zero value is a
// cursor over the empty string.
//
// Besides the position it carries the single piece of column bookkeeping the
// host needs: the column recorded by MarkIndent before indentation was
// consumed, restored by ResetLineIndent.
type Cursor struct {
	src string
	pos int

	col    int
	indent int
}

// NewCursor returns a cursor positioned at the start of src.
func NewCursor(src string) *Cursor {
	return &Cursor{src: src}
}

// Peek returns the rune at the cursor without advancing, or EOI at end of
// input.
func (c *Cursor) Peek() rune {
	if c.pos >= len(c.src) {
		return EOI
	}
	r, _ := utf8.DecodeRuneInString(c.src[c.pos:])
	return r
}

// Next advances past the current rune and returns the new current rune, or
// EOI once the input is exhausted. Advancing at end of input is a no-op.
func (c *Cursor) Next() rune {
	if c.pos >= len(c.src) {
		return EOI
	}
	r, size := utf8.DecodeRuneInString(c.src[c.pos:])
	c.pos += size
	if r == '\n' {
		c.col = 0
		c.indent = 0
	} else {
		c.col++
	}
	return c.Peek()
}

// Pos returns the byte offset of the cursor into the underlying buffer.
func (c *Cursor) Pos() int { return c.pos }

// Col returns the column bookkeeping value for the current line.
func (c *Cursor) Col() int { return c.col }

// MarkIndent records the current column so that ResetLineIndent can restore
// it after indentation has been consumed.
func (c *Cursor) MarkIndent() { c.indent = c.col }
