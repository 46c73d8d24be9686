package inline

// ExtractBefore accumulates a literal run from the cursor up to, but not
// including, the first un-escaped rune in stop. With breakOnWhitespace set,
// un-escaped whitespace also terminates the run. The terminating rune is left
// un-consumed.
//
// A backslash escapes exactly the rune that follows it: that rune joins the
// run literally, stop set or whitespace notwithstanding, and the backslash
// itself is dropped. A backslash at end of input has nothing to escape and
// joins the run as a plain character.
//
// On success the run is returned with leading and trailing un-escaped
// whitespace trimmed; whitespace that entered the run through an escape
// survives trimming. Reaching end of input before a terminator fails the
// match, unless EOI is itself in stop, and restores the cursor to its entry
// position.
func ExtractBefore(cur *Cursor, stop []rune, breakOnWhitespace bool) (string, bool) {
	entry := *cur

	var run []rune
	var escaped []bool
	for {
		ch := cur.Peek()
		if ch == '\\' {
			next := cur.Next()
			if next == EOI {
				run = append(run, '\\')
				escaped = append(escaped, false)
				continue
			}
			run = append(run, next)
			escaped = append(escaped, true)
			cur.Next()
			continue
		}
		if runeIn(stop, ch) {
			return trimRun(run, escaped), true
		}
		if ch == EOI {
			*cur = entry
			return "", false
		}
		if breakOnWhitespace && isSpace(ch) {
			return trimRun(run, escaped), true
		}
		run = append(run, ch)
		escaped = append(escaped, false)
		cur.Next()
	}
}

// trimRun strips leading and trailing whitespace from the run, skipping runes
// that were escaped into it.
func trimRun(run []rune, escaped []bool) string {
	lo, hi := 0, len(run)
	for lo < hi && !escaped[lo] && isSpace(run[lo]) {
		lo++
	}
	for hi > lo && !escaped[hi-1] && isSpace(run[hi-1]) {
		hi--
	}
	return string(run[lo:hi])
}
