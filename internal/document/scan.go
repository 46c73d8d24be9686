package document

import (
	"strings"

	"git.home.luguber.info/inful/mdincl/internal/directive"
	"git.home.luguber.info/inful/mdincl/internal/inline"
)

// Scan walks a markdown body line by line and collects every reference it can
// recognize without a full parse. Fenced code blocks, indented code lines and
// inline code spans are skipped; everything else is probed with the cursor
// matchers, which keeps byte offsets exact. Constructs goldmark would accept
// but a single line scan cannot see (autolinks, multi-line constructs) are
// left to ExtractRefs.
func Scan(body []byte) []Ref {
	src := string(body)

	var refs []Ref
	inFence := false
	activeFence := ""

	base := 0
	lineNo := 0
	for _, line := range strings.Split(src, "\n") {
		lineNo++
		step := len(line) + 1

		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "```"):
			inFence, activeFence = toggleFence(inFence, activeFence, "```")
		case strings.HasPrefix(trimmed, "~~~"):
			inFence, activeFence = toggleFence(inFence, activeFence, "~~~")
		case inFence, strings.HasPrefix(line, "    "), strings.HasPrefix(line, "\t"):
			// Code content.
		default:
			if ref, ok := scanRefDef(line, lineNo, base); ok {
				refs = append(refs, ref)
			} else {
				refs = append(refs, scanLine(line, lineNo, base)...)
			}
		}
		base += step
	}
	return refs
}

// toggleFence tracks fenced code block state. A fence only closes on the
// marker that opened it, so ``` inside a ~~~ block stays content.
func toggleFence(inFence bool, active, marker string) (bool, string) {
	if !inFence {
		return true, marker
	}
	if active == marker {
		return false, ""
	}
	return inFence, active
}

// scanLine probes one line for directives, links and images. Backtick code
// spans are stepped over in place rather than stripped so offsets stay valid.
func scanLine(line string, lineNo, base int) []Ref {
	var refs []Ref
	for i := 0; i < len(line); {
		switch line[i] {
		case '`':
			i = skipCodeSpan(line, i)
		case '!':
			if i+1 >= len(line) || line[i+1] != '[' {
				i++
				continue
			}
			cur := inline.NewCursor(line[i+1:])
			lk, ok := inline.MatchLink(cur)
			if !ok {
				i++
				continue
			}
			refs = append(refs, Ref{
				Kind:  RefImage,
				Title: lk.Title,
				Path:  lk.Path,
				Line:  lineNo,
				Start: base + i,
				End:   base + i + 1 + cur.Pos(),
			})
			i += 1 + cur.Pos()
		case '[':
			cur := inline.NewCursor(line[i:])
			if d, ok := directive.Match(cur); ok {
				refs = append(refs, Ref{
					Kind:  directiveKind(d.Kind),
					Title: d.Title,
					Path:  d.Path,
					Lang:  d.Lang,
					Line:  lineNo,
					Start: base + i,
					End:   base + i + cur.Pos(),
				})
				i += cur.Pos()
				continue
			}
			lk, ok := inline.MatchLink(cur)
			if !ok {
				i++
				continue
			}
			refs = append(refs, Ref{
				Kind:  RefLink,
				Title: lk.Title,
				Path:  lk.Path,
				Line:  lineNo,
				Start: base + i,
				End:   base + i + cur.Pos(),
			})
			i += cur.Pos()
		default:
			i++
		}
	}
	return refs
}

// skipCodeSpan returns the index just past the code span opening at i, or
// past the unclosed backtick run.
func skipCodeSpan(line string, i int) int {
	run := 1
	for i+run < len(line) && line[i+run] == '`' {
		run++
	}
	marker := line[i : i+run]
	rel := strings.Index(line[i+run:], marker)
	if rel < 0 {
		return i + run
	}
	return i + run + rel + run
}

// scanRefDef recognizes a reference definition line: an optional indent of up
// to three spaces, a bracketed label, a colon, and a target. Footnote
// definitions are not reference definitions.
func scanRefDef(line string, lineNo, base int) (Ref, bool) {
	cur := inline.NewCursor(line)
	if inline.SkipSpaces(cur) != '[' {
		return Ref{}, false
	}
	cur.Next()
	label, ok := inline.ExtractBefore(cur, []rune{']'}, false)
	if !ok || strings.HasPrefix(label, "^") {
		return Ref{}, false
	}
	if cur.Next() != ':' {
		return Ref{}, false
	}
	cur.Next()
	if inline.SkipSpaces(cur) == inline.EOI {
		return Ref{}, false
	}

	start := cur.Pos()
	target, ok := inline.ExtractBefore(cur, []rune{inline.EOI}, true)
	if !ok || target == "" {
		return Ref{}, false
	}
	return Ref{
		Kind:  RefDef,
		Title: NormalizeLabel(label),
		Path:  target,
		Line:  lineNo,
		Start: base + start,
		End:   base + cur.Pos(),
	}, true
}

func directiveKind(k directive.Kind) RefKind {
	if k == directive.KindCode {
		return RefCode
	}
	return RefInclude
}
