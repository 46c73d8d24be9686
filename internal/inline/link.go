package inline

import "strings"

// Link is a recognized reference-style link head: the bracketed title and the
// parenthesized path that follows it.
type Link struct {
	Title string
	Path  string
}

// MatchLink recognizes "[title](path)" at the cursor, with escape handling in
// both parts, optional spaces before the bracket, angle-quoted paths that may
// contain whitespace, and an optional trailing quoted title inside the
// parentheses (recognized and discarded).
//
// On failure the cursor stays wherever the failing sub-matcher stopped; a
// caller probing for a link inside a larger construct snapshots the cursor
// beforehand.
func MatchLink(cur *Cursor) (Link, bool) {
	title, ok := matchTitle(cur)
	if !ok {
		return Link{}, false
	}
	path, _, ok := matchPath(cur)
	if !ok {
		return Link{}, false
	}
	return Link{Title: title, Path: path}, true
}

// MatchInclusionEnd consumes the closing ']' of an inclusion directive and
// reports whether it was present.
func MatchInclusionEnd(cur *Cursor) bool {
	if cur.Peek() != ']' {
		return false
	}
	cur.Next()
	return true
}

// matchTitle recognizes a bracketed title: optional spaces, '[', an
// escape-aware run, ']'. The run may be empty. Failure can leave the skipped
// spaces and the opening bracket consumed.
func matchTitle(cur *Cursor) (string, bool) {
	for cur.Peek() == ' ' {
		cur.Next()
	}
	if cur.Peek() != '[' {
		return "", false
	}
	cur.Next()
	title, ok := ExtractBefore(cur, []rune{']'}, false)
	if !ok {
		return "", false
	}
	cur.Next()
	return title, true
}

// matchPath recognizes a parenthesized path: '(', optional whitespace, the
// path run, an optional quoted title, ')'.
//
// A path opening with '<' is angle-quoted: it runs to '>' or ')' without
// breaking on whitespace, and the '<' is stripped when the run indeed stopped
// on '>'. The '>' itself is left for the title extraction below to swallow.
// A bare path breaks on whitespace, so anything between it and the closing
// parenthesis funnels into the optional title: when that trailing run is
// wrapped in matching single or double quotes it is a title ('t' in
// "(path 't')"), otherwise it is discarded.
func matchPath(cur *Cursor) (path, title string, ok bool) {
	if cur.Peek() != '(' {
		return "", "", false
	}
	cur.Next()
	SkipWhitespace(cur)

	var run string
	if cur.Peek() == '<' {
		run, ok = ExtractBefore(cur, []rune{')', '>'}, false)
		if !ok {
			return "", "", false
		}
		if strings.HasPrefix(run, "<") && cur.Peek() == '>' {
			run = run[1:]
		}
	} else {
		run, ok = ExtractBefore(cur, []rune{')'}, true)
		if !ok {
			return "", "", false
		}
	}

	if cur.Peek() == ')' {
		cur.Next()
		return run, "", true
	}

	rest, ok := ExtractBefore(cur, []rune{')'}, false)
	if !ok {
		return "", "", false
	}
	if n := len(rest); n >= 2 && (rest[0] == '\'' || rest[0] == '"') && rest[n-1] == rest[0] {
		title = strings.TrimSpace(rest[1 : n-1])
	}
	cur.Next()
	return run, title, true
}
