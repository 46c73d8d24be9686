// Package directive recognizes DocFX-style inclusion directives embedded in
// markdown, such as
//
//	[!include[Chapter 1](chapters/one.md)]
//	[!code-go[Listing 3](snippets/server.go)]
//
// Recognition is built on the inline scanning toolkit and is the one place a
// cursor snapshot is owned: a failed match restores the cursor to where it
// was, so a host can probe any '[' and fall back to ordinary link handling.
package directive

import (
	"strings"

	"git.home.luguber.info/inful/mdincl/internal/inline"
)

// Kind classifies a recognized directive.
type Kind string

const (
	// KindInclude splices the body of another markdown file in place.
	KindInclude Kind = "include"
	// KindCode splices a file verbatim as a fenced code block.
	KindCode Kind = "code"
)

// Directive is one recognized inclusion directive.
type Directive struct {
	Kind Kind
	// Name is the directive name as written, lower-cased ("include",
	// "code", "code-go", ...).
	Name string
	// Lang carries the language tag of a "code-LANG" directive, empty for
	// bare "code" and for includes.
	Lang string
	// Title is the bracketed display title, possibly empty.
	Title string
	// Path is the target the directive points at, relative to the document
	// that contains it.
	Path string
}

// Match recognizes a directive at the cursor. Directive names are matched
// case-insensitively. On failure the cursor is restored to its entry
// position.
func Match(cur *inline.Cursor) (Directive, bool) {
	entry := *cur
	fail := func() (Directive, bool) {
		*cur = entry
		return Directive{}, false
	}

	if !inline.MatchLiteral(cur, "[!", true) {
		return fail()
	}
	name, ok := inline.ExtractBefore(cur, []rune{'['}, true)
	if !ok {
		return fail()
	}
	d, ok := classify(strings.ToLower(name))
	if !ok {
		return fail()
	}
	link, ok := inline.MatchLink(cur)
	if !ok {
		return fail()
	}
	if !inline.MatchInclusionEnd(cur) {
		return fail()
	}
	d.Title = link.Title
	d.Path = link.Path
	return d, true
}

func classify(name string) (Directive, bool) {
	d := Directive{Name: name}
	switch {
	case name == string(KindInclude):
		d.Kind = KindInclude
	case name == string(KindCode):
		d.Kind = KindCode
	case strings.HasPrefix(name, "code-") && len(name) > len("code-"):
		d.Kind = KindCode
		d.Lang = strings.TrimPrefix(name, "code-")
	default:
		return Directive{}, false
	}
	return d, true
}
