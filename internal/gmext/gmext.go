// Package gmext is a goldmark extension that parses inclusion directives
// into dedicated AST nodes and renders them as placeholder spans, so hosts
// that render markdown directly can surface directives instead of having
// goldmark mistake them for ordinary links.
package gmext

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// Extender wires the directive parser and renderer into a goldmark instance.
type Extender struct{}

// Extend registers the inline parser ahead of goldmark's link parser, which
// runs at priority 200; anything a directive does not claim falls through to
// ordinary link handling.
func (e *Extender) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(NewInclusionParser(), 199),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(NewHTMLRenderer(), 500),
	))
}

// Directives is the ready-to-use extension instance.
var Directives = &Extender{}
