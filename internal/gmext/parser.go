package gmext

import (
	"git.home.luguber.info/inful/mdincl/internal/directive"
	"git.home.luguber.info/inful/mdincl/internal/inline"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

type inclusionParser struct{}

var _ parser.InlineParser = (*inclusionParser)(nil)

// NewInclusionParser returns an inline parser recognizing [!include[...](...)]
// and [!code-*[...](...)] directives.
func NewInclusionParser() parser.InlineParser {
	return &inclusionParser{}
}

// Trigger returns the characters that trigger this parser.
func (p *inclusionParser) Trigger() []byte {
	return []byte{'['}
}

// Parse recognizes one directive at the reader position. Directives never
// span lines, so scanning the peeked line suffices.
func (p *inclusionParser) Parse(_ gast.Node, block text.Reader, _ parser.Context) gast.Node {
	line, _ := block.PeekLine()

	cur := inline.NewCursor(string(line))
	d, ok := directive.Match(cur)
	if !ok {
		return nil
	}

	block.Advance(cur.Pos())
	return NewInclusion(d)
}
