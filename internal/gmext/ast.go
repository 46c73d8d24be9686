package gmext

import (
	"git.home.luguber.info/inful/mdincl/internal/directive"
	gast "github.com/yuin/goldmark/ast"
)

// KindInclusion is the node kind of an inclusion directive.
var KindInclusion = gast.NewNodeKind("Inclusion")

// Inclusion is the AST node for a recognized inclusion directive.
type Inclusion struct {
	gast.BaseInline
	Directive directive.Directive
}

// NewInclusion returns a node carrying d.
func NewInclusion(d directive.Directive) *Inclusion {
	return &Inclusion{Directive: d}
}

// Kind implements ast.Node.
func (n *Inclusion) Kind() gast.NodeKind { return KindInclusion }

// Dump implements ast.Node.
func (n *Inclusion) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{
		"Kind":  string(n.Directive.Kind),
		"Lang":  n.Directive.Lang,
		"Title": n.Directive.Title,
		"Path":  n.Directive.Path,
	}, nil)
}
