package gmext

import (
	"git.home.luguber.info/inful/mdincl/internal/entity"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// HTMLRenderer renders inclusion nodes as placeholder spans carrying the
// directive in data attributes. Actual splicing happens in the resolver, not
// in HTML rendering.
type HTMLRenderer struct{}

// NewHTMLRenderer returns a renderer for inclusion nodes.
func NewHTMLRenderer() renderer.NodeRenderer {
	return &HTMLRenderer{}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *HTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindInclusion, r.render)
}

func (r *HTMLRenderer) render(w util.BufWriter, _ []byte, node gast.Node, entering bool) (gast.WalkStatus, error) {
	if !entering {
		return gast.WalkContinue, nil
	}
	n := node.(*Inclusion)

	_, _ = w.WriteString(`<span class="mdincl-directive" data-kind="`)
	_, _ = w.WriteString(entity.Escape(string(n.Directive.Kind), false))
	_, _ = w.WriteString(`"`)
	if n.Directive.Lang != "" {
		_, _ = w.WriteString(` data-lang="`)
		_, _ = w.WriteString(entity.Escape(n.Directive.Lang, false))
		_, _ = w.WriteString(`"`)
	}
	_, _ = w.WriteString(` data-path="`)
	_, _ = w.WriteString(entity.Escape(n.Directive.Path, false))
	_, _ = w.WriteString(`">`)
	_, _ = w.WriteString(entity.Escape(n.Directive.Title, false))
	_, _ = w.WriteString(`</span>`)

	return gast.WalkContinue, nil
}
