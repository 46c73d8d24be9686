package document

import (
	"sort"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// ExtractRefs parses a markdown body with goldmark and collects link-like
// constructs from the AST: autolinks, images, inline and resolved reference
// links, plus the reference definitions stored in the parse context. It sees
// constructs the line scan cannot (autolinks, links wrapped across lines) but
// tracks no positions; refs come back with Line 0 and offsets -1.
func ExtractRefs(body []byte) []Ref {
	md := goldmark.New()
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	refs := make([]Ref, 0)
	add := func(kind RefKind, dest string) {
		refs = append(refs, Ref{Kind: kind, Path: dest, Start: -1, End: -1})
	}

	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.AutoLink:
			add(RefAuto, string(node.URL(body)))
		case *gmast.Image:
			add(RefImage, string(node.Destination))
		case *gmast.Link:
			// Goldmark resolves reference-style links into Link nodes with a
			// Destination, so they land here too.
			add(RefLink, string(node.Destination))
		}
		return gmast.WalkContinue, nil
	})

	// Reference definitions live in the parse context, not in the AST.
	defs := ctx.References()
	sort.Slice(defs, func(i, j int) bool {
		return string(defs[i].Label()) < string(defs[j].Label())
	})
	for _, def := range defs {
		refs = append(refs, Ref{
			Kind:  RefDef,
			Title: NormalizeLabel(string(def.Label())),
			Path:  string(def.Destination()),
			Start: -1,
			End:   -1,
		})
	}
	return refs
}
