package verify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/mdincl/internal/document"
)

// htmlFile verifies the references inside one HTML file under root. Trees
// that mix exported HTML into the documentation root get the same local
// existence checks as markdown.
func htmlFile(root, rel string) ([]Problem, int, error) {
	f, err := os.Open(filepath.Join(root, rel))
	if err != nil {
		return nil, 0, fmt.Errorf("open html file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", rel, err)
	}

	refs := htmlRefs(doc)
	var problems []Problem
	for _, ref := range refs {
		if reason, broken := checkRef(root, rel, ref); broken {
			problems = append(problems, Problem{
				File:   rel,
				Kind:   ref.Kind,
				Target: ref.Path,
				Reason: reason,
			})
		}
	}
	return problems, len(refs), nil
}

// htmlRefs walks the parsed document and collects reference-bearing
// attributes: href on a and link, src on img, script and media elements.
func htmlRefs(n *html.Node) []document.Ref {
	var refs []document.Ref

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a", "link":
				if href := attr(n, "href"); href != "" {
					refs = append(refs, document.Ref{Kind: document.RefLink, Path: href, Start: -1, End: -1})
				}
			case "img":
				if src := attr(n, "src"); src != "" {
					refs = append(refs, document.Ref{Kind: document.RefImage, Path: src, Start: -1, End: -1})
				}
			case "script", "video", "audio", "source":
				if src := attr(n, "src"); src != "" {
					refs = append(refs, document.Ref{Kind: document.RefLink, Path: src, Start: -1, End: -1})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return refs
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isHTMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}
