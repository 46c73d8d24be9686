// Package verify checks a documentation tree: every local reference a
// document makes (inclusion directives, links, images, reference definitions)
// must point at a file that exists under the root. External URLs, anchors and
// mail/tel targets are collected but not verified; nothing leaves the
// filesystem.
package verify

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/mdincl/internal/document"
)

// Problem is one broken or suspect reference.
type Problem struct {
	// File is the referencing document, relative to the root.
	File string
	// Line is the 1-based file line, 0 when the collecting pass tracks none.
	Line int
	Kind document.RefKind
	// Target is the reference target as written.
	Target string
	Reason string
}

func (p Problem) String() string {
	if p.Line > 0 {
		return fmt.Sprintf("%s:%d: %s %q: %s", p.File, p.Line, p.Kind, p.Target, p.Reason)
	}
	return fmt.Sprintf("%s: %s %q: %s", p.File, p.Kind, p.Target, p.Reason)
}

// Stats summarizes one verification pass.
type Stats struct {
	Files  int
	Refs   int
	Broken int
}

// Options tunes a tree verification.
type Options struct {
	// Include restricts the pass to matching root-relative files when
	// non-empty; a pattern also admits everything beneath a matching
	// directory.
	Include []string
	// Exclude lists root-relative paths to skip, each matching itself and
	// everything beneath it. Dot-directories are always skipped. Exclusion
	// wins over inclusion.
	Exclude []string
	// HTML also verifies references inside .html files.
	HTML bool
}

// admits reports whether the options let the root-relative file rel into the
// pass.
func (o Options) admits(rel string) bool {
	if excluded(rel, o.Exclude) {
		return false
	}
	return len(o.Include) == 0 || matched(rel, o.Include)
}

// Tree walks every document under root and verifies its references.
func Tree(ctx context.Context, root string, opts Options) ([]Problem, Stats, error) {
	var problems []Problem
	var stats Stats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return rerr
		}
		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || excluded(rel, opts.Exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if !opts.admits(rel) {
			return nil
		}

		switch {
		case document.IsDocFile(path):
			probs, refs, ferr := File(root, rel)
			if ferr != nil {
				return ferr
			}
			stats.Files++
			stats.Refs += refs
			problems = append(problems, probs...)
		case opts.HTML && isHTMLFile(path):
			probs, refs, ferr := htmlFile(root, rel)
			if ferr != nil {
				return ferr
			}
			stats.Files++
			stats.Refs += refs
			problems = append(problems, probs...)
		}
		return nil
	})
	if err != nil {
		return nil, Stats{}, fmt.Errorf("verify tree: %w", err)
	}

	stats.Broken = len(problems)
	return problems, stats, nil
}

// Documents lists the root-relative paths a Tree pass over root would scan,
// in walk order.
func Documents(root string, opts Options) ([]string, error) {
	var docs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return rerr
		}
		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || excluded(rel, opts.Exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if !opts.admits(rel) {
			return nil
		}
		if document.IsDocFile(path) || (opts.HTML && isHTMLFile(path)) {
			docs = append(docs, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// File verifies one markdown document under root. It merges the line scan
// with the goldmark pass, so positions are reported where the line scan saw
// the reference and constructs only goldmark recognizes are still covered.
func File(root, rel string) ([]Problem, int, error) {
	doc, err := document.Load(filepath.Join(root, rel), rel)
	if err != nil {
		return nil, 0, err
	}

	refs := doc.Refs
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		seen[refKey(ref)] = struct{}{}
	}
	for _, ref := range document.ExtractRefs(doc.Content.Body) {
		if _, dup := seen[refKey(ref)]; dup {
			continue
		}
		seen[refKey(ref)] = struct{}{}
		refs = append(refs, ref)
	}

	var problems []Problem
	for _, ref := range refs {
		if reason, broken := checkRef(root, rel, ref); broken {
			problems = append(problems, Problem{
				File:   rel,
				Line:   doc.FileLine(ref.Line),
				Kind:   ref.Kind,
				Target: ref.Path,
				Reason: reason,
			})
		}
	}
	return problems, len(refs), nil
}

func refKey(ref document.Ref) string {
	kind := ref.Kind
	// An autolink is just a link the line scan cannot see.
	if kind == document.RefAuto {
		kind = document.RefLink
	}
	return string(kind) + "|" + ref.Path
}

// checkRef classifies one reference target and reports why it is broken, if
// it is. Only local targets are checked against the filesystem.
func checkRef(root, from string, ref document.Ref) (string, bool) {
	target := ref.Path
	if target == "" {
		return "empty target", true
	}
	if isExternal(target) {
		return "", false
	}

	// Drop fragment and query before touching the filesystem.
	if i := strings.IndexAny(target, "#?"); i >= 0 {
		target = target[:i]
		if target == "" {
			// Pure anchor, nothing to check on disk.
			return "", false
		}
	}
	target = strings.TrimSpace(target)

	var rel string
	switch {
	case strings.HasPrefix(target, "~/"):
		rel = target[2:]
	case strings.HasPrefix(target, "/"):
		rel = target[1:]
	default:
		rel = filepath.Join(filepath.Dir(from), target)
	}
	rel = filepath.Clean(rel)
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "target escapes root", true
	}

	info, err := os.Stat(filepath.Join(root, rel))
	if err != nil {
		return "target not found", true
	}
	if ref.Kind == document.RefInclude {
		if info.IsDir() {
			return "include target is a directory", true
		}
		if !document.IsDocFile(rel) {
			return "include target is not markdown", true
		}
	}
	return "", false
}

// isExternal reports whether the target leaves the documentation tree:
// anything with a scheme or host, or a non-filesystem form like mailto.
func isExternal(target string) bool {
	if strings.HasPrefix(target, "#") {
		return true
	}
	u, err := url.Parse(target)
	if err != nil {
		// Not parseable as a URL; treat it as a local path and let the
		// filesystem check speak.
		return false
	}
	return u.Scheme != "" || u.Host != ""
}

func excluded(rel string, patterns []string) bool {
	return matched(rel, patterns)
}

// matched reports whether rel equals a pattern, lies beneath one, or matches
// one as a glob.
func matched(rel string, patterns []string) bool {
	for _, p := range patterns {
		p = filepath.Clean(p)
		if rel == p || strings.HasPrefix(rel, p+string(filepath.Separator)) {
			return true
		}
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
	}
	return false
}
