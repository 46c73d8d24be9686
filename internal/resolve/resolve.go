// Package resolve expands inclusion directives in place: include directives
// splice in the body of the target document, code directives splice in the
// target file as a fenced code block. Expansion recurses through included
// documents with cycle detection and a depth limit, and never reads outside
// the resolver's root.
package resolve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/mdincl/internal/document"
	"git.home.luguber.info/inful/mdincl/internal/logfields"
)

var (
	// ErrCycle marks an include chain that reaches a document already being
	// expanded.
	ErrCycle = errors.New("include cycle")
	// ErrDepth marks an include chain deeper than the configured limit.
	ErrDepth = errors.New("include depth limit exceeded")
	// ErrEscapesRoot marks a target that resolves outside the root.
	ErrEscapesRoot = errors.New("include target escapes root")
)

// MissingPolicy decides what happens when a directive's target cannot be
// read. Structural failures (cycles, depth, escaping the root) always fail
// the expansion regardless of policy.
type MissingPolicy string

const (
	// MissingError fails the expansion on the first unreadable target.
	MissingError MissingPolicy = "error"
	// MissingKeep leaves the directive in the output as written.
	MissingKeep MissingPolicy = "keep"
	// MissingComment replaces the directive with an HTML comment naming the
	// unreadable target.
	MissingComment MissingPolicy = "comment"
)

const DefaultMaxDepth = 10

// Options tunes a Resolver.
type Options struct {
	// MaxDepth caps how deep include chains may nest. Zero means
	// DefaultMaxDepth.
	MaxDepth int
	// Missing selects the policy for unreadable targets. Empty means
	// MissingError.
	Missing MissingPolicy
	// StampFingerprint writes the content fingerprint of the expanded
	// document into its frontmatter.
	StampFingerprint bool
}

// Resolver expands documents under one root directory.
type Resolver struct {
	root string
	opts Options
}

func New(root string, opts Options) *Resolver {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Missing == "" {
		opts.Missing = MissingError
	}
	return &Resolver{root: root, opts: opts}
}

// Result is one expanded document.
type Result struct {
	// Path is the document's path relative to the root.
	Path string
	// Output is the reassembled document: original frontmatter (fingerprint
	// stamped when requested) plus the expanded body.
	Output []byte
	// Includes counts the directives spliced in, across all nesting levels.
	Includes int
	// Fingerprint is the mdfp content fingerprint of the expanded document.
	Fingerprint string
}

// Expand loads the document at rel (relative to the root) and splices every
// inclusion directive, recursively.
func (r *Resolver) Expand(ctx context.Context, rel string) (*Result, error) {
	rel = filepath.Clean(rel)
	doc, err := r.load(rel)
	if err != nil {
		return nil, err
	}

	body, includes, err := r.expandBody(ctx, doc, []string{rel})
	if err != nil {
		return nil, err
	}

	content := doc.Content
	content.Body = body
	fp := mdfp.CalculateFingerprintFromParts(trimOneNewline(string(content.Frontmatter)), string(body))
	if r.opts.StampFingerprint {
		content, err = content.WithField(mdfp.FingerprintField, fp)
		if err != nil {
			return nil, fmt.Errorf("stamp fingerprint: %w", err)
		}
	}

	slog.Debug("expanded document",
		logfields.Path(rel),
		logfields.Refs(includes),
	)
	return &Result{
		Path:        rel,
		Output:      content.Join(),
		Includes:    includes,
		Fingerprint: fp,
	}, nil
}

// expandBody splices the directives of doc's body. stack holds the chain of
// documents currently being expanded, doc itself last.
func (r *Resolver) expandBody(ctx context.Context, doc *document.Document, stack []string) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	var edits []document.Edit
	includes := 0
	for _, ref := range doc.Refs {
		if !ref.Directive() {
			continue
		}

		var replacement []byte
		target, err := r.resolveTarget(doc.Path, ref.Path)
		if err == nil {
			switch ref.Kind {
			case document.RefInclude:
				var nested int
				replacement, nested, err = r.spliceDocument(ctx, target, stack)
				if err == nil {
					includes += nested + 1
				}
			case document.RefCode:
				replacement, err = r.spliceCode(target, ref.Lang)
				if err == nil {
					includes++
				}
			}
		}
		if err != nil {
			if isStructural(err) {
				return nil, 0, fmt.Errorf("%s:%d: %w", doc.Path, ref.Line, err)
			}
			switch r.opts.Missing {
			case MissingKeep:
				slog.Warn("keeping unresolved directive",
					logfields.File(doc.Path),
					logfields.Line(ref.Line),
					logfields.Path(ref.Path),
					logfields.Error(err),
				)
				continue
			case MissingComment:
				replacement = fmt.Appendf(nil, "<!-- mdincl: could not include %s -->", ref.Path)
			default:
				return nil, 0, fmt.Errorf("%s:%d: %w", doc.Path, ref.Line, err)
			}
		}

		edits = append(edits, document.Edit{Start: ref.Start, End: ref.End, Replacement: replacement})
	}

	body, err := document.ApplyEdits(doc.Content.Body, edits)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", doc.Path, err)
	}
	return body, includes, nil
}

// spliceDocument expands the include target and returns its body, header
// dropped, for in-place splicing, along with the count of directives spliced
// beneath it.
func (r *Resolver) spliceDocument(ctx context.Context, rel string, stack []string) ([]byte, int, error) {
	for _, open := range stack {
		if open == rel {
			return nil, 0, fmt.Errorf("%w: %s", ErrCycle, strings.Join(append(stack, rel), " -> "))
		}
	}
	if len(stack) >= r.opts.MaxDepth {
		return nil, 0, fmt.Errorf("%w: %s at depth %d", ErrDepth, rel, len(stack))
	}

	doc, err := r.load(rel)
	if err != nil {
		return nil, 0, err
	}
	body, nested, err := r.expandBody(ctx, doc, append(stack, rel))
	if err != nil {
		return nil, 0, err
	}

	// The directive's own line supplies the newline.
	if len(body) > 0 && body[len(body)-1] == '\n' {
		body = body[:len(body)-1]
	}
	return body, nested, nil
}

// spliceCode reads the target verbatim and wraps it in a fence. The fence
// grows until it cannot collide with backtick runs in the content.
func (r *Resolver) spliceCode(rel, lang string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(r.root, rel))
	if err != nil {
		return nil, fmt.Errorf("read code target: %w", err)
	}
	if lang == "" {
		lang = strings.TrimPrefix(filepath.Ext(rel), ".")
	}

	marker := "```"
	for bytes.Contains(data, []byte(marker)) {
		marker += "`"
	}

	var b bytes.Buffer
	b.Grow(len(data) + 2*len(marker) + len(lang) + 2)
	b.WriteString(marker)
	b.WriteString(lang)
	b.WriteByte('\n')
	b.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteString(marker)
	return b.Bytes(), nil
}

func (r *Resolver) load(rel string) (*document.Document, error) {
	return document.Load(filepath.Join(r.root, rel), rel)
}

// resolveTarget turns a directive path into a root-relative path. A leading
// "~/" or "/" anchors the target at the root; anything else is relative to
// the including document. The result must stay inside the root.
func (r *Resolver) resolveTarget(from, target string) (string, error) {
	if target == "" {
		return "", errors.New("empty directive target")
	}
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
		return "", fmt.Errorf("%w: %s", ErrEscapesRoot, target)
	}
	return rel, nil
}

func isStructural(err error) bool {
	return errors.Is(err, ErrCycle) || errors.Is(err, ErrDepth) || errors.Is(err, ErrEscapesRoot) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func trimOneNewline(s string) string {
	return strings.TrimSuffix(s, "\n")
}
