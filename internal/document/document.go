package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/mdincl/internal/frontmatter"
)

// Document is one markdown file, split from its header and scanned.
type Document struct {
	// Path is the path the document was loaded under, usually relative to
	// the scan root.
	Path    string
	Content frontmatter.Content
	// Refs holds the line scan's findings for the body, offsets included.
	Refs []Ref
}

// Parse splits raw markdown and scans the body for references.
func Parse(path string, raw []byte) (*Document, error) {
	c, err := frontmatter.Split(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Document{Path: path, Content: c, Refs: Scan(c.Body)}, nil
}

// Load reads and parses the file at path. The stored Path is rel when given,
// otherwise path itself.
func Load(path, rel string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if rel == "" {
		rel = path
	}
	return Parse(rel, raw)
}

// FileLine translates a body line number into a file line number, accounting
// for the lines the frontmatter block occupies.
func (d *Document) FileLine(bodyLine int) int {
	if bodyLine <= 0 {
		return bodyLine
	}
	return bodyLine + d.Content.BodyLine
}

// IsDocFile reports whether path names a markdown document.
func IsDocFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}
