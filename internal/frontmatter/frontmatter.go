// Package frontmatter carves a markdown file into its `---` delimited YAML
// header and the body, and reassembles the two without disturbing the parts
// it did not touch.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document opened a YAML header but
// never closed it.
var ErrMissingClosingDelimiter = errors.New("frontmatter: opening delimiter without closing delimiter")

// Style captures the newline shape needed for stable rewriting. Original YAML
// formatting inside the header is not preserved once fields are rewritten.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// Content is a split document: the raw YAML header without its delimiters,
// the body, and enough shape information to put the two back together.
type Content struct {
	Frontmatter []byte
	Body        []byte
	// Has records whether the document carried a header at all; a document
	// with an empty header is distinct from one with none.
	Has   bool
	Style Style
	// BodyLine is the number of lines the header block occupies, so line
	// numbers counted inside the body can be reported in file coordinates.
	BodyLine int
}

// Split separates the YAML header from the body. A document that does not
// open with the delimiter comes back whole in Body with Has false.
func Split(raw []byte) (Content, error) {
	style := detectStyle(raw)
	nl := style.Newline

	c := Content{Style: style}
	delim := []byte("---" + nl)
	if !bytes.HasPrefix(raw, delim) {
		c.Body = raw
		return c, nil
	}

	inner := raw[len(delim):]
	c.Has = true

	if bytes.HasPrefix(inner, delim) {
		c.Frontmatter = []byte{}
		c.Body = inner[len(delim):]
		c.BodyLine = 2
		return c, nil
	}

	closing := []byte(nl + "---" + nl)
	at := bytes.Index(inner, closing)
	if at < 0 {
		return Content{}, ErrMissingClosingDelimiter
	}

	c.Frontmatter = inner[: at+len(nl) : at+len(nl)]
	c.Body = inner[at+len(closing):]
	c.BodyLine = 2 + bytes.Count(c.Frontmatter, []byte(nl))
	return c, nil
}

// Join reassembles the document. Without a header the body is returned
// untouched.
func (c Content) Join() []byte {
	if !c.Has {
		return c.Body
	}

	nl := c.Style.Newline
	if nl == "" {
		nl = "\n"
	}
	delim := "---" + nl

	var out bytes.Buffer
	out.Grow(2*len(delim) + len(c.Frontmatter) + len(c.Body))
	out.WriteString(delim)
	out.Write(c.Frontmatter)
	out.WriteString(delim)
	out.Write(c.Body)
	return out.Bytes()
}

// Fields decodes the header into a map. A missing or empty header decodes to
// an empty map.
func (c Content) Fields() (map[string]any, error) {
	if len(c.Frontmatter) == 0 {
		return map[string]any{}, nil
	}
	var fields map[string]any
	if err := yaml.Unmarshal(c.Frontmatter, &fields); err != nil {
		return nil, fmt.Errorf("decode frontmatter: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

// WithField returns a copy of c whose header carries key set to value,
// creating the header when the document had none. The header is re-marshaled,
// so unrelated formatting inside it is normalized.
func (c Content) WithField(key string, value any) (Content, error) {
	fields, err := c.Fields()
	if err != nil {
		return Content{}, err
	}
	fields[key] = value

	encoded, err := yaml.Marshal(fields)
	if err != nil {
		return Content{}, fmt.Errorf("encode frontmatter: %w", err)
	}

	out := c
	out.Has = true
	out.Frontmatter = normalizeNewlines(encoded, c.Style.Newline)
	out.BodyLine = 2 + bytes.Count(out.Frontmatter, []byte(nlOrDefault(c.Style.Newline)))
	return out, nil
}

func detectStyle(raw []byte) Style {
	s := Style{Newline: "\n"}
	if i := bytes.IndexByte(raw, '\n'); i > 0 && raw[i-1] == '\r' {
		s.Newline = "\r\n"
	}
	s.HasTrailingNewline = len(raw) > 0 && raw[len(raw)-1] == '\n'
	return s
}

func nlOrDefault(nl string) string {
	if nl == "" {
		return "\n"
	}
	return nl
}

// normalizeNewlines rewrites the \n endings yaml.Marshal emits into the
// document's own newline style.
func normalizeNewlines(b []byte, nl string) []byte {
	if nl == "" || nl == "\n" {
		return b
	}
	return bytes.ReplaceAll(b, []byte("\n"), []byte(nl))
}
