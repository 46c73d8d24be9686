// Package document models one markdown file the way the rest of the tool
// needs it: split from its frontmatter, with every outgoing reference
// (inclusion directives, links, images, reference definitions) collected with
// byte offsets so directives can later be replaced in place.
package document

// RefKind classifies a collected reference.
type RefKind string

const (
	RefInclude RefKind = "include"
	RefCode    RefKind = "code"
	RefLink    RefKind = "link"
	RefImage   RefKind = "image"
	RefDef     RefKind = "refdef"
	RefAuto    RefKind = "auto"
)

// Ref is one outgoing reference found in a document body.
type Ref struct {
	Kind RefKind
	// Title is the display title for directives, links and images, and the
	// normalized label for reference definitions.
	Title string
	// Path is the reference target as written.
	Path string
	// Lang is the language tag of a code directive, empty otherwise.
	Lang string
	// Line is the 1-based line inside the body, 0 when unknown.
	Line int
	// Start and End are byte offsets into the body, End exclusive. Both are
	// -1 when the collecting pass does not track positions.
	Start int
	End   int
}

// Directive reports whether the reference splices other content into the
// document when it is expanded.
func (r Ref) Directive() bool {
	return r.Kind == RefInclude || r.Kind == RefCode
}
