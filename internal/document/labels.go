package document

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// NormalizeLabel puts a reference definition label into its canonical form:
// surrounding whitespace dropped, interior whitespace runs collapsed to one
// space, and Unicode case folding applied, so "  Foo\tBar " and "foo bar"
// name the same definition.
func NormalizeLabel(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	inRun := false
	for _, r := range strings.TrimSpace(label) {
		if unicode.IsSpace(r) {
			inRun = true
			continue
		}
		if inRun {
			b.WriteByte(' ')
			inRun = false
		}
		b.WriteRune(r)
	}
	return cases.Fold().String(b.String())
}
