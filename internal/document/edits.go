package document

import (
	"bytes"
	"fmt"
	"sort"
)

// Edit is a targeted byte-range replacement: source[Start:End] becomes
// Replacement. End is exclusive. Offsets refer to the original source, which
// is how Scan hands them out.
type Edit struct {
	Start       int
	End         int
	Replacement []byte
}

// ApplyEdits rewrites source with a set of non-overlapping edits. Edits may
// arrive in any order; they are applied against original offsets, so one edit
// never invalidates another.
func ApplyEdits(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return source, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	var out bytes.Buffer
	out.Grow(len(source))
	at := 0
	for i, e := range sorted {
		if e.Start < 0 || e.End < e.Start {
			return nil, fmt.Errorf("edit %d: invalid range [%d,%d)", i, e.Start, e.End)
		}
		if e.End > len(source) {
			return nil, fmt.Errorf("edit %d: range [%d,%d) beyond source of %d bytes", i, e.Start, e.End, len(source))
		}
		if e.Start < at {
			return nil, fmt.Errorf("edit %d: range [%d,%d) overlaps the previous edit", i, e.Start, e.End)
		}
		out.Write(source[at:e.Start])
		out.Write(e.Replacement)
		at = e.End
	}
	out.Write(source[at:])
	return out.Bytes(), nil
}
