package pysrc

import (
	"bytes"
	"fmt"
	"sort"
)

// Edit replaces the source bytes in [Start, End) with Text. A pure
// insertion has Start == End. Passes compute edits against the original
// byte offsets reported by the tree; Apply splices them all at once, so
// a node is always replaced as a unit rather than mutated in place.
type Edit struct {
	Start uint32
	End   uint32
	Text  string
}

// Apply splices edits into src and returns the rewritten source.
// Edits must lie within src and must not overlap; insertions at the
// same offset are applied in the order given.
func Apply(src []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return src, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	var out bytes.Buffer
	out.Grow(len(src))
	var pos uint32
	for _, e := range sorted {
		if e.End > uint32(len(src)) || e.Start > e.End {
			return nil, fmt.Errorf("pysrc: edit [%d,%d) out of range for %d-byte source", e.Start, e.End, len(src))
		}
		if e.Start < pos {
			return nil, fmt.Errorf("pysrc: overlapping edit at byte %d", e.Start)
		}
		out.Write(src[pos:e.Start])
		out.WriteString(e.Text)
		pos = e.End
	}
	out.Write(src[pos:])
	return out.Bytes(), nil
}
