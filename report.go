package toolshift

import (
	"fmt"
	"io"
)

// ModuleCalls holds the internal call edges discovered in one module.
type ModuleCalls struct {
	App   string
	Edges []CallEdge
}

// CallReport aggregates per-module call analysis for a batch, in the
// order the modules were requested.
type CallReport struct {
	Modules []ModuleCalls
}

// HasCalls reports whether any module in the batch has at least one
// internal call edge.
func (r *CallReport) HasCalls() bool {
	for _, m := range r.Modules {
		if len(m.Edges) > 0 {
			return true
		}
	}
	return false
}

// Format renders the report as deterministic text: a header, then one
// block per module with edges, one line per unique caller/callee pair
// in lexicographic order. Modules without edges are omitted; a batch
// with none at all renders a single line.
func (r *CallReport) Format(w io.Writer) {
	if !r.HasCalls() {
		fmt.Fprintln(w, "No applications with internal tool function calls found.")
		return
	}
	fmt.Fprintln(w, "Applications with internal tool function calls:")
	for _, m := range r.Modules {
		if len(m.Edges) == 0 {
			continue
		}
		fmt.Fprintf(w, "- %s:\n", m.App)
		for _, e := range m.Edges {
			fmt.Fprintf(w, "  - '%s' calls '%s'\n", e.Caller, e.Callee)
		}
	}
}
