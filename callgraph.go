package toolshift

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/universal-mcp/toolshift/internal/pysrc"
)

// CallEdge is a directed caller→callee dependency between two
// registered operations of the same module.
type CallEdge struct {
	Caller string
	Callee string
}

// InternalCalls returns the call edges between registered operations in
// mod, deduplicated and sorted by caller then callee. An edge is
// recorded when, inside the body of a registered operation (sync or
// async), a call of the form self.<name>(...) targets a different
// registered operation. Self-loops are excluded by construction; calls
// inside unregistered functions are never recorded.
func InternalCalls(mod *pysrc.Module, reg Registry) []CallEdge {
	if reg.Empty() {
		return nil
	}

	seen := make(map[CallEdge]struct{})
	var edges []CallEdge

	// scope is threaded through the descent by value, so nested
	// definitions restore the enclosing operation on exit and the
	// innermost registered definition always wins.
	var walk func(n *sitter.Node, scope string)
	walk = func(n *sitter.Node, scope string) {
		if pysrc.IsFunctionDef(n) {
			if name := pysrc.DefinitionName(n, mod.Src); reg.Has(name) {
				scope = name
			}
		}
		if scope != "" && n.Type() == "call" {
			if attr, ok := pysrc.SelfAttribute(n.ChildByFieldName("function"), mod.Src); ok {
				callee := attr.Content(mod.Src)
				if callee != scope && reg.Has(callee) {
					edge := CallEdge{Caller: scope, Callee: callee}
					if _, dup := seen[edge]; !dup {
						seen[edge] = struct{}{}
						edges = append(edges, edge)
					}
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i), scope)
		}
	}
	walk(mod.Root(), "")

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Caller != edges[j].Caller {
			return edges[i].Caller < edges[j].Caller
		}
		return edges[i].Callee < edges[j].Callee
	})
	return edges
}
