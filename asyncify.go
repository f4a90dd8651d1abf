package toolshift

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/universal-mcp/toolshift/internal/pysrc"
)

// AsyncifyFunctions returns the edits that convert every registered
// synchronous function definition in mod to an asynchronous one. The
// definition's name, parameters, body, decorators, and return
// annotation are untouched; the only change is the async marker in
// front of the def keyword. Definitions that are already asynchronous
// produce no edit, so applying the pass to its own output is a no-op.
// A registered name with no matching definition simply converts
// nothing.
func AsyncifyFunctions(mod *pysrc.Module, reg Registry) []pysrc.Edit {
	if reg.Empty() {
		return nil
	}

	var edits []pysrc.Edit
	pysrc.Walk(mod.Root(), func(n *sitter.Node) bool {
		if !pysrc.IsFunctionDef(n) || pysrc.IsAsync(n) {
			return true
		}
		if !reg.Has(pysrc.DefinitionName(n, mod.Src)) {
			return true
		}
		// A sync function_definition starts at its def keyword;
		// decorators live on the wrapping decorated_definition and are
		// unaffected by an insertion here.
		edits = append(edits, pysrc.Edit{
			Start: n.StartByte(),
			End:   n.StartByte(),
			Text:  "async ",
		})
		return true
	})
	return edits
}
