package toolshift

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/universal-mcp/toolshift/internal/pysrc"
)

// syncToAsyncVerb maps each synchronous HTTP helper method to its
// asynchronous counterpart. An explicit table, so the rename never
// depends on splicing strings out of the method name.
var syncToAsyncVerb = map[string]string{
	"_get":    "_aget",
	"_post":   "_apost",
	"_put":    "_aput",
	"_delete": "_adelete",
	"_patch":  "_apatch",
}

// AsyncifyHTTPCalls returns the edits that rewrite HTTP helper calls
// inside registered operation bodies to their asynchronous form:
// self._get(...) becomes await self._aget(...), arguments untouched.
// Only calls whose callee is exactly self.<verb> with <verb> in the
// rename table are rewritten; calls through other receivers or to other
// names pass through, their arguments still visited. The async helper
// names are not in the table, so a second application changes nothing.
func AsyncifyHTTPCalls(mod *pysrc.Module, reg Registry) []pysrc.Edit {
	if reg.Empty() {
		return nil
	}

	var edits []pysrc.Edit

	// Same scoping discipline as InternalCalls: the enclosing
	// registered operation is threaded by value through the descent,
	// and rewriting only happens inside one.
	var walk func(n *sitter.Node, scope string)
	walk = func(n *sitter.Node, scope string) {
		if pysrc.IsFunctionDef(n) {
			if name := pysrc.DefinitionName(n, mod.Src); reg.Has(name) {
				scope = name
			}
		}
		if scope != "" && n.Type() == "call" {
			if attr, ok := pysrc.SelfAttribute(n.ChildByFieldName("function"), mod.Src); ok {
				if asyncName, match := syncToAsyncVerb[attr.Content(mod.Src)]; match {
					edits = append(edits,
						pysrc.Edit{Start: n.StartByte(), End: n.StartByte(), Text: "await "},
						pysrc.Edit{Start: attr.StartByte(), End: attr.EndByte(), Text: asyncName},
					)
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i), scope)
		}
	}
	walk(mod.Root(), "")

	return edits
}
