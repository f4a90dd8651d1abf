package toolshift

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/universal-mcp/toolshift/internal/pysrc"
)

// RegistrationMethod is the fixed method name whose return statement
// enumerates a wrapper class's callable operations.
const RegistrationMethod = "list_tools"

// Registry is the set of operation names a module registers. It holds
// names only, never node references; later passes use it purely as a
// lookup set.
type Registry map[string]struct{}

// Has reports whether name is a registered operation.
func (r Registry) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Empty reports whether no operations were registered. Callers treat an
// empty registry as "nothing to transform", not as an error.
func (r Registry) Empty() bool {
	return len(r) == 0
}

// Names returns the registered names in lexicographic order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExtractRegistry walks the whole tree and collects the operation names
// enumerated by every registration method it finds. For each class
// definition anywhere in the tree, it inspects the class's direct
// members for a method named list_tools, then scans that method's
// top-level return statements: when the returned value is a list or
// tuple literal, every element of the form <receiver>.<name> registers
// <name>. Elements of any other shape are ignored.
//
// Because the walk is whole-tree, a module holding several wrapper
// classes merges all their registered names into one registry. That
// merge is long-standing behavior the rewrite passes depend on; see
// DESIGN.md.
func ExtractRegistry(mod *pysrc.Module) Registry {
	reg := Registry{}
	pysrc.Walk(mod.Root(), func(n *sitter.Node) bool {
		if n.Type() != "class_definition" {
			return true
		}
		body := n.ChildByFieldName("body")
		if body == nil {
			return true
		}
		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := pysrc.Unwrap(body.NamedChild(i))
			if !pysrc.IsFunctionDef(member) {
				continue
			}
			if pysrc.DefinitionName(member, mod.Src) != RegistrationMethod {
				continue
			}
			collectRegisteredNames(member, mod.Src, reg)
		}
		return true
	})
	return reg
}

// collectRegisteredNames scans the direct statements of a registration
// method's body for return statements returning a list or tuple literal
// and registers each attribute-access element's name.
func collectRegisteredNames(method *sitter.Node, src []byte, reg Registry) {
	body := method.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() != "return_statement" {
			continue
		}
		value := stmt.NamedChild(0)
		if value == nil {
			continue
		}
		// A parenless tuple return (`return self.a, self.b`) parses as
		// expression_list rather than tuple.
		switch value.Type() {
		case "list", "tuple", "expression_list":
		default:
			continue
		}
		for j := 0; j < int(value.NamedChildCount()); j++ {
			elt := value.NamedChild(j)
			if elt.Type() != "attribute" {
				continue
			}
			if attr := elt.ChildByFieldName("attribute"); attr != nil {
				reg[attr.Content(src)] = struct{}{}
			}
		}
	}
}
