// Package pysrc wraps tree-sitter's Python grammar for the toolshift
// passes. It owns parsing, the handful of node-shape checks the passes
// share, and the byte-span edit mechanism used to serialize rewrites
// back to source text.
package pysrc

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrSyntax is returned by Parse when the grammar could not build a
// clean tree from the source text.
var ErrSyntax = errors.New("syntax error")

// Module is one parsed Python source module. The tree borrows Src, so
// Src must not be mutated while the tree is alive; rewrites go through
// Edits instead.
type Module struct {
	Path string
	Src  []byte
	tree *sitter.Tree
}

// Parse builds a syntax tree for src. A tree containing error nodes is
// rejected with ErrSyntax so callers can skip the module and continue
// their batch.
func Parse(ctx context.Context, path string, src []byte) (*Module, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("pysrc: parse %s: %w", path, err)
	}
	if tree.RootNode().HasError() {
		tree.Close()
		return nil, fmt.Errorf("pysrc: parse %s: %w", path, ErrSyntax)
	}
	return &Module{Path: path, Src: src, tree: tree}, nil
}

// Root returns the module node of the tree.
func (m *Module) Root() *sitter.Node {
	return m.tree.RootNode()
}

// Text returns the source text covered by n.
func (m *Module) Text(n *sitter.Node) string {
	return n.Content(m.Src)
}

// Close releases the underlying tree-sitter tree.
func (m *Module) Close() {
	if m.tree != nil {
		m.tree.Close()
		m.tree = nil
	}
}

// Walk visits n and every node below it in depth-first order, anonymous
// keyword tokens included. visit returns false to skip a node's subtree.
func Walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		Walk(n.Child(i), visit)
	}
}

// IsFunctionDef reports whether n is a function or method definition.
// Python's grammar uses a single function_definition kind for both the
// sync and async forms; IsAsync distinguishes them.
func IsFunctionDef(n *sitter.Node) bool {
	return n.Type() == "function_definition"
}

// IsAsync reports whether a function_definition carries the async
// keyword.
func IsAsync(n *sitter.Node) bool {
	first := n.Child(0)
	return first != nil && first.Type() == "async"
}

// DefinitionName returns the declared name of a function or class
// definition, or "" if the node has no name field.
func DefinitionName(n *sitter.Node, src []byte) string {
	name := n.ChildByFieldName("name")
	if name == nil {
		return ""
	}
	return name.Content(src)
}

// Unwrap strips a decorated_definition wrapper, returning the inner
// definition node. Non-decorated nodes pass through unchanged.
func Unwrap(n *sitter.Node) *sitter.Node {
	if n.Type() != "decorated_definition" {
		return n
	}
	if def := n.ChildByFieldName("definition"); def != nil {
		return def
	}
	return n
}

// SelfAttribute matches an attribute node of the form self.<name> and
// returns the attribute identifier node. Attribute accesses through any
// other receiver, or deeper chains like self.client.get, do not match.
func SelfAttribute(n *sitter.Node, src []byte) (*sitter.Node, bool) {
	if n == nil || n.Type() != "attribute" {
		return nil, false
	}
	obj := n.ChildByFieldName("object")
	attr := n.ChildByFieldName("attribute")
	if obj == nil || attr == nil {
		return nil, false
	}
	if obj.Type() != "identifier" || obj.Content(src) != "self" {
		return nil, false
	}
	return attr, true
}
