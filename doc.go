// Package toolshift provides static analysis and source-to-source
// transformation of Python tool wrapper modules, built on tree-sitter.
// It discovers the operations a wrapper class registers through its
// list_tools method, reports internal calls between those operations,
// and rewrites registered operations from synchronous to asynchronous
// form, including the HTTP helper calls inside their bodies.
package toolshift
