// Package cst wraps the tree-sitter PHP grammar with the incremental parse
// loop, node-at-position lookup, and error/missing-node enumeration shared by
// the extractor, the completion engine, and the diagnostics engine.
package cst

import (
	"context"
	"fmt"

	phpforest "github.com/alexaandru/go-sitter-forest/php"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Parser produces and incrementally updates a Tree for a single document.
// It is not safe for concurrent use; callers serialize access per document
// the same way the document store does.
type Parser struct {
	parser *sitter.Parser
}

// NewParser constructs a parser bound to the PHP grammar.
func NewParser() *Parser {
	p := sitter.NewParser()
	lang := sitter.NewLanguage(phpforest.GetLanguage())
	_ = p.SetLanguage(lang)
	return &Parser{parser: p}
}

// Parse runs a full parse of content, ignoring any previous tree.
func (p *Parser) Parse(ctx context.Context, content []byte) (*sitter.Tree, error) {
	tree, err := p.parser.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("cst: parse: %w", err)
	}
	return tree, nil
}

// Reparse applies edit to old (mutating it in place, per tree-sitter's
// convention) and parses content against the edited tree, returning a new
// tree. The caller owns closing both old and the returned tree.
func (p *Parser) Reparse(ctx context.Context, old *sitter.Tree, edit sitter.InputEdit, content []byte) (*sitter.Tree, error) {
	old.Edit(edit)
	tree, err := p.parser.ParseString(ctx, old, content)
	if err != nil {
		return nil, fmt.Errorf("cst: reparse: %w", err)
	}
	return tree, nil
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

// Point is a zero-based row/column pair in tree-sitter's coordinate space.
type Point = sitter.Point

// NodeAt returns the smallest named node spanning point.
func NodeAt(tree *sitter.Tree, point Point) (sitter.Node, bool) {
	if tree == nil {
		return sitter.Node{}, false
	}
	root := tree.RootNode()
	if root.IsNull() {
		return sitter.Node{}, false
	}
	node := root.NamedDescendantForPointRange(point, point)
	if node.IsNull() {
		return sitter.Node{}, false
	}
	return node, true
}

// NodeAtByte returns the smallest named node spanning the given byte offset.
func NodeAtByte(tree *sitter.Tree, offset uint32) (sitter.Node, bool) {
	if tree == nil {
		return sitter.Node{}, false
	}
	root := tree.RootNode()
	if root.IsNull() {
		return sitter.Node{}, false
	}
	node := root.NamedDescendantForByteRange(offset, offset)
	if node.IsNull() {
		return sitter.Node{}, false
	}
	return node, true
}

// Walk performs a depth-first pre-order traversal of named nodes, calling
// visit on each. Returning false from visit stops the traversal early.
func Walk(root sitter.Node, visit func(sitter.Node) bool) {
	if root.IsNull() {
		return
	}
	stack := []sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(n) {
			return
		}
		for i := n.NamedChildCount(); i > 0; i-- {
			stack = append(stack, n.NamedChild(i-1))
		}
	}
}

// SyntaxProblem is one ERROR or MISSING node found in a tree.
type SyntaxProblem struct {
	Node    sitter.Node
	Missing bool
}

// CollectSyntaxProblems walks tree and returns every ERROR/MISSING node.
func CollectSyntaxProblems(tree *sitter.Tree) []SyntaxProblem {
	if tree == nil {
		return nil
	}
	root := tree.RootNode()
	var problems []SyntaxProblem
	Walk(root, func(n sitter.Node) bool {
		if n.IsMissing() {
			problems = append(problems, SyntaxProblem{Node: n, Missing: true})
		} else if n.IsError() || n.Type() == "ERROR" {
			problems = append(problems, SyntaxProblem{Node: n, Missing: false})
		}
		return true
	})
	return problems
}

// Ancestors returns node's ancestor chain, innermost first, not including
// node itself.
func Ancestors(node sitter.Node) []sitter.Node {
	var chain []sitter.Node
	for p := node.Parent(); !p.IsNull(); p = p.Parent() {
		chain = append(chain, p)
	}
	return chain
}

// FindAncestor walks up from node (not including node) and returns the
// first ancestor whose Type() is in types.
func FindAncestor(node sitter.Node, types ...string) (sitter.Node, bool) {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	for p := node.Parent(); !p.IsNull(); p = p.Parent() {
		if _, ok := set[p.Type()]; ok {
			return p, true
		}
	}
	return sitter.Node{}, false
}

// ChildByField returns the named child of node matching field, or false if
// none does.
func ChildByField(node sitter.Node, field string) (sitter.Node, bool) {
	for i := uint32(0); i < node.NamedChildCount(); i++ {
		if node.FieldNameForNamedChild(i) == field {
			return node.NamedChild(i), true
		}
	}
	return sitter.Node{}, false
}

// NamedChildren returns node's direct named children as a slice.
func NamedChildren(node sitter.Node) []sitter.Node {
	n := node.NamedChildCount()
	out := make([]sitter.Node, 0, n)
	for i := uint32(0); i < n; i++ {
		out = append(out, node.NamedChild(i))
	}
	return out
}

// Text returns node's source text from content.
func Text(node sitter.Node, content []byte) string {
	if node.IsNull() {
		return ""
	}
	return node.Content(content)
}
