package cst_test

import (
	"context"
	"testing"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-phpls/phpls/internal/cst"
)

func TestParseProducesClassDeclaration(t *testing.T) {
	p := cst.NewParser()
	defer p.Close()

	content := []byte("<?php\nclass Foo {\n  public function bar() {}\n}\n")
	tree, err := p.Parse(context.Background(), content)
	require.NoError(t, err)
	defer tree.Close()

	root := tree.RootNode()
	require.False(t, root.IsNull())

	var foundClass bool
	cst.Walk(root, func(n sitter.Node) bool {
		if n.Type() == "class_declaration" {
			foundClass = true
		}
		return true
	})
	assert.True(t, foundClass)
}

func TestReparseAppliesEditIncrementally(t *testing.T) {
	p := cst.NewParser()
	defer p.Close()

	content := []byte("<?php\nclass Foo {}\n")
	tree, err := p.Parse(context.Background(), content)
	require.NoError(t, err)

	newContent := []byte("<?php\nclass Bar {}\n")
	start := uint32(len("<?php\nclass "))
	oldEnd := start + uint32(len("Foo"))
	newEnd := start + uint32(len("Bar"))
	edit := sitter.InputEdit{
		StartIndex:  start,
		OldEndIndex: oldEnd,
		NewEndIndex: newEnd,
		StartPoint:  sitter.Point{Row: 1, Column: uint(start - uint32(len("<?php\n")))},
		OldEndPoint: sitter.Point{Row: 1, Column: uint(oldEnd - uint32(len("<?php\n")))},
		NewEndPoint: sitter.Point{Row: 1, Column: uint(newEnd - uint32(len("<?php\n")))},
	}

	newTree, err := p.Reparse(context.Background(), tree, edit, newContent)
	require.NoError(t, err)
	defer newTree.Close()
	defer tree.Close()

	root := newTree.RootNode()
	text := cst.Text(root, newContent)
	assert.Contains(t, text, "Bar")
}

func TestNodeAtByteFindsSmallestNamedNode(t *testing.T) {
	p := cst.NewParser()
	defer p.Close()

	content := []byte("<?php\nclass Foo {}\n")
	tree, err := p.Parse(context.Background(), content)
	require.NoError(t, err)
	defer tree.Close()

	offset := uint32(len("<?php\nclass "))
	node, ok := cst.NodeAtByte(tree, offset)
	require.True(t, ok)
	assert.Equal(t, "Foo", cst.Text(node, content))
}

func TestCollectSyntaxProblemsFindsErrorNode(t *testing.T) {
	p := cst.NewParser()
	defer p.Close()

	content := []byte("<?php\nclass Foo {\n")
	tree, err := p.Parse(context.Background(), content)
	require.NoError(t, err)
	defer tree.Close()

	problems := cst.CollectSyntaxProblems(tree)
	assert.NotEmpty(t, problems)
}

func TestFindAncestorLocatesEnclosingClass(t *testing.T) {
	p := cst.NewParser()
	defer p.Close()

	content := []byte("<?php\nclass Foo {\n  public function bar() {}\n}\n")
	tree, err := p.Parse(context.Background(), content)
	require.NoError(t, err)
	defer tree.Close()

	offset := uint32(len("<?php\nclass Foo {\n  public function "))
	node, ok := cst.NodeAtByte(tree, offset)
	require.True(t, ok)

	ancestor, ok := cst.FindAncestor(node, "class_declaration")
	require.True(t, ok)
	assert.Equal(t, "class_declaration", ancestor.Type())
}
