// Package docstore owns the open-document lifecycle: a rope-backed buffer,
// its incrementally-parsed CST, and the extracted symbol set, kept in sync
// as didOpen/didChange/didClose events arrive, plus a bounded LRU cache of
// lazily-parsed, non-open files reached through name resolution.
package docstore

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/go-phpls/phpls/internal/cst"
	"github.com/go-phpls/phpls/internal/rope"
	"github.com/go-phpls/phpls/internal/symbols"
)

// Document is one open (or lazily loaded) PHP file: its text, tree, and
// extracted symbol set, kept consistent under a single lock.
type Document struct {
	mu      sync.RWMutex
	uri     string
	version int32
	buf     *rope.Rope
	parser  *cst.Parser
	tree    *sitter.Tree
	fs      symbols.FileSymbols
}

// NewDocument constructs a Document bound to uri with its initial text.
func NewDocument(ctx context.Context, uri string, content []byte) (*Document, error) {
	d := &Document{uri: uri, parser: cst.NewParser(), buf: rope.New(content)}
	if err := d.reparse(ctx); err != nil {
		d.parser.Close()
		return nil, err
	}
	return d, nil
}

// Close releases the tree-sitter parser and tree.
func (d *Document) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tree != nil {
		d.tree.Close()
		d.tree = nil
	}
	d.parser.Close()
}

// URI returns the document's URI.
func (d *Document) URI() string { return d.uri }

// Version returns the last version number applied via ApplyChanges/SetText.
func (d *Document) Version() int32 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// Text returns the full current document text.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.buf.String()
}

// Symbols returns the most recently extracted FileSymbols.
func (d *Document) Symbols() symbols.FileSymbols {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fs
}

// Change is a single incremental edit in byte-offset terms, already
// resolved from an LSP Range against the document's current buffer by the
// caller (internal/server, which has the position<->offset conversion
// context a generic docstore shouldn't need to own).
type Change struct {
	StartByte int
	EndByte   int
	NewText   []byte
}

// ApplyChanges replaces the whole document (when changes is empty, callers
// pass the new full text via SetText instead) with the provided edits
// applied in order, reparses incrementally, and re-extracts symbols.
func (d *Document) ApplyChanges(ctx context.Context, version int32, changes []Change) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var lastEdit *sitter.InputEdit
	for _, c := range changes {
		startPoint, err := d.pointAtLocked(c.StartByte)
		if err != nil {
			return err
		}
		oldEndPoint, err := d.pointAtLocked(c.EndByte)
		if err != nil {
			return err
		}
		if err := d.buf.Apply(rope.Edit{Start: c.StartByte, End: c.EndByte, New: c.NewText}); err != nil {
			return err
		}
		newEndByte := c.StartByte + len(c.NewText)
		newEndPoint, err := d.pointAtLocked(newEndByte)
		if err != nil {
			return err
		}
		lastEdit = &sitter.InputEdit{
			StartIndex:  uint32(c.StartByte),
			OldEndIndex: uint32(c.EndByte),
			NewEndIndex: uint32(newEndByte),
			StartPoint:  startPoint,
			OldEndPoint: oldEndPoint,
			NewEndPoint: newEndPoint,
		}
	}
	d.version = version
	return d.reparseWithEditLocked(ctx, lastEdit)
}

// SetText replaces the document's entire content, as didOpen and
// full-sync didChange notifications do, and triggers a full reparse.
func (d *Document) SetText(ctx context.Context, version int32, content []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf = rope.New(content)
	d.version = version
	return d.reparseWithEditLocked(ctx, nil)
}

func (d *Document) pointAtLocked(byteOffset int) (sitter.Point, error) {
	line, col, err := d.buf.PositionAt(byteOffset)
	if err != nil {
		return sitter.Point{}, err
	}
	return sitter.Point{Row: uint(line), Column: uint(col)}, nil
}

func (d *Document) reparse(ctx context.Context) error {
	return d.reparseWithEditLocked(ctx, nil)
}

func (d *Document) reparseWithEditLocked(ctx context.Context, edit *sitter.InputEdit) error {
	content := d.buf.Bytes()
	var tree *sitter.Tree
	var err error
	if d.tree == nil || edit == nil {
		if d.tree != nil {
			d.tree.Close()
		}
		tree, err = d.parser.Parse(ctx, content)
	} else {
		tree, err = d.parser.Reparse(ctx, d.tree, *edit, content)
	}
	if err != nil {
		return fmt.Errorf("docstore: parse %s: %w", d.uri, err)
	}
	d.tree = tree
	d.fs = symbols.Extract(d.uri, tree, content)
	return nil
}

// WithTree calls fn with the document's current tree, content, and
// extracted symbol set under a read lock, so a concurrent reparse can't
// replace the tree out from under fn. fn must not retain tree past the call.
func (d *Document) WithTree(fn func(tree *sitter.Tree, content []byte, fs symbols.FileSymbols)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn(d.tree, d.buf.Bytes(), d.fs)
}

// NodeAt returns the smallest named node spanning byteOffset, together with
// the content it should be read against. The returned content is a copy so
// callers can hold it past the document's lock.
func (d *Document) NodeAt(byteOffset int) (sitter.Node, []byte, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.tree == nil {
		return sitter.Node{}, nil, false
	}
	node, ok := cst.NodeAtByte(d.tree, uint32(byteOffset))
	if !ok {
		return sitter.Node{}, nil, false
	}
	return node, d.buf.Bytes(), true
}

// OffsetAt converts a zero-based line/column to a byte offset.
func (d *Document) OffsetAt(line, col int) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.buf.OffsetAt(line, col)
}

// PositionAt converts a byte offset to a zero-based line/column.
func (d *Document) PositionAt(offset int) (line, col int, err error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.buf.PositionAt(offset)
}
