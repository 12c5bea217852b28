package docstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-phpls/phpls/internal/docstore"
)

func TestNewDocumentExtractsSymbols(t *testing.T) {
	src := "<?php\nclass Foo {}\n"
	doc, err := docstore.NewDocument(context.Background(), "file:///Foo.php", []byte(src))
	require.NoError(t, err)
	defer doc.Close()

	fs := doc.Symbols()
	require.Len(t, fs.Symbols, 1)
	assert.Equal(t, "Foo", fs.Symbols[0].ShortName)
}

func TestApplyChangesReparsesIncrementally(t *testing.T) {
	src := "<?php\nclass Foo {}\n"
	doc, err := docstore.NewDocument(context.Background(), "file:///Foo.php", []byte(src))
	require.NoError(t, err)
	defer doc.Close()

	start := len("<?php\nclass ")
	end := start + len("Foo")
	err = doc.ApplyChanges(context.Background(), 2, []docstore.Change{
		{StartByte: start, EndByte: end, NewText: []byte("Bar")},
	})
	require.NoError(t, err)

	assert.Contains(t, doc.Text(), "class Bar")
	fs := doc.Symbols()
	require.Len(t, fs.Symbols, 1)
	assert.Equal(t, "Bar", fs.Symbols[0].ShortName)
	assert.Equal(t, int32(2), doc.Version())
}

func TestSetTextReplacesContent(t *testing.T) {
	doc, err := docstore.NewDocument(context.Background(), "file:///Foo.php", []byte("<?php\nclass A {}\n"))
	require.NoError(t, err)
	defer doc.Close()

	err = doc.SetText(context.Background(), 3, []byte("<?php\nclass B {}\n"))
	require.NoError(t, err)
	assert.Equal(t, "B", doc.Symbols().Symbols[0].ShortName)
}

func TestStoreGetReturnsCachedDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Foo.php")
	require.NoError(t, os.WriteFile(path, []byte("<?php\nclass Foo {}\n"), 0o644))

	store := docstore.NewStore(1)
	doc1, err := store.Get(context.Background(), path)
	require.NoError(t, err)
	doc2, err := store.Get(context.Background(), path)
	require.NoError(t, err)
	assert.Same(t, doc1, doc2)
}

func TestStoreRegisterOpenPreventsEviction(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "A.php")
	pathB := filepath.Join(dir, "B.php")
	require.NoError(t, os.WriteFile(pathA, []byte("<?php\nclass A {}\n"), 0o644))
	require.NoError(t, os.WriteFile(pathB, []byte("<?php\nclass B {}\n"), 0o644))

	store := docstore.NewStore(1)
	docA, err := docstore.NewDocument(context.Background(), "file:///A.php", []byte("<?php\nclass A {}\n"))
	require.NoError(t, err)
	store.RegisterOpen(pathA, docA)

	_, err = store.Get(context.Background(), pathB)
	require.NoError(t, err)

	gotA, err := store.Get(context.Background(), pathA)
	require.NoError(t, err)
	assert.Same(t, docA, gotA)
}
