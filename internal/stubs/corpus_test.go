package stubs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-phpls/phpls/internal/stubs"
	"github.com/go-phpls/phpls/internal/symbols"
)

func writeStub(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadMarksDefaultLibrary(t *testing.T) {
	root := t.TempDir()
	writeStub(t, root, "ArrayObject.php", "<?php\nclass ArrayObject {}\n")

	c, err := stubs.Load(context.Background(), root)
	require.NoError(t, err)

	d, ok := c.Lookup("ArrayObject", symbols.NamespaceType, "")
	require.True(t, ok)
	assert.True(t, d.IsDefaultLibrary())
	assert.Equal(t, symbols.KindClass, d.Kind)
}

func TestLookupGatedByPhpVersion(t *testing.T) {
	root := t.TempDir()
	writeStub(t, root, "Fiber.php", "<?php\nclass Fiber {}\n")
	writeStub(t, root, "Fiber.php.manifest.json", `{"since": "8.1.0"}`)

	c, err := stubs.Load(context.Background(), root)
	require.NoError(t, err)

	_, ok := c.Lookup("Fiber", symbols.NamespaceType, "7.4.0")
	assert.False(t, ok)

	d, ok := c.Lookup("Fiber", symbols.NamespaceType, "8.2.0")
	assert.True(t, ok)
	assert.Equal(t, "Fiber", d.ShortName)
}

func TestLoadMissingRootIsNotAnError(t *testing.T) {
	c, err := stubs.Load(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestAllRespectsGating(t *testing.T) {
	root := t.TempDir()
	writeStub(t, root, "Old.php", "<?php\nclass Old {}\n")
	writeStub(t, root, "Old.php.manifest.json", `{"until": "8.0.0"}`)
	writeStub(t, root, "New.php", "<?php\nclass New2 {}\n")

	c, err := stubs.Load(context.Background(), root)
	require.NoError(t, err)

	all := c.All("8.1.0")
	names := make(map[string]bool)
	for _, d := range all {
		names[d.ShortName] = true
	}
	assert.False(t, names["Old"])
	assert.True(t, names["New2"])
}
