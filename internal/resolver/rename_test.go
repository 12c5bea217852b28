package resolver_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-phpls/phpls/internal/index"
	"github.com/go-phpls/phpls/internal/resolver"
	"github.com/go-phpls/phpls/internal/symbols"
)

func TestValidateNewNameRejectsNonIdentifiers(t *testing.T) {
	assert.NoError(t, resolver.ValidateNewName("Greeter"))
	assert.NoError(t, resolver.ValidateNewName("_private"))
	assert.Error(t, resolver.ValidateNewName("App\\Greeter"))
	assert.Error(t, resolver.ValidateNewName("has space"))
	assert.Error(t, resolver.ValidateNewName(""))
	assert.Error(t, resolver.ValidateNewName("1Leading"))
}

// applyEdits patches src by replacing each edit's byte range with its
// NewText, applied back-to-front so earlier offsets stay valid.
func applyEdits(src string, edits []resolver.RenameEdit) string {
	sort.Slice(edits, func(i, j int) bool { return edits[i].Range.StartByte > edits[j].Range.StartByte })
	out := src
	for _, e := range edits {
		out = out[:e.Range.StartByte] + e.NewText + out[e.Range.EndByte:]
	}
	return out
}

func TestRenameEditsCoversDeclarationAndEveryReference(t *testing.T) {
	idx := index.New()
	src := `class Greeter { function sayHello() {} }`

	decl := symbols.Descriptor{
		FQN:       "Greeter::sayHello",
		ShortName: "sayHello",
		Kind:      symbols.KindMethod,
		URI:       "file:///Greeter.php",
		SelectionRange: symbols.Range{
			StartByte: uint32(strings.Index(src, "sayHello")),
			EndByte:   uint32(strings.Index(src, "sayHello") + len("sayHello")),
		},
	}
	idx.IndexFile(symbols.FileSymbols{
		URI:     "file:///Greeter.php",
		Aliases: symbols.NewUseAliasTable(),
		Symbols: []symbols.Descriptor{decl},
		References: map[string][]symbols.Range{
			decl.FQN: {{StartByte: 100, EndByte: 108}},
		},
	})

	edits := resolver.RenameEdits(idx, decl, "sayHi")
	require.Len(t, edits, 2)

	declEdit := applyEdits(src, edits[:1])
	want := `class Greeter { function sayHi() {} }`
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(declEdit),
		FromFile: "want",
		ToFile:   "got",
		Context:  1,
	})
	require.NoError(t, err)
	assert.Empty(t, diff, "renamed declaration should match expected text exactly:\n%s", diff)

	var uris []string
	for _, e := range edits {
		uris = append(uris, e.URI)
	}
	assert.Contains(t, uris, "file:///Greeter.php")
}
