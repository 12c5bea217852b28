package index_test

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-phpls/phpls/internal/index"
	"github.com/go-phpls/phpls/internal/symbols"
)

func fileWith(uri string, descs ...symbols.Descriptor) symbols.FileSymbols {
	for i := range descs {
		descs[i].URI = uri
	}
	return symbols.FileSymbols{
		URI:        uri,
		Aliases:    symbols.NewUseAliasTable(),
		Symbols:    descs,
		References: make(map[string][]symbols.Range),
	}
}

func TestIndexFileAndLookup(t *testing.T) {
	idx := index.New()
	idx.IndexFile(fileWith("file:///A.php", symbols.Descriptor{FQN: `App\A`, ShortName: "A", Kind: symbols.KindClass}))

	d, ok := idx.Lookup(`App\A`, symbols.NamespaceType)
	require.True(t, ok)
	assert.Equal(t, "A", d.ShortName)
	assert.Equal(t, 1, idx.Len())
}

func TestIndexFileRetractsPreviousContribution(t *testing.T) {
	idx := index.New()
	idx.IndexFile(fileWith("file:///A.php",
		symbols.Descriptor{FQN: `App\A`, ShortName: "A", Kind: symbols.KindClass},
		symbols.Descriptor{FQN: `App\A::foo`, ShortName: "foo", Kind: symbols.KindMethod, ContainerFQN: `App\A`},
	))
	require.Equal(t, 2, idx.Len())

	idx.IndexFile(fileWith("file:///A.php",
		symbols.Descriptor{FQN: `App\A`, ShortName: "A", Kind: symbols.KindClass},
	))

	_, ok := idx.LookupMember(`App\A::foo`)
	assert.False(t, ok)
	assert.Equal(t, 1, idx.Len())
}

func TestRemoveRetractsEverything(t *testing.T) {
	idx := index.New()
	idx.IndexFile(fileWith("file:///A.php", symbols.Descriptor{FQN: `App\A`, ShortName: "A", Kind: symbols.KindClass}))
	idx.Remove("file:///A.php")
	_, ok := idx.Lookup(`App\A`, symbols.NamespaceType)
	assert.False(t, ok)
	assert.Equal(t, 0, idx.Len())
}

func TestSameFQNDifferentKindDoNotCollide(t *testing.T) {
	idx := index.New()
	idx.IndexFile(fileWith("file:///A.php",
		symbols.Descriptor{FQN: `App\Foo`, ShortName: "Foo", Kind: symbols.KindClass},
		symbols.Descriptor{FQN: `App\Foo`, ShortName: "Foo", Kind: symbols.KindFunction},
	))
	require.Equal(t, 2, idx.Len())

	class, ok := idx.Lookup(`App\Foo`, symbols.NamespaceType)
	require.True(t, ok)
	assert.Equal(t, symbols.KindClass, class.Kind)

	fn, ok := idx.Lookup(`App\Foo`, symbols.NamespaceFunction)
	require.True(t, ok)
	assert.Equal(t, symbols.KindFunction, fn.Kind)

	idx.Remove("file:///A.php")
	_, ok = idx.Lookup(`App\Foo`, symbols.NamespaceType)
	assert.False(t, ok)
	_, ok = idx.Lookup(`App\Foo`, symbols.NamespaceFunction)
	assert.False(t, ok)
}

func TestReferencesTrackedAndRetracted(t *testing.T) {
	idx := index.New()
	fs := fileWith("file:///B.php", symbols.Descriptor{FQN: `App\A`, ShortName: "A", Kind: symbols.KindClass})
	fs.References[`App\A`] = []symbols.Range{{StartByte: 0, EndByte: 1}}
	idx.IndexFile(fs)

	refs := idx.References(`App\A`)
	require.Len(t, refs, 1)
	assert.Equal(t, "file:///B.php", refs[0].URI)

	idx.Remove("file:///B.php")
	assert.Empty(t, idx.References(`App\A`))
}

func TestTypesFiltersToTypeKinds(t *testing.T) {
	idx := index.New()
	idx.IndexFile(fileWith("file:///A.php",
		symbols.Descriptor{FQN: `App\A`, ShortName: "A", Kind: symbols.KindClass},
		symbols.Descriptor{FQN: `App\f`, ShortName: "f", Kind: symbols.KindFunction},
	))

	types := idx.Types()
	require.Len(t, types, 1)
	assert.Equal(t, symbols.KindClass, types[0].Kind)
}

func TestChildrenReturnsContainerMembers(t *testing.T) {
	idx := index.New()
	idx.IndexFile(fileWith("file:///A.php",
		symbols.Descriptor{FQN: `App\A`, ShortName: "A", Kind: symbols.KindClass},
		symbols.Descriptor{FQN: `App\A::foo`, ShortName: "foo", Kind: symbols.KindMethod, ContainerFQN: `App\A`},
		symbols.Descriptor{FQN: `App\A::$bar`, ShortName: "bar", Kind: symbols.KindProperty, ContainerFQN: `App\A`},
	))

	children := idx.Children(`App\A`)
	assert.Len(t, children, 2)
}

func TestSearchRanksExactAndPrefixAboveFuzzy(t *testing.T) {
	idx := index.New()
	idx.IndexFile(fileWith("file:///X.php",
		symbols.Descriptor{FQN: `App\UserRepository`, ShortName: "UserRepository", Kind: symbols.KindClass},
		symbols.Descriptor{FQN: `App\User`, ShortName: "User", Kind: symbols.KindClass},
		symbols.Descriptor{FQN: `App\Unrelated`, ShortName: "Unrelated", Kind: symbols.KindClass},
	))

	results := idx.Search("User", 10)
	require.NotEmpty(t, results)
	assert.Equal(t, "User", results[0].Descriptor.ShortName)
}

func TestDescriptorsInFileMatchesWhatWasIndexed(t *testing.T) {
	idx := index.New()
	idx.IndexFile(fileWith("file:///A.php",
		symbols.Descriptor{FQN: `App\A`, ShortName: "A", Kind: symbols.KindClass},
		symbols.Descriptor{FQN: `App\A::foo`, ShortName: "foo", Kind: symbols.KindMethod, ContainerFQN: `App\A`},
	))

	got := idx.DescriptorsInFile("file:///A.php")
	sort.Slice(got, func(i, j int) bool { return got[i].ShortName < got[j].ShortName })

	want := []symbols.Descriptor{
		{FQN: `App\A`, ShortName: "A", Kind: symbols.KindClass, URI: "file:///A.php"},
		{FQN: `App\A::foo`, ShortName: "foo", Kind: symbols.KindMethod, ContainerFQN: `App\A`, URI: "file:///A.php"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("descriptors mismatch (-want +got):\n%s", diff)
	}
}
