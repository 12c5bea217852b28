package resolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-phpls/phpls/internal/autoload"
	"github.com/go-phpls/phpls/internal/index"
	"github.com/go-phpls/phpls/internal/resolver"
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

func TestLookupFindsIndexedDescriptor(t *testing.T) {
	idx := index.New()
	idx.IndexFile(fileWith("file:///A.php", symbols.Descriptor{FQN: `App\A`, ShortName: "A", Kind: symbols.KindClass}))

	r := resolver.New(idx, nil, autoload.Map{}, nil, "8.2")
	d, ok := r.Lookup(context.Background(), `App\A`, resolver.NamespaceType)
	require.True(t, ok)
	assert.Equal(t, "A", d.ShortName)
}

func TestLookupDisambiguatesSameFQNByNamespace(t *testing.T) {
	idx := index.New()
	idx.IndexFile(fileWith("file:///A.php",
		symbols.Descriptor{FQN: `App\Foo`, ShortName: "Foo", Kind: symbols.KindClass},
		symbols.Descriptor{FQN: `App\Foo`, ShortName: "Foo", Kind: symbols.KindFunction},
	))
	r := resolver.New(idx, nil, autoload.Map{}, nil, "8.2")

	class, ok := r.Lookup(context.Background(), `App\Foo`, resolver.NamespaceType)
	require.True(t, ok)
	assert.Equal(t, symbols.KindClass, class.Kind)

	fn, ok := r.Lookup(context.Background(), `App\Foo`, resolver.NamespaceFunction)
	require.True(t, ok)
	assert.Equal(t, symbols.KindFunction, fn.Kind)
}

func TestResolveTypeNameRewritesSelfStaticParent(t *testing.T) {
	idx := index.New()
	idx.IndexFile(fileWith("file:///A.php",
		symbols.Descriptor{FQN: `App\Base`, ShortName: "Base", Kind: symbols.KindClass},
		symbols.Descriptor{FQN: `App\Child`, ShortName: "Child", Kind: symbols.KindClass, Extends: []string{`App\Base`}},
	))
	r := resolver.New(idx, nil, autoload.Map{}, nil, "8.2")
	cc := resolver.ClassContext{FQN: `App\Child`, Parent: `App\Base`}

	self, ok := r.ResolveTypeName(context.Background(), "self", cc)
	require.True(t, ok)
	assert.Equal(t, `App\Child`, self.FQN)

	static, ok := r.ResolveTypeName(context.Background(), "static", cc)
	require.True(t, ok)
	assert.Equal(t, `App\Child`, static.FQN)

	parent, ok := r.ResolveTypeName(context.Background(), "parent", cc)
	require.True(t, ok)
	assert.Equal(t, `App\Base`, parent.FQN)
}

func TestAncestorsWalksExtendsChainTransitively(t *testing.T) {
	idx := index.New()
	idx.IndexFile(fileWith("file:///hierarchy.php",
		symbols.Descriptor{FQN: `App\Grandparent`, ShortName: "Grandparent", Kind: symbols.KindClass},
		symbols.Descriptor{FQN: `App\Parent`, ShortName: "Parent", Kind: symbols.KindClass, Extends: []string{`App\Grandparent`}},
		symbols.Descriptor{FQN: `App\Child`, ShortName: "Child", Kind: symbols.KindClass, Extends: []string{`App\Parent`}},
	))
	r := resolver.New(idx, nil, autoload.Map{}, nil, "8.2")

	ancestors := r.Ancestors(context.Background(), `App\Child`)
	assert.ElementsMatch(t, []string{`App\Parent`, `App\Grandparent`}, ancestors)
}

func TestMembersIncludesInheritedButNotShadowedPrivate(t *testing.T) {
	idx := index.New()
	idx.IndexFile(fileWith("file:///Base.php",
		symbols.Descriptor{FQN: `App\Base`, ShortName: "Base", Kind: symbols.KindClass},
		symbols.Descriptor{FQN: `App\Base::secret`, ShortName: "secret", Kind: symbols.KindMethod, ContainerFQN: `App\Base`, Visibility: symbols.VisibilityPrivate},
		symbols.Descriptor{FQN: `App\Base::shared`, ShortName: "shared", Kind: symbols.KindMethod, ContainerFQN: `App\Base`, Visibility: symbols.VisibilityPublic},
	))
	idx.IndexFile(fileWith("file:///Child.php",
		symbols.Descriptor{FQN: `App\Child`, ShortName: "Child", Kind: symbols.KindClass, Extends: []string{`App\Base`}},
		symbols.Descriptor{FQN: `App\Child::own`, ShortName: "own", Kind: symbols.KindMethod, ContainerFQN: `App\Child`, Visibility: symbols.VisibilityPublic},
	))
	r := resolver.New(idx, nil, autoload.Map{}, nil, "8.2")

	members := r.Members(context.Background(), `App\Child`)
	var names []string
	for _, m := range members {
		names = append(names, m.ShortName)
	}
	assert.Contains(t, names, "own")
	assert.Contains(t, names, "shared")
	assert.NotContains(t, names, "secret")
}

func TestResolveMemberFindsClosestVisibleMatch(t *testing.T) {
	idx := index.New()
	idx.IndexFile(fileWith("file:///Base.php",
		symbols.Descriptor{FQN: `App\Base`, ShortName: "Base", Kind: symbols.KindClass},
		symbols.Descriptor{FQN: `App\Base::foo`, ShortName: "foo", Kind: symbols.KindMethod, ContainerFQN: `App\Base`, Visibility: symbols.VisibilityPublic},
	))
	idx.IndexFile(fileWith("file:///Child.php",
		symbols.Descriptor{FQN: `App\Child`, ShortName: "Child", Kind: symbols.KindClass, Extends: []string{`App\Base`}},
	))
	r := resolver.New(idx, nil, autoload.Map{}, nil, "8.2")

	d, ok := r.ResolveMember(context.Background(), `App\Child`, "foo")
	require.True(t, ok)
	assert.Equal(t, `App\Base::foo`, d.FQN)

	_, ok = r.ResolveMember(context.Background(), `App\Child`, "missing")
	assert.False(t, ok)
}
