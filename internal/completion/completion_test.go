package completion_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-phpls/phpls/internal/autoload"
	"github.com/go-phpls/phpls/internal/completion"
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

func newEngine(idx *index.Index) *completion.Engine {
	res := resolver.New(idx, nil, autoload.Map{}, nil, "8.2")
	return completion.New(idx, res)
}

func TestCompleteMemberAfterArrow(t *testing.T) {
	idx := index.New()
	idx.IndexFile(fileWith("file:///A.php",
		symbols.Descriptor{FQN: `App\Greeter`, ShortName: "Greeter", Kind: symbols.KindClass},
		symbols.Descriptor{FQN: `App\Greeter::greet`, ShortName: "greet", Kind: symbols.KindMethod, ContainerFQN: `App\Greeter`, Visibility: symbols.VisibilityPublic},
		symbols.Descriptor{FQN: `App\Greeter::name`, ShortName: "name", Kind: symbols.KindProperty, ContainerFQN: `App\Greeter`, Visibility: symbols.VisibilityPublic},
	))
	e := newEngine(idx)

	content := []byte(`$this->gre`)
	req := completion.Request{
		Content:      content,
		Offset:       len(content),
		ClassContext: resolver.ClassContext{FQN: `App\Greeter`},
	}
	cands := e.Complete(context.Background(), req)
	require.Len(t, cands, 1)
	assert.Equal(t, "greet", cands[0].Label)
}

func TestCompleteStaticAfterDoubleColon(t *testing.T) {
	idx := index.New()
	idx.IndexFile(fileWith("file:///A.php",
		symbols.Descriptor{FQN: `App\Config`, ShortName: "Config", Kind: symbols.KindClass},
		symbols.Descriptor{FQN: `App\Config::VERSION`, ShortName: "VERSION", Kind: symbols.KindClassConstant, ContainerFQN: `App\Config`, Visibility: symbols.VisibilityPublic},
	))
	e := newEngine(idx)

	content := []byte(`Config::`)
	req := completion.Request{Content: content, Offset: len(content)}
	cands := e.Complete(context.Background(), req)
	require.Len(t, cands, 1)
	assert.Equal(t, "VERSION", cands[0].Label)
}

func TestCompleteVariableIncludesThis(t *testing.T) {
	idx := index.New()
	e := newEngine(idx)

	content := []byte(`$t`)
	req := completion.Request{
		Content:      content,
		Offset:       len(content),
		ClassContext: resolver.ClassContext{FQN: `App\Foo`},
	}
	cands := e.Complete(context.Background(), req)
	require.Len(t, cands, 1)
	assert.Equal(t, "this", cands[0].Label)
}

func TestCompleteFreeSearchesIndex(t *testing.T) {
	idx := index.New()
	idx.IndexFile(fileWith("file:///A.php", symbols.Descriptor{FQN: `App\Widget`, ShortName: "Widget", Kind: symbols.KindClass}))
	e := newEngine(idx)

	content := []byte(`Widg`)
	req := completion.Request{Content: content, Offset: len(content)}
	cands := e.Complete(context.Background(), req)
	require.NotEmpty(t, cands)
	assert.Equal(t, "Widget", cands[0].Label)
}

func TestCompleteFreeIncludesLanguageKeywords(t *testing.T) {
	idx := index.New()
	e := newEngine(idx)

	content := []byte(`fun`)
	req := completion.Request{Content: content, Offset: len(content)}
	cands := e.Complete(context.Background(), req)
	var labels []string
	for _, c := range cands {
		labels = append(labels, c.Label)
	}
	assert.Contains(t, labels, "function")
}
