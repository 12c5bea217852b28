package docblock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-phpls/phpls/internal/docblock"
	"github.com/go-phpls/phpls/internal/symbols"
)

func TestParseParamAndReturn(t *testing.T) {
	raw := `/**
	 * Sends a greeting.
	 * @param string $name the recipient
	 * @param int $times
	 * @return bool
	 */`
	doc := docblock.Parse(raw)
	assert.Equal(t, "Sends a greeting.", doc.Summary)
	assert.Equal(t, symbols.Named("string"), doc.Params["name"])
	assert.Equal(t, symbols.Named("int"), doc.Params["times"])
	assert.Equal(t, symbols.Named("bool"), doc.Return)
}

func TestParseVarTag(t *testing.T) {
	doc := docblock.Parse("/** @var \\App\\Model\\User $user */")
	assert.Equal(t, symbols.Named("App\\Model\\User"), doc.Var)
}

func TestParseNullableAndUnion(t *testing.T) {
	doc := docblock.Parse("/** @return ?Foo|Bar */")
	assert.Equal(t, symbols.TypeNullable, doc.Return.Kind)
	inner := doc.Return.Parts[0]
	assert.Equal(t, symbols.TypeUnion, inner.Kind)
	assert.Len(t, inner.Parts, 2)
}

func TestParseDeprecated(t *testing.T) {
	doc := docblock.Parse("/**\n * @deprecated use newThing() instead\n */")
	assert.True(t, doc.Deprecated)
	assert.Equal(t, "use newThing() instead", doc.DeprecatedReason)
}

func TestParseThrows(t *testing.T) {
	doc := docblock.Parse("/**\n * @throws \\RuntimeException when it fails\n */")
	assert.Len(t, doc.Throws, 1)
	assert.Equal(t, symbols.Named("RuntimeException"), doc.Throws[0])
}

func TestParsePropertyTags(t *testing.T) {
	doc := docblock.Parse(`/**
	 * @property string $name
	 * @property-read int $id
	 * @property-write bool $flag
	 */`)
	require := assert.New(t)
	require.Len(doc.Properties, 3)
	require.Equal(symbols.AccessReadWrite, doc.Properties[0].Access)
	require.Equal(symbols.AccessRead, doc.Properties[1].Access)
	require.Equal(symbols.AccessWrite, doc.Properties[2].Access)
}

func TestParseMethodTag(t *testing.T) {
	doc := docblock.Parse(`/**
	 * @method static self create(string $name, int $age = 0)
	 */`)
	assert.Len(t, doc.Methods, 1)
	m := doc.Methods[0]
	assert.True(t, m.Static)
	assert.Equal(t, "create", m.Name)
	assert.Equal(t, symbols.TypeSelf, m.ReturnType.Kind)
	assert.Len(t, m.Parameters, 2)
	assert.Equal(t, "name", m.Parameters[0].Name)
	assert.Equal(t, "age", m.Parameters[1].Name)
	assert.True(t, m.Parameters[1].Optional)
}

func TestParseTypeExprIntersection(t *testing.T) {
	expr := docblock.ParseTypeExpr("Countable&ArrayAccess")
	assert.Equal(t, symbols.TypeIntersection, expr.Kind)
	assert.Len(t, expr.Parts, 2)
}

func TestParseTypeExprGenericStripsParams(t *testing.T) {
	expr := docblock.ParseTypeExpr("array<int, Foo>")
	assert.Equal(t, symbols.Named("array"), expr)
}

func TestParseEmptyDocblockHasNoTags(t *testing.T) {
	doc := docblock.Parse("/** Just a summary line. */")
	assert.Equal(t, "Just a summary line.", doc.Summary)
	assert.Empty(t, doc.Params)
	assert.False(t, doc.Deprecated)
}
