// Package symbols defines the data model shared by the extractor, the
// workspace index, and the name resolver: symbol descriptors, type
// expressions, parameters, docblocks, and use-alias tables.
package symbols

// Kind identifies what a descriptor describes.
type Kind string

const (
	KindClass          Kind = "class"
	KindInterface      Kind = "interface"
	KindTrait          Kind = "trait"
	KindEnum           Kind = "enum"
	KindFunction       Kind = "function"
	KindMethod         Kind = "method"
	KindProperty       Kind = "property"
	KindClassConstant  Kind = "class-constant"
	KindGlobalConstant Kind = "global-constant"
	KindEnumCase       Kind = "enum-case"
	KindParameter      Kind = "parameter"
	KindLocalVariable  Kind = "local-variable"
)

// Namespace is one of the three independent FQN-keyed namespaces a
// workspace index or stub corpus partitions top-level symbols into
// (spec's "resolve_fqn(FQN, kind)"): a class and a function may share an
// FQN in this language, so lookups must disambiguate by namespace rather
// than share one map.
type Namespace int

const (
	NamespaceType Namespace = iota
	NamespaceFunction
	NamespaceConstant
)

// NamespaceOf reports which of the three primary namespaces kind belongs
// to. Members (methods, properties, class constants, enum cases) and
// callable-scoped symbols (parameters, local variables) report ok=false:
// they're reached through their container, not one of the three primary
// maps.
func NamespaceOf(kind Kind) (Namespace, bool) {
	switch kind {
	case KindClass, KindInterface, KindTrait, KindEnum:
		return NamespaceType, true
	case KindFunction:
		return NamespaceFunction, true
	case KindGlobalConstant:
		return NamespaceConstant, true
	default:
		return 0, false
	}
}

// Visibility mirrors the language's access modifiers.
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
	VisibilityNA        Visibility = "n/a"
)

// Modifier is a single bit in a symbol's modifier bit-set.
type Modifier uint16

const (
	ModStatic Modifier = 1 << iota
	ModAbstract
	ModFinal
	ModReadonly
	ModDefaultLibrary
	ModDeprecated
)

func (m Modifier) Has(flag Modifier) bool { return m&flag != 0 }

// Position is a zero-based line/column pair, matching LSP convention.
type Position struct {
	Line   uint32
	Column uint32
}

// Range is a half-open [Start, End) span expressed both in byte offsets and
// in row/column coordinates, so downstream protocol code never has to
// recompute one from the other.
type Range struct {
	StartByte uint32
	EndByte   uint32
	Start     Position
	End       Position
}

// TypeExprKind enumerates the shapes a type expression can take.
type TypeExprKind string

const (
	TypeNamed        TypeExprKind = "named"
	TypeNullable     TypeExprKind = "nullable"
	TypeUnion        TypeExprKind = "union"
	TypeIntersection TypeExprKind = "intersection"
	TypeSelf         TypeExprKind = "self"
	TypeStatic       TypeExprKind = "static"
	TypeParent       TypeExprKind = "parent"
	TypeUnknown      TypeExprKind = "unknown"
)

// TypeExpr is a structured type expression. Named carries the FQN (or
// unresolved raw name) for TypeNamed; Parts carries the members of a union
// or intersection. It is produced both from explicit type hints (by the
// extractor) and from docblock tags (by the docblock parser).
type TypeExpr struct {
	Kind  TypeExprKind
	Named string
	Parts []TypeExpr
}

func Unknown() TypeExpr { return TypeExpr{Kind: TypeUnknown} }

func Named(fqn string) TypeExpr { return TypeExpr{Kind: TypeNamed, Named: fqn} }

// IsUnknown reports whether the expression carries no usable information.
func (t TypeExpr) IsUnknown() bool { return t.Kind == TypeUnknown || (t.Kind == TypeNamed && t.Named == "") }

// Parameter describes one parameter of a callable, constructor-promoted
// parameters additionally surface as Property descriptors on the class.
type Parameter struct {
	Name       string
	Type       TypeExpr
	Optional   bool
	Variadic   bool
	ByRef      bool
	Default    string
	Promoted   bool
	Visibility Visibility
}

// Signature is the callable shape used by functions and methods.
type Signature struct {
	Parameters []Parameter
	ReturnType TypeExpr
}

// Descriptor is the immutable record the extractor produces and the index
// stores. Once inserted it is never mutated; a re-index replaces it wholesale.
type Descriptor struct {
	FQN           string
	ShortName     string
	Kind          Kind
	URI           string
	DefiningRange Range
	SelectionRange Range
	Visibility    Visibility
	Modifiers     Modifier
	Signature     Signature
	ContainerFQN  string
	Extends       []string
	Implements    []string
	DocSummary    string
	DocTags       DocBlock
}

func (d Descriptor) IsDefaultLibrary() bool { return d.Modifiers.Has(ModDefaultLibrary) }
func (d Descriptor) IsDeprecated() bool     { return d.Modifiers.Has(ModDeprecated) }
func (d Descriptor) IsStatic() bool         { return d.Modifiers.Has(ModStatic) }
func (d Descriptor) IsAbstract() bool       { return d.Modifiers.Has(ModAbstract) }

// PropertyAccess describes how a docblock @property tag may be used.
type PropertyAccess string

const (
	AccessRead      PropertyAccess = "read"
	AccessWrite     PropertyAccess = "write"
	AccessReadWrite PropertyAccess = "read-write"
)

// PropertyTag is one @property/@property-read/@property-write entry.
type PropertyTag struct {
	Name   string
	Type   TypeExpr
	Access PropertyAccess
}

// MethodTag is one @method entry.
type MethodTag struct {
	Name       string
	ReturnType TypeExpr
	Parameters []Parameter
	Static     bool
}

// DocBlock is the structured form of a doc-comment, produced by
// internal/docblock and attached to descriptors when a comment immediately
// precedes a declaration.
type DocBlock struct {
	Summary          string
	Params           map[string]TypeExpr
	Return           TypeExpr
	Var              TypeExpr
	Throws           []TypeExpr
	Deprecated       bool
	DeprecatedReason string
	Properties       []PropertyTag
	Methods          []MethodTag
}

// AliasNamespace partitions a use-alias table the way the language
// distinguishes `use`, `use function`, and `use const`.
type AliasNamespace int

const (
	AliasType AliasNamespace = iota
	AliasFunction
	AliasConstant
)

// UseAliasTable holds the aliases introduced by a single file, partitioned
// by namespace, plus that file's own namespace path.
type UseAliasTable struct {
	Namespace string
	Types     map[string]string
	Functions map[string]string
	Constants map[string]string
}

func NewUseAliasTable() UseAliasTable {
	return UseAliasTable{
		Types:     make(map[string]string),
		Functions: make(map[string]string),
		Constants: make(map[string]string),
	}
}

// FileSymbols is everything the extractor produces for a single file.
type FileSymbols struct {
	URI       string
	Namespace string
	Aliases   UseAliasTable
	Symbols   []Descriptor
	// References recorded while walking this file: FQN -> usage ranges.
	References map[string][]Range
}
