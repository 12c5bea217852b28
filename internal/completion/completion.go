// Package completion classifies a cursor position into one of the trigger
// contexts the protocol's completion request distinguishes, and enumerates
// the matching candidates from the workspace index and resolver.
package completion

import (
	"context"
	"sort"
	"strings"

	"github.com/go-phpls/phpls/internal/index"
	"github.com/go-phpls/phpls/internal/resolver"
	"github.com/go-phpls/phpls/internal/symbols"
)

// Context classifies what kind of candidate set a cursor position calls for.
type Context int

const (
	ContextFree Context = iota
	ContextMember
	ContextStaticOrConstant
	ContextVariable
	ContextNamespace
)

// Request carries everything classification and enumeration need: the full
// document text, the cursor's byte offset into it, the class the cursor is
// lexically inside of (zero value if none), and the file's use-alias table.
type Request struct {
	Content      []byte
	Offset       int
	ClassContext resolver.ClassContext
	Aliases      symbols.UseAliasTable
	InScopeVars  []string
}

// Candidate is one completion suggestion.
type Candidate struct {
	Descriptor symbols.Descriptor
	Label      string
	Detail     string
	InsertText string
}

// Engine enumerates candidates for a classified completion request.
type Engine struct {
	idx *index.Index
	res *resolver.Resolver
}

// New constructs an Engine.
func New(idx *index.Index, res *resolver.Resolver) *Engine {
	return &Engine{idx: idx, res: res}
}

// Complete classifies req's cursor position and returns the matching
// candidate set.
func (e *Engine) Complete(ctx context.Context, req Request) []Candidate {
	kind, prefix, receiver := classify(req.Content, req.Offset)
	switch kind {
	case ContextMember:
		recvFQN, ok := e.resolveReceiver(ctx, receiver, req.ClassContext, req.Aliases)
		if !ok {
			return nil
		}
		return e.memberCandidates(ctx, recvFQN, prefix, false)
	case ContextStaticOrConstant:
		recvFQN, ok := e.resolveReceiver(ctx, receiver, req.ClassContext, req.Aliases)
		if !ok {
			return nil
		}
		return e.memberCandidates(ctx, recvFQN, prefix, true)
	case ContextVariable:
		return e.variableCandidates(req, prefix)
	case ContextNamespace:
		return e.namespaceCandidates(prefix)
	default:
		return e.freeCandidates(prefix)
	}
}

// classify inspects the text immediately before offset and returns the
// trigger context, the identifier prefix already typed, and (for member and
// static-or-constant contexts) the receiver expression text to its left.
func classify(content []byte, offset int) (Context, string, string) {
	if offset < 0 || offset > len(content) {
		return ContextFree, "", ""
	}
	prefix, start := identPrefix(content, offset)

	if start > 0 && content[start-1] == '$' {
		return ContextVariable, prefix, ""
	}
	if hasSuffix(content[:start], "->") {
		recvEnd := start - len("->")
		return ContextMember, prefix, receiverExpr(content, recvEnd)
	}
	if hasSuffix(content[:start], "?->") {
		recvEnd := start - len("?->")
		return ContextMember, prefix, receiverExpr(content, recvEnd)
	}
	if hasSuffix(content[:start], "::") {
		recvEnd := start - len("::")
		return ContextStaticOrConstant, prefix, receiverExpr(content, recvEnd)
	}
	if start > 0 && content[start-1] == '\\' || strings.Contains(prefix, "\\") {
		return ContextNamespace, prefix, ""
	}
	return ContextFree, prefix, ""
}

func identPrefix(content []byte, offset int) (string, int) {
	start := offset
	for start > 0 && isIdentOrBackslash(content[start-1]) {
		start--
	}
	return string(content[start:offset]), start
}

func isIdentOrBackslash(b byte) bool {
	return b == '_' || b == '\\' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= 0x80
}

func hasSuffix(content []byte, suffix string) bool {
	return len(content) >= len(suffix) && string(content[len(content)-len(suffix):]) == suffix
}

// receiverExpr walks back from end (exclusive) over one identifier or
// keyword token ($this, self, static, parent, a variable, or a class name),
// enough for resolveReceiver's best-effort lookup.
func receiverExpr(content []byte, end int) string {
	start := end
	for start > 0 && isIdentOrBackslash(content[start-1]) {
		start--
	}
	if start > 0 && content[start-1] == '$' {
		start--
	}
	return string(content[start:end])
}

// resolveReceiver best-effort resolves a receiver expression to a container
// FQN. Only the forms the core needs to distinguish are supported: $this,
// self/static/parent, and a possibly-aliased class name. Plain-variable
// receivers are left unresolved, since general local-variable type
// inference is out of scope.
func (e *Engine) resolveReceiver(ctx context.Context, receiver string, cc resolver.ClassContext, aliases symbols.UseAliasTable) (string, bool) {
	switch receiver {
	case "$this", "self", "static":
		if cc.FQN == "" {
			return "", false
		}
		return cc.FQN, true
	case "parent":
		if cc.Parent == "" {
			return "", false
		}
		return cc.Parent, true
	}
	if strings.HasPrefix(receiver, "$") {
		return "", false
	}
	name := receiver
	if resolved, ok := aliases.Types[firstSegment(name)]; ok {
		rest := name[len(firstSegment(name)):]
		name = resolved + rest
	} else if aliases.Namespace != "" && !strings.Contains(name, "\\") {
		name = aliases.Namespace + "\\" + name
	}
	if d, ok := e.res.Lookup(ctx, name, resolver.NamespaceType); ok {
		return d.FQN, true
	}
	if !strings.Contains(receiver, "\\") {
		if fqn, ok := e.lookupByShortName(receiver); ok {
			return fqn, true
		}
	}
	return "", false
}

// lookupByShortName is the fallback for an unaliased, unqualified class
// name typed in a file with no matching use-import: scan the index for a
// unique type-kind descriptor with that short name. Ambiguous short names
// return false rather than guessing.
func (e *Engine) lookupByShortName(name string) (string, bool) {
	var match string
	count := 0
	for _, d := range e.idx.Types() {
		if d.ShortName == name {
			match = d.FQN
			count++
		}
	}
	if count == 1 {
		return match, true
	}
	return "", false
}

func firstSegment(name string) string {
	if i := strings.Index(name, "\\"); i >= 0 {
		return name[:i]
	}
	return name
}

func (e *Engine) memberCandidates(ctx context.Context, containerFQN, prefix string, staticOnly bool) []Candidate {
	lowerPrefix := strings.ToLower(prefix)
	var out []Candidate
	for _, m := range e.res.Members(ctx, containerFQN) {
		switch m.Kind {
		case symbols.KindMethod, symbols.KindProperty, symbols.KindClassConstant, symbols.KindEnumCase:
		default:
			continue
		}
		if staticOnly {
			if m.Kind == symbols.KindMethod || m.Kind == symbols.KindProperty {
				if !m.IsStatic() {
					continue
				}
			}
		} else if m.Kind == symbols.KindClassConstant || m.Kind == symbols.KindEnumCase {
			continue
		}
		if lowerPrefix != "" && !strings.HasPrefix(strings.ToLower(m.ShortName), lowerPrefix) {
			continue
		}
		out = append(out, candidateFor(m))
	}
	sortCandidates(out)
	return out
}

func (e *Engine) variableCandidates(req Request, prefix string) []Candidate {
	lowerPrefix := strings.ToLower(prefix)
	var out []Candidate
	seen := make(map[string]struct{})
	add := func(name string) {
		if lowerPrefix != "" && !strings.HasPrefix(strings.ToLower(name), lowerPrefix) {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		out = append(out, Candidate{Label: name, InsertText: name, Detail: "variable"})
	}
	if req.ClassContext.FQN != "" {
		add("this")
	}
	for _, v := range req.InScopeVars {
		add(v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func (e *Engine) namespaceCandidates(prefix string) []Candidate {
	results := e.idx.Search(strings.TrimPrefix(prefix, "\\"), 50)
	out := make([]Candidate, 0, len(results))
	for _, r := range results {
		out = append(out, candidateFor(r.Descriptor))
	}
	return out
}

// languageKeywords is the set of reserved words offered alongside
// types/functions/constants in the free context. Not exhaustive of every
// contextual keyword, just the ones a declaration or statement can start
// with.
var languageKeywords = []string{
	"abstract", "and", "array", "as", "break", "callable", "case", "catch",
	"class", "clone", "const", "continue", "declare", "default", "do",
	"echo", "else", "elseif", "enum", "extends", "final", "finally", "fn",
	"for", "foreach", "function", "global", "goto", "if", "implements",
	"include", "include_once", "instanceof", "insteadof", "interface",
	"match", "namespace", "new", "or", "print", "private", "protected",
	"public", "readonly", "require", "require_once", "return", "static",
	"switch", "throw", "trait", "try", "use", "var", "while", "xor", "yield",
}

func keywordCandidates(prefix string) []Candidate {
	lowerPrefix := strings.ToLower(prefix)
	var out []Candidate
	for _, kw := range languageKeywords {
		if lowerPrefix != "" && !strings.HasPrefix(kw, lowerPrefix) {
			continue
		}
		out = append(out, Candidate{Label: kw, InsertText: kw, Detail: "keyword"})
	}
	return out
}

func (e *Engine) freeCandidates(prefix string) []Candidate {
	if prefix == "" {
		return nil
	}
	results := e.idx.Search(prefix, 50)
	out := make([]Candidate, 0, len(results)+len(languageKeywords))
	for _, r := range results {
		out = append(out, candidateFor(r.Descriptor))
	}
	out = append(out, keywordCandidates(prefix)...)
	return out
}

func candidateFor(d symbols.Descriptor) Candidate {
	return Candidate{
		Descriptor: d,
		Label:      d.ShortName,
		InsertText: d.ShortName,
		Detail:     detailFor(d),
	}
}

func detailFor(d symbols.Descriptor) string {
	switch d.Kind {
	case symbols.KindMethod, symbols.KindFunction:
		return signatureText(d)
	case symbols.KindClass, symbols.KindInterface, symbols.KindTrait, symbols.KindEnum:
		return d.FQN
	default:
		return string(d.Kind)
	}
}

func signatureText(d symbols.Descriptor) string {
	var b strings.Builder
	b.WriteString(d.ShortName)
	b.WriteByte('(')
	for i, p := range d.Signature.Parameters {
		if i > 0 {
			b.WriteString(", ")
		}
		if !p.Type.IsUnknown() {
			b.WriteString(typeName(p.Type))
			b.WriteByte(' ')
		}
		b.WriteByte('$')
		b.WriteString(p.Name)
	}
	b.WriteByte(')')
	return b.String()
}

func typeName(t symbols.TypeExpr) string {
	switch t.Kind {
	case symbols.TypeNamed:
		return t.Named
	case symbols.TypeSelf:
		return "self"
	case symbols.TypeStatic:
		return "static"
	case symbols.TypeParent:
		return "parent"
	case symbols.TypeNullable:
		if len(t.Parts) > 0 {
			return "?" + typeName(t.Parts[0])
		}
		return "?"
	case symbols.TypeUnion:
		return joinTypeParts(t.Parts, "|")
	case symbols.TypeIntersection:
		return joinTypeParts(t.Parts, "&")
	default:
		return ""
	}
}

func joinTypeParts(parts []symbols.TypeExpr, sep string) string {
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		names = append(names, typeName(p))
	}
	return strings.Join(names, sep)
}

func sortCandidates(out []Candidate) {
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
}
