// Package diagnostics produces syntax and best-effort semantic diagnostics
// for a single parsed file, built as a stack-based CST walk over the
// ERROR/MISSING enumeration internal/cst already exposes.
package diagnostics

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/go-phpls/phpls/internal/cst"
	"github.com/go-phpls/phpls/internal/resolver"
	"github.com/go-phpls/phpls/internal/symbols"
)

// Severity mirrors the protocol's diagnostic severity levels this engine
// ever produces.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
)

// Diagnostic is one syntax or semantic finding.
type Diagnostic struct {
	Range    symbols.Range
	Severity Severity
	Message  string
	Code     string
}

var builtinTypeNames = map[string]struct{}{
	"self": {}, "static": {}, "parent": {},
	"void": {}, "never": {}, "mixed": {}, "true": {}, "false": {}, "null": {},
	"iterable": {}, "object": {}, "callable": {}, "array": {},
	"int": {}, "float": {}, "string": {}, "bool": {},
}

func isBuiltinType(name string) bool {
	_, ok := builtinTypeNames[strings.ToLower(strings.TrimPrefix(name, "\\"))]
	return ok
}

// Engine produces diagnostics for a document given its resolved symbol set.
type Engine struct {
	res *resolver.Resolver
}

// New constructs an Engine.
func New(res *resolver.Resolver) *Engine {
	return &Engine{res: res}
}

// Analyze returns syntax diagnostics for tree, and, only when the tree is
// syntactically clean, best-effort semantic diagnostics for fs.
func (e *Engine) Analyze(ctx context.Context, tree *sitter.Tree, content []byte, fs symbols.FileSymbols) []Diagnostic {
	if tree == nil {
		return nil
	}
	syntax := syntaxDiagnostics(tree)
	if len(syntax) > 0 {
		return syntax
	}

	var out []Diagnostic
	out = append(out, e.unknownReferenceDiagnostics(ctx, fs)...)
	out = append(out, e.unknownSignatureTypeDiagnostics(ctx, fs)...)
	out = append(out, e.unresolvedUseDiagnostics(ctx, fs)...)
	out = append(out, e.unknownFunctionCallDiagnostics(ctx, tree.RootNode(), content, fs)...)
	out = append(out, e.constructorArgCountDiagnostics(ctx, tree.RootNode(), content, fs)...)
	return out
}

func syntaxDiagnostics(tree *sitter.Tree) []Diagnostic {
	var out []Diagnostic
	for _, p := range cst.CollectSyntaxProblems(tree) {
		r := rangeOf(p.Node)
		if p.Missing {
			r.EndByte = r.StartByte
			r.End = r.Start
			out = append(out, Diagnostic{
				Range:    r,
				Severity: SeverityError,
				Message:  fmt.Sprintf("missing %s", p.Node.Type()),
				Code:     "syntax-missing-node",
			})
			continue
		}
		out = append(out, Diagnostic{
			Range:    r,
			Severity: SeverityError,
			Message:  "syntax error",
			Code:     "syntax-error",
		})
	}
	return out
}

// unknownReferenceDiagnostics checks every FQN the extractor recorded as a
// usage (new/extends/implements/static-call/class-constant-access) against
// the resolver.
func (e *Engine) unknownReferenceDiagnostics(ctx context.Context, fs symbols.FileSymbols) []Diagnostic {
	var out []Diagnostic
	for fqn, ranges := range fs.References {
		if isBuiltinType(fqn) {
			continue
		}
		if _, ok := e.res.Lookup(ctx, fqn, resolver.NamespaceType); ok {
			continue
		}
		for _, r := range ranges {
			out = append(out, Diagnostic{
				Range:    r,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("unknown type %q", fqn),
				Code:     "unknown-type",
			})
		}
	}
	return out
}

// unknownSignatureTypeDiagnostics checks the named leaves of every
// declared parameter/return type against the resolver. Type expressions
// don't carry their own byte range, so findings anchor at the owning
// declaration's selection range.
func (e *Engine) unknownSignatureTypeDiagnostics(ctx context.Context, fs symbols.FileSymbols) []Diagnostic {
	var out []Diagnostic
	for _, d := range fs.Symbols {
		check := func(t symbols.TypeExpr) {
			for _, name := range namedLeaves(t) {
				if isBuiltinType(name) {
					continue
				}
				if _, ok := e.res.Lookup(ctx, name, resolver.NamespaceType); ok {
					continue
				}
				out = append(out, Diagnostic{
					Range:    d.SelectionRange,
					Severity: SeverityWarning,
					Message:  fmt.Sprintf("unknown type %q", name),
					Code:     "unknown-type",
				})
			}
		}
		for _, p := range d.Signature.Parameters {
			check(p.Type)
		}
		check(d.Signature.ReturnType)
	}
	return out
}

func namedLeaves(t symbols.TypeExpr) []string {
	switch t.Kind {
	case symbols.TypeNamed:
		if t.Named == "" {
			return nil
		}
		return []string{t.Named}
	case symbols.TypeNullable, symbols.TypeUnion, symbols.TypeIntersection:
		var out []string
		for _, part := range t.Parts {
			out = append(out, namedLeaves(part)...)
		}
		return out
	default:
		return nil
	}
}

func (e *Engine) unresolvedUseDiagnostics(ctx context.Context, fs symbols.FileSymbols) []Diagnostic {
	var out []Diagnostic
	check := func(targets map[string]string, ns resolver.Namespace) {
		seen := make(map[string]struct{})
		for _, fqn := range targets {
			if _, dup := seen[fqn]; dup {
				continue
			}
			seen[fqn] = struct{}{}
			if _, ok := e.res.Lookup(ctx, fqn, ns); ok {
				continue
			}
			out = append(out, Diagnostic{
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("unresolved use statement %q", fqn),
				Code:     "unresolved-use",
			})
		}
	}
	check(fs.Aliases.Types, resolver.NamespaceType)
	check(fs.Aliases.Functions, resolver.NamespaceFunction)
	check(fs.Aliases.Constants, resolver.NamespaceConstant)
	return out
}

func (e *Engine) unknownFunctionCallDiagnostics(ctx context.Context, root sitter.Node, content []byte, fs symbols.FileSymbols) []Diagnostic {
	var out []Diagnostic
	cst.Walk(root, func(n sitter.Node) bool {
		if n.Type() != "function_call_expression" {
			return true
		}
		fnNode, ok := cst.ChildByField(n, "function")
		if !ok {
			return true
		}
		switch fnNode.Type() {
		case "name", "qualified_name", "relative_name":
		default:
			return true
		}
		raw := strings.TrimSpace(cst.Text(fnNode, content))
		if raw == "" {
			return true
		}
		namespaced := raw
		if fs.Namespace != "" && !strings.Contains(raw, "\\") {
			namespaced = fs.Namespace + "\\" + raw
		}
		if _, ok := e.res.Lookup(ctx, namespaced, resolver.NamespaceFunction); ok {
			return true
		}
		if _, ok := e.res.Lookup(ctx, raw, resolver.NamespaceFunction); ok {
			return true
		}
		out = append(out, Diagnostic{
			Range:    rangeOf(fnNode),
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("unknown function %q", raw),
			Code:     "unknown-function",
		})
		return true
	})
	return out
}

func (e *Engine) constructorArgCountDiagnostics(ctx context.Context, root sitter.Node, content []byte, fs symbols.FileSymbols) []Diagnostic {
	var out []Diagnostic
	cst.Walk(root, func(n sitter.Node) bool {
		if n.Type() != "object_creation_expression" {
			return true
		}
		classNode, ok := cst.ChildByField(n, "class")
		if !ok {
			return true
		}
		switch classNode.Type() {
		case "name", "qualified_name", "relative_name":
		default:
			return true
		}
		raw := strings.TrimSpace(cst.Text(classNode, content))
		classFQN := qualifyAgainst(raw, fs)
		ctor, ok := e.res.ResolveMember(ctx, classFQN, "__construct")
		if !ok {
			return true
		}

		argsNode, ok := cst.ChildByField(n, "arguments")
		argCount := 0
		hasNamedArg := false
		if ok {
			for _, arg := range cst.NamedChildren(argsNode) {
				if arg.Type() == "named_argument" || arg.Type() == "variadic_unpacking" {
					hasNamedArg = true
					continue
				}
				argCount++
			}
		}
		if hasNamedArg {
			return true
		}

		min, max, variadic := paramBounds(ctor.Signature.Parameters)
		if argCount < min {
			out = append(out, Diagnostic{
				Range:    rangeOf(n),
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("too few arguments to constructor of %q: expected at least %d, got %d", classFQN, min, argCount),
				Code:     "argument-count-mismatch",
			})
		} else if !variadic && argCount > max {
			out = append(out, Diagnostic{
				Range:    rangeOf(n),
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("too many arguments to constructor of %q: expected at most %d, got %d", classFQN, max, argCount),
				Code:     "argument-count-mismatch",
			})
		}
		return true
	})
	return out
}

func paramBounds(params []symbols.Parameter) (min, max int, variadic bool) {
	for _, p := range params {
		if p.Variadic {
			variadic = true
			continue
		}
		max++
		if !p.Optional {
			min++
		}
	}
	return min, max, variadic
}

func qualifyAgainst(raw string, fs symbols.FileSymbols) string {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "\\")
	if strings.Contains(raw, "\\") {
		return raw
	}
	lower := strings.ToLower(raw)
	if full, ok := fs.Aliases.Types[lower]; ok {
		return full
	}
	if fs.Namespace != "" {
		return fs.Namespace + "\\" + raw
	}
	return raw
}

func rangeOf(n sitter.Node) symbols.Range {
	sp, ep := n.StartPoint(), n.EndPoint()
	return symbols.Range{
		StartByte: uint32(n.StartByte()),
		EndByte:   uint32(n.EndByte()),
		Start:     symbols.Position{Line: uint32(sp.Row), Column: uint32(sp.Column)},
		End:       symbols.Position{Line: uint32(ep.Row), Column: uint32(ep.Column)},
	}
}
