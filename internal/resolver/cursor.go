// This file implements the cursor-to-FQN resolution rules of the name
// resolver: given a position inside an open document, decide what kind of
// syntactic construct the cursor sits on (declaration, member access,
// qualified name, bare call, variable) and resolve it to a descriptor, or
// report that the cursor isn't on a resolvable symbol at all. Best-effort
// type propagation is backed by the shared Resolver and its workspace
// index rather than a per-document cache.
package resolver

import (
	"context"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/go-phpls/phpls/internal/cst"
	"github.com/go-phpls/phpls/internal/symbols"
)

// CursorTarget is what a cursor resolved to: a symbol descriptor, or (for
// a local variable, which never leaves its defining file) just a range.
type CursorTarget struct {
	Descriptor symbols.Descriptor
	IsLocal    bool
	LocalRange symbols.Range
	LocalName  string
}

// Doc is the minimal surface ResolveCursor needs from an open document,
// satisfied by *docstore.Document.
type Doc interface {
	URI() string
	NodeAt(byteOffset int) (sitter.Node, []byte, bool)
	Symbols() symbols.FileSymbols
}

// ResolveCursor implements the five resolution rules of §4.8 in order:
// declaration, member access, qualified-name clause, bare call, variable.
// It returns ok=false ("not a symbol") rather than guessing when none apply
// or inference runs out.
func (r *Resolver) ResolveCursor(ctx context.Context, doc Doc, offset int) (CursorTarget, bool) {
	node, content, ok := doc.NodeAt(offset)
	if !ok {
		return CursorTarget{}, false
	}
	fs := doc.Symbols()

	if d, ok := ownDeclaration(node, content, fs); ok {
		return CursorTarget{Descriptor: d}, true
	}

	if recv, memberNode, ok := memberAccessAt(node); ok {
		cc := enclosingClassContext(node, content, fs)
		recvType, ok := r.resolveExprType(ctx, recv, content, fs, cc)
		if !ok {
			return CursorTarget{}, false
		}
		name := identText(memberNode, content)
		if name == "" {
			return CursorTarget{}, false
		}
		if d, ok := r.ResolveMember(ctx, recvType.Named, strings.TrimPrefix(name, "$")); ok {
			return CursorTarget{Descriptor: d}, true
		}
		return CursorTarget{}, false
	}

	if nameNode, ok := qualifiedNameClauseAt(node); ok {
		cc := enclosingClassContext(node, content, fs)
		raw := identText(nameNode, content)
		aliases, _ := aliasesFor(fs)
		resolved := r.qualifyAgainst(raw, fs.Namespace, aliases.Types)
		if d, ok := r.ResolveTypeName(ctx, resolved, cc); ok {
			return CursorTarget{Descriptor: d}, true
		}
		if d, ok := r.Lookup(ctx, raw, NamespaceType); ok {
			return CursorTarget{Descriptor: d}, true
		}
		return CursorTarget{}, false
	}

	if callNode, ok := bareFunctionCallAt(node); ok {
		raw := identText(callNode, content)
		namespaced := raw
		if fs.Namespace != "" && !strings.Contains(raw, "\\") {
			namespaced = fs.Namespace + "\\" + raw
		}
		if d, ok := r.Lookup(ctx, namespaced, NamespaceFunction); ok {
			return CursorTarget{Descriptor: d}, true
		}
		if d, ok := r.Lookup(ctx, raw, NamespaceFunction); ok {
			return CursorTarget{Descriptor: d}, true
		}
		return CursorTarget{}, false
	}

	if varNode, ok := variableAt(node); ok {
		name := identText(varNode, content)
		name = strings.TrimPrefix(name, "$")
		if name == "" {
			return CursorTarget{}, false
		}
		if name == "this" {
			cc := enclosingClassContext(node, content, fs)
			if cc.FQN != "" {
				if d, ok := r.Lookup(ctx, cc.FQN, NamespaceType); ok {
					return CursorTarget{Descriptor: d}, true
				}
			}
			return CursorTarget{}, false
		}
		if rng, ok := mostRecentAssignment(node, content, name); ok {
			return CursorTarget{IsLocal: true, LocalRange: rng, LocalName: name}, true
		}
		return CursorTarget{}, false
	}

	return CursorTarget{}, false
}

// ownDeclaration reports whether node sits on the name token of a symbol's
// own declaration, returning that symbol verbatim (rule 1).
func ownDeclaration(node sitter.Node, content []byte, fs symbols.FileSymbols) (symbols.Descriptor, bool) {
	target := node
	if target.Type() != "name" && target.Type() != "variable_name" {
		return symbols.Descriptor{}, false
	}
	offset := uint32(target.StartByte())
	for _, d := range fs.Symbols {
		if d.SelectionRange.StartByte <= offset && offset < d.SelectionRange.EndByte {
			return d, true
		}
	}
	return symbols.Descriptor{}, false
}

// memberAccessAt reports whether node sits inside a member-access
// expression's member-name token, returning the receiver node and the
// member-name node (rule 2).
func memberAccessAt(node sitter.Node) (receiver sitter.Node, member sitter.Node, ok bool) {
	n := node
	for !n.IsNull() {
		switch n.Type() {
		case "member_access_expression", "nullsafe_member_access_expression", "member_call_expression":
			if m, has := cst.ChildByField(n, "name"); has && spans(m, node) {
				if recv, has := cst.ChildByField(n, "object"); has {
					return recv, m, true
				}
			}
		case "scoped_call_expression", "scoped_property_access_expression", "class_constant_access_expression":
			if m, has := cst.ChildByField(n, "name"); has && spans(m, node) {
				if recv, has := cst.ChildByField(n, "scope"); has {
					return recv, m, true
				}
			}
		}
		n = n.Parent()
	}
	return sitter.Node{}, sitter.Node{}, false
}

// qualifiedNameClauseAt reports whether node sits inside a qualified name
// used in a new/type-hint/extends/implements/use clause (rule 3).
func qualifiedNameClauseAt(node sitter.Node) (sitter.Node, bool) {
	nameNode := node
	switch nameNode.Type() {
	case "name", "qualified_name", "relative_name":
	default:
		if p := nameNode.Parent(); !p.IsNull() {
			switch p.Type() {
			case "qualified_name", "relative_name":
				nameNode = p
			default:
				return sitter.Node{}, false
			}
		} else {
			return sitter.Node{}, false
		}
	}
	for p := nameNode.Parent(); !p.IsNull(); p = p.Parent() {
		switch p.Type() {
		case "object_creation_expression", "named_type", "base_clause",
			"class_interface_clause", "namespace_use_clause", "instanceof_expression",
			"attribute":
			return nameNode, true
		case "member_access_expression", "scoped_call_expression", "function_call_expression":
			return sitter.Node{}, false
		}
	}
	return sitter.Node{}, false
}

// bareFunctionCallAt reports whether node is the callee name of a plain
// function call (rule 4).
func bareFunctionCallAt(node sitter.Node) (sitter.Node, bool) {
	nameNode := node
	switch nameNode.Type() {
	case "name", "qualified_name", "relative_name":
	default:
		return sitter.Node{}, false
	}
	p := nameNode.Parent()
	if p.IsNull() || p.Type() != "function_call_expression" {
		return sitter.Node{}, false
	}
	fn, ok := cst.ChildByField(p, "function")
	if !ok || !spans(fn, nameNode) {
		return sitter.Node{}, false
	}
	return nameNode, true
}

// variableAt reports whether node is a $-prefixed variable reference
// (rule 5).
func variableAt(node sitter.Node) (sitter.Node, bool) {
	n := node
	if n.Type() == "name" {
		if p := n.Parent(); !p.IsNull() && p.Type() == "variable_name" {
			n = p
		}
	}
	if n.Type() != "variable_name" {
		return sitter.Node{}, false
	}
	return n, true
}

func spans(outer, inner sitter.Node) bool {
	return outer.StartByte() <= inner.StartByte() && inner.EndByte() <= outer.EndByte()
}

func identText(n sitter.Node, content []byte) string {
	return strings.TrimSpace(cst.Text(n, content))
}

// ClassContextAt is the exported form of enclosingClassContext, for callers
// outside this package (the completion request builder) that need the same
// self/static/parent-resolving context a cursor sits in without going
// through the full ResolveCursor pipeline.
func ClassContextAt(node sitter.Node, content []byte, fs symbols.FileSymbols) ClassContext {
	return enclosingClassContext(node, content, fs)
}

// enclosingClassContext walks up from node to the nearest enclosing
// class/interface/trait/enum declaration and reports its FQN plus its
// first extends target (for parent::).
func enclosingClassContext(node sitter.Node, content []byte, fs symbols.FileSymbols) ClassContext {
	decl, ok := cst.FindAncestor(node, "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration")
	if !ok {
		return ClassContext{}
	}
	nameNode, has := cst.ChildByField(decl, "name")
	if !has {
		return ClassContext{}
	}
	name := identText(nameNode, content)
	for _, d := range fs.Symbols {
		if d.ShortName == name && d.ContainerFQN == "" {
			switch d.Kind {
			case symbols.KindClass, symbols.KindInterface, symbols.KindTrait, symbols.KindEnum:
				parent := ""
				if len(d.Extends) > 0 {
					parent = d.Extends[0]
				}
				return ClassContext{FQN: d.FQN, Parent: parent}
			}
		}
	}
	return ClassContext{}
}

// mostRecentAssignment walks backward from node through the enclosing
// function/method body (or the whole file, for script-level code) looking
// for the nearest preceding `$name = ...` whose left-hand side is name,
// returning that assignment's variable-name range.
func mostRecentAssignment(node sitter.Node, content []byte, name string) (symbols.Range, bool) {
	scope, ok := cst.FindAncestor(node, "function_definition", "method_declaration", "anonymous_function_creation_expression", "arrow_function")
	if !ok {
		scope, ok = cst.FindAncestor(node, "program")
		if !ok {
			return symbols.Range{}, false
		}
	}

	var best sitter.Node
	var bestEnd uint32
	limit := uint32(node.StartByte())
	cst.Walk(scope, func(n sitter.Node) bool {
		if n.Type() != "assignment_expression" {
			return true
		}
		lhs, has := cst.ChildByField(n, "left")
		if !has || lhs.Type() != "variable_name" {
			return true
		}
		if identText(lhs, content) != "$"+name && identText(lhs, content) != name {
			return true
		}
		if uint32(n.EndByte()) > limit {
			return true
		}
		if uint32(n.EndByte()) >= bestEnd {
			best = lhs
			bestEnd = uint32(n.EndByte())
		}
		return true
	})
	if best.IsNull() {
		return symbols.Range{}, false
	}
	sp, ep := best.StartPoint(), best.EndPoint()
	return symbols.Range{
		StartByte: uint32(best.StartByte()),
		EndByte:   uint32(best.EndByte()),
		Start:     symbols.Position{Line: uint32(sp.Row), Column: uint32(sp.Column)},
		End:       symbols.Position{Line: uint32(ep.Row), Column: uint32(ep.Column)},
	}, true
}

// resolveExprType performs the best-effort type propagation of §4.8 for a
// receiver expression node: $this, self/static/parent, a class name, or a
// variable whose type is taken from its nearest preceding assignment,
// an @var comment, or a chained member access.
func (r *Resolver) resolveExprType(ctx context.Context, node sitter.Node, content []byte, fs symbols.FileSymbols, cc ClassContext) (symbols.TypeExpr, bool) {
	switch node.Type() {
	case "variable_name":
		name := strings.TrimPrefix(identText(node, content), "$")
		if name == "this" {
			if cc.FQN == "" {
				return symbols.TypeExpr{}, false
			}
			return symbols.Named(cc.FQN), true
		}
		return r.inferVariableType(node, content, name, cc)
	case "name":
		switch strings.ToLower(identText(node, content)) {
		case "self", "static":
			if cc.FQN == "" {
				return symbols.TypeExpr{}, false
			}
			return symbols.Named(cc.FQN), true
		case "parent":
			if cc.Parent == "" {
				return symbols.TypeExpr{}, false
			}
			return symbols.Named(cc.Parent), true
		}
		aliases, _ := aliasesFor(fs)
		resolved := r.qualifyAgainst(identText(node, content), fs.Namespace, aliases.Types)
		if d, ok := r.Lookup(ctx, resolved, NamespaceType); ok {
			return symbols.Named(d.FQN), true
		}
		return symbols.TypeExpr{}, false
	case "qualified_name", "relative_name":
		aliases, _ := aliasesFor(fs)
		resolved := r.qualifyAgainst(identText(node, content), fs.Namespace, aliases.Types)
		if d, ok := r.Lookup(ctx, resolved, NamespaceType); ok {
			return symbols.Named(d.FQN), true
		}
		return symbols.TypeExpr{}, false
	case "member_access_expression", "nullsafe_member_access_expression":
		recv, has := cst.ChildByField(node, "object")
		nameNode, hasName := cst.ChildByField(node, "name")
		if !has || !hasName {
			return symbols.TypeExpr{}, false
		}
		recvType, ok := r.resolveExprType(ctx, recv, content, fs, cc)
		if !ok {
			return symbols.TypeExpr{}, false
		}
		member, ok := r.ResolveMember(ctx, recvType.Named, identText(nameNode, content))
		if !ok {
			return symbols.TypeExpr{}, false
		}
		rt := member.Signature.ReturnType
		return resolveSelfStatic(rt, recvType.Named, cc)
	case "member_call_expression":
		recv, has := cst.ChildByField(node, "object")
		nameNode, hasName := cst.ChildByField(node, "name")
		if !has || !hasName {
			return symbols.TypeExpr{}, false
		}
		recvType, ok := r.resolveExprType(ctx, recv, content, fs, cc)
		if !ok {
			return symbols.TypeExpr{}, false
		}
		member, ok := r.ResolveMember(ctx, recvType.Named, identText(nameNode, content))
		if !ok {
			return symbols.TypeExpr{}, false
		}
		return resolveSelfStatic(member.Signature.ReturnType, recvType.Named, cc)
	case "object_creation_expression":
		classNode, has := cst.ChildByField(node, "class")
		if !has {
			return symbols.TypeExpr{}, false
		}
		return r.resolveExprType(ctx, classNode, content, fs, cc)
	case "parenthesized_expression":
		if node.NamedChildCount() == 1 {
			return r.resolveExprType(ctx, node.NamedChild(0), content, fs, cc)
		}
	}
	return symbols.TypeExpr{}, false
}

func resolveSelfStatic(t symbols.TypeExpr, selfFQN string, cc ClassContext) (symbols.TypeExpr, bool) {
	switch t.Kind {
	case symbols.TypeSelf, symbols.TypeStatic:
		if selfFQN == "" {
			return symbols.TypeExpr{}, false
		}
		return symbols.Named(selfFQN), true
	case symbols.TypeNamed:
		if t.Named == "" {
			return symbols.TypeExpr{}, false
		}
		return t, true
	}
	return symbols.TypeExpr{}, false
}

// inferVariableType implements the two sources of variable typing: the
// most recent assignment's RHS (`new X(...)` or a resolvable-return-type
// call), and a preceding inline `@var` comment. The RHS's resolvable type
// wins when present; `@var` is only consulted as a fallback (see
// DESIGN.md).
func (r *Resolver) inferVariableType(node sitter.Node, content []byte, name string, cc ClassContext) (symbols.TypeExpr, bool) {
	scope, ok := cst.FindAncestor(node, "function_definition", "method_declaration", "anonymous_function_creation_expression", "arrow_function")
	if !ok {
		scope, ok = cst.FindAncestor(node, "program")
		if !ok {
			return symbols.TypeExpr{}, false
		}
	}

	limit := uint32(node.StartByte())
	var bestAssign sitter.Node
	var bestEnd uint32
	cst.Walk(scope, func(n sitter.Node) bool {
		if n.Type() != "expression_statement" {
			return true
		}
		if n.NamedChildCount() != 1 {
			return true
		}
		expr := n.NamedChild(0)
		if expr.Type() != "assignment_expression" {
			return true
		}
		lhs, has := cst.ChildByField(expr, "left")
		if !has || lhs.Type() != "variable_name" {
			return true
		}
		if strings.TrimPrefix(identText(lhs, content), "$") != name {
			return true
		}
		if uint32(n.EndByte()) > limit {
			return true
		}
		if uint32(n.EndByte()) >= bestEnd {
			bestAssign = n
			bestEnd = uint32(n.EndByte())
		}
		return true
	})
	if bestAssign.IsNull() {
		return symbols.TypeExpr{}, false
	}

	expr := bestAssign.NamedChild(0)
	if rhs, has := cst.ChildByField(expr, "right"); has {
		if te, ok := r.resolveExprType(context.Background(), rhs, content, symbols.FileSymbols{}, cc); ok {
			return te, true
		}
	}

	if prev := bestAssign.PrevSibling(); !prev.IsNull() && prev.Type() == "comment" {
		raw := strings.TrimSpace(cst.Text(prev, content))
		if strings.Contains(raw, "@var") {
			if te, ok := varTagType(raw); ok {
				return te, true
			}
		}
	}

	return symbols.TypeExpr{}, false
}

func varTagType(raw string) (symbols.TypeExpr, bool) {
	idx := strings.Index(raw, "@var")
	if idx < 0 {
		return symbols.TypeExpr{}, false
	}
	rest := strings.TrimSpace(raw[idx+len("@var"):])
	rest = strings.TrimSuffix(rest, "*/")
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return symbols.TypeExpr{}, false
	}
	te := parseInlineType(fields[0])
	if te.IsUnknown() {
		return symbols.TypeExpr{}, false
	}
	return te, true
}

// aliasesFor returns the use-alias table recorded in fs.
func aliasesFor(fs symbols.FileSymbols) (symbols.UseAliasTable, bool) {
	return fs.Aliases, true
}

func (r *Resolver) qualifyAgainst(raw, namespace string, aliases map[string]string) string {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "\\")
	if raw == "" {
		return raw
	}
	if strings.Contains(raw, "\\") {
		return raw
	}
	if full, ok := aliases[strings.ToLower(raw)]; ok {
		return full
	}
	if namespace != "" {
		return namespace + "\\" + raw
	}
	return raw
}

// parseInlineType is a tiny local type-token parser (named type, optional
// leading '?') so cursor.go needn't import internal/docblock for the one
// case it needs: reading an inline @var comment's type token.
func parseInlineType(raw string) symbols.TypeExpr {
	raw = strings.TrimSpace(raw)
	nullable := strings.HasPrefix(raw, "?")
	raw = strings.TrimPrefix(raw, "?")
	raw = strings.TrimPrefix(raw, "\\")
	if raw == "" {
		return symbols.Unknown()
	}
	te := symbols.Named(raw)
	if nullable {
		return symbols.TypeExpr{Kind: symbols.TypeNullable, Parts: []symbols.TypeExpr{te}}
	}
	return te
}
