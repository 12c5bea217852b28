package symbols

import (
	"strconv"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/go-phpls/phpls/internal/docblock"
)

// Extract walks a parsed tree and produces the FQN-keyed symbol set for one
// file: every class/interface/trait/enum, their members, top-level
// functions and constants, the use-alias table, and a reference map keyed
// by FQN, as a single descriptor list rather than scattered per-concern
// maps.
func Extract(uri string, tree *sitter.Tree, content []byte) FileSymbols {
	fs := FileSymbols{
		URI:        uri,
		Aliases:    NewUseAliasTable(),
		References: make(map[string][]Range),
	}
	if tree == nil {
		return fs
	}
	root := tree.RootNode()
	if root.IsNull() {
		return fs
	}

	ex := &extractor{content: content, uri: uri}
	fs.Namespace = ex.namespaceBefore(root, uint32(root.EndByte())+1)
	fs.Aliases = ex.collectAliases(root)

	ex.walkTopLevel(root, "", fs.Aliases, &fs)
	ex.collectReferences(root, fs.Aliases, &fs)

	return fs
}

type extractor struct {
	content []byte
	uri     string
}

func (ex *extractor) text(n sitter.Node) string {
	if n.IsNull() {
		return ""
	}
	return n.Content(ex.content)
}

func (ex *extractor) rangeOf(n sitter.Node) Range {
	sp, ep := n.StartPoint(), n.EndPoint()
	return Range{
		StartByte: uint32(n.StartByte()),
		EndByte:   uint32(n.EndByte()),
		Start:     Position{Line: uint32(sp.Row), Column: uint32(sp.Column)},
		End:       Position{Line: uint32(ep.Row), Column: uint32(ep.Column)},
	}
}

func normalizeFQN(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\\\", "\\"))
	name = strings.TrimLeft(name, "?\\")
	return name
}

func shortName(qualified string) string {
	if i := strings.LastIndexByte(qualified, '\\'); i >= 0 && i+1 < len(qualified) {
		return qualified[i+1:]
	}
	return qualified
}

// namespaceBefore finds the last namespace_definition whose start precedes
// bytePos, scanning only direct children of root since PHP namespaces
// cannot nest.
func (ex *extractor) namespaceBefore(root sitter.Node, bytePos uint32) string {
	current := ""
	for i := uint32(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if uint32(child.StartByte()) >= bytePos {
			break
		}
		if child.Type() == "namespace_definition" {
			if nameNode := child.ChildByFieldName("name"); !nameNode.IsNull() {
				current = normalizeFQN(ex.text(nameNode))
			}
		}
	}
	return current
}

func (ex *extractor) namespaceForNode(root, node sitter.Node) string {
	for cur := node; !cur.IsNull(); cur = cur.Parent() {
		if cur.Type() == "namespace_definition" {
			if nameNode := cur.ChildByFieldName("name"); !nameNode.IsNull() {
				return normalizeFQN(ex.text(nameNode))
			}
		}
	}
	return ex.namespaceBefore(root, uint32(node.StartByte()))
}

// collectAliases walks namespace_use_declaration nodes and records `use`,
// `use function`, and `use const` aliases into their own namespaces.
func (ex *extractor) collectAliases(root sitter.Node) UseAliasTable {
	table := NewUseAliasTable()
	table.Namespace = ex.namespaceBefore(root, uint32(root.EndByte())+1)

	var walk func(n sitter.Node)
	walk = func(n sitter.Node) {
		if n.Type() == "namespace_use_declaration" {
			kind := AliasType
			if kindNode := n.ChildByFieldName("type"); !kindNode.IsNull() {
				switch strings.TrimSpace(ex.text(kindNode)) {
				case "function":
					kind = AliasFunction
				case "const":
					kind = AliasConstant
				}
			}
			prefix := ""
			for i := uint32(0); i < n.NamedChildCount(); i++ {
				child := n.NamedChild(i)
				switch child.Type() {
				case "namespace_name":
					prefix = normalizeFQN(ex.text(child))
				case "namespace_use_group":
					for j := uint32(0); j < child.NamedChildCount(); j++ {
						if child.NamedChild(j).Type() == "namespace_use_clause" {
							ex.addUseClause(child.NamedChild(j), prefix, kind, &table)
						}
					}
				case "namespace_use_clause":
					ex.addUseClause(child, "", kind, &table)
				}
			}
			return
		}
		for i := uint32(0); i < n.NamedChildCount(); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
	return table
}

func (ex *extractor) addUseClause(clause sitter.Node, prefix string, kind AliasNamespace, table *UseAliasTable) {
	if clause.IsNull() {
		return
	}
	aliasNode := clause.ChildByFieldName("alias")
	alias := strings.TrimSpace(ex.text(aliasNode))

	var nameNode sitter.Node
	for i := uint32(0); i < clause.NamedChildCount(); i++ {
		if clause.FieldNameForNamedChild(i) == "alias" {
			continue
		}
		child := clause.NamedChild(i)
		switch child.Type() {
		case "qualified_name", "relative_name", "name":
			nameNode = child
		}
		if !nameNode.IsNull() {
			break
		}
	}
	if nameNode.IsNull() {
		return
	}

	base := strings.TrimSpace(ex.text(nameNode))
	full := base
	if prefix != "" {
		full = prefix + "\\" + strings.TrimLeft(base, "\\")
	}
	full = normalizeFQN(full)
	if full == "" {
		return
	}
	if alias == "" {
		alias = shortName(full)
	}

	var dest map[string]string
	switch kind {
	case AliasFunction:
		dest = table.Functions
	case AliasConstant:
		dest = table.Constants
	default:
		dest = table.Types
	}
	lower := strings.ToLower(alias)
	dest[lower] = full
	if alias != lower {
		dest[alias] = full
	}
}

func (ex *extractor) resolveRawTypeName(raw string, aliases map[string]string) string {
	raw = normalizeFQN(raw)
	if raw == "" {
		return ""
	}
	if full, ok := aliases[strings.ToLower(raw)]; ok {
		return full
	}
	if full, ok := aliases[strings.ToLower(shortName(raw))]; ok {
		return full
	}
	return raw
}

func (ex *extractor) qualify(name, namespace string, aliases map[string]string) string {
	resolved := ex.resolveRawTypeName(name, aliases)
	if resolved == "" {
		resolved = name
	}
	resolved = normalizeFQN(resolved)
	if resolved == "" {
		return ""
	}
	if strings.Contains(resolved, "\\") {
		return resolved
	}
	if namespace != "" {
		return normalizeFQN(namespace + "\\" + resolved)
	}
	return resolved
}

// collectType walks a type-hint node and returns a single structured
// TypeExpr covering named, nullable, union, and intersection types.
func (ex *extractor) collectType(node sitter.Node, namespace string, aliases map[string]string) TypeExpr {
	if node.IsNull() {
		return Unknown()
	}
	switch node.Type() {
	case "named_type":
		var inner sitter.Node
		for i := uint32(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			switch child.Type() {
			case "qualified_name", "relative_name", "name":
				inner = child
			}
			if !inner.IsNull() {
				break
			}
		}
		raw := ex.text(node)
		if !inner.IsNull() {
			raw = ex.text(inner)
		}
		return ex.namedTypeExpr(raw, namespace, aliases)
	case "primitive_type":
		return Named(strings.ToLower(strings.TrimSpace(ex.text(node))))
	case "optional_type", "nullable_type":
		var parts []TypeExpr
		for i := uint32(0); i < node.NamedChildCount(); i++ {
			parts = append(parts, ex.collectType(node.NamedChild(i), namespace, aliases))
		}
		if len(parts) == 1 {
			return TypeExpr{Kind: TypeNullable, Parts: parts}
		}
		return TypeExpr{Kind: TypeNullable, Parts: []TypeExpr{{Kind: TypeUnion, Parts: parts}}}
	case "union_type":
		var parts []TypeExpr
		for i := uint32(0); i < node.NamedChildCount(); i++ {
			parts = append(parts, ex.collectType(node.NamedChild(i), namespace, aliases))
		}
		return TypeExpr{Kind: TypeUnion, Parts: parts}
	case "intersection_type":
		var parts []TypeExpr
		for i := uint32(0); i < node.NamedChildCount(); i++ {
			parts = append(parts, ex.collectType(node.NamedChild(i), namespace, aliases))
		}
		return TypeExpr{Kind: TypeIntersection, Parts: parts}
	case "qualified_name", "relative_name", "name":
		return ex.namedTypeExpr(ex.text(node), namespace, aliases)
	default:
		if node.NamedChildCount() == 1 {
			return ex.collectType(node.NamedChild(0), namespace, aliases)
		}
		return Unknown()
	}
}

func (ex *extractor) namedTypeExpr(raw string, namespace string, aliases map[string]string) TypeExpr {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "self":
		return TypeExpr{Kind: TypeSelf}
	case "static":
		return TypeExpr{Kind: TypeStatic}
	case "parent":
		return TypeExpr{Kind: TypeParent}
	}
	resolved := ex.qualify(raw, namespace, aliases)
	if resolved == "" {
		return Unknown()
	}
	return Named(resolved)
}

// variableName extracts the $-prefixed name from a variable_name node.
func variableName(node sitter.Node, content []byte) string {
	if node.IsNull() {
		return ""
	}
	switch node.Type() {
	case "variable_name":
		for i := uint32(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if child.Type() == "name" {
				return child.Content(content)
			}
		}
		return strings.TrimPrefix(node.Content(content), "$")
	case "by_ref":
		for i := uint32(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if child.Type() == "variable_name" {
				return variableName(child, content)
			}
		}
	case "name":
		return node.Content(content)
	}
	return strings.TrimPrefix(strings.TrimSpace(node.Content(content)), "$")
}

// precedingDoc returns the doc-comment immediately preceding node, if its
// previous sibling is a "comment" node starting with "/**".
func (ex *extractor) precedingDoc(node sitter.Node) (DocBlock, string) {
	prev := node.PrevSibling()
	if prev.IsNull() || prev.Type() != "comment" {
		return DocBlock{}, ""
	}
	raw := ex.text(prev)
	if !strings.HasPrefix(strings.TrimSpace(raw), "/**") {
		return DocBlock{}, ""
	}
	return docblock.Parse(raw), raw
}

var declKinds = map[string]Kind{
	"class_declaration":     KindClass,
	"interface_declaration": KindInterface,
	"trait_declaration":     KindTrait,
	"enum_declaration":      KindEnum,
}

// walkTopLevel recurses through the file looking for type declarations and
// top-level functions/constants, descending into class bodies to collect
// members. Declarations never nest in PHP beyond one level of class body,
// so a single recursive pass with a "container" parameter suffices.
func (ex *extractor) walkTopLevel(node sitter.Node, namespace string, aliases UseAliasTable, fs *FileSymbols) {
	for i := uint32(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "namespace_definition":
			ns := namespace
			if nameNode := child.ChildByFieldName("name"); !nameNode.IsNull() {
				ns = normalizeFQN(ex.text(nameNode))
			}
			ex.walkTopLevel(child, ns, aliases, fs)
		case "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration":
			ex.extractTypeDecl(child, namespace, aliases, fs)
		case "function_definition":
			ex.extractFunction(child, namespace, aliases, fs, "")
		case "const_declaration":
			ex.extractGlobalConsts(child, namespace, fs)
		default:
			ex.walkTopLevel(child, namespace, aliases, fs)
		}
	}
}

func (ex *extractor) extractTypeDecl(node sitter.Node, namespace string, aliases UseAliasTable, fs *FileSymbols) {
	nameNode := node.ChildByFieldName("name")
	name := strings.TrimSpace(ex.text(nameNode))
	if name == "" {
		return
	}
	fqn := name
	if namespace != "" {
		fqn = namespace + "\\" + name
	}
	fqn = normalizeFQN(fqn)

	kind := declKinds[node.Type()]
	var mods Modifier
	if node.Type() == "class_declaration" {
		for i := uint32(0); i < node.ChildCount(); i++ {
			c := node.Child(i)
			switch strings.TrimSpace(ex.text(c)) {
			case "abstract":
				mods |= ModAbstract
			case "final":
				mods |= ModFinal
			case "readonly":
				mods |= ModReadonly
			}
		}
	}

	doc, _ := ex.precedingDoc(node)

	var extends, implements []string
	for i := uint32(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "base_clause":
			extends = append(extends, ex.qualifiedList(child, namespace, aliases.Types)...)
		case "class_interface_clause":
			implements = append(implements, ex.qualifiedList(child, namespace, aliases.Types)...)
		}
	}

	fs.Symbols = append(fs.Symbols, Descriptor{
		FQN:            fqn,
		ShortName:      name,
		Kind:           kind,
		URI:            ex.uri,
		DefiningRange:  ex.rangeOf(node),
		SelectionRange: ex.rangeOf(nameNode),
		Visibility:     VisibilityNA,
		Modifiers:      mods,
		Extends:        extends,
		Implements:     implements,
		DocSummary:     doc.Summary,
		DocTags:        doc,
	})

	body := node.ChildByFieldName("body")
	if !body.IsNull() {
		ex.extractMembers(body, fqn, namespace, aliases, fs)
	}
}

func (ex *extractor) qualifiedList(clause sitter.Node, namespace string, aliases map[string]string) []string {
	var out []string
	for j := uint32(0); j < clause.NamedChildCount(); j++ {
		candidate := strings.TrimSpace(ex.text(clause.NamedChild(j)))
		if candidate == "" {
			continue
		}
		resolved := ex.qualify(candidate, namespace, aliases)
		if resolved != "" {
			out = append(out, resolved)
		}
	}
	return out
}

func (ex *extractor) extractMembers(body sitter.Node, containerFQN, namespace string, aliases UseAliasTable, fs *FileSymbols) {
	for i := uint32(0); i < body.NamedChildCount(); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "method_declaration":
			ex.extractFunction(child, namespace, aliases, fs, containerFQN)
		case "property_declaration":
			ex.extractProperty(child, containerFQN, namespace, aliases, fs)
		case "const_declaration":
			ex.extractClassConsts(child, containerFQN, fs)
		case "enum_case":
			ex.extractEnumCase(child, containerFQN, fs)
		case "use_declaration":
			// trait-use clauses are not recorded: Extends holds only
			// the base_clause names, so the resolver's ancestor walk
			// does not reach members of used traits.
		}
	}
}

func visibilityOf(node sitter.Node, content []byte) (Visibility, Modifier) {
	vis := VisibilityPublic
	var mods Modifier
	for i := uint32(0); i < node.ChildCount(); i++ {
		c := node.Child(i)
		switch c.Type() {
		case "visibility_modifier":
			switch strings.TrimSpace(c.Content(content)) {
			case "private":
				vis = VisibilityPrivate
			case "protected":
				vis = VisibilityProtected
			case "public":
				vis = VisibilityPublic
			}
		default:
			switch strings.TrimSpace(c.Content(content)) {
			case "static":
				mods |= ModStatic
			case "abstract":
				mods |= ModAbstract
			case "final":
				mods |= ModFinal
			case "readonly":
				mods |= ModReadonly
			}
		}
	}
	return vis, mods
}

func (ex *extractor) extractFunction(node sitter.Node, namespace string, aliases UseAliasTable, fs *FileSymbols, containerFQN string) {
	nameNode := node.ChildByFieldName("name")
	name := strings.TrimSpace(ex.text(nameNode))
	if name == "" {
		return
	}

	kind := KindFunction
	fqn := name
	if containerFQN != "" {
		kind = KindMethod
		fqn = containerFQN + "::" + name
	} else if namespace != "" {
		fqn = namespace + "\\" + name
	}

	vis, mods := visibilityOf(node, ex.content)
	if containerFQN == "" {
		vis = VisibilityNA
	}

	sig := Signature{ReturnType: Unknown()}
	paramNames := make(map[string]struct{})
	if retNode := node.ChildByFieldName("return_type"); !retNode.IsNull() {
		sig.ReturnType = ex.collectType(retNode, namespace, aliases.Types)
	}
	if params := node.ChildByFieldName("parameters"); !params.IsNull() {
		for i := uint32(0); i < params.NamedChildCount(); i++ {
			p := params.NamedChild(i)
			param := ex.extractParameter(p, namespace, aliases, fs, containerFQN, fqn)
			if param.Name != "" {
				sig.Parameters = append(sig.Parameters, param)
				paramNames[param.Name] = struct{}{}
			}
		}
	}

	doc, _ := ex.precedingDoc(node)

	fs.Symbols = append(fs.Symbols, Descriptor{
		FQN:            fqn,
		ShortName:      name,
		Kind:           kind,
		URI:            ex.uri,
		DefiningRange:  ex.rangeOf(node),
		SelectionRange: ex.rangeOf(nameNode),
		Visibility:     vis,
		Modifiers:      mods,
		Signature:      sig,
		ContainerFQN:   containerFQN,
		DocSummary:     doc.Summary,
		DocTags:        doc,
	})

	if body := node.ChildByFieldName("body"); !body.IsNull() {
		ex.extractLocalVariables(body, fqn, paramNames, fs)
	}
}

func (ex *extractor) extractParameter(p sitter.Node, namespace string, aliases UseAliasTable, fs *FileSymbols, containerFQN, funcFQN string) Parameter {
	nameNode := p.ChildByFieldName("name")
	name := variableName(nameNode, ex.content)
	param := Parameter{Name: name, Type: Unknown()}
	if typeNode := p.ChildByFieldName("type"); !typeNode.IsNull() {
		param.Type = ex.collectType(typeNode, namespace, aliases.Types)
	}
	if p.ChildByFieldName("default_value").IsNull() == false {
		param.Optional = true
		param.Default = strings.TrimSpace(ex.text(p.ChildByFieldName("default_value")))
	}
	if p.Type() == "variadic_parameter" {
		param.Variadic = true
	}
	if p.Type() == "property_promotion_parameter" && containerFQN != "" {
		param.Promoted = true
		vis, _ := visibilityOf(p, ex.content)
		param.Visibility = vis
		if !param.Type.IsUnknown() {
			fs.Symbols = append(fs.Symbols, Descriptor{
				FQN:            containerFQN + "::$" + name,
				ShortName:      name,
				Kind:           KindProperty,
				URI:            ex.uri,
				DefiningRange:  ex.rangeOf(p),
				SelectionRange: ex.rangeOf(nameNode),
				Visibility:     vis,
				Signature:      Signature{ReturnType: param.Type},
				ContainerFQN:   containerFQN,
			})
		}
	}
	if name != "" && funcFQN != "" {
		fs.Symbols = append(fs.Symbols, Descriptor{
			FQN:            funcFQN + "::$" + name,
			ShortName:      name,
			Kind:           KindParameter,
			URI:            ex.uri,
			DefiningRange:  ex.rangeOf(p),
			SelectionRange: ex.rangeOf(nameNode),
			Visibility:     VisibilityNA,
			Signature:      Signature{ReturnType: param.Type},
			ContainerFQN:   funcFQN,
		})
	}
	return param
}

// scopeBoundary marks node types that introduce their own callable scope:
// extractLocalVariables does not descend into them, since their assignments
// belong to that nested callable's own symbol set, not the enclosing one.
var scopeBoundary = map[string]bool{
	"function_definition":                    true,
	"method_declaration":                     true,
	"anonymous_function_creation_expression": true,
	"arrow_function":                         true,
}

// extractLocalVariables walks a callable's body for `$var = ...`
// assignments and emits a KindLocalVariable descriptor for each assignment
// site, scoped to funcFQN. A name already declared as a parameter is
// skipped here since extractParameter already gave it a descriptor;
// reassigning a parameter inside the body doesn't introduce a new symbol.
func (ex *extractor) extractLocalVariables(body sitter.Node, funcFQN string, paramNames map[string]struct{}, fs *FileSymbols) {
	var walk func(n sitter.Node)
	walk = func(n sitter.Node) {
		if scopeBoundary[n.Type()] {
			return
		}
		if n.Type() == "assignment_expression" {
			if lhs := n.ChildByFieldName("left"); !lhs.IsNull() && lhs.Type() == "variable_name" {
				name := variableName(lhs, ex.content)
				if _, isParam := paramNames[name]; name != "" && name != "this" && !isParam {
					fs.Symbols = append(fs.Symbols, Descriptor{
						FQN:            funcFQN + "::$" + name + "@" + strconv.Itoa(int(lhs.StartByte())),
						ShortName:      name,
						Kind:           KindLocalVariable,
						URI:            ex.uri,
						DefiningRange:  ex.rangeOf(n),
						SelectionRange: ex.rangeOf(lhs),
						Visibility:     VisibilityNA,
						ContainerFQN:   funcFQN,
					})
				}
			}
		}
		for i := uint32(0); i < n.NamedChildCount(); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(body)
}

func (ex *extractor) extractProperty(node sitter.Node, containerFQN, namespace string, aliases UseAliasTable, fs *FileSymbols) {
	vis, mods := visibilityOf(node, ex.content)
	typ := Unknown()
	if typeNode := node.ChildByFieldName("type"); !typeNode.IsNull() {
		typ = ex.collectType(typeNode, namespace, aliases.Types)
	}
	doc, _ := ex.precedingDoc(node)

	for i := uint32(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Type() != "property_element" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		name := variableName(nameNode, ex.content)
		if name == "" {
			continue
		}
		fs.Symbols = append(fs.Symbols, Descriptor{
			FQN:            containerFQN + "::$" + name,
			ShortName:      name,
			Kind:           KindProperty,
			URI:            ex.uri,
			DefiningRange:  ex.rangeOf(child),
			SelectionRange: ex.rangeOf(nameNode),
			Visibility:     vis,
			Modifiers:      mods,
			Signature:      Signature{ReturnType: typ},
			ContainerFQN:   containerFQN,
			DocSummary:     doc.Summary,
			DocTags:        doc,
		})
	}
}

func (ex *extractor) extractClassConsts(node sitter.Node, containerFQN string, fs *FileSymbols) {
	vis, mods := visibilityOf(node, ex.content)
	for i := uint32(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Type() != "const_element" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		name := strings.TrimSpace(ex.text(nameNode))
		if name == "" {
			continue
		}
		fs.Symbols = append(fs.Symbols, Descriptor{
			FQN:            containerFQN + "::" + name,
			ShortName:      name,
			Kind:           KindClassConstant,
			URI:            ex.uri,
			DefiningRange:  ex.rangeOf(child),
			SelectionRange: ex.rangeOf(nameNode),
			Visibility:     vis,
			Modifiers:      mods,
			ContainerFQN:   containerFQN,
		})
	}
}

func (ex *extractor) extractEnumCase(node sitter.Node, containerFQN string, fs *FileSymbols) {
	nameNode := node.ChildByFieldName("name")
	name := strings.TrimSpace(ex.text(nameNode))
	if name == "" {
		return
	}
	fs.Symbols = append(fs.Symbols, Descriptor{
		FQN:            containerFQN + "::" + name,
		ShortName:      name,
		Kind:           KindEnumCase,
		URI:            ex.uri,
		DefiningRange:  ex.rangeOf(node),
		SelectionRange: ex.rangeOf(nameNode),
		Visibility:     VisibilityNA,
		ContainerFQN:   containerFQN,
	})
}

func (ex *extractor) extractGlobalConsts(node sitter.Node, namespace string, fs *FileSymbols) {
	for i := uint32(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Type() != "const_element" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		name := strings.TrimSpace(ex.text(nameNode))
		if name == "" {
			continue
		}
		fqn := name
		if namespace != "" {
			fqn = namespace + "\\" + name
		}
		fs.Symbols = append(fs.Symbols, Descriptor{
			FQN:            fqn,
			ShortName:      name,
			Kind:           KindGlobalConstant,
			URI:            ex.uri,
			DefiningRange:  ex.rangeOf(child),
			SelectionRange: ex.rangeOf(nameNode),
			Visibility:     VisibilityNA,
		})
	}
}

// collectReferences records resolvable class-name usages (new expressions,
// static calls, class constant access, extends/implements clauses) keyed
// by their resolved FQN, feeding workspace/references. Type hints and
// instanceof operands are not recorded here.
func (ex *extractor) collectReferences(root sitter.Node, aliases UseAliasTable, fs *FileSymbols) {
	namespace := aliases.Namespace
	var walk func(n sitter.Node)
	walk = func(n sitter.Node) {
		switch n.Type() {
		case "namespace_definition":
			if nameNode := n.ChildByFieldName("name"); !nameNode.IsNull() {
				namespace = normalizeFQN(ex.text(nameNode))
			}
		case "object_creation_expression":
			if classNode := n.ChildByFieldName("class"); !classNode.IsNull() {
				ex.recordReference(classNode, namespace, aliases.Types, fs)
			}
		case "scoped_call_expression", "class_constant_access_expression":
			if classNode := n.ChildByFieldName("scope"); !classNode.IsNull() {
				ex.recordReference(classNode, namespace, aliases.Types, fs)
			}
		case "base_clause", "class_interface_clause":
			for i := uint32(0); i < n.NamedChildCount(); i++ {
				ex.recordReference(n.NamedChild(i), namespace, aliases.Types, fs)
			}
		}
		for i := uint32(0); i < n.NamedChildCount(); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
}

func (ex *extractor) recordReference(node sitter.Node, namespace string, aliases map[string]string, fs *FileSymbols) {
	switch node.Type() {
	case "qualified_name", "relative_name", "name":
	default:
		return
	}
	raw := strings.TrimSpace(ex.text(node))
	if raw == "" || strings.EqualFold(raw, "self") || strings.EqualFold(raw, "static") || strings.EqualFold(raw, "parent") {
		return
	}
	resolved := ex.qualify(raw, namespace, aliases)
	if resolved == "" {
		return
	}
	fs.References[resolved] = append(fs.References[resolved], ex.rangeOf(node))
}
