package server

import (
	"fmt"
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/go-phpls/phpls/internal/symbols"
)

func (s *Server) hover(glspCtx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	if err := s.requireRunning(); err != nil {
		return nil, err
	}
	ctx, cancel := s.newCancellable(glspCtx.ID)
	defer cancel()
	doc, err := s.docAt(params.TextDocument)
	if err != nil {
		return nil, nil
	}
	offset, err := offsetAt(doc, params.Position)
	if err != nil {
		return nil, nil
	}
	target, ok := s.res.ResolveCursor(ctx, doc, offset)
	if !ok {
		return nil, nil
	}
	if target.IsLocal {
		return &protocol.Hover{
			Contents: protocol.MarkupContent{Kind: protocol.MarkupKindPlainText, Value: "$" + target.LocalName},
			Range:    rangePtr(toProtocolRange(target.LocalRange)),
		}, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: hoverText(target.Descriptor)},
		Range:    rangePtr(toProtocolRange(target.Descriptor.SelectionRange)),
	}, nil
}

func rangePtr(r protocol.Range) *protocol.Range { return &r }

func hoverText(d symbols.Descriptor) string {
	var b strings.Builder
	b.WriteString("```php\n")
	switch d.Kind {
	case symbols.KindClass:
		b.WriteString("class " + d.FQN)
	case symbols.KindInterface:
		b.WriteString("interface " + d.FQN)
	case symbols.KindTrait:
		b.WriteString("trait " + d.FQN)
	case symbols.KindEnum:
		b.WriteString("enum " + d.FQN)
	case symbols.KindMethod, symbols.KindFunction:
		b.WriteString(signatureLine(d))
	case symbols.KindProperty:
		b.WriteString(fmt.Sprintf("%s $%s", visibilityKeyword(d), d.ShortName))
	case symbols.KindClassConstant, symbols.KindGlobalConstant:
		b.WriteString(fmt.Sprintf("const %s", d.ShortName))
	case symbols.KindEnumCase:
		b.WriteString(fmt.Sprintf("case %s", d.ShortName))
	default:
		b.WriteString(d.FQN)
	}
	b.WriteString("\n```")
	if d.DocSummary != "" {
		b.WriteString("\n\n" + d.DocSummary)
	}
	if d.IsDeprecated() {
		b.WriteString("\n\n**Deprecated**")
		if d.DocTags.DeprecatedReason != "" {
			b.WriteString(": " + d.DocTags.DeprecatedReason)
		}
	}
	return b.String()
}

func visibilityKeyword(d symbols.Descriptor) string {
	if d.Visibility == symbols.VisibilityNA || d.Visibility == "" {
		return "public"
	}
	return string(d.Visibility)
}

func signatureLine(d symbols.Descriptor) string {
	var b strings.Builder
	if d.Kind == symbols.KindMethod {
		b.WriteString(visibilityKeyword(d) + " ")
		if d.IsStatic() {
			b.WriteString("static ")
		}
	}
	b.WriteString("function " + d.ShortName + "(")
	for i, p := range d.Signature.Parameters {
		if i > 0 {
			b.WriteString(", ")
		}
		if !p.Type.IsUnknown() {
			b.WriteString(typeExprName(p.Type) + " ")
		}
		if p.Variadic {
			b.WriteString("...")
		}
		b.WriteString("$" + p.Name)
		if p.Default != "" {
			b.WriteString(" = " + p.Default)
		}
	}
	b.WriteString(")")
	if !d.Signature.ReturnType.IsUnknown() {
		b.WriteString(": " + typeExprName(d.Signature.ReturnType))
	}
	return b.String()
}

func typeExprName(t symbols.TypeExpr) string {
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
			return "?" + typeExprName(t.Parts[0])
		}
		return "?"
	case symbols.TypeUnion:
		return joinTypes(t.Parts, "|")
	case symbols.TypeIntersection:
		return joinTypes(t.Parts, "&")
	default:
		return ""
	}
}

func joinTypes(parts []symbols.TypeExpr, sep string) string {
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		names = append(names, typeExprName(p))
	}
	return strings.Join(names, sep)
}
