package server

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/go-phpls/phpls/internal/symbols"
)

// symbolKindFor maps a descriptor's Kind onto the protocol's fixed SymbolKind
// enumeration, which has no trait entry of its own (traits surface as
// classes, matching how most PHP tooling presents them).
func symbolKindFor(d symbols.Descriptor) protocol.SymbolKind {
	switch d.Kind {
	case symbols.KindClass, symbols.KindTrait:
		return protocol.SymbolKindClass
	case symbols.KindInterface:
		return protocol.SymbolKindInterface
	case symbols.KindEnum:
		return protocol.SymbolKindEnum
	case symbols.KindEnumCase:
		return protocol.SymbolKindEnumMember
	case symbols.KindFunction:
		return protocol.SymbolKindFunction
	case symbols.KindMethod:
		return protocol.SymbolKindMethod
	case symbols.KindProperty:
		return protocol.SymbolKindProperty
	case symbols.KindClassConstant, symbols.KindGlobalConstant:
		return protocol.SymbolKindConstant
	case symbols.KindParameter, symbols.KindLocalVariable:
		return protocol.SymbolKindVariable
	default:
		return protocol.SymbolKindVariable
	}
}

func completionItemKindFor(d symbols.Descriptor) *protocol.CompletionItemKind {
	var k protocol.CompletionItemKind
	switch d.Kind {
	case symbols.KindClass, symbols.KindTrait:
		k = protocol.CompletionItemKindClass
	case symbols.KindInterface:
		k = protocol.CompletionItemKindInterface
	case symbols.KindEnum:
		k = protocol.CompletionItemKindEnum
	case symbols.KindEnumCase:
		k = protocol.CompletionItemKindEnumMember
	case symbols.KindFunction:
		k = protocol.CompletionItemKindFunction
	case symbols.KindMethod:
		k = protocol.CompletionItemKindMethod
	case symbols.KindProperty:
		k = protocol.CompletionItemKindField
	case symbols.KindClassConstant, symbols.KindGlobalConstant:
		k = protocol.CompletionItemKindConstant
	default:
		k = protocol.CompletionItemKindVariable
	}
	return &k
}
