package server

import (
	"sort"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/go-phpls/phpls/internal/symbols"
)

// documentSymbol builds a hierarchical outline: a class nests its methods,
// properties and constants, each in turn nesting whatever the index
// attributed to it as a container, from the descriptors currently
// attributed to the document's URI.
func (s *Server) documentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	if err := s.requireRunning(); err != nil {
		return nil, err
	}
	descriptors := s.idx.DescriptorsInFile(params.TextDocument.URI)
	if len(descriptors) == 0 {
		return []protocol.DocumentSymbol{}, nil
	}

	byContainer := make(map[string][]symbols.Descriptor)
	var top []symbols.Descriptor
	for _, d := range descriptors {
		if d.ContainerFQN == "" {
			top = append(top, d)
		} else {
			byContainer[d.ContainerFQN] = append(byContainer[d.ContainerFQN], d)
		}
	}
	sortDescriptors(top)

	out := make([]protocol.DocumentSymbol, 0, len(top))
	for _, d := range top {
		out = append(out, toDocumentSymbol(d, byContainer))
	}
	return out, nil
}

func toDocumentSymbol(d symbols.Descriptor, byContainer map[string][]symbols.Descriptor) protocol.DocumentSymbol {
	children := byContainer[d.FQN]
	sortDescriptors(children)
	out := protocol.DocumentSymbol{
		Name:           d.ShortName,
		Kind:           symbolKindFor(d),
		Range:          toProtocolRange(d.DefiningRange),
		SelectionRange: toProtocolRange(d.SelectionRange),
	}
	if detail := documentSymbolDetail(d); detail != "" {
		out.Detail = &detail
	}
	if d.IsDeprecated() {
		deprecated := true
		out.Deprecated = &deprecated
	}
	for _, c := range children {
		out.Children = append(out.Children, toDocumentSymbol(c, byContainer))
	}
	return out
}

func documentSymbolDetail(d symbols.Descriptor) string {
	switch d.Kind {
	case symbols.KindMethod, symbols.KindFunction:
		return signatureLine(d)
	default:
		return ""
	}
}

func sortDescriptors(ds []symbols.Descriptor) {
	sort.Slice(ds, func(i, j int) bool {
		return ds[i].DefiningRange.StartByte < ds[j].DefiningRange.StartByte
	})
}
