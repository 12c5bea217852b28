package server

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) workspaceSymbol(glspCtx *glsp.Context, params *protocol.WorkspaceSymbolParams) ([]protocol.SymbolInformation, error) {
	if err := s.requireRunning(); err != nil {
		return nil, err
	}
	_, cancel := s.newCancellable(glspCtx.ID)
	defer cancel()
	results := s.idx.Search(params.Query, 200)
	out := make([]protocol.SymbolInformation, 0, len(results))
	for _, r := range results {
		d := r.Descriptor
		if d.URI == "" {
			continue
		}
		info := protocol.SymbolInformation{
			Name: d.ShortName,
			Kind: symbolKindFor(d),
			Location: protocol.Location{
				URI:   d.URI,
				Range: toProtocolRange(d.SelectionRange),
			},
		}
		if d.ContainerFQN != "" {
			container := d.ContainerFQN
			info.ContainerName = &container
		}
		out = append(out, info)
	}
	return out, nil
}
