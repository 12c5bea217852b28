package server

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) references(glspCtx *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
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
	if !ok || target.IsLocal {
		return nil, nil
	}
	d := target.Descriptor

	var out []protocol.Location
	if params.Context.IncludeDeclaration && d.URI != "" {
		out = append(out, protocol.Location{URI: d.URI, Range: toProtocolRange(d.SelectionRange)})
	}
	for _, ref := range s.idx.References(d.FQN) {
		out = append(out, protocol.Location{URI: ref.URI, Range: toProtocolRange(ref.Range)})
	}
	return out, nil
}
