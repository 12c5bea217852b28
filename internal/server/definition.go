package server

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) definition(glspCtx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
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
		return []protocol.Location{{
			URI:   doc.URI(),
			Range: toProtocolRange(target.LocalRange),
		}}, nil
	}
	d := target.Descriptor
	if d.URI == "" {
		return nil, nil
	}
	return []protocol.Location{{
		URI:   d.URI,
		Range: toProtocolRange(d.SelectionRange),
	}}, nil
}
