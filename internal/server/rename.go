package server

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/go-phpls/phpls/internal/resolver"
)

func (s *Server) prepareRename(glspCtx *glsp.Context, params *protocol.PrepareRenameParams) (any, error) {
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
	_, rng, rerr := s.res.PrepareRename(ctx, doc, offset)
	if rerr != nil {
		return nil, rpcError(codeInvalidRequest, rerr.Error())
	}
	r := toProtocolRange(rng)
	return &r, nil
}

func (s *Server) rename(glspCtx *glsp.Context, params *protocol.RenameParams) (*protocol.WorkspaceEdit, error) {
	if err := s.requireRunning(); err != nil {
		return nil, err
	}
	if err := resolver.ValidateNewName(params.NewName); err != nil {
		return nil, rpcError(codeInvalidParams, err.Error())
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
	d, _, rerr := s.res.PrepareRename(ctx, doc, offset)
	if rerr != nil {
		return nil, rpcError(codeInvalidRequest, rerr.Error())
	}

	edits := resolver.RenameEdits(s.idx, d, params.NewName)
	changes := make(map[string][]protocol.TextEdit)
	for _, e := range edits {
		changes[e.URI] = append(changes[e.URI], protocol.TextEdit{
			Range:   toProtocolRange(e.Range),
			NewText: e.NewText,
		})
	}
	return &protocol.WorkspaceEdit{Changes: changes}, nil
}
