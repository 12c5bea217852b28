package server

import (
	"context"

	"github.com/google/uuid"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/go-phpls/phpls/internal/config"
)

// runBackgroundIndexing scans the workspace via the autoload map and
// bulk-populates the index after initialization, reporting progress
// through the standard workDoneProgress handshake.
func (s *Server) runBackgroundIndexing(ctx *glsp.Context) {
	if s.scanner == nil || s.cfg.WorkspaceRoot == "" {
		return
	}

	token := uuid.NewString()
	created := make(chan struct{}, 1)
	if err := ctx.Call(protocol.ServerWorkDoneProgressCreate, protocol.WorkDoneProgressCreateParams{
		Token: token,
	}, nil); err != nil {
		s.logf(ctx, config.LogDebug, "workspace scan progress unavailable: %v", err)
	} else {
		created <- struct{}{}
	}

	notifyBegin := func() {
		select {
		case <-created:
		default:
			return
		}
		title := "Indexing workspace"
		ctx.Notify(protocol.ServerProgress, protocol.ProgressParams{
			Token: token,
			Value: protocol.WorkDoneProgressBegin{
				Kind:  protocol.WorkDoneProgressKindBegin,
				Title: title,
			},
		})
	}
	notifyBegin()

	s.scanner.Scan(context.Background(), s.cfg.WorkspaceRoot, s.autoload, s.cfg.IndexVendor, func(done, total int) {
		if total <= 0 {
			return
		}
		pct := uint32(done * 100 / total)
		ctx.Notify(protocol.ServerProgress, protocol.ProgressParams{
			Token: token,
			Value: protocol.WorkDoneProgressReport{
				Kind:       protocol.WorkDoneProgressKindReport,
				Percentage: &pct,
			},
		})
	})

	ctx.Notify(protocol.ServerProgress, protocol.ProgressParams{
		Token: token,
		Value: protocol.WorkDoneProgressEnd{
			Kind: protocol.WorkDoneProgressKindEnd,
		},
	})
	s.logf(ctx, config.LogInfo, "workspace indexing complete: %d symbols", s.idx.Len())
}
