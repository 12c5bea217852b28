package server

import (
	"context"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/go-phpls/phpls/internal/docstore"
	"github.com/go-phpls/phpls/internal/utils"
)

// docAt returns the document named by a TextDocumentIdentifier, preferring
// the open-document cache and falling back to a disk read for a file the
// client hasn't opened (e.g. a definition target reached through Composer
// autoloading).
func (s *Server) docAt(id protocol.TextDocumentIdentifier) (*docstore.Document, error) {
	return s.store.Get(context.Background(), utils.UriToPath(id.URI))
}

func offsetAt(doc *docstore.Document, pos protocol.Position) (int, error) {
	return doc.OffsetAt(int(pos.Line), int(pos.Character))
}

func positionFor(doc *docstore.Document, offset int) (protocol.Position, error) {
	line, col, err := doc.PositionAt(offset)
	if err != nil {
		return protocol.Position{}, err
	}
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col)}, nil
}
