package server

import (
	"context"
	"sync"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/go-phpls/phpls/internal/docstore"
	"github.com/go-phpls/phpls/internal/utils"
)

// debounceDelay is the diagnostics debounce window.
const debounceDelay = 200 * time.Millisecond

// documentSync owns the per-URI document-event ordering and the debounced
// diagnostics publish: a per-URI lock gives in-order apply for a single
// file's sync events while distinct files proceed concurrently, and a
// per-URI timer coalesces rapid edits into one reparse+publish.
type documentSync struct {
	s *Server

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	timers  map[string]*time.Timer
	pending map[string]int32
}

func newDocumentSync(s *Server) *documentSync {
	return &documentSync{
		s:       s,
		locks:   make(map[string]*sync.Mutex),
		timers:  make(map[string]*time.Timer),
		pending: make(map[string]int32),
	}
}

func (ds *documentSync) lockFor(uri string) *sync.Mutex {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	l, ok := ds.locks[uri]
	if !ok {
		l = &sync.Mutex{}
		ds.locks[uri] = l
	}
	return l
}

func (s *Server) didOpen(ctx *glsp.Context, p *protocol.DidOpenTextDocumentParams) error {
	if err := s.requireRunning(); err != nil {
		return err
	}
	uri := p.TextDocument.URI
	l := s.sync.lockFor(uri)
	l.Lock()
	defer l.Unlock()

	doc, err := docstore.NewDocument(context.Background(), uri, []byte(p.TextDocument.Text))
	if err != nil {
		return errInternal(err)
	}
	s.store.RegisterOpen(utils.UriToPath(uri), doc)
	s.idx.IndexFile(doc.Symbols())
	s.logTrace(ctx, "indexed "+uri, "textDocument/didOpen")
	s.scheduleDiagnostics(ctx, uri, doc, int(p.TextDocument.Version))
	return nil
}

func (s *Server) didChange(ctx *glsp.Context, p *protocol.DidChangeTextDocumentParams) error {
	if err := s.requireRunning(); err != nil {
		return err
	}
	uri := p.TextDocument.URI
	l := s.sync.lockFor(uri)
	l.Lock()
	defer l.Unlock()

	doc, err := s.store.Get(context.Background(), utils.UriToPath(uri))
	if err != nil {
		return errInternal(err)
	}

	version := p.TextDocument.Version
	if whole, ok := soleWholeReplace(p.ContentChanges); ok {
		if err := doc.SetText(context.Background(), int32(version), []byte(whole)); err != nil {
			return errInternal(err)
		}
	} else {
		changes := make([]docstore.Change, 0, len(p.ContentChanges))
		for _, raw := range p.ContentChanges {
			c, ok := raw.(protocol.TextDocumentContentChangeEvent)
			if !ok {
				continue
			}
			startByte, err := doc.OffsetAt(int(c.Range.Start.Line), int(c.Range.Start.Character))
			if err != nil {
				return errInternal(err)
			}
			endByte, err := doc.OffsetAt(int(c.Range.End.Line), int(c.Range.End.Character))
			if err != nil {
				return errInternal(err)
			}
			changes = append(changes, docstore.Change{StartByte: startByte, EndByte: endByte, NewText: []byte(c.Text)})
		}
		if err := doc.ApplyChanges(context.Background(), int32(version), changes); err != nil {
			return errInternal(err)
		}
	}

	s.idx.IndexFile(doc.Symbols())
	s.logTrace(ctx, "reindexed "+uri, "textDocument/didChange")
	s.scheduleDiagnostics(ctx, uri, doc, int(version))
	return nil
}

func (s *Server) didClose(_ *glsp.Context, p *protocol.DidCloseTextDocumentParams) error {
	if err := s.requireRunning(); err != nil {
		return err
	}
	uri := p.TextDocument.URI
	l := s.sync.lockFor(uri)
	l.Lock()
	defer l.Unlock()

	s.store.Close(utils.UriToPath(uri))
	s.idx.Remove(uri)
	return nil
}

func (s *Server) didSave(_ *glsp.Context, _ *protocol.DidSaveTextDocumentParams) error {
	return s.requireRunning()
}

// soleWholeReplace reports whether changes is a single full-document
// replacement (didChange's non-incremental form), which SetText handles
// directly instead of going through the range-edit path.
func soleWholeReplace(changes []any) (string, bool) {
	if len(changes) != 1 {
		return "", false
	}
	whole, ok := changes[0].(protocol.TextDocumentContentChangeEventWhole)
	if !ok {
		return "", false
	}
	return whole.Text, true
}

// scheduleDiagnostics debounces a diagnostics publish: a newer change
// cancels the pending task for uri, and the fired task bails without
// publishing if the document's version has advanced past the one it was
// scheduled for.
func (s *Server) scheduleDiagnostics(ctx *glsp.Context, uri string, doc *docstore.Document, version int) {
	ds := s.sync
	ds.mu.Lock()
	if t, ok := ds.timers[uri]; ok {
		t.Stop()
	}
	ds.pending[uri] = int32(version)
	ds.timers[uri] = time.AfterFunc(debounceDelay, func() {
		s.publishDiagnostics(ctx, uri, doc, version)
	})
	ds.mu.Unlock()
}

// publishDiagnostics fires at the end of the debounce window. It bails
// without publishing if doc's version has moved on from scheduledVersion,
// both before and after running the (possibly slow, semantic) analysis.
func (s *Server) publishDiagnostics(ctx *glsp.Context, uri string, doc *docstore.Document, scheduledVersion int) {
	if s.cfg.DiagnosticsMode == "off" {
		return
	}
	if int(doc.Version()) != scheduledVersion {
		return
	}

	findings := s.collectDiagnostics(doc)

	if int(doc.Version()) != scheduledVersion {
		return
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Version:     versionPtr(scheduledVersion),
		Diagnostics: toProtocolDiagnostics(findings),
	})
}

func versionPtr(v int) *protocol.Integer {
	pv := protocol.Integer(v)
	return &pv
}
