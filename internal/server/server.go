// Package server implements the request dispatcher: a single object wiring
// every protocol method onto the docstore/index/resolver/completion/
// diagnostics components, enforcing the lifecycle state machine and
// per-URI document-event ordering.
package server

import (
	"context"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/go-phpls/phpls/internal/autoload"
	"github.com/go-phpls/phpls/internal/completion"
	"github.com/go-phpls/phpls/internal/config"
	"github.com/go-phpls/phpls/internal/diagnostics"
	"github.com/go-phpls/phpls/internal/docstore"
	"github.com/go-phpls/phpls/internal/index"
	"github.com/go-phpls/phpls/internal/resolver"
	"github.com/go-phpls/phpls/internal/stubs"
	"github.com/go-phpls/phpls/internal/workspace"
)

const lsName = "phpls"

var version = "0.1.0"

// phase is the server's lifecycle state.
type phase int

const (
	phaseCreated phase = iota
	phaseInitializing
	phaseRunning
	phaseShuttingDown
	phaseExited
)

// Server is the single request-dispatcher object backing every protocol
// method.
type Server struct {
	h protocol.Handler

	mu    sync.Mutex
	phase phase

	cfg       *config.Config
	idx       *index.Index
	store     *docstore.Store
	corpus    *stubs.Corpus
	autoload  autoload.Map
	res       *resolver.Resolver
	completer *completion.Engine
	diag      *diagnostics.Engine
	scanner   *workspace.Scanner
	watcher   *workspace.Watcher

	sync    *documentSync
	cancels cancelState
	logger  commonlog.Logger
}

// NewServer constructs a Server in the Created state.
func NewServer() *Server {
	s := &Server{
		cfg:    config.New(),
		idx:    index.New(),
		store:  docstore.NewStore(0),
		logger: commonlog.GetLoggerf("phpls.server"),
	}
	s.sync = newDocumentSync(s)
	s.h = protocol.Handler{
		Initialize:                 s.initialize,
		Initialized:                s.initialized,
		Shutdown:                   s.shutdown,
		Exit:                       s.exit,
		SetTrace:                   s.setTrace,
		CancelRequest:              s.cancelRequest,
		TextDocumentDidOpen:        s.didOpen,
		TextDocumentDidChange:      s.didChange,
		TextDocumentDidClose:       s.didClose,
		TextDocumentDidSave:        s.didSave,
		TextDocumentHover:          s.hover,
		TextDocumentDefinition:     s.definition,
		TextDocumentReferences:     s.references,
		TextDocumentPrepareRename:  s.prepareRename,
		TextDocumentRename:         s.rename,
		TextDocumentCompletion:     s.completion,
		CompletionItemResolve:      s.completionResolve,
		TextDocumentDocumentSymbol: s.documentSymbol,
		WorkspaceSymbol:            s.workspaceSymbol,
	}
	return s
}

// Run starts the stdio transport loop; it blocks until the process exits.
func (s *Server) Run() {
	srv := glspserver.NewServer(&s.h, lsName, false)
	srv.RunStdio()
}

func (s *Server) getPhase() phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Server) setPhase(p phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

// requireRunning ensures requests other than initialize fail with "server
// not initialized" before Running, and every request fails with "invalid
// request" after ShuttingDown.
func (s *Server) requireRunning() error {
	switch s.getPhase() {
	case phaseCreated, phaseInitializing:
		return rpcError(codeServerNotInitialized, "server not initialized")
	case phaseShuttingDown, phaseExited:
		return rpcError(codeInvalidRequest, "invalid request")
	default:
		return nil
	}
}

// cancelState ties a request's lifetime to a cancellation token tripped by
// $/cancelRequest.
type cancelState struct {
	mu     sync.Mutex
	tokens map[any]context.CancelFunc
}

func (s *Server) newCancellable(id any) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancels.mu.Lock()
	if s.cancels.tokens == nil {
		s.cancels.tokens = make(map[any]context.CancelFunc)
	}
	s.cancels.tokens[id] = cancel
	s.cancels.mu.Unlock()
	return ctx, func() {
		cancel()
		s.cancels.mu.Lock()
		delete(s.cancels.tokens, id)
		s.cancels.mu.Unlock()
	}
}

func (s *Server) cancelRequest(_ *glsp.Context, params *protocol.CancelParams) error {
	s.cancels.mu.Lock()
	defer s.cancels.mu.Unlock()
	if cancel, ok := s.cancels.tokens[params.ID]; ok {
		cancel()
	}
	return nil
}
