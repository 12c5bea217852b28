package server

import (
	"context"
	"os"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/go-phpls/phpls/internal/autoload"
	"github.com/go-phpls/phpls/internal/completion"
	"github.com/go-phpls/phpls/internal/config"
	"github.com/go-phpls/phpls/internal/diagnostics"
	"github.com/go-phpls/phpls/internal/resolver"
	"github.com/go-phpls/phpls/internal/stubs"
	"github.com/go-phpls/phpls/internal/utils"
	"github.com/go-phpls/phpls/internal/workspace"
)

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	if s.getPhase() != phaseCreated {
		return nil, rpcError(codeInvalidRequest, "invalid request")
	}
	s.setPhase(phaseInitializing)

	if params.RootURI != nil {
		s.cfg.WorkspaceRoot = utils.UriToPath(*params.RootURI)
	} else if len(params.WorkspaceFolders) > 0 {
		s.cfg.WorkspaceRoot = utils.UriToPath(params.WorkspaceFolders[0].URI)
	} else {
		s.cfg.WorkspaceRoot = "."
	}
	s.cfg.ApplyInitializationOptions(params.InitializationOptions)

	if s.cfg.ComposerEnabled {
		am, err := autoload.Load(s.cfg.WorkspaceRoot)
		if err != nil {
			s.logf(ctx, config.LogWarn, "autoload: %v", err)
		}
		s.autoload = am
	}

	if s.cfg.StubsPath != "" {
		corpus, err := stubs.Load(context.Background(), s.cfg.StubsPath)
		if err != nil {
			s.logf(ctx, config.LogWarn, "stubs: %v", err)
		} else {
			s.corpus = corpus
		}
	}

	s.res = resolver.New(s.idx, s.corpus, s.autoload, s.store, s.cfg.PHPVersion)
	s.completer = completion.New(s.idx, s.res)
	s.diag = diagnostics.New(s.res)
	s.scanner = workspace.New(s.store, s.idx, 0)

	caps := s.h.CreateServerCapabilities()
	openClose := true
	change := protocol.TextDocumentSyncKindIncremental
	save := true
	caps.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &openClose,
		Change:    &change,
		Save: &protocol.SaveOptions{
			IncludeText: &save,
		},
	}
	defProvider := true
	caps.DefinitionProvider = defProvider
	caps.HoverProvider = true
	caps.ReferencesProvider = true
	caps.DocumentSymbolProvider = true
	caps.WorkspaceSymbolProvider = true
	renameYes := true
	caps.RenameProvider = &protocol.RenameOptions{PrepareProvider: &renameYes}
	resolveYes := true
	caps.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"$", ">", ":", "\\"},
		ResolveProvider:   &resolveYes,
	}

	return protocol.InitializeResult{
		Capabilities: caps,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	s.setPhase(phaseRunning)
	go s.runBackgroundIndexing(ctx)
	if s.cfg.ComposerEnabled && s.cfg.WorkspaceRoot != "" {
		w, err := workspace.Watch(s.cfg.WorkspaceRoot, func() { s.reloadAutoload(ctx) })
		if err != nil {
			s.logf(ctx, config.LogWarn, "workspace watcher: %v", err)
		} else {
			s.watcher = w
		}
	}
	return nil
}

func (s *Server) reloadAutoload(ctx *glsp.Context) {
	am, err := autoload.Load(s.cfg.WorkspaceRoot)
	if err != nil {
		s.logf(ctx, config.LogWarn, "autoload reload: %v", err)
		return
	}
	s.mu.Lock()
	s.autoload = am
	s.res = resolver.New(s.idx, s.corpus, s.autoload, s.store, s.cfg.PHPVersion)
	s.completer = completion.New(s.idx, s.res)
	s.diag = diagnostics.New(s.res)
	s.mu.Unlock()
	go s.runBackgroundIndexing(ctx)
}

func (s *Server) shutdown(_ *glsp.Context) error {
	s.setPhase(phaseShuttingDown)
	if s.watcher != nil {
		s.watcher.Close()
	}
	return nil
}

func (s *Server) exit(_ *glsp.Context) error {
	code := 1
	if s.getPhase() == phaseShuttingDown {
		code = 0
	}
	s.setPhase(phaseExited)
	os.Exit(code)
	return nil
}

func (s *Server) setTrace(_ *glsp.Context, p *protocol.SetTraceParams) error {
	protocol.SetTraceValue(p.Value)
	return nil
}
