package server

import (
	"context"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/go-phpls/phpls/internal/diagnostics"
	"github.com/go-phpls/phpls/internal/docstore"
	"github.com/go-phpls/phpls/internal/symbols"
)

// collectDiagnostics runs the diagnostics engine over doc's current tree,
// honoring the configured diagnosticsMode: syntax-only keeps only the
// ERROR/MISSING sweep by discarding the semantic findings the engine also
// returns. The off mode is not checked here; publishDiagnostics returns
// before calling this in that mode.
func (s *Server) collectDiagnostics(doc *docstore.Document) []diagnostics.Diagnostic {
	var out []diagnostics.Diagnostic
	doc.WithTree(func(tree *sitter.Tree, content []byte, fs symbols.FileSymbols) {
		out = s.diag.Analyze(context.Background(), tree, content, fs)
	})
	if s.cfg.DiagnosticsMode == "syntax-only" {
		var syntaxOnly []diagnostics.Diagnostic
		for _, d := range out {
			if d.Code == "syntax-error" || d.Code == "syntax-missing-node" {
				syntaxOnly = append(syntaxOnly, d)
			}
		}
		return syntaxOnly
	}
	return out
}

func toProtocolDiagnostics(in []diagnostics.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(in))
	for _, d := range in {
		sev := protocol.DiagnosticSeverityWarning
		if d.Severity == diagnostics.SeverityError {
			sev = protocol.DiagnosticSeverityError
		}
		out = append(out, protocol.Diagnostic{
			Range:    toProtocolRange(d.Range),
			Severity: &sev,
			Code:     strPtr(d.Code),
			Source:   strPtr(lsName),
			Message:  d.Message,
		})
	}
	return out
}

func strPtr(s string) *string { return &s }

func toProtocolRange(r symbols.Range) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: r.Start.Line, Character: r.Start.Column},
		End:   protocol.Position{Line: r.End.Line, Character: r.End.Column},
	}
}
