package server

import (
	"regexp"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/go-phpls/phpls/internal/completion"
	"github.com/go-phpls/phpls/internal/resolver"
	"github.com/go-phpls/phpls/internal/symbols"
)

var inScopeVarRe = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

func (s *Server) completion(glspCtx *glsp.Context, params *protocol.CompletionParams) (any, error) {
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

	var fs symbols.FileSymbols
	var content []byte
	doc.WithTree(func(_ *sitter.Tree, c []byte, f symbols.FileSymbols) { content = c; fs = f })

	node, _, ok := doc.NodeAt(offset)
	cc := resolver.ClassContext{}
	if ok {
		cc = resolver.ClassContextAt(node, content, fs)
	}

	req := completion.Request{
		Content:      content,
		Offset:       offset,
		ClassContext: cc,
		Aliases:      fs.Aliases,
		InScopeVars:  scopeVars(content, offset),
	}
	candidates := s.completer.Complete(ctx, req)

	items := make([]protocol.CompletionItem, 0, len(candidates))
	for _, c := range candidates {
		detail := c.Detail
		insertText := c.InsertText
		items = append(items, protocol.CompletionItem{
			Label:      c.Label,
			Kind:       completionItemKindFor(c.Descriptor),
			Detail:     &detail,
			InsertText: &insertText,
		})
	}
	return items, nil
}

func (s *Server) completionResolve(_ *glsp.Context, item *protocol.CompletionItem) (*protocol.CompletionItem, error) {
	return item, nil
}

// scopeVars collects every distinct $variable referenced anywhere before
// offset in content, a simple over-approximation of the variables in scope
// that's good enough for completion ranking (unlike cursor resolution,
// completion doesn't need the single best candidate).
func scopeVars(content []byte, offset int) []string {
	if offset > len(content) {
		offset = len(content)
	}
	seen := make(map[string]struct{})
	var out []string
	for _, m := range inScopeVarRe.FindAllSubmatch(content[:offset], -1) {
		name := string(m[1])
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
