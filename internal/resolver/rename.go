package resolver

import (
	"context"
	"fmt"
	"regexp"

	"github.com/go-phpls/phpls/internal/index"
	"github.com/go-phpls/phpls/internal/symbols"
)

// identifierRe matches the language's identifier grammar: a letter or
// underscore followed by letters, digits, or underscores.
var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// RenameRejection explains why prepareRename refused a position.
type RenameRejection struct {
	Reason string
}

func (r RenameRejection) Error() string { return r.Reason }

// PrepareRename resolves the cursor and applies §4.8's rename
// preconditions: the position must be on a supported symbol kind, must not
// be a default-library symbol, and must not be a local variable.
func (r *Resolver) PrepareRename(ctx context.Context, doc Doc, offset int) (symbols.Descriptor, symbols.Range, error) {
	target, ok := r.ResolveCursor(ctx, doc, offset)
	if !ok {
		return symbols.Descriptor{}, symbols.Range{}, RenameRejection{"position is not on a renameable symbol"}
	}
	if target.IsLocal {
		return symbols.Descriptor{}, symbols.Range{}, RenameRejection{"local-variable rename is not supported"}
	}
	d := target.Descriptor
	if d.IsDefaultLibrary() {
		return symbols.Descriptor{}, symbols.Range{}, RenameRejection{"cannot rename a default-library symbol"}
	}
	switch d.Kind {
	case symbols.KindParameter, symbols.KindLocalVariable:
		return symbols.Descriptor{}, symbols.Range{}, RenameRejection{"position is not on a renameable symbol"}
	}
	return d, d.SelectionRange, nil
}

// ValidateNewName enforces §4.8's rename validation: non-empty, no
// whitespace, no namespace separator, matches the identifier grammar.
func ValidateNewName(newName string) error {
	if !identifierRe.MatchString(newName) {
		return fmt.Errorf("%q is not a valid identifier", newName)
	}
	return nil
}

// RenameEdit is one text replacement a rename produces.
type RenameEdit struct {
	URI     string
	Range   symbols.Range
	NewText string
}

// RenameEdits returns the edit set for renaming d to newName: its own
// declaration plus every recorded reference, gathered from idx.
func RenameEdits(idx *index.Index, d symbols.Descriptor, newName string) []RenameEdit {
	edits := []RenameEdit{{URI: d.URI, Range: d.SelectionRange, NewText: newName}}
	for _, ref := range idx.References(d.FQN) {
		edits = append(edits, RenameEdit{URI: ref.URI, Range: ref.Range, NewText: newName})
	}
	return edits
}
