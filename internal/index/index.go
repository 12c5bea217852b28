package index

import (
	"strings"
	"sync"

	"github.com/go-phpls/phpls/internal/symbols"
)

// Reference is one usage site of an FQN, recorded with the URI it was found
// in since symbols.Range alone doesn't carry that.
type Reference struct {
	URI   string
	Range symbols.Range
}

// fileEntry is one descriptor a file contributed, remembered alongside its
// Kind so Remove/re-index know which of the four backing maps to retract
// it from without re-fetching the descriptor first.
type fileEntry struct {
	FQN  string
	Kind symbols.Kind
}

// Index is the workspace-wide, concurrency-safe symbol table. Per spec.md
// §3 it keeps three independent primary maps keyed by FQN -- types,
// functions, constants -- since a class and a function may legitimately
// share an FQN in this language; byMember holds everything else
// (methods, properties, class constants, enum cases, parameters, local
// variables), which are always reached container-qualified ("Foo::bar")
// or via Children, so no such collision is possible there. The zero value
// is not usable; construct with New.
type Index struct {
	byType     *shardedMap
	byFunction *shardedMap
	byConstant *shardedMap
	byMember   *shardedMap

	mu          sync.RWMutex
	fileFQNs    map[string][]fileEntry             // uri -> descriptors it currently contributes
	fileAliases map[string]symbols.UseAliasTable    // uri -> its use-alias table
	references  map[string][]Reference              // FQN -> usage sites, across all files
	fileRefFQNs map[string][]string                  // uri -> FQNs it currently references (for retraction)
}

// New constructs an empty Index.
func New() *Index {
	return &Index{
		byType:      newShardedMap(),
		byFunction:  newShardedMap(),
		byConstant:  newShardedMap(),
		byMember:    newShardedMap(),
		fileFQNs:    make(map[string][]fileEntry),
		fileAliases: make(map[string]symbols.UseAliasTable),
		references:  make(map[string][]Reference),
		fileRefFQNs: make(map[string][]string),
	}
}

// mapFor returns the primary map backing ns.
func (idx *Index) mapFor(ns symbols.Namespace) *shardedMap {
	switch ns {
	case symbols.NamespaceFunction:
		return idx.byFunction
	case symbols.NamespaceConstant:
		return idx.byConstant
	default:
		return idx.byType
	}
}

// mapForKind returns the map a descriptor of the given kind is stored in:
// one of the three primary maps for types/functions/constants, or the
// shared member map for everything else.
func (idx *Index) mapForKind(kind symbols.Kind) *shardedMap {
	if ns, ok := symbols.NamespaceOf(kind); ok {
		return idx.mapFor(ns)
	}
	return idx.byMember
}

// IndexFile retracts whatever uri previously contributed, then inserts
// fs.Symbols and fs.References. Safe to call concurrently for distinct
// URIs; calls for the same URI should be serialized by the caller (the
// server's per-URI document sync orders document events).
func (idx *Index) IndexFile(fs symbols.FileSymbols) {
	idx.Remove(fs.URI)

	entries := make([]fileEntry, 0, len(fs.Symbols))
	for _, d := range fs.Symbols {
		idx.mapForKind(d.Kind).set(d.FQN, d)
		entries = append(entries, fileEntry{FQN: d.FQN, Kind: d.Kind})
	}

	idx.mu.Lock()
	idx.fileFQNs[fs.URI] = entries
	idx.fileAliases[fs.URI] = fs.Aliases
	refFQNs := make([]string, 0, len(fs.References))
	for fqn, ranges := range fs.References {
		refFQNs = append(refFQNs, fqn)
		for _, r := range ranges {
			idx.references[fqn] = append(idx.references[fqn], Reference{URI: fs.URI, Range: r})
		}
	}
	idx.fileRefFQNs[fs.URI] = refFQNs
	idx.mu.Unlock()
}

// Remove retracts every descriptor and reference uri previously
// contributed, e.g. when a document is closed without being replaced or
// deleted from the workspace.
func (idx *Index) Remove(uri string) {
	idx.mu.Lock()
	entries := idx.fileFQNs[uri]
	refFQNs := idx.fileRefFQNs[uri]
	delete(idx.fileFQNs, uri)
	delete(idx.fileAliases, uri)
	delete(idx.fileRefFQNs, uri)
	for _, fqn := range refFQNs {
		kept := idx.references[fqn][:0]
		for _, ref := range idx.references[fqn] {
			if ref.URI != uri {
				kept = append(kept, ref)
			}
		}
		if len(kept) == 0 {
			delete(idx.references, fqn)
		} else {
			idx.references[fqn] = kept
		}
	}
	idx.mu.Unlock()

	for _, e := range entries {
		m := idx.mapForKind(e.Kind)
		if d, ok := m.get(e.FQN); ok && d.URI == uri {
			m.delete(e.FQN)
		}
	}
}

// Lookup is resolve_fqn(FQN, kind): a primary-map lookup disambiguated by
// namespace, since a class and a function may share an FQN.
func (idx *Index) Lookup(fqn string, ns symbols.Namespace) (symbols.Descriptor, bool) {
	return idx.mapFor(ns).get(strings.TrimPrefix(fqn, "\\"))
}

// LookupMember returns the descriptor for a container-qualified member FQN
// (e.g. "App\Foo::bar"), or a parameter/local-variable FQN. These never
// collide across kinds the way top-level types/functions/constants can,
// so no namespace disambiguation is needed.
func (idx *Index) LookupMember(fqn string) (symbols.Descriptor, bool) {
	return idx.byMember.get(strings.TrimPrefix(fqn, "\\"))
}

// References returns every recorded usage of fqn.
func (idx *Index) References(fqn string) []Reference {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	refs := idx.references[fqn]
	out := make([]Reference, len(refs))
	copy(out, refs)
	return out
}

// Aliases returns the use-alias table recorded for uri, if any.
func (idx *Index) Aliases(uri string) (symbols.UseAliasTable, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	t, ok := idx.fileAliases[uri]
	return t, ok
}

// DescriptorsInFile returns every descriptor currently attributed to uri,
// across all four backing maps.
func (idx *Index) DescriptorsInFile(uri string) []symbols.Descriptor {
	idx.mu.RLock()
	entries := append([]fileEntry(nil), idx.fileFQNs[uri]...)
	idx.mu.RUnlock()

	out := make([]symbols.Descriptor, 0, len(entries))
	for _, e := range entries {
		if d, ok := idx.mapForKind(e.Kind).get(e.FQN); ok {
			out = append(out, d)
		}
	}
	return out
}

// All returns every descriptor currently indexed, across all files and all
// four backing maps.
func (idx *Index) All() []symbols.Descriptor {
	out := make([]symbols.Descriptor, 0, idx.Len())
	collect := func(d symbols.Descriptor) { out = append(out, d) }
	idx.byType.forEach(func(_ string, d symbols.Descriptor) { collect(d) })
	idx.byFunction.forEach(func(_ string, d symbols.Descriptor) { collect(d) })
	idx.byConstant.forEach(func(_ string, d symbols.Descriptor) { collect(d) })
	idx.byMember.forEach(func(_ string, d symbols.Descriptor) { collect(d) })
	return out
}

// Types returns every indexed class/interface/trait/enum descriptor, used
// by completion's unaliased-short-name fallback.
func (idx *Index) Types() []symbols.Descriptor {
	out := make([]symbols.Descriptor, 0, idx.byType.len())
	idx.byType.forEach(func(_ string, d symbols.Descriptor) {
		out = append(out, d)
	})
	return out
}

// Len reports how many descriptors are currently indexed, across all four
// backing maps.
func (idx *Index) Len() int {
	return idx.byType.len() + idx.byFunction.len() + idx.byConstant.len() + idx.byMember.len()
}

// Children returns every descriptor whose ContainerFQN is containerFQN
// (a class's methods/properties/constants), used by completion and hover.
func (idx *Index) Children(containerFQN string) []symbols.Descriptor {
	var out []symbols.Descriptor
	idx.byMember.forEach(func(_ string, d symbols.Descriptor) {
		if d.ContainerFQN == containerFQN {
			out = append(out, d)
		}
	})
	return out
}
