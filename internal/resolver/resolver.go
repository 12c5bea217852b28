// Package resolver ties together the workspace index, the open-document
// store, Composer autoloading, and the bundled stub corpus into a single
// name-resolution surface: given an FQN or a self/static/parent-relative
// type, find the descriptor(s) it names, and given a container, find its
// full (inherited) member set, with ancestor classes resolved and cached
// workspace-wide through the shared index rather than per file.
package resolver

import (
	"context"
	"strings"

	"github.com/go-phpls/phpls/internal/autoload"
	"github.com/go-phpls/phpls/internal/docstore"
	"github.com/go-phpls/phpls/internal/index"
	"github.com/go-phpls/phpls/internal/stubs"
	"github.com/go-phpls/phpls/internal/symbols"
)

// ClassContext is the enclosing class/interface/trait/enum a type
// expression is resolved relative to, so that self, static and parent can
// be rewritten to real FQNs.
type ClassContext struct {
	FQN    string
	Parent string
}

// Resolver resolves FQNs against the workspace index, lazily pulling in
// files reachable through Composer autoloading, and falling back to the
// bundled stub corpus for anything the workspace itself doesn't define.
type Resolver struct {
	idx        *index.Index
	corpus     *stubs.Corpus
	autoload   autoload.Map
	store      *docstore.Store
	phpVersion string
}

// New constructs a Resolver. corpus may be nil (no stub fallback).
func New(idx *index.Index, corpus *stubs.Corpus, am autoload.Map, store *docstore.Store, phpVersion string) *Resolver {
	return &Resolver{idx: idx, corpus: corpus, autoload: am, store: store, phpVersion: phpVersion}
}

// Namespace re-exports symbols.Namespace so callers that already import
// resolver don't also need internal/symbols just to name a lookup
// namespace.
type Namespace = symbols.Namespace

const (
	NamespaceType     = symbols.NamespaceType
	NamespaceFunction = symbols.NamespaceFunction
	NamespaceConstant = symbols.NamespaceConstant
)

// Lookup is resolve_fqn(FQN, kind): resolves fqn within namespace ns,
// checking the workspace index first, then the stub corpus, then lazily
// loading and indexing the autoload-resolved file for fqn (mirroring
// ensureExternalClassLoaded's parse-on-demand-then-cache behavior, except
// the cache is the shared index rather than a per-document map). ns
// disambiguates FQNs that collide across namespaces (a class and a
// function may share an FQN in this language).
func (r *Resolver) Lookup(ctx context.Context, fqn string, ns Namespace) (symbols.Descriptor, bool) {
	fqn = normalizeFQN(fqn)
	if fqn == "" {
		return symbols.Descriptor{}, false
	}
	if d, ok := r.idx.Lookup(fqn, ns); ok {
		return d, true
	}
	if r.corpus != nil {
		if d, ok := r.corpus.Lookup(fqn, ns, r.phpVersion); ok {
			return d, true
		}
	}
	return r.loadFromAutoload(ctx, fqn, ns)
}

func (r *Resolver) loadFromAutoload(ctx context.Context, fqn string, ns Namespace) (symbols.Descriptor, bool) {
	if r.store == nil {
		return symbols.Descriptor{}, false
	}
	containerFQN := fqn
	if i := strings.Index(fqn, "::"); i >= 0 {
		containerFQN = fqn[:i]
	}
	path, ok := r.autoload.Resolve(containerFQN)
	if !ok {
		return symbols.Descriptor{}, false
	}
	doc, err := r.store.Get(ctx, path)
	if err != nil {
		return symbols.Descriptor{}, false
	}
	r.idx.IndexFile(doc.Symbols())
	return r.idx.Lookup(fqn, ns)
}

// ResolveTypeName resolves a single named type (self/static/parent keywords
// rewritten against cc, everything else passed through as-is) to its
// descriptor. Always resolves within the type namespace, since a type
// expression can never name a function or constant.
func (r *Resolver) ResolveTypeName(ctx context.Context, name string, cc ClassContext) (symbols.Descriptor, bool) {
	switch strings.ToLower(name) {
	case "self", "static":
		return r.Lookup(ctx, cc.FQN, NamespaceType)
	case "parent":
		if cc.Parent == "" {
			return symbols.Descriptor{}, false
		}
		return r.Lookup(ctx, cc.Parent, NamespaceType)
	default:
		return r.Lookup(ctx, name, NamespaceType)
	}
}

// ResolveTypeExpr resolves every named leaf of a (possibly union or
// intersection) type expression to its descriptor, skipping leaves that
// can't be resolved.
func (r *Resolver) ResolveTypeExpr(ctx context.Context, te symbols.TypeExpr, cc ClassContext) []symbols.Descriptor {
	var out []symbols.Descriptor
	var walk func(symbols.TypeExpr)
	walk = func(t symbols.TypeExpr) {
		switch t.Kind {
		case symbols.TypeNamed:
			if d, ok := r.ResolveTypeName(ctx, t.Named, cc); ok {
				out = append(out, d)
			}
		case symbols.TypeNullable:
			for _, part := range t.Parts {
				walk(part)
			}
		case symbols.TypeUnion, symbols.TypeIntersection:
			for _, part := range t.Parts {
				walk(part)
			}
		}
	}
	walk(te)
	return out
}

// Ancestors returns fqn's full class/interface ancestry (extends chain
// followed transitively, then each interface's own extends chain),
// resolving and indexing external classes on demand. Cycle-safe.
func (r *Resolver) Ancestors(ctx context.Context, fqn string) []string {
	seen := map[string]struct{}{normalizeFQN(fqn): {}}
	var ordered []string

	var visit func(string)
	visit = func(current string) {
		d, ok := r.Lookup(ctx, current, NamespaceType)
		if !ok {
			return
		}
		for _, base := range append(append([]string{}, d.Extends...), d.Implements...) {
			base = normalizeFQN(base)
			if base == "" {
				continue
			}
			if _, dup := seen[base]; dup {
				continue
			}
			seen[base] = struct{}{}
			ordered = append(ordered, base)
			visit(base)
		}
	}
	visit(normalizeFQN(fqn))
	return ordered
}

// Members returns containerFQN's own members plus every inherited member
// not shadowed by a closer-scoped one of the same name, closest ancestor
// first: own names win over inherited, and inherited-but-not-private stays
// visible through the chain.
func (r *Resolver) Members(ctx context.Context, containerFQN string) []symbols.Descriptor {
	containerFQN = normalizeFQN(containerFQN)
	seenNames := make(map[string]struct{})
	var out []symbols.Descriptor

	addAll := func(members []symbols.Descriptor, inherited bool) {
		for _, m := range members {
			if inherited && m.Visibility == symbols.VisibilityPrivate {
				continue
			}
			if _, dup := seenNames[m.ShortName]; dup {
				continue
			}
			seenNames[m.ShortName] = struct{}{}
			out = append(out, m)
		}
	}

	addAll(r.membersOf(containerFQN), false)
	for _, ancestor := range r.Ancestors(ctx, containerFQN) {
		addAll(r.membersOf(ancestor), true)
	}
	return out
}

// ResolveMember finds name within containerFQN's own members, then walks
// ancestors (closest first) for the first visible match.
func (r *Resolver) ResolveMember(ctx context.Context, containerFQN, name string) (symbols.Descriptor, bool) {
	for _, m := range r.Members(ctx, containerFQN) {
		if m.ShortName == name {
			return m, true
		}
	}
	return symbols.Descriptor{}, false
}

func (r *Resolver) membersOf(containerFQN string) []symbols.Descriptor {
	members := r.idx.Children(containerFQN)
	if r.corpus != nil {
		for _, d := range r.corpus.All(r.phpVersion) {
			if d.ContainerFQN == containerFQN {
				members = append(members, d)
			}
		}
	}
	return members
}

func normalizeFQN(fqn string) string {
	fqn = strings.TrimSpace(fqn)
	fqn = strings.TrimPrefix(fqn, "\\")
	return fqn
}
