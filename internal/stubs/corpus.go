// Package stubs loads the bundled, read-only corpus of declaration-only PHP
// (the engine's built-in classes/functions/constants and any extension
// stubs shipped with the server) and exposes it as a version-gated symbol
// source. Each file in the corpus is parsed once and its descriptors
// cached by FQN and never re-parsed, since stub content never changes at
// runtime.
package stubs

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/blang/semver/v4"

	"github.com/go-phpls/phpls/internal/cst"
	"github.com/go-phpls/phpls/internal/symbols"
)

// Availability gates a stub symbol to the PHP versions it exists in. A zero
// Availability (both bounds unset) means "always available".
type Availability struct {
	Since *semver.Version
	Until *semver.Version
}

// Matches reports whether v falls within [Since, Until).
func (a Availability) Matches(v semver.Version) bool {
	if a.Since != nil && v.LT(*a.Since) {
		return false
	}
	if a.Until != nil && !v.LT(*a.Until) {
		return false
	}
	return true
}

// manifestEntry is the optional sidecar describing one stub file's
// availability window, read from "<file>.manifest.json" next to it.
type manifestEntry struct {
	Since     string `json:"since"`
	Until     string `json:"until"`
	Extension string `json:"extension"`
}

// Entry pairs a descriptor with its gating metadata.
type Entry struct {
	Descriptor   symbols.Descriptor
	Availability Availability
	Extension    string
}

// Corpus is the parsed, version-gated stub index. Like internal/index it
// keeps independent maps for the three FQN-keyed primary namespaces (a
// stub class and a stub function could in principle share an FQN) plus a
// combined map for members, reached container-qualified. It is immutable
// after Load and safe for concurrent reads.
type Corpus struct {
	byType     map[string]Entry
	byFunction map[string]Entry
	byConstant map[string]Entry
	byMember   map[string]Entry
}

func (c *Corpus) mapFor(ns symbols.Namespace) map[string]Entry {
	switch ns {
	case symbols.NamespaceFunction:
		return c.byFunction
	case symbols.NamespaceConstant:
		return c.byConstant
	default:
		return c.byType
	}
}

func (c *Corpus) mapForKind(kind symbols.Kind) map[string]Entry {
	if ns, ok := symbols.NamespaceOf(kind); ok {
		return c.mapFor(ns)
	}
	return c.byMember
}

// Load parses every *.php file under root (recursively) using the same
// tree-sitter pipeline as user documents, marking every resulting
// descriptor ModDefaultLibrary, and attaches availability metadata from any
// "<name>.manifest.json" sidecar found beside a stub file.
func Load(ctx context.Context, root string) (*Corpus, error) {
	c := &Corpus{
		byType:     make(map[string]Entry),
		byFunction: make(map[string]Entry),
		byConstant: make(map[string]Entry),
		byMember:   make(map[string]Entry),
	}
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("stubs: stat %s: %w", root, err)
	}

	parser := cst.NewParser()
	defer parser.Close()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".php") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("stubs: read %s: %w", path, err)
		}
		tree, err := parser.Parse(ctx, content)
		if err != nil {
			return fmt.Errorf("stubs: parse %s: %w", path, err)
		}
		defer tree.Close()

		avail, extension := readManifest(path)
		uri := "stub://" + filepath.ToSlash(strings.TrimPrefix(path, root))
		fs := symbols.Extract(uri, tree, content)
		for _, d := range fs.Symbols {
			d.Modifiers |= symbols.ModDefaultLibrary
			c.mapForKind(d.Kind)[d.FQN] = Entry{Descriptor: d, Availability: avail, Extension: extension}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func readManifest(stubPath string) (Availability, string) {
	data, err := os.ReadFile(stubPath + ".manifest.json")
	if err != nil {
		return Availability{}, ""
	}
	var m manifestEntry
	if err := json.Unmarshal(data, &m); err != nil {
		return Availability{}, ""
	}
	var avail Availability
	if m.Since != "" {
		if v, err := semver.ParseTolerant(m.Since); err == nil {
			avail.Since = &v
		}
	}
	if m.Until != "" {
		if v, err := semver.ParseTolerant(m.Until); err == nil {
			avail.Until = &v
		}
	}
	return avail, m.Extension
}

// Lookup is the stub side of resolve_fqn(FQN, kind): returns the stub
// descriptor for fqn within namespace ns, gated by phpVersion. An empty
// phpVersion disables gating: every stub symbol is considered available,
// matching the initialize-time default when the client never sent
// `phpVersion` in its initializationOptions.
func (c *Corpus) Lookup(fqn string, ns symbols.Namespace, phpVersion string) (symbols.Descriptor, bool) {
	entry, ok := c.mapFor(ns)[strings.TrimPrefix(fqn, "\\")]
	if !ok {
		return symbols.Descriptor{}, false
	}
	return gate(entry, phpVersion)
}

// LookupMember returns a stub method/property/class-constant/enum-case by
// its container-qualified FQN (e.g. "ArrayObject::offsetGet").
func (c *Corpus) LookupMember(fqn, phpVersion string) (symbols.Descriptor, bool) {
	entry, ok := c.byMember[strings.TrimPrefix(fqn, "\\")]
	if !ok {
		return symbols.Descriptor{}, false
	}
	return gate(entry, phpVersion)
}

func gate(entry Entry, phpVersion string) (symbols.Descriptor, bool) {
	if phpVersion == "" {
		return entry.Descriptor, true
	}
	v, err := semver.ParseTolerant(phpVersion)
	if err != nil {
		return entry.Descriptor, true
	}
	if !entry.Availability.Matches(v) {
		return symbols.Descriptor{}, false
	}
	return entry.Descriptor, true
}

// All returns every stub descriptor available under phpVersion, across all
// four backing maps. The resolver scans it when listing a container's
// members.
func (c *Corpus) All(phpVersion string) []symbols.Descriptor {
	var v semver.Version
	gated := false
	if phpVersion != "" {
		if parsed, err := semver.ParseTolerant(phpVersion); err == nil {
			v, gated = parsed, true
		}
	}
	out := make([]symbols.Descriptor, 0, c.Len())
	collect := func(m map[string]Entry) {
		for _, e := range m {
			if gated && !e.Availability.Matches(v) {
				continue
			}
			out = append(out, e.Descriptor)
		}
	}
	collect(c.byType)
	collect(c.byFunction)
	collect(c.byConstant)
	collect(c.byMember)
	return out
}

// Len reports how many stub symbols were loaded, for diagnostics/logging.
func (c *Corpus) Len() int {
	return len(c.byType) + len(c.byFunction) + len(c.byConstant) + len(c.byMember)
}
