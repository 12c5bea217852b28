// Package workspace drives the background indexing task: once the autoload
// map is known, walk every PSR-4/PSR-0/classmap/files source directory,
// parse each file, and bulk-populate the workspace index, bounded by a
// worker semaphore so indexing parallelism stays capped.
package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/go-phpls/phpls/internal/autoload"
	"github.com/go-phpls/phpls/internal/docstore"
	"github.com/go-phpls/phpls/internal/index"
)

// Progress is called as files complete indexing, done/total monotone,
// feeding $/progress reporting in the dispatcher.
type Progress func(done, total int)

// Scanner bulk-populates idx from every file autoload.Map resolves to,
// using store so the same cached Document is reused if the file is (or
// later becomes) open.
type Scanner struct {
	store       *docstore.Store
	idx         *index.Index
	concurrency int
}

// New constructs a Scanner. concurrency <= 0 defaults to 8.
func New(store *docstore.Store, idx *index.Index, concurrency int) *Scanner {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Scanner{store: store, idx: idx, concurrency: concurrency}
}

// Scan walks am's PSR-4/PSR-0 source directories plus its classmap and
// files lists, parses every discovered .php file, and indexes it.
// includeVendor controls whether paths under a "vendor" directory
// component are scanned at all (the indexVendor initializationOption);
// when false, vendor code is left to the resolver's lazy on-demand path
// (internal/resolver's loadFromAutoload).
func (s *Scanner) Scan(ctx context.Context, root string, am autoload.Map, includeVendor bool, progress Progress) {
	paths := s.discover(root, am, includeVendor)
	total := len(paths)
	if total == 0 {
		return
	}

	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	var done int32Counter

	for _, p := range paths {
		select {
		case <-ctx.Done():
			return
		default:
		}
		p := p
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			doc, err := s.store.Get(ctx, p)
			n := done.inc()
			if progress != nil {
				progress(n, total)
			}
			if err != nil {
				return
			}
			s.idx.IndexFile(doc.Symbols())
		}()
	}
	wg.Wait()
}

func (s *Scanner) discover(root string, am autoload.Map, includeVendor bool) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if !includeVendor && underVendor(p) {
			return
		}
		p = filepath.Clean(p)
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, dirs := range am.PSR4 {
		for _, dir := range dirs {
			for _, f := range globPHP(dir) {
				add(f)
			}
		}
	}
	for _, dirs := range am.PSR0 {
		for _, dir := range dirs {
			for _, f := range globPHP(dir) {
				add(f)
			}
		}
	}
	for _, f := range am.ClassmapFiles {
		add(f)
	}
	for _, f := range am.Files {
		add(f)
	}

	sort.Strings(out)
	return out
}

func globPHP(dir string) []string {
	info, err := os.Stat(dir)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		if strings.HasSuffix(dir, ".php") {
			return []string{dir}
		}
		return nil
	}
	matches, err := doublestar.Glob(os.DirFS(dir), "**/*.php")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(dir, m))
	}
	return out
}

func underVendor(p string) bool {
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part == "vendor" {
			return true
		}
	}
	return false
}

// int32Counter is a tiny mutex-guarded counter; sync/atomic would do too,
// but this keeps the dependency surface to what's already imported.
type int32Counter struct {
	mu sync.Mutex
	n  int
}

func (c *int32Counter) inc() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}
