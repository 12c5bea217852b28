package docstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-phpls/phpls/internal/utils"
)

type storedDocument struct {
	path   string
	doc    *Document
	isOpen bool
}

// Store is a bounded cache of Documents, keyed by filesystem path. Open
// documents (registered via RegisterOpen) are never evicted; lazily-loaded
// documents reached through name resolution (Get) are evicted
// oldest-first once the store exceeds its capacity.
type Store struct {
	mu      sync.Mutex
	max     int
	entries []*storedDocument
	index   map[string]*storedDocument
}

// NewStore constructs a Store holding at most max non-open documents
// (max <= 0 defaults to 1000).
func NewStore(max int) *Store {
	if max <= 0 {
		max = 1000
	}
	return &Store{max: max, index: make(map[string]*storedDocument)}
}

// RegisterOpen registers doc as open under path; it will not be evicted
// until Close is called for the same path.
func (s *Store) RegisterOpen(path string, doc *Document) {
	if doc == nil {
		return
	}
	path = normalizePath(path)
	if path == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.index[path]; ok {
		entry.doc = doc
		entry.isOpen = true
		s.moveToEndLocked(entry)
		return
	}
	entry := &storedDocument{path: path, doc: doc, isOpen: true}
	s.entries = append(s.entries, entry)
	s.index[path] = entry
	s.ensureCapacityLocked()
}

// Close marks path as no longer open, making it eligible for eviction.
func (s *Store) Close(path string) {
	path = normalizePath(path)
	if path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.index[path]; ok {
		entry.isOpen = false
	}
}

// Get returns the cached Document for path, parsing and caching it from
// disk on a cache miss.
func (s *Store) Get(ctx context.Context, path string) (*Document, error) {
	path = normalizePath(path)
	if path == "" {
		return nil, fmt.Errorf("docstore: empty path")
	}

	s.mu.Lock()
	if entry, ok := s.index[path]; ok && entry.doc != nil {
		s.moveToEndLocked(entry)
		s.mu.Unlock()
		return entry.doc, nil
	}
	s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("docstore: read %s: %w", path, err)
	}
	doc, err := NewDocument(ctx, utils.PathToURI(path), data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.index[path]; ok {
		if entry.doc == nil {
			entry.doc = doc
		}
		s.moveToEndLocked(entry)
		return entry.doc, nil
	}
	entry := &storedDocument{path: path, doc: doc}
	s.entries = append(s.entries, entry)
	s.index[path] = entry
	s.ensureCapacityLocked()
	return doc, nil
}

func (s *Store) moveToEndLocked(entry *storedDocument) {
	idx := -1
	for i, e := range s.entries {
		if e == entry {
			idx = i
			break
		}
	}
	if idx < 0 || idx == len(s.entries)-1 {
		return
	}
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	s.entries = append(s.entries, entry)
}

func (s *Store) ensureCapacityLocked() {
	nonOpen := 0
	for _, entry := range s.entries {
		if !entry.isOpen {
			nonOpen++
		}
	}
	for ; nonOpen > s.max; nonOpen-- {
		for i, entry := range s.entries {
			if entry.isOpen {
				continue
			}
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			delete(s.index, entry.path)
			if entry.doc != nil {
				entry.doc.Close()
			}
			break
		}
	}
}

func normalizePath(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}
