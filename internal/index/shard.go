// Package index is the workspace-wide symbol table: a sharded, concurrent
// FQN -> descriptor map, a per-file record of what each file contributed
// (so a re-index can cleanly retract stale entries), and a reverse
// reference map for workspace/references. Sharding keeps concurrent
// readers from blocking each other's shards while many files are indexed
// in parallel during the initial workspace scan.
package index

import (
	"hash/fnv"
	"sync"

	"github.com/go-phpls/phpls/internal/symbols"
)

const shardCount = 32

type shard struct {
	mu   sync.RWMutex
	data map[string]symbols.Descriptor
}

func shardFor(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % shardCount
}

// shardedMap is a fixed-size array of independently-locked maps, keyed by
// FNV hash of the lookup key. It trades a small amount of hashing for
// avoiding one global mutex serializing every file's worth of descriptors
// during a concurrent workspace scan.
type shardedMap struct {
	shards [shardCount]*shard
}

func newShardedMap() *shardedMap {
	m := &shardedMap{}
	for i := range m.shards {
		m.shards[i] = &shard{data: make(map[string]symbols.Descriptor)}
	}
	return m
}

func (m *shardedMap) get(key string) (symbols.Descriptor, bool) {
	s := m.shards[shardFor(key)]
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.data[key]
	return d, ok
}

func (m *shardedMap) set(key string, d symbols.Descriptor) {
	s := m.shards[shardFor(key)]
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = d
}

func (m *shardedMap) delete(key string) {
	s := m.shards[shardFor(key)]
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// forEach calls fn for every entry. fn must not call back into the
// shardedMap; each shard is held under its read lock while iterating.
func (m *shardedMap) forEach(fn func(key string, d symbols.Descriptor)) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.data {
			fn(k, v)
		}
		s.mu.RUnlock()
	}
}

func (m *shardedMap) len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.data)
		s.mu.RUnlock()
	}
	return n
}
