package vector

import (
	"context"
	"sort"
	"sync"
)

// Match is one ranked hit from a Store query.
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]string
}

// Store ranks previously-upserted vectors by similarity to a query
// vector, scoped to a named collection (the Brain uses one collection
// per Source kind-independent corpus: "sources").
type Store interface {
	Upsert(ctx context.Context, collection, id string, v []float64, metadata map[string]string) error
	Query(ctx context.Context, collection string, v []float64, topK int, filter map[string]string) ([]Match, error)
	Delete(ctx context.Context, collection, id string) error
}

type memoryEntry struct {
	vector   []float64
	metadata map[string]string
	seq      int
}

// MemoryStore is a brute-force, in-process Store — the default
// backend, requiring no external dependency, adequate for the
// corpus sizes a single-process Brain indexes.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]memoryEntry
	seq         int
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]memoryEntry)}
}

func (s *MemoryStore) Upsert(ctx context.Context, collection, id string, v []float64, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.collections[collection]
	if !ok {
		col = make(map[string]memoryEntry)
		s.collections[collection] = col
	}
	s.seq++
	col[id] = memoryEntry{vector: v, metadata: metadata, seq: s.seq}
	return nil
}

// Query ranks entries by descending cosine similarity. Ties break by
// most-recently-upserted.
func (s *MemoryStore) Query(ctx context.Context, collection string, v []float64, topK int, filter map[string]string) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col := s.collections[collection]
	type scored struct {
		Match
		seq int
	}
	candidates := make([]scored, 0, len(col))
	for id, entry := range col {
		if !matchesFilter(entry.metadata, filter) {
			continue
		}
		candidates = append(candidates, scored{
			Match: Match{ID: id, Score: Cosine(v, entry.vector), Metadata: entry.metadata},
			seq:   entry.seq,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].seq > candidates[j].seq
	})

	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}

	out := make([]Match, len(candidates))
	for i, c := range candidates {
		out[i] = c.Match
	}
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.collections[collection]; ok {
		delete(col, id)
	}
	return nil
}

func matchesFilter(metadata, filter map[string]string) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}
