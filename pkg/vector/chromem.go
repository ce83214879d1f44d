package vector

import (
	"context"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

// ChromemStore backs Store with an in-process chromem-go database —
// the "real embedding path" drop-in for MemoryStore, kept behind the
// same interface so the Brain Retriever is indifferent to which one
// is configured.
type ChromemStore struct {
	db *chromem.DB

	mu          sync.Mutex
	collections map[string]*chromem.Collection
}

// NewChromemStore builds a ChromemStore backed by an in-memory
// chromem-go database. Vectors are supplied pre-computed by a
// Surrogate, so the collection's embedding function is never invoked.
func NewChromemStore() *ChromemStore {
	return &ChromemStore{
		db:          chromem.NewDB(),
		collections: make(map[string]*chromem.Collection),
	}
}

func identityEmbed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("vector: embedding function invoked but vectors are always pre-computed")
}

func (s *ChromemStore) collection(name string) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if col, ok := s.collections[name]; ok {
		return col, nil
	}
	col, err := s.db.GetOrCreateCollection(name, nil, identityEmbed)
	if err != nil {
		return nil, fmt.Errorf("vector: get/create collection %q: %w", name, err)
	}
	s.collections[name] = col
	return col, nil
}

func (s *ChromemStore) Upsert(ctx context.Context, collection, id string, v []float64, metadata map[string]string) error {
	col, err := s.collection(collection)
	if err != nil {
		return err
	}

	doc := chromem.Document{
		ID:        id,
		Metadata:  metadata,
		Embedding: toFloat32(v),
	}
	if err := col.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("vector: upsert %q: %w", id, err)
	}
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, collection string, v []float64, topK int, filter map[string]string) ([]Match, error) {
	col, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	n := col.Count()
	if n == 0 {
		return nil, nil
	}
	if topK <= 0 || topK > n {
		topK = n
	}

	results, err := col.QueryEmbedding(ctx, toFloat32(v), topK, filter, nil)
	if err != nil {
		return nil, fmt.Errorf("vector: query: %w", err)
	}

	out := make([]Match, 0, len(results))
	for _, r := range results {
		out = append(out, Match{ID: r.ID, Score: float64(r.Similarity), Metadata: r.Metadata})
	}
	return out, nil
}

func (s *ChromemStore) Delete(ctx context.Context, collection, id string) error {
	col, err := s.collection(collection)
	if err != nil {
		return err
	}
	if err := col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("vector: delete %q: %w", id, err)
	}
	return nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
