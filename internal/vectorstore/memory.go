package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process VectorStore using cosine similarity.
// It backs tests and local runs without a Qdrant server.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]Record)}
}

// Upsert inserts or updates records in the collection.
func (s *MemoryStore) Upsert(ctx context.Context, collection string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	points, ok := s.collections[collection]
	if !ok {
		points = make(map[string]Record)
		s.collections[collection] = points
	}
	for _, r := range records {
		if r.Payload.TenantID == "" {
			return ErrTenantRequired
		}
		if r.ID == "" {
			return fmt.Errorf("record id is required")
		}
		vec := make([]float32, len(r.Vector))
		copy(vec, r.Vector)
		r.Vector = vec
		points[r.ID] = r
	}
	return nil
}

// Search returns the closest tenant records at or above scoreThreshold.
func (s *MemoryStore) Search(ctx context.Context, collection string, query []float32, filter Filter, limit int, scoreThreshold float32) ([]SearchResult, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []SearchResult{}
	for id, r := range s.collections[collection] {
		if !matches(r.Payload, filter) {
			continue
		}
		score := cosine(query, r.Vector)
		if score < scoreThreshold {
			continue
		}
		results = append(results, SearchResult{ID: id, Score: score, Payload: r.Payload})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DeleteByFilter removes every record matching filter.
func (s *MemoryStore) DeleteByFilter(ctx context.Context, collection string, filter Filter) error {
	if err := filter.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range s.collections[collection] {
		if matches(r.Payload, filter) {
			delete(s.collections[collection], id)
		}
	}
	return nil
}

// Count returns the number of records in collection matching filter.
func (s *MemoryStore) Count(collection string, filter Filter) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.collections[collection] {
		if matches(r.Payload, filter) {
			n++
		}
	}
	return n
}

func matches(p Payload, f Filter) bool {
	if p.TenantID != f.TenantID {
		return false
	}
	return f.DocumentID == "" || p.DocumentID == f.DocumentID
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
