package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/legallink/backend/internal/model/document"
)

// Store is an in-memory vector store using brute-force cosine
// similarity over L2-normalized vectors. Suitable for a corpus of a
// handful of statutes and for tests.
type Store struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	chunks    []document.Chunk
}

func NewStore() *Store { return &Store{} }

func (s *Store) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("memory: invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.vectors = nil
	s.chunks = nil
	return nil
}

func (s *Store) Upsert(_ context.Context, chunks []document.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("memory: chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("memory: vector dimension mismatch")
		}
	}
	s.chunks = append(s.chunks, chunks...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

func (s *Store) Search(_ context.Context, vector []float64, topK int) ([]document.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	results := make([]document.SearchResult, 0, len(s.vectors))
	for i := range s.vectors {
		results = append(results, document.SearchResult{
			Chunk: s.chunks[i],
			Score: dot(s.vectors[i], vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	s.chunks = nil
	return nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
