package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/legallink/backend/internal/model/document"
)

var (
	// ErrIndexNotReady is returned for queries issued before the index
	// build finished. Callers degrade to an empty retrieval context.
	ErrIndexNotReady = errors.New("vectorstore: index not ready")

	// ErrEmptyQuery rejects blank retrieval queries.
	ErrEmptyQuery = errors.New("vectorstore: empty query")
)

// Store persists chunk vectors and supports similarity search.
type Store interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []document.Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]document.SearchResult, error)
	Clear(ctx context.Context) error
}

// Index owns the embedder/store pair with an explicit lifecycle:
// populate via Build (or AssumeReady for pre-populated durable stores),
// then serve read-only similarity queries. Queries before readiness
// fail with ErrIndexNotReady.
type Index struct {
	store    Store
	embedder embedding.Embedder
	batch    int
	ready    atomic.Bool
}

// NewIndex wires a store to an embedder. batchSize bounds how many
// chunk texts are embedded per upstream call.
func NewIndex(store Store, embedder embedding.Embedder, batchSize int) *Index {
	if batchSize <= 0 {
		batchSize = 32
	}
	return &Index{store: store, embedder: embedder, batch: batchSize}
}

// Ready reports whether the index is serving queries.
func (ix *Index) Ready() bool { return ix.ready.Load() }

// AssumeReady marks a pre-populated durable store as servable without
// re-embedding the corpus.
func (ix *Index) AssumeReady() { ix.ready.Store(true) }

// Build embeds the chunks, initializes the store with the observed
// dimension and upserts everything, then opens the index for queries.
// An empty corpus still yields a ready (empty) index.
func (ix *Index) Build(ctx context.Context, chunks []document.Chunk) error {
	if len(chunks) == 0 {
		ix.ready.Store(true)
		return nil
	}

	vectors := make([][]float64, 0, len(chunks))
	for start := 0; start < len(chunks); start += ix.batch {
		end := start + ix.batch
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-start)
		for _, ch := range chunks[start:end] {
			texts = append(texts, ch.Text)
		}
		batch, err := ix.embedder.EmbedStrings(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunk batch %d: %w", start/ix.batch, err)
		}
		if len(batch) != len(texts) {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}

	if err := ix.store.Init(ctx, len(vectors[0])); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	if err := ix.store.Upsert(ctx, chunks, vectors); err != nil {
		return fmt.Errorf("upsert chunks: %w", err)
	}
	ix.ready.Store(true)
	return nil
}

// Search embeds the query and returns the topK most similar chunks in
// descending similarity order. An empty result is valid.
func (ix *Index) Search(ctx context.Context, query string, topK int) ([]document.SearchResult, error) {
	if !ix.ready.Load() {
		return nil, ErrIndexNotReady
	}
	if query == "" {
		return nil, ErrEmptyQuery
	}
	vecs, err := ix.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vecs))
	}
	return ix.store.Search(ctx, vecs[0], topK)
}
