package rag

import (
	"context"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"github.com/legallink/backend/internal/model/document"
	"github.com/legallink/backend/internal/vectorstore"
)

// DocumentRetriever adapts the vector index to the eino retriever
// contract so it can also be composed into eino pipelines directly.
type DocumentRetriever struct {
	index *vectorstore.Index
	topK  int
}

func NewDocumentRetriever(index *vectorstore.Index, topK int) *DocumentRetriever {
	if topK <= 0 {
		topK = 3
	}
	return &DocumentRetriever{index: index, topK: topK}
}

// Retrieve returns the topK chunks as scored eino documents with
// source/article metadata.
func (r *DocumentRetriever) Retrieve(ctx context.Context, query string, _ ...retriever.Option) ([]*schema.Document, error) {
	results, err := r.index.Search(ctx, query, r.topK)
	if err != nil {
		return nil, err
	}
	docs := make([]*schema.Document, 0, len(results))
	for _, res := range results {
		doc := &schema.Document{
			ID:      res.Chunk.ChunkID,
			Content: res.Chunk.Text,
			MetaData: map[string]any{
				"source":  res.Chunk.DocumentID,
				"article": res.Chunk.Article,
			},
		}
		docs = append(docs, doc.WithScore(res.Score))
	}
	return docs, nil
}

// Search exposes the raw store results for the retrieval tool; it keeps
// the index read-only and idempotent.
func (r *DocumentRetriever) Search(ctx context.Context, query string) ([]document.SearchResult, error) {
	return r.index.Search(ctx, query, r.topK)
}

var _ retriever.Retriever = (*DocumentRetriever)(nil)
