package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/legallink/backend/internal/metrics"
	"github.com/legallink/backend/internal/model/document"
)

// ToolName is the retrieval tool offered to the model during DECIDE.
const ToolName = "retrieve_legal_documents"

type retrieveArgs struct {
	Query string `json:"query"`
}

// searcher is the slice of the retriever the tool needs.
type searcher interface {
	Search(ctx context.Context, query string) ([]document.SearchResult, error)
}

// RetrieveTool exposes similarity search as an eino invokable tool.
// Retrieve returns both the serialized text shown to the model and the
// structured chunk artifacts kept for citation display.
type RetrieveTool struct {
	searcher searcher
}

func NewRetrieveTool(s searcher) *RetrieveTool {
	return &RetrieveTool{searcher: s}
}

func (t *RetrieveTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: ToolName,
		Desc: "Temukan dokumen hukum yang relevan dengan query",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "Pertanyaan atau kata kunci pencarian dokumen hukum",
				Required: true,
			},
		}),
	}, nil
}

// InvokableRun satisfies tool.InvokableTool for use inside eino flows;
// it returns only the serialized form.
func (t *RetrieveTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args retrieveArgs
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedToolCall, err)
	}
	serialized, _, err := t.Retrieve(ctx, args.Query)
	return serialized, err
}

// Retrieve runs the similarity search and serializes the hits. An empty
// result set is valid and yields an empty context string.
func (t *RetrieveTool) Retrieve(ctx context.Context, query string) (string, []document.RetrievedChunk, error) {
	if strings.TrimSpace(query) == "" {
		return "", nil, fmt.Errorf("%w: empty query", ErrMalformedToolCall)
	}
	metrics.RetrievalsTotal.Inc()
	results, err := t.searcher.Search(ctx, query)
	if err != nil {
		metrics.RetrievalFailuresTotal.Inc()
		return "", nil, fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err)
	}
	serialized, chunks := serializeResults(results)
	return serialized, chunks, nil
}

// serializeResults renders hits in the Sumber/Pasal/Isi block format the
// answer prompt expects, preserving descending-similarity order.
func serializeResults(results []document.SearchResult) (string, []document.RetrievedChunk) {
	blocks := make([]string, 0, len(results))
	chunks := make([]document.RetrievedChunk, 0, len(results))
	for i, res := range results {
		var b strings.Builder
		fmt.Fprintf(&b, "Sumber: %s\n", res.Chunk.DocumentID)
		if res.Chunk.Article != "" {
			fmt.Fprintf(&b, "Pasal: %s\n", res.Chunk.Article)
		}
		fmt.Fprintf(&b, "Isi: %s", res.Chunk.Text)
		blocks = append(blocks, b.String())
		chunks = append(chunks, document.RetrievedChunk{
			Text:    res.Chunk.Text,
			Source:  res.Chunk.DocumentID,
			Article: res.Chunk.Article,
			Rank:    i + 1,
			Score:   res.Score,
		})
	}
	return strings.Join(blocks, "\n\n"), chunks
}

var _ tool.InvokableTool = (*RetrieveTool)(nil)
