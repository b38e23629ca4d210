package document

// Document is a single source statute loaded into the system.
type Document struct {
	ID      string
	Path    string
	Title   string
	Content string
}

// Chunk is a bounded span of a document used as the unit of retrieval.
// Article holds the leading "Pasal N" locator when one is detected.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Index      int
	Article    string
	Text       string
}

// SearchResult is a matching chunk with its similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// RetrievedChunk is the per-turn artifact handed back alongside the
// serialized tool output, for citation display. Never persisted into
// conversation history.
type RetrievedChunk struct {
	Text    string  `json:"text"`
	Source  string  `json:"source"`
	Article string  `json:"article,omitempty"`
	Rank    int     `json:"rank"`
	Score   float64 `json:"score"`
}
