package ingest

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/legallink/backend/internal/ingestion"
	"github.com/legallink/backend/internal/metrics"
	"github.com/legallink/backend/internal/model/document"
	"github.com/legallink/backend/internal/vectorstore"
)

// Service turns raw statute files into an searchable vector index and
// analyzes one-off uploads without touching the shared index.
type Service struct {
	chunker *ingestion.LegalChunker
	index   *vectorstore.Index
}

func NewService(chunker *ingestion.LegalChunker, index *vectorstore.Index) *Service {
	return &Service{chunker: chunker, index: index}
}

// SkippedDocument records a source file the build left out and why.
type SkippedDocument struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Report summarizes one index build.
type Report struct {
	Documents int               `json:"documents"`
	Chunks    int               `json:"chunks"`
	Skipped   []SkippedDocument `json:"skipped,omitempty"`
	Duration  time.Duration     `json:"-"`
}

// BuildFromDir ingests every supported file under dir and builds the
// index over the combined corpus. A file that fails extraction is
// skipped and reported; it never aborts the build. An empty directory
// yields a valid empty index.
func (s *Service) BuildFromDir(ctx context.Context, dir string) (*Report, error) {
	start := time.Now()
	paths, err := ingestion.ListSourceFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("list source files in %s: %w", dir, err)
	}

	report := &Report{}
	var chunks []document.Chunk
	for _, path := range paths {
		text, err := ingestion.ExtractText(path)
		if err != nil {
			s.skip(report, path, err.Error())
			continue
		}
		if strings.TrimSpace(text) == "" {
			s.skip(report, path, "no extractable text")
			continue
		}
		doc := document.Document{
			ID:      documentID(path),
			Path:    path,
			Title:   filepath.Base(path),
			Content: text,
		}
		docChunks := s.chunker.Chunk(doc)
		chunks = append(chunks, docChunks...)
		report.Documents++
		report.Chunks += len(docChunks)
		metrics.DocumentsIngestedTotal.WithLabelValues("ok").Inc()
	}

	if err := s.index.Build(ctx, chunks); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	report.Duration = time.Since(start)
	log.Printf("[ingest] indexed %d documents (%d chunks, %d skipped) in %s",
		report.Documents, report.Chunks, len(report.Skipped), report.Duration.Round(time.Millisecond))
	return report, nil
}

func (s *Service) skip(report *Report, path, reason string) {
	log.Printf("[ingest] skipping %s: %s", path, reason)
	report.Skipped = append(report.Skipped, SkippedDocument{Path: path, Reason: reason})
	metrics.DocumentsIngestedTotal.WithLabelValues("skipped").Inc()
}

// Analysis describes an uploaded document without indexing it.
type Analysis struct {
	DocumentID string   `json:"documentId"`
	Filename   string   `json:"filename"`
	Characters int      `json:"characters"`
	Chunks     int      `json:"chunks"`
	Articles   []string `json:"articles,omitempty"`
}

// AnalyzeUpload extracts and chunks an uploaded file in isolation,
// reporting its structure. The shared index is not modified.
func (s *Service) AnalyzeUpload(_ context.Context, filename string, data []byte) (*Analysis, error) {
	var text string
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err = ingestion.ExtractTextFromPDFBytes(data)
	case ".txt", ".md":
		text = string(data)
	default:
		err = fmt.Errorf("%w: %s", ingestion.ErrUnsupportedFile, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("analyze %s: no extractable text", filename)
	}

	doc := document.Document{ID: documentID(filename), Title: filename, Content: text}
	chunks := s.chunker.Chunk(doc)

	seen := map[string]bool{}
	var articles []string
	for _, c := range chunks {
		if c.Article != "" && !seen[c.Article] {
			seen[c.Article] = true
			articles = append(articles, c.Article)
		}
	}
	sort.Strings(articles)

	return &Analysis{
		DocumentID: doc.ID,
		Filename:   filename,
		Characters: len(text),
		Chunks:     len(chunks),
		Articles:   articles,
	}, nil
}

// documentID derives a stable identifier from the file name: lowercase
// base name, extension stripped, spaces collapsed to dashes.
func documentID(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ToLower(strings.TrimSpace(base))
	return strings.Join(strings.Fields(base), "-")
}
