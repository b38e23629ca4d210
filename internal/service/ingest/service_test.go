package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/legallink/backend/internal/ingestion"
	"github.com/legallink/backend/internal/vectorstore"
	"github.com/legallink/backend/internal/vectorstore/memory"
)

// flatEmbedder returns a fixed-direction vector scaled by text length;
// deterministic and good enough for build plumbing tests.
type flatEmbedder struct{}

func (flatEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t)), 1, 0}
	}
	return out, nil
}

func newTestService() (*Service, *vectorstore.Index) {
	index := vectorstore.NewIndex(memory.NewStore(), flatEmbedder{}, 16)
	return NewService(ingestion.NewLegalChunker(0, 0), index), index
}

func TestBuildFromDirSkipsAndContinues(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("UU 40 2007.txt", "Pasal 1: Perseroan Terbatas adalah badan hukum.")
	write("catatan.md", "Bagian Kesatu berisi ketentuan umum.")
	write("kosong.txt", "   \n\t")
	write("abaikan.json", `{"bukan": "dokumen"}`)

	svc, index := newTestService()
	report, err := svc.BuildFromDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("BuildFromDir err: %v", err)
	}

	if report.Documents != 2 {
		t.Fatalf("expected 2 documents, got %d", report.Documents)
	}
	if report.Chunks != 2 {
		t.Fatalf("expected 2 chunks, got %d", report.Chunks)
	}
	if len(report.Skipped) != 1 || report.Skipped[0].Reason != "no extractable text" {
		t.Fatalf("unexpected skip list: %+v", report.Skipped)
	}
	if !index.Ready() {
		t.Fatal("index must be ready after a successful build")
	}
}

func TestBuildFromEmptyDirYieldsReadyEmptyIndex(t *testing.T) {
	svc, index := newTestService()
	report, err := svc.BuildFromDir(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("BuildFromDir err: %v", err)
	}
	if report.Documents != 0 || report.Chunks != 0 {
		t.Fatalf("unexpected report for empty corpus: %+v", report)
	}
	if !index.Ready() {
		t.Fatal("empty corpus must still produce a serving index")
	}
}

func TestAnalyzeUploadReportsStructure(t *testing.T) {
	svc, _ := newTestService()
	content := "Pasal 1: Definisi.\n\nPasal 2: Ruang lingkup."

	analysis, err := svc.AnalyzeUpload(context.Background(), "UU Contoh.txt", []byte(content))
	if err != nil {
		t.Fatalf("AnalyzeUpload err: %v", err)
	}
	if analysis.DocumentID != "uu-contoh" {
		t.Fatalf("unexpected document id: %q", analysis.DocumentID)
	}
	if analysis.Characters != len(content) || analysis.Chunks == 0 {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}
	if len(analysis.Articles) == 0 || analysis.Articles[0] != "1" {
		t.Fatalf("expected article 1 to be detected, got %v", analysis.Articles)
	}
}

func TestAnalyzeUploadRejectsUnsupportedType(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.AnalyzeUpload(context.Background(), "foto.png", []byte("x")); !errors.Is(err, ingestion.ErrUnsupportedFile) {
		t.Fatalf("expected ErrUnsupportedFile, got %v", err)
	}
}

func TestDocumentID(t *testing.T) {
	cases := map[string]string{
		"/data/UU 40 Tahun 2007.pdf": "uu-40-tahun-2007",
		"perda.txt":                  "perda",
		"  KUHP  .md":                "kuhp",
	}
	for in, want := range cases {
		if got := documentID(in); got != want {
			t.Fatalf("documentID(%q) = %q, want %q", in, got, want)
		}
	}
}
