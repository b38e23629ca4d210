package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/legallink/backend/internal/config"
	"github.com/legallink/backend/internal/ingestion"
	"github.com/legallink/backend/internal/service/ingest"
	"github.com/legallink/backend/internal/vectorstore"
	"github.com/legallink/backend/internal/vectorstore/memory"
	"github.com/legallink/backend/internal/vectorstore/qdrant"
)

// Bulk indexer: chunks and embeds a statute corpus into the configured
// vector store, then exits. Point the API server at the same store with
// INGEST_ON_START=false to serve the result.
func main() {
	dir := flag.String("dir", "", "documents directory (overrides DOCS_DIR)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	docsDir := cfg.Ingest.DocsDir
	if *dir != "" {
		docsDir = *dir
	}

	embedder, err := cfg.AI.NewEmbedder(ctx)
	if err != nil {
		log.Fatalf("failed to initialize embedder: %v", err)
	}

	var store vectorstore.Store
	switch cfg.VectorStore.Backend {
	case "qdrant":
		store = qdrant.NewStore(qdrant.Config{
			URL:        cfg.VectorStore.QdrantURL,
			APIKey:     cfg.VectorStore.QdrantAPIKey,
			Collection: cfg.VectorStore.QdrantCollection,
			Timeout:    cfg.VectorStore.QdrantTimeout,
		})
	default:
		store = memory.NewStore()
		log.Println("warning: in-memory vector store selected, the index is discarded on exit")
	}

	index := vectorstore.NewIndex(store, embedder, cfg.Ingest.BatchSize)
	chunker := ingestion.NewLegalChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)

	report, err := ingest.NewService(chunker, index).BuildFromDir(ctx, docsDir)
	if err != nil {
		log.Fatalf("index build failed: %v", err)
	}

	log.Printf("done: %d documents, %d chunks, %d skipped", report.Documents, report.Chunks, len(report.Skipped))
	for _, s := range report.Skipped {
		log.Printf("skipped %s: %s", s.Path, s.Reason)
	}
}
