package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/legallink/backend/internal/config"
	"github.com/legallink/backend/internal/handler"
	"github.com/legallink/backend/internal/ingestion"
	"github.com/legallink/backend/internal/service/history"
	"github.com/legallink/backend/internal/service/ingest"
	"github.com/legallink/backend/internal/service/rag"
	"github.com/legallink/backend/internal/vectorstore"
	"github.com/legallink/backend/internal/vectorstore/memory"
	"github.com/legallink/backend/internal/vectorstore/qdrant"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		log.Fatalf("failed to initialize chat model: %v", err)
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
		log.Printf("using qdrant vector store at %s (collection %s)", cfg.VectorStore.QdrantURL, cfg.VectorStore.QdrantCollection)
	default:
		store = memory.NewStore()
		log.Println("using in-memory vector store")
	}

	index := vectorstore.NewIndex(store, embedder, cfg.Ingest.BatchSize)
	chunker := ingestion.NewLegalChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	ingestSvc := ingest.NewService(chunker, index)

	if cfg.Ingest.BuildOnStart {
		// The index builds in the background; /health reports readiness
		// and turns degrade to a no-basis answer until it is up.
		go func() {
			if _, err := ingestSvc.BuildFromDir(ctx, cfg.Ingest.DocsDir); err != nil {
				log.Printf("index build failed: %v", err)
			}
		}()
	} else {
		index.AssumeReady()
		log.Println("INGEST_ON_START disabled, serving existing collection")
	}

	historyStore, err := newHistoryStore(ctx, cfg.History)
	if err != nil {
		log.Fatalf("failed to initialize history store: %v", err)
	}

	retriever := rag.NewDocumentRetriever(index, cfg.Retrieval.TopK)
	tool := rag.NewRetrieveTool(retriever)

	ctrl, err := rag.NewController(ctx, chatModel, tool, historyStore, rag.Config{
		Mode:        rag.Mode(cfg.Retrieval.Mode),
		MaxHops:     cfg.Retrieval.MaxHops,
		Language:    rag.Language(cfg.Retrieval.Language),
		CallTimeout: cfg.Retrieval.CallTimeout,
	})
	if err != nil {
		log.Fatalf("failed to initialize conversation controller: %v", err)
	}
	log.Printf("conversation controller ready (mode=%s, topK=%d)", cfg.Retrieval.Mode, cfg.Retrieval.TopK)

	router := handler.NewRouter(ctrl, historyStore, ingestSvc, index.Ready)

	startServer(ctx, cfg.Server, router)
}

func newHistoryStore(ctx context.Context, cfg config.HistoryConfig) (history.Store, error) {
	if cfg.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		log.Printf("using redis history store at %s", cfg.RedisAddr)
		return history.NewRedisStore(ctx, client, cfg.TTL)
	}
	log.Println("using in-memory history store")
	return history.NewMemoryStore(), nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("LegalLink backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
