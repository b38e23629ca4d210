package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr: %q", cfg.Server.Addr)
	}
	if cfg.Retrieval.Mode != "chain" || cfg.Retrieval.MaxHops != 4 || cfg.Retrieval.TopK != 3 {
		t.Fatalf("unexpected retrieval defaults: %+v", cfg.Retrieval)
	}
	if cfg.Retrieval.Language != "id" {
		t.Fatalf("unexpected default language: %q", cfg.Retrieval.Language)
	}
	if cfg.Retrieval.CallTimeout != 60*time.Second {
		t.Fatalf("unexpected default timeout: %v", cfg.Retrieval.CallTimeout)
	}
	if cfg.History.Backend != "memory" || cfg.VectorStore.Backend != "memory" {
		t.Fatalf("unexpected backend defaults: history=%q vectors=%q", cfg.History.Backend, cfg.VectorStore.Backend)
	}
	if cfg.Ingest.DocsDir != "./documents" || cfg.Ingest.BatchSize != 16 {
		t.Fatalf("unexpected ingest defaults: %+v", cfg.Ingest)
	}
}

func TestLoadServerAddrForms(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9000")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr: %q", cfg.Server.Addr)
	}

	t.Setenv("PORT", "9000")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Fatalf("unexpected addr: %q", cfg.Server.Addr)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("RAG_MODE", "graph")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid RAG_MODE")
	}
	t.Setenv("RAG_MODE", "agent")

	t.Setenv("RAG_MAX_HOPS", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for RAG_MAX_HOPS=0")
	}
	t.Setenv("RAG_MAX_HOPS", "6")

	t.Setenv("HISTORY_BACKEND", "postgres")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid HISTORY_BACKEND")
	}
	t.Setenv("HISTORY_BACKEND", "redis")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Retrieval.Mode != "agent" || cfg.Retrieval.MaxHops != 6 || cfg.History.Backend != "redis" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}
