package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/legallink/backend/internal/model/document"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	store := NewStore(Config{URL: srv.URL, APIKey: "secret", Collection: "legal_test"})
	return srv, store
}

func TestInitCreatesCollection(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	_, store := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		gotKey = r.Header.Get("api-key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"result":true,"status":"ok"}`))
	})

	if err := store.Init(context.Background(), 1536); err != nil {
		t.Fatalf("Init err: %v", err)
	}
	if gotPath != "PUT /collections/legal_test" {
		t.Fatalf("unexpected request: %s", gotPath)
	}
	if gotKey != "secret" {
		t.Fatalf("api key header missing, got %q", gotKey)
	}
	vectors, _ := gotBody["vectors"].(map[string]any)
	if vectors["size"] != float64(1536) || vectors["distance"] != "Cosine" {
		t.Fatalf("unexpected schema: %+v", gotBody)
	}
}

func TestInitRejectsInvalidDimension(t *testing.T) {
	store := NewStore(Config{URL: "http://unused"})
	if err := store.Init(context.Background(), 0); err == nil {
		t.Fatal("expected error for zero dimension")
	}
}

func TestUpsertSendsPayloadPoints(t *testing.T) {
	var gotBody struct {
		Points []struct {
			ID      uint64         `json:"id"`
			Vector  []float64      `json:"vector"`
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	}
	_, store := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/legal_test/points" || r.URL.Query().Get("wait") != "true" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.String())
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"status":"ok"}`))
	})

	chunks := []document.Chunk{{DocumentID: "uu-40-2007", ChunkID: "uu-40-2007:0", Index: 0, Article: "1", Text: "Pasal 1"}}
	if err := store.Upsert(context.Background(), chunks, [][]float64{{0.1, 0.2}}); err != nil {
		t.Fatalf("Upsert err: %v", err)
	}
	if len(gotBody.Points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(gotBody.Points))
	}
	p := gotBody.Points[0]
	if p.ID != pointID(chunks[0]) {
		t.Fatalf("point id mismatch: %d", p.ID)
	}
	if p.Payload["chunk_id"] != "uu-40-2007:0" || p.Payload["article"] != "1" {
		t.Fatalf("unexpected payload: %+v", p.Payload)
	}
}

func TestUpsertLengthMismatch(t *testing.T) {
	store := NewStore(Config{URL: "http://unused"})
	err := store.Upsert(context.Background(), []document.Chunk{{ChunkID: "a:0"}}, nil)
	if err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestSearchDecodesResults(t *testing.T) {
	_, store := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/legal_test/points/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		if req["limit"] != float64(2) || req["with_payload"] != true {
			t.Errorf("unexpected search request: %+v", req)
		}
		w.Write([]byte(`{"result":[
			{"score":0.91,"payload":{"document_id":"uu-40-2007","chunk_id":"uu-40-2007:0","index":0,"article":"1","text":"Pasal 1"}},
			{"score":0.55,"payload":{"document_id":"uu-40-2007","chunk_id":"uu-40-2007:3","index":3,"text":"lampiran"}}
		]}`))
	})

	results, err := store.Search(context.Background(), []float64{0.1, 0.2}, 2)
	if err != nil {
		t.Fatalf("Search err: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	first := results[0]
	if first.Score != 0.91 || first.Chunk.Article != "1" || first.Chunk.Text != "Pasal 1" {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if results[1].Chunk.Index != 3 || results[1].Chunk.Article != "" {
		t.Fatalf("unexpected second result: %+v", results[1])
	}
}

func TestErrorStatusSurfaces(t *testing.T) {
	_, store := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	if err := store.Init(context.Background(), 8); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestPointIDStable(t *testing.T) {
	a := pointID(document.Chunk{ChunkID: "uu-40-2007:0"})
	b := pointID(document.Chunk{ChunkID: "uu-40-2007:0"})
	c := pointID(document.Chunk{ChunkID: "uu-40-2007:1"})
	if a != b {
		t.Fatal("point id must be stable")
	}
	if a == c {
		t.Fatal("distinct chunks must not collide on adjacent ids")
	}
}
