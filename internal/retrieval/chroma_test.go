package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"claimcheck/internal/model"
)

type fakeEmbedder struct {
	vector []float32
	calls  int
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return f.vector, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake" }

func newTestStore(baseURL string, embedder EmbeddingsProvider) *ChromaStore {
	return &ChromaStore{
		baseURL:     baseURL + "/api/v2",
		tenant:      "default_tenant",
		database:    "default_database",
		prefix:      "claims",
		httpClient:  http.DefaultClient,
		embedder:    embedder,
		collections: make(map[model.Domain]string),
	}
}

func TestChromaStore_Query(t *testing.T) {
	var resolves, queries int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/tenants/default_tenant/databases/default_database/collections/claims_economics":
			resolves++
			_, _ = w.Write([]byte(`{"id":"col-123"}`))
		case "/api/v2/tenants/default_tenant/databases/default_database/collections/col-123/query":
			queries++
			var payload struct {
				QueryEmbeddings [][]float32 `json:"query_embeddings"`
				NResults        int         `json:"n_results"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decode query payload: %v", err)
			}
			if len(payload.QueryEmbeddings) != 1 || payload.NResults != 3 {
				t.Errorf("unexpected query payload: %+v", payload)
			}
			_, _ = w.Write([]byte(`{
				"ids":[["doc-1","doc-2"]],
				"distances":[[0.1,0.4]],
				"documents":[["GDP rose 2% in Q2","Inflation held at 3%"]]
			}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2, 0.3}}
	store := newTestStore(server.URL, embedder)

	docs, err := store.Query(context.Background(), model.DomainEconomics, "gdp growth", 3)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].SourceID != "doc-1" || docs[0].Text != "GDP rose 2% in Q2" {
		t.Errorf("unexpected first document: %+v", docs[0])
	}
	if docs[0].Score <= docs[1].Score {
		t.Errorf("closer document must score higher: %v vs %v", docs[0].Score, docs[1].Score)
	}

	// Second query reuses the cached collection ID
	if _, err := store.Query(context.Background(), model.DomainEconomics, "another claim", 3); err != nil {
		t.Fatalf("second query: %v", err)
	}
	if resolves != 1 {
		t.Errorf("collection must be resolved once, got %d resolves", resolves)
	}
	if queries != 2 {
		t.Errorf("expected 2 queries, got %d", queries)
	}
}

func TestChromaStore_MissingCollectionIsEmpty(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.5}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	store := newTestStore(server.URL, embedder)
	docs, err := store.Query(context.Background(), model.DomainHealth, "vaccines", 5)
	if err != nil {
		t.Fatalf("missing collection must not error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no documents, got %d", len(docs))
	}
	if embedder.calls != 0 {
		t.Errorf("no embedding call should happen without a collection, got %d", embedder.calls)
	}
}

func TestChromaStore_ConcurrentResolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/tenants/default_tenant/databases/default_database/collections/claims_politics" {
			_, _ = w.Write([]byte(`{"id":"col-p"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ids":[[]],"distances":[[]],"documents":[[]]}`))
	}))
	defer server.Close()

	store := newTestStore(server.URL, &fakeEmbedder{vector: []float32{1}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Query(context.Background(), model.DomainPolitics, "claim", 2); err != nil {
				t.Errorf("query: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestNoopStore(t *testing.T) {
	docs, err := NoopStore{}.Query(context.Background(), model.DomainPolitics, "anything", 5)
	if err != nil || docs != nil {
		t.Errorf("noop store must return nothing: docs=%v err=%v", docs, err)
	}
}

func TestNew_DisabledReturnsNoop(t *testing.T) {
	store, err := New(model.RetrievalConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := store.(NoopStore); !ok {
		t.Errorf("disabled retrieval must yield NoopStore, got %T", store)
	}
}
