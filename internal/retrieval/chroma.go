package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"claimcheck/internal/model"
)

// ChromaStore queries per-domain Chroma collections over the v2 REST API.
// Collections are named <prefix>_<domain> and resolved lazily on first
// use. A domain without a collection retrieves nothing rather than
// failing the pipeline.
type ChromaStore struct {
	baseURL  string
	tenant   string
	database string
	prefix   string

	httpClient *http.Client
	embedder   EmbeddingsProvider

	mu          sync.Mutex
	collections map[model.Domain]string
}

// chromaQueryResults mirrors the Chroma query response shape. The outer
// slices are per query embedding; we always send exactly one.
type chromaQueryResults struct {
	IDs       [][]string  `json:"ids"`
	Distances [][]float32 `json:"distances"`
	Documents [][]string  `json:"documents"`
}

// NewChromaStore creates a Chroma-backed retrieval store
func NewChromaStore(cfg model.RetrievalConfig) (*ChromaStore, error) {
	embedder, err := newEmbeddingsProvider(cfg.EmbeddingModel)
	if err != nil {
		return nil, err
	}

	prefix := cfg.CollectionPrefix
	if prefix == "" {
		prefix = "claims"
	}

	return &ChromaStore{
		baseURL:     fmt.Sprintf("http://%s:%d/api/v2", cfg.ChromaHost, cfg.ChromaPort),
		tenant:      "default_tenant",
		database:    "default_database",
		prefix:      prefix,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		embedder:    embedder,
		collections: make(map[model.Domain]string),
	}, nil
}

// Query embeds the claim text and runs a similarity search against the
// domain's collection. Scores are converted from Chroma distances so that
// higher means closer.
func (s *ChromaStore) Query(ctx context.Context, domain model.Domain, text string, topK int) ([]model.RetrievedDocument, error) {
	collectionID, err := s.resolveCollection(ctx, domain)
	if err != nil {
		return nil, err
	}
	if collectionID == "" {
		return nil, nil
	}

	embedding, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	if topK <= 0 {
		topK = 5
	}
	payload := map[string]any{
		"query_embeddings": [][]float32{embedding},
		"n_results":        topK,
		"include":          []string{"documents", "distances"},
	}

	var results chromaQueryResults
	if err := s.post(ctx, s.collectionURL(collectionID)+"/query", payload, &results); err != nil {
		return nil, fmt.Errorf("query collection %s_%s: %w", s.prefix, domain, err)
	}

	if len(results.Documents) == 0 {
		return nil, nil
	}

	docs := make([]model.RetrievedDocument, 0, len(results.Documents[0]))
	for i, content := range results.Documents[0] {
		doc := model.RetrievedDocument{Text: content}
		if len(results.Distances) > 0 && i < len(results.Distances[0]) {
			doc.Score = float64(1 - results.Distances[0][i])
		}
		if len(results.IDs) > 0 && i < len(results.IDs[0]) {
			doc.SourceID = results.IDs[0][i]
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// resolveCollection looks up the domain's collection ID, caching the
// result. A 404 means the domain has no corpus; that maps to "" and an
// empty retrieval, not an error.
func (s *ChromaStore) resolveCollection(ctx context.Context, domain model.Domain) (string, error) {
	s.mu.Lock()
	id, ok := s.collections[domain]
	s.mu.Unlock()
	if ok {
		return id, nil
	}

	name := fmt.Sprintf("%s_%s", s.prefix, domain)
	url := fmt.Sprintf("%s/tenants/%s/databases/%s/collections/%s", s.baseURL, s.tenant, s.database, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve collection %s: %w", name, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var result struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return "", fmt.Errorf("decode collection %s: %w", name, err)
		}
		s.mu.Lock()
		s.collections[domain] = result.ID
		s.mu.Unlock()
		return result.ID, nil

	case http.StatusNotFound:
		s.mu.Lock()
		s.collections[domain] = ""
		s.mu.Unlock()
		return "", nil

	default:
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("resolve collection %s (status %d): %s", name, resp.StatusCode, string(body))
	}
}

// collectionURL returns the base URL for one collection's operations
func (s *ChromaStore) collectionURL(collectionID string) string {
	return fmt.Sprintf("%s/tenants/%s/databases/%s/collections/%s", s.baseURL, s.tenant, s.database, collectionID)
}

// post sends a JSON payload and decodes a JSON response
func (s *ChromaStore) post(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
