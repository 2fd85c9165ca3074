package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

// EmbeddingsProvider turns query text into a vector. Chroma's v2 REST API
// expects client-supplied query embeddings, so retrieval cannot run
// without one of these.
type EmbeddingsProvider interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	ModelName() string
}

// newEmbeddingsProvider picks a provider from the environment. Cohere is
// preferred when COHERE_API_KEY is set, then OpenAI via OPENAI_API_KEY.
func newEmbeddingsProvider(preferredModel string) (EmbeddingsProvider, error) {
	if key := os.Getenv("COHERE_API_KEY"); key != "" {
		model := preferredModel
		if model == "" || !strings.HasPrefix(model, "embed-") {
			model = "embed-english-v3.0"
		}
		client := cohereclient.NewClient(cohereclient.WithToken(key))
		return &CohereEmbeddings{client: client, model: model}, nil
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		model := preferredModel
		if model == "" {
			model = "text-embedding-3-small"
		}
		return &OpenAIEmbeddings{apiKey: key, model: model, httpClient: &http.Client{Timeout: 30 * time.Second}}, nil
	}

	return nil, fmt.Errorf("no embeddings provider configured: set COHERE_API_KEY or OPENAI_API_KEY")
}

// CohereEmbeddings embeds queries through the Cohere v2 Embed API
type CohereEmbeddings struct {
	client *cohereclient.Client
	model  string
}

// ModelName returns the embedding model in use
func (c *CohereEmbeddings) ModelName() string { return c.model }

// EmbedQuery embeds a single query string
func (c *CohereEmbeddings) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.V2.Embed(ctx, &cohere.V2EmbedRequest{
		Texts:          []string{text},
		Model:          c.model,
		InputType:      cohere.EmbedInputTypeSearchQuery,
		EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
	})
	if err != nil {
		return nil, fmt.Errorf("cohere embed: %w", err)
	}
	if resp == nil || resp.Embeddings == nil || len(resp.Embeddings.Float) == 0 {
		return nil, fmt.Errorf("cohere embed: empty response")
	}

	vec := resp.Embeddings.Float[0]
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out, nil
}

// OpenAIEmbeddings embeds queries through the OpenAI embeddings endpoint
type OpenAIEmbeddings struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// ModelName returns the embedding model in use
func (o *OpenAIEmbeddings) ModelName() string { return o.model }

// EmbedQuery embeds a single query string
func (o *OpenAIEmbeddings) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	endpoint := o.endpoint
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1/embeddings"
	}

	body, err := json.Marshal(map[string]any{
		"input": []string{text},
		"model": o.model,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai embeddings: status %d", resp.StatusCode)
	}

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings: empty response")
	}
	return parsed.Data[0].Embedding, nil
}
