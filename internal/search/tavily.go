package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"claimcheck/internal/model"
)

// TavilyProvider queries the Tavily search API, the highest-quality
// provider in the chain (and the most quota-constrained).
type TavilyProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	maxResults int
	domains    []string // Optional allowlist of preferred domains
}

type tavilyRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		Content string  `json:"content"`
		URL     string  `json:"url"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// NewTavilyProvider creates a new Tavily provider
func NewTavilyProvider(apiKey string, httpClient *http.Client, maxResults int, domains []string) *TavilyProvider {
	return &TavilyProvider{
		apiKey:     apiKey,
		baseURL:    "https://api.tavily.com",
		httpClient: httpClient,
		maxResults: maxResults,
		domains:    domains,
	}
}

// Name returns the provider name
func (p *TavilyProvider) Name() string {
	return "tavily"
}

// Query performs one Tavily search
func (p *TavilyProvider) Query(ctx context.Context, query string) ([]model.SearchResult, error) {
	reqBody := tavilyRequest{
		APIKey:         p.apiKey,
		Query:          query,
		MaxResults:     p.maxResults,
		IncludeDomains: p.domains,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tavily: %v: %w", err, ErrTransient)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("tavily read response: %v: %w", err, ErrTransient)
	}

	if httpResp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("tavily (%d): %w", httpResp.StatusCode, ErrRateLimited)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily (%d): %s: %w", httpResp.StatusCode, string(respBody), ErrTransient)
	}

	var resp tavilyResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("tavily unmarshal: %v: %w", err, ErrTransient)
	}

	results := make([]model.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, model.SearchResult{
			Title:   r.Title,
			Snippet: r.Content,
			URL:     r.URL,
		})
	}
	return results, nil
}
