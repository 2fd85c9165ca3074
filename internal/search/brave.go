package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"claimcheck/internal/model"
)

// BraveProvider queries the Brave Search API, the secondary provider
type BraveProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	maxResults int
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
		} `json:"results"`
	} `json:"web"`
}

// NewBraveProvider creates a new Brave Search provider
func NewBraveProvider(apiKey string, httpClient *http.Client, maxResults int) *BraveProvider {
	return &BraveProvider{
		apiKey:     apiKey,
		baseURL:    "https://api.search.brave.com",
		httpClient: httpClient,
		maxResults: maxResults,
	}
}

// Name returns the provider name
func (p *BraveProvider) Name() string {
	return "brave"
}

// Query performs one Brave search
func (p *BraveProvider) Query(ctx context.Context, query string) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(p.maxResults))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/res/v1/web/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Subscription-Token", p.apiKey)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("brave: %v: %w", err, ErrTransient)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("brave read response: %v: %w", err, ErrTransient)
	}

	if httpResp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("brave (%d): %w", httpResp.StatusCode, ErrRateLimited)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave (%d): %s: %w", httpResp.StatusCode, string(respBody), ErrTransient)
	}

	var resp braveResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("brave unmarshal: %v: %w", err, ErrTransient)
	}

	results := make([]model.SearchResult, 0, len(resp.Web.Results))
	for _, r := range resp.Web.Results {
		results = append(results, model.SearchResult{
			Title:   r.Title,
			Snippet: r.Description,
			URL:     r.URL,
		})
	}
	return results, nil
}
