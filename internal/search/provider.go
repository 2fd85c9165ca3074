package search

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"claimcheck/internal/model"
)

// ErrRateLimited marks a provider rejection due to rate or quota limits
var ErrRateLimited = errors.New("search provider rate limited")

// ErrTransient marks a transport or provider-side search failure
var ErrTransient = errors.New("transient search failure")

// ErrAllProvidersFailed is returned when the whole fallback chain is spent.
// The accompanying result set is empty and explicitly tagged: never an
// ambiguous empty success.
var ErrAllProvidersFailed = errors.New("all search providers failed")

// Provider defines the interface for one web search backend.
// Implementations classify failures as ErrRateLimited or ErrTransient.
type Provider interface {
	// Name returns the provider name, used as its quota capability
	Name() string

	// Query performs one search and returns results ordered by relevance
	Query(ctx context.Context, query string) ([]model.SearchResult, error)
}

// newProxyFunc creates a proxy function based on configuration.
// If no proxy URLs are provided, falls back to environment variables.
func newProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}

// newHTTPClient builds the outbound client shared by the API providers
func newHTTPClient(timeout time.Duration, httpCfg model.HTTPConfig) *http.Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: newProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
		},
	}
}
