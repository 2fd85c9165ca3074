package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"claimcheck/internal/model"
	"claimcheck/internal/quota"
)

// Response carries one successful search plus which provider served it.
// Provider is set exactly once per orchestrator invocation.
type Response struct {
	Results  []model.SearchResult
	Provider string
}

// Orchestrator tries an ordered list of search providers, consulting the
// shared quota ledger before every external call. It holds no state of
// its own across calls.
type Orchestrator struct {
	providers   []Provider
	byName      map[string]Provider
	acquirer    *quota.Router
	querySuffix string
}

// NewOrchestrator builds the provider chain from configuration. Providers
// whose API key is missing are left out of the chain; DuckDuckGo needs no
// key and is always constructible.
func NewOrchestrator(cfg model.SearchConfig, httpCfg model.HTTPConfig, ledger *quota.Ledger, limiter *quota.Limiter) (*Orchestrator, error) {
	httpClient := newHTTPClient(cfg.Timeout, httpCfg)

	o := &Orchestrator{
		byName:      make(map[string]Provider),
		acquirer:    quota.NewRouter(ledger, limiter),
		querySuffix: cfg.QuerySuffix,
	}

	var order []string
	for _, pc := range cfg.Providers {
		provider, err := buildProvider(pc, cfg, httpClient)
		if err != nil {
			return nil, err
		}
		if provider == nil {
			continue // Not configured (e.g. missing API key)
		}

		ledger.Register(provider.Name(), pc.MonthlyQuota, quota.WindowMonth)
		o.providers = append(o.providers, provider)
		o.byName[provider.Name()] = provider
		order = append(order, provider.Name())
	}

	if len(o.providers) == 0 {
		return nil, fmt.Errorf("no search providers configured")
	}

	o.acquirer.SetPreference("search", order)
	return o, nil
}

// buildProvider constructs one provider by name, pulling API keys from
// config or the environment. Returns nil when the provider needs a key
// that is not set.
func buildProvider(pc model.SearchProviderConfig, cfg model.SearchConfig, httpClient *http.Client) (Provider, error) {
	switch strings.ToLower(pc.Name) {
	case "tavily":
		key := pc.APIKey
		if key == "" {
			key = os.Getenv("TAVILY_API_KEY")
		}
		if key == "" {
			return nil, nil
		}
		return NewTavilyProvider(key, httpClient, cfg.MaxResults, nil), nil

	case "brave":
		key := pc.APIKey
		if key == "" {
			key = os.Getenv("BRAVE_API_KEY")
		}
		if key == "" {
			return nil, nil
		}
		return NewBraveProvider(key, httpClient, cfg.MaxResults), nil

	case "duckduckgo":
		return NewDuckDuckGoProvider(httpClient, cfg.UserAgent, cfg.MaxResults), nil

	default:
		return nil, fmt.Errorf("unknown search provider: %s (supported: tavily, brave, duckduckgo)", pc.Name)
	}
}

// Search walks the provider chain in priority order. Each attempt reserves
// quota first; a transport failure releases the reservation and advances to
// the next provider without retrying the same one, keeping fallback latency
// bounded. The returned error is ErrAllProvidersFailed when the chain is
// fully spent; the results are then empty and explicitly tagged as failed.
func (o *Orchestrator) Search(ctx context.Context, query string) (*Response, error) {
	if o.querySuffix != "" {
		query = query + " " + o.querySuffix
	}

	var tried []string
	for range o.providers {
		res, err := o.acquirer.Acquire(ctx, "search", tried...)
		if err != nil {
			if errors.Is(err, quota.ErrExhausted) {
				break
			}
			return nil, err
		}

		provider := o.byName[res.Capability]
		results, err := provider.Query(ctx, query)
		if err != nil {
			if errors.Is(err, ErrRateLimited) {
				// The provider overran the budget our ledger predicted:
				// clamp it until the window resets.
				res.Exhaust()
			} else {
				res.Release()
			}
			tried = append(tried, res.Capability)
			continue
		}

		res.Commit()
		return &Response{
			Results:  results,
			Provider: provider.Name(),
		}, nil
	}

	return &Response{}, ErrAllProvidersFailed
}
