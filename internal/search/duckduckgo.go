package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"claimcheck/internal/model"
)

// DuckDuckGoProvider scrapes the DuckDuckGo HTML endpoint. It has no quota
// ceiling and sits last in the fallback chain, so the whole chain always
// terminates at a provider that cannot be exhausted.
type DuckDuckGoProvider struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	maxResults int
	robots     *robotsChecker
}

// NewDuckDuckGoProvider creates a new DuckDuckGo provider
func NewDuckDuckGoProvider(httpClient *http.Client, userAgent string, maxResults int) *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		baseURL:    "https://html.duckduckgo.com",
		httpClient: httpClient,
		userAgent:  userAgent,
		maxResults: maxResults,
		robots:     newRobotsChecker(userAgent, 5*time.Second),
	}
}

// Name returns the provider name
func (p *DuckDuckGoProvider) Name() string {
	return "duckduckgo"
}

// Query performs one DuckDuckGo search by scraping the HTML results page
func (p *DuckDuckGoProvider) Query(ctx context.Context, query string) ([]model.SearchResult, error) {
	searchURL := p.baseURL + "/html/?q=" + url.QueryEscape(query)

	allowed, err := p.robots.canFetch(ctx, searchURL)
	if err == nil && !allowed {
		return nil, fmt.Errorf("duckduckgo: blocked by robots.txt: %w", ErrTransient)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", p.userAgent)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: %v: %w", err, ErrTransient)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("duckduckgo (%d): %w", httpResp.StatusCode, ErrRateLimited)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo (%d): %w", httpResp.StatusCode, ErrTransient)
	}

	doc, err := html.Parse(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo parse: %v: %w", err, ErrTransient)
	}

	results := parseDuckDuckGoResults(doc, p.maxResults)
	return results, nil
}

// parseDuckDuckGoResults walks the result page DOM collecting title,
// snippet and target URL from each result block.
func parseDuckDuckGoResults(doc *html.Node, limit int) []model.SearchResult {
	var results []model.SearchResult

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if limit > 0 && len(results) >= limit {
			return
		}

		if n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "result__body") {
			if r, ok := parseResultBlock(n); ok {
				results = append(results, r)
			}
			return
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return results
}

// parseResultBlock extracts one search result from a result__body div
func parseResultBlock(block *html.Node) (model.SearchResult, bool) {
	var result model.SearchResult

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			switch {
			case hasClass(n, "result__a"):
				result.Title = textContent(n)
				result.URL = resolveRedirect(attrValue(n, "href"))
			case hasClass(n, "result__snippet"):
				result.Snippet = textContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(block)

	return result, result.URL != ""
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links
func resolveRedirect(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

// hasClass checks whether a node's class attribute contains the given class
func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attrValue(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

// attrValue returns the value of the named attribute, or ""
func attrValue(n *html.Node, name string) string {
	for _, attr := range n.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

// textContent collects the concatenated text under a node
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
