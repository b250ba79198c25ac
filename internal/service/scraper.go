package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/set-night/lexmind/internal/config"
)

const scraperUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// pageFetcher downloads search result pages for the enrichment scrapers.
type pageFetcher struct {
	httpClient *http.Client
	searchURL  string
	cookie     string
}

func newPageFetcher(searchURL, cookie string) pageFetcher {
	return pageFetcher{
		httpClient: &http.Client{Timeout: config.ScraperHTTPTimeout},
		searchURL:  searchURL,
		cookie:     cookie,
	}
}

// searchPage fills the {query} placeholder of the search URL, or appends a
// q parameter when there is none.
func (f pageFetcher) searchPage(query string) (string, error) {
	if f.searchURL == "" {
		return "", errSourceNotConfigured
	}
	if strings.Contains(f.searchURL, "{query}") {
		return strings.ReplaceAll(f.searchURL, "{query}", url.QueryEscape(query)), nil
	}
	u, err := url.Parse(f.searchURL)
	if err != nil {
		return "", fmt.Errorf("parse search url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (f pageFetcher) fetch(ctx context.Context, query string) (*goquery.Document, string, error) {
	pageURL, err := f.searchPage(query)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", scraperUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch search page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("search page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("parse html: %w", err)
	}
	return doc, pageURL, nil
}

// absoluteURL resolves href against base, returning href unchanged on error.
func absoluteURL(base, href string) string {
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
