package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/set-night/lexmind/internal/config"
	"github.com/set-night/lexmind/internal/domain"
)

const noCasesFound = "No relevant legal cases found for this query."

// CaseLawScraper searches a case-law database results page.
type CaseLawScraper struct {
	fetcher pageFetcher
	limit   int
}

func NewCaseLawScraper(searchURL, cookie string) *CaseLawScraper {
	return &CaseLawScraper{
		fetcher: newPageFetcher(searchURL, cookie),
		limit:   config.MaxLookupResults,
	}
}

func (s *CaseLawScraper) Lookup(ctx context.Context, query string) (string, error) {
	cases, err := s.Search(ctx, query)
	if err != nil {
		return "", fmt.Errorf("case law search: %w", err)
	}
	return FormatCases(cases), nil
}

func (s *CaseLawScraper) Search(ctx context.Context, query string) ([]domain.LegalCase, error) {
	doc, pageURL, err := s.fetcher.fetch(ctx, query)
	if err != nil {
		return nil, err
	}
	cases := ParseCases(doc, s.limit)
	for i := range cases {
		cases[i].Link = absoluteURL(pageURL, cases[i].Link)
	}
	return cases, nil
}

// ParseCases reads result blocks; blocks without a title are skipped.
func ParseCases(doc *goquery.Document, limit int) []domain.LegalCase {
	var cases []domain.LegalCase
	seen := make(map[string]bool)

	doc.Find("div.col-md-8, div.col-sm-8, div.col-xs-12").EachWithBreak(func(_ int, block *goquery.Selection) bool {
		anchor := block.Find("a.goto_page").First()
		title := strings.TrimSpace(anchor.Text())
		if title == "" {
			return true
		}
		link, _ := anchor.Attr("href")
		key := title + "\x00" + link
		if seen[key] {
			return true
		}
		seen[key] = true

		cases = append(cases, domain.LegalCase{
			Title:    title,
			Link:     strings.TrimSpace(link),
			Headline: strings.TrimSpace(block.Find("dt.search_result_line").First().Text()),
			Source:   strings.TrimSpace(block.Find("i").First().Text()),
		})
		return limit <= 0 || len(cases) < limit
	})
	return cases
}

func FormatCases(cases []domain.LegalCase) string {
	if len(cases) == 0 {
		return noCasesFound
	}
	var b strings.Builder
	b.WriteString("Relevant Legal Cases:\n\n")
	for _, c := range cases {
		fmt.Fprintf(&b, "Case: %s\n", c.Title)
		if c.Headline != "" {
			fmt.Fprintf(&b, "Headline: %s\n", c.Headline)
		}
		if c.Source != "" {
			fmt.Fprintf(&b, "Source: %s\n", c.Source)
		}
		if c.Link != "" {
			fmt.Fprintf(&b, "Link: %s\n", c.Link)
		}
		b.WriteString("\n")
	}
	return b.String()
}
