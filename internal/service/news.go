package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/set-night/lexmind/internal/config"
	"github.com/set-night/lexmind/internal/domain"
)

const noNewsFound = "No relevant news articles found for this query."

// NewsScraper searches a legal news site.
type NewsScraper struct {
	fetcher pageFetcher
	baseURL string
	limit   int
}

func NewNewsScraper(searchURL, baseURL, cookie string) *NewsScraper {
	return &NewsScraper{
		fetcher: newPageFetcher(searchURL, cookie),
		baseURL: baseURL,
		limit:   config.MaxLookupResults,
	}
}

func (s *NewsScraper) Lookup(ctx context.Context, query string) (string, error) {
	articles, err := s.Search(ctx, query)
	if err != nil {
		return "", fmt.Errorf("news search: %w", err)
	}
	return FormatNews(articles), nil
}

func (s *NewsScraper) Search(ctx context.Context, query string) ([]domain.NewsArticle, error) {
	doc, _, err := s.fetcher.fetch(ctx, query)
	if err != nil {
		return nil, err
	}
	return ParseNews(doc, s.baseURL, s.limit), nil
}

// ParseNews reads article cards; a card needs a headline, a date, an image
// and a link.
func ParseNews(doc *goquery.Document, baseURL string, limit int) []domain.NewsArticle {
	var articles []domain.NewsArticle
	doc.Find("div.col-xs-12.col-sm-12.col-md-12").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		title := card.Find("h2").First()
		date := card.Find("h5").First()
		img := card.Find("img").First()
		link := card.Find("a").First()
		if title.Length() == 0 || date.Length() == 0 || img.Length() == 0 || link.Length() == 0 {
			return true
		}

		href, _ := link.Attr("href")
		src, _ := img.Attr("src")
		video, _ := img.Attr("data-video-path")
		articles = append(articles, domain.NewsArticle{
			Title:     strings.TrimSpace(title.Text()),
			Date:      strings.TrimSpace(date.Text()),
			Link:      absoluteURL(baseURL, href),
			ImageURL:  src,
			VideoPath: video,
		})
		return limit <= 0 || len(articles) < limit
	})
	return articles
}

func FormatNews(articles []domain.NewsArticle) string {
	if len(articles) == 0 {
		return noNewsFound
	}
	var b strings.Builder
	b.WriteString("Relevant LiveLaw News Articles:\n\n")
	for _, a := range articles {
		fmt.Fprintf(&b, "Title: %s\n", a.Title)
		fmt.Fprintf(&b, "Date: %s\n", a.Date)
		fmt.Fprintf(&b, "Article Link: %s\n", a.Link)
		if a.VideoPath != "" {
			fmt.Fprintf(&b, "Video Link: %s\n", a.VideoPath)
		}
		b.WriteString("\n")
	}
	return b.String()
}
