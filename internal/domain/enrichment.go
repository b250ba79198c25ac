package domain

// Diagnostics carries per-request enrichment results and errors.
type Diagnostics map[string]string

const (
	DiagLegalCases      = "legal_cases"
	DiagLegalCasesError = "legal_cases_error"
	DiagNewsArticles    = "news_articles"
	DiagNewsError       = "news_articles_error"
	DiagSummary         = "summary"
	DiagSummaryError    = "summary_error"
)

// LegalCase is one case-law search hit.
type LegalCase struct {
	Title    string
	Link     string
	Headline string
	Source   string
}

// NewsArticle is one legal news search hit.
type NewsArticle struct {
	Title     string
	Date      string
	Link      string
	ImageURL  string
	VideoPath string
}
