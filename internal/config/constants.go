package config

import "time"

const (
	// LLM backends
	BackendGemini     = "gemini"
	BackendOpenRouter = "openrouter"
	BackendOpenAI     = "openai"
	BackendMock       = "mock"

	// Upper bound for a single model call
	RequestTimeout = 90 * time.Second

	// Upper bound for each enrichment lookup
	LookupTimeout = 45 * time.Second

	// Scraper HTTP client timeout
	ScraperHTTPTimeout = 30 * time.Second

	// Model catalog cache duration
	ModelCacheDuration = 1 * time.Hour

	// Session record previews
	TitleWidth   = 20
	PreviewWidth = 30

	DefaultTitle       = "New Chat"
	ResetPreview       = "Start a new conversation"
	DefaultImagePrompt = "Analyze this image in detail"

	// Extractive summary bound
	SummaryMaxLength = 500

	// Results kept per enrichment source
	MaxLookupResults = 5

	// Images are scaled to fit this box before being sent to the vision model
	MaxImageDimension = 2048

	// Telegram limits
	MaxTelegramMessageLen = 4096
	MaxTelegramFileSize   = 20 << 20

	// Rate limits per chat (per minute)
	RateLimitPerMinute = 8

	// Registry gauge refresh interval
	RegistryJanitorInterval = 60 * time.Second

	// Sessions per page in the bot
	SessionsPerPage = 5

	// HTTP server shutdown grace period
	ShutdownTimeout = 15 * time.Second
)
