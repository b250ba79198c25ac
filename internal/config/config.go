package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Server
	Port        int      `env:"PORT" envDefault:"8081"`
	MaxUploadMB int64    `env:"MAX_UPLOAD_MB" envDefault:"16"`
	AdminKey    string   `env:"ADMIN_KEY" envDefault:"admin-secret"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	OTelStdout  bool     `env:"OTEL_STDOUT" envDefault:"false"`

	// Storage. Empty DATABASE_URL selects the in-memory session store.
	DatabaseURL string `env:"DATABASE_URL"`

	// LLM
	LLMBackend string `env:"LLM_BACKEND" envDefault:"gemini"`

	GoogleAPIKey      string `env:"GOOGLE_API_KEY"`
	GeminiTextModel   string `env:"GEMINI_TEXT_MODEL" envDefault:"gemini-2.0-flash"`
	GeminiVisionModel string `env:"GEMINI_VISION_MODEL" envDefault:"gemini-2.0-flash"`

	OpenRouterKey         string `env:"OPENROUTER_API_KEY"`
	OpenRouterTextModel   string `env:"OPENROUTER_TEXT_MODEL" envDefault:"google/gemini-2.0-flash-001"`
	OpenRouterVisionModel string `env:"OPENROUTER_VISION_MODEL" envDefault:"google/gemini-2.0-flash-001"`

	OpenAIKey         string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL     string `env:"OPENAI_BASE_URL"`
	OpenAITextModel   string `env:"OPENAI_TEXT_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIVisionModel string `env:"OPENAI_VISION_MODEL" envDefault:"gpt-4o-mini"`

	// Enrichment sources. "{query}" is replaced by the escaped search text.
	CasesSearchURL string `env:"CASES_SEARCH_URL"`
	NewsSearchURL  string `env:"NEWS_SEARCH_URL"`
	NewsBaseURL    string `env:"NEWS_BASE_URL" envDefault:"https://www.livelaw.in"`
	ScraperCookie  string `env:"SCRAPER_COOKIE"`

	// Extraction
	TesseractPath  string `env:"TESSERACT_PATH" envDefault:"tesseract"`
	ExtractWorkers int64  `env:"EXTRACT_WORKERS" envDefault:"4"`

	// Conversation registry
	RegistrySize    int           `env:"REGISTRY_SIZE" envDefault:"1000"`
	RegistryIdleTTL time.Duration `env:"REGISTRY_IDLE_TTL" envDefault:"2h"`

	// Telegram front-end, disabled when BOT_TOKEN is empty
	BotToken           string  `env:"BOT_TOKEN"`
	BotAdminIDs        []int64 `env:"BOT_ADMIN_IDS" envSeparator:","`
	DropPendingUpdates bool    `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`
	LogTelegramChatID  int64   `env:"LOG_TELEGRAM_CHAT_ID"`
	LogTopicError      int     `env:"LOG_TOPIC_ERROR"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLMBackend {
	case BackendGemini:
		if c.GoogleAPIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required for the %s backend", c.LLMBackend)
		}
	case BackendOpenRouter:
		if c.OpenRouterKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required for the %s backend", c.LLMBackend)
		}
	case BackendOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the %s backend", c.LLMBackend)
		}
	case BackendMock:
	default:
		return fmt.Errorf("unknown LLM_BACKEND %q", c.LLMBackend)
	}
	if c.RegistrySize <= 0 {
		return fmt.Errorf("REGISTRY_SIZE must be positive")
	}
	if c.ExtractWorkers <= 0 {
		return fmt.Errorf("EXTRACT_WORKERS must be positive")
	}
	return nil
}

func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.BotAdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

func (c *Config) AdminIDsString() string {
	parts := make([]string, len(c.BotAdminIDs))
	for i, id := range c.BotAdminIDs {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}
