package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/set-night/lexmind/internal/config"
	"github.com/set-night/lexmind/internal/domain"
)

// OpenRouterProvider talks to the OpenRouter chat completions API.
type OpenRouterProvider struct {
	apiKey      string
	baseURL     string
	textModel   string
	visionModel string
	httpClient  *http.Client
	catalog     *ttlValue[[]domain.AIModel]
	refresh     singleflight.Group
}

func NewOpenRouterProvider(apiKey, textModel, visionModel string) *OpenRouterProvider {
	return &OpenRouterProvider{
		apiKey:      apiKey,
		baseURL:     "https://openrouter.ai/api/v1",
		textModel:   textModel,
		visionModel: visionModel,
		httpClient:  &http.Client{Timeout: config.RequestTimeout},
		catalog:     newTTLValue[[]domain.AIModel](config.ModelCacheDuration),
	}
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *OpenRouterProvider) Name() string { return "openrouter" }

func (p *OpenRouterProvider) StartChat() Chat {
	return &openRouterChat{provider: p}
}

func (p *OpenRouterProvider) complete(ctx context.Context, model string, messages []chatMessage) (string, error) {
	temperature := 0.7
	// Gemini models on OpenRouter reject explicit temperature overrides.
	var temp *float64
	if !strings.Contains(strings.ToLower(model), "gemini") {
		temp = &temperature
	}

	payload, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temp,
		MaxTokens:   2048,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: rate limited by OpenRouter (429)", domain.ErrModelUnavailable)
	case http.StatusServiceUnavailable:
		return "", fmt.Errorf("%w: OpenRouter service unavailable (503)", domain.ErrModelUnavailable)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("openrouter: %s", out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openrouter: unexpected status %d", resp.StatusCode)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", errors.New("openrouter returned empty text")
	}
	return out.Choices[0].Message.Content, nil
}

// ListModels returns the OpenRouter catalog, cached for ModelCacheDuration.
func (p *OpenRouterProvider) ListModels(ctx context.Context) ([]domain.AIModel, error) {
	if cached, ok := p.catalog.Get(); ok {
		return cached, nil
	}
	v, err, _ := p.refresh.Do("models", func() (interface{}, error) {
		models, err := p.fetchModels(ctx)
		if err != nil {
			return nil, err
		}
		p.catalog.Set(models)
		return models, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.AIModel), nil
}

func (p *OpenRouterProvider) fetchModels(ctx context.Context) ([]domain.AIModel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch models: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openrouter models: unexpected status %d", resp.StatusCode)
	}

	var result struct {
		Data []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
			Pricing     struct {
				Prompt     string `json:"prompt"`
				Completion string `json:"completion"`
			} `json:"pricing"`
			ContextLength int `json:"context_length"`
			TopProvider   struct {
				ContextLength int `json:"context_length"`
			} `json:"top_provider"`
			Architecture struct {
				Modality string `json:"modality"`
			} `json:"architecture"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse models: %w", err)
	}

	models := make([]domain.AIModel, 0, len(result.Data))
	for _, m := range result.Data {
		var promptPrice, completionPrice float64
		fmt.Sscanf(m.Pricing.Prompt, "%f", &promptPrice)
		fmt.Sscanf(m.Pricing.Completion, "%f", &completionPrice)

		// Prices from OpenRouter are per token, convert to per 1M tokens
		promptPrice *= 1_000_000
		completionPrice *= 1_000_000

		ctxLen := m.ContextLength
		if m.TopProvider.ContextLength > 0 {
			ctxLen = m.TopProvider.ContextLength
		}

		models = append(models, domain.AIModel{
			ID:              m.ID,
			Name:            m.Name,
			Description:     m.Description,
			PromptPrice:     promptPrice,
			CompletionPrice: completionPrice,
			ContextLength:   ctxLen,
			Capabilities:    detectCapabilities(m.ID, m.Architecture.Modality),
		})
	}
	return models, nil
}

func detectCapabilities(modelID, modality string) domain.ModelCapabilities {
	id := strings.ToLower(modelID)
	caps := domain.ModelCapabilities{}

	if strings.Contains(id, "vision") || strings.Contains(id, "gpt-4o") ||
		strings.Contains(id, "claude-3") || strings.Contains(id, "gemini") ||
		strings.Contains(id, "llava") || strings.Contains(modality, "image") {
		caps.Vision = true
	}
	// Vision models accept document pages as images.
	caps.Files = caps.Vision
	return caps
}

type openRouterChat struct {
	provider *OpenRouterProvider
	log      transcript
}

func (c *openRouterChat) SendText(ctx context.Context, text string) (string, error) {
	history := c.log.snapshot()
	messages := make([]chatMessage, 0, len(history)+1)
	for _, e := range history {
		messages = append(messages, chatMessage{Role: chatRole(e.Role), Content: e.Text})
	}
	messages = append(messages, chatMessage{Role: "user", Content: text})

	reply, err := c.provider.complete(ctx, c.provider.textModel, messages)
	if err != nil {
		return "", err
	}
	c.log.append(Entry{Role: RoleUser, Text: text}, Entry{Role: RoleModel, Text: reply})
	return reply, nil
}

func (c *openRouterChat) SendImage(ctx context.Context, text string, img domain.Image) (string, error) {
	messages := []chatMessage{{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: text},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURI(img)}},
		},
	}}
	return c.provider.complete(ctx, c.provider.visionModel, messages)
}

func (c *openRouterChat) Append(entries ...Entry) { c.log.append(entries...) }

func (c *openRouterChat) History() []Entry { return c.log.snapshot() }

func chatRole(role string) string {
	if role == RoleUser {
		return "user"
	}
	return "assistant"
}

func dataURI(img domain.Image) string {
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
