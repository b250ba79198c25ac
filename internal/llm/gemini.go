package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/set-night/lexmind/internal/domain"
)

type GeminiProvider struct {
	client      *genai.Client
	textModel   string
	visionModel string
	config      *genai.GenerateContentConfig
}

func NewGeminiProvider(ctx context.Context, apiKey, textModel, visionModel string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiProvider{
		client:      client,
		textModel:   textModel,
		visionModel: visionModel,
		config:      generationConfig(),
	}, nil
}

func generationConfig() *genai.GenerateContentConfig {
	temp := float32(0.7)
	topP := float32(0.9)
	topK := float32(40)

	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	safety := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		safety = append(safety, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}

	return &genai.GenerateContentConfig{
		Temperature:     &temp,
		TopP:            &topP,
		TopK:            &topK,
		MaxOutputTokens: int32(2048),
		SafetySettings:  safety,
	}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) StartChat() Chat {
	return &geminiChat{provider: p}
}

func (p *GeminiProvider) generate(ctx context.Context, model string, contents []*genai.Content) (string, error) {
	res, err := p.client.Models.GenerateContent(ctx, model, contents, p.config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	text := res.Text()
	if text == "" {
		return "", errors.New("gemini returned empty text")
	}
	return text, nil
}

type geminiChat struct {
	provider *GeminiProvider

	mu      sync.Mutex
	history []*genai.Content
}

func (c *geminiChat) SendText(ctx context.Context, text string) (string, error) {
	msg := genai.NewContentFromText(text, genai.RoleUser)

	c.mu.Lock()
	contents := make([]*genai.Content, 0, len(c.history)+1)
	contents = append(contents, c.history...)
	c.mu.Unlock()
	contents = append(contents, msg)

	reply, err := c.provider.generate(ctx, c.provider.textModel, contents)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.history = append(c.history, msg, genai.NewContentFromText(reply, genai.RoleModel))
	c.mu.Unlock()
	return reply, nil
}

func (c *geminiChat) SendImage(ctx context.Context, text string, img domain.Image) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(text),
		genai.NewPartFromBytes(img.Data, img.MIMEType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	return c.provider.generate(ctx, c.provider.visionModel, contents)
}

func (c *geminiChat) Append(entries ...Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range entries {
		var role genai.Role = genai.RoleModel
		if e.Role == RoleUser {
			role = genai.RoleUser
		}
		c.history = append(c.history, genai.NewContentFromText(e.Text, role))
	}
}

func (c *geminiChat) History() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, 0, len(c.history))
	for _, content := range c.history {
		out = append(out, contentEntry(content))
	}
	return out
}

func contentEntry(c *genai.Content) Entry {
	if c == nil {
		return Entry{Err: errors.New("empty content")}
	}
	var texts []string
	for _, p := range c.Parts {
		if p != nil && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	if len(texts) == 0 {
		return Entry{Role: c.Role, Err: fmt.Errorf("content has %d parts and no text", len(c.Parts))}
	}
	return Entry{Role: c.Role, Text: strings.Join(texts, "")}
}
