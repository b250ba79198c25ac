package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/set-night/lexmind/internal/domain"
)

// OpenAIProvider serves any OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	client      *openai.Client
	textModel   string
	visionModel string
}

func NewOpenAIProvider(apiKey, baseURL, textModel, visionModel string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(cfg),
		textModel:   textModel,
		visionModel: visionModel,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) StartChat() Chat {
	return &openAIChat{provider: p}
}

func (p *OpenAIProvider) complete(ctx context.Context, model string, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: 0.7,
		TopP:        0.9,
		MaxTokens:   2048,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("openai returned empty text")
	}
	return resp.Choices[0].Message.Content, nil
}

type openAIChat struct {
	provider *OpenAIProvider
	log      transcript
}

func (c *openAIChat) SendText(ctx context.Context, text string) (string, error) {
	history := c.log.snapshot()
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	for _, e := range history {
		role := openai.ChatMessageRoleAssistant
		if e.Role == RoleUser {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: e.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})

	reply, err := c.provider.complete(ctx, c.provider.textModel, messages)
	if err != nil {
		return "", err
	}
	c.log.append(Entry{Role: RoleUser, Text: text}, Entry{Role: RoleModel, Text: reply})
	return reply, nil
}

func (c *openAIChat) SendImage(ctx context.Context, text string, img domain.Image) (string, error) {
	messages := []openai.ChatCompletionMessage{{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: text},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURI(img),
					Detail: openai.ImageURLDetailAuto,
				},
			},
		},
	}}
	return c.provider.complete(ctx, c.provider.visionModel, messages)
}

func (c *openAIChat) Append(entries ...Entry) { c.log.append(entries...) }

func (c *openAIChat) History() []Entry { return c.log.snapshot() }
