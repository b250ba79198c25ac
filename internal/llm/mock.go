package llm

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/set-night/lexmind/internal/domain"
)

// MockRequest describes one call seen by MockProvider.
type MockRequest struct {
	Text     string
	History  []Entry
	HasImage bool
}

// MockProvider answers deterministically without a network. It backs the
// "mock" backend and tests.
type MockProvider struct {
	// Reply overrides the default echo reply.
	Reply func(ctx context.Context, req MockRequest) (string, error)
	// Delay is applied before every reply unless ctx ends first.
	Delay time.Duration

	calls atomic.Int64
}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Calls() int64 { return p.calls.Load() }

func (p *MockProvider) StartChat() Chat {
	return &mockChat{provider: p}
}

func (p *MockProvider) answer(ctx context.Context, req MockRequest) (string, error) {
	p.calls.Add(1)
	if p.Delay > 0 {
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if p.Reply != nil {
		return p.Reply(ctx, req)
	}
	prompt := []rune(req.Text)
	if len(prompt) > 60 {
		prompt = prompt[:60]
	}
	if req.HasImage {
		return fmt.Sprintf("I looked at the image. You asked: %s", string(prompt)), nil
	}
	return fmt.Sprintf("You said: %s", string(prompt)), nil
}

type mockChat struct {
	provider *MockProvider
	log      transcript
}

func (c *mockChat) SendText(ctx context.Context, text string) (string, error) {
	reply, err := c.provider.answer(ctx, MockRequest{Text: text, History: c.log.snapshot()})
	if err != nil {
		return "", err
	}
	c.log.append(Entry{Role: RoleUser, Text: text}, Entry{Role: RoleModel, Text: reply})
	return reply, nil
}

func (c *mockChat) SendImage(ctx context.Context, text string, _ domain.Image) (string, error) {
	return c.provider.answer(ctx, MockRequest{Text: text, HasImage: true})
}

func (c *mockChat) Append(entries ...Entry) { c.log.append(entries...) }

func (c *mockChat) History() []Entry { return c.log.snapshot() }
