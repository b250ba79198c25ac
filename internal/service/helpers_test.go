package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/set-night/lexmind/internal/domain"
	"github.com/set-night/lexmind/internal/extract"
	"github.com/set-night/lexmind/internal/llm"
	"github.com/set-night/lexmind/internal/repository"
)

type testStack struct {
	provider      *llm.MockProvider
	registry      *Registry
	conversations *ConversationService
	sessions      *SessionService
	store         *repository.MemorySessionStore
	chat          *ChatService
	forms         *FormService
}

func newTestStack(t *testing.T, cases, news Lookup) *testStack {
	t.Helper()
	provider := llm.NewMockProvider()
	registry := NewRegistry(provider, 100, time.Hour, nil)
	conversations := NewConversationService(registry, provider, time.Second, nil)
	store := repository.NewMemorySessionStore()
	sessions := NewSessionService(store, registry)
	extractor := extract.NewExtractor(stubOCR{text: "Page one"}, 2, 256, nil)
	enricher := NewEnricher(cases, news, 200*time.Millisecond, nil)

	return &testStack{
		provider:      provider,
		registry:      registry,
		conversations: conversations,
		sessions:      sessions,
		store:         store,
		chat:          NewChatService(extractor, enricher, conversations, sessions, nil),
		forms:         NewFormService(extractor, conversations),
	}
}

type stubOCR struct {
	text string
	err  error
}

func (s stubOCR) Recognize(context.Context, []byte) (string, error) {
	return s.text, s.err
}

// recordingLookup returns a fixed answer and remembers the queries it saw.
type recordingLookup struct {
	mu      sync.Mutex
	answer  string
	err     error
	delay   time.Duration
	queries []string
}

func (l *recordingLookup) Lookup(ctx context.Context, query string) (string, error) {
	l.mu.Lock()
	l.queries = append(l.queries, query)
	l.mu.Unlock()
	if l.delay > 0 {
		select {
		case <-time.After(l.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return l.answer, l.err
}

func roles(turns []domain.Turn) []domain.Role {
	out := make([]domain.Role, len(turns))
	for i, t := range turns {
		out[i] = t.Role
	}
	return out
}
