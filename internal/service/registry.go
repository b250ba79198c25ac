package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/set-night/lexmind/internal/llm"
	"github.com/set-night/lexmind/internal/observability"
)

// Conversation is the live context of one session. Sends on the same
// conversation are serialized; different conversations proceed in parallel.
type Conversation struct {
	ID        string
	CreatedAt time.Time

	turn chan struct{}

	// dropped marks an explicit Remove or Clear, which is not an eviction.
	dropped atomic.Bool

	mu   sync.Mutex
	chat llm.Chat
}

func newConversation(id string, chat llm.Chat) *Conversation {
	return &Conversation{
		ID:        id,
		CreatedAt: time.Now(),
		turn:      make(chan struct{}, 1),
		chat:      chat,
	}
}

// acquire takes the per-session turn, giving up when ctx ends.
func (c *Conversation) acquire(ctx context.Context) error {
	select {
	case c.turn <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conversation) release() {
	<-c.turn
}

func (c *Conversation) current() llm.Chat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chat
}

func (c *Conversation) replace(chat llm.Chat) {
	c.mu.Lock()
	c.chat = chat
	c.mu.Unlock()
}

// Registry maps session ids to live conversations. It is bounded by size and
// drops conversations idle for longer than the TTL. A conversation evicted
// while a request holds it stays usable by that request; the next lookup
// starts a fresh one.
type Registry struct {
	mu       sync.Mutex
	entries  *expirable.LRU[string, *Conversation]
	provider llm.Provider
	metrics  *observability.Metrics
}

func NewRegistry(provider llm.Provider, size int, idleTTL time.Duration, metrics *observability.Metrics) *Registry {
	r := &Registry{provider: provider, metrics: metrics}
	r.entries = expirable.NewLRU[string, *Conversation](size, r.onEvict, idleTTL)
	return r
}

func (r *Registry) onEvict(_ string, conv *Conversation) {
	if conv.dropped.Load() {
		return
	}
	r.metrics.IncEvictions()
}

// GetOrCreate returns the conversation for id, creating it when absent.
// Concurrent callers with the same unknown id get the same conversation.
func (r *Registry) GetOrCreate(id string) (*Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conv, ok := r.entries.Get(id); ok {
		r.entries.Add(id, conv)
		return conv, false
	}
	conv := newConversation(id, r.provider.StartChat())
	r.entries.Add(id, conv)
	r.metrics.SetActiveSessions(r.entries.Len())
	return conv, true
}

// Lookup returns a live conversation and refreshes its idle deadline.
func (r *Registry) Lookup(id string) (*Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.entries.Get(id)
	if ok {
		r.entries.Add(id, conv)
	}
	return conv, ok
}

func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conv, found := r.entries.Peek(id); found {
		conv.dropped.Store(true)
	}
	ok := r.entries.Remove(id)
	r.metrics.SetActiveSessions(r.entries.Len())
	return ok
}

// Clear drops every conversation and returns how many were held.
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	conversations := r.entries.Values()
	for _, conv := range conversations {
		conv.dropped.Store(true)
	}
	n := len(conversations)
	r.entries.Purge()
	r.metrics.SetActiveSessions(0)
	return n
}

func (r *Registry) Len() int {
	return r.entries.Len()
}

// RunJanitor publishes the registry size until ctx ends.
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.metrics.SetActiveSessions(r.entries.Len())
		}
	}
}
