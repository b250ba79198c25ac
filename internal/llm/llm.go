// Package llm holds the chat collaborators the conversation layer drives.
//
// A Chat owns its provider-side history. SendText appends the exchange to
// that history only when the call succeeds; SendImage is stateless and the
// caller records the exchange with Append.
package llm

import (
	"context"
	"sync"

	"github.com/set-night/lexmind/internal/domain"
)

// Provider role names as stored in chat histories.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Entry is one provider-side history record. Err is set when the record
// could not be rendered as text.
type Entry struct {
	Role string
	Text string
	Err  error
}

type Chat interface {
	SendText(ctx context.Context, text string) (string, error)
	SendImage(ctx context.Context, text string, img domain.Image) (string, error)
	Append(entries ...Entry)
	History() []Entry
}

type Provider interface {
	Name() string
	StartChat() Chat
}

// ModelLister is implemented by providers that expose a model catalog.
type ModelLister interface {
	ListModels(ctx context.Context) ([]domain.AIModel, error)
}

// transcript is a mutex-guarded history shared by the plain-text providers.
type transcript struct {
	mu      sync.Mutex
	entries []Entry
}

func (t *transcript) snapshot() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *transcript) append(entries ...Entry) {
	t.mu.Lock()
	t.entries = append(t.entries, entries...)
	t.mu.Unlock()
}
