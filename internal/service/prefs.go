package service

import (
	"sync"

	"github.com/set-night/lexmind/internal/domain"
)

// ChatPrefsStore keeps per-chat session bindings and toggles for the
// Telegram front-end, plus the chats with a request in flight.
type ChatPrefsStore struct {
	mu       sync.RWMutex
	prefs    map[int64]domain.ChatPrefs
	inflight map[int64]bool
}

func NewChatPrefsStore() *ChatPrefsStore {
	return &ChatPrefsStore{
		prefs:    make(map[int64]domain.ChatPrefs),
		inflight: make(map[int64]bool),
	}
}

func (s *ChatPrefsStore) Get(chatID int64) domain.ChatPrefs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prefs[chatID]
	if !ok {
		return domain.ChatPrefs{ChatID: chatID}
	}
	return p
}

// Update applies fn to the chat's prefs and stores the result.
func (s *ChatPrefsStore) Update(chatID int64, fn func(*domain.ChatPrefs)) domain.ChatPrefs {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.prefs[chatID]
	if !ok {
		p = domain.ChatPrefs{ChatID: chatID}
	}
	fn(&p)
	s.prefs[chatID] = p
	return p
}

// TryBegin marks a request in flight for the chat. It fails if one already is.
func (s *ChatPrefsStore) TryBegin(chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[chatID] {
		return domain.ErrActiveRequest
	}
	s.inflight[chatID] = true
	return nil
}

func (s *ChatPrefsStore) End(chatID int64) {
	s.mu.Lock()
	delete(s.inflight, chatID)
	s.mu.Unlock()
}
