package domain

import (
	"time"
)

// SessionRecord is the persisted sidebar entry for a conversation.
type SessionRecord struct {
	SessionID   string
	UserID      string
	Title       string
	LastMessage string
	Timestamp   time.Time
}

// ChatPrefs holds the Telegram chat binding and enrichment toggles.
type ChatPrefs struct {
	ChatID     int64
	SessionID  string
	FetchCases bool
	FetchNews  bool
	Summarize  bool
}
