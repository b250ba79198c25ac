package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"

	"github.com/set-night/lexmind/internal/config"
)

// Logger mirrors notable events into an admin chat. It is a no-op when
// LOG_TELEGRAM_CHAT_ID is unset.
type Logger struct {
	bot     *bot.Bot
	chatID  int64
	topicID int
}

func NewLogger(b *bot.Bot, cfg *config.Config) *Logger {
	return &Logger{bot: b, chatID: cfg.LogTelegramChatID, topicID: cfg.LogTopicError}
}

func (l *Logger) send(text string) {
	if l == nil || l.bot == nil || l.chatID == 0 {
		return
	}
	if r := []rune(text); len(r) > config.MaxTelegramMessageLen {
		text = string(r[:config.MaxTelegramMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := l.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          l.chatID,
		Text:            text,
		MessageThreadID: l.topicID,
	})
	if err != nil {
		slog.Error("failed to send telegram log", "error", err)
	}
}

// LogError reports a failed request; where says which operation failed.
func (l *Logger) LogError(err error, where string, chatID int64) {
	l.send(fmt.Sprintf("❌ Error\n\nWhere: %s\nChat: %d\nError: %s\nTime: %s",
		where, chatID, err.Error(), time.Now().Format("2006-01-02 15:04:05")))
}

// LogCleanup reports an admin cleanup of live conversations.
func (l *Logger) LogCleanup(adminID int64, count int) {
	l.send(fmt.Sprintf("🧹 Cleanup\n\nAdmin: %d\nConversations dropped: %d", adminID, count))
}
