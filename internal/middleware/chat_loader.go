package middleware

import (
	"context"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/lexmind/internal/domain"
)

type ctxKey string

const (
	prefsKey  ctxKey = "chat_prefs"
	senderKey ctxKey = "sender"
)

// PrefsSource is the read side of the per-chat preference store.
type PrefsSource interface {
	Get(chatID int64) domain.ChatPrefs
}

// GetPrefs returns the preferences loaded for the update's chat.
func GetPrefs(ctx context.Context) (domain.ChatPrefs, bool) {
	p, ok := ctx.Value(prefsKey).(domain.ChatPrefs)
	return p, ok
}

// GetSender returns the Telegram id of the user who sent the update.
func GetSender(ctx context.Context) int64 {
	id, _ := ctx.Value(senderKey).(int64)
	return id
}

// UserID is the session-record owner id for a Telegram chat.
func UserID(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

// ChatLoader loads the chat's preferences and the sender id into the context.
func ChatLoader(prefs PrefsSource) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if chatID := ChatID(update); chatID != 0 {
				ctx = context.WithValue(ctx, prefsKey, prefs.Get(chatID))
			}
			switch {
			case update.Message != nil && update.Message.From != nil:
				ctx = context.WithValue(ctx, senderKey, update.Message.From.ID)
			case update.CallbackQuery != nil:
				ctx = context.WithValue(ctx, senderKey, update.CallbackQuery.From.ID)
			}
			next(ctx, b, update)
		}
	}
}
