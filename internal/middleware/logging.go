package middleware

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"

	"github.com/set-night/lexmind/internal/observability"
)

// Logging tags the update with a request id and logs its processing time.
func Logging() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()
			ctx = observability.WithRequestID(ctx, uuid.NewString())

			updateType := "unknown"
			var userID int64
			switch {
			case update.Message != nil:
				updateType = "message"
				if update.Message.From != nil {
					userID = update.Message.From.ID
				}
			case update.CallbackQuery != nil:
				updateType = "callback_query"
				userID = update.CallbackQuery.From.ID
			}

			next(ctx, b, update)

			observability.LoggerFromContext(ctx).Debug("update processed",
				"type", updateType,
				"chat_id", ChatID(update),
				"user_id", userID,
				"duration", time.Since(start),
			)
		}
	}
}

// ChatID returns the chat an update belongs to, or 0.
func ChatID(update *models.Update) int64 {
	switch {
	case update == nil:
		return 0
	case update.Message != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message.Message != nil:
		return update.CallbackQuery.Message.Message.Chat.ID
	}
	return 0
}
