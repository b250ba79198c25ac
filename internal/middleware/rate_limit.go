package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	limiterCacheSize = 10000
	limiterIdleTTL   = 10 * time.Minute
)

// ChatLimiter hands out one token bucket per chat. Buckets of idle chats are
// dropped after limiterIdleTTL.
type ChatLimiter struct {
	limiters *expirable.LRU[int64, *rate.Limiter]
	every    rate.Limit
	burst    int
}

// NewChatLimiter allows perMinute messages per chat per minute, in bursts of
// up to perMinute.
func NewChatLimiter(perMinute int) *ChatLimiter {
	return &ChatLimiter{
		limiters: expirable.NewLRU[int64, *rate.Limiter](limiterCacheSize, nil, limiterIdleTTL),
		every:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
}

func (l *ChatLimiter) Allow(chatID int64) bool {
	lim, ok := l.limiters.Get(chatID)
	if !ok {
		lim = rate.NewLimiter(l.every, l.burst)
		l.limiters.Add(chatID, lim)
	}
	return lim.Allow()
}

// RateLimit drops messages from chats over their budget. Callback queries are
// not limited.
func RateLimit(limiter *ChatLimiter) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if update.Message == nil {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			if !limiter.Allow(chatID) {
				slog.Debug("rate limited", "chat_id", chatID)
				b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: chatID,
					Text:   "⏳ Too many requests. Please wait a moment.",
				})
				return
			}
			next(ctx, b, update)
		}
	}
}
