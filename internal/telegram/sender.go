package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/lexmind/internal/config"
)

const typingInterval = 4 * time.Second

// SendLongMessage sends text in parts of at most 4096 runes, replying to
// replyToID with the first part. A part Telegram rejects as Markdown is resent
// as plain text.
func SendLongMessage(ctx context.Context, b *bot.Bot, chatID int64, text string, replyToID *int) error {
	for _, part := range SplitMessage(ToLegacyMarkdown(text), config.MaxTelegramMessageLen) {
		params := &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      part,
			ParseMode: models.ParseModeMarkdownV1,
		}
		if replyToID != nil {
			params.ReplyParameters = &models.ReplyParameters{MessageID: *replyToID}
			replyToID = nil
		}

		if _, err := b.SendMessage(ctx, params); err != nil {
			slog.Warn("markdown send failed, falling back to plain text", "chat_id", chatID, "error", err)
			params.ParseMode = ""
			if _, err := b.SendMessage(ctx, params); err != nil {
				return fmt.Errorf("send message: %w", err)
			}
		}
	}
	return nil
}

// SendText sends a short plain-text message and logs a failure.
func SendText(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		slog.Warn("send message failed", "chat_id", chatID, "error", err)
	}
}

// EditOrSend edits messageID when it is set, otherwise sends a new message.
func EditOrSend(ctx context.Context, b *bot.Bot, chatID int64, messageID int, text string, markup models.ReplyMarkup) {
	var err error
	if messageID != 0 {
		_, err = b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:      chatID,
			MessageID:   messageID,
			Text:        text,
			ParseMode:   models.ParseModeMarkdownV1,
			ReplyMarkup: markup,
		})
	} else {
		_, err = b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        text,
			ParseMode:   models.ParseModeMarkdownV1,
			ReplyMarkup: markup,
		})
	}
	if err != nil {
		slog.Warn("update message failed", "chat_id", chatID, "error", err)
	}
}

// StartTyping repeats the "typing" chat action until the returned cancel
// function is called.
func StartTyping(ctx context.Context, b *bot.Bot, chatID int64) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()
		for {
			b.SendChatAction(ctx, &bot.SendChatActionParams{
				ChatID: chatID,
				Action: models.ChatActionTyping,
			})
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return cancel
}
