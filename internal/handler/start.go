package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const welcomeText = "👋 *Welcome to LexMind*\n\n" +
	"I answer legal questions. Send a message, a document (PDF, DOCX, XLSX, PPTX, TXT) or a photo " +
	"of a page and I will read it along with your question.\n\n" +
	"📋 *Commands:*\n" +
	"/reset — Start a new conversation\n" +
	"/history — Show this conversation\n" +
	"/sessions — Switch or delete saved chats\n" +
	"/settings — Research and summary options\n" +
	"/cases — Toggle related case law lookup\n" +
	"/news — Toggle legal news lookup\n" +
	"/summary — Toggle answer summaries\n" +
	"/models — Available models"

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      welcomeText,
		ParseMode: models.ParseModeMarkdownV1,
	})
}
