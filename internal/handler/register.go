package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	tg "github.com/set-night/lexmind/internal/telegram"
)

// Register registers all command and callback handlers on the bot instance.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/reset", bot.MatchTypePrefix, h.handleReset)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/history", bot.MatchTypePrefix, h.handleHistory)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/sessions", bot.MatchTypePrefix, h.handleSessions)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/settings", bot.MatchTypePrefix, h.handleSettings)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cases", bot.MatchTypePrefix, h.handleToggleCommand(settingCases))
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/news", bot.MatchTypePrefix, h.handleToggleCommand(settingNews))
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/summary", bot.MatchTypePrefix, h.handleToggleCommand(settingSummary))
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/models", bot.MatchTypePrefix, h.handleModels)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cleanup", bot.MatchTypePrefix, h.handleCleanup)

	// Settings callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "toggle_", bot.MatchTypePrefix, h.handleToggleCallback)

	// Sessions callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "new_session", bot.MatchTypeExact, h.handleNewSession)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, switchSessionPrefix, bot.MatchTypePrefix, h.handleSwitchSession)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, deleteSessionPrefix, bot.MatchTypePrefix, h.handleDeleteSession)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, sessionsPagePrefix, bot.MatchTypePrefix, h.handleSessionsPage)

	// Models callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, modelsPagePrefix, bot.MatchTypePrefix, h.handleModelsPage)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.NoopCallback, bot.MatchTypeExact, h.handleNoop)

	// Text, photos and documents
	h.bot.RegisterHandlerMatchFunc(isChatMessage, h.HandleMessage)
}

// isChatMessage matches non-command messages that carry text, a photo or a
// document.
func isChatMessage(update *models.Update) bool {
	msg := update.Message
	if msg == nil {
		return false
	}
	if len(msg.Text) > 0 && msg.Text[0] == '/' {
		return false
	}
	return msg.Text != "" || len(msg.Photo) > 0 || msg.Document != nil
}

// handleNoop acknowledges callbacks of non-interactive buttons.
func (h *Handler) handleNoop(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery != nil {
		b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
		})
	}
}

// callbackTarget returns the chat and message a callback query was sent from.
func callbackTarget(update *models.Update) (chatID int64, messageID int) {
	if msg := update.CallbackQuery.Message.Message; msg != nil {
		return msg.Chat.ID, msg.ID
	}
	return 0, 0
}
