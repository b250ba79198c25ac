package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/lexmind/internal/config"
	"github.com/set-night/lexmind/internal/domain"
	"github.com/set-night/lexmind/internal/middleware"
	tg "github.com/set-night/lexmind/internal/telegram"
)

const (
	switchSessionPrefix = "switch_session_"
	deleteSessionPrefix = "delete_session_"
	sessionsPagePrefix  = "sessions_page_"

	historyTurnWidth = 300
)

func (h *Handler) handleReset(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	prefs := h.prefs.Get(chatID)

	id, err := h.chat.Reset(ctx, prefs.SessionID, middleware.UserID(chatID))
	if err != nil {
		slog.Error("reset session", "chat_id", chatID, "error", err)
		tg.SendText(ctx, b, chatID, "❌ Could not reset the conversation.")
		return
	}
	h.prefs.Update(chatID, func(p *domain.ChatPrefs) { p.SessionID = id })
	tg.SendText(ctx, b, chatID, "🔄 Conversation reset. Ask me anything.")
}

func (h *Handler) handleHistory(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	prefs := h.prefs.Get(chatID)
	if prefs.SessionID == "" {
		tg.SendText(ctx, b, chatID, "No conversation yet. Send a message to start one.")
		return
	}

	turns, err := h.chat.History(ctx, prefs.SessionID)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		slog.Error("get history", "chat_id", chatID, "session_id", prefs.SessionID, "error", err)
		tg.SendText(ctx, b, chatID, "❌ Could not load the conversation.")
		return
	}
	tg.SendLongMessage(ctx, b, chatID, renderHistory(turns), nil)
}

// renderHistory lists turns with long contents shortened.
func renderHistory(turns []domain.Turn) string {
	if len(turns) == 0 {
		return "This conversation is empty."
	}
	var sb strings.Builder
	sb.WriteString("📜 *Conversation*\n")
	for _, t := range turns {
		who := "👤 You"
		if t.Role == domain.RoleAssistant {
			who = "🤖 LexMind"
		}
		fmt.Fprintf(&sb, "\n%s: %s\n", who, ellipsize(t.Content, historyTurnWidth))
	}
	return sb.String()
}

func ellipsize(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width]) + "..."
}

func (h *Handler) handleSessions(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendSessionsPage(ctx, b, update.Message.Chat.ID, 0, 0)
}

func (h *Handler) sendSessionsPage(ctx context.Context, b *bot.Bot, chatID int64, page, messageID int) {
	recs, err := h.sessions.ListForUser(ctx, middleware.UserID(chatID))
	if err != nil {
		slog.Error("list sessions", "chat_id", chatID, "error", err)
		tg.SendText(ctx, b, chatID, "❌ Could not load your chats.")
		return
	}
	text, keyboard := sessionsView(recs, h.prefs.Get(chatID).SessionID, page)
	tg.EditOrSend(ctx, b, chatID, messageID, text, keyboard)
}

// sessionsView renders one page of saved chats, most recent first.
func sessionsView(recs []domain.SessionRecord, active string, page int) (string, *models.InlineKeyboardMarkup) {
	perPage := config.SessionsPerPage
	totalPages := (len(recs) + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	page = max(0, min(page, totalPages-1))

	var sb strings.Builder
	fmt.Fprintf(&sb, "📂 *Chats* (%d)\n", len(recs))

	var rows [][]models.InlineKeyboardButton
	end := min(len(recs), (page+1)*perPage)
	for _, r := range recs[page*perPage : end] {
		label := r.Title
		if r.SessionID == active {
			label += " ✅"
		}
		fmt.Fprintf(&sb, "\n• %s — %s", r.Title, r.LastMessage)
		rows = append(rows, tg.ButtonRow(
			tg.InlineButton(label, switchSessionPrefix+r.SessionID),
			tg.InlineButton("🗑", deleteSessionPrefix+r.SessionID),
		))
	}

	rows = append(rows, tg.ButtonRow(tg.InlineButton("➕ New chat", "new_session")))
	if totalPages > 1 {
		rows = append(rows, tg.PaginationRow(page, totalPages, sessionsPagePrefix))
	}
	return sb.String(), tg.InlineKeyboard(rows...)
}

func (h *Handler) handleNewSession(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})

	chatID, messageID := callbackTarget(update)
	if chatID == 0 {
		return
	}
	id, err := h.chat.Reset(ctx, "", middleware.UserID(chatID))
	if err != nil {
		slog.Error("create session", "chat_id", chatID, "error", err)
		return
	}
	h.prefs.Update(chatID, func(p *domain.ChatPrefs) { p.SessionID = id })
	h.sendSessionsPage(ctx, b, chatID, 0, messageID)
}

func (h *Handler) handleSwitchSession(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})

	chatID, messageID := callbackTarget(update)
	if chatID == 0 {
		return
	}
	id := strings.TrimPrefix(update.CallbackQuery.Data, switchSessionPrefix)
	rec, err := h.sessions.Get(ctx, id)
	if err != nil || rec.UserID != middleware.UserID(chatID) {
		slog.Warn("switch to unknown session", "chat_id", chatID, "session_id", id, "error", err)
		return
	}

	h.prefs.Update(chatID, func(p *domain.ChatPrefs) { p.SessionID = id })
	h.sendSessionsPage(ctx, b, chatID, 0, messageID)
}

func (h *Handler) handleDeleteSession(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})

	chatID, messageID := callbackTarget(update)
	if chatID == 0 {
		return
	}
	id := strings.TrimPrefix(update.CallbackQuery.Data, deleteSessionPrefix)
	rec, err := h.sessions.Get(ctx, id)
	if err != nil || rec.UserID != middleware.UserID(chatID) {
		return
	}
	if err := h.sessions.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		slog.Error("delete session", "chat_id", chatID, "session_id", id, "error", err)
		return
	}
	h.prefs.Update(chatID, func(p *domain.ChatPrefs) {
		if p.SessionID == id {
			p.SessionID = ""
		}
	})
	h.sendSessionsPage(ctx, b, chatID, 0, messageID)
}

func (h *Handler) handleSessionsPage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})

	chatID, messageID := callbackTarget(update)
	if chatID == 0 {
		return
	}
	page, _ := strconv.Atoi(strings.TrimPrefix(update.CallbackQuery.Data, sessionsPagePrefix))
	h.sendSessionsPage(ctx, b, chatID, page, messageID)
}
