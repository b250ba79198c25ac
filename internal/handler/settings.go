package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/lexmind/internal/domain"
	tg "github.com/set-night/lexmind/internal/telegram"
)

type setting string

const (
	settingCases   setting = "cases"
	settingNews    setting = "news"
	settingSummary setting = "summary"
)

var settingLabels = map[setting]string{
	settingCases:   "Case law lookup",
	settingNews:    "Legal news lookup",
	settingSummary: "Answer summary",
}

// toggle flips the setting and reports its new value.
func (s setting) toggle(p *domain.ChatPrefs) bool {
	switch s {
	case settingCases:
		p.FetchCases = !p.FetchCases
		return p.FetchCases
	case settingNews:
		p.FetchNews = !p.FetchNews
		return p.FetchNews
	case settingSummary:
		p.Summarize = !p.Summarize
		return p.Summarize
	}
	return false
}

func settingsView(p domain.ChatPrefs) (string, *models.InlineKeyboardMarkup) {
	text := "⚙️ *Settings*\n\nLookups run alongside your question and their results are added to the prompt."
	keyboard := tg.InlineKeyboard(
		tg.ButtonRow(tg.ToggleButton(settingLabels[settingCases], p.FetchCases, "toggle_"+string(settingCases))),
		tg.ButtonRow(tg.ToggleButton(settingLabels[settingNews], p.FetchNews, "toggle_"+string(settingNews))),
		tg.ButtonRow(tg.ToggleButton(settingLabels[settingSummary], p.Summarize, "toggle_"+string(settingSummary))),
	)
	return text, keyboard
}

func (h *Handler) handleSettings(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	text, keyboard := settingsView(h.prefs.Get(chatID))
	tg.EditOrSend(ctx, b, chatID, 0, text, keyboard)
}

func (h *Handler) handleToggleCommand(s setting) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil {
			return
		}
		chatID := update.Message.Chat.ID
		var on bool
		h.prefs.Update(chatID, func(p *domain.ChatPrefs) { on = s.toggle(p) })

		state := "off"
		if on {
			state = "on"
		}
		tg.SendText(ctx, b, chatID, fmt.Sprintf("%s is now %s.", settingLabels[s], state))
	}
}

func (h *Handler) handleToggleCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})

	s := setting(strings.TrimPrefix(update.CallbackQuery.Data, "toggle_"))
	if _, ok := settingLabels[s]; !ok {
		return
	}
	chatID, messageID := callbackTarget(update)
	if chatID == 0 {
		return
	}
	p := h.prefs.Update(chatID, func(p *domain.ChatPrefs) { s.toggle(p) })

	text, keyboard := settingsView(p)
	tg.EditOrSend(ctx, b, chatID, messageID, text, keyboard)
}
