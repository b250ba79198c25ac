package handler

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/lexmind/internal/domain"
	tg "github.com/set-night/lexmind/internal/telegram"
)

const (
	modelsPagePrefix = "models_page_"
	modelsPerPage    = 8
	// Runes of the search kept in callback data, which Telegram caps at 64 bytes.
	maxSearchInCallback = 16
)

// handleModels lists the backend model catalog; "/models <query>" filters it.
func (h *Handler) handleModels(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	search := ""
	if parts := strings.SplitN(update.Message.Text, " ", 2); len(parts) > 1 {
		search = strings.TrimSpace(parts[1])
	}
	h.sendModelsPage(ctx, b, update.Message.Chat.ID, 0, search, 0)
}

func (h *Handler) handleModelsPage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})

	chatID, messageID := callbackTarget(update)
	if chatID == 0 {
		return
	}
	page, search := parseModelsPage(update.CallbackQuery.Data)
	h.sendModelsPage(ctx, b, chatID, page, search, messageID)
}

func (h *Handler) sendModelsPage(ctx context.Context, b *bot.Bot, chatID int64, page int, search string, messageID int) {
	if h.models == nil {
		tg.SendText(ctx, b, chatID, "The configured model backend has no model catalog.")
		return
	}
	all, err := h.models.ListModels(ctx)
	if err != nil {
		slog.Error("list models", "chat_id", chatID, "error", err)
		tg.SendText(ctx, b, chatID, "❌ Could not load the model list.")
		return
	}

	text, keyboard := modelsView(filterModels(all, search), page, search)
	tg.EditOrSend(ctx, b, chatID, messageID, text, keyboard)
}

// parseModelsPage reads "models_page_<search>|<page>" callback data.
func parseModelsPage(data string) (page int, search string) {
	rest := strings.TrimPrefix(data, modelsPagePrefix)
	i := strings.LastIndex(rest, "|")
	if i < 0 {
		return 0, ""
	}
	page, _ = strconv.Atoi(rest[i+1:])
	return page, rest[:i]
}

func modelsView(list []domain.AIModel, page int, search string) (string, *models.InlineKeyboardMarkup) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].TotalPrice() < list[j].TotalPrice()
	})

	totalPages := max(1, (len(list)+modelsPerPage-1)/modelsPerPage)
	page = max(0, min(page, totalPages-1))

	var sb strings.Builder
	fmt.Fprintf(&sb, "🤖 *Models* (%d)\n", len(list))
	if search != "" {
		fmt.Fprintf(&sb, "Search: %s\n", search)
	}
	for _, m := range list[page*modelsPerPage : min(len(list), (page+1)*modelsPerPage)] {
		price := "free"
		if !m.IsFree() {
			price = fmt.Sprintf("$%.2f/$%.2f per 1M", m.PromptPrice, m.CompletionPrice)
		}
		fmt.Fprintf(&sb, "\n%s `%s`\n%s · %dk context · %s\n", modelCapsEmoji(m.Capabilities), m.ID, m.Name, m.ContextLength/1000, price)
	}

	var rows [][]models.InlineKeyboardButton
	if totalPages > 1 {
		if r := []rune(search); len(r) > maxSearchInCallback {
			search = string(r[:maxSearchInCallback])
		}
		rows = append(rows, tg.PaginationRow(page, totalPages, modelsPagePrefix+search+"|"))
	}
	return sb.String(), tg.InlineKeyboard(rows...)
}

func filterModels(list []domain.AIModel, query string) []domain.AIModel {
	if query == "" {
		return slices.Clone(list)
	}
	query = strings.ToLower(query)
	var filtered []domain.AIModel
	for _, m := range list {
		if strings.Contains(strings.ToLower(m.Name), query) ||
			strings.Contains(strings.ToLower(m.ID), query) ||
			strings.Contains(strings.ToLower(m.Description), query) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

func modelCapsEmoji(caps domain.ModelCapabilities) string {
	var emojis []string
	if caps.Vision {
		emojis = append(emojis, "👁")
	}
	if caps.Files {
		emojis = append(emojis, "📎")
	}
	if len(emojis) == 0 {
		return "💬"
	}
	return strings.Join(emojis, "")
}
