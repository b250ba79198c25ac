package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/lexmind/internal/middleware"
	tg "github.com/set-night/lexmind/internal/telegram"
)

// handleCleanup drops every live conversation. Admins only.
func (h *Handler) handleCleanup(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	sender := middleware.GetSender(ctx)
	if !h.cfg.IsAdmin(sender) {
		return
	}

	n := h.chat.Cleanup()
	slog.Info("conversations cleaned up", "admin_id", sender, "count", n)
	h.tgLogger.LogCleanup(sender, n)
	tg.SendText(ctx, b, update.Message.Chat.ID, fmt.Sprintf("🧹 Cleaned up %d chat sessions.", n))
}
