package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/lexmind/internal/config"
	"github.com/set-night/lexmind/internal/domain"
	"github.com/set-night/lexmind/internal/middleware"
	"github.com/set-night/lexmind/internal/service"
	tg "github.com/set-night/lexmind/internal/telegram"
)

// HandleMessage runs a text, photo or document message through the chat
// pipeline. In groups the bot only answers when mentioned or replied to.
func (h *Handler) HandleMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || strings.HasPrefix(msg.Text, "/") {
		return
	}

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	group := isGroup(msg.Chat.Type)
	if group {
		var ok bool
		if text, ok = addressedText(text, h.botUsername, repliesToBot(msg, h.botUsername)); !ok {
			return
		}
	}

	chatID := msg.Chat.ID
	log := slog.With("chat_id", chatID)

	if err := h.prefs.TryBegin(chatID); err != nil {
		if !group {
			tg.SendText(ctx, b, chatID, "⏳ Please wait for the answer to your previous request.")
		}
		return
	}
	defer h.prefs.End(chatID)

	atts, err := h.downloadAttachments(ctx, b, msg)
	if err != nil {
		log.Error("download attachment", "error", err)
		tg.SendText(ctx, b, chatID, "❌ Could not download the file. Files up to 20 MB are supported.")
		return
	}

	stopTyping := tg.StartTyping(ctx, b, chatID)
	defer stopTyping()

	prefs := h.prefs.Get(chatID)
	res, err := h.chat.Send(ctx, service.ChatRequest{
		SessionID:   prefs.SessionID,
		UserID:      middleware.UserID(chatID),
		Message:     text,
		Attachments: atts,
		FetchCases:  prefs.FetchCases,
		FetchNews:   prefs.FetchNews,
		Summarize:   prefs.Summarize,
	})
	if err != nil {
		log.Error("chat request failed", "session_id", prefs.SessionID, "error", err)
		if reportable(err) {
			h.tgLogger.LogError(err, "chat", chatID)
		}
		tg.SendText(ctx, b, chatID, errorText(err))
		return
	}
	if res.SessionID != prefs.SessionID {
		h.prefs.Update(chatID, func(p *domain.ChatPrefs) { p.SessionID = res.SessionID })
	}

	replyTo := msg.ID
	if err := tg.SendLongMessage(ctx, b, chatID, res.Response, &replyTo); err != nil {
		log.Error("send reply", "error", err)
	}
	if note := lookupNote(res.Context); note != "" {
		tg.SendText(ctx, b, chatID, note)
	}
}

// downloadAttachments fetches the largest photo size or the document. Photos
// and image documents are analysed in full mode.
func (h *Handler) downloadAttachments(ctx context.Context, b *bot.Bot, msg *models.Message) ([]domain.Attachment, error) {
	var atts []domain.Attachment
	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		data, _, err := tg.DownloadFile(ctx, b, photo.FileID, config.MaxTelegramFileSize)
		if err != nil {
			return nil, fmt.Errorf("photo: %w", err)
		}
		atts = append(atts, domain.Attachment{
			Name:     "photo.jpg",
			MIMEType: "image/jpeg",
			Data:     data,
			Mode:     domain.ModeFull,
		})
	}
	if doc := msg.Document; doc != nil {
		if doc.FileSize > config.MaxTelegramFileSize {
			return nil, fmt.Errorf("document %s is %d bytes", doc.FileName, doc.FileSize)
		}
		data, path, err := tg.DownloadFile(ctx, b, doc.FileID, config.MaxTelegramFileSize)
		if err != nil {
			return nil, fmt.Errorf("document: %w", err)
		}
		name := doc.FileName
		if name == "" {
			name = path
		}
		att := domain.Attachment{Name: name, MIMEType: doc.MimeType, Data: data}
		if strings.HasPrefix(doc.MimeType, "image/") {
			att.Mode = domain.ModeFull
		}
		atts = append(atts, att)
	}
	return atts, nil
}

func isGroup(chatType models.ChatType) bool {
	return chatType == "group" || chatType == "supergroup"
}

func repliesToBot(msg *models.Message, botUsername string) bool {
	r := msg.ReplyToMessage
	return r != nil && r.From != nil && r.From.IsBot && strings.EqualFold(r.From.Username, botUsername)
}

// addressedText reports whether a group message is meant for the bot and
// returns it without the @mention.
func addressedText(text, botUsername string, reply bool) (string, bool) {
	if botUsername == "" {
		return text, reply
	}
	mention := "@" + strings.ToLower(botUsername)
	if i := strings.Index(strings.ToLower(text), mention); i >= 0 {
		return strings.TrimSpace(text[:i] + text[i+len(mention):]), true
	}
	return text, reply
}

// reportable reports whether err is worth mirroring to the admin chat.
func reportable(err error) bool {
	switch domain.Kind(err) {
	case domain.KindInvalidInput, domain.KindModelUnavailable:
		return false
	}
	return true
}

func errorText(err error) string {
	switch domain.Kind(err) {
	case domain.KindInvalidInput:
		return "✏️ Send a question, a document or a photo."
	case domain.KindModelUnavailable:
		return "⏳ The AI service is busy or not responding. Please try again later."
	case domain.KindModelError:
		return "❌ The AI service could not answer this request."
	case domain.KindImageProcessing:
		return "❌ Could not process the image."
	default:
		return "❌ Something went wrong while processing your request."
	}
}

// lookupNote tells the user which enabled lookups failed.
func lookupNote(diag domain.Diagnostics) string {
	var failed []string
	if _, ok := diag[domain.DiagLegalCasesError]; ok {
		failed = append(failed, "case law")
	}
	if _, ok := diag[domain.DiagNewsError]; ok {
		failed = append(failed, "news")
	}
	if len(failed) == 0 {
		return ""
	}
	return fmt.Sprintf("ℹ️ The %s lookup was unavailable; the answer is based on your message only.", strings.Join(failed, " and "))
}
