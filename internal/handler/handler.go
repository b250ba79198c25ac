package handler

import (
	"github.com/go-telegram/bot"

	"github.com/set-night/lexmind/internal/config"
	"github.com/set-night/lexmind/internal/llm"
	"github.com/set-night/lexmind/internal/service"
	"github.com/set-night/lexmind/internal/telegram"
)

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot         *bot.Bot
	cfg         *config.Config
	chat        *service.ChatService
	sessions    *service.SessionService
	prefs       *service.ChatPrefsStore
	models      llm.ModelLister
	tgLogger    *telegram.Logger
	botUsername string
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot      *bot.Bot
	Cfg      *config.Config
	Chat     *service.ChatService
	Sessions *service.SessionService
	Prefs    *service.ChatPrefsStore
	// Models is nil when the backend has no model catalog.
	Models      llm.ModelLister
	TgLogger    *telegram.Logger
	BotUsername string
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:         deps.Bot,
		cfg:         deps.Cfg,
		chat:        deps.Chat,
		sessions:    deps.Sessions,
		prefs:       deps.Prefs,
		models:      deps.Models,
		tgLogger:    deps.TgLogger,
		botUsername: deps.BotUsername,
	}
}
