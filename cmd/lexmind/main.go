package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	lexmind "github.com/set-night/lexmind"
	"github.com/set-night/lexmind/internal/api"
	"github.com/set-night/lexmind/internal/config"
	"github.com/set-night/lexmind/internal/extract"
	"github.com/set-night/lexmind/internal/handler"
	"github.com/set-night/lexmind/internal/llm"
	"github.com/set-night/lexmind/internal/middleware"
	"github.com/set-night/lexmind/internal/observability"
	"github.com/set-night/lexmind/internal/repository"
	"github.com/set-night/lexmind/internal/service"
	"github.com/set-night/lexmind/internal/telegram"
)

func main() {
	if err := run(); err != nil {
		slog.Error("lexmind stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: observability.ParseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.OTelStdout)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracer(sctx); err != nil {
			slog.Warn("tracer shutdown", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	provider, err := llm.NewProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init llm provider: %w", err)
	}
	slog.Info("llm provider ready", "backend", provider.Name())

	var cases, news service.Lookup
	if cfg.CasesSearchURL != "" {
		cases = service.NewCaseLawScraper(cfg.CasesSearchURL, cfg.ScraperCookie)
	}
	if cfg.NewsSearchURL != "" {
		news = service.NewNewsScraper(cfg.NewsSearchURL, cfg.NewsBaseURL, cfg.ScraperCookie)
	}

	// Initialize services
	registry := service.NewRegistry(provider, cfg.RegistrySize, cfg.RegistryIdleTTL, metrics)
	conversations := service.NewConversationService(registry, provider, config.RequestTimeout, metrics)
	sessions := service.NewSessionService(store, registry)
	extractor := extract.NewExtractor(extract.NewTesseractOCR(cfg.TesseractPath), cfg.ExtractWorkers, config.MaxImageDimension, metrics)
	enricher := service.NewEnricher(cases, news, config.LookupTimeout, metrics)
	chat := service.NewChatService(extractor, enricher, conversations, sessions, metrics)
	forms := service.NewFormService(extractor, conversations)

	var catalog llm.ModelLister
	if lister, ok := provider.(llm.ModelLister); ok {
		catalog = lister
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: api.NewRouter(api.Deps{
			Chat:           chat,
			Sessions:       sessions,
			Forms:          forms,
			Models:         catalog,
			Gatherer:       reg,
			AdminKey:       cfg.AdminKey,
			CORSOrigins:    cfg.CORSOrigins,
			MaxUploadBytes: cfg.MaxUploadBytes(),
		}),
	}

	var tgBot *bot.Bot
	if cfg.BotToken != "" {
		if tgBot, err = newBot(ctx, cfg, chat, sessions, catalog); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	// Publish registry size
	g.Go(func() error {
		registry.RunJanitor(gctx, config.RegistryJanitorInterval)
		return nil
	})

	g.Go(func() error {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if tgBot != nil {
		g.Go(func() error {
			tgBot.Start(gctx)
			slog.Info("bot stopped gracefully")
			return nil
		})
	}

	return g.Wait()
}

// openStore connects to Postgres and migrates it, or falls back to the
// in-memory store when DATABASE_URL is empty.
func openStore(ctx context.Context, cfg *config.Config) (service.SessionStore, func(), error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL is empty, session records are kept in memory")
		return repository.NewMemorySessionStore(), func() {}, nil
	}

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	migrationsFS, err := fs.Sub(lexmind.MigrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("load embedded migrations: %w", err)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	return repository.NewPostgresSessionStore(pool), pool.Close, nil
}

func newBot(ctx context.Context, cfg *config.Config, chat *service.ChatService, sessions *service.SessionService, catalog llm.ModelLister) (*bot.Bot, error) {
	prefs := service.NewChatPrefsStore()

	// Set once the bot exists; a nil Logger drops reports.
	var tgLogger *telegram.Logger

	opts := []bot.Option{
		bot.WithDefaultHandler(func(context.Context, *bot.Bot, *models.Update) {}),
		bot.WithMiddlewares(
			middleware.Recover(func(err error, chatID int64) {
				tgLogger.LogError(err, "panic", chatID)
			}),
			middleware.Logging(),
			middleware.RateLimit(middleware.NewChatLimiter(config.RateLimitPerMinute)),
			middleware.ChatLoader(prefs),
		),
	}
	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	me, err := b.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("get bot info: %w", err)
	}
	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)

	if cfg.DropPendingUpdates {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
			slog.Warn("drop pending updates", "error", err)
		}
	}

	tgLogger = telegram.NewLogger(b, cfg)

	h := handler.New(handler.Deps{
		Bot:         b,
		Cfg:         cfg,
		Chat:        chat,
		Sessions:    sessions,
		Prefs:       prefs,
		Models:      catalog,
		TgLogger:    tgLogger,
		BotUsername: me.Username,
	})
	h.Register()
	return b, nil
}
