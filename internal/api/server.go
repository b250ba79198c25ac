package api

import (
	"net/http"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/set-night/lexmind/internal/llm"
	"github.com/set-night/lexmind/internal/service"
)

const serviceName = "lexmind-api"

type Deps struct {
	Chat     *service.ChatService
	Sessions *service.SessionService
	Forms    *service.FormService
	// Models is nil when the backend has no model catalog.
	Models llm.ModelLister
	// Gatherer backs /metrics; nil disables the route.
	Gatherer prometheus.Gatherer

	AdminKey       string
	CORSOrigins    []string
	MaxUploadBytes int64
}

type Handler struct {
	chat     *service.ChatService
	sessions *service.SessionService
	forms    *service.FormService
	models   llm.ModelLister
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		chat:     d.Chat,
		sessions: d.Sessions,
		forms:    d.Forms,
		models:   d.Models,
	}
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(
		RequestID(),
		RequestLogger(),
		Recovery(),
		otelgin.Middleware(serviceName),
		cors.New(corsConfig(d.CORSOrigins)),
		LimitBody(d.MaxUploadBytes),
	)
	SetupRoutes(router, NewHandler(d), d)
	return router
}

func SetupRoutes(router *gin.Engine, h *Handler, d Deps) {
	router.GET("/health", HealthCheck)
	if d.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		api.POST("/chat", h.Chat)
		api.POST("/analyze-image", h.AnalyzeImage)
		api.POST("/reset", h.Reset)
		api.GET("/history", h.History)
		api.POST("/cleanup", AdminKey(d.AdminKey), h.Cleanup)
		api.GET("/user-chats", h.UserChats)
		api.POST("/rename-chat", h.RenameChat)
		api.POST("/delete-chat", h.DeleteChat)
		api.POST("/form/upload", h.FormUpload)
		api.GET("/models", h.Models)
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", adminKeyHeader, requestIDHeader}
	cfg.ExposeHeaders = []string{requestIDHeader}
	return cfg
}
