package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/set-night/lexmind/internal/config"
	"github.com/set-night/lexmind/internal/domain"
	"github.com/set-night/lexmind/internal/extract"
	"github.com/set-night/lexmind/internal/observability"
)

type ChatRequest struct {
	SessionID   string
	UserID      string
	Message     string
	Attachments []domain.Attachment
	FetchCases  bool
	FetchNews   bool
	Summarize   bool
}

type ChatResult struct {
	SessionID string
	Response  string
	History   []domain.Turn
	Context   domain.Diagnostics
}

type AnalyzeImageRequest struct {
	SessionID string
	Prompt    string
	Image     domain.Attachment
}

type AnalyzeImageResult struct {
	SessionID     string
	Response      string
	ExtractedText string
	History       []domain.Turn
}

// ChatService runs the request pipeline: extraction, enrichment, the model
// call, post-processing and session bookkeeping.
type ChatService struct {
	extractor     *extract.Extractor
	enricher      *Enricher
	conversations *ConversationService
	sessions      *SessionService
	metrics       *observability.Metrics
}

func NewChatService(
	extractor *extract.Extractor,
	enricher *Enricher,
	conversations *ConversationService,
	sessions *SessionService,
	metrics *observability.Metrics,
) *ChatService {
	return &ChatService{
		extractor:     extractor,
		enricher:      enricher,
		conversations: conversations,
		sessions:      sessions,
		metrics:       metrics,
	}
}

func (s *ChatService) Send(ctx context.Context, req ChatRequest) (res *ChatResult, err error) {
	ctx, span := observability.Tracer().Start(ctx, "chat.Send")
	defer span.End()
	defer func() { s.metrics.ObserveChat(string(domain.Kind(err))) }()

	log := observability.LoggerFromContext(ctx)
	start := time.Now()

	message := req.Message
	var images []extract.Result
	if len(req.Attachments) > 0 {
		var blocks []string
		for _, r := range s.extractor.ExtractAll(ctx, req.Attachments) {
			if r.Text != "" {
				blocks = append(blocks, fmt.Sprintf("Content from %s:\n%s\n", r.Name, r.Text))
			}
			if r.Image != nil {
				images = append(images, r)
			}
		}
		if len(blocks) > 0 {
			message += "\n\n" + strings.Join(blocks, "\n")
		}
	}

	if strings.TrimSpace(message) == "" && len(images) == 0 {
		return nil, domain.ErrEmptyMessage
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	conv, created := s.conversations.Registry().GetOrCreate(sessionID)
	span.SetAttributes(attribute.String("session.id", sessionID), attribute.Bool("session.created", created))

	prompt, diag := s.enricher.Enrich(ctx, message, EnrichOptions{
		FetchCases: req.FetchCases,
		FetchNews:  req.FetchNews,
	})

	var reply string
	if len(images) > 0 {
		// Only the first image is sent; the model takes one image per call.
		reply, err = s.conversations.Send(ctx, conv, imagePrompt(prompt, images[0].Name), images[0].Image)
	} else {
		reply, err = s.conversations.Send(ctx, conv, prompt, nil)
		if err == nil {
			reply = FormatResponse(reply)
		}
	}
	if err != nil {
		log.Error("model call failed", "session_id", sessionID, "error", err)
		return nil, err
	}

	if req.Summarize {
		summary := Summarize(reply, config.SummaryMaxLength)
		diag[domain.DiagSummary] = summary
		reply += "\n\n" + summary
	}

	if err := s.sessions.Touch(ctx, sessionID, req.UserID, message); err != nil {
		log.Error("session upsert failed", "session_id", sessionID, "error", err)
		return nil, err
	}

	log.Info("chat handled",
		"session_id", sessionID,
		"attachments", len(req.Attachments),
		"images", len(images),
		"duration", time.Since(start),
	)

	return &ChatResult{
		SessionID: sessionID,
		Response:  reply,
		History:   s.conversations.History(conv),
		Context:   diag,
	}, nil
}

func imagePrompt(message, name string) string {
	if strings.TrimSpace(message) == "" {
		return fmt.Sprintf("Please analyze this image: %s", name)
	}
	return fmt.Sprintf("%s\n\nPlease analyze the image: %s", message, name)
}

// AnalyzeImage sends one image with a prompt. OCR text, when requested by the
// attachment mode, is appended to the prompt and returned.
func (s *ChatService) AnalyzeImage(ctx context.Context, req AnalyzeImageRequest) (*AnalyzeImageResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "chat.AnalyzeImage")
	defer span.End()

	if len(req.Image.Data) == 0 {
		return nil, fmt.Errorf("%w: image is required", domain.ErrMissingFile)
	}
	if req.Image.Mode == domain.ModeNone {
		req.Image.Mode = domain.ModeFull
	}

	r := s.extractor.Extract(ctx, req.Image)
	if r.Format != extract.FormatImage {
		return nil, fmt.Errorf("%w: %s is not an image", domain.ErrInvalidInput, req.Image.Name)
	}
	if r.Image == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrImageProcessing, r.Text)
	}

	prompt := req.Prompt
	if prompt == "" {
		prompt = config.DefaultImagePrompt
	}
	extracted := ""
	// OCR failure markers are passed on like recognized text.
	if req.Image.Mode.WantsOCR() && r.Text != "" {
		extracted = r.Text
		prompt += "\n\nText extracted from image:\n" + extracted
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	conv, _ := s.conversations.Registry().GetOrCreate(sessionID)

	reply, err := s.conversations.Send(ctx, conv, prompt, r.Image)
	if err != nil {
		return nil, err
	}
	return &AnalyzeImageResult{
		SessionID:     sessionID,
		Response:      reply,
		ExtractedText: extracted,
		History:       s.conversations.History(conv),
	}, nil
}

// Reset clears a live conversation, or mints a new session when sessionID is
// unknown. The returned id is the one the caller should use from now on.
func (s *ChatService) Reset(ctx context.Context, sessionID, userID string) (string, error) {
	if sessionID != "" {
		if conv, ok := s.conversations.Registry().Lookup(sessionID); ok {
			if err := s.conversations.Reset(ctx, conv); err != nil {
				return "", err
			}
			if err := s.sessions.MarkReset(ctx, sessionID, userID); err != nil {
				return "", err
			}
			return sessionID, nil
		}
	}

	newID := uuid.NewString()
	s.conversations.Registry().GetOrCreate(newID)
	if err := s.sessions.MarkReset(ctx, newID, userID); err != nil {
		return "", err
	}
	return newID, nil
}

// History returns the live history. A session that is persisted but no
// longer live is rehydrated empty.
func (s *ChatService) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	if conv, ok := s.conversations.Registry().Lookup(sessionID); ok {
		return s.conversations.History(conv), nil
	}
	exists, err := s.sessions.Exists(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("history %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	conv, _ := s.conversations.Registry().GetOrCreate(sessionID)
	return s.conversations.History(conv), nil
}

// Cleanup drops every live conversation and returns the count.
func (s *ChatService) Cleanup() int {
	return s.conversations.Registry().Clear()
}
