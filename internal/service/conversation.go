package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/set-night/lexmind/internal/domain"
	"github.com/set-night/lexmind/internal/llm"
	"github.com/set-night/lexmind/internal/observability"
)

const imageAnnotation = " [Image was analyzed]"

// ConversationService drives model calls on registry conversations.
type ConversationService struct {
	registry *Registry
	provider llm.Provider
	timeout  time.Duration
	metrics  *observability.Metrics
}

func NewConversationService(registry *Registry, provider llm.Provider, timeout time.Duration, metrics *observability.Metrics) *ConversationService {
	return &ConversationService{
		registry: registry,
		provider: provider,
		timeout:  timeout,
		metrics:  metrics,
	}
}

func (s *ConversationService) Registry() *Registry { return s.registry }

// Send makes exactly one model call. With img set the vision model is used
// and the exchange is recorded with the prompt annotated; otherwise the text
// chat records it. A failed call leaves the history untouched.
func (s *ConversationService) Send(ctx context.Context, conv *Conversation, prompt string, img *domain.Image) (string, error) {
	ctx, span := observability.Tracer().Start(ctx, "conversation.Send")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", conv.ID), attribute.Bool("image", img != nil))

	if err := conv.acquire(ctx); err != nil {
		return "", fmt.Errorf("wait for session %s: %w", conv.ID, err)
	}
	defer conv.release()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	chat := conv.current()
	call := "text"
	start := time.Now()

	var reply string
	var err error
	if img != nil {
		call = "vision"
		reply, err = chat.SendImage(callCtx, prompt, *img)
		if err == nil {
			chat.Append(
				llm.Entry{Role: llm.RoleUser, Text: prompt + imageAnnotation},
				llm.Entry{Role: llm.RoleModel, Text: reply},
			)
		}
	} else {
		reply, err = chat.SendText(callCtx, prompt)
	}
	s.metrics.ObserveModelCall(call, err == nil, time.Since(start))

	if err != nil {
		err = s.classify(callCtx, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return reply, nil
}

func (s *ConversationService) classify(callCtx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrModelUnavailable):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: no reply within %s", domain.ErrModelUnavailable, s.timeout)
	default:
		return fmt.Errorf("%w: %v", domain.ErrModelCall, err)
	}
}

// Reset discards the conversation history, waiting for any in-flight send.
func (s *ConversationService) Reset(ctx context.Context, conv *Conversation) error {
	if err := conv.acquire(ctx); err != nil {
		return fmt.Errorf("wait for session %s: %w", conv.ID, err)
	}
	defer conv.release()
	conv.replace(s.provider.StartChat())
	return nil
}

// History projects the provider history onto turns.
func (s *ConversationService) History(conv *Conversation) []domain.Turn {
	return projectHistory(conv.current().History())
}

// projectHistory uses the recorded role of each entry. Entries that cannot be
// rendered become format-error markers and fall back to positional roles.
func projectHistory(entries []llm.Entry) []domain.Turn {
	turns := make([]domain.Turn, 0, len(entries))
	for i, e := range entries {
		role, ok := domain.ParseRole(e.Role)
		content := e.Text
		switch {
		case e.Err != nil:
			content = fmt.Sprintf("[Content format error: %v]", e.Err)
		case !ok:
			content = fmt.Sprintf("[Content format error: unknown role %q]", e.Role)
		}
		if !ok {
			role = domain.RoleUser
			if i%2 == 1 {
				role = domain.RoleAssistant
			}
		}
		turns = append(turns, domain.Turn{Role: role, Content: content})
	}
	return turns
}
