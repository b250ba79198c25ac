package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/set-night/lexmind/internal/domain"
	"github.com/set-night/lexmind/internal/extract"
	"github.com/set-night/lexmind/internal/observability"
)

var blankRe = regexp.MustCompile(`[_]+|\[.*?\]|\{.*?\}`)

type FormField struct {
	Blank       string
	Description string
}

type FormResult struct {
	SessionID string
	Fields    []FormField
}

// FormService finds fill-in blanks in an uploaded document and asks the
// model what each one expects.
type FormService struct {
	extractor     *extract.Extractor
	conversations *ConversationService
}

func NewFormService(extractor *extract.Extractor, conversations *ConversationService) *FormService {
	return &FormService{extractor: extractor, conversations: conversations}
}

// FindBlanks returns distinct blanks in order of first appearance.
func FindBlanks(text string) []string {
	var blanks []string
	seen := make(map[string]bool)
	for _, b := range blankRe.FindAllString(text, -1) {
		if seen[b] {
			continue
		}
		seen[b] = true
		blanks = append(blanks, b)
	}
	return blanks
}

// Describe runs in a fresh session. A failed description is reported inline
// for that blank and the rest continue.
func (s *FormService) Describe(ctx context.Context, doc domain.Attachment) (*FormResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "form.Describe")
	defer span.End()

	if len(doc.Data) == 0 {
		return nil, fmt.Errorf("%w: form file is required", domain.ErrMissingFile)
	}

	r := s.extractor.Extract(ctx, doc)
	if r.Err != nil || strings.TrimSpace(r.Text) == "" {
		return nil, fmt.Errorf("%w: could not extract text from %s: %s", domain.ErrInvalidInput, doc.Name, r.Text)
	}

	sessionID := uuid.NewString()
	conv, _ := s.conversations.Registry().GetOrCreate(sessionID)

	blanks := FindBlanks(r.Text)
	fields := make([]FormField, 0, len(blanks))
	for _, blank := range blanks {
		prompt := fmt.Sprintf("What information should be filled in the blank: '%s' in a legal document?", blank)
		desc, err := s.conversations.Send(ctx, conv, prompt, nil)
		if err != nil {
			desc = fmt.Sprintf("Error getting description: %v", err)
		}
		fields = append(fields, FormField{Blank: blank, Description: desc})
	}

	observability.LoggerFromContext(ctx).Info("form described", "session_id", sessionID, "blanks", len(fields))
	return &FormResult{SessionID: sessionID, Fields: fields}, nil
}
