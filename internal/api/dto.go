package api

import (
	"time"

	"github.com/set-night/lexmind/internal/domain"
)

type turnDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func toTurnDTOs(turns []domain.Turn) []turnDTO {
	out := make([]turnDTO, len(turns))
	for i, t := range turns {
		out[i] = turnDTO{Role: t.Role.Wire(), Content: t.Content}
	}
	return out
}

type chatJSONRequest struct {
	SessionID  string `json:"session_id"`
	UserID     string `json:"user_id"`
	Message    string `json:"message"`
	FetchCases bool   `json:"fetchCases"`
	FetchNews  bool   `json:"fetchNews"`
	Summarize  bool   `json:"summarize"`
}

type chatResponse struct {
	SessionID         string            `json:"session_id"`
	Response          string            `json:"response"`
	History           []turnDTO         `json:"history"`
	AdditionalContext map[string]string `json:"additional_context"`
}

type analyzeImageResponse struct {
	SessionID     string    `json:"session_id"`
	Response      string    `json:"response"`
	ExtractedText string    `json:"extracted_text"`
	History       []turnDTO `json:"history"`
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Title     string `json:"title"`
}

type resetResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type historyResponse struct {
	SessionID string    `json:"session_id"`
	History   []turnDTO `json:"history"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type chatSummaryDTO struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	LastMessage string     `json:"lastMessage"`
	Timestamp   *time.Time `json:"timestamp"`
}

type userChatsResponse struct {
	UserID string           `json:"user_id"`
	Chats  []chatSummaryDTO `json:"chats"`
}

func toChatSummaries(recs []domain.SessionRecord) []chatSummaryDTO {
	out := make([]chatSummaryDTO, len(recs))
	for i, r := range recs {
		out[i] = chatSummaryDTO{ID: r.SessionID, Title: r.Title, LastMessage: r.LastMessage}
		if !r.Timestamp.IsZero() {
			ts := r.Timestamp
			out[i].Timestamp = &ts
		}
	}
	return out
}

// formFieldDTO keeps fields in blank order; the response is a list rather
// than a map so the order survives JSON encoding.
type formFieldDTO struct {
	Blank       string `json:"blank"`
	Description string `json:"description"`
}

type formResponse struct {
	SessionID string         `json:"session_id"`
	Fields    []formFieldDTO `json:"fields"`
}

type modelDTO struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ContextLength   int     `json:"context_length"`
	PromptPrice     float64 `json:"prompt_price"`
	CompletionPrice float64 `json:"completion_price"`
	Free            bool    `json:"free"`
	Vision          bool    `json:"vision"`
	Files           bool    `json:"files"`
}

func toModelDTOs(models []domain.AIModel) []modelDTO {
	out := make([]modelDTO, len(models))
	for i := range models {
		m := &models[i]
		out[i] = modelDTO{
			ID:              m.ID,
			Name:            m.Name,
			ContextLength:   m.ContextLength,
			PromptPrice:     m.PromptPrice,
			CompletionPrice: m.CompletionPrice,
			Free:            m.IsFree(),
			Vision:          m.Capabilities.Vision,
			Files:           m.Capabilities.Files,
		}
	}
	return out
}
