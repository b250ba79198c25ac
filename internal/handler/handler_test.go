package handler

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/lexmind/internal/domain"
)

func TestAddressedText(t *testing.T) {
	text, ok := addressedText("@LexMindBot what is bail?", "lexmindbot", false)
	assert.True(t, ok)
	assert.Equal(t, "what is bail?", text)

	text, ok = addressedText("what is bail?", "lexmindbot", true)
	assert.True(t, ok)
	assert.Equal(t, "what is bail?", text)

	_, ok = addressedText("just chatting", "lexmindbot", false)
	assert.False(t, ok)
}

func TestErrorText(t *testing.T) {
	assert.Contains(t, errorText(domain.ErrEmptyMessage), "Send a question")
	assert.Contains(t, errorText(fmt.Errorf("call: %w", domain.ErrModelUnavailable)), "try again later")
	assert.Contains(t, errorText(errors.New("boom")), "Something went wrong")

	assert.False(t, reportable(domain.ErrEmptyMessage))
	assert.True(t, reportable(fmt.Errorf("%w: db down", domain.ErrStore)))
}

func TestLookupNote(t *testing.T) {
	assert.Empty(t, lookupNote(domain.Diagnostics{domain.DiagLegalCases: "ok"}))
	note := lookupNote(domain.Diagnostics{
		domain.DiagLegalCasesError: "timeout",
		domain.DiagNewsError:       "403",
	})
	assert.Contains(t, note, "case law and news lookup")
}

func TestSettingToggle(t *testing.T) {
	var p domain.ChatPrefs
	assert.True(t, settingCases.toggle(&p))
	assert.True(t, p.FetchCases)
	assert.False(t, settingCases.toggle(&p))
	assert.True(t, settingSummary.toggle(&p))
	assert.True(t, p.Summarize)
	assert.False(t, p.FetchNews)

	text, kb := settingsView(p)
	assert.Contains(t, text, "Settings")
	require.Len(t, kb.InlineKeyboard, 3)
	assert.Equal(t, "toggle_summary", kb.InlineKeyboard[2][0].CallbackData)
	assert.True(t, strings.HasPrefix(kb.InlineKeyboard[2][0].Text, "✅"))
}

func TestSessionsView(t *testing.T) {
	var recs []domain.SessionRecord
	for i := 0; i < 7; i++ {
		recs = append(recs, domain.SessionRecord{
			SessionID:   fmt.Sprintf("s%d", i),
			Title:       fmt.Sprintf("Chat %d", i),
			LastMessage: "hello",
		})
	}

	text, kb := sessionsView(recs, "s1", 0)
	assert.Contains(t, text, "*Chats* (7)")
	// five sessions, the new-chat row and pagination
	require.Len(t, kb.InlineKeyboard, 7)
	assert.Equal(t, "Chat 1 ✅", kb.InlineKeyboard[1][0].Text)
	assert.Equal(t, "switch_session_s1", kb.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "delete_session_s1", kb.InlineKeyboard[1][1].CallbackData)
	assert.Equal(t, "sessions_page_1", kb.InlineKeyboard[6][1].CallbackData)

	_, kb = sessionsView(recs, "", 9)
	require.Len(t, kb.InlineKeyboard, 4)
	assert.Equal(t, "switch_session_s5", kb.InlineKeyboard[0][0].CallbackData)

	_, kb = sessionsView(nil, "", 0)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, "new_session", kb.InlineKeyboard[0][0].CallbackData)
}

func TestRenderHistory(t *testing.T) {
	assert.Equal(t, "This conversation is empty.", renderHistory(nil))
	out := renderHistory([]domain.Turn{
		{Role: domain.RoleUser, Content: "What is bail?"},
		{Role: domain.RoleAssistant, Content: strings.Repeat("x", 400)},
	})
	assert.Contains(t, out, "👤 You: What is bail?")
	assert.Contains(t, out, "🤖 LexMind: "+strings.Repeat("x", historyTurnWidth)+"...")
}

func TestModelsView(t *testing.T) {
	var list []domain.AIModel
	for i := 0; i < 10; i++ {
		list = append(list, domain.AIModel{
			ID:          fmt.Sprintf("vendor/model-%d", i),
			Name:        fmt.Sprintf("Model %d", i),
			PromptPrice: float64(10 - i),
		})
	}

	text, kb := modelsView(filterModels(list, "model"), 0, "model")
	assert.Contains(t, text, "*Models* (10)")
	assert.Less(t, strings.Index(text, "model-9"), strings.Index(text, "model-8"), "cheapest first")
	require.Len(t, kb.InlineKeyboard, 1)
	next := kb.InlineKeyboard[0][1].CallbackData
	assert.Equal(t, "models_page_model|1", next)

	page, search := parseModelsPage(next)
	assert.Equal(t, 1, page)
	assert.Equal(t, "model", search)

	assert.Equal(t, "vendor/model-0", list[0].ID, "caller's slice is not reordered")
	assert.Len(t, filterModels(list, "model-3"), 1)
}
