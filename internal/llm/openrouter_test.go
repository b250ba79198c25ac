package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/lexmind/internal/domain"
)

func newTestOpenRouter(t *testing.T, handler http.HandlerFunc) *OpenRouterProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := NewOpenRouterProvider("test-key", "text-model", "vision-model")
	p.baseURL = srv.URL
	return p
}

func TestOpenRouterSendTextKeepsHistory(t *testing.T) {
	var seen [][]chatMessage
	p := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-model", req.Model)
		seen = append(seen, req.Messages)
		w.Write([]byte(`{"choices":[{"message":{"content":"reply"}}]}`))
	})

	chat := p.StartChat()
	_, err := chat.SendText(context.Background(), "first")
	require.NoError(t, err)
	_, err = chat.SendText(context.Background(), "second")
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Len(t, seen[1], 3)
	assert.Equal(t, "assistant", seen[1][1].Role)

	h := chat.History()
	require.Len(t, h, 4)
	assert.Equal(t, RoleUser, h[2].Role)
	assert.Equal(t, "second", h[2].Text)
	assert.Equal(t, RoleModel, h[3].Role)
}

func TestOpenRouterUnavailable(t *testing.T) {
	p := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	chat := p.StartChat()
	_, err := chat.SendText(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Empty(t, chat.History())
}

func TestOpenRouterSendImageIsStateless(t *testing.T) {
	p := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Equal(t, "vision-model", raw["model"])
		body, _ := json.Marshal(raw["messages"])
		assert.True(t, strings.Contains(string(body), "data:image/jpeg;base64,"))
		w.Write([]byte(`{"choices":[{"message":{"content":"a contract"}}]}`))
	})
	chat := p.StartChat()
	reply, err := chat.SendImage(context.Background(), "what is this", domain.Image{MIMEType: "image/jpeg", Data: []byte{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, "a contract", reply)
	assert.Empty(t, chat.History())
}

func TestOpenRouterListModelsCached(t *testing.T) {
	var hits atomic.Int32
	p := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"data":[{"id":"google/gemini-2.0-flash-001","name":"Gemini Flash","pricing":{"prompt":"0.0000001","completion":"0.0000004"},"context_length":1000000}]}`))
	})

	models, err := p.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.True(t, models[0].Capabilities.Vision)
	assert.InDelta(t, 0.1, models[0].PromptPrice, 1e-9)

	_, err = p.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestOpenRouterListModelsErrorNotCached(t *testing.T) {
	var hits atomic.Int32
	p := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"No auth credentials found","code":401}}`))
	})

	_, err := p.ListModels(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	_, err = p.ListModels(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), hits.Load())
}
