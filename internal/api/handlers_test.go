package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/lexmind/internal/domain"
	"github.com/set-night/lexmind/internal/extract"
	"github.com/set-night/lexmind/internal/llm"
	"github.com/set-night/lexmind/internal/observability"
	"github.com/set-night/lexmind/internal/repository"
	"github.com/set-night/lexmind/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router   *gin.Engine
	provider *llm.MockProvider
	registry *service.Registry
	store    *repository.MemorySessionStore
}

func newTestServer(t *testing.T, models llm.ModelLister) *testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	provider := llm.NewMockProvider()
	registry := service.NewRegistry(provider, 100, time.Hour, metrics)
	conversations := service.NewConversationService(registry, provider, time.Second, metrics)
	store := repository.NewMemorySessionStore()
	sessions := service.NewSessionService(store, registry)
	extractor := extract.NewExtractor(nil, 2, 256, metrics)
	enricher := service.NewEnricher(nil, nil, 100*time.Millisecond, metrics)

	router := NewRouter(Deps{
		Chat:           service.NewChatService(extractor, enricher, conversations, sessions, metrics),
		Sessions:       sessions,
		Forms:          service.NewFormService(extractor, conversations),
		Models:         models,
		Gatherer:       reg,
		AdminKey:       "secret",
		MaxUploadBytes: 1 << 20,
	})
	return &testServer{router: router, provider: provider, registry: registry, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

type multipartFile struct {
	field, name, contentType string
	data                     []byte
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files ...multipartFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{`form-data; name="` + f.field + `"; filename="` + f.name + `"`}
		h["Content-Type"] = []string{f.contentType}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/health", nil, map[string]string{requestIDHeader: "abc"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", w.Header().Get(requestIDHeader))
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])

	w = s.do(t, http.MethodGet, "/health", nil, nil)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestChatJSON(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodPost, "/api/chat", map[string]any{
		"session_id": "s1",
		"user_id":    "u1",
		"message":    "Hello there",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[chatResponse](t, w)
	assert.Equal(t, "s1", res.SessionID)
	assert.Equal(t, "You said: Hello there", res.Response)
	require.Len(t, res.History, 2)
	assert.Equal(t, "user", res.History[0].Role)
	assert.Equal(t, "gemini", res.History[1].Role)
	assert.NotNil(t, res.AdditionalContext)

	w = s.do(t, http.MethodGet, "/api/user-chats?user_id=u1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	chats := decode[userChatsResponse](t, w)
	require.Len(t, chats.Chats, 1)
	assert.Equal(t, "Hello there", chats.Chats[0].Title)
}

func TestChatEmptyMessage(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodPost, "/api/chat", map[string]any{"message": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	res := decode[errorResponse](t, w)
	assert.Equal(t, "invalid_input", res.Kind)
	assert.Equal(t, domain.ErrEmptyMessage.Error(), res.Error)
}

func TestChatMultipartOrdersFiles(t *testing.T) {
	s := newTestServer(t, nil)
	var prompt string
	s.provider.Reply = func(_ context.Context, req llm.MockRequest) (string, error) {
		prompt = req.Text
		return "ok", nil
	}

	req := multipartRequest(t, "/api/chat", map[string]string{"message": "See files"},
		multipartFile{field: "file10", name: "c.txt", contentType: "text/plain", data: []byte("third")},
		multipartFile{field: "file2", name: "b.txt", contentType: "text/plain", data: []byte("second")},
		multipartFile{field: "file1", name: "a.txt", contentType: "text/plain", data: []byte("first")},
	)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	a := strings.Index(prompt, "Content from a.txt")
	b := strings.Index(prompt, "Content from b.txt")
	c := strings.Index(prompt, "Content from c.txt")
	assert.True(t, a > 0 && a < b && b < c, prompt)
}

func TestChatMultipartBadMode(t *testing.T) {
	s := newTestServer(t, nil)
	req := multipartRequest(t, "/api/chat", map[string]string{"analysisMode1": "xray"},
		multipartFile{field: "file1", name: "a.png", contentType: "image/png", data: []byte{1}},
	)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestServer(t, nil)
	req := multipartRequest(t, "/api/form/upload", nil,
		multipartFile{field: "file", name: "big.txt", contentType: "text/plain", data: bytes.Repeat([]byte("a"), 2<<20)},
	)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.GreaterOrEqual(t, w.Code, http.StatusBadRequest)
	assert.Less(t, w.Code, http.StatusInternalServerError)
}

func TestModelUnavailableStatus(t *testing.T) {
	s := newTestServer(t, nil)
	s.provider.Delay = 5 * time.Second
	w := s.do(t, http.MethodPost, "/api/chat", map[string]any{"message": "slow"}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "model_unavailable", decode[errorResponse](t, w).Kind)
}

func TestResetAndHistory(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodPost, "/api/chat", map[string]any{"session_id": "s1", "message": "hi"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/history?session_id=s1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[historyResponse](t, w).History, 2)

	w = s.do(t, http.MethodPost, "/api/reset", map[string]any{"session_id": "s1"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	reset := decode[resetResponse](t, w)
	assert.Equal(t, "s1", reset.SessionID)
	assert.Equal(t, "Chat history has been reset", reset.Message)

	w = s.do(t, http.MethodGet, "/api/history?session_id=s1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[historyResponse](t, w).History)

	w = s.do(t, http.MethodPost, "/api/reset", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	reset = decode[resetResponse](t, w)
	assert.NotEmpty(t, reset.SessionID)
	assert.Equal(t, "New chat session created", reset.Message)

	w = s.do(t, http.MethodGet, "/api/history?session_id=missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodGet, "/api/history", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCleanupRequiresAdminKey(t *testing.T) {
	s := newTestServer(t, nil)
	s.registry.GetOrCreate("a")
	s.registry.GetOrCreate("b")

	w := s.do(t, http.MethodPost, "/api/cleanup", nil, map[string]string{adminKeyHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 2, s.registry.Len())

	w = s.do(t, http.MethodPost, "/api/cleanup", nil, map[string]string{adminKeyHeader: "secret"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Cleaned up 2 chat sessions", decode[successResponse](t, w).Message)
	assert.Equal(t, 0, s.registry.Len())
}

func TestRenameAndDelete(t *testing.T) {
	s := newTestServer(t, nil)
	_, err := s.store.Upsert(context.Background(), domain.SessionRecord{SessionID: "s1", UserID: "u1", Title: "Old"})
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/rename-chat", map[string]any{"session_id": "s1", "title": "Lease"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	rec, err := s.store.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Lease", rec.Title)

	w = s.do(t, http.MethodPost, "/api/rename-chat", map[string]any{"session_id": "s1"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(t, http.MethodPost, "/api/rename-chat", map[string]any{"session_id": "nope", "title": "x"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/delete-chat", map[string]any{"session_id": "s1"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/api/delete-chat", map[string]any{"session_id": "s1"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserChatsRequiresUser(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/api/user-chats", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFormUpload(t *testing.T) {
	s := newTestServer(t, nil)
	req := multipartRequest(t, "/api/form/upload", nil,
		multipartFile{field: "file", name: "form.txt", contentType: "text/plain", data: []byte("Name: ____ Date: {date}")},
	)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[formResponse](t, w)
	require.Len(t, res.Fields, 2)
	assert.Equal(t, "____", res.Fields[0].Blank)
	assert.Equal(t, "{date}", res.Fields[1].Blank)

	w = s.do(t, http.MethodPost, "/api/form/upload", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeImageRequiresMultipart(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodPost, "/api/analyze-image", map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := multipartRequest(t, "/api/analyze-image", map[string]string{"prompt": "What is this?"})
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type staticModels []domain.AIModel

func (m staticModels) ListModels(context.Context) ([]domain.AIModel, error) { return m, nil }

func TestModels(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/api/models", nil, nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	s = newTestServer(t, staticModels{{ID: "google/gemini-2.0-flash-001", Name: "Gemini", Capabilities: domain.ModelCapabilities{Vision: true}}})
	w = s.do(t, http.MethodGet, "/api/models", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[map[string][]modelDTO](t, w)
	require.Len(t, res["models"], 1)
	assert.True(t, res["models"][0].Vision)
	assert.True(t, res["models"][0].Free)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, http.MethodPost, "/api/chat", map[string]any{"message": "count me"}, nil)

	w := s.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lexmind_chat_requests_total")
}
