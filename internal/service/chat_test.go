package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/lexmind/internal/domain"
	"github.com/set-night/lexmind/internal/extract"
	"github.com/set-night/lexmind/internal/llm"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestChatSendWithAttachments(t *testing.T) {
	st := newTestStack(t, nil, nil)
	var seen string
	st.provider.Reply = func(_ context.Context, req llm.MockRequest) (string, error) {
		seen = req.Text
		return "Noted. The lease runs one year", nil
	}

	res, err := st.chat.Send(context.Background(), ChatRequest{
		UserID:  "u1",
		Message: "Review this",
		Attachments: []domain.Attachment{
			{Name: "lease.txt", MIMEType: "text/plain", Data: []byte("Term: one year")},
			{Name: "notes.txt", MIMEType: "text/plain", Data: []byte("Rent: 100")},
		},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, "Review this\n\nContent from lease.txt:\nTerm: one year\n\nContent from notes.txt:\nRent: 100\n", seen)
	assert.Equal(t, "Noted.\n\nThe lease runs one year", res.Response)
	require.Len(t, res.History, 2)
	assert.Equal(t, domain.RoleUser, res.History[0].Role)

	rec, err := st.sessions.Get(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Review this\n\nContent...", rec.Title)
}

func TestChatSendEmpty(t *testing.T) {
	st := newTestStack(t, nil, nil)
	_, err := st.chat.Send(context.Background(), ChatRequest{Message: "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
	assert.Equal(t, int64(0), st.provider.Calls())
	assert.Equal(t, 0, st.registry.Len())
}

func TestChatSendImage(t *testing.T) {
	st := newTestStack(t, nil, nil)
	var req llm.MockRequest
	st.provider.Reply = func(_ context.Context, r llm.MockRequest) (string, error) {
		req = r
		return "A red diagonal line.", nil
	}

	res, err := st.chat.Send(context.Background(), ChatRequest{
		SessionID: "img",
		Attachments: []domain.Attachment{
			{Name: "scan.png", MIMEType: "image/png", Data: pngBytes(t), Mode: domain.ModeVisual},
		},
	})
	require.NoError(t, err)

	assert.True(t, req.HasImage)
	assert.Equal(t, "Please analyze this image: scan.png", req.Text)
	assert.Equal(t, "img", res.SessionID)
	require.Len(t, res.History, 2)
	assert.Equal(t, "Please analyze this image: scan.png [Image was analyzed]", res.History[0].Content)
}

func TestChatSendEnrichAndSummarize(t *testing.T) {
	cases := &recordingLookup{answer: FormatCases([]domain.LegalCase{{Title: "A v B"}})}
	st := newTestStack(t, cases, nil)
	long := strings.Repeat("The tenant must pay rent on time every month. ", 10)
	var seen string
	st.provider.Reply = func(_ context.Context, req llm.MockRequest) (string, error) {
		seen = req.Text
		return long, nil
	}

	res, err := st.chat.Send(context.Background(), ChatRequest{
		Message:    "rent duties",
		FetchCases: true,
		Summarize:  true,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(seen, SystemInstruction))
	assert.Contains(t, seen, "Case: A v B")
	assert.Equal(t, []string{"rent duties"}, cases.queries)

	summary := res.Context[domain.DiagSummary]
	require.NotEmpty(t, summary)
	assert.True(t, strings.HasPrefix(summary, "Summary:\n\n"))
	assert.True(t, strings.HasSuffix(res.Response, "\n\n"+summary))
}

func TestChatSendAnonymousSkipsStore(t *testing.T) {
	st := newTestStack(t, nil, nil)
	res, err := st.chat.Send(context.Background(), ChatRequest{Message: "hi"})
	require.NoError(t, err)

	_, err = st.sessions.Get(context.Background(), res.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestChatReset(t *testing.T) {
	st := newTestStack(t, nil, nil)
	ctx := context.Background()

	res, err := st.chat.Send(ctx, ChatRequest{SessionID: "s1", UserID: "u1", Message: "hello"})
	require.NoError(t, err)
	require.Len(t, res.History, 2)

	id, err := st.chat.Reset(ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "s1", id)
	h, err := st.chat.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, h)

	newID, err := st.chat.Reset(ctx, "unknown", "u1")
	require.NoError(t, err)
	assert.NotEqual(t, "unknown", newID)
	_, ok := st.registry.Lookup(newID)
	assert.True(t, ok)
	rec, err := st.sessions.Get(ctx, newID)
	require.NoError(t, err)
	assert.Equal(t, "New Chat", rec.Title)
}

func TestChatHistory(t *testing.T) {
	st := newTestStack(t, nil, nil)
	ctx := context.Background()

	_, err := st.chat.History(ctx, "ghost")
	assert.Equal(t, domain.KindNotFound, domain.Kind(err))

	_, err = st.store.Upsert(ctx, domain.SessionRecord{SessionID: "persisted", UserID: "u1", Title: "Old"})
	require.NoError(t, err)
	h, err := st.chat.History(ctx, "persisted")
	require.NoError(t, err)
	assert.Empty(t, h)
	_, ok := st.registry.Lookup("persisted")
	assert.True(t, ok)

	_, err = st.chat.History(ctx, "")
	assert.Equal(t, domain.KindInvalidInput, domain.Kind(err))
}

func TestChatCleanup(t *testing.T) {
	st := newTestStack(t, nil, nil)
	for _, id := range []string{"a", "b", "c"} {
		st.registry.GetOrCreate(id)
	}
	assert.Equal(t, 3, st.chat.Cleanup())
	assert.Equal(t, 0, st.chat.Cleanup())
}

func TestAnalyzeImage(t *testing.T) {
	st := newTestStack(t, nil, nil)
	var seen string
	st.provider.Reply = func(_ context.Context, req llm.MockRequest) (string, error) {
		seen = req.Text
		return "A scanned page.", nil
	}

	res, err := st.chat.AnalyzeImage(context.Background(), AnalyzeImageRequest{
		Image: domain.Attachment{Name: "page.png", MIMEType: "image/png", Data: pngBytes(t)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Page one", res.ExtractedText)
	assert.Equal(t, "Analyze this image in detail\n\nText extracted from image:\nPage one", seen)
	assert.Equal(t, "A scanned page.", res.Response)

	_, err = st.chat.AnalyzeImage(context.Background(), AnalyzeImageRequest{
		Image: domain.Attachment{Name: "a.txt", MIMEType: "text/plain", Data: []byte("x")},
	})
	assert.Equal(t, domain.KindInvalidInput, domain.Kind(err))

	_, err = st.chat.AnalyzeImage(context.Background(), AnalyzeImageRequest{})
	assert.Equal(t, domain.KindInvalidInput, domain.Kind(err))
}

func TestChatSendImageCarriesEnrichment(t *testing.T) {
	news := &recordingLookup{answer: FormatNews([]domain.NewsArticle{{Title: "Notice rules tightened"}})}
	st := newTestStack(t, nil, news)
	var req llm.MockRequest
	st.provider.Reply = func(_ context.Context, r llm.MockRequest) (string, error) {
		req = r
		return "It is an eviction notice.", nil
	}

	res, err := st.chat.Send(context.Background(), ChatRequest{
		Message:   "what does this notice mean",
		FetchNews: true,
		Attachments: []domain.Attachment{
			{Name: "n.png", MIMEType: "image/png", Data: pngBytes(t), Mode: domain.ModeVisual},
		},
	})
	require.NoError(t, err)

	assert.True(t, req.HasImage)
	assert.True(t, strings.HasPrefix(req.Text, SystemInstruction))
	assert.Contains(t, req.Text, "[SUPPLEMENTARY NEWS CONTEXT]")
	assert.Contains(t, req.Text, "Notice rules tightened")
	assert.True(t, strings.HasSuffix(req.Text, "\n\nPlease analyze the image: n.png"))
	assert.Equal(t, []string{"what does this notice mean"}, news.queries)
	assert.NotEmpty(t, res.Context[domain.DiagNewsArticles])
}

func TestAnalyzeImageKeepsOCRErrorMarker(t *testing.T) {
	st := newTestStack(t, nil, nil)
	chat := NewChatService(
		extract.NewExtractor(stubOCR{err: errors.New("engine down")}, 1, 256, nil),
		NewEnricher(nil, nil, time.Second, nil),
		st.conversations, st.sessions, nil,
	)
	var seen string
	st.provider.Reply = func(_ context.Context, req llm.MockRequest) (string, error) {
		seen = req.Text
		return "Unreadable scan.", nil
	}

	res, err := chat.AnalyzeImage(context.Background(), AnalyzeImageRequest{
		Image: domain.Attachment{Name: "page.png", MIMEType: "image/png", Data: pngBytes(t), Mode: domain.ModeFull},
	})
	require.NoError(t, err)
	assert.Equal(t, "[OCR Error: engine down]", res.ExtractedText)
	assert.Equal(t, "Analyze this image in detail\n\nText extracted from image:\n[OCR Error: engine down]", seen)
}
