package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/lexmind/internal/domain"
)

func TestEnrichPassthrough(t *testing.T) {
	cases := &recordingLookup{answer: "cases"}
	e := NewEnricher(cases, nil, time.Second, nil)

	out, diag := e.Enrich(context.Background(), "What is bail?", EnrichOptions{})
	assert.Equal(t, "What is bail?", out)
	assert.Empty(t, diag)
	assert.Empty(t, cases.queries)
}

func TestEnrichCasesFailNewsSucceed(t *testing.T) {
	cases := &recordingLookup{err: errors.New("login wall")}
	news := &recordingLookup{answer: "Relevant LiveLaw News Articles:\n\nTitle: X\n"}
	e := NewEnricher(cases, news, time.Second, nil)

	out, diag := e.Enrich(context.Background(), "bail", EnrichOptions{FetchCases: true, FetchNews: true})

	assert.True(t, strings.HasPrefix(out, SystemInstruction+"\n\n"))
	assert.Contains(t, out, "bail\n\n[SUPPLEMENTARY NEWS CONTEXT]\nRelevant LiveLaw News Articles:")
	assert.NotContains(t, out, "[SUPPLEMENTARY LEGAL CONTEXT]")
	assert.Contains(t, diag[domain.DiagLegalCasesError], "login wall")
	assert.Equal(t, news.answer, diag[domain.DiagNewsArticles])
	_, hasCases := diag[domain.DiagLegalCases]
	assert.False(t, hasCases)
}

func TestEnrichOrderAndQuery(t *testing.T) {
	cases := &recordingLookup{answer: "C"}
	news := &recordingLookup{answer: "N"}
	e := NewEnricher(cases, news, time.Second, nil)

	out, _ := e.Enrich(context.Background(), "msg", EnrichOptions{FetchCases: true, FetchNews: true})
	assert.Equal(t, SystemInstruction+"\n\nmsg\n\n[SUPPLEMENTARY LEGAL CONTEXT]\nC\n\n[SUPPLEMENTARY NEWS CONTEXT]\nN", out)
	assert.Equal(t, []string{"msg"}, cases.queries)
	assert.Equal(t, []string{"msg"}, news.queries)
}

func TestEnrichTimeoutIsolated(t *testing.T) {
	slow := LookupFunc(func(ctx context.Context, query string) (string, error) {
		time.Sleep(time.Second)
		return "late", nil
	})
	news := &recordingLookup{answer: "N"}
	e := NewEnricher(slow, news, 30*time.Millisecond, nil)

	start := time.Now()
	out, diag := e.Enrich(context.Background(), "msg", EnrichOptions{FetchCases: true, FetchNews: true})
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	require.Contains(t, diag, domain.DiagLegalCasesError)
	assert.Contains(t, diag[domain.DiagLegalCasesError], "timed out")
	assert.Equal(t, "N", diag[domain.DiagNewsArticles])
	assert.Contains(t, out, "[SUPPLEMENTARY NEWS CONTEXT]\nN")
}

func TestEnrichUnconfiguredSource(t *testing.T) {
	e := NewEnricher(nil, nil, time.Second, nil)
	out, diag := e.Enrich(context.Background(), "msg", EnrichOptions{FetchNews: true})
	assert.Equal(t, SystemInstruction+"\n\nmsg", out)
	assert.Contains(t, diag[domain.DiagNewsError], "not configured")
}
