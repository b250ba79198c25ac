package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/set-night/lexmind/internal/domain"
	"github.com/set-night/lexmind/internal/observability"
)

// SystemInstruction is prepended to prompts that carry supplementary context.
const SystemInstruction = "You are a helpful assistant designed to provide information based on the user's query. " +
	"I've provided supplementary context, including legal cases and news articles, which you should incorporate into your response where relevant. " +
	"Maintain a natural conversational tone, but prioritize accuracy and relevance. " +
	"Do not explicitly mention you are using additional context unless directly asked. " +
	"Always include links and when including links, format them under 'Links:' heading, listing each link on a new line." +
	"Ensure no asterisks or special characters are visible in the final response. " +
	"If a file has been uploaded, analyze its content and integrate it into your answer. " +
	"Prioritize information from the uploaded file."

const (
	casesMarker = "\n\n[SUPPLEMENTARY LEGAL CONTEXT]\n"
	newsMarker  = "\n\n[SUPPLEMENTARY NEWS CONTEXT]\n"
)

var errSourceNotConfigured = errors.New("source not configured")

// Lookup fetches supplementary context for a query.
type Lookup interface {
	Lookup(ctx context.Context, query string) (string, error)
}

type LookupFunc func(ctx context.Context, query string) (string, error)

func (f LookupFunc) Lookup(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}

type EnrichOptions struct {
	FetchCases bool
	FetchNews  bool
}

// Enricher augments a message with case-law and news context. Lookups run
// concurrently, each bounded by its own timeout; a failed lookup is recorded
// in the diagnostics and never fails the request.
type Enricher struct {
	cases   Lookup
	news    Lookup
	timeout time.Duration
	metrics *observability.Metrics
}

func NewEnricher(cases, news Lookup, timeout time.Duration, metrics *observability.Metrics) *Enricher {
	return &Enricher{cases: cases, news: news, timeout: timeout, metrics: metrics}
}

type lookupOutcome struct {
	text string
	err  error
}

func (e *Enricher) Enrich(ctx context.Context, message string, opts EnrichOptions) (string, domain.Diagnostics) {
	diag := domain.Diagnostics{}
	if !opts.FetchCases && !opts.FetchNews {
		return message, diag
	}

	ctx, span := observability.Tracer().Start(ctx, "enricher.Enrich")
	defer span.End()
	span.SetAttributes(attribute.Bool("cases", opts.FetchCases), attribute.Bool("news", opts.FetchNews))

	var cases, news lookupOutcome
	g, gctx := errgroup.WithContext(ctx)
	if opts.FetchCases {
		g.Go(func() error {
			cases.text, cases.err = e.run(gctx, "cases", e.cases, message)
			return nil
		})
	}
	if opts.FetchNews {
		g.Go(func() error {
			news.text, news.err = e.run(gctx, "news", e.news, message)
			return nil
		})
	}
	_ = g.Wait()

	enriched := message
	if opts.FetchCases {
		if cases.err != nil {
			diag[domain.DiagLegalCasesError] = cases.err.Error()
		} else {
			diag[domain.DiagLegalCases] = cases.text
			enriched += casesMarker + cases.text
		}
	}
	if opts.FetchNews {
		if news.err != nil {
			diag[domain.DiagNewsError] = news.err.Error()
		} else {
			diag[domain.DiagNewsArticles] = news.text
			enriched += newsMarker + news.text
		}
	}
	return SystemInstruction + "\n\n" + enriched, diag
}

// run bounds a lookup by the enricher timeout even if the source ignores ctx.
func (e *Enricher) run(ctx context.Context, source string, l Lookup, query string) (string, error) {
	if l == nil {
		return "", fmt.Errorf("%s lookup: %w", source, errSourceNotConfigured)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	ch := make(chan lookupOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- lookupOutcome{err: fmt.Errorf("%s lookup panicked: %v", source, r)}
			}
		}()
		text, err := l.Lookup(ctx, query)
		ch <- lookupOutcome{text: text, err: err}
	}()

	var out lookupOutcome
	select {
	case out = <-ch:
	case <-ctx.Done():
		out.err = fmt.Errorf("%s lookup timed out after %s: %w", source, e.timeout, ctx.Err())
	}
	e.metrics.ObserveLookup(source, out.err == nil, time.Since(start))
	if out.err != nil {
		observability.LoggerFromContext(ctx).Warn("lookup failed", "source", source, "error", out.err)
	}
	return out.text, out.err
}
