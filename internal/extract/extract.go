// Package extract turns uploaded files into prompt text and vision payloads.
//
// Extraction failures are soft: a failed file yields a bracketed placeholder
// or an inline error string in Result.Text and never aborts the request.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/set-night/lexmind/internal/domain"
	"github.com/set-night/lexmind/internal/observability"
)

type Format int

const (
	FormatUnsupported Format = iota
	FormatPDF
	FormatImage
	FormatDocument
	FormatSpreadsheet
	FormatPresentation
	FormatText
)

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatImage:
		return "image"
	case FormatDocument:
		return "document"
	case FormatSpreadsheet:
		return "spreadsheet"
	case FormatPresentation:
		return "presentation"
	case FormatText:
		return "text"
	default:
		return "unsupported"
	}
}

const (
	noModePlaceholder       = "[Image file. No analysis performed as no analysis mode was specified.]"
	noOCRTextPlaceholder    = "[No text detected in the image via OCR.]"
	scannedPDFPlaceholder   = "[PDF contains no extractable text. Appears to be scanned or image-based.]"
	presentationPlaceholder = "[PowerPoint file detected. Content extraction limited without additional processing.]"
)

// Result is the outcome of extracting one attachment. Err records the cause
// of a soft failure whose placeholder is already in Text.
type Result struct {
	Name   string
	Format Format
	Text   string
	Image  *domain.Image
	Err    error
}

// OCR recognizes text in an encoded image.
type OCR interface {
	Recognize(ctx context.Context, img []byte) (string, error)
}

type Extractor struct {
	ocr         OCR
	sem         *semaphore.Weighted
	maxImageDim int
	metrics     *observability.Metrics
}

func NewExtractor(ocr OCR, workers int64, maxImageDim int, metrics *observability.Metrics) *Extractor {
	if workers <= 0 {
		workers = 1
	}
	return &Extractor{
		ocr:         ocr,
		sem:         semaphore.NewWeighted(workers),
		maxImageDim: maxImageDim,
		metrics:     metrics,
	}
}

// DetectFormat dispatches by declared MIME type first and file extension second.
func DetectFormat(mimeType, name string) Format {
	if f := formatFromMIME(mimeType); f != FormatUnsupported {
		return f
	}
	return formatFromExt(strings.ToLower(filepath.Ext(name)))
}

func formatFromMIME(m string) Format {
	m = strings.ToLower(strings.TrimSpace(m))
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	switch {
	case m == "":
		return FormatUnsupported
	case strings.HasSuffix(m, "/pdf"):
		return FormatPDF
	case strings.HasPrefix(m, "image/"):
		return FormatImage
	case strings.Contains(m, "excel"), strings.Contains(m, "sheet"):
		return FormatSpreadsheet
	case strings.Contains(m, "powerpoint"), strings.Contains(m, "presentation"):
		return FormatPresentation
	case strings.Contains(m, "word"), strings.Contains(m, "document"):
		return FormatDocument
	case strings.HasPrefix(m, "text/"), m == "application/json":
		return FormatText
	}
	return FormatUnsupported
}

func formatFromExt(ext string) Format {
	switch ext {
	case ".pdf":
		return FormatPDF
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return FormatImage
	case ".docx", ".doc":
		return FormatDocument
	case ".xlsx", ".xls":
		return FormatSpreadsheet
	case ".pptx", ".ppt":
		return FormatPresentation
	case ".txt", ".csv", ".json", ".md":
		return FormatText
	}
	return FormatUnsupported
}

// sniffable reports whether the declared type says nothing useful, in which
// case the content itself is inspected.
func sniffable(mimeType string) bool {
	m := strings.ToLower(strings.TrimSpace(mimeType))
	return m == "" || m == "application/octet-stream"
}

func describeType(att domain.Attachment) string {
	if att.MIMEType != "" {
		return att.MIMEType
	}
	if ext := filepath.Ext(att.Name); ext != "" {
		return ext
	}
	return "unknown"
}

// Extract never fails; problems are reported inline in Result.Text.
func (e *Extractor) Extract(ctx context.Context, att domain.Attachment) (res Result) {
	start := time.Now()
	format := DetectFormat(att.MIMEType, att.Name)
	if format == FormatUnsupported && sniffable(att.MIMEType) && len(att.Data) > 0 {
		format = formatFromMIME(mimetype.Detect(att.Data).String())
	}

	defer func() {
		res.Name = att.Name
		res.Format = format
		e.metrics.ObserveExtraction(format.String(), res.Err == nil, time.Since(start))
		if res.Err != nil {
			slog.Warn("extraction degraded", "file", att.Name, "format", format.String(), "error", res.Err)
		}
	}()

	if format == FormatUnsupported {
		return Result{
			Text: fmt.Sprintf("[Unsupported file type: %s]", describeType(att)),
			Err:  fmt.Errorf("unsupported file type %s", describeType(att)),
		}
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return Result{Text: fmt.Sprintf("[Extraction cancelled: %v]", err), Err: err}
	}
	defer e.sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			res = Result{Text: fmt.Sprintf("Error processing file %s: %v", att.Name, r), Err: err}
		}
	}()

	switch format {
	case FormatPDF:
		return extractPDF(att.Data)
	case FormatImage:
		return e.extractImage(ctx, att)
	case FormatDocument:
		return extractDocument(att.Data)
	case FormatSpreadsheet:
		return extractSpreadsheet(att.Data)
	case FormatPresentation:
		return extractPresentation(att.Data)
	default:
		return extractText(att.Data)
	}
}

// ExtractAll extracts attachments concurrently, preserving input order.
func (e *Extractor) ExtractAll(ctx context.Context, atts []domain.Attachment) []Result {
	results := make([]Result, len(atts))
	g, gctx := errgroup.WithContext(ctx)
	for i, att := range atts {
		g.Go(func() error {
			results[i] = e.Extract(gctx, att)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
