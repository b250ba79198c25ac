package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"sort"
	"strconv"
	"strings"

	"github.com/set-night/lexmind/internal/domain"
)

// attachmentsFromForm collects file<N> parts in numeric order together with
// their isScanned<N> and analysisMode<N> options.
func attachmentsFromForm(form *multipart.Form) ([]domain.Attachment, error) {
	type part struct {
		suffix string
		order  int
		header *multipart.FileHeader
	}
	var parts []part
	for key, headers := range form.File {
		if !strings.HasPrefix(key, "file") || len(headers) == 0 || headers[0].Filename == "" {
			continue
		}
		suffix := strings.TrimPrefix(key, "file")
		order, err := strconv.Atoi(suffix)
		if err != nil {
			order = -1
		}
		parts = append(parts, part{suffix: suffix, order: order, header: headers[0]})
	}
	sort.Slice(parts, func(i, j int) bool {
		if parts[i].order != parts[j].order {
			return parts[i].order < parts[j].order
		}
		return parts[i].suffix < parts[j].suffix
	})

	atts := make([]domain.Attachment, 0, len(parts))
	for _, p := range parts {
		mode, ok := domain.ParseAnalysisMode(formValue(form, "analysisMode"+p.suffix))
		if !ok {
			return nil, fmt.Errorf("%w: unknown analysisMode%s", domain.ErrInvalidInput, p.suffix)
		}
		att, err := readAttachment(p.header)
		if err != nil {
			return nil, err
		}
		att.IsScanned = formBool(form, "isScanned"+p.suffix)
		att.Mode = mode
		atts = append(atts, att)
	}
	return atts, nil
}

func readAttachment(fh *multipart.FileHeader) (domain.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return domain.Attachment{
		Name:     fh.Filename,
		MIMEType: fh.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func formBool(form *multipart.Form, key string) bool {
	return strings.EqualFold(formValue(form, key), "true")
}
