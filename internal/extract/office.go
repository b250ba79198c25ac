package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

var slidePartRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func extractDocument(data []byte) Result {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{Text: fmt.Sprintf("Error extracting text from document: %v", err), Err: err}
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		text, err := readPartText(f)
		if err != nil {
			return Result{Text: fmt.Sprintf("Error extracting text from document: %v", err), Err: err}
		}
		return Result{Text: text}
	}
	err = fmt.Errorf("word/document.xml not found")
	return Result{Text: fmt.Sprintf("Error extracting text from document: %v", err), Err: err}
}

func extractPresentation(data []byte) Result {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{Text: presentationPlaceholder, Err: err}
	}

	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		m := slidePartRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{num: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var b strings.Builder
	for _, s := range slides {
		text, err := readPartText(s.file)
		if err != nil {
			return Result{Text: presentationPlaceholder, Err: err}
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&b, "Slide %d:\n%s\n\n", s.num, text)
	}
	if b.Len() == 0 {
		return Result{Text: presentationPlaceholder}
	}
	return Result{Text: strings.TrimRight(b.String(), "\n")}
}

func readPartText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return collectText(rc)
}

// collectText gathers the text runs of an OOXML part, one line per paragraph.
func collectText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func extractSpreadsheet(data []byte) Result {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Result{Text: fmt.Sprintf("Error extracting text from spreadsheet: %v", err), Err: err}
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return Result{Text: fmt.Sprintf("Error extracting text from spreadsheet: %v", err), Err: err}
		}
		fmt.Fprintf(&b, "Sheet: %s\n", sheet)
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
		b.WriteString("\n\n")
	}
	return Result{Text: b.String()}
}

func extractText(data []byte) Result {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		err := fmt.Errorf("invalid UTF-8 encoding")
		return Result{Text: fmt.Sprintf("Error extracting text from text file: %v", err), Err: err}
	}
	return Result{Text: string(data)}
}
