package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"os/exec"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/set-night/lexmind/internal/domain"
)

func (e *Extractor) extractImage(ctx context.Context, att domain.Attachment) Result {
	mode := att.Mode
	if mode == domain.ModeNone {
		if !att.IsScanned {
			return Result{Text: noModePlaceholder}
		}
		mode = domain.ModeTextOnly
	}

	img, err := imaging.Decode(bytes.NewReader(att.Data), imaging.AutoOrientation(true))
	if err != nil {
		return Result{Text: fmt.Sprintf("Error processing image: %v", err), Err: err}
	}

	var res Result
	if mode.WantsOCR() {
		res.Text, res.Err = e.recognize(ctx, img)
	}
	if mode.WantsImage() {
		payload, err := visionPayload(img, e.maxImageDim)
		if err != nil {
			return Result{Text: fmt.Sprintf("Error processing image: %v", err), Err: err}
		}
		res.Image = payload
	}
	return res
}

func (e *Extractor) recognize(ctx context.Context, img image.Image) (string, error) {
	if e.ocr == nil {
		err := fmt.Errorf("no OCR engine configured")
		return fmt.Sprintf("[OCR Error: %v]", err), err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return fmt.Sprintf("[OCR Error: %v]", err), err
	}
	text, err := e.ocr.Recognize(ctx, buf.Bytes())
	if err != nil {
		return fmt.Sprintf("[OCR Error: %v]", err), err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return noOCRTextPlaceholder, nil
	}
	return text, nil
}

// visionPayload flattens img onto white, bounds it to maxDim and encodes JPEG.
func visionPayload(img image.Image, maxDim int) (*domain.Image, error) {
	b := img.Bounds()
	if maxDim > 0 && (b.Dx() > maxDim || b.Dy() > maxDim) {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		b = img.Bounds()
	}
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	flat := imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return &domain.Image{MIMEType: "image/jpeg", Data: buf.Bytes()}, nil
}

// TesseractOCR runs the tesseract binary over stdin.
type TesseractOCR struct {
	path string
}

func NewTesseractOCR(path string) *TesseractOCR {
	return &TesseractOCR{path: path}
}

func (t *TesseractOCR) Recognize(ctx context.Context, img []byte) (string, error) {
	cmd := exec.CommandContext(ctx, t.path, "stdin", "stdout")
	cmd.Stdin = bytes.NewReader(img)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("tesseract: %w: %s", err, msg)
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}
