//go:build gosseract

// Package libtess recognizes text lines with the tesseract C API through
// gosseract. It links against libtesseract, so it is only compiled with the
// gosseract build tag; importing it registers the "gosseract" engine.
package libtess

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/ocr"
)

func init() {
	ocr.RegisterRecognizer(New())
}

// Recognizer implements ocr.Recognizer with a fresh gosseract client per image.
type Recognizer struct {
	clientFactory func() *gosseract.Client
}

func New() *Recognizer {
	return &Recognizer{clientFactory: gosseract.NewClient}
}

func (r *Recognizer) Name() string { return "gosseract" }

// Recognize returns one line per tesseract text line. language uses the
// tesseract "eng+deu" form.
func (r *Recognizer) Recognize(ctx context.Context, imagePath, language string) ([]ocr.TextLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := r.clientFactory()
	defer c.Close()

	if language != "" {
		if err := c.SetLanguage(strings.Split(language, "+")...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize lines: %w", err)
	}
	lines := make([]ocr.TextLine, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		lines = append(lines, ocr.TextLine{Text: text, Box: b.Box})
	}
	return lines, nil
}
