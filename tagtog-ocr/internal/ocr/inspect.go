package ocr

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	pdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// Report summarizes an OCR output file.
type Report struct {
	Pages     int
	TextChars int
}

// Searchable reports whether any text layer was found.
func (r Report) Searchable() bool { return r.TextChars > 0 }

// Inspect validates the PDF at path and measures its text layer. A file that
// fails validation is an error; a file without text is not.
func Inspect(path string) (Report, error) {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return Report{}, fmt.Errorf("invalid PDF output: %w", err)
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("counting pages: %w", err)
	}

	chars, err := textLength(path)
	if err != nil {
		// text extraction is best effort, pdfcpu already accepted the file
		chars = 0
	}
	return Report{Pages: pages, TextChars: chars}, nil
}

func textLength(path string) (int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	b, err := r.GetPlainText()
	if err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return 0, err
	}
	return len(strings.TrimSpace(buf.String())), nil
}
