package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// Strategy turns one input file into a searchable PDF at output.
type Strategy interface {
	Name() string
	Run(ctx context.Context, input, output string) error
}

// OCRmyPDF runs the ocrmypdf wrapper. It accepts PDFs and single images.
type OCRmyPDF struct {
	Binary   string
	Language string
	// ImageDPI is passed for raster inputs that carry no resolution.
	ImageDPI  int
	ExtraArgs []string
	forImages bool
}

// ForImages returns a copy configured for raster input.
func (o OCRmyPDF) ForImages() OCRmyPDF {
	o.forImages = true
	return o
}

func (o OCRmyPDF) Name() string {
	if o.forImages {
		return "ocrmypdf-image"
	}
	return "ocrmypdf"
}

func (o OCRmyPDF) args(input, output string) []string {
	args := []string{"--language", orDefault(o.Language, "eng")}
	if o.forImages {
		if o.ImageDPI > 0 {
			args = append(args, "--image-dpi", strconv.Itoa(o.ImageDPI))
		}
	} else {
		// pages that already carry text are kept as they are
		args = append(args, "--skip-text")
	}
	args = append(args, o.ExtraArgs...)
	return append(args, input, output)
}

func (o OCRmyPDF) Run(ctx context.Context, input, output string) error {
	return runCommand(ctx, orDefault(o.Binary, "ocrmypdf"), o.args(input, output))
}

// Tesseract runs the tesseract CLI with its PDF renderer. It only reads
// raster images.
type Tesseract struct {
	Binary   string
	Language string
}

func (t Tesseract) Name() string { return "tesseract" }

func (t Tesseract) args(input, output string) []string {
	// tesseract appends ".pdf" to the output base itself
	base := strings.TrimSuffix(output, ".pdf")
	return []string{input, base, "-l", orDefault(t.Language, "eng"), "pdf"}
}

func (t Tesseract) Run(ctx context.Context, input, output string) error {
	return runCommand(ctx, orDefault(t.Binary, "tesseract"), t.args(input, output))
}

func runCommand(ctx context.Context, bin string, args []string) error {
	path, err := exec.LookPath(bin)
	if err != nil {
		return fmt.Errorf("%s not found: %w", bin, err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stderr = &stderr

	slog.Debug("Running OCR command.", "command", bin, "args", args)
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 512 {
			msg = msg[len(msg)-512:]
		}
		if msg != "" {
			return fmt.Errorf("%s failed: %w: %s", bin, err, msg)
		}
		return fmt.Errorf("%s failed: %w", bin, err)
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
