package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/models"
)

// Artifact is a temporary OCR output owned by the caller of Process.
type Artifact struct {
	Path     string
	released bool
}

// Release deletes the artifact. It is safe to call more than once.
func (a *Artifact) Release() error {
	if a == nil || a.released {
		return nil
	}
	a.released = true
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return models.Wrap(models.ErrFilesystem, err, "removing temporary output")
	}
	return nil
}

// Dispatcher picks an OCR strategy by the file's classified source.
type Dispatcher struct {
	PDF     Strategy
	Image   Strategy
	TempDir string
}

// NewDispatcher builds a dispatcher writing temporary outputs to tempDir
// (the platform default when empty).
func NewDispatcher(pdf, image Strategy, tempDir string) *Dispatcher {
	return &Dispatcher{PDF: pdf, Image: image, TempDir: tempDir}
}

// StrategyFor returns the strategy for a source. It never looks at content.
func (d *Dispatcher) StrategyFor(src models.Source) Strategy {
	if src == models.SourcePDF {
		return d.PDF
	}
	return d.Image
}

// Process runs OCR for file into a fresh temporary PDF. On failure the
// temporary file is already removed.
func (d *Dispatcher) Process(ctx context.Context, file models.InputFile) (*Artifact, error) {
	strategy := d.StrategyFor(file.Source)
	if strategy == nil {
		return nil, models.Errorf(models.ErrConfiguration, "no OCR strategy for %s input", file.Source)
	}

	out, err := os.CreateTemp(d.TempDir, tempPattern(file.Path))
	if err != nil {
		return nil, models.Wrap(models.ErrFilesystem, err, "creating temporary output")
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return nil, models.Wrap(models.ErrFilesystem, err, "creating temporary output")
	}
	art := &Artifact{Path: out.Name()}

	slog.Debug("Dispatching OCR.", "path", file.Path, "strategy", strategy.Name(), "output", art.Path)
	if err := strategy.Run(ctx, file.Path, art.Path); err != nil {
		if rerr := art.Release(); rerr != nil {
			slog.Warn("Failed to remove temporary output.", "path", art.Path, "error", rerr)
		}
		return nil, models.Wrap(models.ErrOCR, err, fmt.Sprintf("%s strategy", strategy.Name()))
	}
	return art, nil
}

func tempPattern(input string) string {
	base := filepath.Base(input)
	base = strings.Map(func(r rune) rune {
		if r == '*' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, base)
	if len(base) > 64 {
		base = base[:64]
	}
	return base + "-*.pdf"
}
