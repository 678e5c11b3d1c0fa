package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// TextLine is one recognized line in image pixel coordinates, origin top left.
type TextLine struct {
	Text string
	Box  image.Rectangle
}

// Recognizer finds the text lines of a raster image in process.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, imagePath, language string) ([]TextLine, error)
}

var (
	recognizersMu sync.RWMutex
	recognizers   = map[string]Recognizer{}
)

// RegisterRecognizer makes r selectable by name. Engines linked in behind a
// build tag register themselves from init.
func RegisterRecognizer(r Recognizer) {
	recognizersMu.Lock()
	defer recognizersMu.Unlock()
	recognizers[r.Name()] = r
}

func LookupRecognizer(name string) (Recognizer, bool) {
	recognizersMu.RLock()
	defer recognizersMu.RUnlock()
	r, ok := recognizers[name]
	return r, ok
}

// Recognizers lists the registered engine names.
func Recognizers() []string {
	recognizersMu.RLock()
	defer recognizersMu.RUnlock()
	names := make([]string, 0, len(recognizers))
	for n := range recognizers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TextLayer builds the searchable PDF without an external process: the image
// becomes a full page and every recognized line is stamped over it as
// invisible text.
type TextLayer struct {
	Recognizer Recognizer
	Language   string
}

func (t TextLayer) Name() string { return t.Recognizer.Name() }

func (t TextLayer) Run(ctx context.Context, input, output string) error {
	lines, err := t.Recognizer.Recognize(ctx, input, orDefault(t.Language, "eng"))
	if err != nil {
		return fmt.Errorf("%s failed: %w", t.Recognizer.Name(), err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return AssembleSearchablePDF(input, lines, output)
}

// AssembleSearchablePDF writes a one-page PDF at output holding the image at
// imagePath at its pixel size plus an invisible text layer for lines.
func AssembleSearchablePDF(imagePath string, lines []TextLine, output string) error {
	disableConfigDir.Do(api.DisableConfigDir)

	img, err := os.Open(imagePath)
	if err != nil {
		return err
	}
	defer img.Close()

	cfg, _, err := image.DecodeConfig(img)
	if err != nil {
		return fmt.Errorf("reading image size: %w", err)
	}
	if _, err := img.Seek(0, io.SeekStart); err != nil {
		return err
	}

	imp := pdfcpu.DefaultImportConfig()
	imp.Pos = types.Full

	var page bytes.Buffer
	if err := api.ImportImages(nil, &page, []io.Reader{img}, imp, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("importing image: %w", err)
	}

	stamps, err := lineStamps(lines, cfg.Height)
	if err != nil {
		return err
	}

	out, err := os.Create(output)
	if err != nil {
		return err
	}
	if len(stamps) == 0 {
		_, err = out.Write(page.Bytes())
	} else {
		m := map[int][]*model.Watermark{1: stamps}
		err = api.AddWatermarksSliceMap(bytes.NewReader(page.Bytes()), out, m, model.NewDefaultConfiguration())
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing text layer: %w", err)
	}
	return nil
}

// lineStamps converts lines to transparent text stamps. A full-page import
// maps one pixel to one point, so only the y axis needs flipping.
func lineStamps(lines []TextLine, pageHeight int) ([]*model.Watermark, error) {
	var stamps []*model.Watermark
	for _, l := range lines {
		text := strings.Join(strings.Fields(l.Text), " ")
		if text == "" || l.Box.Empty() {
			continue
		}
		size := int(float64(l.Box.Dy()) * 0.75)
		if size < 1 {
			size = 1
		}
		y := pageHeight - l.Box.Max.Y
		if y < 0 {
			y = 0
		}
		desc := fmt.Sprintf(
			"fontname:Helvetica, points:%d, position:bl, offset:%d %d, scalefactor:1 abs, rotation:0, opacity:0",
			size, l.Box.Min.X, y)
		wm, err := pdfcpu.ParseTextWatermarkDetails(text, desc, true, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("text layer for %q: %w", text, err)
		}
		stamps = append(stamps, wm)
	}
	return stamps, nil
}
