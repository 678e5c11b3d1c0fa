package ingestion

import (
	"path/filepath"
	"strings"

	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/models"
)

var allowedExt = map[string]models.Source{
	"pdf":  models.SourcePDF,
	"png":  models.SourceImage,
	"jpg":  models.SourceImage,
	"jpeg": models.SourceImage,
}

// Classify returns the lowercased extension of the file name without the dot.
// A name without a dot, or whose only dot leads the name, has no extension.
func Classify(name string) string {
	base := filepath.Base(name)
	i := strings.LastIndex(base, ".")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(base[i+1:])
}

// SourceOf maps a classified extension to the kind of OCR input it is.
func SourceOf(ext string) models.Source {
	if s, ok := allowedExt[ext]; ok {
		return s
	}
	return models.SourceUnsupported
}

// Accepted reports whether files with this extension are processed.
func Accepted(ext string) bool {
	return SourceOf(ext) != models.SourceUnsupported
}

// Detect classifies path and reports whether it is an accepted input.
func Detect(path string) (models.InputFile, bool) {
	ext := Classify(path)
	src := SourceOf(ext)
	return models.InputFile{Path: path, Ext: ext, Source: src}, src != models.SourceUnsupported
}
