package ingestion

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/models"
)

// Action handles one accepted file. A non-nil error stops the walk.
type Action func(models.InputFile) error

// ErrorFunc handles an entry below the root that could not be read. The
// entry is skipped; a non-nil return stops the walk.
type ErrorFunc func(err error) error

// WalkStats counts what a walk saw.
type WalkStats struct {
	Accepted   int
	Skipped    int
	Unreadable int
}

// Walk visits every regular file below root and calls action for each one
// with an accepted extension, once, in traversal order. Directories, symlinks
// and other non-regular entries are skipped. Unreadable entries below root are
// reported to onError as *models.FileError and skipped, so their siblings are
// still visited; an unreadable root fails the whole walk.
func Walk(root string, action Action, onError ErrorFunc) (WalkStats, error) {
	var stats WalkStats

	if _, err := os.Stat(root); err != nil {
		return stats, models.Wrap(models.ErrFilesystem, err, fmt.Sprintf("input path %s", root))
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return models.Wrap(models.ErrFilesystem, err, fmt.Sprintf("walking %s", path))
			}
			stats.Unreadable++
			ferr := models.NewFileError(path, "walk", models.ErrFilesystem, err)
			if onError != nil {
				if stop := onError(ferr); stop != nil {
					return stop
				}
			} else {
				slog.Warn("Skipping unreadable entry.", "path", path, "error", err)
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			slog.Debug("Skipping non-regular file.", "path", path, "mode", d.Type().String())
			stats.Skipped++
			return nil
		}
		file, ok := Detect(path)
		if !ok {
			stats.Skipped++
			return nil
		}
		stats.Accepted++
		return action(file)
	})
	return stats, err
}
