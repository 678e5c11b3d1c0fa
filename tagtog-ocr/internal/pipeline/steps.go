package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/ingestion"
	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/models"
	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/ocr"
	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/tagtog"
)

// errDuplicate ends a file's steps early without failing it.
var errDuplicate = errors.New("already uploaded")

// fileState is carried through the steps of one file.
type fileState struct {
	file     models.InputFile
	log      *slog.Logger
	checksum string
	artifact *ocr.Artifact
	report   ocr.Report
	filename string
	size     int64
}

type step struct {
	name string
	kind error
	run  func(context.Context, *fileState) error
}

func (r *Runner) steps() []step {
	return []step{
		{"checksum", models.ErrFilesystem, r.checksumNode},
		{"ocr", models.ErrOCR, r.ocrNode},
		{"inspect", models.ErrOCR, r.inspectNode},
		{"upload", models.ErrTransport, r.uploadNode},
	}
}

// processFile runs every step for one file. The OCR artifact is released on
// every path out of here.
func (r *Runner) processFile(ctx context.Context, file models.InputFile) (err error) {
	s := &fileState{
		file:     file,
		log:      slog.With("runId", r.runID, "path", file.Path, "source", file.Source.String()),
		filename: desiredName(file),
	}
	defer func() {
		if rerr := s.artifact.Release(); rerr != nil {
			s.log.Error("Failed to remove temporary output.", "artifact", s.artifact.Path, "error", rerr)
			err = errors.Join(err, models.NewFileError(file.Path, "cleanup", models.ErrFilesystem, rerr))
		}
	}()

	for _, st := range r.steps() {
		if err := ctx.Err(); err != nil {
			return err
		}
		done := r.metrics.Stage(st.name)
		err := st.run(ctx, s)
		done()
		if errors.Is(err, errDuplicate) {
			return errDuplicate
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Error("File processing failed.", "stage", st.name, "error", err)
			return models.NewFileError(file.Path, st.name, kindOf(err, st.kind), err)
		}
	}
	r.record(ctx, s)
	s.log.Info("Document uploaded.", "filename", s.filename, "pages", s.report.Pages)
	return nil
}

func desiredName(file models.InputFile) string {
	return tagtog.DesiredFilename(file.Path, file.Source)
}

func (r *Runner) checksumNode(ctx context.Context, s *fileState) error {
	sum, err := ingestion.FileChecksum(s.file.Path)
	if err != nil {
		return err
	}
	s.checksum = sum
	s.log = s.log.With("checksum", sum)

	seen, err := r.ledger.Seen(ctx, r.target, sum)
	if err != nil {
		// the ledger only saves work, an unreachable one must not block uploads
		s.log.Warn("Ledger lookup failed, uploading anyway.", "error", err)
		return nil
	}
	if seen {
		s.log.Info("Duplicate content already uploaded. Skipping.")
		return errDuplicate
	}
	return nil
}

func (r *Runner) ocrNode(ctx context.Context, s *fileState) error {
	art, err := r.ocr.Process(ctx, s.file)
	if err != nil {
		return err
	}
	s.artifact = art
	return nil
}

func (r *Runner) inspectNode(_ context.Context, s *fileState) error {
	info, err := os.Stat(s.artifact.Path)
	if err != nil {
		return models.Wrap(models.ErrFilesystem, err, "reading OCR output")
	}
	if info.Size() == 0 {
		return models.Errorf(models.ErrOCR, "OCR produced an empty file")
	}
	s.size = info.Size()

	if r.inspect == nil {
		return nil
	}
	report, err := r.inspect(s.artifact.Path)
	if err != nil {
		return err
	}
	s.report = report
	if !report.Searchable() {
		s.log.Warn("OCR output has no text layer.", "pages", report.Pages)
	}
	return nil
}

func (r *Runner) uploadNode(ctx context.Context, s *fileState) error {
	if err := r.uploader.Upload(ctx, s.artifact.Path, s.filename); err != nil {
		return err
	}
	r.metrics.Uploaded(s.size)
	return nil
}

func (r *Runner) record(ctx context.Context, s *fileState) {
	meta := models.Metadata{
		RunID:      r.runID,
		Path:       s.file.Path,
		Checksum:   s.checksum,
		Filename:   s.filename,
		Target:     r.target,
		Pages:      s.report.Pages,
		UploadedAt: time.Now().UTC(),
	}
	if err := r.ledger.Record(ctx, meta); err != nil {
		s.log.Warn("Failed to record upload in ledger.", "error", err)
	}
}

// kindOf keeps the kind an error already carries, falling back to def.
func kindOf(err, def error) error {
	for _, k := range []error{models.ErrFilesystem, models.ErrOCR, models.ErrTransport, models.ErrConfiguration} {
		if errors.Is(err, k) {
			return k
		}
	}
	return def
}
