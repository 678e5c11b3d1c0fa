// Package pipeline drives a run: one credential check, then OCR and upload
// for every accepted file below each input root.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/ingestion"
	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/metrics"
	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/models"
	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/ocr"
	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/storage"
)

// State is the lifecycle of a Runner.
type State int

const (
	Uninitialized State = iota
	CredentialsVerified
	Running
	Done
	Aborted
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case CredentialsVerified:
		return "credentials-verified"
	case Running:
		return "running"
	case Done:
		return "done"
	case Aborted:
		return "aborted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Uploader is the document API as the pipeline uses it.
type Uploader interface {
	VerifyCredentials(ctx context.Context) error
	Upload(ctx context.Context, filePath, desiredFilename string) error
}

// Processor produces a temporary searchable PDF for one file.
type Processor interface {
	Process(ctx context.Context, file models.InputFile) (*ocr.Artifact, error)
}

// Inspector checks an OCR output before it is uploaded.
type Inspector func(path string) (ocr.Report, error)

// Options configure a Runner. Uploader and Processor are required.
type Options struct {
	RunID     string
	Target    models.Target
	Uploader  Uploader
	Processor Processor
	Inspector Inspector
	Ledger    storage.Ledger
	Metrics   *metrics.Recorder
	FailFast  bool
	DryRun    bool
}

// Runner processes input roots for one upload target.
type Runner struct {
	runID    string
	target   models.Target
	uploader Uploader
	ocr      Processor
	inspect  Inspector
	ledger   storage.Ledger
	metrics  *metrics.Recorder
	failFast bool
	dryRun   bool

	state State
}

func NewRunner(opts Options) *Runner {
	r := &Runner{
		runID:    opts.RunID,
		target:   opts.Target,
		uploader: opts.Uploader,
		ocr:      opts.Processor,
		inspect:  opts.Inspector,
		ledger:   opts.Ledger,
		metrics:  opts.Metrics,
		failFast: opts.FailFast,
		dryRun:   opts.DryRun,
	}
	if r.ledger == nil {
		r.ledger = storage.NopLedger{}
	}
	if r.metrics == nil {
		r.metrics = metrics.New()
	}
	return r
}

func (r *Runner) State() State { return r.state }

// Summary reports what a run did.
type Summary struct {
	Uploaded   []string // desired filenames, in upload order
	Duplicates []string
	Listed     []string
	Failures   []error
}

// Failed reports whether any file or root failed.
func (s *Summary) Failed() bool { return len(s.Failures) > 0 }

// Run verifies the credentials once and then walks every root. Per-file
// failures are collected in the summary and the run continues, unless the
// runner is fail-fast, in which case the first one is returned.
func (r *Runner) Run(ctx context.Context, roots []string) (*Summary, error) {
	if r.state != Uninitialized {
		return nil, fmt.Errorf("runner already used (state %s)", r.state)
	}
	summary := &Summary{}

	done := r.metrics.Stage("credentials")
	err := r.uploader.VerifyCredentials(ctx)
	done()
	r.metrics.CredentialCheck(err == nil)
	if err != nil {
		r.state = Aborted
		if !errors.Is(err, models.ErrAuthentication) {
			err = models.Wrap(models.ErrAuthentication, err, "credential check")
		}
		return summary, err
	}
	r.state = CredentialsVerified
	slog.Info("Credentials verified.", "runId", r.runID)

	r.state = Running
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			r.state = Aborted
			return summary, err
		}
		slog.Info("Starting walk.", "runId", r.runID, "root", root)
		stats, err := ingestion.Walk(root, func(file models.InputFile) error {
			return r.handle(ctx, file, summary)
		}, func(err error) error {
			return r.unreadable(err, summary)
		})
		if err != nil {
			if ctx.Err() != nil {
				r.state = Aborted
				return summary, ctx.Err()
			}
			if r.failFast {
				r.state = Aborted
				return summary, err
			}
			slog.Error("Walk failed.", "runId", r.runID, "root", root, "error", err)
			summary.Failures = append(summary.Failures, err)
			continue
		}
		slog.Info("Finished walk.", "runId", r.runID, "root", root,
			"accepted", stats.Accepted, "skipped", stats.Skipped, "unreadable", stats.Unreadable)
	}

	r.state = Done
	return summary, nil
}

// handle is the walk action for one file.
func (r *Runner) handle(ctx context.Context, file models.InputFile, summary *Summary) error {
	src := file.Source.String()
	if r.dryRun {
		slog.Info("Would process file.", "runId", r.runID, "path", file.Path, "filename", desiredName(file))
		summary.Listed = append(summary.Listed, file.Path)
		r.metrics.File(src, metrics.OutcomeListed)
		return nil
	}

	err := r.processFile(ctx, file)
	switch {
	case err == nil:
		summary.Uploaded = append(summary.Uploaded, desiredName(file))
		r.metrics.File(src, metrics.OutcomeUploaded)
		return nil
	case errors.Is(err, errDuplicate):
		summary.Duplicates = append(summary.Duplicates, file.Path)
		r.metrics.File(src, metrics.OutcomeDuplicate)
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	}

	summary.Failures = append(summary.Failures, err)
	r.metrics.File(src, metrics.OutcomeFailed)
	if r.failFast {
		return err
	}
	return nil
}

// unreadable records an entry the walk could not read and keeps walking
// unless the runner is fail-fast.
func (r *Runner) unreadable(err error, summary *Summary) error {
	slog.Error("Skipping unreadable entry.", "runId", r.runID, "error", err)
	summary.Failures = append(summary.Failures, err)
	if r.failFast {
		return err
	}
	return nil
}
