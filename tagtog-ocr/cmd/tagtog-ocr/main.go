package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/config"
	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/metrics"
	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/models"
	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/ocr"
	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/pipeline"
	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/storage"
	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/tagtog"
)

const (
	exitOK = iota
	exitFilesFailed
	exitConfig
	exitAuth
	exitInternal
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	inv, err := config.ParseFlags(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stderr, config.Usage)
		return exitConfig
	}
	if err := config.LoadEnvFile(inv.EnvFile, inv.EnvFile != ".env"); err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}
	// credentials are checked before the positional arguments
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}
	if err := inv.ResolveTarget(); err != nil {
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stderr, config.Usage)
		return exitConfig
	}
	setupLogging(cfg)

	processor, err := newDispatcher(cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitConfig
	}

	runID := uuid.NewString()
	log := slog.With("runId", runID)
	log.Info("Starting run.", "config", cfg.String(), "target", inv.Target, "roots", inv.InputPaths)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := tagtog.New(tagtog.Options{
		Domain:             cfg.Domain,
		Credentials:        cfg.Credentials,
		Target:             inv.Target,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Timeout:            cfg.HTTPTimeout,
	})
	if err != nil {
		log.Error("Failed to create tagtog client.", "error", err)
		return exitConfig
	}
	defer client.Close()

	ledger, err := storage.Open(ctx, cfg.LedgerURL, cfg.LedgerTTL)
	if err != nil {
		log.Error("Failed to open upload ledger.", "error", err)
		return exitCode(err)
	}
	defer ledger.Close()

	recorder := metrics.New()
	defer func() {
		if err := recorder.Push(cfg.PushgatewayURL, runID); err != nil {
			log.Warn("Failed to push metrics.", "error", err)
		}
	}()

	var inspector pipeline.Inspector
	if cfg.Verify {
		inspector = ocr.Inspect
	}

	runner := pipeline.NewRunner(pipeline.Options{
		RunID:     runID,
		Target:    inv.Target,
		Uploader:  client,
		Processor: processor,
		Inspector: inspector,
		Ledger:    ledger,
		Metrics:   recorder,
		FailFast:  inv.FailFast,
		DryRun:    inv.DryRun,
	})

	summary, err := runner.Run(ctx, inv.InputPaths)
	if summary != nil {
		report(log, summary)
	}
	if err != nil {
		log.Error("Run aborted.", "state", runner.State().String(), "error", err)
		return exitCode(err)
	}
	if summary.Failed() {
		return exitFilesFailed
	}
	return exitOK
}

func newDispatcher(cfg *config.Config) (*ocr.Dispatcher, error) {
	pdfStrategy := ocr.OCRmyPDF{Language: cfg.Language, ImageDPI: cfg.ImageDPI}

	var imageStrategy ocr.Strategy
	switch cfg.ImageEngine {
	case "ocrmypdf":
		imageStrategy = pdfStrategy.ForImages()
	case "tesseract":
		imageStrategy = ocr.Tesseract{Language: cfg.Language}
	default:
		rec, ok := ocr.LookupRecognizer(cfg.ImageEngine)
		if !ok {
			return nil, models.Errorf(models.ErrConfiguration,
				"OCR_IMAGE_ENGINE %q is not linked into this binary (build with -tags %s)", cfg.ImageEngine, cfg.ImageEngine)
		}
		imageStrategy = ocr.TextLayer{Recognizer: rec, Language: cfg.Language}
	}
	return ocr.NewDispatcher(pdfStrategy, imageStrategy, cfg.TempDir), nil
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if strings.EqualFold(cfg.LogFormat, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func report(log *slog.Logger, s *pipeline.Summary) {
	log.Info("Run finished.",
		"uploaded", len(s.Uploaded),
		"duplicates", len(s.Duplicates),
		"listed", len(s.Listed),
		"failed", len(s.Failures))
	for _, err := range s.Failures {
		log.Error("File failed.", "error", err)
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, models.ErrAuthentication):
		return exitAuth
	case errors.Is(err, models.ErrConfiguration):
		return exitConfig
	case errors.Is(err, models.ErrOCR), errors.Is(err, models.ErrTransport), errors.Is(err, models.ErrFilesystem):
		return exitFilesFailed
	}
	return exitInternal
}
