package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/config"
	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/models"
	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/ocr"
	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/tagtog/tagtogtest"
)

func setupEnv(t *testing.T, domain, password string) {
	t.Helper()
	t.Setenv("TAGTOG_DOMAIN", domain)
	t.Setenv("TAGTOG_USERNAME", "alice")
	t.Setenv("TAGTOG_PASSWORD", password)
	t.Setenv("TAGTOG_TOKEN", "")
	t.Setenv("OCR_IMAGE_ENGINE", "")
	t.Setenv("LEDGER_URL", "")
	t.Setenv("PUSHGATEWAY_URL", "")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("LOG_LEVEL", "error")
}

func TestRun_MissingArguments(t *testing.T) {
	setupEnv(t, "http://127.0.0.1:1", "s3cret")
	var stderr bytes.Buffer

	assert.Equal(t, exitConfig, run([]string{"-env-file=", "alice", "papers"}, &stderr))
	assert.Contains(t, stderr.String(), "missing required argument <folder>")
}

func TestRun_CredentialsCheckedBeforeArguments(t *testing.T) {
	t.Setenv("TAGTOG_USERNAME", "")
	t.Setenv("TAGTOG_PASSWORD", "")
	var stderr bytes.Buffer

	assert.Equal(t, exitConfig, run([]string{"-env-file="}, &stderr))
	assert.Contains(t, stderr.String(), "TAGTOG_USERNAME")
	assert.NotContains(t, stderr.String(), "missing required argument")
}

func TestRun_UnlinkedImageEngine(t *testing.T) {
	srv := tagtogtest.NewServer("alice", "s3cret")
	defer srv.Close()
	setupEnv(t, srv.URL, "s3cret")
	t.Setenv("OCR_IMAGE_ENGINE", "gosseract")
	if _, ok := ocr.LookupRecognizer("gosseract"); ok {
		t.Skip("binary built with the gosseract engine")
	}
	var stderr bytes.Buffer

	assert.Equal(t, exitConfig, run([]string{"-env-file=", "alice", "papers", "pool", t.TempDir()}, &stderr))
	assert.Contains(t, stderr.String(), "not linked")
	assert.Zero(t, srv.CredentialChecks())
}

func TestNewDispatcher_SelectsImageStrategy(t *testing.T) {
	for engine, want := range map[string]string{
		"tesseract": "tesseract",
		"ocrmypdf":  "ocrmypdf-image",
	} {
		d, err := newDispatcher(&config.Config{ImageEngine: engine, Language: "eng"})
		require.NoError(t, err)
		assert.Equal(t, want, d.Image.Name(), engine)
		assert.Equal(t, "ocrmypdf", d.PDF.Name())
	}
}

func TestRun_MissingCredentials(t *testing.T) {
	t.Setenv("TAGTOG_USERNAME", "")
	t.Setenv("TAGTOG_PASSWORD", "")
	assert.Equal(t, exitConfig, run([]string{"-env-file=", "alice", "papers", "pool", t.TempDir()}, io.Discard))
}

func TestRun_DryRun(t *testing.T) {
	srv := tagtogtest.NewServer("alice", "s3cret")
	defer srv.Close()
	setupEnv(t, srv.URL, "s3cret")

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.pdf"), []byte("%PDF"), 0o644))

	code := run([]string{"-dry-run", "-env-file=", "alice", "papers", "pool", root}, io.Discard)

	assert.Equal(t, exitOK, code)
	assert.Equal(t, 1, srv.CredentialChecks())
	assert.Empty(t, srv.Uploads())
}

func TestRun_BadCredentials(t *testing.T) {
	srv := tagtogtest.NewServer("alice", "s3cret")
	defer srv.Close()
	setupEnv(t, srv.URL, "wrong")

	code := run([]string{"-env-file=", "alice", "papers", "pool", t.TempDir()}, io.Discard)

	assert.Equal(t, exitAuth, code)
	assert.Empty(t, srv.Uploads())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitAuth, exitCode(models.Errorf(models.ErrAuthentication, "rejected")))
	assert.Equal(t, exitConfig, exitCode(models.Errorf(models.ErrConfiguration, "bad")))
	assert.Equal(t, exitFilesFailed, exitCode(models.Errorf(models.ErrTransport, "502")))
	assert.Equal(t, exitInternal, exitCode(errors.New("???")))
}
