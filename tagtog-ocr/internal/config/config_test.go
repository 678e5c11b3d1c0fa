package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/models"
	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/tagtog"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for _, k := range []string{
		"TAGTOG_DOMAIN", "TAGTOG_USERNAME", "TAGTOG_PASSWORD", "TAGTOG_TOKEN",
		"TAGTOG_INSECURE_SKIP_VERIFY", "TAGTOG_HTTP_TIMEOUT",
		"OCR_IMAGE_ENGINE", "OCR_LANGUAGE", "OCR_IMAGE_DPI", "OCR_VERIFY", "OCR_TEMP_DIR",
		"LEDGER_URL", "LEDGER_TTL", "PUSHGATEWAY_URL", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestNew_Defaults(t *testing.T) {
	setEnv(t, map[string]string{"TAGTOG_USERNAME": "alice", "TAGTOG_PASSWORD": "pw"})

	cfg, err := New()

	require.NoError(t, err)
	assert.Equal(t, tagtog.DefaultDomain, cfg.Domain)
	assert.Equal(t, models.Credentials{Username: "alice", Password: "pw"}, cfg.Credentials)
	assert.Equal(t, "tesseract", cfg.ImageEngine)
	assert.Equal(t, "eng", cfg.Language)
	assert.Equal(t, 300, cfg.ImageDPI)
	assert.True(t, cfg.Verify)
	assert.False(t, cfg.InsecureSkipVerify)
	assert.Zero(t, cfg.HTTPTimeout)
	assert.NotContains(t, cfg.String(), "pw")
}

func TestNew_Overrides(t *testing.T) {
	setEnv(t, map[string]string{
		"TAGTOG_DOMAIN":               "https://tagtog.example.org/",
		"TAGTOG_USERNAME":             "alice",
		"TAGTOG_TOKEN":                "tok",
		"TAGTOG_INSECURE_SKIP_VERIFY": "true",
		"TAGTOG_HTTP_TIMEOUT":         "45s",
		"OCR_IMAGE_ENGINE":            "ocrmypdf",
		"OCR_IMAGE_DPI":               "150",
		"OCR_VERIFY":                  "false",
		"LEDGER_URL":                  "memory",
		"LEDGER_TTL":                  "24h",
	})

	cfg, err := New()

	require.NoError(t, err)
	assert.Equal(t, "https://tagtog.example.org", cfg.Domain)
	assert.Equal(t, "tok", cfg.Credentials.Token)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Equal(t, 45*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "ocrmypdf", cfg.ImageEngine)
	assert.Equal(t, 150, cfg.ImageDPI)
	assert.False(t, cfg.Verify)
	assert.Equal(t, 24*time.Hour, cfg.LedgerTTL)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"MissingUsername", map[string]string{"TAGTOG_PASSWORD": "pw"}},
		{"MissingPassword", map[string]string{"TAGTOG_USERNAME": "alice"}},
		{"BadBool", map[string]string{"TAGTOG_USERNAME": "a", "TAGTOG_PASSWORD": "p", "OCR_VERIFY": "maybe"}},
		{"BadInt", map[string]string{"TAGTOG_USERNAME": "a", "TAGTOG_PASSWORD": "p", "OCR_IMAGE_DPI": "high"}},
		{"BadDuration", map[string]string{"TAGTOG_USERNAME": "a", "TAGTOG_PASSWORD": "p", "TAGTOG_HTTP_TIMEOUT": "soon"}},
		{"BadEngine", map[string]string{"TAGTOG_USERNAME": "a", "TAGTOG_PASSWORD": "p", "OCR_IMAGE_ENGINE": "abbyy"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			_, err := New()
			assert.ErrorIs(t, err, models.ErrConfiguration)
		})
	}
}

func TestParseInvocation(t *testing.T) {
	inv, err := ParseInvocation([]string{"-fail-fast", "alice", "papers", "pool", "in1", "in2"})

	require.NoError(t, err)
	assert.Equal(t, models.Target{Owner: "alice", Project: "papers", Folder: "pool"}, inv.Target)
	assert.Equal(t, []string{"in1", "in2"}, inv.InputPaths)
	assert.True(t, inv.FailFast)
	assert.False(t, inv.DryRun)
	assert.Equal(t, ".env", inv.EnvFile)
}

func TestParseInvocation_MissingArguments(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"alice"},
		{"alice", "papers"},
		{"alice", "papers", "pool"},
		{"alice", "", "pool", "in"},
	} {
		_, err := ParseInvocation(args)
		assert.ErrorIs(t, err, models.ErrConfiguration, "%v", args)
	}

	_, err := ParseInvocation([]string{"-nope", "a", "b", "c", "d"})
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestNew_AcceptsInProcessEngine(t *testing.T) {
	setEnv(t, map[string]string{"TAGTOG_USERNAME": "a", "TAGTOG_PASSWORD": "p", "OCR_IMAGE_ENGINE": "gosseract"})

	cfg, err := New()

	require.NoError(t, err)
	assert.Equal(t, "gosseract", cfg.ImageEngine)
}

func TestParseFlags_DefersPositionalArguments(t *testing.T) {
	inv, err := ParseFlags([]string{"-dry-run", "-env-file", "ci.env"})

	require.NoError(t, err)
	assert.True(t, inv.DryRun)
	assert.Equal(t, "ci.env", inv.EnvFile)
	assert.ErrorIs(t, inv.ResolveTarget(), models.ErrConfiguration)

	inv, err = ParseFlags([]string{"alice", "papers", "pool", "in"})
	require.NoError(t, err)
	require.NoError(t, inv.ResolveTarget())
	assert.Equal(t, "pool", inv.Target.Folder)
	assert.Equal(t, []string{"in"}, inv.InputPaths)
}

func TestLoadEnvFile(t *testing.T) {
	setEnv(t, map[string]string{"TAGTOG_USERNAME": "from-env"})
	p := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(p, []byte("TAGTOG_USERNAME=from-file\nOCR_LANGUAGE_TEST_ONLY=deu\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("OCR_LANGUAGE_TEST_ONLY") })

	require.NoError(t, LoadEnvFile(p, true))
	assert.Equal(t, "from-env", os.Getenv("TAGTOG_USERNAME"), "existing variables win")
	assert.Equal(t, "deu", os.Getenv("OCR_LANGUAGE_TEST_ONLY"))

	missing := filepath.Join(t.TempDir(), "missing.env")
	assert.NoError(t, LoadEnvFile(missing, false))
	assert.ErrorIs(t, LoadEnvFile(missing, true), models.ErrConfiguration)
}
