package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/models"
	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/tagtog"
)

// Config is read once at startup and never mutated afterwards.
type Config struct {
	Domain             string
	Credentials        models.Credentials
	InsecureSkipVerify bool
	HTTPTimeout        time.Duration

	ImageEngine string
	Language    string
	ImageDPI    int
	Verify      bool
	TempDir     string

	LedgerURL string
	LedgerTTL time.Duration

	PushgatewayURL string
	LogLevel       string
	LogFormat      string
}

// Invocation is the parsed command line.
type Invocation struct {
	Target     models.Target
	InputPaths []string
	FailFast   bool
	DryRun     bool
	EnvFile    string

	args []string
}

// New reads the configuration from the environment.
func New() (*Config, error) {
	cfg := &Config{
		Domain: strings.TrimRight(getEnv("TAGTOG_DOMAIN", tagtog.DefaultDomain), "/"),
		Credentials: models.Credentials{
			Username: os.Getenv("TAGTOG_USERNAME"),
			Password: os.Getenv("TAGTOG_PASSWORD"),
			Token:    os.Getenv("TAGTOG_TOKEN"),
		},
		ImageEngine:    getEnv("OCR_IMAGE_ENGINE", "tesseract"),
		Language:       getEnv("OCR_LANGUAGE", "eng"),
		TempDir:        os.Getenv("OCR_TEMP_DIR"),
		LedgerURL:      os.Getenv("LEDGER_URL"),
		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}

	if cfg.Credentials.Username == "" {
		return nil, models.Errorf(models.ErrConfiguration, "TAGTOG_USERNAME environment variable is not set")
	}
	if cfg.Credentials.Password == "" && cfg.Credentials.Token == "" {
		return nil, models.Errorf(models.ErrConfiguration, "TAGTOG_PASSWORD environment variable is not set")
	}

	var err error
	if cfg.InsecureSkipVerify, err = getEnvAsBool("TAGTOG_INSECURE_SKIP_VERIFY", false); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getEnvAsDuration("TAGTOG_HTTP_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if cfg.ImageDPI, err = getEnvAsInt("OCR_IMAGE_DPI", 300); err != nil {
		return nil, err
	}
	if cfg.Verify, err = getEnvAsBool("OCR_VERIFY", true); err != nil {
		return nil, err
	}
	if cfg.LedgerTTL, err = getEnvAsDuration("LEDGER_TTL", 0); err != nil {
		return nil, err
	}

	switch cfg.ImageEngine {
	case "tesseract", "ocrmypdf", "gosseract":
	default:
		return nil, models.Errorf(models.ErrConfiguration, "unsupported OCR_IMAGE_ENGINE %q", cfg.ImageEngine)
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=value pairs from path without overriding variables
// that are already set. A missing default file is not an error.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return models.Wrap(models.ErrConfiguration, err, "loading "+path)
	}
	return nil
}

// ParseInvocation parses `[flags] owner project folder inputPath...`.
func ParseInvocation(args []string) (Invocation, error) {
	inv, err := ParseFlags(args)
	if err != nil {
		return Invocation{}, err
	}
	if err := inv.ResolveTarget(); err != nil {
		return Invocation{}, err
	}
	return inv, nil
}

// ParseFlags parses the flags only. The positional arguments are kept for
// ResolveTarget, which runs once the credentials are known to be present.
func ParseFlags(args []string) (Invocation, error) {
	fs := flag.NewFlagSet("tagtog-ocr", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var inv Invocation
	fs.BoolVar(&inv.FailFast, "fail-fast", false, "abort the run on the first file error")
	fs.BoolVar(&inv.DryRun, "dry-run", false, "list accepted files without OCR or upload")
	fs.StringVar(&inv.EnvFile, "env-file", ".env", "file with environment defaults")

	if err := fs.Parse(args); err != nil {
		return Invocation{}, models.Wrap(models.ErrConfiguration, err, "invalid flags")
	}

	inv.args = fs.Args()
	return inv, nil
}

// ResolveTarget fills Target and InputPaths from the positional arguments.
func (inv *Invocation) ResolveTarget() error {
	names := []string{"owner", "project", "folder", "inputPath"}
	for i, name := range names {
		if len(inv.args) <= i || strings.TrimSpace(inv.args[i]) == "" {
			return models.Errorf(models.ErrConfiguration, "missing required argument <%s>", name)
		}
	}

	inv.Target = models.Target{Owner: inv.args[0], Project: inv.args[1], Folder: inv.args[2]}
	inv.InputPaths = append([]string(nil), inv.args[3:]...)
	return nil
}

// Usage is printed on invocation errors.
const Usage = `usage: tagtog-ocr [-fail-fast] [-dry-run] [-env-file path] owner project folder inputPath...`

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, models.Errorf(models.ErrConfiguration, "invalid value for %s: expected an integer, got '%s'", key, valueStr)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, models.Errorf(models.ErrConfiguration, "invalid value for %s: expected a boolean, got '%s'", key, valueStr)
	}
	return value, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, models.Errorf(models.ErrConfiguration, "invalid value for %s: expected a duration, got '%s'", key, valueStr)
	}
	return value, nil
}

func (c *Config) String() string {
	return fmt.Sprintf("domain=%s user=%s image=%s lang=%s ledger=%t",
		c.Domain, c.Credentials.Username, c.ImageEngine, c.Language, c.LedgerURL != "")
}
