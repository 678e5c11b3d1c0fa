package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/models"
)

// Ledger remembers which document contents were already uploaded to a
// target, so reruns over the same tree do not upload duplicates.
type Ledger interface {
	Seen(ctx context.Context, target models.Target, checksum string) (bool, error)
	Record(ctx context.Context, meta models.Metadata) error
	Close() error
}

// Open returns the ledger for a LEDGER_URL value. An empty url disables
// deduplication.
func Open(ctx context.Context, url string, ttl time.Duration) (Ledger, error) {
	switch {
	case url == "" || url == "none":
		return NopLedger{}, nil
	case url == "memory":
		return NewMemoryLedger(), nil
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		return NewRedisLedger(ctx, url, ttl)
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return NewPostgresLedger(ctx, url)
	}
	return nil, models.Errorf(models.ErrConfiguration, "unsupported ledger url %q", url)
}

func ledgerKey(target models.Target, checksum string) string {
	return fmt.Sprintf("tagtog-ocr:%s/%s/%s:%s", target.Owner, target.Project, target.Folder, checksum)
}

// NopLedger never reports duplicates.
type NopLedger struct{}

func (NopLedger) Seen(context.Context, models.Target, string) (bool, error) { return false, nil }
func (NopLedger) Record(context.Context, models.Metadata) error            { return nil }
func (NopLedger) Close() error                                             { return nil }

// MemoryLedger deduplicates within one process.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string]models.Metadata
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]models.Metadata)}
}

func (m *MemoryLedger) Seen(_ context.Context, target models.Target, checksum string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[ledgerKey(target, checksum)]
	return ok, nil
}

func (m *MemoryLedger) Record(_ context.Context, meta models.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[ledgerKey(meta.Target, meta.Checksum)] = meta
	return nil
}

func (m *MemoryLedger) Close() error { return nil }
