package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/models"
)

// RedisLedger stores upload records as JSON values with an optional TTL.
type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLedger(ctx context.Context, url string, ttl time.Duration) (*RedisLedger, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, models.Wrap(models.ErrConfiguration, err, "invalid redis url")
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := client.Ping(pingCtx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	slog.Info("Connected to Redis ledger.", "addr", opts.Addr, "db", opts.DB)
	return &RedisLedger{client: client, ttl: ttl}, nil
}

func (l *RedisLedger) Seen(ctx context.Context, target models.Target, checksum string) (bool, error) {
	n, err := l.client.Exists(ctx, ledgerKey(target, checksum)).Result()
	if err != nil {
		return false, fmt.Errorf("redis lookup: %w", err)
	}
	return n > 0, nil
}

func (l *RedisLedger) Record(ctx context.Context, meta models.Metadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return l.client.Set(ctx, ledgerKey(meta.Target, meta.Checksum), data, l.ttl).Err()
}

func (l *RedisLedger) Close() error {
	return l.client.Close()
}
