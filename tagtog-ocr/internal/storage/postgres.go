package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/Divas-Gupta30/docs-ocr/tagtog-ocr/internal/models"
)

const createUploadsTable = `
CREATE TABLE IF NOT EXISTS tagtog_uploads (
	id SERIAL PRIMARY KEY,
	owner VARCHAR(255) NOT NULL,
	project VARCHAR(255) NOT NULL,
	folder VARCHAR(255) NOT NULL,
	checksum VARCHAR(64) NOT NULL,
	filename TEXT NOT NULL,
	source_path TEXT NOT NULL,
	pages INTEGER NOT NULL DEFAULT 0,
	run_id VARCHAR(64) NOT NULL,
	uploaded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (owner, project, folder, checksum)
);`

// PostgresLedger keeps upload records in a tagtog_uploads table.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(ctx context.Context, url string) (*PostgresLedger, error) {
	if _, err := pq.ParseURL(url); err != nil {
		return nil, models.Wrap(models.ErrConfiguration, err, "invalid postgres url")
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, models.Wrap(models.ErrConfiguration, err, "invalid postgres url")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, createUploadsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tagtog_uploads table: %w", describe(err))
	}
	slog.Info("Connected to Postgres ledger.")
	return &PostgresLedger{db: db}, nil
}

func (l *PostgresLedger) Seen(ctx context.Context, target models.Target, checksum string) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tagtog_uploads WHERE owner = $1 AND project = $2 AND folder = $3 AND checksum = $4)`,
		target.Owner, target.Project, target.Folder, checksum).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ledger lookup: %w", describe(err))
	}
	return exists, nil
}

func (l *PostgresLedger) Record(ctx context.Context, meta models.Metadata) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO tagtog_uploads (owner, project, folder, checksum, filename, source_path, pages, run_id, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (owner, project, folder, checksum) DO NOTHING`,
		meta.Target.Owner, meta.Target.Project, meta.Target.Folder, meta.Checksum,
		meta.Filename, meta.Path, meta.Pages, meta.RunID, meta.UploadedAt)
	if err != nil {
		return fmt.Errorf("ledger insert: %w", describe(err))
	}
	return nil
}

func (l *PostgresLedger) Close() error {
	return l.db.Close()
}

// describe adds the Postgres error code to driver errors.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%w (code %s)", err, pqErr.Code)
	}
	return err
}
