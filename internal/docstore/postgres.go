package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a Store backed by a single jsonb table. The merge write uses the
// jsonb concatenation operator, which replaces top-level fields present in the
// incoming document and leaves the rest untouched.
type Postgres struct {
	pool *pgxpool.Pool
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS documents (
	path       TEXT PRIMARY KEY,
	doc        JSONB NOT NULL DEFAULT '{}'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// NewPostgres creates a Postgres store with a connection pool.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure documents schema: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Set merges fields into the document at path.
func (p *Postgres) Set(ctx context.Context, path string, fields Document) error {
	if err := ValidatePath(path); err != nil {
		return err
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode document fields: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO documents (path, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (path)
		DO UPDATE SET doc = documents.doc || EXCLUDED.doc, updated_at = now()`,
		path, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to merge document %s: %w", path, err)
	}
	return nil
}

// Get returns the document at path.
func (p *Postgres) Get(ctx context.Context, path string) (Document, bool, error) {
	if err := ValidatePath(path); err != nil {
		return nil, false, err
	}

	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT doc FROM documents WHERE path = $1`, path).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read document %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, fmt.Errorf("failed to decode document %s: %w", path, err)
	}
	return doc, true, nil
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
