// Package catalog records where each indexed document came from.
//
// The vector store and index only know int32 document ids. The catalog maps those
// ids back to a source (usually a file path) and a display title, so search results
// can be shown to people. It is a single SQLite database accessed through sqlx.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// ErrNotFound is returned when a document id is not in the catalog.
var ErrNotFound = errors.New("catalog: document not found")

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id       INTEGER PRIMARY KEY,
	source   TEXT    NOT NULL,
	title    TEXT    NOT NULL DEFAULT '',
	tokens   INTEGER NOT NULL DEFAULT 0,
	added_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS documents_source ON documents (source);
`

const upsert = `
INSERT INTO documents (id, source, title, tokens, added_at)
VALUES (:id, :source, :title, :tokens, :added_at)
ON CONFLICT (id) DO UPDATE SET
	source = excluded.source,
	title = excluded.title,
	tokens = excluded.tokens,
	added_at = excluded.added_at`

// Document is one catalog row.
type Document struct {
	ID     int32  `db:"id"`
	Source string `db:"source"`
	Title  string `db:"title"`
	// Tokens is the number of tokens the document produced at ingest.
	Tokens int `db:"tokens"`
	// AddedAt is a Unix timestamp in seconds.
	AddedAt int64 `db:"added_at"`
}

// Options configures Open.
type Options struct {
	Logger *slog.Logger
}

// Catalog is a SQLite-backed document catalog. It is safe for concurrent use.
type Catalog struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open opens or creates the catalog at path. Use ":memory:" for a throwaway catalog.
func Open(ctx context.Context, path string, optFns ...func(o *Options)) (*Catalog, error) {
	opts := Options{Logger: slog.Default()}
	for _, fn := range optFns {
		fn(&opts)
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	// One connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: create schema: %w", err)
	}

	opts.Logger.Debug("catalog opened", slog.String("path", path))
	return &Catalog{db: db, logger: opts.Logger}, nil
}

// Put inserts doc or replaces the row with the same id.
func (c *Catalog) Put(ctx context.Context, doc Document) error {
	if _, err := c.db.NamedExecContext(ctx, upsert, doc); err != nil {
		return fmt.Errorf("catalog: put %d: %w", doc.ID, err)
	}
	return nil
}

// PutBatch writes docs in a single transaction.
func (c *Catalog) PutBatch(ctx context.Context, docs []Document) (err error) {
	if len(docs) == 0 {
		return nil
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareNamedContext(ctx, upsert)
	if err != nil {
		return fmt.Errorf("catalog: prepare: %w", err)
	}
	defer stmt.Close()

	for _, doc := range docs {
		if _, err = stmt.ExecContext(ctx, doc); err != nil {
			return fmt.Errorf("catalog: put %d: %w", doc.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("catalog: commit: %w", err)
	}
	return nil
}

// Get returns the document with id.
func (c *Catalog) Get(ctx context.Context, id int32) (Document, error) {
	var doc Document
	err := c.db.GetContext(ctx, &doc, `SELECT id, source, title, tokens, added_at FROM documents WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return Document{}, fmt.Errorf("catalog: get %d: %w", id, err)
	}
	return doc, nil
}

// maxBindVars bounds the ids bound per IN list, below SQLite's variable limit.
const maxBindVars = 500

// GetMany returns the documents for ids. Unknown ids are absent from the map.
func (c *Catalog) GetMany(ctx context.Context, ids []int32) (map[int32]Document, error) {
	out := make(map[int32]Document, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	for chunk := range slices.Chunk(ids, maxBindVars) {
		query, args, err := sqlx.In(`SELECT id, source, title, tokens, added_at FROM documents WHERE id IN (?)`, chunk)
		if err != nil {
			return nil, fmt.Errorf("catalog: get many: %w", err)
		}

		var docs []Document
		if err := c.db.SelectContext(ctx, &docs, c.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("catalog: get many: %w", err)
		}
		for _, doc := range docs {
			out[doc.ID] = doc
		}
	}
	return out, nil
}

// FindBySource returns the documents ingested from source, ordered by id.
func (c *Catalog) FindBySource(ctx context.Context, source string) ([]Document, error) {
	var docs []Document
	err := c.db.SelectContext(ctx, &docs,
		`SELECT id, source, title, tokens, added_at FROM documents WHERE source = ? ORDER BY id`, source)
	if err != nil {
		return nil, fmt.Errorf("catalog: find %s: %w", source, err)
	}
	return docs, nil
}

// Count returns the number of documents.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM documents`); err != nil {
		return 0, fmt.Errorf("catalog: count: %w", err)
	}
	return n, nil
}

// NextID returns one past the largest id in the catalog, or 0 when it is empty.
func (c *Catalog) NextID(ctx context.Context) (int32, error) {
	var id int64
	if err := c.db.GetContext(ctx, &id, `SELECT COALESCE(MAX(id), -1) + 1 FROM documents`); err != nil {
		return 0, fmt.Errorf("catalog: next id: %w", err)
	}
	return int32(id), nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
