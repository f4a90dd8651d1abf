// Package catalog is the optional SQLite record of toolshift runs. It
// remembers the content hash each pass last saw per module, so rewrite
// passes can skip unchanged files, and persists discovered call edges
// for later listing.
package catalog

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Catalog is the SQLite data access layer.
type Catalog struct {
	db *sql.DB
}

// Open opens (or creates) a catalog database at dbPath with WAL mode
// enabled and runs the idempotent migration.
func Open(dbPath string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("catalog: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: ping database: %w", err)
	}
	c := &Catalog{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the underlying database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// DB returns the underlying *sql.DB for use in tests.
func (c *Catalog) DB() *sql.DB {
	return c.db
}

func (c *Catalog) migrate() error {
	if _, err := c.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("catalog: migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS passes (
  id            INTEGER PRIMARY KEY,
  app           TEXT NOT NULL,
  path          TEXT NOT NULL,
  pass          TEXT NOT NULL,
  hash          TEXT NOT NULL,
  processed_at  TIMESTAMP,
  UNIQUE(path, pass)
);

CREATE TABLE IF NOT EXISTS call_edges (
  id       INTEGER PRIMARY KEY,
  app      TEXT NOT NULL,
  caller   TEXT NOT NULL,
  callee   TEXT NOT NULL,
  UNIQUE(app, caller, callee)
);

CREATE INDEX IF NOT EXISTS idx_call_edges_app ON call_edges(app);
`

// PassRecord is one row of the passes table.
type PassRecord struct {
	App         string
	Path        string
	Pass        string
	Hash        string
	ProcessedAt time.Time
}

// Edge is one persisted caller→callee pair.
type Edge struct {
	App    string
	Caller string
	Callee string
}

// LastHash returns the content hash recorded for (path, pass), or ""
// if the pass has never run against that path.
func (c *Catalog) LastHash(path, pass string) (string, error) {
	var hash string
	err := c.db.QueryRow(
		`SELECT hash FROM passes WHERE path = ? AND pass = ?`, path, pass,
	).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("catalog: last hash: %w", err)
	}
	return hash, nil
}

// RecordPass upserts the hash a pass last processed for a module.
func (c *Catalog) RecordPass(app, path, pass, hash string) error {
	_, err := c.db.Exec(
		`INSERT INTO passes (app, path, pass, hash, processed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path, pass) DO UPDATE SET
		   app = excluded.app,
		   hash = excluded.hash,
		   processed_at = excluded.processed_at`,
		app, path, pass, hash, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("catalog: record pass: %w", err)
	}
	return nil
}

// ReplaceEdges replaces all recorded call edges for app with the given
// set, inside one transaction.
func (c *Catalog) ReplaceEdges(app string, edges []Edge) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("catalog: replace edges: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM call_edges WHERE app = ?`, app); err != nil {
		return fmt.Errorf("catalog: replace edges: delete: %w", err)
	}
	for _, e := range edges {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO call_edges (app, caller, callee) VALUES (?, ?, ?)`,
			app, e.Caller, e.Callee,
		); err != nil {
			return fmt.Errorf("catalog: replace edges: insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("catalog: replace edges: commit: %w", err)
	}
	return nil
}

// Passes returns all pass records ordered by app then pass.
func (c *Catalog) Passes() ([]PassRecord, error) {
	rows, err := c.db.Query(
		`SELECT app, path, pass, hash, processed_at FROM passes ORDER BY app, pass`,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog: list passes: %w", err)
	}
	defer rows.Close()

	var recs []PassRecord
	for rows.Next() {
		var r PassRecord
		if err := rows.Scan(&r.App, &r.Path, &r.Pass, &r.Hash, &r.ProcessedAt); err != nil {
			return nil, fmt.Errorf("catalog: scan pass: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// Edges returns all recorded call edges ordered by app, caller, callee.
func (c *Catalog) Edges() ([]Edge, error) {
	rows, err := c.db.Query(
		`SELECT app, caller, callee FROM call_edges ORDER BY app, caller, callee`,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog: list edges: %w", err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.App, &e.Caller, &e.Callee); err != nil {
			return nil, fmt.Errorf("catalog: scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
