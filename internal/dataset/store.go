// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset persists the paper corpus and serves grouped counts.
// Implements: prd006-dataset-store (R1-R4);
package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/chart-engine/pkg/types"
)

const defaultQueryTimeout = 10 * time.Second

// Store manages the corpus SQLite database.
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// Open opens or creates the corpus database at cfg.Path. It creates parent
// directories and the schema if they do not exist (R1.1, R1.2).
func Open(cfg types.DatasetConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("dataset path is empty")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating dataset directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}

	s := &Store{db: db, queryTimeout: timeout}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			paper_id TEXT PRIMARY KEY,
			doi TEXT,
			year INTEGER NOT NULL,
			doctype TEXT,
			cited_by_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS fields (
			field_id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			level INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS paper_fields (
			paper_id TEXT NOT NULL REFERENCES papers(paper_id),
			field_id TEXT NOT NULL REFERENCES fields(field_id),
			score REAL NOT NULL,
			PRIMARY KEY (paper_id, field_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_year ON papers(year)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_doctype ON papers(doctype)`,
		`CREATE INDEX IF NOT EXISTS idx_paper_fields_field ON paper_fields(field_id)`,
		`CREATE INDEX IF NOT EXISTS idx_fields_level ON fields(level)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	return nil
}

// Stats holds corpus row counts (R4.1).
type Stats struct {
	Papers int
	Fields int
	Links  int
}

// Stats counts the rows in each corpus table.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM papers`, &st.Papers},
		{`SELECT COUNT(*) FROM fields`, &st.Fields},
		{`SELECT COUNT(*) FROM paper_fields`, &st.Links},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return Stats{}, fmt.Errorf("counting rows: %w", err)
		}
	}
	return st, nil
}

// Span reports the smallest and largest publication year in the corpus.
// ok is false when the corpus is empty.
func (s *Store) Span(ctx context.Context) (span types.YearRange, ok bool, err error) {
	var minYear, maxYear sql.NullInt64
	err = s.db.QueryRowContext(ctx, `SELECT MIN(year), MAX(year) FROM papers`).Scan(&minYear, &maxYear)
	if err != nil {
		return types.YearRange{}, false, fmt.Errorf("querying year span: %w", err)
	}
	if !minYear.Valid {
		return types.YearRange{}, false, nil
	}
	return types.YearRange{From: int(minYear.Int64), To: int(maxYear.Int64)}, true, nil
}
