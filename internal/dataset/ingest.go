// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"
)

// seedFile is the YAML layout consumed by Ingest: a field dictionary plus
// papers with inline field scores.
type seedFile struct {
	Fields []seedField `yaml:"fields"`
	Papers []seedPaper `yaml:"papers"`
}

type seedField struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"display_name"`
	Level       int    `yaml:"level"`
}

type seedPaper struct {
	ID           string           `yaml:"id"`
	DOI          string           `yaml:"doi"`
	Year         int              `yaml:"year"`
	Doctype      string           `yaml:"doctype"`
	CitedByCount int              `yaml:"cited_by_count"`
	Fields       []seedPaperField `yaml:"fields"`
}

type seedPaperField struct {
	ID    string  `yaml:"id"`
	Score float64 `yaml:"score"`
}

// IngestSummary holds counts from a corpus seeding run (R1.4).
type IngestSummary struct {
	Papers  int
	Fields  int
	Links   int
	Skipped int
}

// Total returns the number of seed records written or rejected.
func (s IngestSummary) Total() int {
	return s.Papers + s.Fields + s.Links + s.Skipped
}

// HasSkips reports whether any seed records were rejected (R1.5).
func (s IngestSummary) HasSkips() bool {
	return s.Skipped > 0
}

// Ingest loads a YAML seed file into the corpus inside one transaction,
// upserting fields and papers so re-running a seed is safe (R1.3). Records
// missing required values and links to unknown fields are skipped with a
// progress line; everything else either commits together or not at all.
func (s *Store) Ingest(ctx context.Context, seedPath string, w io.Writer) (IngestSummary, error) {
	data, err := os.ReadFile(seedPath)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading seed file %s: %w", seedPath, err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return IngestSummary{}, fmt.Errorf("parsing seed file: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var summary IngestSummary

	// Known field IDs: everything already stored plus this seed's dictionary.
	fieldIDs := make(map[string]bool)
	rows, err := tx.QueryContext(ctx, `SELECT field_id FROM fields`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("listing existing fields: %w", err)
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return IngestSummary{}, fmt.Errorf("scanning field id: %w", err)
		}
		fieldIDs[id] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return IngestSummary{}, fmt.Errorf("listing existing fields: %w", err)
	}
	rows.Close()

	fieldStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO fields (field_id, display_name, level) VALUES (?, ?, ?)
		 ON CONFLICT(field_id) DO UPDATE SET
			display_name=excluded.display_name, level=excluded.level`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing field insert: %w", err)
	}
	defer fieldStmt.Close()

	for _, f := range seed.Fields {
		if f.ID == "" || f.DisplayName == "" {
			fmt.Fprintf(w, "skipped field %q: missing id or display name\n", f.ID)
			summary.Skipped++
			continue
		}
		if _, err := fieldStmt.ExecContext(ctx, f.ID, f.DisplayName, f.Level); err != nil {
			return IngestSummary{}, fmt.Errorf("inserting field %s: %w", f.ID, err)
		}
		fieldIDs[f.ID] = true
		summary.Fields++
	}

	paperStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (paper_id, doi, year, doctype, cited_by_count) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(paper_id) DO UPDATE SET
			doi=excluded.doi, year=excluded.year, doctype=excluded.doctype,
			cited_by_count=excluded.cited_by_count`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing paper insert: %w", err)
	}
	defer paperStmt.Close()

	linkStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO paper_fields (paper_id, field_id, score) VALUES (?, ?, ?)`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing link insert: %w", err)
	}
	defer linkStmt.Close()

	for _, p := range seed.Papers {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		if p.ID == "" || p.Year == 0 {
			fmt.Fprintf(w, "skipped paper %q: missing id or year\n", p.ID)
			summary.Skipped++
			continue
		}

		if _, err := paperStmt.ExecContext(ctx, p.ID, p.DOI, p.Year, p.Doctype, p.CitedByCount); err != nil {
			return IngestSummary{}, fmt.Errorf("inserting paper %s: %w", p.ID, err)
		}
		summary.Papers++

		links := 0
		for _, pf := range p.Fields {
			if !fieldIDs[pf.ID] {
				fmt.Fprintf(w, "skipped link %s -> %q: unknown field\n", p.ID, pf.ID)
				summary.Skipped++
				continue
			}
			if _, err := linkStmt.ExecContext(ctx, p.ID, pf.ID, pf.Score); err != nil {
				return IngestSummary{}, fmt.Errorf("linking %s to %s: %w", p.ID, pf.ID, err)
			}
			summary.Links++
			links++
		}

		fmt.Fprintf(w, "added %s (year %d, %d fields)\n", p.ID, p.Year, links)
	}

	if err := tx.Commit(); err != nil {
		return IngestSummary{}, fmt.Errorf("committing seed: %w", err)
	}

	fmt.Fprintf(w, "\npapers: %d, fields: %d, links: %d, skipped: %d\n",
		summary.Papers, summary.Fields, summary.Links, summary.Skipped)

	return summary, nil
}
