// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/chart-engine/pkg/types"
)

// CountByYear returns per-year paper counts within the range, ordered by
// year. Years with no papers produce no row (R2.1, R2.3).
func (s *Store) CountByYear(ctx context.Context, years types.YearRange, doctype string) ([]types.GroupCount, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var (
		qb   strings.Builder
		args []any
	)

	qb.WriteString(`SELECT year, COUNT(*) AS n_papers FROM papers WHERE year BETWEEN ? AND ?`)
	args = append(args, years.From, years.To)

	if doctype != "" {
		qb.WriteString(` AND doctype = ?`)
		args = append(args, doctype)
	}

	qb.WriteString(` GROUP BY year ORDER BY year`)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying papers by year: %w", err)
	}
	defer rows.Close()

	var out []types.GroupCount
	for rows.Next() {
		var year, count int
		if err := rows.Scan(&year, &count); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, types.GroupCount{Key: strconv.Itoa(year), Count: count})
	}

	return out, rows.Err()
}

// CountByField returns per-field paper counts for fields at the given level
// whose assignment score reaches scoreMin. Every qualifying field comes back,
// ordered by name; ranking and truncation belong to the aggregator (R3.1-R3.3).
func (s *Store) CountByField(ctx context.Context, years types.YearRange, doctype string, level int, scoreMin float64) ([]types.GroupCount, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var (
		qb   strings.Builder
		args []any
	)

	qb.WriteString(`SELECT f.display_name, COUNT(DISTINCT p.paper_id) AS n_papers
		FROM papers p
		JOIN paper_fields pf ON p.paper_id = pf.paper_id
		JOIN fields f ON pf.field_id = f.field_id
		WHERE p.year BETWEEN ? AND ? AND pf.score >= ? AND f.level = ?`)
	args = append(args, years.From, years.To, scoreMin, level)

	if doctype != "" {
		qb.WriteString(` AND p.doctype = ?`)
		args = append(args, doctype)
	}

	qb.WriteString(` GROUP BY f.display_name ORDER BY f.display_name`)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying papers by field: %w", err)
	}
	defer rows.Close()

	var out []types.GroupCount
	for rows.Next() {
		var gc types.GroupCount
		if err := rows.Scan(&gc.Key, &gc.Count); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, gc)
	}

	return out, rows.Err()
}
