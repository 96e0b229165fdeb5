// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate turns resolved plans into grouped result rows.
// Implements: prd002-aggregation (R1, R2);
//
//	docs/ARCHITECTURE § Aggregation.
package aggregate

import (
	"context"
	"fmt"
	"sort"

	"github.com/pdiddy/chart-engine/pkg/types"
)

// Dataset is the grouped-count query capability the aggregator consumes.
// The SQLite corpus store implements it; tests supply mocks. Implementations
// must be safe for concurrent readers and honor context deadlines (R3.4);
// retry policy, if any, lives behind this interface, never in the
// aggregator.
type Dataset interface {
	// CountByYear returns per-year paper counts over years, optionally
	// filtered by doctype (empty = no filter), in ascending year order.
	CountByYear(ctx context.Context, years types.YearRange, doctype string) ([]types.GroupCount, error)

	// CountByField returns per-field paper counts over years for fields at
	// the given hierarchy level, counting only paper-field links with
	// score >= scoreMin. Result order is unspecified; ranking is the
	// aggregator's job.
	CountByField(ctx context.Context, years types.YearRange, doctype string, level int, scoreMin float64) ([]types.GroupCount, error)
}

// Aggregator executes a plan's grouped queries and shapes the rows. It holds
// no per-request state; one Aggregator serves concurrent requests.
type Aggregator struct {
	ds Dataset
}

// New returns an Aggregator reading from ds.
func New(ds Dataset) *Aggregator {
	return &Aggregator{ds: ds}
}

// Aggregate runs the plan's grouped count query, or two of them in compare
// mode. Compare rows are tagged A (primary range) and B (compare range) and
// concatenated, never merged by key (R2.2). Groups absent from the data are
// omitted, not zero-filled (R2.3). Dataset failures surface unchanged as
// aggregation failures (R2.5).
func (a *Aggregator) Aggregate(ctx context.Context, p types.Plan) ([]types.ResultRow, error) {
	primary, err := a.collect(ctx, p, p.Years)
	if err != nil {
		return nil, err
	}
	if !p.CompareOn() {
		return tag(primary, ""), nil
	}

	secondary, err := a.collect(ctx, p, *p.Compare)
	if err != nil {
		return nil, err
	}
	rows := tag(primary, types.GroupPrimary)
	return append(rows, tag(secondary, types.GroupCompare)...), nil
}

// collect fetches one range's groups. Field charts are ranked and cut to
// top_k here, per range, so compare mode never shares a ranking across
// ranges (R2.4).
func (a *Aggregator) collect(ctx context.Context, p types.Plan, years types.YearRange) ([]types.GroupCount, error) {
	switch p.Kind {
	case types.ChartPapersByYear:
		groups, err := a.ds.CountByYear(ctx, years, p.Doctype)
		if err != nil {
			return nil, aggErr(err)
		}
		return groups, nil

	case types.ChartPapersByField:
		if p.Field == nil {
			return nil, &types.PipelineError{
				Kind:  types.ErrAggregationFailed,
				Field: "field",
				Msg:   "plan is missing field parameters",
			}
		}
		groups, err := a.ds.CountByField(ctx, years, p.Doctype, p.Field.Level, p.Field.ScoreMin)
		if err != nil {
			return nil, aggErr(err)
		}
		return topK(groups, p.Field.TopK), nil

	default:
		return nil, &types.PipelineError{
			Kind:  types.ErrAggregationFailed,
			Field: "chart_type",
			Msg:   fmt.Sprintf("unsupported chart type %q", p.Kind),
		}
	}
}

// topK ranks groups by descending count with ties broken by ascending key,
// then keeps the first k. The tie-break makes the cut at the boundary
// reproducible across runs regardless of input order (R2.4).
func topK(groups []types.GroupCount, k int) []types.GroupCount {
	ranked := make([]types.GroupCount, len(groups))
	copy(ranked, groups)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Key < ranked[j].Key
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// tag converts dataset groups to result rows carrying the compare tag
// (empty outside compare mode). The returned slice is never nil so empty
// results serialize as [] rather than null.
func tag(groups []types.GroupCount, group string) []types.ResultRow {
	rows := make([]types.ResultRow, len(groups))
	for i, g := range groups {
		rows[i] = types.ResultRow{Key: g.Key, Group: group, Count: g.Count}
	}
	return rows
}

func aggErr(err error) error {
	return &types.PipelineError{Kind: types.ErrAggregationFailed, Err: err}
}
