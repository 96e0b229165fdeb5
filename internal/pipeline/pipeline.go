// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline chains intent parsing, plan resolution, aggregation, and
// rendering into the engine's entry points.
// Implements: prd007-pipeline (R1-R4);
package pipeline

import (
	"context"
	"fmt"

	"github.com/pdiddy/chart-engine/internal/aggregate"
	"github.com/pdiddy/chart-engine/internal/intent"
	"github.com/pdiddy/chart-engine/internal/plan"
	"github.com/pdiddy/chart-engine/internal/vega"
	"github.com/pdiddy/chart-engine/pkg/types"
)

// Result is the success payload: the resolved plan for the next turn, the
// aggregated rows, the chart specification, and a one-line answer.
type Result struct {
	Answer string            `json:"answer"`
	Plan   types.Plan        `json:"plan"`
	Data   []types.ResultRow `json:"data"`
	Spec   *vega.Spec        `json:"vegaLiteSpec"`
}

// Pipeline wires a Parser and a Dataset into the chat and quick-chart
// flows. The first failing stage wins: later stages do not run and no
// partial result leaks out.
type Pipeline struct {
	parser intent.Parser
	agg    *aggregate.Aggregator
}

// New builds a Pipeline on the given parser and dataset.
func New(parser intent.Parser, ds aggregate.Dataset) *Pipeline {
	return &Pipeline{parser: parser, agg: aggregate.New(ds)}
}

// Chat parses one conversation message against the previous plan and runs
// the resolved outcome through the rest of the pipeline (R1.1).
func (p *Pipeline) Chat(ctx context.Context, message string, prev *types.Plan) (*Result, error) {
	in, err := p.parser.Parse(ctx, message, prev)
	if err != nil {
		return nil, fmt.Errorf("parsing message: %w", err)
	}
	return p.Run(ctx, in, prev)
}

// Run resolves a raw intent against the previous plan and continues with
// validation, aggregation, and rendering (R1.2).
func (p *Pipeline) Run(ctx context.Context, in types.Intent, prev *types.Plan) (*Result, error) {
	resolved, err := plan.Merge(in, prev)
	if err != nil {
		return nil, err
	}
	return p.finish(ctx, resolved)
}

// Quick runs a caller-assembled plan through validation, aggregation, and
// rendering. The one-shot chart endpoints use it to bypass parsing and
// merging (R1.3).
func (p *Pipeline) Quick(ctx context.Context, resolved types.Plan) (*Result, error) {
	return p.finish(ctx, resolved)
}

func (p *Pipeline) finish(ctx context.Context, resolved types.Plan) (*Result, error) {
	if err := plan.Validate(resolved); err != nil {
		return nil, err
	}

	rows, err := p.agg.Aggregate(ctx, resolved)
	if err != nil {
		return nil, err
	}

	spec, err := vega.Render(resolved, rows)
	if err != nil {
		return nil, err
	}

	return &Result{
		Answer: answer(resolved),
		Plan:   resolved,
		Data:   rows,
		Spec:   spec,
	}, nil
}

// answer summarizes the resolved plan in one line alongside the chart.
func answer(p types.Plan) string {
	switch p.Kind {
	case types.ChartPapersByField:
		if p.CompareOn() {
			return fmt.Sprintf("Papers by field (A=%d–%d, B=%d–%d, level=%d, score>=%v, top_k=%d).",
				p.Years.From, p.Years.To, p.Compare.From, p.Compare.To,
				p.Field.Level, p.Field.ScoreMin, p.Field.TopK)
		}
		return fmt.Sprintf("Papers by field (%d–%d, level=%d, score>=%v, top_k=%d).",
			p.Years.From, p.Years.To, p.Field.Level, p.Field.ScoreMin, p.Field.TopK)
	default:
		if p.CompareOn() {
			return fmt.Sprintf("Papers by year (A=%d–%d, B=%d–%d).",
				p.Years.From, p.Years.To, p.Compare.From, p.Compare.To)
		}
		return fmt.Sprintf("Papers by year (%d–%d).", p.Years.From, p.Years.To)
	}
}
