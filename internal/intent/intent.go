// Package intent turns free-text chart requests into sparse intents.
// Implements: prd004-intent-parsing (R1-R4);
package intent

import (
	"context"

	"github.com/pdiddy/chart-engine/pkg/types"
)

// Parser extracts a sparse Intent from one conversation message. The
// previous plan is context for reading references ("same chart", "that
// range"); implementations must not copy prior values into the intent —
// carrying state forward is the resolver's job. Per Strategy pattern
// (prd004-intent-parsing R1.1).
type Parser interface {
	Parse(ctx context.Context, message string, prev *types.Plan) (types.Intent, error)
}

// HybridParser runs the model-backed parser and overlays rule extraction on
// top. Fields the rules recognize win: on exact numbers and ranges the
// deterministic signal beats the model.
type HybridParser struct {
	Model Parser
	Rules RuleParser
}

// Parse combines both parsers. A model failure is returned as-is rather
// than silently degrading to rules-only parsing.
func (h HybridParser) Parse(ctx context.Context, message string, prev *types.Plan) (types.Intent, error) {
	base, err := h.Model.Parse(ctx, message, prev)
	if err != nil {
		return types.Intent{}, err
	}

	top, err := h.Rules.Parse(ctx, message, prev)
	if err != nil {
		return types.Intent{}, err
	}

	return overlay(base, top), nil
}

// overlay returns base with every field set in top taking precedence.
func overlay(base, top types.Intent) types.Intent {
	if top.Kind != nil {
		base.Kind = top.Kind
	}
	if top.YearFrom != nil {
		base.YearFrom = top.YearFrom
	}
	if top.YearTo != nil {
		base.YearTo = top.YearTo
	}
	if top.Doctype != nil {
		base.Doctype = top.Doctype
	}
	if top.FieldLevel != nil {
		base.FieldLevel = top.FieldLevel
	}
	if top.ScoreMin != nil {
		base.ScoreMin = top.ScoreMin
	}
	if top.TopK != nil {
		base.TopK = top.TopK
	}
	if top.Color != nil {
		base.Color = top.Color
	}
	if top.Mark != nil {
		base.Mark = top.Mark
	}
	if top.Compare != nil {
		base.Compare = top.Compare
	}
	if top.CompareFrom != nil {
		base.CompareFrom = top.CompareFrom
	}
	if top.CompareTo != nil {
		base.CompareTo = top.CompareTo
	}
	return base
}
