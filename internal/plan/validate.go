// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plan

import (
	"fmt"
	"strings"

	"github.com/pdiddy/chart-engine/pkg/types"
)

// invalid builds the validation failure for one offending field.
func invalid(field, format string, args ...any) error {
	return &types.PipelineError{
		Kind:  types.ErrValidationFailed,
		Field: field,
		Msg:   fmt.Sprintf(format, args...),
	}
}

// Validate checks a resolved plan against range, enum, and cross-field
// constraints, reporting the first violation with its offending field.
// It is total and side-effect-free: the same plan always yields the same
// verdict, and nothing is coerced or defaulted here. Per
// prd001-plan-resolution R3.1-R3.6.
//
// Color names are only checked for presence, not against a palette; unknown
// colors pass through to the renderer.
func Validate(p types.Plan) error {
	if !p.Kind.Valid() {
		return invalid("chart_type", "unknown chart type %q", p.Kind)
	}

	if p.Years.From <= 0 || p.Years.To <= 0 {
		return invalid("years", "year range is required")
	}
	if !p.Years.Ordered() {
		return invalid("years", "year_from %d exceeds year_to %d", p.Years.From, p.Years.To)
	}

	if p.Compare != nil {
		if p.Compare.From <= 0 || p.Compare.To <= 0 {
			return invalid("compare", "compare range is missing a bound")
		}
		if !p.Compare.Ordered() {
			return invalid("compare", "compare_year_from %d exceeds compare_year_to %d",
				p.Compare.From, p.Compare.To)
		}
	}

	switch p.Kind {
	case types.ChartPapersByField:
		if p.Field == nil {
			return invalid("field", "field parameters are required for papers_by_field")
		}
		if p.Field.TopK <= 0 {
			return invalid("top_k", "top_k must be positive, got %d", p.Field.TopK)
		}
		if p.Field.ScoreMin < 0 || p.Field.ScoreMin > 1 {
			return invalid("field_score_min", "field_score_min must be within [0, 1], got %g", p.Field.ScoreMin)
		}
		if p.Field.Level < 0 {
			return invalid("field_level", "field_level must not be negative, got %d", p.Field.Level)
		}
	case types.ChartPapersByYear:
		if p.Field != nil {
			return invalid("field", "field parameters do not apply to papers_by_year")
		}
	}

	if !p.Mark.Valid() {
		return invalid("mark", "unknown mark %q", p.Mark)
	}

	if p.Color != "" && strings.TrimSpace(p.Color) == "" {
		return invalid("color", "color must not be blank")
	}

	return nil
}
