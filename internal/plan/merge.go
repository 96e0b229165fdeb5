// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plan resolves raw conversation intents into complete chart plans
// and validates them.
// Implements: prd001-plan-resolution (R1-R4);
//
//	docs/ARCHITECTURE § Plan Resolution.
package plan

import (
	"strings"

	"github.com/pdiddy/chart-engine/pkg/types"
)

// Merge combines one turn's raw intent with the previous turn's plan into a
// fresh, fully populated Plan. Fields the intent names win; fields it omits
// inherit from prev when they still apply to the resolved chart kind; what
// remains takes the documented default (R1.2-R1.4). Merge never mutates
// prev; nested values are copied, not aliased.
//
// Merge fails with ErrIntentIncomplete when no complete plan can be
// resolved: a turn with nothing beyond styling and no previous plan, or
// compare mode requested with no compare range available from either the
// turn or prev (R1.5, R1.6). Range ordering and enum membership are
// Validate's concern, not Merge's: a merged plan may still be invalid.
func Merge(in types.Intent, prev *types.Plan) (types.Plan, error) {
	if prev == nil && !in.HasSubstance() {
		return types.Plan{}, &types.PipelineError{
			Kind: types.ErrIntentIncomplete,
			Msg:  "nothing to chart: no previous plan to refine and no chart request this turn",
		}
	}

	p := types.Plan{
		Kind:    resolveKind(in, prev),
		Years:   resolveYears(in, prev),
		Doctype: resolveText(in.Doctype, prev, func(pp *types.Plan) string { return pp.Doctype }),
		Color:   resolveText(in.Color, prev, func(pp *types.Plan) string { return pp.Color }),
		Mark:    resolveMark(in, prev),
	}

	// Field-chart parameters exist only for papers_by_field. A kind switch
	// away from field charts drops them rather than inheriting (R1.3);
	// switching to field charts starts from defaults.
	if p.Kind == types.ChartPapersByField {
		fp := types.DefaultFieldParams()
		if prev != nil && prev.Field != nil {
			fp = *prev.Field
		}
		if in.FieldLevel != nil {
			fp.Level = *in.FieldLevel
		}
		if in.ScoreMin != nil {
			fp.ScoreMin = *in.ScoreMin
		}
		if in.TopK != nil {
			fp.TopK = *in.TopK
		}
		p.Field = &fp
	}

	compare, err := resolveCompare(in, prev)
	if err != nil {
		return types.Plan{}, err
	}
	p.Compare = compare

	return p, nil
}

func resolveKind(in types.Intent, prev *types.Plan) types.ChartKind {
	if in.Kind != nil {
		return *in.Kind
	}
	if prev != nil {
		return prev.Kind
	}
	return types.ChartPapersByYear
}

// resolveYears inherits each bound independently, so "through 2025" over a
// 2020-2024 plan widens only the upper bound.
func resolveYears(in types.Intent, prev *types.Plan) types.YearRange {
	years := types.DefaultYears()
	if prev != nil {
		years = prev.Years
	}
	if in.YearFrom != nil {
		years.From = *in.YearFrom
	}
	if in.YearTo != nil {
		years.To = *in.YearTo
	}
	return years
}

// resolveText applies the override/inherit rule to an optional string field.
// A present-but-blank value clears the field; values are trimmed.
func resolveText(v *string, prev *types.Plan, get func(*types.Plan) string) string {
	if v != nil {
		return strings.TrimSpace(*v)
	}
	if prev != nil {
		return get(prev)
	}
	return ""
}

func resolveMark(in types.Intent, prev *types.Plan) types.Mark {
	if in.Mark != nil {
		// Unknown marks flow through to Validate rather than being
		// silently coerced.
		return *in.Mark
	}
	if prev != nil && prev.Mark != "" {
		return prev.Mark
	}
	return types.MarkBar
}

// resolveCompare decides whether the merged plan runs in compare mode and
// with which range. An explicit compare=false clears the range no matter
// what was inherited (R1.6). Naming either compare bound implies compare
// mode. Enabling compare without a full range falls back to prev's range;
// if no complete range can be assembled the merge fails rather than
// inventing one (R1.5).
func resolveCompare(in types.Intent, prev *types.Plan) (*types.YearRange, error) {
	if in.Compare != nil && !*in.Compare {
		return nil, nil
	}

	enabling := in.Compare != nil && *in.Compare
	if in.CompareFrom != nil || in.CompareTo != nil {
		enabling = true
	}
	inherited := prev != nil && prev.Compare != nil

	if !enabling && !inherited {
		return nil, nil
	}

	var r types.YearRange
	haveFrom, haveTo := false, false
	if inherited {
		r = *prev.Compare
		haveFrom, haveTo = true, true
	}
	if in.CompareFrom != nil {
		r.From = *in.CompareFrom
		haveFrom = true
	}
	if in.CompareTo != nil {
		r.To = *in.CompareTo
		haveTo = true
	}

	if !haveFrom || !haveTo {
		return nil, &types.PipelineError{
			Kind:  types.ErrIntentIncomplete,
			Field: "compare",
			Msg:   "compare requested but no compare year range was given or carried over",
		}
	}
	return &r, nil
}
