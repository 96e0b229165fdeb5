// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the chart-engine pipeline.
// Implements: prd001-plan-resolution (Plan, Intent, R1.1-R1.6);
//
//	prd002-aggregation (ResultRow, GroupCount, R2.1);
//	prd005-http-api (wire shapes).
//
// See docs/ARCHITECTURE.md § Pipeline Interface, § Data Structures.
package types

// ChartKind selects the aggregation shape of a chart request.
// Per prd001-plan-resolution R1.1.
type ChartKind string

const (
	ChartPapersByYear  ChartKind = "papers_by_year"
	ChartPapersByField ChartKind = "papers_by_field"
)

// Valid reports whether k is a supported chart kind.
func (k ChartKind) Valid() bool {
	return k == ChartPapersByYear || k == ChartPapersByField
}

// Mark is the visual primitive used to draw the chart.
type Mark string

const (
	MarkBar  Mark = "bar"
	MarkLine Mark = "line"
	MarkArea Mark = "area"
)

// Valid reports whether m is a supported mark.
func (m Mark) Valid() bool {
	return m == MarkBar || m == MarkLine || m == MarkArea
}

// YearRange is an inclusive publication-year interval.
type YearRange struct {
	// From is the first year of the interval.
	From int `json:"from" yaml:"from"`

	// To is the last year of the interval.
	To int `json:"to" yaml:"to"`
}

// Ordered reports whether the bounds are in non-decreasing order.
func (r YearRange) Ordered() bool {
	return r.From <= r.To
}

// FieldParams holds the parameters that apply only to papers_by_field charts.
// A Plan for papers_by_year carries no FieldParams at all.
type FieldParams struct {
	// Level is the field-hierarchy level to group by (0 = broadest).
	Level int `json:"level" yaml:"level"`

	// ScoreMin is the minimum assignment score for a paper-field link to
	// count, in [0, 1].
	ScoreMin float64 `json:"score_min" yaml:"score_min"`

	// TopK is the number of highest-count fields to keep.
	TopK int `json:"top_k" yaml:"top_k"`
}

// Default plan values applied when neither the intent nor a previous plan
// supplies a field. Per prd001-plan-resolution R1.4.
const (
	DefaultYearFrom = 2020
	DefaultYearTo   = 2024

	DefaultFieldLevel    = 1
	DefaultFieldScoreMin = 0.3

	// DefaultTopK applies to plans resolved from conversation turns.
	DefaultTopK = 25

	// DefaultChartTopK applies to quick-chart requests, which tend to be
	// standalone dashboard panels and get a slightly wider cut.
	DefaultChartTopK = 30
)

// DefaultYears returns the year range assumed when a request names none.
func DefaultYears() YearRange {
	return YearRange{From: DefaultYearFrom, To: DefaultYearTo}
}

// DefaultFieldParams returns the field-chart parameter defaults.
func DefaultFieldParams() FieldParams {
	return FieldParams{Level: DefaultFieldLevel, ScoreMin: DefaultFieldScoreMin, TopK: DefaultTopK}
}

// Plan is the fully resolved description of one chart request and the single
// source of truth for the aggregation and rendering stages. Plans are value
// types: the merger builds a fresh one per turn, the validator never mutates
// one, and downstream stages only read them. Per prd001-plan-resolution R1.
type Plan struct {
	// Kind selects the aggregation shape and which other fields apply.
	Kind ChartKind `json:"chart_type" yaml:"chart_type"`

	// Years is the primary publication-year interval.
	Years YearRange `json:"years" yaml:"years"`

	// Doctype filters papers by document type (e.g. "article", "preprint").
	// Empty means no filter.
	Doctype string `json:"doctype,omitempty" yaml:"doctype,omitempty"`

	// Field holds the field-chart parameters; nil unless Kind is
	// papers_by_field.
	Field *FieldParams `json:"field,omitempty" yaml:"field,omitempty"`

	// Color names a display color for non-compare charts. Empty leaves the
	// renderer default.
	Color string `json:"color,omitempty" yaml:"color,omitempty"`

	// Mark is the chart's visual primitive.
	Mark Mark `json:"mark" yaml:"mark"`

	// Compare is the secondary year interval for side-by-side comparison;
	// nil means compare mode is off. A non-nil Compare always carries both
	// bounds, so "compare on without a range" is unrepresentable.
	Compare *YearRange `json:"compare,omitempty" yaml:"compare,omitempty"`
}

// CompareOn reports whether the plan requests dual-range aggregation.
func (p Plan) CompareOn() bool {
	return p.Compare != nil
}

// DefaultPlan returns a fully resolved Plan for kind with every field at its
// documented default. Quick-chart entry points start from this and overlay
// caller-supplied filters. Per prd005-http-api R5.3.
func DefaultPlan(kind ChartKind) Plan {
	p := Plan{
		Kind:  kind,
		Years: DefaultYears(),
		Mark:  MarkBar,
	}
	if kind == ChartPapersByField {
		fp := DefaultFieldParams()
		p.Field = &fp
	}
	return p
}

// Intent is one conversation turn's raw, possibly partial chart request as
// produced by a parser. Every field is a pointer: nil means "not specified
// this turn", which the merger treats differently from an explicit zero
// value. The flat JSON shape matches what the planner model emits.
// Per prd001-plan-resolution R2, prd004-intent-parsing R1.
type Intent struct {
	Kind        *ChartKind `json:"chart_type,omitempty" yaml:"chart_type,omitempty"`
	YearFrom    *int       `json:"year_from,omitempty" yaml:"year_from,omitempty"`
	YearTo      *int       `json:"year_to,omitempty" yaml:"year_to,omitempty"`
	Doctype     *string    `json:"doctype,omitempty" yaml:"doctype,omitempty"`
	FieldLevel  *int       `json:"field_level,omitempty" yaml:"field_level,omitempty"`
	ScoreMin    *float64   `json:"field_score_min,omitempty" yaml:"field_score_min,omitempty"`
	TopK        *int       `json:"top_k,omitempty" yaml:"top_k,omitempty"`
	Color       *string    `json:"color,omitempty" yaml:"color,omitempty"`
	Mark        *Mark      `json:"mark,omitempty" yaml:"mark,omitempty"`
	Compare     *bool      `json:"compare,omitempty" yaml:"compare,omitempty"`
	CompareFrom *int       `json:"compare_year_from,omitempty" yaml:"compare_year_from,omitempty"`
	CompareTo   *int       `json:"compare_year_to,omitempty" yaml:"compare_year_to,omitempty"`
}

// IsEmpty reports whether the intent carries no field at all.
func (in Intent) IsEmpty() bool {
	return !in.HasSubstance() && in.Color == nil && in.Mark == nil
}

// HasSubstance reports whether the intent carries anything beyond styling
// (color, mark). A style-only turn needs a previous plan to apply to.
// Per prd001-plan-resolution R2.6.
func (in Intent) HasSubstance() bool {
	return in.Kind != nil || in.YearFrom != nil || in.YearTo != nil ||
		in.Doctype != nil || in.FieldLevel != nil || in.ScoreMin != nil ||
		in.TopK != nil || in.Compare != nil || in.CompareFrom != nil ||
		in.CompareTo != nil
}

// Compare-group tags carried by ResultRow in compare mode: the primary range
// is A, the compare range is B.
const (
	GroupPrimary = "A"
	GroupCompare = "B"
)

// ResultRow is one aggregated data point. Key is the group key (a year like
// "2021" or a field display name), Group tags compare-mode rows as A or B
// and is empty otherwise, and Count is the number of papers.
type ResultRow struct {
	Key   string `json:"key" yaml:"key"`
	Group string `json:"group,omitempty" yaml:"group,omitempty"`
	Count int    `json:"n_papers" yaml:"n_papers"`
}

// GroupCount is a group-key → count pair as returned by the dataset layer,
// before compare tagging and ranking.
type GroupCount struct {
	Key   string
	Count int
}
