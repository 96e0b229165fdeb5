// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vega renders resolved chart plans into Vega-Lite v5 specifications.
//
// Implements: prd003-visualization (R1-R4);
package vega

import (
	"fmt"

	"github.com/pdiddy/chart-engine/pkg/types"
)

// SchemaURL identifies the Vega-Lite dialect the renderer emits.
const SchemaURL = "https://vega.github.io/schema/vega-lite/v5.json"

// Spec is a Vega-Lite chart specification. Fields marshal in declaration
// order, so rendering the same plan and rows twice yields identical bytes.
type Spec struct {
	Schema      string   `json:"$schema"`      // Vega-Lite schema URL
	Description string   `json:"description"`  // short human label for the chart
	Data        Data     `json:"data"`         // inlined result rows
	Params      []Param  `json:"params"`       // interactive selections
	Mark        MarkDef  `json:"mark"`         // drawing primitive
	Encoding    Encoding `json:"encoding"`     // channel bindings
}

// Data inlines aggregated rows into the specification.
type Data struct {
	Values []types.ResultRow `json:"values"` // rows to plot
}

// Param declares a named selection the front end can use for cross-filtering.
type Param struct {
	Name   string `json:"name"`   // selection name referenced by encodings
	Select Select `json:"select"` // selection behavior
}

// Select describes a point selection over the given encoded fields.
type Select struct {
	Type   string   `json:"type"`   // selection type, always "point"
	Fields []string `json:"fields"` // row fields that identify a selected mark
}

// MarkDef selects the drawing primitive and its fixed styling.
type MarkDef struct {
	Type    string `json:"type"`            // bar, line, or area
	Tooltip bool   `json:"tooltip"`         // enable hover tooltips
	Color   string `json:"color,omitempty"` // fixed mark color, single-series charts only
}

// Encoding binds row fields to visual channels.
type Encoding struct {
	X       Channel    `json:"x"`               // category axis
	Y       Channel    `json:"y"`               // count axis
	Color   *Channel   `json:"color,omitempty"` // group hue, comparison charts only
	Opacity Opacity    `json:"opacity"`         // dims marks outside the selection
	Tooltip []FieldRef `json:"tooltip"`         // fields shown on hover
}

// Channel binds one row field to a visual channel.
type Channel struct {
	Field string `json:"field"`          // row field name
	Type  string `json:"type"`           // measurement type
	Sort  string `json:"sort,omitempty"` // sort order, "-y" for count-descending
	Title string `json:"title"`          // axis or legend title
}

// Opacity highlights the active selection and dims everything else.
type Opacity struct {
	Condition Condition `json:"condition"` // opacity while selected
	Value     float64   `json:"value"`     // opacity otherwise
}

// Condition ties a channel value to a selection param.
type Condition struct {
	Param string  `json:"param"` // selection name
	Value float64 `json:"value"` // channel value while the selection holds
}

// FieldRef names a row field with no further channel options.
type FieldRef struct {
	Field string `json:"field"`
}

// Render maps a validated plan and its aggregated rows to a Vega-Lite
// specification. Rendering is pure data shaping: no I/O, and identical
// inputs always produce the same specification. A nil row slice renders as
// an empty chart rather than a null data block.
func Render(p types.Plan, rows []types.ResultRow) (*Spec, error) {
	if rows == nil {
		rows = []types.ResultRow{}
	}

	var x Channel
	var description string
	switch p.Kind {
	case types.ChartPapersByYear:
		x = Channel{Field: "key", Type: "ordinal", Title: "Year"}
		description = "Number of papers by year"
	case types.ChartPapersByField:
		x = Channel{Field: "key", Type: "nominal", Sort: "-y", Title: "Field"}
		description = "Number of papers by field"
	default:
		return nil, &types.PipelineError{
			Kind:  types.ErrRenderFailed,
			Field: "chart_type",
			Msg:   fmt.Sprintf("cannot render chart type %q", p.Kind),
		}
	}

	mark := MarkDef{Type: string(p.Mark), Tooltip: true}
	pick := []string{"key"}
	tooltip := []FieldRef{{Field: "key"}, {Field: "n_papers"}}

	enc := Encoding{
		X: x,
		Y: Channel{Field: "n_papers", Type: "quantitative", Title: "Papers"},
		Opacity: Opacity{
			Condition: Condition{Param: "pick", Value: 1},
			Value:     0.35,
		},
	}

	if p.CompareOn() {
		// Hue carries the A/B split, so a fixed mark color is ignored here.
		enc.Color = &Channel{Field: "group", Type: "nominal", Title: "Group"}
		tooltip = append([]FieldRef{{Field: "group"}}, tooltip...)
		if p.Kind == types.ChartPapersByYear {
			pick = []string{"group", "key"}
		}
	} else if p.Color != "" {
		mark.Color = p.Color
	}
	enc.Tooltip = tooltip

	return &Spec{
		Schema:      SchemaURL,
		Description: description,
		Data:        Data{Values: rows},
		Params:      []Param{{Name: "pick", Select: Select{Type: "point", Fields: pick}}},
		Mark:        mark,
		Encoding:    enc,
	}, nil
}
