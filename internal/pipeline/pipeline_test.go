// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/chart-engine/pkg/types"
)

// --- fakes ---

type fakeParser struct {
	in  types.Intent
	err error
}

func (f fakeParser) Parse(context.Context, string, *types.Plan) (types.Intent, error) {
	return f.in, f.err
}

type fakeDataset struct {
	byYear  []types.GroupCount
	byField []types.GroupCount
	err     error
	calls   int
}

func (f *fakeDataset) CountByYear(context.Context, types.YearRange, string) ([]types.GroupCount, error) {
	f.calls++
	return f.byYear, f.err
}

func (f *fakeDataset) CountByField(context.Context, types.YearRange, string, int, float64) ([]types.GroupCount, error) {
	f.calls++
	return f.byField, f.err
}

func ptr[T any](v T) *T { return &v }

// --- Chat ---

func TestChatHappyPath(t *testing.T) {
	ds := &fakeDataset{byYear: []types.GroupCount{
		{Key: "2020", Count: 10},
		{Key: "2021", Count: 12},
	}}
	p := New(fakeParser{in: types.Intent{Kind: ptr(types.ChartPapersByYear)}}, ds)

	res, err := p.Chat(context.Background(), "papers by year", nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if res.Answer != "Papers by year (2020–2024)." {
		t.Errorf("answer = %q", res.Answer)
	}
	if res.Plan.Kind != types.ChartPapersByYear {
		t.Errorf("plan kind = %q", res.Plan.Kind)
	}
	if len(res.Data) != 2 || res.Data[0].Key != "2020" || res.Data[0].Count != 10 {
		t.Errorf("data = %+v", res.Data)
	}
	if res.Spec == nil || res.Spec.Description != "Number of papers by year" {
		t.Errorf("spec = %+v", res.Spec)
	}
}

func TestChatParserErrorPropagates(t *testing.T) {
	boom := errors.New("api unreachable")
	p := New(fakeParser{err: boom}, &fakeDataset{})

	_, err := p.Chat(context.Background(), "anything", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped parser error", err)
	}
	if !strings.Contains(err.Error(), "parsing message") {
		t.Errorf("err = %v, want parse-stage context", err)
	}
	// A parse failure carries no pipeline kind; the transport maps it to an
	// internal error rather than blaming the request.
	if kind := types.KindOf(err); kind != "" {
		t.Errorf("kind = %q, want none", kind)
	}
}

func TestChatMultiTurnRefinement(t *testing.T) {
	ds := &fakeDataset{byYear: []types.GroupCount{{Key: "2020", Count: 3}}}

	first := New(fakeParser{in: types.Intent{Kind: ptr(types.ChartPapersByYear), Color: ptr("purple")}}, ds)
	res, err := first.Chat(context.Background(), "papers by year in purple", nil)
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}

	second := New(fakeParser{in: types.Intent{Mark: ptr(types.MarkLine)}}, ds)
	res2, err := second.Chat(context.Background(), "use a line chart", &res.Plan)
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}

	if res2.Plan.Mark != types.MarkLine {
		t.Errorf("mark = %q, want line", res2.Plan.Mark)
	}
	if res2.Plan.Color != "purple" {
		t.Errorf("color = %q, want purple carried over", res2.Plan.Color)
	}
	if res2.Spec.Mark.Type != "line" || res2.Spec.Mark.Color != "purple" {
		t.Errorf("spec mark = %+v", res2.Spec.Mark)
	}
}

// --- Run ---

func TestRunMergeFailureStopsPipeline(t *testing.T) {
	ds := &fakeDataset{}
	p := New(fakeParser{}, ds)

	// Style-only intent with no previous plan cannot be resolved.
	_, err := p.Run(context.Background(), types.Intent{Color: ptr("red")}, nil)
	if types.KindOf(err) != types.ErrIntentIncomplete {
		t.Fatalf("kind = %q, want %q", types.KindOf(err), types.ErrIntentIncomplete)
	}
	if ds.calls != 0 {
		t.Errorf("dataset called %d times after merge failure", ds.calls)
	}
}

func TestRunValidationFailureStopsPipeline(t *testing.T) {
	ds := &fakeDataset{}
	p := New(fakeParser{}, ds)

	in := types.Intent{
		Kind: ptr(types.ChartPapersByField),
		TopK: ptr(-3),
	}
	_, err := p.Run(context.Background(), in, nil)
	if types.KindOf(err) != types.ErrValidationFailed {
		t.Fatalf("kind = %q, want %q", types.KindOf(err), types.ErrValidationFailed)
	}
	if types.FieldOf(err) != "top_k" {
		t.Errorf("field = %q, want top_k", types.FieldOf(err))
	}
	if ds.calls != 0 {
		t.Errorf("dataset called %d times after validation failure", ds.calls)
	}
}

func TestRunAggregationFailureSurfaces(t *testing.T) {
	cause := errors.New("disk exploded")
	ds := &fakeDataset{err: cause}
	p := New(fakeParser{}, ds)

	_, err := p.Run(context.Background(), types.Intent{Kind: ptr(types.ChartPapersByYear)}, nil)
	if types.KindOf(err) != types.ErrAggregationFailed {
		t.Fatalf("kind = %q, want %q", types.KindOf(err), types.ErrAggregationFailed)
	}
	if !errors.Is(err, cause) {
		t.Errorf("err = %v, want wrapped cause", err)
	}
}

func TestRunCompareEndToEnd(t *testing.T) {
	ds := &fakeDataset{byYear: []types.GroupCount{{Key: "2020", Count: 7}}}
	p := New(fakeParser{}, ds)

	in := types.Intent{
		Kind:        ptr(types.ChartPapersByYear),
		Compare:     ptr(true),
		CompareFrom: ptr(2010),
		CompareTo:   ptr(2014),
	}
	res, err := p.Run(context.Background(), in, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Answer != "Papers by year (A=2020–2024, B=2010–2014)." {
		t.Errorf("answer = %q", res.Answer)
	}
	// One row per range, tagged A then B.
	if len(res.Data) != 2 || res.Data[0].Group != types.GroupPrimary || res.Data[1].Group != types.GroupCompare {
		t.Errorf("data = %+v", res.Data)
	}
	if res.Spec.Encoding.Color == nil {
		t.Error("comparison spec missing group color channel")
	}
	if ds.calls != 2 {
		t.Errorf("dataset calls = %d, want 2", ds.calls)
	}
}

// --- Quick ---

func TestQuickRunsCallerPlan(t *testing.T) {
	ds := &fakeDataset{byField: []types.GroupCount{
		{Key: "Medicine", Count: 5},
		{Key: "Biology", Count: 9},
	}}
	p := New(fakeParser{}, ds)

	resolved := types.DefaultPlan(types.ChartPapersByField)
	resolved.Field.TopK = 1

	res, err := p.Quick(context.Background(), resolved)
	if err != nil {
		t.Fatalf("Quick: %v", err)
	}

	if res.Answer != "Papers by field (2020–2024, level=1, score>=0.3, top_k=1)." {
		t.Errorf("answer = %q", res.Answer)
	}
	if len(res.Data) != 1 || res.Data[0].Key != "Biology" {
		t.Errorf("data = %+v, want top entry Biology", res.Data)
	}
}

func TestQuickValidatesPlan(t *testing.T) {
	ds := &fakeDataset{}
	p := New(fakeParser{}, ds)

	bad := types.DefaultPlan(types.ChartPapersByYear)
	bad.Years = types.YearRange{From: 2024, To: 2020}

	_, err := p.Quick(context.Background(), bad)
	if types.KindOf(err) != types.ErrValidationFailed {
		t.Fatalf("kind = %q, want %q", types.KindOf(err), types.ErrValidationFailed)
	}
	if ds.calls != 0 {
		t.Errorf("dataset called %d times for invalid plan", ds.calls)
	}
}

// --- answer ---

func TestAnswerVariants(t *testing.T) {
	year := types.DefaultPlan(types.ChartPapersByYear)

	yearCmp := year
	yearCmp.Compare = &types.YearRange{From: 2010, To: 2014}

	field := types.DefaultPlan(types.ChartPapersByField)

	fieldCmp := field
	fieldCmp.Field = &types.FieldParams{Level: 2, ScoreMin: 0.5, TopK: 10}
	fieldCmp.Compare = &types.YearRange{From: 2010, To: 2014}

	tests := []struct {
		name string
		plan types.Plan
		want string
	}{
		{"year", year, "Papers by year (2020–2024)."},
		{"year compare", yearCmp, "Papers by year (A=2020–2024, B=2010–2014)."},
		{"field", field, "Papers by field (2020–2024, level=1, score>=0.3, top_k=25)."},
		{"field compare", fieldCmp, "Papers by field (A=2020–2024, B=2010–2014, level=2, score>=0.5, top_k=10)."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := answer(tt.plan); got != tt.want {
				t.Errorf("answer = %q, want %q", got, tt.want)
			}
		})
	}
}
