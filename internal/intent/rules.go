// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package intent

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/chart-engine/pkg/types"
)

var (
	// compareRangesRe matches "2020-2022 vs 2023-2024" style requests where
	// a compare word separates the two ranges.
	compareRangesRe = regexp.MustCompile(`(\d{4})\s*[-–]\s*(\d{4}).*?\b(?:vs|versus|compare)\b.*?(\d{4})\s*[-–]\s*(\d{4})`)

	compareOffRe = regexp.MustCompile(`\b(?:no|without|stop|remove|drop|disable)\s+(?:the\s+)?compar(?:e|ing|ison)s?\b|\bdon'?t\s+compare\b|\bsingle\s+range\b`)
	compareOnRe  = regexp.MustCompile(`\b(?:vs|versus|comparison|compared?)\b`)

	yearRangeRe  = regexp.MustCompile(`\b(\d{4})\s*(?:[-–]|to|through)\s*(\d{4})\b`)
	singleYearRe = regexp.MustCompile(`\b(?:in|for|during)\s+(\d{4})\b`)
	sinceYearRe  = regexp.MustCompile(`\bsince\s+(\d{4})\b`)

	topKRe     = regexp.MustCompile(`\btop[_\s-]*k\s*[:=]?\s*(\d{1,4})\b`)
	topNRe     = regexp.MustCompile(`\btop\s+(\d{1,3})\b`)
	scoreMinRe = regexp.MustCompile(`\b(?:field[_\s-]*score[_\s-]*min|threshold|score)\s*[:=]?\s*(0?\.\d+|\d+(?:\.\d+)?)\b`)
	levelRe    = regexp.MustCompile(`\b(?:field[_\s-]*level|level)\s*[:=]?\s*(\d{1,2})\b`)

	doctypeRe = regexp.MustCompile(`\b(article|preprint|conference|journal|proceedings)s?\b`)

	fieldKindRe = regexp.MustCompile(`\bby\s+fields?\b|\bfields\b|\btopics?\b|\bdisciplines?\b`)
	yearKindRe  = regexp.MustCompile(`\bby\s+year\b|\bper\s+year\b|\byearly\b|\bover\s+time\b|\btimeline\b`)

	lineMarkRe = regexp.MustCompile(`\bline\b|\btrend\b`)
	areaMarkRe = regexp.MustCompile(`\barea\b`)
	barMarkRe  = regexp.MustCompile(`\bbars?\b`)

	hexColorRe  = regexp.MustCompile(`#(?:[0-9a-fA-F]{6}|[0-9a-fA-F]{3})\b`)
	colorWordRe = regexp.MustCompile(`\b(red|blue|green|orange|purple|pink|brown|black|gray|grey|teal|navy|gold|crimson|steelblue|tomato|violet|maroon)\b`)
)

// RuleParser extracts intent fields with regexes and keyword lists. It only
// reports what the message states outright, so it works without any API key
// and doubles as the deterministic overlay for the model-backed parser.
type RuleParser struct{}

// Parse scans the message for chart parameters. The previous plan is unused:
// rule extraction has no references to resolve.
func (RuleParser) Parse(_ context.Context, message string, _ *types.Plan) (types.Intent, error) {
	t := strings.ToLower(message)
	var in types.Intent

	switch {
	case fieldKindRe.MatchString(t):
		k := types.ChartPapersByField
		in.Kind = &k
	case yearKindRe.MatchString(t):
		k := types.ChartPapersByYear
		in.Kind = &k
	}

	parseRanges(t, &in)
	parseFilters(t, &in)
	parseStyle(t, &in)

	return in, nil
}

// parseRanges handles year ranges and the compare toggle. A disable phrase
// wins over everything; otherwise an "A vs B" pair fills both ranges, a
// compare word promotes nearby ranges, and a lone range or year sets the
// primary span.
func parseRanges(t string, in *types.Intent) {
	if compareOffRe.MatchString(t) {
		off := false
		in.Compare = &off
		fillPrimaryRange(t, in)
		return
	}

	if m := compareRangesRe.FindStringSubmatch(t); m != nil {
		on := true
		in.Compare = &on
		in.YearFrom, in.YearTo = intPtr(m[1]), intPtr(m[2])
		in.CompareFrom, in.CompareTo = intPtr(m[3]), intPtr(m[4])
		return
	}

	if compareOnRe.MatchString(t) {
		on := true
		in.Compare = &on

		ranges := yearRangeRe.FindAllStringSubmatchIndex(t, -1)
		switch len(ranges) {
		case 0:
			// Bare "compare": the resolver inherits a prior range or
			// reports what is missing.
			fillPrimaryRange(t, in)
		case 1:
			// A lone range after the compare word is the comparison
			// range; before it, the primary.
			word := compareOnRe.FindStringIndex(t)
			from, to := rangeInts(t, ranges[0])
			if ranges[0][0] >= word[1] {
				in.CompareFrom, in.CompareTo = from, to
			} else {
				in.YearFrom, in.YearTo = from, to
			}
		default:
			in.YearFrom, in.YearTo = rangeInts(t, ranges[0])
			in.CompareFrom, in.CompareTo = rangeInts(t, ranges[1])
		}
		return
	}

	fillPrimaryRange(t, in)
}

// fillPrimaryRange sets year_from/year_to from a range, a single year, or a
// "since" phrase, in that order of preference.
func fillPrimaryRange(t string, in *types.Intent) {
	if m := yearRangeRe.FindStringSubmatch(t); m != nil {
		in.YearFrom, in.YearTo = intPtr(m[1]), intPtr(m[2])
		return
	}
	if m := singleYearRe.FindStringSubmatch(t); m != nil {
		in.YearFrom, in.YearTo = intPtr(m[1]), intPtr(m[1])
		return
	}
	if m := sinceYearRe.FindStringSubmatch(t); m != nil {
		in.YearFrom = intPtr(m[1])
	}
}

func parseFilters(t string, in *types.Intent) {
	if m := topKRe.FindStringSubmatch(t); m != nil {
		in.TopK = intPtr(m[1])
	} else if m := topNRe.FindStringSubmatch(t); m != nil {
		in.TopK = intPtr(m[1])
	}

	if m := scoreMinRe.FindStringSubmatch(t); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			in.ScoreMin = &f
		}
	}

	if m := levelRe.FindStringSubmatch(t); m != nil {
		in.FieldLevel = intPtr(m[1])
	}

	if m := doctypeRe.FindStringSubmatch(t); m != nil {
		d := m[1]
		in.Doctype = &d
	}
}

func parseStyle(t string, in *types.Intent) {
	switch {
	case lineMarkRe.MatchString(t):
		mk := types.MarkLine
		in.Mark = &mk
	case areaMarkRe.MatchString(t):
		mk := types.MarkArea
		in.Mark = &mk
	case barMarkRe.MatchString(t):
		mk := types.MarkBar
		in.Mark = &mk
	}

	if m := hexColorRe.FindString(t); m != "" {
		c := m
		in.Color = &c
	} else if m := colorWordRe.FindStringSubmatch(t); m != nil {
		c := m[1]
		in.Color = &c
	}
}

// rangeInts reads both year groups out of a yearRangeRe submatch index pair.
func rangeInts(t string, idx []int) (*int, *int) {
	return intPtr(t[idx[2]:idx[3]]), intPtr(t[idx[4]:idx[5]])
}

func intPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
