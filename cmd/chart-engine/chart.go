// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/chart-engine/internal/dataset"
	"github.com/pdiddy/chart-engine/internal/intent"
	"github.com/pdiddy/chart-engine/internal/pipeline"
	"github.com/pdiddy/chart-engine/pkg/types"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render a one-shot chart without a conversation",
	Long: `Chart renders a single chart from command-line filters, skipping the
planner entirely. Use the year subcommand for per-year counts and the field
subcommand for per-field counts.`,
}

// --- year subcommand ---

var chartYearCmd = &cobra.Command{
	Use:   "year",
	Short: "Count papers per publication year",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChart(cmd, types.ChartPapersByYear)
	},
}

// --- field subcommand ---

var chartFieldCmd = &cobra.Command{
	Use:   "field",
	Short: "Count papers per research field",
	Long: `Field counts distinct papers per research field at one hierarchy level,
keeping links at or above the score threshold and the top-k fields by count.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChart(cmd, types.ChartPapersByField)
	},
}

func runChart(cmd *cobra.Command, kind types.ChartKind) error {
	p, err := chartPlan(cmd, kind)
	if err != nil {
		return err
	}

	store, err := dataset.Open(datasetConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	// Quick charts never consult the planner; the plan is already resolved.
	pipe := pipeline.New(intent.RuleParser{}, store)
	res, err := pipe.Quick(context.Background(), p)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return writeResult(res, jsonOutput)
}

// chartPlan overlays the command's filter flags on the default plan for kind.
// Out-of-range values are left for the validator to report.
func chartPlan(cmd *cobra.Command, kind types.ChartKind) (types.Plan, error) {
	p := types.DefaultPlan(kind)

	p.Years.From, _ = cmd.Flags().GetInt("year-from")
	p.Years.To, _ = cmd.Flags().GetInt("year-to")
	p.Doctype, _ = cmd.Flags().GetString("doctype")
	p.Color, _ = cmd.Flags().GetString("color")

	mark, _ := cmd.Flags().GetString("mark")
	p.Mark = types.Mark(mark)

	if kind == types.ChartPapersByField {
		p.Field.Level, _ = cmd.Flags().GetInt("level")
		p.Field.ScoreMin, _ = cmd.Flags().GetFloat64("score-min")
		p.Field.TopK, _ = cmd.Flags().GetInt("top-k")
	}

	cmpFrom, _ := cmd.Flags().GetInt("compare-from")
	cmpTo, _ := cmd.Flags().GetInt("compare-to")
	switch {
	case cmpFrom == 0 && cmpTo == 0:
		// No comparison requested.
	case cmpFrom > 0 && cmpTo > 0:
		p.Compare = &types.YearRange{From: cmpFrom, To: cmpTo}
	default:
		return types.Plan{}, fmt.Errorf("--compare-from and --compare-to must be given together")
	}

	return p, nil
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	chartCmd.PersistentFlags().Int("year-from", types.DefaultYearFrom, "first publication year")
	chartCmd.PersistentFlags().Int("year-to", types.DefaultYearTo, "last publication year")
	chartCmd.PersistentFlags().String("doctype", "", "filter by document type (article, preprint, ...)")
	chartCmd.PersistentFlags().String("color", "", "mark color (CSS name or hex)")
	chartCmd.PersistentFlags().String("mark", "bar", "mark type: bar, line, or area")
	chartCmd.PersistentFlags().Int("compare-from", 0, "first year of the comparison range")
	chartCmd.PersistentFlags().Int("compare-to", 0, "last year of the comparison range")
	chartCmd.PersistentFlags().String("db", "", "corpus database file (default data/corpus.db)")
	chartCmd.PersistentFlags().Bool("json", false, "output the full result as JSON")

	// Field-only flags.
	chartFieldCmd.Flags().Int("level", types.DefaultFieldLevel, "field hierarchy level to group by")
	chartFieldCmd.Flags().Float64("score-min", types.DefaultFieldScoreMin, "minimum paper-field score")
	chartFieldCmd.Flags().Int("top-k", types.DefaultChartTopK, "number of highest-count fields to keep")

	chartCmd.AddCommand(chartYearCmd)
	chartCmd.AddCommand(chartFieldCmd)

	rootCmd.AddCommand(chartCmd)
}
