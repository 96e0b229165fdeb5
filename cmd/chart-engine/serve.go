// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/chart-engine/internal/dataset"
	"github.com/pdiddy/chart-engine/internal/pipeline"
	"github.com/pdiddy/chart-engine/internal/server"
	"github.com/pdiddy/chart-engine/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chart API server",
	Long: `Serve starts the HTTP API on the configured address. The frontend posts
conversation turns to /api/chat and one-shot chart requests to
/api/chart/papers_by_year and /api/chart/papers_by_field.

When an Anthropic API key is available (.secrets/anthropic-api-key or the
CHART_ENGINE_PLANNER_API_KEY environment variable), messages are planned by
the Claude model with rule extraction layered on top; without a key the rule
parser runs alone.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, err := buildLogger(verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := dataset.Open(datasetConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}
	span, ok, err := store.Span(ctx)
	if err != nil {
		return err
	}
	if !ok {
		logger.Warn("corpus is empty; run ingest before serving charts")
	} else {
		logger.Info("corpus loaded",
			zap.Int("papers", stats.Papers),
			zap.Int("fields", stats.Fields),
			zap.Int("links", stats.Links),
			zap.Int("year_from", span.From),
			zap.Int("year_to", span.To))
	}

	pcfg := plannerConfig(cmd)
	if pcfg.APIKey == "" {
		logger.Info("planner running on rules only; no anthropic api key found")
	} else {
		logger.Info("planner ready", zap.String("model", pcfg.Model))
	}

	pipe := pipeline.New(buildParser(pcfg), store)
	return server.Serve(pipe, serverConfig(cmd), logger)
}

func serverConfig(cmd *cobra.Command) types.ServerConfig {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = viper.GetString("server.addr")
	}
	return types.ServerConfig{
		Addr:           addr,
		AllowedOrigins: viper.GetStringSlice("server.allowed_origins"),
	}
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default 127.0.0.1:8000)")
	serveCmd.Flags().String("db", "", "corpus database file (default data/corpus.db)")
	serveCmd.Flags().String("model", "", "AI model identifier for the planner")
	serveCmd.Flags().Bool("verbose", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
}
