// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the chart-engine CLI.
// Implements: prd005-http-api, prd006-dataset-store, prd007-pipeline
//             (CLI surface).
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/chart-engine/internal/intent"
	"github.com/pdiddy/chart-engine/internal/secrets"
	"github.com/pdiddy/chart-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// defaultPlannerModel is used when neither a flag nor the config names one.
const defaultPlannerModel = "claude-sonnet-4-5-20250929"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Store

// rootCmd is the base command for the chart-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "chart-engine",
	Short: "Natural-language chart backend for a local paper corpus",
	Long: `chart-engine turns conversation messages into chart specifications over a
local SQLite corpus of papers. A planner resolves each message against the
previous turn's plan, the aggregator computes grouped counts, and the
renderer emits a Vega-Lite spec the frontend can draw directly.

Run the HTTP API with serve, hold a conversation with chat, render one-shot
charts with chart, and load a corpus seed with ingest.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(secrets.DefaultDir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./chart-engine.yaml or ~/.config/chart-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("chart-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "chart-engine"))
		}
	}

	viper.SetEnvPrefix("CHART_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// datasetConfig assembles the store settings: the --db flag wins, then the
// config file, then the conventional data/corpus.db.
func datasetConfig(cmd *cobra.Command) types.DatasetConfig {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = viper.GetString("dataset.path")
	}
	if path == "" {
		path = "data/corpus.db"
	}
	return types.DatasetConfig{
		Path:         path,
		QueryTimeout: viper.GetDuration("dataset.query_timeout"),
	}
}

// plannerConfig assembles the planner settings. The API key comes from the
// config or environment, falling back to the anthropic-api-key secret file.
func plannerConfig(cmd *cobra.Command) types.PlannerConfig {
	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = viper.GetString("planner.model")
	}
	if model == "" {
		model = defaultPlannerModel
	}

	var cfg types.PlannerConfig
	cfg.Model = model
	cfg.APIKey = loadedSecrets.Resolve(secrets.AnthropicKeyFile, viper.GetString("planner.api_key"))
	cfg.MaxRetries = viper.GetInt("planner.max_retries")
	cfg.Timeout = viper.GetDuration("planner.timeout")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg
}

// buildParser picks the planner: hybrid model+rules when an API key is
// available, rules alone otherwise.
func buildParser(cfg types.PlannerConfig) intent.Parser {
	if cfg.APIKey == "" {
		return intent.RuleParser{}
	}
	return intent.HybridParser{
		Model: &intent.ClaudeParser{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			MaxRetries: cfg.MaxRetries,
			Client:     &http.Client{Timeout: cfg.Timeout},
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
