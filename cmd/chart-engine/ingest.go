// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/chart-engine/internal/dataset"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load a corpus seed file into the dataset store",
	Long: `Ingest reads a YAML seed file of papers, fields, and paper-field links and
upserts it into the SQLite corpus. Re-running with the same seed is
idempotent; records missing required values are skipped and reported.`,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	seedPath, _ := cmd.Flags().GetString("seed")
	if seedPath == "" {
		return fmt.Errorf("--seed is required")
	}

	store, err := dataset.Open(datasetConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), seedPath, os.Stdout)
	if err != nil {
		return err
	}
	if summary.HasSkips() {
		return fmt.Errorf("%d record(s) skipped", summary.Skipped)
	}
	return nil
}

func init() {
	ingestCmd.Flags().String("seed", "", "YAML seed file with papers, fields, and links")
	ingestCmd.Flags().String("db", "", "corpus database file (default data/corpus.db)")

	rootCmd.AddCommand(ingestCmd)
}
