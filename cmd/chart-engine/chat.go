// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/chart-engine/internal/dataset"
	"github.com/pdiddy/chart-engine/internal/pipeline"
	"github.com/pdiddy/chart-engine/pkg/types"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Run one conversation turn against the corpus",
	Long: `Chat resolves a natural-language chart request and prints the answer with
the aggregated rows. With --session, the resolved plan is written to a YAML
file and read back on the next invocation, so follow-up messages refine the
previous chart:

  chart-engine chat --session s.yaml "papers by year 2018-2024"
  chart-engine chat --session s.yaml "make it a purple line chart"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		return fmt.Errorf("message must not be empty")
	}

	store, err := dataset.Open(datasetConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	sessionPath, _ := cmd.Flags().GetString("session")
	prev, err := loadSession(sessionPath)
	if err != nil {
		return err
	}

	pipe := pipeline.New(buildParser(plannerConfig(cmd)), store)
	res, err := pipe.Chat(context.Background(), message, prev)
	if err != nil {
		return err
	}

	if sessionPath != "" {
		if err := saveSession(sessionPath, res.Plan); err != nil {
			return err
		}
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return writeResult(res, jsonOutput)
}

// loadSession reads the previous turn's resolved plan. No session file yet
// means a fresh conversation, not an error.
func loadSession(path string) (*types.Plan, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session file %s: %w", path, err)
	}

	var p types.Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing session file %s: %w", path, err)
	}
	return &p, nil
}

func saveSession(path string, p types.Plan) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling session plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing session file %s: %w", path, err)
	}
	return nil
}

// writeResult prints a pipeline result: the full JSON payload with --json,
// otherwise the answer plus a count table.
func writeResult(res *pipeline.Result, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Println(res.Answer)
	if len(res.Data) == 0 {
		fmt.Println("No matching papers.")
		return nil
	}

	compare := res.Plan.CompareOn()
	fmt.Println()
	if compare {
		fmt.Fprintf(os.Stdout, "%-5s  %-40s  %s\n", "Group", "Key", "Papers")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 55))
	} else {
		fmt.Fprintf(os.Stdout, "%-40s  %s\n", "Key", "Papers")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 48))
	}

	for _, row := range res.Data {
		key := row.Key
		if len(key) > 40 {
			key = key[:37] + "..."
		}
		if compare {
			fmt.Fprintf(os.Stdout, "%-5s  %-40s  %d\n", row.Group, key, row.Count)
		} else {
			fmt.Fprintf(os.Stdout, "%-40s  %d\n", key, row.Count)
		}
	}

	fmt.Fprintf(os.Stdout, "\n%d rows\n", len(res.Data))
	return nil
}

func init() {
	chatCmd.Flags().String("session", "", "YAML file holding the previous turn's plan")
	chatCmd.Flags().String("db", "", "corpus database file (default data/corpus.db)")
	chatCmd.Flags().String("model", "", "AI model identifier for the planner")
	chatCmd.Flags().Bool("json", false, "output the full result as JSON")

	rootCmd.AddCommand(chatCmd)
}
