// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/chart-engine/internal/fetch"
	"github.com/pdiddy/chart-engine/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [query]",
	Short: "Pull papers from OpenAlex into a corpus seed file",
	Long: `Fetch searches the OpenAlex Works API and writes the matching papers, their
fields of study, and the tagger's confidence scores as a YAML seed file.
Load the seed into the corpus with ingest.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	out, _ := cmd.Flags().GetString("out")
	yearFrom, _ := cmd.Flags().GetInt("year-from")
	yearTo, _ := cmd.Flags().GetInt("year-to")
	maxWorks, _ := cmd.Flags().GetInt("max")

	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		email = viper.GetString("fetch.email")
	}

	f := &fetch.Fetcher{
		Client: &http.Client{Timeout: 30 * time.Second},
		Email:  email,
	}
	req := fetch.Request{
		Query:    query,
		Years:    types.YearRange{From: yearFrom, To: yearTo},
		MaxWorks: maxWorks,
	}

	seed, err := f.Fetch(context.Background(), req, os.Stdout)
	if err != nil {
		return err
	}
	if err := seed.WriteFile(out); err != nil {
		return err
	}

	fmt.Printf("\nwrote %d papers and %d fields to %s\n", len(seed.Papers), len(seed.Fields), out)
	fmt.Printf("load it with: chart-engine ingest --seed %s\n", out)
	return nil
}

func init() {
	fetchCmd.Flags().String("out", "data/seed.yaml", "seed file to write")
	fetchCmd.Flags().Int("year-from", types.DefaultYearFrom, "earliest publication year")
	fetchCmd.Flags().Int("year-to", types.DefaultYearTo, "latest publication year")
	fetchCmd.Flags().Int("max", 200, "maximum works to pull")
	fetchCmd.Flags().String("email", "", "contact email for the OpenAlex polite pool")

	rootCmd.AddCommand(fetchCmd)
}
