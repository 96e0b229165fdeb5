// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/chart-engine/internal/dataset"
	"github.com/pdiddy/chart-engine/pkg/types"
)

func sampleSeed() *Seed {
	return &Seed{
		Fields: []Field{
			{ID: "C41008148", DisplayName: "Computer science", Level: 0},
			{ID: "C86803240", DisplayName: "Biology", Level: 0},
		},
		Papers: []Paper{
			{
				ID:           "W1",
				DOI:          "10.1234/one",
				Year:         2020,
				Doctype:      "article",
				CitedByCount: 12,
				Fields:       []PaperField{{ID: "C41008148", Score: 0.9}},
			},
			{
				ID:      "W2",
				Year:    2021,
				Doctype: "preprint",
				Fields: []PaperField{
					{ID: "C41008148", Score: 0.4},
					{ID: "C86803240", Score: 0.7},
				},
			},
		},
	}
}

func TestSeedWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := sampleSeed().WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var got Seed
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got.Fields) != 2 || len(got.Papers) != 2 {
		t.Fatalf("got %d fields, %d papers, want 2 and 2", len(got.Fields), len(got.Papers))
	}
	if got.Papers[0].DOI != "10.1234/one" || got.Papers[1].Fields[1].Score != 0.7 {
		t.Errorf("round trip mangled the seed: %+v", got)
	}
}

// TestSeedFeedsIngest pins the contract between fetch output and the
// dataset store: a written seed must ingest without skips.
func TestSeedFeedsIngest(t *testing.T) {
	tmpDir := t.TempDir()
	seedPath := filepath.Join(tmpDir, "seed.yaml")
	if err := sampleSeed().WriteFile(seedPath); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store, err := dataset.Open(types.DatasetConfig{Path: filepath.Join(tmpDir, "corpus.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), seedPath, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if summary.HasSkips() {
		t.Fatalf("summary = %+v, want no skips", summary)
	}
	if summary.Papers != 2 || summary.Fields != 2 || summary.Links != 3 {
		t.Errorf("summary = %+v, want 2 papers, 2 fields, 3 links", summary)
	}
}
