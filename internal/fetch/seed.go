// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Seed is a corpus seed: a field dictionary plus papers with inline field
// scores, in the YAML layout the ingest command consumes (R4.1).
type Seed struct {
	Fields []Field `yaml:"fields"`
	Papers []Paper `yaml:"papers"`
}

// Field is one entry in the seed's field dictionary.
type Field struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"display_name"`
	Level       int    `yaml:"level"`
}

// Paper is one publication record with its field scores.
type Paper struct {
	ID           string       `yaml:"id"`
	DOI          string       `yaml:"doi,omitempty"`
	Year         int          `yaml:"year"`
	Doctype      string       `yaml:"doctype"`
	CitedByCount int          `yaml:"cited_by_count"`
	Fields       []PaperField `yaml:"fields,omitempty"`
}

// PaperField links a paper to a field with the tagger's confidence score.
type PaperField struct {
	ID    string  `yaml:"id"`
	Score float64 `yaml:"score"`
}

// WriteFile writes the seed as YAML at path, ready for ingest (R4.2).
func (s *Seed) WriteFile(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding seed: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing seed file: %w", err)
	}
	return nil
}
