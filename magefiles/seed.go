//go:build mage

package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Seed builds the CLI and loads data/seed.yaml into the corpus database.
func Seed() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "ingest", "--seed", filepath.Join("data", "seed.yaml"))
}
