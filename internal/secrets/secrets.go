// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files. Each
// file in the directory is one secret: the filename is the key name and the
// trimmed file contents are the value.
//
// The chart engine reads one key: anthropic-api-key, for the planner model.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDir is where the CLI looks for key files, relative to the working
// directory.
const DefaultDir = ".secrets/"

// AnthropicKeyFile names the planner API key file inside the secrets
// directory.
const AnthropicKeyFile = "anthropic-api-key"

// Store maps key names to their values.
type Store map[string]string

// Load reads every regular file in dir into a Store. A missing directory is
// not an error; it loads as an empty Store. Dotfiles and empty values are
// skipped, and an unreadable file produces a warning on stderr but does not
// abort.
func Load(dir string) (Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	store := make(Store)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			store[name] = value
		}
	}

	return store, nil
}

// Resolve returns override when it is set and the stored value for key
// otherwise. Flag and config values take precedence over key files this way.
func (s Store) Resolve(key, override string) string {
	if override != "" {
		return override
	}
	return s[key]
}
