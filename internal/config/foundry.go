package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FoundryTOML is the part of foundry.toml the compiler cares about
type FoundryTOML struct {
	Profile map[string]map[string]any `toml:"profile"`
}

// foundryOutDir returns the `out` setting of the given foundry profile,
// falling back to the default profile. Empty when foundry.toml is absent
// or does not set it.
func foundryOutDir(projectRoot, profile string) (string, error) {
	foundryPath := filepath.Join(projectRoot, "foundry.toml")
	if _, err := os.Stat(foundryPath); err != nil {
		return "", nil
	}

	var raw FoundryTOML
	if _, err := toml.DecodeFile(foundryPath, &raw); err != nil {
		return "", fmt.Errorf("failed to parse foundry.toml: %w", err)
	}

	for _, name := range []string{profile, "default"} {
		if p, ok := raw.Profile[name]; ok {
			if out, ok := p["out"].(string); ok && out != "" {
				return out, nil
			}
		}
	}
	return "", nil
}
