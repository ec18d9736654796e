package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/arbor/pkg/registry"
	"gopkg.in/yaml.v3"
)

// seedDocument reads a YAML document file and persists it under an ID derived
// from the file name ("scene.yaml" becomes document "scene").
func seedDocument(ctx context.Context, reg *registry.Registry, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := reg.Store().Save(ctx, id, data); err != nil {
		return fmt.Errorf("failed to store seed document %s: %w", id, err)
	}

	fmt.Printf("Seeded document %q from %s\n", id, path)
	return nil
}
