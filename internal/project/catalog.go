package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/piwi3910/CrateStack/internal/model"
)

// DefaultCatalogPath returns ~/.cratestack/containers.json.
func DefaultCatalogPath() string {
	return filepath.Join(DefaultConfigDir(), "containers.json")
}

// SaveCatalog writes the container catalog as indented JSON, creating parent
// directories as needed.
func SaveCatalog(path string, cat model.Catalog) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}

// LoadCatalog reads the catalog at path. A missing file is created with the
// default presets.
func LoadCatalog(path string) (model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cat := model.DefaultCatalog()
			return cat, SaveCatalog(path, cat)
		}
		return model.Catalog{}, fmt.Errorf("failed to read catalog: %w", err)
	}
	var cat model.Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return model.Catalog{}, fmt.Errorf("failed to parse catalog: %w", err)
	}
	for _, p := range cat.Containers {
		if !p.Spec().Valid() {
			return model.Catalog{}, fmt.Errorf("catalog preset %q has invalid size %dx%dx%d", p.Name, p.Width, p.Height, p.Depth)
		}
	}
	return cat, nil
}

// ImportCatalog merges the presets stored at path into existing. Presets whose
// ID is already known are skipped.
func ImportCatalog(path string, existing model.Catalog) (model.Catalog, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, 0, fmt.Errorf("failed to read catalog: %w", err)
	}
	var imported model.Catalog
	if err := json.Unmarshal(data, &imported); err != nil {
		return existing, 0, fmt.Errorf("failed to parse catalog: %w", err)
	}
	added := existing.Merge(imported)
	return existing, added, nil
}
