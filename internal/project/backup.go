package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/piwi3910/CrateStack/internal/model"
	"github.com/piwi3910/CrateStack/internal/rl"
)

const backupVersion = "1"

// Backup bundles the configuration and the learned value table in one file so
// a trained setup can be moved between machines.
type Backup struct {
	Version   string             `json:"version"`
	CreatedAt string             `json:"created_at"`
	Config    model.AppConfig    `json:"config"`
	Policy    map[string]float64 `json:"policy,omitempty"`
}

// ExportBackup writes cfg and table to path as JSON. A nil table is left out.
func ExportBackup(path string, cfg model.AppConfig, table *rl.ValueTable) error {
	b := Backup{
		Version:   backupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    cfg,
	}
	if table != nil {
		b.Policy = table.Document()
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportBackup reads a file written by ExportBackup and returns the validated
// configuration and the value table (empty when the backup has none).
func ImportBackup(path string) (model.AppConfig, *rl.ValueTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.AppConfig{}, nil, fmt.Errorf("failed to read backup file: %w", err)
	}
	b := Backup{Config: model.DefaultAppConfig()}
	if err := json.Unmarshal(data, &b); err != nil {
		return model.AppConfig{}, nil, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if b.Version == "" {
		return model.AppConfig{}, nil, fmt.Errorf("invalid backup file: missing version field")
	}
	if b.Version != backupVersion {
		return model.AppConfig{}, nil, fmt.Errorf("unsupported backup version %q", b.Version)
	}
	if err := b.Config.Validate(); err != nil {
		return model.AppConfig{}, nil, fmt.Errorf("invalid backup config: %w", err)
	}
	table, err := rl.FromDocument(b.Policy)
	if err != nil {
		return model.AppConfig{}, nil, fmt.Errorf("invalid backup policy: %w", err)
	}
	return b.Config, table, nil
}
