package model

import (
	"errors"
	"fmt"
)

// AppConfig holds application-wide settings loaded from file and environment.
type AppConfig struct {
	Container ContainerSpec `json:"container"`
	Packing   PackSettings  `json:"packing"`
	RL        RLSettings    `json:"rl"`
	Logging   LoggingConfig `json:"logging"`
	Metrics   MetricsConfig `json:"metrics"`
	Output    OutputConfig  `json:"output"`
	Storage   StorageConfig `json:"storage"`
}

type LoggingConfig struct {
	Level string `json:"level"` // debug, info, warn, error
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// OutputConfig names the files written after a packing run. Empty paths are skipped.
type OutputConfig struct {
	ResultPath string `json:"result_path"`
	PDFPath    string `json:"pdf_path"`
	LabelsPath string `json:"labels_path"`
	ExcelPath  string `json:"excel_path"`
	DXFPath    string `json:"dxf_path"`
}

// StorageConfig points at persisted learning state.
type StorageConfig struct {
	PolicyPath string `json:"policy_path"` // .json, .json.zst or .db
}

// DefaultAppConfig returns an AppConfig populated with the tuned defaults.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Container: ContainerSpec{Width: 100, Height: 100, Depth: 100},
		Packing:   DefaultPackSettings(),
		RL:        DefaultRLSettings(),
		Logging:   LoggingConfig{Level: "info"},
		Metrics:   MetricsConfig{Addr: ":9108"},
		Output:    OutputConfig{ResultPath: "result.json"},
	}
}

// Validate reports every invalid field at once.
func (c AppConfig) Validate() error {
	var errs []error
	if !c.Container.Valid() {
		errs = append(errs, fmt.Errorf("container dimensions must be positive with at most %d cells, got %dx%dx%d",
			MaxContainerCells, c.Container.Width, c.Container.Height, c.Container.Depth))
	}
	if err := c.Packing.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("packing: %w", err))
	}
	if err := c.RL.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("rl: %w", err))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Logging.Level))
	}
	return errors.Join(errs...)
}
