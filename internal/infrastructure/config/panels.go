package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/GriffinCanCode/PanelKit/backend/internal/shared/types"
)

// LoadPanelConfig reads a panel layout from a YAML file.
func LoadPanelConfig(path string) (*types.PanelConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read panel config: %w", err)
	}
	return ParsePanelConfig(raw)
}

// ParsePanelConfig decodes a YAML panel layout.
func ParsePanelConfig(raw []byte) (*types.PanelConfig, error) {
	var cfg types.PanelConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse panel config: %w", err)
	}
	if len(cfg.Resources) == 0 {
		return nil, fmt.Errorf("panel config declares no resources")
	}
	if len(cfg.Panels) == 0 {
		return nil, fmt.Errorf("panel config declares no panels")
	}
	return &cfg, nil
}
