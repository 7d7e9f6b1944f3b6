package lumen

import (
	"fmt"
	"os"

	"github.com/gekko3d/lumen/dynlight"
	"gopkg.in/yaml.v3"
)

// LightingConfig is the on-disk dynamic lighting configuration.
type LightingConfig struct {
	Mode                   string                `yaml:"mode"`
	Entities               bool                  `yaml:"entities"`
	BlockEntities          bool                  `yaml:"block_entities"`
	Self                   bool                  `yaml:"self"`
	WaterSensitiveCheck    bool                  `yaml:"water_sensitive_check"`
	RegionRebuildsPerFrame int                   `yaml:"region_rebuilds_per_frame"`
	Kinds                  map[string]LightEntry `yaml:"kinds"`
	Items                  map[string]LightEntry `yaml:"items"`
}

// LightEntry is the luminance of one emitter kind or carried item.
type LightEntry struct {
	Luminance      int  `yaml:"luminance"`
	WaterSensitive bool `yaml:"water_sensitive"`
}

func DefaultLightingConfig() LightingConfig {
	return LightingConfig{
		Mode:                   dynlight.ModeFancy.String(),
		Entities:               true,
		BlockEntities:          true,
		Self:                   true,
		WaterSensitiveCheck:    true,
		RegionRebuildsPerFrame: 64,
	}
}

// LoadLightingConfig reads a YAML file on top of the defaults.
func LoadLightingConfig(path string) (LightingConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return LightingConfig{}, err
	}
	cfg, err := ParseLightingConfig(raw)
	if err != nil {
		return LightingConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func ParseLightingConfig(raw []byte) (LightingConfig, error) {
	cfg := DefaultLightingConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return LightingConfig{}, fmt.Errorf("lighting config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return LightingConfig{}, err
	}
	return cfg, nil
}

func (c LightingConfig) Validate() error {
	if _, err := dynlight.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("lighting config: %w", err)
	}
	if c.RegionRebuildsPerFrame < 0 {
		return fmt.Errorf("lighting config: region_rebuilds_per_frame must be >= 0, got %d", c.RegionRebuildsPerFrame)
	}
	for _, table := range []struct {
		name    string
		entries map[string]LightEntry
	}{{"kinds", c.Kinds}, {"items", c.Items}} {
		for key, entry := range table.entries {
			if entry.Luminance < 0 || entry.Luminance > dynlight.MaxLuminance {
				return fmt.Errorf("lighting config: %s.%s luminance %d out of range [0, %d]",
					table.name, key, entry.Luminance, dynlight.MaxLuminance)
			}
		}
	}
	return nil
}

// EngineMode returns the parsed mode. Call Validate first.
func (c LightingConfig) EngineMode() dynlight.Mode {
	m, _ := dynlight.ParseMode(c.Mode)
	return m
}

func (c LightingConfig) Categories() dynlight.Categories {
	return dynlight.Categories{
		Entities:            c.Entities,
		BlockEntities:       c.BlockEntities,
		Self:                c.Self,
		WaterSensitiveCheck: c.WaterSensitiveCheck,
	}
}

// Resolvers registers a constant resolver per kind and every item light.
func (c LightingConfig) Resolvers() *dynlight.Resolvers {
	r := dynlight.NewResolvers()
	c.registerInto(r)
	return r
}

func (c LightingConfig) registerInto(r *dynlight.Resolvers) {
	for kind, entry := range c.Kinds {
		r.RegisterConstant(kind, entry.Luminance, entry.WaterSensitive)
	}
	for item, entry := range c.Items {
		r.SetItem(item, dynlight.ItemLight{Luminance: entry.Luminance, WaterSensitive: entry.WaterSensitive})
	}
}
