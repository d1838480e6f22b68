// Package config loads the engine's tunables and fixture-channel table
// from YAML, replacing the teacher's hardcoded initializeFixtureProfiles
// literal with a configuration file while keeping its "reasonable
// defaults for real usage" philosophy: every field here has a sane
// default, and an empty or partial file still produces a runnable config.
package config

import (
	"fmt"
	"os"

	"github.com/NullCarrierNC/photonics-dmx-sub002/dmx"
	"gopkg.in/yaml.v3"
)

// Config is the engine's full runtime configuration: the §6 tunables plus
// the sink endpoints and fixture-channel table a real deployment needs.
type Config struct {
	TickHz               int              `yaml:"tickHz"`
	LayerGraceMs         int64            `yaml:"layerGraceMs"`
	ConsistencyWindowMs  int64            `yaml:"consistencyWindowMs"`
	InactivityMs         int64            `yaml:"inactivityMs"`
	DriftThresholdMs     int64            `yaml:"driftThresholdMs"`
	DriftCheckIntervalMs int64            `yaml:"driftCheckIntervalMs"`
	ProtectedLayerMin    int              `yaml:"protectedLayerMin"`
	Brightness           BrightnessLevels `yaml:"brightness"`
	BrightnessLevel      string           `yaml:"brightnessLevel"`
	Fixtures             []FixtureSpec    `yaml:"fixtures"`
	Sinks                SinksConfig      `yaml:"sinks"`
}

// BrightnessLevels is the §6 `brightness` option: a named-level table of
// attenuation factors, one of which is selected by Config.BrightnessLevel
// and applied by DmxPublisher before byte conversion.
type BrightnessLevels struct {
	Low    float64 `yaml:"low"`
	Medium float64 `yaml:"medium"`
	High   float64 `yaml:"high"`
	Max    float64 `yaml:"max"`
}

// Factor resolves level ("low", "medium", "high", "max") to its configured
// attenuation factor. An unrecognized or empty level falls back to Max.
func (b BrightnessLevels) Factor(level string) float64 {
	switch level {
	case "low":
		return b.Low
	case "medium":
		return b.Medium
	case "high":
		return b.High
	default:
		return b.Max
	}
}

// FixtureSpec is one light's entry in the fixture-channel table, as
// declared in YAML.
type FixtureSpec struct {
	LightID  string                   `yaml:"lightId"`
	Kind     dmx.FixtureKind          `yaml:"kind"`
	Channels map[dmx.ChannelName]int  `yaml:"channels"`
	HomePan  uint8                    `yaml:"homePan"`
	HomeTilt uint8                    `yaml:"homeTilt"`
}

// SinksConfig names the out-of-process sink endpoints to wire up at
// startup. Non-goal per spec: concrete transport drivers aren't built
// here, only their addresses are configured.
type SinksConfig struct {
	OLAAddr       string `yaml:"olaAddr"`
	OLAUniverse   int    `yaml:"olaUniverse"`
	PreviewListen string `yaml:"previewListen"`
}

// Default returns the §6 defaults with no fixtures or sinks configured.
func Default() Config {
	return Config{
		TickHz:               60,
		LayerGraceMs:         5000,
		ConsistencyWindowMs:  2000,
		InactivityMs:         15000,
		DriftThresholdMs:     5,
		DriftCheckIntervalMs: 1000,
		ProtectedLayerMin:    500,
		Brightness:           BrightnessLevels{Low: 0.25, Medium: 0.5, High: 0.75, Max: 1.0},
		BrightnessLevel:      "max",
		Sinks: SinksConfig{
			OLAAddr:     "localhost:9010",
			OLAUniverse: 1,
		},
	}
}

// Load reads and decodes a YAML config file at path, overlaying it onto
// Default() so an omitted field keeps its default rather than zeroing out.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration errors that would make the engine
// unsafe to run, rather than letting it run incorrectly.
func (c Config) Validate() error {
	if c.TickHz <= 0 {
		return fmt.Errorf("config: tickHz must be positive, got %d", c.TickHz)
	}
	if c.ConsistencyWindowMs < 0 || c.ConsistencyWindowMs > 10000 {
		return fmt.Errorf("config: consistencyWindowMs must be in [0, 10000], got %d", c.ConsistencyWindowMs)
	}
	if c.ProtectedLayerMin <= 0 {
		return fmt.Errorf("config: protectedLayerMin must be positive, got %d", c.ProtectedLayerMin)
	}
	return nil
}

// FixtureTable builds a dmx.Table from the configured fixtures.
func (c Config) FixtureTable() *dmx.Table {
	mappings := make([]dmx.FixtureMapping, 0, len(c.Fixtures))
	for _, f := range c.Fixtures {
		mappings = append(mappings, dmx.FixtureMapping{
			LightID:  f.LightID,
			Kind:     f.Kind,
			Channels: f.Channels,
			HomePan:  f.HomePan,
			HomeTilt: f.HomeTilt,
		})
	}
	return dmx.NewTable(mappings)
}
