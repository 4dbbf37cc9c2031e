// Package config loads the optional novactl settings file and carries
// the named option tables shown in the CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/arctis-tools/novactl/internal/hid"
	"github.com/arctis-tools/novactl/internal/report"
)

type Config struct {
	Device   DeviceConfig         `yaml:"device"`
	Polling  PollingConfig        `yaml:"polling"`
	Defaults DefaultsConfig       `yaml:"defaults"`
	EQCurves map[string][]float64 `yaml:"eq_curves,omitempty"`
}

type DeviceConfig struct {
	VendorID      uint16   `yaml:"vendor_id"`
	ProductIDs    []uint16 `yaml:"product_ids,omitempty"`
	ReadTimeoutMs int      `yaml:"read_timeout_ms"`
}

type PollingConfig struct {
	NormalIntervalMs  int `yaml:"normal_interval_ms"`
	FastIntervalMs    int `yaml:"fast_interval_ms"`
	NoChangeThreshold int `yaml:"no_change_threshold"`
}

// DefaultsConfig holds settings re-applied after the headset connects.
// Nil pointers mean "leave the device as it is".
type DefaultsConfig struct {
	SidetoneLevel          *int   `yaml:"sidetone_level,omitempty"`
	InactiveTimeoutMinutes *int   `yaml:"inactive_timeout_minutes,omitempty"`
	EQPreset               *int   `yaml:"eq_preset,omitempty"`
	EQCurve                string `yaml:"eq_curve,omitempty"`
}

// NamedOption pairs a menu label with its raw value.
type NamedOption struct {
	Name  string
	Value int
}

// SidetoneOptions are the named steps offered by the interactive
// picker, on the 0-128 UI scale.
var SidetoneOptions = []NamedOption{
	{"Off", 0},
	{"Low", 32},
	{"Medium", 64},
	{"High", 96},
	{"Max", 128},
}

// TimeoutOptions are the auto-power-off choices in minutes.
var TimeoutOptions = []NamedOption{
	{"Disabled", 0},
	{"15 minutes", 15},
	{"30 minutes", 30},
	{"45 minutes", 45},
	{"60 minutes", 60},
	{"90 minutes", 90},
}

// DefaultEQCurves are the bundled named curves, available even without
// a settings file. Frequencies run 31 Hz to 16 kHz.
func DefaultEQCurves() map[string][]float64 {
	return map[string][]float64{
		"Flat":          {0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		"Bass Boost":    {6, 5, 4, 2, 1, 0, 0, 0, 0, 0},
		"Treble Boost":  {0, 0, 0, 0, 0, 1, 2, 3, 4, 5},
		"Vocal Clarity": {-2, -1, 0, 2, 3, 3, 2, 1, 0, -1},
		"Focus (FPS)":   {-3, -2, -1, 0, 1, 2, 3, 4, 2, 1},
	}
}

// Default returns the configuration used when no settings file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// DefaultPath returns the conventional settings location under the
// user's config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "novactl", "config.yaml")
}

// Load reads and validates a settings file. A missing file is not an
// error; it yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) validate() error {
	for name, bands := range c.EQCurves {
		if len(bands) != report.EQBandCount {
			return fmt.Errorf("eq curve %q must have %d bands, has %d", name, report.EQBandCount, len(bands))
		}
		for _, v := range bands {
			if v < -10 || v > 10 {
				return fmt.Errorf("eq curve %q band value %v outside -10..10", name, v)
			}
		}
	}
	if c.Defaults.SidetoneLevel != nil {
		if lvl := *c.Defaults.SidetoneLevel; lvl < 0 || lvl > report.SidetoneMax {
			return fmt.Errorf("defaults.sidetone_level %d outside 0..%d", lvl, report.SidetoneMax)
		}
	}
	if c.Defaults.InactiveTimeoutMinutes != nil {
		if m := *c.Defaults.InactiveTimeoutMinutes; m < 0 || m > report.InactiveTimeoutMax {
			return fmt.Errorf("defaults.inactive_timeout_minutes %d outside 0..%d", m, report.InactiveTimeoutMax)
		}
	}
	if c.Defaults.EQPreset != nil {
		if _, ok := report.PresetByID(*c.Defaults.EQPreset); !ok {
			return fmt.Errorf("defaults.eq_preset %d is not a hardware preset", *c.Defaults.EQPreset)
		}
	}
	if c.Defaults.EQCurve != "" {
		if _, ok := c.Curve(c.Defaults.EQCurve); !ok {
			return fmt.Errorf("defaults.eq_curve %q is not defined", c.Defaults.EQCurve)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Device.VendorID == 0 {
		c.Device.VendorID = hid.VendorSteelSeries
	}
	if len(c.Device.ProductIDs) == 0 {
		c.Device.ProductIDs = append([]uint16(nil), hid.TargetProductIDs...)
	}
	if c.Device.ReadTimeoutMs == 0 {
		c.Device.ReadTimeoutMs = 1000
	}
	if c.Polling.NormalIntervalMs == 0 {
		c.Polling.NormalIntervalMs = 1000
	}
	if c.Polling.FastIntervalMs == 0 {
		c.Polling.FastIntervalMs = 100
	}
	if c.Polling.NoChangeThreshold == 0 {
		c.Polling.NoChangeThreshold = 3
	}
}

// Curve resolves a named EQ curve, preferring user-defined curves over
// the bundled defaults.
func (c *Config) Curve(name string) ([]float64, bool) {
	if bands, ok := c.EQCurves[name]; ok {
		return bands, true
	}
	bands, ok := DefaultEQCurves()[name]
	return bands, ok
}
