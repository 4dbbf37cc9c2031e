package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arctis-tools/novactl/internal/hid"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load(missing) error = %v", err)
	}

	if cfg.Device.VendorID != hid.VendorSteelSeries {
		t.Errorf("VendorID = 0x%04x, want 0x%04x", cfg.Device.VendorID, hid.VendorSteelSeries)
	}
	if len(cfg.Device.ProductIDs) != len(hid.TargetProductIDs) {
		t.Errorf("len(ProductIDs) = %d, want %d", len(cfg.Device.ProductIDs), len(hid.TargetProductIDs))
	}
	if cfg.Polling.NormalIntervalMs != 1000 || cfg.Polling.FastIntervalMs != 100 || cfg.Polling.NoChangeThreshold != 3 {
		t.Errorf("Polling = %+v, want 1000/100/3", cfg.Polling)
	}
	if cfg.Device.ReadTimeoutMs != 1000 {
		t.Errorf("ReadTimeoutMs = %d, want 1000", cfg.Device.ReadTimeoutMs)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
device:
  read_timeout_ms: 500
polling:
  normal_interval_ms: 2000
  fast_interval_ms: 200
  no_change_threshold: 5
defaults:
  sidetone_level: 64
  inactive_timeout_minutes: 30
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.ReadTimeoutMs != 500 {
		t.Errorf("ReadTimeoutMs = %d, want 500", cfg.Device.ReadTimeoutMs)
	}
	if cfg.Polling.NormalIntervalMs != 2000 || cfg.Polling.FastIntervalMs != 200 || cfg.Polling.NoChangeThreshold != 5 {
		t.Errorf("Polling = %+v, want 2000/200/5", cfg.Polling)
	}
	if cfg.Defaults.SidetoneLevel == nil || *cfg.Defaults.SidetoneLevel != 64 {
		t.Errorf("SidetoneLevel = %v, want 64", cfg.Defaults.SidetoneLevel)
	}
	if cfg.Defaults.InactiveTimeoutMinutes == nil || *cfg.Defaults.InactiveTimeoutMinutes != 30 {
		t.Errorf("InactiveTimeoutMinutes = %v, want 30", cfg.Defaults.InactiveTimeoutMinutes)
	}

	// Unset device identity falls back to the known headsets.
	if cfg.Device.VendorID != hid.VendorSteelSeries {
		t.Errorf("VendorID = 0x%04x, want default", cfg.Device.VendorID)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			"short eq curve",
			"eq_curves:\n  Broken: [1, 2, 3]\n",
			"must have 10 bands",
		},
		{
			"eq curve out of range",
			"eq_curves:\n  Loud: [0, 0, 0, 0, 0, 0, 0, 0, 0, 15]\n",
			"outside -10..10",
		},
		{
			"sidetone out of range",
			"defaults:\n  sidetone_level: 200\n",
			"sidetone_level",
		},
		{
			"timeout out of range",
			"defaults:\n  inactive_timeout_minutes: 120\n",
			"inactive_timeout_minutes",
		},
		{
			"unknown preset",
			"defaults:\n  eq_preset: 9\n",
			"eq_preset",
		},
		{
			"unknown curve reference",
			"defaults:\n  eq_curve: Nope\n",
			"eq_curve",
		},
	}

	for _, tt := range tests {
		path := writeConfig(t, tt.content)
		_, err := Load(path)
		if err == nil {
			t.Errorf("%s: Load() error = nil, want failure", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s: Load() error = %q, want mention of %q", tt.name, err, tt.wantErr)
		}
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "polling: [not, a, map]\n")
	if _, err := Load(path); err == nil {
		t.Error("Load(malformed) error = nil, want failure")
	}
}

func TestCurveResolution(t *testing.T) {
	cfg := Default()

	// Bundled curves are always available.
	bands, ok := cfg.Curve("Bass Boost")
	if !ok {
		t.Fatal("Curve(Bass Boost) not found")
	}
	if len(bands) != 10 {
		t.Errorf("len(bands) = %d, want 10", len(bands))
	}

	if _, ok := cfg.Curve("Nope"); ok {
		t.Error("Curve(Nope) = ok, want not found")
	}

	// User curves shadow bundled ones of the same name.
	cfg.EQCurves = map[string][]float64{"Flat": {1, 1, 1, 1, 1, 1, 1, 1, 1, 1}}
	bands, ok = cfg.Curve("Flat")
	if !ok {
		t.Fatal("Curve(Flat) not found")
	}
	if bands[0] != 1 {
		t.Errorf("user curve not preferred, bands[0] = %v, want 1", bands[0])
	}
}

func TestDefaultEQCurvesAreValid(t *testing.T) {
	for name, bands := range DefaultEQCurves() {
		if len(bands) != 10 {
			t.Errorf("curve %q has %d bands, want 10", name, len(bands))
		}
		for i, v := range bands {
			if v < -10 || v > 10 {
				t.Errorf("curve %q band %d = %v, outside -10..10", name, i, v)
			}
		}
	}
}

func TestNamedOptionTables(t *testing.T) {
	for _, opt := range SidetoneOptions {
		if opt.Value < 0 || opt.Value > 128 {
			t.Errorf("sidetone option %q = %d, outside 0-128", opt.Name, opt.Value)
		}
	}
	for _, opt := range TimeoutOptions {
		if opt.Value < 0 || opt.Value > 90 {
			t.Errorf("timeout option %q = %d, outside 0-90", opt.Name, opt.Value)
		}
	}
}
