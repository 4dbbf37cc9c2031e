package report

import "errors"

// ErrUnknownPreset is returned for preset ids outside the hardware
// table.
var ErrUnknownPreset = errors.New("report: unknown hardware preset id")

// HardwarePreset is one factory EQ curve selectable by id. The fixed
// array length makes the ten-band invariant structural.
type HardwarePreset struct {
	ID    uint8
	Name  string
	Bands [EQBandCount]float64
}

// The Nova 7 factory curves, matching what selecting presets 0-3 on the
// device applies. The Focus curve ships with nine meaningful bands; the
// last is padded flat.
var hardwarePresets = [...]HardwarePreset{
	{ID: 0, Name: "Flat", Bands: [EQBandCount]float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
	{ID: 1, Name: "Bass Boost", Bands: [EQBandCount]float64{3.5, 5.5, 4.0, 1.0, -1.5, -1.5, -1.0, -1.0, -1.0, -1.0}},
	{ID: 2, Name: "Focus", Bands: [EQBandCount]float64{-5.0, -3.5, -1.0, -3.5, -2.5, 4.0, 6.0, -3.5, 0, 0}},
	{ID: 3, Name: "Smiley", Bands: [EQBandCount]float64{3.0, 3.5, 1.5, -1.5, -4.0, -4.0, -2.5, 1.5, 3.0, 4.0}},
}

// PresetByID looks up a hardware preset by its id.
func PresetByID(id int) (HardwarePreset, bool) {
	if id < 0 || id >= len(hardwarePresets) {
		return HardwarePreset{}, false
	}
	return hardwarePresets[id], true
}

// Presets returns the hardware preset table in id order.
func Presets() []HardwarePreset {
	out := make([]HardwarePreset, len(hardwarePresets))
	copy(out, hardwarePresets[:])
	return out
}
