package report

import (
	"errors"
	"fmt"
	"math"
)

// Every command starts with a fixed first byte (report ID 0 convention)
// followed by a one-byte opcode.
const (
	reportFirstByte byte = 0x00

	opGetStatus       byte = 0xb0
	opSetSidetone     byte = 0x39
	opSetInactiveTime byte = 0xa3
	opSetEQBands      byte = 0x33
)

// EQ band bytes are centered at 0x14 (0 dB) and clamped to the
// hardware range 0x0a (-10 dB) to 0x1e (+10 dB).
const (
	EQBandCount = 10

	eqFlatByte byte = 0x14
	eqMinByte  byte = 0x0a
	eqMaxByte  byte = 0x1e

	eqTerminator byte = 0x00
)

// SidetoneMax is the upper bound of the UI sidetone scale.
const SidetoneMax = 128

// InactiveTimeoutMax is the longest auto-power-off timeout in minutes.
const InactiveTimeoutMax = 90

// ErrBandCount is returned when an EQ payload does not carry exactly
// EQBandCount values.
var ErrBandCount = errors.New("report: equalizer needs exactly 10 band values")

// EncodeStatusRequest builds the command that triggers the 8-byte
// status response.
func EncodeStatusRequest() []byte {
	return []byte{reportFirstByte, opGetStatus}
}

// EncodeSidetone maps a 0-128 UI level onto the four hardware sidetone
// steps. Out-of-range levels are clamped before mapping.
func EncodeSidetone(level int) []byte {
	level = clampInt(level, 0, SidetoneMax)

	var step byte
	switch {
	case level < 26:
		step = 0x00
	case level < 51:
		step = 0x01
	case level < 76:
		step = 0x02
	default:
		step = 0x03
	}
	return []byte{reportFirstByte, opSetSidetone, step}
}

// EncodeInactiveTimeout builds the auto-power-off command. Minutes are
// clamped to the hardware range 0-90; zero disables the timeout.
func EncodeInactiveTimeout(minutes int) []byte {
	minutes = clampInt(minutes, 0, InactiveTimeoutMax)
	return []byte{reportFirstByte, opSetInactiveTime, byte(minutes)}
}

// EncodeEQBands builds the custom equalizer command from ten gain
// values in dB. Values are clamped to ±10 dB, offset around the flat
// reference byte and clamped again to the hardware byte range. Returns
// ErrBandCount without partial output for malformed input.
func EncodeEQBands(bands []float64) ([]byte, error) {
	if len(bands) != EQBandCount {
		return nil, fmt.Errorf("%w: got %d", ErrBandCount, len(bands))
	}

	payload := make([]byte, 0, 2+EQBandCount+1)
	payload = append(payload, reportFirstByte, opSetEQBands)
	for _, v := range bands {
		v = math.Max(-10, math.Min(10, v))
		b := int(math.Round(float64(eqFlatByte) + v))
		b = clampInt(b, int(eqMinByte), int(eqMaxByte))
		payload = append(payload, byte(b))
	}
	payload = append(payload, eqTerminator)
	return payload, nil
}

// EncodeEQPreset transmits a hardware preset as a custom EQ payload;
// the device has no separate preset-select command. Unknown ids yield
// ErrUnknownPreset without any output.
func EncodeEQPreset(id int) ([]byte, error) {
	preset, ok := PresetByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPreset, id)
	}
	return EncodeEQBands(preset.Bands[:])
}
