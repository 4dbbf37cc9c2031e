// Package report implements the vendor report protocol of the Arctis
// Nova 7: parsing the 8-byte status report and encoding command
// payloads. All functions are pure; callers own all I/O.
package report

import (
	"errors"
	"fmt"
	"log/slog"
)

// StatusLength is the fixed length of the status input report.
const StatusLength = 8

// Status report byte offsets.
//
//	Byte 2: raw battery level (0x00-0x04)
//	Byte 3: status byte (0x00 offline, 0x01 charging, other online)
//	Byte 4: raw game volume (0-100)
//	Byte 5: raw chat volume (0-100)
const (
	batteryLevelIndex = 2
	statusByteIndex   = 3
	gameVolumeIndex   = 4
	chatVolumeIndex   = 5
)

// ErrReportTooShort is returned when a status buffer is shorter than
// StatusLength.
var ErrReportTooShort = errors.New("report: status report too short")

// StatusReport is the decoded device status. Battery and chatmix fields
// are nil whenever the headset is offline, and BatteryPercent is nil
// for unrecognized raw battery bytes.
type StatusReport struct {
	HeadsetOnline   bool
	BatteryPercent  *int
	BatteryCharging *bool
	ChatMix         *int
	RawStatusByte   byte
}

// ParseStatus decodes a raw status report. Unknown battery bytes yield
// a nil percent with a logged warning rather than an error.
func ParseStatus(buf []byte) (*StatusReport, error) {
	if len(buf) < StatusLength {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrReportTooShort, StatusLength, len(buf))
	}

	statusByte := buf[statusByteIndex]
	st := &StatusReport{
		HeadsetOnline: statusByte != 0x00,
		RawStatusByte: statusByte,
	}
	if !st.HeadsetOnline {
		return st, nil
	}

	if pct, ok := batteryPercent(buf[batteryLevelIndex]); ok {
		st.BatteryPercent = &pct
	} else {
		slog.Warn("unknown raw battery level in status report",
			"raw", fmt.Sprintf("0x%02x", buf[batteryLevelIndex]))
	}

	charging := statusByte == 0x01
	st.BatteryCharging = &charging

	mix := chatMix(buf[gameVolumeIndex], buf[chatVolumeIndex])
	st.ChatMix = &mix

	return st, nil
}

// The device reports battery in five coarse steps.
func batteryPercent(raw byte) (int, bool) {
	switch raw {
	case 0x00:
		return 0, true
	case 0x01:
		return 25, true
	case 0x02:
		return 50, true
	case 0x03:
		return 75, true
	case 0x04:
		return 100, true
	default:
		return 0, false
	}
}

// chatMix maps the raw game/chat volume pair onto the 0-128 UI scale:
// 0 is full game, 64 centered, 128 full chat. The asymmetric 0.64
// scaling around 64 is reverse-engineered behavior with no vendor
// specification; it is preserved exactly, truncation included.
func chatMix(rawGame, rawChat byte) int {
	g := clampInt(int(rawGame), 0, 100)
	c := clampInt(int(rawChat), 0, 100)

	mappedGame := g * 64 / 100
	mappedChat := -(c * 64 / 100)

	return clampInt(64-(mappedChat+mappedGame), 0, 128)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
