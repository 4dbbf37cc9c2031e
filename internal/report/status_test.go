package report

import (
	"errors"
	"testing"
)

// statusBuf builds an 8-byte status report from the interesting fields.
func statusBuf(battery, status, game, chat byte) []byte {
	return []byte{0x00, 0x00, battery, status, game, chat, 0x00, 0x00}
}

func TestParseStatusTooShort(t *testing.T) {
	_, err := ParseStatus([]byte{0x00, 0x00, 0x03})
	if !errors.Is(err, ErrReportTooShort) {
		t.Errorf("ParseStatus(short) error = %v, want ErrReportTooShort", err)
	}
}

func TestParseStatusOffline(t *testing.T) {
	st, err := ParseStatus(statusBuf(0x03, 0x00, 50, 50))
	if err != nil {
		t.Fatalf("ParseStatus() error = %v", err)
	}
	if st.HeadsetOnline {
		t.Error("HeadsetOnline = true, want false for status byte 0x00")
	}
	if st.BatteryPercent != nil {
		t.Errorf("BatteryPercent = %d, want nil while offline", *st.BatteryPercent)
	}
	if st.BatteryCharging != nil {
		t.Errorf("BatteryCharging = %v, want nil while offline", *st.BatteryCharging)
	}
	if st.ChatMix != nil {
		t.Errorf("ChatMix = %d, want nil while offline", *st.ChatMix)
	}
}

func TestParseStatusBatteryLevels(t *testing.T) {
	tests := []struct {
		raw  byte
		want int
	}{
		{0x00, 0},
		{0x01, 25},
		{0x02, 50},
		{0x03, 75},
		{0x04, 100},
	}

	for _, tt := range tests {
		st, err := ParseStatus(statusBuf(tt.raw, 0x02, 50, 50))
		if err != nil {
			t.Fatalf("ParseStatus(raw=0x%02x) error = %v", tt.raw, err)
		}
		if st.BatteryPercent == nil {
			t.Fatalf("ParseStatus(raw=0x%02x) BatteryPercent = nil, want %d", tt.raw, tt.want)
		}
		if *st.BatteryPercent != tt.want {
			t.Errorf("ParseStatus(raw=0x%02x) BatteryPercent = %d, want %d", tt.raw, *st.BatteryPercent, tt.want)
		}
	}
}

func TestParseStatusUnknownBatteryByte(t *testing.T) {
	st, err := ParseStatus(statusBuf(0x07, 0x02, 50, 50))
	if err != nil {
		t.Fatalf("ParseStatus() error = %v", err)
	}
	if !st.HeadsetOnline {
		t.Error("HeadsetOnline = false, want true")
	}
	if st.BatteryPercent != nil {
		t.Errorf("BatteryPercent = %d, want nil for unknown raw byte", *st.BatteryPercent)
	}
	if st.ChatMix == nil {
		t.Error("ChatMix = nil, want value despite unknown battery byte")
	}
}

func TestParseStatusCharging(t *testing.T) {
	tests := []struct {
		status       byte
		wantOnline   bool
		wantCharging bool
	}{
		{0x01, true, true},
		{0x02, true, false},
		{0x03, true, false},
	}

	for _, tt := range tests {
		st, err := ParseStatus(statusBuf(0x02, tt.status, 50, 50))
		if err != nil {
			t.Fatalf("ParseStatus(status=0x%02x) error = %v", tt.status, err)
		}
		if st.HeadsetOnline != tt.wantOnline {
			t.Errorf("ParseStatus(status=0x%02x) HeadsetOnline = %v, want %v", tt.status, st.HeadsetOnline, tt.wantOnline)
		}
		if st.BatteryCharging == nil {
			t.Fatalf("ParseStatus(status=0x%02x) BatteryCharging = nil", tt.status)
		}
		if *st.BatteryCharging != tt.wantCharging {
			t.Errorf("ParseStatus(status=0x%02x) BatteryCharging = %v, want %v", tt.status, *st.BatteryCharging, tt.wantCharging)
		}
		if st.RawStatusByte != tt.status {
			t.Errorf("RawStatusByte = 0x%02x, want 0x%02x", st.RawStatusByte, tt.status)
		}
	}
}

func TestChatMixScale(t *testing.T) {
	tests := []struct {
		game, chat byte
		want       int
	}{
		{100, 0, 0},  // full game
		{0, 100, 128}, // full chat
		{50, 50, 64},  // centered
		{0, 0, 64},    // idle also reads centered
		{75, 25, 32},
		{25, 75, 96},
	}

	for _, tt := range tests {
		st, err := ParseStatus(statusBuf(0x02, 0x02, tt.game, tt.chat))
		if err != nil {
			t.Fatalf("ParseStatus(game=%d, chat=%d) error = %v", tt.game, tt.chat, err)
		}
		if st.ChatMix == nil {
			t.Fatalf("ParseStatus(game=%d, chat=%d) ChatMix = nil", tt.game, tt.chat)
		}
		if *st.ChatMix != tt.want {
			t.Errorf("ParseStatus(game=%d, chat=%d) ChatMix = %d, want %d", tt.game, tt.chat, *st.ChatMix, tt.want)
		}
	}
}

func TestChatMixClampsRawVolumes(t *testing.T) {
	// Raw volumes above 100 are clamped before mapping.
	if got := chatMix(250, 0); got != 0 {
		t.Errorf("chatMix(250, 0) = %d, want 0", got)
	}
	if got := chatMix(0, 250); got != 128 {
		t.Errorf("chatMix(0, 250) = %d, want 128", got)
	}
}
