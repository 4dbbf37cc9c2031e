// Package headset orchestrates discovery, the HID connection and the
// report codec into a stable get/set API. Failures never cross this
// boundary as errors; callers see booleans and absent values.
package headset

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arctis-tools/novactl/internal/hid"
	"github.com/arctis-tools/novactl/internal/report"
	"github.com/arctis-tools/novactl/internal/udev"
)

// Conn is the connection-manager surface the service drives. Satisfied
// by *hid.Connection; tests substitute fakes.
type Conn interface {
	Ensure() bool
	Connected() bool
	WriteReport(payload []byte) error
	ReadReport(length int) ([]byte, error)
	Close()
}

// Service exposes the headset get/set operations. The mutex serializes
// them; the settings-reload path issues set commands from a different
// goroutine than the polling loop.
type Service struct {
	log  *slog.Logger
	conn Conn
	udev *udev.Manager

	mu sync.Mutex

	// Last-observed values, used only to keep repeated informational
	// log lines quiet. Returned values always come from a fresh read.
	lastOnlineLogged *bool
	lastBattery      *int
	lastChatMix      *int
	lastCharging     *bool
	lastStatusByte   *byte
}

// New builds a service on the default HID-backed connection manager.
// A readTimeout of zero keeps the connection default.
func New(vendorID uint16, productIDs []uint16, readTimeout time.Duration, log *slog.Logger) *Service {
	conn := hid.NewConnection(vendorID, productIDs, log)
	if readTimeout > 0 {
		conn.SetReadTimeout(readTimeout)
	}
	return &Service{
		log:  log,
		conn: conn,
		udev: udev.NewManager(vendorID, productIDs, log),
	}
}

// NewWithConn wires an explicit connection manager (used by tests).
func NewWithConn(conn Conn, udevMgr *udev.Manager, log *slog.Logger) *Service {
	return &Service{log: log, conn: conn, udev: udevMgr}
}

// Close releases the device handle.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.Close()
}

// IsConnected ensures a connection, issues a status read and reports
// whether the headset itself is online. Any failure along the chain
// reports false; I/O failures tear the handle down.
func (s *Service) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.readStatus()
	online := st != nil && st.HeadsetOnline

	if s.lastOnlineLogged == nil || *s.lastOnlineLogged != online {
		if online {
			s.log.Info("headset is connected and online")
		} else {
			s.log.Info("headset not reachable or offline")
		}
		v := online
		s.lastOnlineLogged = &v
	}
	return online
}

// BatteryLevel returns the battery percentage (0, 25, 50, 75 or 100).
// The second result is false when the headset is offline or the level
// could not be read.
func (s *Service) BatteryLevel() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.readStatus()
	if st == nil || !st.HeadsetOnline || st.BatteryPercent == nil {
		s.lastBattery = nil
		return 0, false
	}
	if s.lastBattery == nil || *s.lastBattery != *st.BatteryPercent {
		s.log.Debug("battery level", "percent", *st.BatteryPercent)
		v := *st.BatteryPercent
		s.lastBattery = &v
	}
	return *st.BatteryPercent, true
}

// ChatMixValue returns the chatmix blend on the 0-128 scale.
func (s *Service) ChatMixValue() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.readStatus()
	if st == nil || !st.HeadsetOnline || st.ChatMix == nil {
		s.lastChatMix = nil
		return 0, false
	}
	if s.lastChatMix == nil || *s.lastChatMix != *st.ChatMix {
		s.log.Debug("chatmix value", "chatmix", *st.ChatMix)
		v := *st.ChatMix
		s.lastChatMix = &v
	}
	return *st.ChatMix, true
}

// Charging reports whether the headset is on the charger.
func (s *Service) Charging() (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.readStatus()
	if st == nil || !st.HeadsetOnline || st.BatteryCharging == nil {
		s.lastCharging = nil
		return false, false
	}
	if s.lastCharging == nil || *s.lastCharging != *st.BatteryCharging {
		s.log.Debug("charging state", "charging", *st.BatteryCharging)
		v := *st.BatteryCharging
		s.lastCharging = &v
	}
	return *st.BatteryCharging, true
}

// SetSidetone sets the sidetone level (0-128 UI scale).
func (s *Service) SetSidetone(level int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.send(fmt.Sprintf("set sidetone %d", level), report.EncodeSidetone(level))
}

// SetInactiveTimeout sets the auto-power-off timeout in minutes (0-90).
func (s *Service) SetInactiveTimeout(minutes int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.send(fmt.Sprintf("set inactive timeout %dmin", minutes), report.EncodeInactiveTimeout(minutes))
}

// SetEQBands applies ten custom equalizer gains (-10..10 dB).
func (s *Service) SetEQBands(bands []float64) bool {
	payload, err := report.EncodeEQBands(bands)
	if err != nil {
		s.log.Error("rejecting equalizer command", "err", err)
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.send("set equalizer bands", payload)
}

// SetEQPreset applies a hardware preset by id.
func (s *Service) SetEQPreset(id int) bool {
	payload, err := report.EncodeEQPreset(id)
	if err != nil {
		s.log.Error("rejecting preset command", "err", err)
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.send(fmt.Sprintf("set eq preset %d", id), payload)
}

// UdevSetupDetails returns staging details for the permission rule if a
// connection failure triggered rule guidance this session, or nil.
func (s *Service) UdevSetupDetails() *udev.RuleDetails {
	if s.udev == nil {
		return nil
	}
	return s.udev.LastDetails()
}

// readStatus runs one query/response cycle and decodes the result. A
// nil return means no usable status: device absent, I/O failure (the
// connection tears itself down) or undecodable data.
func (s *Service) readStatus() *report.StatusReport {
	if !s.ensure() {
		return nil
	}

	if err := s.conn.WriteReport(report.EncodeStatusRequest()); err != nil {
		s.log.Warn("status request failed", "err", err)
		return nil
	}

	buf, err := s.conn.ReadReport(report.StatusLength)
	if err != nil {
		if errors.Is(err, hid.ErrNoData) {
			s.log.Debug("status read timed out")
		} else {
			s.log.Warn("status read failed", "err", err)
		}
		return nil
	}

	st, err := report.ParseStatus(buf)
	if err != nil {
		s.log.Warn("could not parse status report", "err", err)
		return nil
	}

	s.logStatusTransition(st)
	return st
}

func (s *Service) send(what string, payload []byte) bool {
	if !s.ensure() {
		s.log.Warn("cannot send command, no connection", "command", what)
		return false
	}
	if err := s.conn.WriteReport(payload); err != nil {
		s.log.Warn("command write failed", "command", what, "err", err)
		return false
	}
	s.log.Info("command sent", "command", what)
	return true
}

// ensure opens the connection if needed. When no candidate can be
// opened and the permission rule file is missing, it stages rule text
// once per session so the caller can guide the user.
func (s *Service) ensure() bool {
	if s.conn.Ensure() {
		return true
	}
	if s.udev != nil && s.udev.LastDetails() == nil && !s.udev.RulesInstalled() {
		if _, err := s.udev.Stage(); err == nil {
			s.log.Info("device could not be opened; permission rule guidance prepared")
		}
	}
	return false
}

// logStatusTransition logs offline/online/charging changes once per
// transition, keyed on the raw status byte.
func (s *Service) logStatusTransition(st *report.StatusReport) {
	prev := s.lastStatusByte

	var effective byte
	switch {
	case !st.HeadsetOnline:
		effective = 0x00
	case st.BatteryCharging != nil && *st.BatteryCharging:
		effective = 0x01
	default:
		effective = 0x02
	}

	if prev == nil || *prev != effective {
		switch effective {
		case 0x00:
			if prev != nil && *prev != 0x00 {
				s.log.Info("headset went offline", "status_byte", fmt.Sprintf("0x%02x", st.RawStatusByte))
			}
		case 0x01:
			s.log.Info("headset charging", "status_byte", fmt.Sprintf("0x%02x", st.RawStatusByte))
		default:
			s.log.Info("headset online", "status_byte", fmt.Sprintf("0x%02x", st.RawStatusByte))
		}
	}
	v := effective
	s.lastStatusByte = &v
}
