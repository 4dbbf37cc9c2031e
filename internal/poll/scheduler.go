// Package poll drives the adaptive status polling loop: normal cadence
// while things are quiet, a fast cadence right after something changed.
package poll

import (
	"context"
	"log/slog"
	"time"
)

// Default intervals and the number of unchanged fast ticks before the
// loop settles back to the normal cadence.
const (
	DefaultNormalInterval = time.Second
	DefaultFastInterval   = 100 * time.Millisecond

	DefaultNoChangeThreshold = 3
)

// Source is the headset surface the scheduler polls each tick.
type Source interface {
	IsConnected() bool
	BatteryLevel() (int, bool)
	Charging() (bool, bool)
	ChatMixValue() (int, bool)
}

// BatteryState classifies the battery reading for consumers.
type BatteryState string

const (
	BatteryCharging    BatteryState = "charging"
	BatteryFull        BatteryState = "full"
	BatteryAvailable   BatteryState = "available"
	BatteryUnavailable BatteryState = "unavailable"
)

// Update is emitted on the first tick and whenever connection state or
// status data changed.
type Update struct {
	Connected         bool
	BatteryPercent    *int
	Battery           BatteryState
	ChatMix           *int
	ConnectionChanged bool
	DataChanged       bool
}

type snapshot struct {
	connected bool
	battery   *int
	state     BatteryState
	chatmix   *int
}

// Scheduler owns the poll loop state. Not safe for concurrent use; one
// goroutine runs the loop and is the only writer.
type Scheduler struct {
	log    *slog.Logger
	source Source

	normal    time.Duration
	fast      time.Duration
	threshold int

	interval   time.Duration
	fastActive bool
	noChange   int
	firstTick  bool
	prev       snapshot

	updates chan Update
}

// New builds a scheduler with the default intervals.
func New(source Source, log *slog.Logger) *Scheduler {
	return &Scheduler{
		log:       log,
		source:    source,
		normal:    DefaultNormalInterval,
		fast:      DefaultFastInterval,
		threshold: DefaultNoChangeThreshold,
		interval:  DefaultNormalInterval,
		firstTick: true,
		updates:   make(chan Update, 8),
	}
}

// SetIntervals overrides the poll cadences before Run is called.
func (s *Scheduler) SetIntervals(normal, fast time.Duration, threshold int) {
	if normal > 0 {
		s.normal = normal
		s.interval = normal
	}
	if fast > 0 {
		s.fast = fast
	}
	if threshold > 0 {
		s.threshold = threshold
	}
}

// Updates is the event stream. Closed when Run returns.
func (s *Scheduler) Updates() <-chan Update {
	return s.updates
}

// Run polls until the context is cancelled. The first tick fires
// immediately.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.updates)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if u, emit := s.tick(); emit {
				select {
				case s.updates <- u:
				case <-ctx.Done():
					return
				}
			}
			timer.Reset(s.interval)
		}
	}
}

// tick reads the current status, decides whether to emit an update and
// advances the interval state machine.
func (s *Scheduler) tick() (Update, bool) {
	cur := s.observe()

	connectionChanged := cur.connected != s.prev.connected
	dataChanged := s.dataChanged(cur)

	emit := s.firstTick || connectionChanged || dataChanged
	s.firstTick = false

	if connectionChanged {
		if cur.connected {
			s.log.Info("headset connection state changed", "connected", true)
		} else {
			s.log.Info("headset connection state changed", "connected", false)
		}
	}

	s.prev = cur
	s.advance(cur.connected, connectionChanged, dataChanged)

	return Update{
		Connected:         cur.connected,
		BatteryPercent:    cur.battery,
		Battery:           cur.state,
		ChatMix:           cur.chatmix,
		ConnectionChanged: connectionChanged,
		DataChanged:       dataChanged,
	}, emit
}

func (s *Scheduler) observe() snapshot {
	cur := snapshot{connected: s.source.IsConnected()}
	if !cur.connected {
		return cur
	}

	if pct, ok := s.source.BatteryLevel(); ok {
		v := pct
		cur.battery = &v
	}
	charging, chargingKnown := s.source.Charging()
	switch {
	case chargingKnown && charging:
		cur.state = BatteryCharging
	case cur.battery != nil && *cur.battery == 100:
		cur.state = BatteryFull
	case cur.battery != nil:
		cur.state = BatteryAvailable
	default:
		cur.state = BatteryUnavailable
	}
	if mix, ok := s.source.ChatMixValue(); ok {
		v := mix
		cur.chatmix = &v
	}
	return cur
}

func (s *Scheduler) dataChanged(cur snapshot) bool {
	if !cur.connected {
		// Losing readings counts as a change when we previously had data.
		return s.prev.battery != nil || s.prev.chatmix != nil
	}
	return !eqIntPtr(cur.battery, s.prev.battery) ||
		cur.state != s.prev.state ||
		!eqIntPtr(cur.chatmix, s.prev.chatmix)
}

// advance applies the interval transition rules.
func (s *Scheduler) advance(connected, connectionChanged, dataChanged bool) {
	switch {
	case !connected:
		if s.interval != s.normal {
			s.log.Debug("disconnected, normal poll interval", "interval", s.normal)
		}
		s.interval = s.normal
		s.fastActive = false
		s.noChange = 0

	case s.fastActive:
		if dataChanged {
			s.noChange = 0
			return
		}
		s.noChange++
		if s.noChange >= s.threshold {
			s.interval = s.normal
			s.fastActive = false
			s.noChange = 0
			s.log.Debug("fast poll settled, normal interval", "interval", s.normal)
		}

	case connectionChanged || dataChanged:
		s.interval = s.fast
		s.fastActive = true
		s.noChange = 0
		s.log.Debug("change detected, fast poll interval", "interval", s.fast)
	}
}

func eqIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
