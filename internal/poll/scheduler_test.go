package poll

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource is a scriptable headset status source.
type fakeSource struct {
	connected bool
	battery   int
	batteryOK bool
	charging  bool
	chargeOK  bool
	chatmix   int
	chatmixOK bool
}

func (f *fakeSource) IsConnected() bool          { return f.connected }
func (f *fakeSource) BatteryLevel() (int, bool)  { return f.battery, f.batteryOK }
func (f *fakeSource) Charging() (bool, bool)     { return f.charging, f.chargeOK }
func (f *fakeSource) ChatMixValue() (int, bool)  { return f.chatmix, f.chatmixOK }

func onlineSource() *fakeSource {
	return &fakeSource{
		connected: true,
		battery:   75, batteryOK: true,
		charging: false, chargeOK: true,
		chatmix: 64, chatmixOK: true,
	}
}

func TestFirstTickAlwaysEmits(t *testing.T) {
	s := New(&fakeSource{connected: false}, testLogger())

	u, emit := s.tick()
	if !emit {
		t.Fatal("first tick emit = false, want true")
	}
	if u.Connected {
		t.Error("Connected = true, want false")
	}
	if s.interval != s.normal {
		t.Errorf("interval = %v, want normal %v while disconnected", s.interval, s.normal)
	}
}

func TestConnectionChangeSwitchesToFastPolling(t *testing.T) {
	src := &fakeSource{connected: false}
	s := New(src, testLogger())
	s.tick()

	*src = *onlineSource()
	u, emit := s.tick()
	if !emit {
		t.Fatal("emit = false on connection change, want true")
	}
	if !u.ConnectionChanged {
		t.Error("ConnectionChanged = false, want true")
	}
	if u.BatteryPercent == nil || *u.BatteryPercent != 75 {
		t.Errorf("BatteryPercent = %v, want 75", u.BatteryPercent)
	}
	if u.Battery != BatteryAvailable {
		t.Errorf("Battery = %q, want %q", u.Battery, BatteryAvailable)
	}
	if s.interval != s.fast {
		t.Errorf("interval = %v, want fast %v after change", s.interval, s.fast)
	}
}

func TestFastPollingSettlesAfterThreshold(t *testing.T) {
	src := onlineSource()
	s := New(src, testLogger())
	s.tick() // first tick, change to fast

	for i := 0; i < DefaultNoChangeThreshold-1; i++ {
		if _, emit := s.tick(); emit {
			t.Errorf("unchanged tick %d emitted an update", i+1)
		}
		if s.interval != s.fast {
			t.Errorf("interval = %v after %d unchanged ticks, want still fast", s.interval, i+1)
		}
	}

	if _, emit := s.tick(); emit {
		t.Error("final unchanged tick emitted an update")
	}
	if s.interval != s.normal {
		t.Errorf("interval = %v after %d unchanged ticks, want normal", s.interval, DefaultNoChangeThreshold)
	}
}

func TestDataChangeResetsSettleCounter(t *testing.T) {
	src := onlineSource()
	s := New(src, testLogger())
	s.tick()

	s.tick()
	s.tick() // two unchanged fast ticks

	src.battery = 50
	u, emit := s.tick()
	if !emit {
		t.Fatal("emit = false on battery change, want true")
	}
	if !u.DataChanged {
		t.Error("DataChanged = false, want true")
	}
	if s.interval != s.fast {
		t.Errorf("interval = %v, want fast after a data change", s.interval)
	}
	if s.noChange != 0 {
		t.Errorf("noChange = %d, want 0 after a data change", s.noChange)
	}
}

func TestDisconnectForcesNormalPolling(t *testing.T) {
	src := onlineSource()
	s := New(src, testLogger())
	s.tick() // fast after first data

	src.connected = false
	u, emit := s.tick()
	if !emit {
		t.Fatal("emit = false on disconnect, want true")
	}
	if !u.ConnectionChanged {
		t.Error("ConnectionChanged = false, want true")
	}
	if u.BatteryPercent != nil {
		t.Errorf("BatteryPercent = %v, want nil while disconnected", u.BatteryPercent)
	}
	if s.interval != s.normal {
		t.Errorf("interval = %v, want normal while disconnected", s.interval)
	}
}

func TestBatteryStateClassification(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
		want BatteryState
	}{
		{"charging", &fakeSource{connected: true, battery: 50, batteryOK: true, charging: true, chargeOK: true}, BatteryCharging},
		{"full", &fakeSource{connected: true, battery: 100, batteryOK: true, chargeOK: true}, BatteryFull},
		{"available", &fakeSource{connected: true, battery: 25, batteryOK: true, chargeOK: true}, BatteryAvailable},
		{"unavailable", &fakeSource{connected: true}, BatteryUnavailable},
	}

	for _, tt := range tests {
		s := New(tt.src, testLogger())
		u, _ := s.tick()
		if u.Battery != tt.want {
			t.Errorf("%s: Battery = %q, want %q", tt.name, u.Battery, tt.want)
		}
	}
}

func TestSetIntervals(t *testing.T) {
	s := New(&fakeSource{}, testLogger())
	s.SetIntervals(2*time.Second, 250*time.Millisecond, 5)

	if s.normal != 2*time.Second || s.fast != 250*time.Millisecond || s.threshold != 5 {
		t.Errorf("SetIntervals gave (%v, %v, %d), want (2s, 250ms, 5)", s.normal, s.fast, s.threshold)
	}

	// Zero values keep the previous settings.
	s.SetIntervals(0, 0, 0)
	if s.normal != 2*time.Second || s.fast != 250*time.Millisecond || s.threshold != 5 {
		t.Errorf("SetIntervals(0,0,0) changed settings to (%v, %v, %d)", s.normal, s.fast, s.threshold)
	}
}

// churnSource changes its chatmix reading on every poll so each tick
// emits an update.
type churnSource struct {
	fakeSource
	n int
}

func (c *churnSource) ChatMixValue() (int, bool) {
	c.n++
	return c.n % 129, true
}

func TestRunReturnsWithUnreadUpdates(t *testing.T) {
	// Nobody consumes the update channel here. Cancellation must still
	// stop the loop even while it is blocked sending, and the channel
	// close lets callers drain before tearing down the HID backend.
	src := &churnSource{fakeSource: *onlineSource()}
	s := New(src, testLogger())
	s.SetIntervals(time.Millisecond, time.Millisecond, 3)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// More emissions than the buffer holds.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return with a full update buffer")
	}

	count := 0
	for range s.Updates() {
		count++
	}
	if count > cap(s.updates) {
		t.Errorf("drained %d updates, want at most the channel capacity %d", count, cap(s.updates))
	}
}

func TestRunEmitsAndClosesOnCancel(t *testing.T) {
	src := onlineSource()
	s := New(src, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case u := <-s.Updates():
		if !u.Connected {
			t.Error("first update Connected = false, want true")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update within 2s")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if _, ok := <-s.Updates(); ok {
		// Drain until closed; buffered updates may remain.
		for range s.Updates() {
		}
	}
}
