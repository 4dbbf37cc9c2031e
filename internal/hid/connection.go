package hid

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sstallion/go-hid"
)

// ReportSize is the fixed output report length of the vendor interface.
// Command payloads are padded to this length before writing.
const ReportSize = 64

// DefaultReadTimeout bounds a single blocking status read. A timeout is
// reported as ErrNoData, not as an I/O failure.
const DefaultReadTimeout = time.Second

var (
	// ErrNotConnected is returned for report I/O without an open handle.
	ErrNotConnected = errors.New("hid: not connected")
	// ErrNoData indicates a read timed out without the device answering.
	ErrNoData = errors.New("hid: no data within timeout")
)

// reportDevice is the slice of the hidapi device surface the connection
// needs. Tests substitute fakes.
type reportDevice interface {
	Write(p []byte) (int, error)
	ReadWithTimeout(p []byte, timeout time.Duration) (int, error)
	Close() error
}

// Connection owns the single live HID handle. All report I/O goes
// through it; any component that hits an I/O failure gets the handle
// torn down here so the next Ensure rediscovers from scratch.
type Connection struct {
	log         *slog.Logger
	readTimeout time.Duration

	// injectable for tests
	enumerate func() []Descriptor
	open      func(Descriptor) (reportDevice, error)

	mu     sync.Mutex
	dev    reportDevice
	active *Descriptor
}

// NewConnection builds a connection manager discovering the given
// vendor/product set through the hidapi backend.
func NewConnection(vendorID uint16, productIDs []uint16, log *slog.Logger) *Connection {
	return &Connection{
		log:         log,
		readTimeout: DefaultReadTimeout,
		enumerate: func() []Descriptor {
			return FindCandidates(vendorID, productIDs, log)
		},
		open: func(d Descriptor) (reportDevice, error) {
			return hid.OpenPath(d.Path)
		},
	}
}

// SetReadTimeout overrides the per-read deadline.
func (c *Connection) SetReadTimeout(d time.Duration) {
	if d > 0 {
		c.readTimeout = d
	}
}

// Ensure opens the best-ranked candidate interface if no handle is
// live. Idempotent; returns false only after every candidate failed to
// open (or none were found).
func (c *Connection) Ensure() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dev != nil {
		return true
	}

	candidates := Rank(c.enumerate())
	if len(candidates) == 0 {
		c.log.Debug("no matching headset interfaces found")
		return false
	}

	for _, cand := range candidates {
		dev, err := c.open(cand)
		if err != nil {
			c.log.Warn("failed to open headset interface",
				"path", cand.Path,
				"product_id", fmt.Sprintf("0x%04x", cand.ProductID),
				"interface", cand.InterfaceNbr,
				"err", err)
			continue
		}
		active := cand
		c.dev = dev
		c.active = &active
		c.log.Info("opened headset interface",
			"product", cand.Product,
			"path", cand.Path,
			"interface", cand.InterfaceNbr,
			"usage_page", fmt.Sprintf("0x%04x", cand.UsagePage))
		return true
	}

	c.log.Warn("all candidate interfaces failed to open", "candidates", len(candidates))
	return false
}

// Connected reports whether a handle is currently open. It does not
// probe the device.
func (c *Connection) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev != nil
}

// Active returns the descriptor of the open interface, or nil.
func (c *Connection) Active() *Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	d := *c.active
	return &d
}

// WriteReport pads payload to ReportSize and writes it as a single
// output report. A write error or a zero-byte write tears the handle
// down before returning the error.
func (c *Connection) WriteReport(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dev == nil {
		return ErrNotConnected
	}

	buf := make([]byte, ReportSize)
	copy(buf, payload)

	n, err := c.dev.Write(buf)
	if err == nil && n <= 0 {
		err = fmt.Errorf("hid: wrote %d bytes", n)
	}
	if err != nil {
		c.log.Warn("report write failed, closing handle", "err", err)
		c.closeLocked()
		return err
	}
	return nil
}

// ReadReport reads one input report and returns its first length bytes.
// A timeout returns ErrNoData and keeps the handle; a backend error or
// a short report tears the handle down.
func (c *Connection) ReadReport(length int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dev == nil {
		return nil, ErrNotConnected
	}

	buf := make([]byte, ReportSize)
	n, err := c.dev.ReadWithTimeout(buf, c.readTimeout)
	if err != nil {
		c.log.Warn("report read failed, closing handle", "err", err)
		c.closeLocked()
		return nil, err
	}
	if n == 0 {
		return nil, ErrNoData
	}
	if n < length {
		c.log.Warn("short report read, closing handle", "want", length, "got", n)
		c.closeLocked()
		return nil, fmt.Errorf("hid: short read: want %d bytes, got %d", length, n)
	}
	return buf[:length], nil
}

// Close releases the handle. Safe to call when already closed.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Connection) closeLocked() {
	if c.dev == nil {
		return
	}
	if err := c.dev.Close(); err != nil {
		c.log.Warn("error closing headset handle", "err", err)
	}
	c.dev = nil
	c.active = nil
	c.log.Debug("headset handle closed")
}
