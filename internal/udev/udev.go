// Package udev renders and stages the Linux device-permission rule for
// the headset. It never writes to privileged locations itself; callers
// get a staged temp file plus the target path and install it manually.
package udev

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// RuleFilename is the target name under /etc/udev/rules.d.
const RuleFilename = "99-steelseries-headsets.rules"

var rulesDir = "/etc/udev/rules.d"

// RuleDetails describes a staged rule file awaiting installation.
type RuleDetails struct {
	TempPath  string
	FinalPath string
	Filename  string
	Content   string
}

// RenderRule builds the hidraw uaccess rule text for one vendor and its
// product IDs. Pure; no process-wide state is derived at load time.
func RenderRule(vendorID uint16, productIDs []uint16) string {
	var b strings.Builder
	for _, pid := range productIDs {
		fmt.Fprintf(&b,
			"SUBSYSTEM==\"hidraw\", ATTRS{idVendor}==\"%04x\", ATTRS{idProduct}==\"%04x\", TAG+=\"uaccess\"\n",
			vendorID, pid)
	}
	return b.String()
}

// Manager stages rule files and remembers the last staging attempt of
// the session. Safe for concurrent use.
type Manager struct {
	log        *slog.Logger
	vendorID   uint16
	productIDs []uint16

	mu   sync.Mutex
	last *RuleDetails
}

func NewManager(vendorID uint16, productIDs []uint16, log *slog.Logger) *Manager {
	return &Manager{log: log, vendorID: vendorID, productIDs: productIDs}
}

// FinalPath returns the absolute install path of the rule file.
func (m *Manager) FinalPath() string {
	return filepath.Join(rulesDir, RuleFilename)
}

// RulesInstalled reports whether the rule file exists. Content is not
// verified; reading under /etc/udev usually needs privileges the tool
// does not have.
func (m *Manager) RulesInstalled() bool {
	_, err := os.Stat(m.FinalPath())
	return err == nil
}

// Stage writes the rule content to a temp file and records the details
// so the caller can surface manual install instructions.
func (m *Manager) Stage() (*RuleDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	content := RenderRule(m.vendorID, m.productIDs)

	f, err := os.CreateTemp("", "novactl-*.rules")
	if err != nil {
		m.log.Error("could not create temporary udev rule file", "err", err)
		return nil, err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		m.log.Error("could not write temporary udev rule file", "path", f.Name(), "err", err)
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, err
	}

	m.last = &RuleDetails{
		TempPath:  f.Name(),
		FinalPath: m.FinalPath(),
		Filename:  RuleFilename,
		Content:   content,
	}
	m.log.Info("staged udev rule file",
		"temp", m.last.TempPath, "target", m.last.FinalPath)
	return m.last, nil
}

// LastDetails returns the details of the last staging attempt in this
// session, or nil.
func (m *Manager) LastDetails() *RuleDetails {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}
