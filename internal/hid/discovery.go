package hid

import (
	"log/slog"
	"sort"

	"github.com/sstallion/go-hid"
)

// SteelSeries vendor and the Arctis Nova 7 product variants this tool
// knows how to talk to. The wired PID comes first so the model-specific
// fallback interface prefers it.
const (
	VendorSteelSeries uint16 = 0x1038

	PIDArctisNova7         uint16 = 0x2202
	PIDArctisNova7Wireless uint16 = 0x12dd
	PIDArctisNova7X        uint16 = 0x12da
	PIDArctisNova7P        uint16 = 0x12db
)

// TargetProductIDs lists accepted product IDs in preference order.
var TargetProductIDs = []uint16{
	PIDArctisNova7,
	PIDArctisNova7Wireless,
	PIDArctisNova7X,
	PIDArctisNova7P,
}

// The vendor-specific command interface exposed by all Nova 7 variants.
const (
	commandInterface  = 3
	vendorUsagePage   = 0xffc0
	vendorUsage       = 0x0001
	fallbackInterface = 0
)

// Descriptor identifies one enumerated HID interface of a candidate
// headset. Descriptors are compared only by Path when opening.
type Descriptor struct {
	VendorID     uint16
	ProductID    uint16
	InterfaceNbr int
	UsagePage    uint16
	Usage        uint16
	Path         string
	Product      string
}

// FindCandidates enumerates HID interfaces for the given vendor and
// keeps those matching one of the accepted product IDs. Enumeration
// backend errors are non-fatal and yield an empty slice; the caller
// treats that the same as "no device present".
func FindCandidates(vendorID uint16, productIDs []uint16, log *slog.Logger) []Descriptor {
	accepted := make(map[uint16]bool, len(productIDs))
	for _, pid := range productIDs {
		accepted[pid] = true
	}

	var candidates []Descriptor
	err := hid.Enumerate(vendorID, hid.ProductIDAny, func(info *hid.DeviceInfo) error {
		if !accepted[info.ProductID] {
			return nil
		}
		candidates = append(candidates, Descriptor{
			VendorID:     info.VendorID,
			ProductID:    info.ProductID,
			InterfaceNbr: info.InterfaceNbr,
			UsagePage:    info.UsagePage,
			Usage:        info.Usage,
			Path:         info.Path,
			Product:      info.ProductStr,
		})
		return nil
	})
	if err != nil {
		log.Warn("HID enumeration failed", "vendor", vendorID, "err", err)
		return nil
	}

	log.Debug("enumerated headset candidates", "count", len(candidates))
	return candidates
}

// Priority buckets, lowest first. Ties keep enumeration order.
const (
	priExactMatch        = -2 // command interface with vendor usage page and usage
	priModelFallback     = -1 // wired Nova 7 on interface 0
	priCommandInterface  = 0
	priVendorUsagePage   = 1
	priOther             = 2
)

func priority(d Descriptor) int {
	switch {
	case d.InterfaceNbr == commandInterface && d.UsagePage == vendorUsagePage && d.Usage == vendorUsage:
		return priExactMatch
	case d.ProductID == PIDArctisNova7 && d.InterfaceNbr == fallbackInterface:
		return priModelFallback
	case d.InterfaceNbr == commandInterface:
		return priCommandInterface
	case d.UsagePage == vendorUsagePage:
		return priVendorUsagePage
	default:
		return priOther
	}
}

// Rank orders candidates so the interface most likely to speak the
// vendor report protocol is tried first.
func Rank(candidates []Descriptor) []Descriptor {
	ranked := make([]Descriptor, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return priority(ranked[i]) < priority(ranked[j])
	})
	return ranked
}

// Priority exposes the ranking bucket of a descriptor for display.
func Priority(d Descriptor) int {
	return priority(d)
}
