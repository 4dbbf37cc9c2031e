package ui

import (
	"fmt"
	"strings"

	"github.com/arctis-tools/novactl/internal/hid"
	"github.com/arctis-tools/novactl/internal/poll"
	"github.com/arctis-tools/novactl/internal/udev"
)

// PrintStatus renders a one-shot status readout.
func PrintStatus(u poll.Update) {
	fmt.Println()
	fmt.Println(Title("Headset Status"))
	fmt.Println()

	if !u.Connected {
		fmt.Printf("  %s %s\n", Muted("State:"), Warning("offline"))
		fmt.Println()
		return
	}

	fmt.Printf("  %s %s\n", Muted("State:"), Success("online"))
	fmt.Printf("  %s %s\n", Muted("Battery:"), Value(formatBattery(u)))
	fmt.Printf("  %s %s\n", Muted("ChatMix:"), Value(formatChatMix(u.ChatMix)))
	fmt.Println()
}

func formatBattery(u poll.Update) string {
	if u.BatteryPercent == nil {
		return "unknown"
	}
	switch u.Battery {
	case poll.BatteryCharging:
		return fmt.Sprintf("%d%% (charging)", *u.BatteryPercent)
	case poll.BatteryFull:
		return fmt.Sprintf("%d%% (full)", *u.BatteryPercent)
	default:
		return fmt.Sprintf("%d%%", *u.BatteryPercent)
	}
}

// formatChatMix shows the raw 0-128 value with its meaning: 0 full
// game, 64 centered, 128 full chat.
func formatChatMix(mix *int) string {
	if mix == nil {
		return "unknown"
	}
	switch v := *mix; {
	case v == 64:
		return fmt.Sprintf("%d (centered)", v)
	case v < 64:
		return fmt.Sprintf("%d (toward game)", v)
	default:
		return fmt.Sprintf("%d (toward chat)", v)
	}
}

// PrintInterfaceList shows ranked candidate interfaces.
func PrintInterfaceList(candidates []hid.Descriptor) {
	if len(candidates) == 0 {
		fmt.Println(Warning("No matching headset interfaces found"))
		return
	}

	fmt.Println()
	fmt.Println(Title("Headset Interfaces"))
	fmt.Println(Muted(fmt.Sprintf("Found %d interface(s), best candidate first", len(candidates))))
	fmt.Println()

	for _, d := range candidates {
		id := render(DeviceIDStyle, fmt.Sprintf("  0x%04X:0x%04X", d.VendorID, d.ProductID))
		name := d.Product
		if name == "" {
			name = "Unknown Device"
		}
		detail := Muted(fmt.Sprintf("iface %d, usage page 0x%04X, priority %d",
			d.InterfaceNbr, d.UsagePage, hid.Priority(d)))
		fmt.Printf("%s  %s  %s\n", id, name, detail)
	}
	fmt.Println()
}

// PrintUdevGuidance shows the staged permission rule and the manual
// install steps.
func PrintUdevGuidance(details *udev.RuleDetails) {
	fmt.Println()
	fmt.Println(Warning("The headset could not be opened. This is usually a permissions issue."))
	fmt.Println()
	fmt.Println(Muted("Rule content:"))
	for _, line := range strings.Split(strings.TrimRight(details.Content, "\n"), "\n") {
		fmt.Printf("  %s\n", line)
	}
	fmt.Println()
	fmt.Println(Muted("To install:"))
	fmt.Printf("  1. %s\n", Code(fmt.Sprintf("sudo cp %s %s", details.TempPath, details.FinalPath)))
	fmt.Printf("  2. %s\n", Code("sudo udevadm control --reload-rules && sudo udevadm trigger"))
	fmt.Println("  3. Replug the headset (or its dongle).")
	fmt.Println()
}

// PrintFatalError renders an error headline with detail.
func PrintFatalError(headline, detail string) {
	fmt.Println()
	fmt.Println(Error(headline))
	if detail != "" {
		fmt.Printf("  %s\n", Muted(detail))
	}
	fmt.Println()
}
