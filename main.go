package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	hidapi "github.com/sstallion/go-hid"

	"github.com/arctis-tools/novactl/internal/config"
	"github.com/arctis-tools/novactl/internal/headset"
	"github.com/arctis-tools/novactl/internal/hid"
	"github.com/arctis-tools/novactl/internal/logging"
	"github.com/arctis-tools/novactl/internal/poll"
	"github.com/arctis-tools/novactl/internal/udev"
	"github.com/arctis-tools/novactl/internal/ui"
)

const Version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "status":
		runStatus(args)
	case "monitor":
		runMonitor(args)
	case "list-devices":
		runListDevices(args)
	case "set-sidetone":
		runSetSidetone(args)
	case "set-timeout":
		runSetTimeout(args)
	case "set-eq":
		runSetEQ(args)
	case "set-preset":
		runSetPreset(args)
	case "udev-rule":
		runUdevRule(args)
	case "version", "-v", "--version":
		fmt.Printf("novactl %s\n", Version)
	case "help", "-h", "--help":
		printUsage()
	default:
		ui.PrintFatalError("Unknown command", cmd)
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Printf(`novactl %s - SteelSeries Arctis Nova 7 control

Usage:
  novactl <command> [flags]

Commands:
  status                     Show connection, battery, charging and ChatMix
  monitor                    Live status view with adaptive polling
  list-devices               List matching HID interfaces, best first
  set-sidetone [level|name]  Sidetone 0-128 or Off/Low/Medium/High/Max;
                             interactive picker when omitted
  set-timeout <minutes>      Auto power-off timeout, 0-90 (0 disables)
  set-eq <b1,...,b10>        Ten equalizer bands, -10..10 dB
  set-eq --curve <name>      Apply a named curve from the settings file
  set-preset <0-3>           Apply a hardware equalizer preset
  udev-rule [--stage]        Print the Linux permission rule; --stage
                             writes it to a temp file for installation
  version                    Print version

Common flags (per command):
  --config PATH      Settings file (default %s)
  --log-level LEVEL  debug, info, warn or error (default warn)
  --log-file PATH    Also write logs to a file
`, Version, config.DefaultPath())
}

// commonFlags registers the flags every device command shares.
type commonFlags struct {
	configPath *string
	logLevel   *string
	logFile    *string
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configPath: fs.String("config", config.DefaultPath(), "path to settings file"),
		logLevel:   fs.String("log-level", "warn", "log level (debug, info, warn, error)"),
		logFile:    fs.String("log-file", "", "also write logs to this file"),
	}
}

// setup loads settings, builds the logger and initializes the HID
// backend. The returned cleanup must run before exit.
func setup(cf commonFlags) (*config.Config, *slog.Logger, func()) {
	logger, closer, err := logging.Setup(*cf.logLevel, *cf.logFile)
	if err != nil {
		ui.PrintFatalError("Failed to set up logging", err.Error())
		os.Exit(1)
	}

	cfg, err := config.Load(*cf.configPath)
	if err != nil {
		ui.PrintFatalError("Failed to load settings", err.Error())
		os.Exit(1)
	}

	if err := hidapi.Init(); err != nil {
		ui.PrintFatalError("Failed to initialize HID backend", err.Error())
		os.Exit(1)
	}

	cleanup := func() {
		hidapi.Exit()
		if closer != nil {
			closer.Close()
		}
	}
	return cfg, logger, cleanup
}

func newService(cfg *config.Config, logger *slog.Logger) *headset.Service {
	readTimeout := time.Duration(cfg.Device.ReadTimeoutMs) * time.Millisecond
	return headset.New(cfg.Device.VendorID, cfg.Device.ProductIDs, readTimeout, logger)
}

// maybePrintUdevGuidance surfaces permission-rule instructions when a
// connection attempt triggered staging.
func maybePrintUdevGuidance(svc *headset.Service) {
	if details := svc.UdevSetupDetails(); details != nil {
		ui.PrintUdevGuidance(details)
	}
}

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	cf := addCommonFlags(fs)
	fs.Parse(args)

	cfg, logger, cleanup := setup(cf)
	defer cleanup()

	svc := newService(cfg, logger)
	defer svc.Close()

	u := readOnce(svc)
	ui.PrintStatus(u)
	maybePrintUdevGuidance(svc)
	if !u.Connected {
		os.Exit(1)
	}
}

// readOnce takes a single status snapshot through the service API.
func readOnce(svc *headset.Service) poll.Update {
	u := poll.Update{Connected: svc.IsConnected()}
	if !u.Connected {
		return u
	}
	if pct, ok := svc.BatteryLevel(); ok {
		v := pct
		u.BatteryPercent = &v
	}
	charging, chargingKnown := svc.Charging()
	switch {
	case chargingKnown && charging:
		u.Battery = poll.BatteryCharging
	case u.BatteryPercent != nil && *u.BatteryPercent == 100:
		u.Battery = poll.BatteryFull
	case u.BatteryPercent != nil:
		u.Battery = poll.BatteryAvailable
	default:
		u.Battery = poll.BatteryUnavailable
	}
	if mix, ok := svc.ChatMixValue(); ok {
		v := mix
		u.ChatMix = &v
	}
	return u
}

func runMonitor(args []string) {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	cf := addCommonFlags(fs)
	fs.Parse(args)

	cfg, logger, cleanup := setup(cf)
	defer cleanup()

	svc := newService(cfg, logger)
	defer svc.Close()

	sched := poll.New(svc, logger)
	sched.SetIntervals(
		time.Duration(cfg.Polling.NormalIntervalMs)*time.Millisecond,
		time.Duration(cfg.Polling.FastIntervalMs)*time.Millisecond,
		cfg.Polling.NoChangeThreshold,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Re-apply configured device settings when the settings file
	// changes while the monitor runs.
	if _, err := os.Stat(*cf.configPath); err == nil {
		watcher, err := config.NewWatcher(*cf.configPath, logger)
		if err != nil {
			logger.Warn("settings watcher unavailable", "err", err)
		} else {
			watcher.OnReload(func(c *config.Config) {
				applySettings(svc, c, logger)
			})
			watcher.Start()
			defer watcher.Stop()
		}
	}

	// Push configured defaults once at startup if the headset is there.
	if svc.IsConnected() {
		applySettings(svc, cfg, logger)
	}

	go sched.Run(ctx)

	model := ui.NewMonitor(sched.Updates())
	_, err := tea.NewProgram(model).Run()

	// The poll goroutine must be done before the deferred close of the
	// device handle and HID backend. Updates() closes when Run returns.
	cancel()
	for range sched.Updates() {
	}

	if err != nil {
		ui.PrintFatalError("Monitor failed", err.Error())
		os.Exit(1)
	}
	maybePrintUdevGuidance(svc)
}

// applySettings pushes the configured sidetone, timeout and equalizer
// defaults to the device. Nil settings are left untouched.
func applySettings(svc *headset.Service, cfg *config.Config, logger *slog.Logger) {
	if cfg.Defaults.SidetoneLevel != nil {
		if !svc.SetSidetone(*cfg.Defaults.SidetoneLevel) {
			logger.Warn("could not apply configured sidetone level")
		}
	}
	if cfg.Defaults.InactiveTimeoutMinutes != nil {
		if !svc.SetInactiveTimeout(*cfg.Defaults.InactiveTimeoutMinutes) {
			logger.Warn("could not apply configured inactive timeout")
		}
	}
	switch {
	case cfg.Defaults.EQCurve != "":
		if bands, ok := cfg.Curve(cfg.Defaults.EQCurve); ok {
			if !svc.SetEQBands(bands) {
				logger.Warn("could not apply configured eq curve", "curve", cfg.Defaults.EQCurve)
			}
		}
	case cfg.Defaults.EQPreset != nil:
		if !svc.SetEQPreset(*cfg.Defaults.EQPreset) {
			logger.Warn("could not apply configured eq preset", "preset", *cfg.Defaults.EQPreset)
		}
	}
}

func runListDevices(args []string) {
	fs := flag.NewFlagSet("list-devices", flag.ExitOnError)
	cf := addCommonFlags(fs)
	fs.Parse(args)

	cfg, logger, cleanup := setup(cf)
	defer cleanup()

	candidates := hid.Rank(hid.FindCandidates(cfg.Device.VendorID, cfg.Device.ProductIDs, logger))
	ui.PrintInterfaceList(candidates)
}

func runSetSidetone(args []string) {
	fs := flag.NewFlagSet("set-sidetone", flag.ExitOnError)
	cf := addCommonFlags(fs)
	fs.Parse(args)

	cfg, logger, cleanup := setup(cf)
	defer cleanup()

	var level int
	switch remaining := fs.Args(); len(remaining) {
	case 0:
		chosen, ok, err := ui.SelectSidetoneLevel()
		if err != nil {
			ui.PrintFatalError("Selection failed", err.Error())
			os.Exit(1)
		}
		if !ok {
			fmt.Println(ui.Muted("Cancelled"))
			return
		}
		level = chosen
	case 1:
		parsed, err := parseSidetoneLevel(remaining[0])
		if err != nil {
			ui.PrintFatalError("Invalid sidetone level", err.Error())
			os.Exit(1)
		}
		level = parsed
	default:
		ui.PrintFatalError("Invalid arguments", "expected at most one level")
		os.Exit(2)
	}

	svc := newService(cfg, logger)
	defer svc.Close()

	if !svc.SetSidetone(level) {
		ui.PrintFatalError("Failed to set sidetone", "is the headset connected?")
		maybePrintUdevGuidance(svc)
		os.Exit(1)
	}
	fmt.Println(ui.Success(fmt.Sprintf("Sidetone set to %d", level)))
}

// parseSidetoneLevel accepts a 0-128 number or a named level.
func parseSidetoneLevel(s string) (int, error) {
	for _, opt := range config.SidetoneOptions {
		if strings.EqualFold(opt.Name, s) {
			return opt.Value, nil
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is neither a number nor a named level", s)
	}
	if v < 0 || v > 128 {
		return 0, fmt.Errorf("level %d outside 0-128", v)
	}
	return v, nil
}

func runSetTimeout(args []string) {
	fs := flag.NewFlagSet("set-timeout", flag.ExitOnError)
	cf := addCommonFlags(fs)
	fs.Parse(args)

	if fs.NArg() != 1 {
		ui.PrintFatalError("Invalid arguments", "expected exactly one minute count (0-90)")
		os.Exit(2)
	}
	minutes, err := strconv.Atoi(fs.Arg(0))
	if err != nil || minutes < 0 || minutes > 90 {
		ui.PrintFatalError("Invalid timeout", fmt.Sprintf("%q is not a minute count in 0-90", fs.Arg(0)))
		os.Exit(2)
	}

	cfg, logger, cleanup := setup(cf)
	defer cleanup()

	svc := newService(cfg, logger)
	defer svc.Close()

	if !svc.SetInactiveTimeout(minutes) {
		ui.PrintFatalError("Failed to set inactive timeout", "is the headset connected?")
		maybePrintUdevGuidance(svc)
		os.Exit(1)
	}
	if minutes == 0 {
		fmt.Println(ui.Success("Auto power-off disabled"))
	} else {
		fmt.Println(ui.Success(fmt.Sprintf("Auto power-off after %d minutes", minutes)))
	}
}

func runSetEQ(args []string) {
	fs := flag.NewFlagSet("set-eq", flag.ExitOnError)
	cf := addCommonFlags(fs)
	curve := fs.String("curve", "", "named curve from the settings file")
	fs.Parse(args)

	cfg, logger, cleanup := setup(cf)
	defer cleanup()

	var bands []float64
	switch {
	case *curve != "":
		resolved, ok := cfg.Curve(*curve)
		if !ok {
			ui.PrintFatalError("Unknown curve", *curve)
			os.Exit(2)
		}
		bands = resolved
	case fs.NArg() == 1:
		parsed, err := parseBands(fs.Arg(0))
		if err != nil {
			ui.PrintFatalError("Invalid band values", err.Error())
			os.Exit(2)
		}
		bands = parsed
	default:
		ui.PrintFatalError("Invalid arguments", "expected ten comma-separated bands or --curve NAME")
		os.Exit(2)
	}

	svc := newService(cfg, logger)
	defer svc.Close()

	if !svc.SetEQBands(bands) {
		ui.PrintFatalError("Failed to set equalizer", "is the headset connected?")
		maybePrintUdevGuidance(svc)
		os.Exit(1)
	}
	fmt.Println(ui.Success("Equalizer updated"))
}

func parseBands(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 10 {
		return nil, fmt.Errorf("expected 10 values, got %d", len(parts))
	}
	bands := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("band %d: %q is not a number", i+1, p)
		}
		if v < -10 || v > 10 {
			return nil, fmt.Errorf("band %d: %v outside -10..10", i+1, v)
		}
		bands[i] = v
	}
	return bands, nil
}

func runSetPreset(args []string) {
	fs := flag.NewFlagSet("set-preset", flag.ExitOnError)
	cf := addCommonFlags(fs)
	fs.Parse(args)

	if fs.NArg() != 1 {
		ui.PrintFatalError("Invalid arguments", "expected one preset id (0-3)")
		os.Exit(2)
	}
	id, err := strconv.Atoi(fs.Arg(0))
	if err != nil {
		ui.PrintFatalError("Invalid preset id", fs.Arg(0))
		os.Exit(2)
	}

	cfg, logger, cleanup := setup(cf)
	defer cleanup()

	svc := newService(cfg, logger)
	defer svc.Close()

	if !svc.SetEQPreset(id) {
		ui.PrintFatalError("Failed to set preset", "check the id and that the headset is connected")
		maybePrintUdevGuidance(svc)
		os.Exit(1)
	}
	fmt.Println(ui.Success(fmt.Sprintf("Hardware preset %d applied", id)))
}

func runUdevRule(args []string) {
	fs := flag.NewFlagSet("udev-rule", flag.ExitOnError)
	cf := addCommonFlags(fs)
	stage := fs.Bool("stage", false, "write the rule to a temp file")
	fs.Parse(args)

	logger, closer, err := logging.Setup(*cf.logLevel, *cf.logFile)
	if err != nil {
		ui.PrintFatalError("Failed to set up logging", err.Error())
		os.Exit(1)
	}
	defer func() {
		if closer != nil {
			closer.Close()
		}
	}()

	cfg, err := config.Load(*cf.configPath)
	if err != nil {
		ui.PrintFatalError("Failed to load settings", err.Error())
		os.Exit(1)
	}

	mgr := udev.NewManager(cfg.Device.VendorID, cfg.Device.ProductIDs, logger)
	if !*stage {
		fmt.Print(udev.RenderRule(cfg.Device.VendorID, cfg.Device.ProductIDs))
		return
	}

	details, err := mgr.Stage()
	if err != nil {
		ui.PrintFatalError("Failed to stage rule file", err.Error())
		os.Exit(1)
	}
	ui.PrintUdevGuidance(details)
}
