// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kestrel-net/kestrel/internal/capture"
	"github.com/kestrel-net/kestrel/internal/config"
	"github.com/kestrel-net/kestrel/internal/core"
	"github.com/kestrel-net/kestrel/internal/dashboard"
	"github.com/kestrel-net/kestrel/internal/log"
	"github.com/kestrel-net/kestrel/internal/metrics"
	"github.com/kestrel-net/kestrel/internal/monitor"
	"github.com/kestrel-net/kestrel/internal/stats"
)

var (
	// Global flags
	configFile    string
	dashboardMode bool
	listDevices   bool
	selectDevice  bool
	interfaceList string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kestrel [flags] [device]",
	Short: "Kestrel - live network traffic monitor",
	Long: `Kestrel captures live network traffic, classifies packets by transport
protocol, and aggregates per-protocol and per-connection statistics.

Without flags it prints one line per captured packet on the device given
as the positional argument (or an auto-resolved default). With --dashboard
it renders a live terminal dashboard instead.

Examples:
  kestrel                        # capture on the default device
  kestrel eth0                   # capture on eth0
  kestrel -d eth0                # live dashboard for eth0
  kestrel -l                     # list capture devices
  kestrel -s                     # pick a device interactively
  kestrel -m eth0,wlan0 -d       # aggregate several interfaces`,
	Version:       version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an Execute error to the process exit status. Device
// resolution failures exit 2, every other error exits 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, core.ErrNoDevice) {
		return 2
	}
	return 1
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path")

	rootCmd.Flags().BoolVarP(&dashboardMode, "dashboard", "d", false,
		"render the live dashboard instead of per-packet lines")
	rootCmd.Flags().BoolVarP(&listDevices, "list", "l", false,
		"list available capture devices and exit")
	rootCmd.Flags().BoolVarP(&selectDevice, "select", "s", false,
		"choose the capture device from a numbered list")
	rootCmd.Flags().StringVarP(&interfaceList, "interfaces", "m", "",
		"comma-separated interface names for multi-interface capture")

	// Add subcommands
	rootCmd.AddCommand(checkconfigCmd)
	rootCmd.AddCommand(versionCmd)
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	log.Init(&cfg.Logging)
	logger := log.GetLogger()

	if listDevices {
		devices, err := capture.Devices()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), renderDeviceList(devices))
		return nil
	}

	ifaces, err := resolveInterfaces(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	initShutdownListener(cancel)

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := srv.Stop(context.Background()); err != nil {
				logger.WithError(err).Warn("metrics server stop")
			}
		}()
	}

	if dashboardMode {
		return runDashboard(ctx, cancel, cfg, ifaces)
	}
	return runPrinter(ctx, cmd.OutOrStdout(), cfg, ifaces, logger)
}

// runPrinter is the line-per-packet mode: a shared printer sink and a
// startup banner, everything else handled by the orchestrator.
func runPrinter(ctx context.Context, out io.Writer, cfg *config.Config, ifaces []string, logger log.Logger) error {
	multi := len(ifaces) > 1
	printer := capture.NewPrinter(out, multi)

	mon, err := monitor.New(ifaces, cfg.Capture, printer)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Starting packet capture on %s... (Press Ctrl+C to stop)\n",
		strings.Join(ifaces, ", "))

	err = mon.Run(ctx)
	logSummary(logger, mon)
	return err
}

// runDashboard aggregates into a store and drives the terminal UI. The
// capture side and the UI share one context: quitting the UI stops
// capture, and a capture-side failure tears down the UI.
func runDashboard(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, ifaces []string) error {
	store, err := stats.New(stats.Options{MaxConnections: cfg.Stats.MaxConnections})
	if err != nil {
		return err
	}
	mon, err := monitor.New(ifaces, cfg.Capture, store)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	var monErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		monErr = mon.Run(ctx)
		cancel()
	}()

	model := dashboard.New(store, mon, dashboard.Options{
		Refresh:  cfg.Dashboard.Refresh(),
		BarWidth: cfg.Dashboard.BarWidth,
		TopN:     cfg.Dashboard.TopN,
	})
	uiErr := dashboard.Run(ctx, model)

	cancel()
	wg.Wait()
	logSummary(log.GetLogger(), mon)

	if uiErr != nil {
		return uiErr
	}
	return monErr
}

func logSummary(logger log.Logger, mon *monitor.Monitor) {
	var packets, failures uint64
	for _, st := range mon.Statuses() {
		packets += st.Packets
		failures += st.DecodeFailures
	}
	logger.Infof("capture finished: %d packets, %d decode failures", packets, failures)
}

// resolveInterfaces decides what to capture on, in precedence order:
// the --interfaces list, interactive selection, the positional device,
// then the auto-resolved default.
func resolveInterfaces(cmd *cobra.Command, args []string) ([]string, error) {
	if interfaceList != "" {
		return parseInterfaceList(interfaceList)
	}
	if selectDevice {
		devices, err := capture.Devices()
		if err != nil {
			return nil, err
		}
		name, err := chooseDevice(cmd.OutOrStdout(), cmd.InOrStdin(), devices)
		if err != nil {
			return nil, err
		}
		return []string{name}, nil
	}
	if len(args) == 1 {
		return []string{args[0]}, nil
	}
	name, err := capture.ResolveDefault()
	if err != nil {
		return nil, err
	}
	return []string{name}, nil
}

func parseInterfaceList(raw string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil, core.ErrNoInterfaces
	}
	return out, nil
}

func renderDeviceList(devices []capture.Device) string {
	if len(devices) == 0 {
		return "No capture devices found.\n"
	}
	var b strings.Builder
	b.WriteString("Available interfaces:\n")
	for i, d := range devices {
		if d.Description != "" {
			fmt.Fprintf(&b, "%d. %s - %s\n", i+1, d.Name, d.Description)
		} else {
			fmt.Fprintf(&b, "%d. %s\n", i+1, d.Name)
		}
	}
	return b.String()
}

// chooseDevice prints the numbered device list and reads a 1-based
// selection from r. Anything that is not a number in range is a user
// error.
func chooseDevice(w io.Writer, r io.Reader, devices []capture.Device) (string, error) {
	if len(devices) == 0 {
		return "", core.ErrNoDevice
	}
	fmt.Fprint(w, renderDeviceList(devices))
	fmt.Fprint(w, "Select interface number: ")

	var input string
	if _, err := fmt.Fscanln(r, &input); err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrInvalidSelection, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a number", core.ErrInvalidSelection, input)
	}
	if n < 1 || n > len(devices) {
		return "", fmt.Errorf("%w: %d is out of range 1-%d", core.ErrInvalidSelection, n, len(devices))
	}
	return devices[n-1].Name, nil
}

func initShutdownListener(cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-signals
		cancel()
	}()
}
