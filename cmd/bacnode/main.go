// Command bacnode runs a BACnet/IP network node.
//
// The node binds a local device to a UDP port, discovers peers with WhoIs
// broadcasts, and gives an interactive shell for reading, writing and
// subscribing to remote objects. State (device config plus the local
// object table) can be persisted and is restored on the next boot.
//
// Usage:
//
//	bacnode [flags]
//
// Flags:
//
//	-config string     Configuration file path (YAML)
//	-device-id uint    Local device instance number (default 1338)
//	-port int          Local UDP port (default 47808)
//	-broadcast string  Broadcast address (derived from the primary interface if empty)
//	-state-dir string  Directory for persistent state
//	-reset             Clear persisted state before starting
//	-interactive       Enable the interactive shell
//	-simulate          Run against a simulated network with synthetic devices (default true)
//	-advertise         Announce the node over mDNS
//	-log-level string  Log level: debug, info, warn, error (default "info")
//	-protocol-log string  Write protocol events to a CBOR file
//
// Examples:
//
//	# Interactive node on a simulated network
//	bacnode -interactive
//
//	# Persistent node with mDNS announcement
//	bacnode -device-id 1200 -state-dir /var/lib/bacnode -advertise
//
//	# Reset persisted state
//	bacnode -state-dir /var/lib/bacnode -reset
package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/bacnode-protocol/bacnode-go/cmd/bacnode/interactive"
	"github.com/bacnode-protocol/bacnode-go/pkg/discovery"
	"github.com/bacnode-protocol/bacnode-go/pkg/log"
	"github.com/bacnode-protocol/bacnode-go/pkg/node"
	"github.com/bacnode-protocol/bacnode-go/pkg/persistence"
	"github.com/bacnode-protocol/bacnode-go/pkg/transport"
)

// Config holds the command configuration.
type Config struct {
	ConfigFile  string
	StateDir    string
	Reset       bool
	Interactive bool
	Simulate    bool
	Advertise   bool
	LogLevel    string
	ProtocolLog string

	VendorName string
	ModelName  string

	// Node carries the device settings, overridable per flag.
	Node node.Config
}

// fileConfig is the YAML layout of -config files.
type fileConfig struct {
	Node       node.Config `yaml:"node"`
	VendorName string      `yaml:"vendor_name"`
	ModelName  string      `yaml:"model_name"`
	StateDir   string      `yaml:"state_dir"`
}

var (
	config   Config
	deviceID uint
	port     int
)

func init() {
	flag.StringVar(&config.ConfigFile, "config", "", "Configuration file path (YAML)")
	flag.UintVar(&deviceID, "device-id", 0, "Local device instance number")
	flag.IntVar(&port, "port", 0, "Local UDP port")
	flag.StringVar(&config.Node.BroadcastAddress, "broadcast", "", "Broadcast address")
	flag.StringVar(&config.StateDir, "state-dir", "", "Directory for persistent state")
	flag.BoolVar(&config.Reset, "reset", false, "Clear persisted state before starting")
	flag.BoolVar(&config.Interactive, "interactive", false, "Enable the interactive shell")
	flag.BoolVar(&config.Simulate, "simulate", true, "Run against a simulated network with synthetic devices")
	flag.BoolVar(&config.Advertise, "advertise", false, "Announce the node over mDNS")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&config.ProtocolLog, "protocol-log", "", "Write protocol events to a CBOR file")
	flag.StringVar(&config.VendorName, "vendor", "BACnode Reference", "Vendor name announced over mDNS")
	flag.StringVar(&config.ModelName, "model", "Reference Node", "Model name announced over mDNS")
}

func main() {
	flag.Parse()

	if config.ConfigFile != "" {
		if err := loadConfigFile(config.ConfigFile); err != nil {
			stdlog.Fatalf("Invalid configuration file: %v", err)
		}
	}
	// Flags win over the config file.
	if deviceID != 0 {
		config.Node.DeviceID = uint32(deviceID)
	}
	if port != 0 {
		config.Node.Port = uint16(port)
	}

	logger := setupLogging(config.LogLevel)
	plog, plogClose, err := setupProtocolLog(logger)
	if err != nil {
		stdlog.Fatalf("Failed to open protocol log: %v", err)
	}
	defer plogClose()

	stdlog.SetFlags(stdlog.Ltime | stdlog.Lmicroseconds)
	stdlog.Println("BACnode Reference Node")
	stdlog.Println("======================")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	factory, simNet := buildFactory()
	if simNet != nil {
		stdlog.Printf("Simulation mode: %d synthetic devices on the network", len(simNet.Devices))
		go runSimulation(ctx, simNet)
	}

	var store node.BackupStore
	var fileStore *persistence.Store
	if config.StateDir != "" {
		fileStore = persistence.NewStore(filepath.Join(config.StateDir, "backup.json"))
		if config.Reset {
			stdlog.Println("Resetting persisted state...")
			if err := fileStore.Clear(); err != nil {
				stdlog.Printf("Warning: failed to clear state: %v", err)
			}
		}
		store = fileStore
	} else {
		store = noStore{}
	}

	opts := &node.Options{Logger: logger, ProtocolLogger: plog}
	n, waitDiscovery, err := node.Boot(ctx, store, config.Node, factory, opts)
	if err != nil {
		stdlog.Fatalf("Failed to boot: %v", err)
	}
	stdlog.Printf("Device %d initialized on port %d", n.DeviceID(), n.Config().Port)

	rt := &runtime{node: n, store: fileStore, opts: opts}

	if config.Advertise {
		rt.advertiser = discovery.NewAdvertiser(discovery.AdvertiserConfig{})
		if err := rt.advertiser.Start(n.DeviceID(), config.VendorName, config.ModelName, n.Config().Port); err != nil {
			stdlog.Printf("Warning: mDNS announcement failed: %v", err)
		} else {
			stdlog.Printf("Announced over mDNS as BACnet-%d", n.DeviceID())
		}
		defer rt.advertiser.Stop()
	}

	go func() {
		ids := waitDiscovery()
		stdlog.Printf("Discovery bootstrap complete: %d device(s) found", len(ids))
	}()

	if config.Interactive {
		shell, err := interactive.New(rt)
		if err != nil {
			stdlog.Fatalf("Failed to create interactive shell: %v", err)
		}
		// Redirect log output through readline to avoid interfering with input.
		stdlog.SetOutput(shell.Stdout())
		go shell.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		stdlog.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}

	stdlog.Println("Shutting down...")

	if fileStore != nil {
		if _, err := rt.Save(); err != nil {
			stdlog.Printf("Warning: failed to save state: %v", err)
		} else {
			stdlog.Printf("State saved to %s", fileStore.Path())
		}
	}

	rt.Node().Terminate()
	stdlog.Println("Goodbye!")
}

func loadConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	config.Node = fc.Node
	if fc.VendorName != "" {
		config.VendorName = fc.VendorName
	}
	if fc.ModelName != "" {
		config.ModelName = fc.ModelName
	}
	if fc.StateDir != "" && config.StateDir == "" {
		config.StateDir = fc.StateDir
	}
	return nil
}

func setupLogging(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// setupProtocolLog builds the protocol event sink: a CBOR file when
// -protocol-log is set, mirrored onto the debug logger at debug level.
func setupProtocolLog(logger *slog.Logger) (log.Logger, func(), error) {
	sinks := []log.Logger{log.NewSlogAdapter(logger)}
	closeFn := func() {}

	if config.ProtocolLog != "" {
		fl, err := log.NewFileLogger(config.ProtocolLog)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, fl)
		closeFn = func() { _ = fl.Close() }
	}
	return log.NewMultiLogger(sinks...), closeFn, nil
}

// buildFactory returns the transport factory and, in simulation mode, the
// synthetic network behind it.
func buildFactory() (node.TransportFactory, *simNetwork) {
	if !config.Simulate {
		// No physical BACnet stack is wired in this build; the simulated
		// network is the only transport.
		stdlog.Println("Note: only the simulated transport is available; forcing -simulate")
	}
	sim := newSimNetwork()
	factory := func(node.Config) (transport.Transport, error) {
		return sim.net.NewTransport(), nil
	}
	return factory, sim
}

// noStore is the backup store used when persistence is disabled.
type noStore struct{}

func (noStore) Save(*node.Backup) error { return nil }

func (noStore) Load() (*node.Backup, error) { return nil, node.ErrNoBackup }
