package discovery

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"

	"github.com/bacnode-protocol/bacnode-go/pkg/version"
)

// mDNS constants for BACnet/IP announcement.
const (
	// ServiceTypeBACnet is the DNS-SD service type for BACnet/IP nodes.
	ServiceTypeBACnet = "_bacnet._udp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultTTL is the DNS record TTL.
	DefaultTTL = 120 * time.Second
)

// AdvertiserConfig configures mDNS announcement of the local node.
type AdvertiserConfig struct {
	// Interface restricts advertising to one network interface.
	// Empty means all interfaces.
	Interface string

	// TTL is the DNS record TTL. Zero means DefaultTTL.
	TTL time.Duration
}

// Advertiser announces the local BACnet/IP node over mDNS so tooling on
// the subnet can find it without a WhoIs. Purely optional; the protocol's
// own discovery never depends on it.
type Advertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewAdvertiser creates an mDNS advertiser.
func NewAdvertiser(config AdvertiserConfig) *Advertiser {
	if config.TTL == 0 {
		config.TTL = DefaultTTL
	}
	return &Advertiser{config: config}
}

func (a *Advertiser) interfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Start begins advertising. Instance name is "BACnet-<deviceID>"; TXT
// records carry the device instance, protocol version, vendor name and
// model name.
func (a *Advertiser) Start(deviceID uint32, vendorName, modelName string, port uint16) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	instanceName := fmt.Sprintf("BACnet-%d", deviceID)
	txt := []string{
		fmt.Sprintf("di=%d", deviceID),
		"pv=" + version.Current,
	}
	if vendorName != "" {
		txt = append(txt, "vn="+vendorName)
	}
	if modelName != "" {
		txt = append(txt, "mn="+modelName)
	}

	opts := []zeroconf.ServerOption{
		zeroconf.TTL(uint32(a.config.TTL.Seconds())),
	}

	server, err := zeroconf.Register(
		instanceName,
		ServiceTypeBACnet,
		Domain,
		int(port),
		txt,
		a.interfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}

	a.server = server
	return nil
}

// Stop withdraws the announcement. Safe to call when not started.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}
