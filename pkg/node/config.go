package node

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/bacnode-protocol/bacnode-go/pkg/bacnet"
)

// Configuration errors.
var (
	ErrAddressResolve = errors.New("cannot resolve broadcast address")
	ErrDeviceIDRange  = errors.New("device ID out of range")
	ErrTimeoutRange   = errors.New("timeout must be positive")
)

// Configuration defaults.
const (
	DefaultDeviceID    = 1338
	DefaultTimeout     = 10 * time.Second
	DefaultAPDUTimeout = 6 * time.Second
	DefaultRetries     = 3
	DefaultSegTimeout  = 5 * time.Second
	DefaultSegWindow   = 10
)

// Config is the immutable construction snapshot for a local device.
// The zero value of any field means "use the default". A Config is stored
// verbatim in backups and must round-trip losslessly.
type Config struct {
	// DeviceID uniquely identifies this node on the network for the
	// session's lifetime (0..4194303).
	DeviceID uint32 `json:"device_id" yaml:"device_id"`

	// BroadcastAddress is the local broadcast address. Empty means derive
	// it from the host's primary network interface.
	BroadcastAddress string `json:"broadcast_address" yaml:"broadcast_address"`

	// Port is the local UDP port to bind.
	Port uint16 `json:"port" yaml:"port"`

	// DestinationPort is the port broadcasts are sent to.
	DestinationPort uint16 `json:"destination_port" yaml:"destination_port"`

	// LocalAddress optionally pins the local interface address.
	LocalAddress string `json:"local_address,omitempty" yaml:"local_address,omitempty"`

	// Timeout bounds blocking operations issued by this node.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// APDUTimeout is the transport's per-attempt response timeout.
	APDUTimeout time.Duration `json:"apdu_timeout" yaml:"apdu_timeout"`

	// Retries is the transport's APDU retry count.
	Retries int `json:"retries" yaml:"retries"`

	// SegTimeout is the transport's segment timeout.
	SegTimeout time.Duration `json:"seg_timeout" yaml:"seg_timeout"`

	// SegWindow is the transport's segmentation window size.
	SegWindow int `json:"seg_window" yaml:"seg_window"`
}

// withDefaults returns a copy with every omitted field filled in.
// The broadcast address is derived from the primary interface when empty;
// failure to derive it is a configuration error.
func (c Config) withDefaults() (Config, error) {
	if c.DeviceID == 0 {
		c.DeviceID = DefaultDeviceID
	}
	if c.DeviceID > bacnet.MaxInstance {
		return Config{}, fmt.Errorf("%w: %d", ErrDeviceIDRange, c.DeviceID)
	}
	if c.Port == 0 {
		c.Port = bacnet.DefaultPort
	}
	if c.DestinationPort == 0 {
		c.DestinationPort = bacnet.DefaultPort
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Timeout < 0 {
		return Config{}, ErrTimeoutRange
	}
	if c.APDUTimeout == 0 {
		c.APDUTimeout = DefaultAPDUTimeout
	}
	if c.Retries == 0 {
		c.Retries = DefaultRetries
	}
	if c.SegTimeout == 0 {
		c.SegTimeout = DefaultSegTimeout
	}
	if c.SegWindow == 0 {
		c.SegWindow = DefaultSegWindow
	}
	if c.BroadcastAddress == "" {
		addr, err := primaryBroadcastAddress()
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrAddressResolve, err)
		}
		c.BroadcastAddress = addr
	}
	return c, nil
}

// merge overlays the non-zero fields of overrides onto c. Used by Reset:
// the backup's config is the base, overrides win field by field.
func (c Config) merge(overrides Config) Config {
	if overrides.DeviceID != 0 {
		c.DeviceID = overrides.DeviceID
	}
	if overrides.BroadcastAddress != "" {
		c.BroadcastAddress = overrides.BroadcastAddress
	}
	if overrides.Port != 0 {
		c.Port = overrides.Port
	}
	if overrides.DestinationPort != 0 {
		c.DestinationPort = overrides.DestinationPort
	}
	if overrides.LocalAddress != "" {
		c.LocalAddress = overrides.LocalAddress
	}
	if overrides.Timeout != 0 {
		c.Timeout = overrides.Timeout
	}
	if overrides.APDUTimeout != 0 {
		c.APDUTimeout = overrides.APDUTimeout
	}
	if overrides.Retries != 0 {
		c.Retries = overrides.Retries
	}
	if overrides.SegTimeout != 0 {
		c.SegTimeout = overrides.SegTimeout
	}
	if overrides.SegWindow != 0 {
		c.SegWindow = overrides.SegWindow
	}
	return c
}

// primaryBroadcastAddress computes the IPv4 broadcast address of the first
// up, non-loopback interface with an IPv4 network.
func primaryBroadcastAddress() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipnet.IP.To4()
			if ip4 == nil {
				continue
			}
			mask := ipnet.Mask
			if len(mask) == net.IPv6len {
				mask = mask[12:]
			}
			bcast := make(net.IP, net.IPv4len)
			for i := 0; i < net.IPv4len; i++ {
				bcast[i] = ip4[i] | ^mask[i]
			}
			return bcast.String(), nil
		}
	}
	return "", errors.New("no usable IPv4 interface")
}
