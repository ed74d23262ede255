package discovery

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/bacnode-protocol/bacnode-go/pkg/bacnet"
	"github.com/bacnode-protocol/bacnode-go/pkg/log"
	"github.com/bacnode-protocol/bacnode-go/pkg/transport"
)

// Timing and retry constants.
const (
	// SettleDelay is how long FindDevices waits for I-Am broadcasts to
	// trickle in after a WhoIs. Discovery has no completion signal; this
	// is a deliberate fixed wait for broadcast convergence.
	SettleDelay = 500 * time.Millisecond

	// BootstrapAttempts bounds the boot-time discovery retry loop.
	BootstrapAttempts = 5
)

// Range restricts a discovery broadcast to device instances in [Low, High].
type Range struct {
	Low  uint32
	High uint32
}

// FullRange covers the entire legal device instance space.
func FullRange() Range {
	return Range{Low: 0, High: bacnet.MaxInstance}
}

// normalize maps a nil range to the full instance space. A non-nil
// range is taken literally, so [0, 0] addresses instance 0 alone.
func normalize(rng *Range) Range {
	if rng == nil {
		return FullRange()
	}
	return *rng
}

// Endpoint is the view of the local device the service needs.
// *node.Node implements it.
type Endpoint interface {
	Initialized() bool
	Transport() transport.Transport
	DestinationPort() uint16
	SessionID() string
}

// Options carries the service's optional collaborators.
type Options struct {
	// Logger receives human-readable debug output. Nil disables it.
	Logger *slog.Logger

	// ProtocolLogger receives structured protocol events. Nil disables it.
	ProtocolLogger log.Logger

	// SettleDelay overrides the post-WhoIs wait. Zero means SettleDelay.
	SettleDelay time.Duration
}

// Service sends discovery broadcasts and runs the bounded bootstrap loop
// for one local device.
type Service struct {
	endpoint Endpoint
	logger   *slog.Logger
	plog     log.Logger
	settle   time.Duration
}

// NewService creates a discovery service for the given endpoint.
// opts may be nil.
func NewService(endpoint Endpoint, opts *Options) *Service {
	s := &Service{
		endpoint: endpoint,
		plog:     log.NoopLogger{},
		settle:   SettleDelay,
	}
	if opts != nil {
		if opts.Logger != nil {
			s.logger = opts.Logger
		}
		if opts.ProtocolLogger != nil {
			s.plog = opts.ProtocolLogger
		}
		if opts.SettleDelay > 0 {
			s.settle = opts.SettleDelay
		}
	}
	return s
}

// SendWhoIs broadcasts a WhoIs. A nil range covers the full device-ID
// space. Fire-and-forget: responses arrive asynchronously in the
// transport's remote-device table.
func (s *Service) SendWhoIs(rng *Range) error {
	r := normalize(rng)
	s.logBroadcast("who-is")
	return s.endpoint.Transport().SendBroadcast(s.endpoint.DestinationPort(), transport.Broadcast{
		Payload: &transport.WhoIs{Low: r.Low, High: r.High},
	})
}

// SendWhoHasID broadcasts a WhoHas for a typed object identifier.
func (s *Service) SendWhoHasID(oid bacnet.ObjectIdentifier, rng *Range) error {
	r := normalize(rng)
	s.logBroadcast("who-has")
	return s.endpoint.Transport().SendBroadcast(s.endpoint.DestinationPort(), transport.Broadcast{
		Payload: &transport.WhoHas{Low: r.Low, High: r.High, Object: &oid},
	})
}

// SendWhoHasName broadcasts a WhoHas for a textual object name.
// The identifier and name encodings are mutually exclusive on the wire.
func (s *Service) SendWhoHasName(name string, rng *Range) error {
	r := normalize(rng)
	s.logBroadcast("who-has")
	return s.endpoint.Transport().SendBroadcast(s.endpoint.DestinationPort(), transport.Broadcast{
		Payload: &transport.WhoHas{Low: r.Low, High: r.High, Name: name},
	})
}

func (s *Service) logBroadcast(service string) {
	s.plog.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: s.endpoint.SessionID(),
		Direction: log.DirectionOut,
		Category:  log.CategoryBroadcast,
		Service:   service,
	})
}

// FindDevices sends a WhoIs, waits the settle interval for I-Am responses
// to populate the remote-device table, fetches extended information for
// every discovered device and returns the sorted set of device IDs now
// known. A device whose extended-information read fails stays in the
// result; the failure is logged and the fetch retried on the next call.
func (s *Service) FindDevices(ctx context.Context, rng *Range) ([]uint32, error) {
	if err := s.SendWhoIs(rng); err != nil {
		return nil, err
	}

	// Not event-driven on purpose: there is no "discovery done" message
	// to wait for, only silence after the stragglers.
	time.Sleep(s.settle)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tr := s.endpoint.Transport()
	devices := tr.RemoteDevices()
	ids := make([]uint32, 0, len(devices))
	for _, dev := range devices {
		if !dev.ExtendedInfoLoaded {
			if err := tr.ExtendedDeviceInformation(dev); err != nil && s.logger != nil {
				s.logger.Debug("extended device information",
					slog.Uint64("device_id", uint64(dev.DeviceID)),
					slog.String("error", err.Error()),
				)
			}
		}
		ids = append(ids, dev.DeviceID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Bootstrap runs FindDevices up to BootstrapAttempts times, stopping at
// the first attempt that finds any device. Persistent silence is not an
// error: the result is simply empty after the final attempt. Run it in a
// goroutine; it is not cancellable mid-attempt except through ctx between
// attempts.
func (s *Service) Bootstrap(ctx context.Context, rng *Range) []uint32 {
	var found []uint32
	for attempt := 1; attempt <= BootstrapAttempts; attempt++ {
		if ctx.Err() != nil {
			return found
		}
		ids, err := s.FindDevices(ctx, rng)
		if err != nil {
			if s.logger != nil {
				s.logger.Debug("discovery attempt failed",
					slog.Int("attempt", attempt),
					slog.String("error", err.Error()),
				)
			}
			continue
		}
		if len(ids) > 0 {
			found = ids
			if s.logger != nil {
				s.logger.Info("devices discovered",
					slog.Int("attempt", attempt),
					slog.Int("count", len(ids)),
				)
			}
			break
		}
	}
	return found
}
