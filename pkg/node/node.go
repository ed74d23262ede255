package node

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bacnode-protocol/bacnode-go/pkg/bacnet"
	"github.com/bacnode-protocol/bacnode-go/pkg/log"
	"github.com/bacnode-protocol/bacnode-go/pkg/subscription"
	"github.com/bacnode-protocol/bacnode-go/pkg/transport"
)

// Lifecycle errors.
var (
	ErrTerminated = errors.New("device terminated; construct a new instance")
)

// State is the local device lifecycle state.
type State uint8

const (
	// StateUninitialized means the device exists but holds no port.
	StateUninitialized State = iota

	// StateInitialized means the device is bound and live.
	StateInitialized

	// StateTerminated means the port is released and the instance is dead.
	StateTerminated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StateInitialized:
		return "INITIALIZED"
	case StateTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// TransportFactory constructs a transport handle for a device config.
// Reset calls it again for the replacement instance.
type TransportFactory func(cfg Config) (transport.Transport, error)

// Options carries the optional collaborators a Node can use.
type Options struct {
	// Logger receives human-readable debug output. Nil disables it.
	Logger *slog.Logger

	// ProtocolLogger receives structured protocol events. Nil disables it.
	ProtocolLogger log.Logger
}

// Node is one local BACnet device: config, object table, transport handle
// and lifecycle state. Construct with New, bring online with Initialize,
// shut down with Terminate. Safe for concurrent use; Reset replaces the
// instance and concurrent Resets must be serialized by the caller.
type Node struct {
	mu sync.RWMutex

	config    Config
	state     State
	transport transport.Transport
	factory   TransportFactory
	objects   map[bacnet.ObjectIdentifier]bacnet.ObjectRecord

	// sessionID tags protocol log events; a reset starts a new session.
	sessionID string

	subscriptions *subscription.Manager

	logger *slog.Logger
	plog   log.Logger
}

// New constructs a device from cfg, applying defaults for omitted fields
// and configuring (but not binding) its transport. opts may be nil.
func New(cfg Config, factory TransportFactory, opts *Options) (*Node, error) {
	full, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	tr, err := factory(full)
	if err != nil {
		return nil, fmt.Errorf("construct transport: %w", err)
	}

	n := &Node{
		config:        full,
		state:         StateUninitialized,
		transport:     tr,
		factory:       factory,
		objects:       make(map[bacnet.ObjectIdentifier]bacnet.ObjectRecord),
		sessionID:     uuid.NewString(),
		subscriptions: subscription.NewManager(),
		plog:          log.NoopLogger{},
	}
	if opts != nil {
		if opts.Logger != nil {
			n.logger = opts.Logger
		}
		if opts.ProtocolLogger != nil {
			n.plog = opts.ProtocolLogger
		}
	}

	n.applyTunables(tr)
	n.subscriptions.OnExpiry(func(sub *subscription.Subscription) {
		n.plog.Log(log.Event{
			Timestamp: time.Now(),
			SessionID: n.sessionID,
			Direction: log.DirectionIn,
			Category:  log.CategoryLifecycle,
			DeviceID:  sub.DeviceID,
			Object:    sub.Object.String(),
			State:     "subscription-expired",
		})
	})
	tr.SetCOVHandler(func(deviceID, processID uint32, object bacnet.ObjectIdentifier, values bacnet.PropertyMap) {
		n.plog.Log(log.Event{
			Timestamp: time.Now(),
			SessionID: n.sessionID,
			Direction: log.DirectionIn,
			Category:  log.CategoryNotification,
			DeviceID:  deviceID,
			Object:    object.String(),
		})
		n.subscriptions.Dispatch(deviceID, processID, object, values)
	})

	return n, nil
}

func (n *Node) applyTunables(tr transport.Transport) {
	tr.SetPort(n.config.Port)
	tr.SetTimeout(n.config.APDUTimeout)
	tr.SetRetries(n.config.Retries)
	tr.SetSegTimeout(n.config.SegTimeout)
	tr.SetSegWindow(n.config.SegWindow)
}

// Config returns the device's construction snapshot.
func (n *Node) Config() Config {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.config
}

// DeviceID returns the local device instance number.
func (n *Node) DeviceID() uint32 {
	return n.Config().DeviceID
}

// SessionID returns the identifier tagging this instance's log events.
func (n *Node) SessionID() string {
	return n.sessionID
}

// DestinationPort returns the port broadcasts are sent to.
func (n *Node) DestinationPort() uint16 {
	return n.Config().DestinationPort
}

// State returns the lifecycle state.
func (n *Node) State() State {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state
}

// Initialized reports whether the device is live.
func (n *Node) Initialized() bool {
	return n.State() == StateInitialized
}

// Transport returns the device's transport handle.
func (n *Node) Transport() transport.Transport {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.transport
}

// Subscriptions returns the device's COV subscription manager.
func (n *Node) Subscriptions() *subscription.Manager {
	return n.subscriptions
}

// Initialize binds the device to its configured port. A bind failure is
// terminal for this instance: terminate or discard and construct a new one.
func (n *Node) Initialize() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case StateTerminated:
		return ErrTerminated
	case StateInitialized:
		return nil
	}

	if err := n.transport.Initialize(); err != nil {
		return fmt.Errorf("initialize device %d: %w", n.config.DeviceID, err)
	}
	n.state = StateInitialized

	n.logStateChange("initialized")
	if n.logger != nil {
		n.logger.Info("local device initialized",
			slog.Uint64("device_id", uint64(n.config.DeviceID)),
			slog.Uint64("port", uint64(n.config.Port)),
		)
	}
	return nil
}

// Terminate releases the bound port. Idempotent: terminating an
// uninitialized or already-terminated device is a no-op, and failures from
// the transport are swallowed - "already free" is not an application error.
func (n *Node) Terminate() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == StateInitialized {
		if err := n.transport.Terminate(); err != nil && n.logger != nil {
			n.logger.Debug("transport terminate", slog.String("error", err.Error()))
		}
	}
	if n.state != StateTerminated {
		n.state = StateTerminated
		n.logStateChange("terminated")
	}
}

func (n *Node) logStateChange(state string) {
	n.plog.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: n.sessionID,
		Direction: log.DirectionOut,
		Category:  log.CategoryLifecycle,
		DeviceID:  n.config.DeviceID,
		State:     state,
	})
}

// AddOrUpdateObject inserts the record, or overwrites the existing object's
// properties. The object identifier and object type are never altered by
// an update; structural properties in the incoming map are dropped.
// Returns the resulting full record.
func (n *Node) AddOrUpdateObject(rec bacnet.ObjectRecord) (bacnet.ObjectRecord, error) {
	if !rec.ID.Valid() {
		return bacnet.ObjectRecord{}, fmt.Errorf("%w: %d", bacnet.ErrInvalidInstance, rec.ID.Instance)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	existing, exists := n.objects[rec.ID]
	if !exists {
		existing = bacnet.ObjectRecord{ID: rec.ID, Properties: make(bacnet.PropertyMap)}
	}
	if existing.Properties == nil {
		existing.Properties = make(bacnet.PropertyMap)
	}
	for prop, value := range rec.Properties {
		if prop.Structural() {
			continue
		}
		existing.Properties[prop] = value
	}
	n.objects[rec.ID] = existing

	return existing.Clone(), nil
}

// Object returns a copy of one local object.
func (n *Node) Object(oid bacnet.ObjectIdentifier) (bacnet.ObjectRecord, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	rec, ok := n.objects[oid]
	if !ok {
		return bacnet.ObjectRecord{}, fmt.Errorf("%w: %s", bacnet.ErrObjectNotFound, oid)
	}
	return rec.Clone(), nil
}

// Objects returns copies of all local objects, ordered by identifier.
func (n *Node) Objects() []bacnet.ObjectRecord {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]bacnet.ObjectRecord, 0, len(n.objects))
	for _, rec := range n.objects {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID.Type != out[j].ID.Type {
			return out[i].ID.Type < out[j].ID.Type
		}
		return out[i].ID.Instance < out[j].ID.Instance
	})
	return out
}

// RemoveObject deletes one object from the table.
func (n *Node) RemoveObject(oid bacnet.ObjectIdentifier) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.objects[oid]; !ok {
		return fmt.Errorf("%w: %s", bacnet.ErrObjectNotFound, oid)
	}
	delete(n.objects, oid)
	return nil
}

// RemoveAllObjects empties the object table.
func (n *Node) RemoveAllObjects() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.objects = make(map[bacnet.ObjectIdentifier]bacnet.ObjectRecord)
}

// Backup produces a snapshot of current config, tunables and all local
// objects, suitable for persistence and for Reset.
func (n *Node) Backup() *Backup {
	n.mu.RLock()
	defer n.mu.RUnlock()
	objects := make([]bacnet.ObjectRecord, 0, len(n.objects))
	for _, rec := range n.objects {
		objects = append(objects, rec.Clone())
	}
	sort.Slice(objects, func(i, j int) bool {
		if objects[i].ID.Type != objects[j].ID.Type {
			return objects[i].ID.Type < objects[j].ID.Type
		}
		return objects[i].ID.Instance < objects[j].ID.Instance
	})
	return &Backup{
		Version: BackupVersion,
		Config:  n.config,
		Objects: objects,
	}
}

// Reset terminates this device and returns a replacement built from this
// device's backup merged with overrides, initialized, with every object
// replayed. This is the only supported way to change construction-time
// parameters such as the device ID or port: a full replace, not a
// mutation. Callers must drop their reference to the old Node.
func (n *Node) Reset(overrides Config) (*Node, error) {
	backup := n.Backup()
	n.Terminate()

	merged := backup.Config.merge(overrides)
	replacement, err := New(merged, n.factory, &Options{Logger: n.logger, ProtocolLogger: n.plog})
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	if err := replacement.Initialize(); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	for _, rec := range backup.Objects {
		if _, err := replacement.AddOrUpdateObject(rec); err != nil {
			return nil, fmt.Errorf("reset: replay %s: %w", rec.ID, err)
		}
	}
	return replacement, nil
}

// Restore is like Reset but starts from a saved backup instead of a live
// instance: it constructs, initializes and populates a fresh device.
func Restore(backup *Backup, factory TransportFactory, opts *Options) (*Node, error) {
	n, err := New(backup.Config, factory, opts)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	if err := n.Initialize(); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	for _, rec := range backup.Objects {
		if _, err := n.AddOrUpdateObject(rec); err != nil {
			return nil, fmt.Errorf("restore: replay %s: %w", rec.ID, err)
		}
	}
	return n, nil
}
