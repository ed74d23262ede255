package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bacnode-protocol/bacnode-go/pkg/bacnet"
)

// DefaultSimLatency is the simulated one-way network delay.
const DefaultSimLatency = time.Millisecond

// FailureMode forces a simulated device to misbehave for one of the four
// non-success outcomes.
type FailureMode uint8

const (
	// FailNone answers normally.
	FailNone FailureMode = iota

	// FailSilent never answers; the caller's deadline governs.
	FailSilent

	// FailAbort answers every confirmed request with an abort.
	FailAbort

	// FailReject answers every confirmed request with a reject.
	FailReject

	// FailError answers every confirmed request with an error response.
	FailError
)

// SimNetwork is an in-memory BACnet internetwork: a set of simulated
// remote devices plus the bound local endpoints. Port exclusivity is
// enforced here, the way a real socket bind would.
type SimNetwork struct {
	mu      sync.Mutex
	ports   map[uint16]*SimTransport
	devices map[uint32]*SimDevice
	latency time.Duration
}

// NewSimNetwork creates an empty simulated network.
func NewSimNetwork() *SimNetwork {
	return &SimNetwork{
		ports:   make(map[uint16]*SimTransport),
		devices: make(map[uint32]*SimDevice),
		latency: DefaultSimLatency,
	}
}

// SetLatency overrides the simulated one-way delay.
func (n *SimNetwork) SetLatency(d time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.latency = d
}

// AddDevice places a simulated device on the network.
func (n *SimNetwork) AddDevice(d *SimDevice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.devices[d.ID] = d
}

// RemoveDevice takes a simulated device off the network.
func (n *SimNetwork) RemoveDevice(deviceID uint32) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.devices, deviceID)
}

// Device returns a simulated device by instance number.
func (n *SimNetwork) Device(deviceID uint32) (*SimDevice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	d, ok := n.devices[deviceID]
	return d, ok
}

// NewTransport creates a local endpoint attached to this network.
// The endpoint is unbound until Initialize.
func (n *SimNetwork) NewTransport() *SimTransport {
	return &SimTransport{
		network:   n,
		sessionID: uuid.NewString(),
		port:      bacnet.DefaultPort,
		timeout:   3 * time.Second,
		retries:   3,
	}
}

func (n *SimNetwork) bind(port uint16, t *SimTransport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if holder, taken := n.ports[port]; taken && holder != t {
		return fmt.Errorf("%w: %d", ErrPortInUse, port)
	}
	n.ports[port] = t
	return nil
}

func (n *SimNetwork) unbind(port uint16, t *SimTransport) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ports[port] != t {
		return false
	}
	delete(n.ports, port)
	return true
}

func (n *SimNetwork) snapshotDevices() []*SimDevice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*SimDevice, 0, len(n.devices))
	for _, d := range n.devices {
		out = append(out, d)
	}
	return out
}

// simSub is one active COV subscription held by a simulated device.
type simSub struct {
	processID uint32
	object    bacnet.ObjectIdentifier
	endpoint  *SimTransport
}

// SimDevice is one simulated remote device with its own object table.
type SimDevice struct {
	ID         uint32
	VendorID   uint16
	Name       string
	VendorName string
	Services   []string

	mu      sync.RWMutex
	network *SimNetwork
	objects map[bacnet.ObjectIdentifier]bacnet.ObjectRecord
	subs    []simSub
	offline bool

	failure      FailureMode
	abortReason  bacnet.AbortReason
	rejectReason bacnet.RejectReason
	errorClass   bacnet.ErrorClass
	errorCode    bacnet.ErrorCode
}

// NewSimDevice creates a simulated device. Its device object is created
// implicitly with object-name and vendor-name properties.
func NewSimDevice(deviceID uint32, name string) *SimDevice {
	d := &SimDevice{
		ID:       deviceID,
		Name:     name,
		Services: []string{"read-property-multiple", "write-property", "subscribe-cov", "create-object", "delete-object"},
		objects:  make(map[bacnet.ObjectIdentifier]bacnet.ObjectRecord),
	}
	devOID := bacnet.DeviceObjectID(deviceID)
	d.objects[devOID] = bacnet.ObjectRecord{
		ID: devOID,
		Properties: bacnet.PropertyMap{
			bacnet.PropObjectName: name,
			bacnet.PropVendorName: "Simulated",
		},
	}
	return d
}

// SetObject adds or replaces an object on the device.
func (d *SimDevice) SetObject(rec bacnet.ObjectRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.objects[rec.ID] = rec.Clone()
}

// Object returns a copy of an object on the device.
func (d *SimDevice) Object(oid bacnet.ObjectIdentifier) (bacnet.ObjectRecord, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rec, ok := d.objects[oid]
	if !ok {
		return bacnet.ObjectRecord{}, false
	}
	return rec.Clone(), true
}

// SetOffline controls whether the device answers broadcasts and requests.
func (d *SimDevice) SetOffline(offline bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.offline = offline
}

// Fail forces a failure mode for all subsequent confirmed requests.
func (d *SimDevice) Fail(mode FailureMode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failure = mode
}

// FailAbortWith forces aborts with a specific reason.
func (d *SimDevice) FailAbortWith(reason bacnet.AbortReason) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failure = FailAbort
	d.abortReason = reason
}

// FailRejectWith forces rejects with a specific reason.
func (d *SimDevice) FailRejectWith(reason bacnet.RejectReason) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failure = FailReject
	d.rejectReason = reason
}

// FailErrorWith forces error responses with a specific class and code.
func (d *SimDevice) FailErrorWith(class bacnet.ErrorClass, code bacnet.ErrorCode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failure = FailError
	d.errorClass = class
	d.errorCode = code
}

// UpdateProperty mutates a property out-of-band (a "physical" change) and
// fans out COV notifications to subscribed endpoints.
func (d *SimDevice) UpdateProperty(oid bacnet.ObjectIdentifier, prop bacnet.PropertyIdentifier, value any) bool {
	d.mu.Lock()
	rec, ok := d.objects[oid]
	if !ok {
		d.mu.Unlock()
		return false
	}
	if rec.Properties == nil {
		rec.Properties = make(bacnet.PropertyMap)
	}
	rec.Properties[prop] = value
	d.objects[oid] = rec
	subs := make([]simSub, 0, len(d.subs))
	for _, s := range d.subs {
		if s.object == oid {
			subs = append(subs, s)
		}
	}
	d.mu.Unlock()

	for _, s := range subs {
		s.endpoint.deliverCOV(d.ID, s.processID, oid, bacnet.PropertyMap{prop: value})
	}
	return true
}

func (d *SimDevice) isOffline() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.offline
}

func (d *SimDevice) hasObject(oid *bacnet.ObjectIdentifier, name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if oid != nil {
		_, ok := d.objects[*oid]
		return ok
	}
	for _, rec := range d.objects {
		if n, ok := rec.Properties[bacnet.PropObjectName].(string); ok && n == name {
			return true
		}
	}
	return false
}

// handle executes one confirmed request against the simulated device and
// produces its terminal completion. Returns false for forced silence.
func (d *SimDevice) handle(req Request, from *SimTransport) (Completion, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.failure {
	case FailSilent:
		return Completion{}, false
	case FailAbort:
		return Completion{Kind: CompletionAbort, AbortReason: d.abortReason}, true
	case FailReject:
		return Completion{Kind: CompletionReject, RejectReason: d.rejectReason}, true
	case FailError:
		return Completion{Kind: CompletionError, ErrorClass: d.errorClass, ErrorCode: d.errorCode}, true
	}

	switch p := req.Payload.(type) {
	case *ReadPropertyMultiple:
		return d.handleRead(p), true
	case *WriteProperty:
		return d.handleWrite(p), true
	case *CreateObject:
		return d.handleCreate(p), true
	case *DeleteObject:
		return d.handleDelete(p), true
	case *SubscribeCOV:
		return d.handleSubscribe(p, from), true
	default:
		return Completion{Kind: CompletionReject, RejectReason: bacnet.RejectUnrecognizedService}, true
	}
}

func (d *SimDevice) handleRead(p *ReadPropertyMultiple) Completion {
	rec, ok := d.objects[p.Object]
	if !ok {
		return errorCompletion(bacnet.ErrorClassObject, bacnet.ErrorCodeUnknownObject)
	}

	values := make(bacnet.PropertyMap)
	for _, prop := range p.Properties {
		if prop == bacnet.PropAll {
			for k, v := range rec.Properties {
				values[k] = v
			}
			values[bacnet.PropObjectIdentifier] = rec.ID
			values[bacnet.PropObjectType] = rec.ID.Type
			continue
		}
		v, found := d.lookupProperty(rec, prop)
		if !found {
			return errorCompletion(bacnet.ErrorClassProperty, bacnet.ErrorCodeUnknownProperty)
		}
		values[prop] = v
	}
	return Completion{Kind: CompletionAck, Value: values}
}

// lookupProperty resolves a property, synthesizing the structural ones.
// object-list on the device object is built live from the object table.
func (d *SimDevice) lookupProperty(rec bacnet.ObjectRecord, prop bacnet.PropertyIdentifier) (any, bool) {
	switch prop {
	case bacnet.PropObjectIdentifier:
		return rec.ID, true
	case bacnet.PropObjectType:
		return rec.ID.Type, true
	case bacnet.PropObjectList:
		if rec.ID.Type != bacnet.ObjectDevice {
			return nil, false
		}
		list := make([]bacnet.ObjectIdentifier, 0, len(d.objects))
		for oid := range d.objects {
			list = append(list, oid)
		}
		return list, true
	}
	v, ok := rec.Properties[prop]
	return v, ok
}

func (d *SimDevice) handleWrite(p *WriteProperty) Completion {
	if p.Property.Structural() {
		return errorCompletion(bacnet.ErrorClassProperty, bacnet.ErrorCodeWriteAccessDenied)
	}
	rec, ok := d.objects[p.Object]
	if !ok {
		return errorCompletion(bacnet.ErrorClassObject, bacnet.ErrorCodeUnknownObject)
	}
	if rec.Properties == nil {
		rec.Properties = make(bacnet.PropertyMap)
	}
	rec.Properties[p.Property] = p.Value
	d.objects[p.Object] = rec

	subs := make([]simSub, 0, len(d.subs))
	for _, s := range d.subs {
		if s.object == p.Object {
			subs = append(subs, s)
		}
	}
	values := bacnet.PropertyMap{p.Property: p.Value}
	go func() {
		for _, s := range subs {
			s.endpoint.deliverCOV(d.ID, s.processID, p.Object, values)
		}
	}()

	return Completion{Kind: CompletionAck}
}

func (d *SimDevice) handleCreate(p *CreateObject) Completion {
	if _, exists := d.objects[p.Record.ID]; exists {
		return errorCompletion(bacnet.ErrorClassObject, bacnet.ErrorCodeObjectIDAlreadyExists)
	}
	d.objects[p.Record.ID] = p.Record.Clone()
	return Completion{Kind: CompletionAck, Value: p.Record.ID}
}

func (d *SimDevice) handleDelete(p *DeleteObject) Completion {
	if p.Object.Type == bacnet.ObjectDevice {
		return errorCompletion(bacnet.ErrorClassObject, bacnet.ErrorCodeObjectDeletionNotPerm)
	}
	if _, ok := d.objects[p.Object]; !ok {
		return errorCompletion(bacnet.ErrorClassObject, bacnet.ErrorCodeUnknownObject)
	}
	delete(d.objects, p.Object)
	return Completion{Kind: CompletionAck}
}

func (d *SimDevice) handleSubscribe(p *SubscribeCOV, from *SimTransport) Completion {
	if p.Cancel {
		kept := d.subs[:0]
		for _, s := range d.subs {
			if s.processID == p.ProcessID && s.object == p.Object && s.endpoint == from {
				continue
			}
			kept = append(kept, s)
		}
		d.subs = kept
		return Completion{Kind: CompletionAck}
	}
	if _, ok := d.objects[p.Object]; !ok {
		return errorCompletion(bacnet.ErrorClassObject, bacnet.ErrorCodeUnknownObject)
	}
	d.subs = append(d.subs, simSub{processID: p.ProcessID, object: p.Object, endpoint: from})
	return Completion{Kind: CompletionAck}
}

func errorCompletion(class bacnet.ErrorClass, code bacnet.ErrorCode) Completion {
	return Completion{Kind: CompletionError, ErrorClass: class, ErrorCode: code}
}

// SimTransport is one local endpoint on a SimNetwork.
type SimTransport struct {
	network   *SimNetwork
	sessionID string

	mu         sync.RWMutex
	bound      bool
	port       uint16
	timeout    time.Duration
	retries    int
	segTimeout time.Duration
	segWindow  int
	remotes    map[uint32]*RemoteDevice
	covHandler COVFunc
	whoIsSent  int
}

var _ Transport = (*SimTransport)(nil)

// SessionID returns the endpoint's correlation identifier, used to tag
// protocol log events.
func (t *SimTransport) SessionID() string {
	return t.sessionID
}

// Initialize binds the endpoint to its configured port.
func (t *SimTransport) Initialize() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bound {
		return fmt.Errorf("%w: %d", ErrPortInUse, t.port)
	}
	if err := t.network.bind(t.port, t); err != nil {
		return err
	}
	t.bound = true
	t.remotes = make(map[uint32]*RemoteDevice)
	return nil
}

// Terminate releases the port. Terminating an unbound endpoint returns
// ErrNotBound.
func (t *SimTransport) Terminate() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.bound {
		return ErrNotBound
	}
	t.network.unbind(t.port, t)
	t.bound = false
	return nil
}

// Send issues a confirmed request to a remote device.
func (t *SimTransport) Send(dev *RemoteDevice, req Request, done CompletionFunc) error {
	t.mu.RLock()
	bound := t.bound
	latency := t.network.latency
	t.mu.RUnlock()
	if !bound {
		return ErrNotBound
	}
	if dev == nil {
		return ErrUnknownDevice
	}

	target, ok := t.network.Device(dev.DeviceID)
	if !ok || target.isOffline() {
		// Nobody home: no completion is ever delivered, the same as a
		// lost datagram. The caller's deadline governs.
		return nil
	}

	go func() {
		time.Sleep(latency)
		completion, answered := target.handle(req, t)
		if !answered {
			return
		}
		time.Sleep(latency)
		done(completion)
	}()
	return nil
}

// SendBroadcast sends an unconfirmed broadcast on the local subnet.
func (t *SimTransport) SendBroadcast(_ uint16, b Broadcast) error {
	return t.broadcast(b)
}

// SendGlobalBroadcast sends an unconfirmed broadcast to all networks.
// The simulated network has a single subnet, so both forms are equivalent.
func (t *SimTransport) SendGlobalBroadcast(b Broadcast) error {
	return t.broadcast(b)
}

func (t *SimTransport) broadcast(b Broadcast) error {
	t.mu.RLock()
	bound := t.bound
	latency := t.network.latency
	t.mu.RUnlock()
	if !bound {
		return ErrNotBound
	}

	switch p := b.Payload.(type) {
	case *WhoIs:
		t.mu.Lock()
		t.whoIsSent++
		t.mu.Unlock()
		low, high := p.Low, p.High
		go func() {
			time.Sleep(2 * latency)
			for _, d := range t.network.snapshotDevices() {
				if d.isOffline() || d.ID < low || d.ID > high {
					continue
				}
				t.recordIAm(d)
			}
		}()
	case *WhoHas:
		low, high := p.Low, p.High
		if high == 0 {
			high = bacnet.MaxInstance
		}
		go func() {
			time.Sleep(2 * latency)
			for _, d := range t.network.snapshotDevices() {
				if d.isOffline() || d.ID < low || d.ID > high {
					continue
				}
				if d.hasObject(p.Object, p.Name) {
					t.recordIAm(d)
				}
			}
		}()
	default:
		return ErrUnknownService
	}
	return nil
}

// recordIAm adds a device's announcement to the discovery table.
func (t *SimTransport) recordIAm(d *SimDevice) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.bound {
		return
	}
	if _, known := t.remotes[d.ID]; known {
		return
	}
	t.remotes[d.ID] = &RemoteDevice{
		DeviceID:     d.ID,
		Address:      fmt.Sprintf("sim://%d", d.ID),
		MaxAPDU:      1476,
		Segmentation: 3, // no-segmentation
		VendorID:     d.VendorID,
	}
}

// WhoIsBroadcasts reports how many Who-Is broadcasts this endpoint has
// sent so far.
func (t *SimTransport) WhoIsBroadcasts() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.whoIsSent
}

// RemoteDevices returns a snapshot of the discovery table.
func (t *SimTransport) RemoteDevices() []*RemoteDevice {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*RemoteDevice, 0, len(t.remotes))
	for _, d := range t.remotes {
		out = append(out, d)
	}
	return out
}

// RemoteDevice looks up a discovered device by instance number.
func (t *SimTransport) RemoteDevice(deviceID uint32) (*RemoteDevice, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.remotes[deviceID]
	return d, ok
}

// ExtendedDeviceInformation fills in a remote device's extended fields
// from its device object.
func (t *SimTransport) ExtendedDeviceInformation(dev *RemoteDevice) error {
	target, ok := t.network.Device(dev.DeviceID)
	if !ok || target.isOffline() {
		return fmt.Errorf("%w: %d", ErrUnknownDevice, dev.DeviceID)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	dev.Name = target.Name
	dev.VendorName = target.VendorName
	dev.ServicesSupported = append([]string(nil), target.Services...)
	dev.ExtendedInfoLoaded = true
	return nil
}

// SetCOVHandler registers the sink for incoming COV notifications.
func (t *SimTransport) SetCOVHandler(fn COVFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.covHandler = fn
}

func (t *SimTransport) deliverCOV(deviceID, processID uint32, oid bacnet.ObjectIdentifier, values bacnet.PropertyMap) {
	t.mu.RLock()
	fn := t.covHandler
	bound := t.bound
	t.mu.RUnlock()
	if fn == nil || !bound {
		return
	}
	fn(deviceID, processID, oid, values)
}

// SetPort sets the local port. Takes effect on the next Initialize.
func (t *SimTransport) SetPort(port uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.port = port
}

// SetTimeout sets the APDU timeout.
func (t *SimTransport) SetTimeout(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = d
}

// SetRetries sets the APDU retry count.
func (t *SimTransport) SetRetries(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.retries = n
}

// SetSegTimeout sets the segment timeout.
func (t *SimTransport) SetSegTimeout(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.segTimeout = d
}

// SetSegWindow sets the segmentation window size.
func (t *SimTransport) SetSegWindow(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.segWindow = n
}

// Timeout reports the total request deadline: one APDU timeout per attempt.
func (t *SimTransport) Timeout() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.timeout * time.Duration(t.retries+1)
}
