package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/bacnode-protocol/bacnode-go/pkg/bacnet"
)

// Transport errors.
var (
	ErrPortInUse      = errors.New("port already bound")
	ErrNotBound       = errors.New("transport not bound")
	ErrUnknownDevice  = errors.New("unknown remote device")
	ErrUnknownService = errors.New("unknown service choice")
)

// ServiceChoice identifies a confirmed service carried by a Request.
type ServiceChoice uint8

// Confirmed services the node issues.
const (
	ServiceSubscribeCOV         ServiceChoice = 5
	ServiceCreateObject         ServiceChoice = 10
	ServiceDeleteObject         ServiceChoice = 11
	ServiceReadProperty         ServiceChoice = 12
	ServiceReadPropertyMultiple ServiceChoice = 14
	ServiceWriteProperty        ServiceChoice = 15
)

// String returns the service name.
func (s ServiceChoice) String() string {
	switch s {
	case ServiceSubscribeCOV:
		return "subscribe-cov"
	case ServiceCreateObject:
		return "create-object"
	case ServiceDeleteObject:
		return "delete-object"
	case ServiceReadProperty:
		return "read-property"
	case ServiceReadPropertyMultiple:
		return "read-property-multiple"
	case ServiceWriteProperty:
		return "write-property"
	default:
		return fmt.Sprintf("confirmed-service-%d", uint8(s))
	}
}

// Request is one confirmed service request in decoded form. The transport
// encodes Payload to the wire; the node never sees bytes.
type Request struct {
	Service ServiceChoice
	Payload any
}

// ReadPropertyMultiple asks one object for a set of properties.
// Use bacnet.PropAll to request every property.
type ReadPropertyMultiple struct {
	Object     bacnet.ObjectIdentifier
	Properties []bacnet.PropertyIdentifier
}

// WriteProperty writes a single property value.
type WriteProperty struct {
	Object   bacnet.ObjectIdentifier
	Property bacnet.PropertyIdentifier
	Value    any
	Priority uint8 // 0 means no priority
}

// CreateObject creates an object with an initial property set.
type CreateObject struct {
	Record bacnet.ObjectRecord
}

// DeleteObject removes an object.
type DeleteObject struct {
	Object bacnet.ObjectIdentifier
}

// SubscribeCOV establishes or cancels a change-of-value subscription.
type SubscribeCOV struct {
	ProcessID uint32
	Object    bacnet.ObjectIdentifier
	Confirmed bool
	Lifetime  time.Duration // 0 means indefinite
	Cancel    bool
}

// WhoIs is the discovery broadcast payload. Low/High bound the instance
// numbers of devices expected to answer.
type WhoIs struct {
	Low  uint32
	High uint32
}

// WhoHas asks which device hosts a given object. Exactly one of Object or
// Name is set; the encodings are mutually exclusive on the wire.
type WhoHas struct {
	Low    uint32
	High   uint32
	Object *bacnet.ObjectIdentifier
	Name   string
}

// Broadcast is one unconfirmed broadcast in decoded form.
type Broadcast struct {
	Payload any // *WhoIs or *WhoHas
}

// CompletionKind is the raw terminal state the transport reports for a
// confirmed request.
type CompletionKind uint8

const (
	// CompletionAck is a simple or complex acknowledgment.
	CompletionAck CompletionKind = iota

	// CompletionAbort is an APDU abort.
	CompletionAbort

	// CompletionReject is an APDU reject.
	CompletionReject

	// CompletionError is an application-level error response.
	CompletionError
)

// String returns the kind name.
func (k CompletionKind) String() string {
	switch k {
	case CompletionAck:
		return "ACK"
	case CompletionAbort:
		return "ABORT"
	case CompletionReject:
		return "REJECT"
	case CompletionError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Completion is delivered exactly once per confirmed request. Value is the
// decoded acknowledgment payload (nil for services without a return value);
// the remaining fields are set according to Kind.
type Completion struct {
	Kind         CompletionKind
	Value        any
	AbortReason  bacnet.AbortReason
	RejectReason bacnet.RejectReason
	ErrorClass   bacnet.ErrorClass
	ErrorCode    bacnet.ErrorCode
}

// CompletionFunc receives the single terminal completion of a request.
type CompletionFunc func(Completion)

// COVFunc receives an incoming change-of-value notification.
type COVFunc func(deviceID uint32, processID uint32, object bacnet.ObjectIdentifier, values bacnet.PropertyMap)

// RemoteDevice is one entry in the transport's discovery table. The node
// never persists these across restarts; they are rediscovered each boot.
type RemoteDevice struct {
	DeviceID     uint32
	Address      string
	MaxAPDU      uint16
	Segmentation uint8
	VendorID     uint16

	// Extended information, populated by ExtendedDeviceInformation.
	Name               string
	VendorName         string
	ServicesSupported  []string
	ExtendedInfoLoaded bool
}

// Transport is the external BACnet stack the node core drives. Wire
// encoding, framing, segmentation and routing are its problem; the node
// only issues decoded requests and consumes decoded completions.
type Transport interface {
	// Initialize binds the local endpoint to its configured port.
	// Returns ErrPortInUse if another live endpoint holds the port.
	Initialize() error

	// Terminate releases the bound port. Terminating an unbound endpoint
	// returns ErrNotBound; callers that treat "already free" as fine
	// swallow it.
	Terminate() error

	// Send issues a confirmed request to a remote device. done is invoked
	// exactly once with the terminal completion, unless the peer stays
	// silent past the APDU timeout and retries, in which case done is
	// never invoked and the caller's own deadline governs.
	Send(dev *RemoteDevice, req Request, done CompletionFunc) error

	// SendBroadcast sends an unconfirmed broadcast to the local subnet
	// on the given destination port.
	SendBroadcast(port uint16, b Broadcast) error

	// SendGlobalBroadcast sends an unconfirmed broadcast to all networks.
	SendGlobalBroadcast(b Broadcast) error

	// RemoteDevices returns a snapshot of the discovery table.
	RemoteDevices() []*RemoteDevice

	// RemoteDevice looks up a discovered device by instance number.
	RemoteDevice(deviceID uint32) (*RemoteDevice, bool)

	// ExtendedDeviceInformation reads the device object of dev and fills
	// in its extended fields (name, vendor name, services supported).
	ExtendedDeviceInformation(dev *RemoteDevice) error

	// SetCOVHandler registers the sink for incoming COV notifications.
	SetCOVHandler(fn COVFunc)

	// Tunables, applied before Initialize and reapplied on reset.
	SetPort(port uint16)
	SetTimeout(d time.Duration)
	SetRetries(n int)
	SetSegTimeout(d time.Duration)
	SetSegWindow(n int)

	// Timeout reports the configured request timeout, including retries.
	// The synchronous bridge uses it as its upper wait bound.
	Timeout() time.Duration
}
