package log

import "time"

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the local device instance (UUID). A reset
	// produces a new session.
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Service is the service name for request/broadcast events
	// (e.g. "read-property-multiple", "who-is").
	Service string `cbor:"5,keyasint,omitempty"`

	// DeviceID is the remote device instance for unicast events.
	DeviceID uint32 `cbor:"6,keyasint,omitempty"`

	// Object is the target object identifier, when the event has one.
	Object string `cbor:"7,keyasint,omitempty"`

	// Outcome is the classified result for outcome events
	// (SUCCESS, ABORT(...), REJECT(...), ERROR(...), TIMEOUT).
	Outcome string `cbor:"8,keyasint,omitempty"`

	// State is the new lifecycle state for state-change events.
	State string `cbor:"9,keyasint,omitempty"`

	// Error is the error text for error events.
	Error string `cbor:"10,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryRequest is an outbound confirmed request.
	CategoryRequest Category = 0
	// CategoryOutcome is the terminal outcome of a confirmed request.
	CategoryOutcome Category = 1
	// CategoryBroadcast is an unconfirmed broadcast (WhoIs/WhoHas).
	CategoryBroadcast Category = 2
	// CategoryNotification is an incoming COV notification.
	CategoryNotification Category = 3
	// CategoryLifecycle is a local device state change.
	CategoryLifecycle Category = 4
	// CategoryError is a local error at any layer.
	CategoryError Category = 5
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryRequest:
		return "REQUEST"
	case CategoryOutcome:
		return "OUTCOME"
	case CategoryBroadcast:
		return "BROADCAST"
	case CategoryNotification:
		return "NOTIFICATION"
	case CategoryLifecycle:
		return "LIFECYCLE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
