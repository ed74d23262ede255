package bacnet

import (
	"errors"
	"fmt"
)

// Protocol-wide constants.
const (
	// DefaultPort is the standard BACnet/IP UDP port.
	DefaultPort = 47808

	// MaxInstance is the largest legal object instance number (22 bits).
	MaxInstance = 4194303
)

// Object model errors.
var (
	ErrInvalidInstance = errors.New("object instance out of range")
	ErrObjectNotFound  = errors.New("object not found")
)

// ObjectType identifies the kind of an object.
type ObjectType uint16

// Standard object types the node works with.
const (
	ObjectAnalogInput   ObjectType = 0
	ObjectAnalogOutput  ObjectType = 1
	ObjectAnalogValue   ObjectType = 2
	ObjectBinaryInput   ObjectType = 3
	ObjectBinaryOutput  ObjectType = 4
	ObjectBinaryValue   ObjectType = 5
	ObjectCalendar      ObjectType = 6
	ObjectCommand       ObjectType = 7
	ObjectDevice        ObjectType = 8
	ObjectEventEnroll   ObjectType = 9
	ObjectFile          ObjectType = 10
	ObjectGroup         ObjectType = 11
	ObjectLoop          ObjectType = 12
	ObjectMultiStateIn  ObjectType = 13
	ObjectMultiStateOut ObjectType = 14
	ObjectNotifyClass   ObjectType = 15
	ObjectProgram       ObjectType = 16
	ObjectSchedule      ObjectType = 17
	ObjectMultiStateVal ObjectType = 19
	ObjectTrendLog      ObjectType = 20
)

// String returns the lowercase dashed name used throughout logs and the CLI.
func (t ObjectType) String() string {
	switch t {
	case ObjectAnalogInput:
		return "analog-input"
	case ObjectAnalogOutput:
		return "analog-output"
	case ObjectAnalogValue:
		return "analog-value"
	case ObjectBinaryInput:
		return "binary-input"
	case ObjectBinaryOutput:
		return "binary-output"
	case ObjectBinaryValue:
		return "binary-value"
	case ObjectCalendar:
		return "calendar"
	case ObjectCommand:
		return "command"
	case ObjectDevice:
		return "device"
	case ObjectEventEnroll:
		return "event-enrollment"
	case ObjectFile:
		return "file"
	case ObjectGroup:
		return "group"
	case ObjectLoop:
		return "loop"
	case ObjectMultiStateIn:
		return "multi-state-input"
	case ObjectMultiStateOut:
		return "multi-state-output"
	case ObjectNotifyClass:
		return "notification-class"
	case ObjectProgram:
		return "program"
	case ObjectSchedule:
		return "schedule"
	case ObjectMultiStateVal:
		return "multi-state-value"
	case ObjectTrendLog:
		return "trend-log"
	default:
		return fmt.Sprintf("object-type-%d", uint16(t))
	}
}

// ObjectIdentifier uniquely identifies an object within a device.
type ObjectIdentifier struct {
	Type     ObjectType `json:"type" yaml:"type"`
	Instance uint32     `json:"instance" yaml:"instance"`
}

// NewObjectIdentifier constructs an identifier, validating the instance range.
func NewObjectIdentifier(t ObjectType, instance uint32) (ObjectIdentifier, error) {
	if instance > MaxInstance {
		return ObjectIdentifier{}, ErrInvalidInstance
	}
	return ObjectIdentifier{Type: t, Instance: instance}, nil
}

// Valid reports whether the instance number is within the legal range.
func (id ObjectIdentifier) Valid() bool {
	return id.Instance <= MaxInstance
}

// String returns "type:instance", e.g. "analog-value:1".
func (id ObjectIdentifier) String() string {
	return fmt.Sprintf("%s:%d", id.Type, id.Instance)
}

// DeviceObjectID returns the identifier of a device object for the given
// device instance number.
func DeviceObjectID(deviceID uint32) ObjectIdentifier {
	return ObjectIdentifier{Type: ObjectDevice, Instance: deviceID}
}
