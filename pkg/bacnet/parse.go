package bacnet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrParse is returned when a textual identifier cannot be parsed.
var ErrParse = errors.New("cannot parse identifier")

// ParseObjectType parses an object type from its dashed name ("analog-value")
// or its numeric value.
func ParseObjectType(s string) (ObjectType, error) {
	for t := ObjectType(0); t <= ObjectTrendLog; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: object type %q", ErrParse, s)
	}
	return ObjectType(n), nil
}

// ParseObjectIdentifier parses "type:instance", e.g. "analog-value:1".
func ParseObjectIdentifier(s string) (ObjectIdentifier, error) {
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return ObjectIdentifier{}, fmt.Errorf("%w: object %q (want type:instance)", ErrParse, s)
	}
	t, err := ParseObjectType(s[:idx])
	if err != nil {
		return ObjectIdentifier{}, err
	}
	instance, err := strconv.ParseUint(s[idx+1:], 10, 32)
	if err != nil {
		return ObjectIdentifier{}, fmt.Errorf("%w: instance %q", ErrParse, s[idx+1:])
	}
	return NewObjectIdentifier(t, uint32(instance))
}

// ParsePropertyIdentifier parses a property from its dashed name
// ("present-value") or its numeric value.
func ParsePropertyIdentifier(s string) (PropertyIdentifier, error) {
	known := []PropertyIdentifier{
		PropAPDUSegmentTimeout, PropAPDUTimeout, PropApplicationSoftwareVer,
		PropDescription, PropDeviceAddressBinding, PropFirmwareRevision,
		PropMaxAPDULengthAccepted, PropModelName, PropNumberOfAPDURetries,
		PropObjectIdentifier, PropObjectList, PropObjectName, PropObjectType,
		PropOutOfService, PropPresentValue, PropPriorityArray,
		PropProtocolObjectTypesSupp, PropProtocolServicesSupported,
		PropProtocolVersion, PropSegmentationSupported, PropStatusFlags,
		PropSystemStatus, PropUnits, PropVendorIdentifier, PropVendorName,
		PropAll,
	}
	for _, p := range known {
		if p.String() == s {
			return p, nil
		}
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: property %q", ErrParse, s)
	}
	return PropertyIdentifier(n), nil
}
