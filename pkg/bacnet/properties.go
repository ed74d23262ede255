package bacnet

import "fmt"

// PropertyIdentifier identifies a single property of an object.
type PropertyIdentifier uint32

// Well-known property identifiers (ASHRAE 135 clause 21 numbering).
const (
	PropAPDUSegmentTimeout        PropertyIdentifier = 10
	PropAPDUTimeout               PropertyIdentifier = 11
	PropApplicationSoftwareVer    PropertyIdentifier = 12
	PropDescription               PropertyIdentifier = 28
	PropDeviceAddressBinding      PropertyIdentifier = 30
	PropFirmwareRevision          PropertyIdentifier = 44
	PropMaxAPDULengthAccepted     PropertyIdentifier = 62
	PropModelName                 PropertyIdentifier = 70
	PropNumberOfAPDURetries       PropertyIdentifier = 73
	PropObjectIdentifier          PropertyIdentifier = 75
	PropObjectList                PropertyIdentifier = 76
	PropObjectName                PropertyIdentifier = 77
	PropObjectType                PropertyIdentifier = 79
	PropOutOfService              PropertyIdentifier = 81
	PropPresentValue              PropertyIdentifier = 85
	PropPriorityArray             PropertyIdentifier = 87
	PropProtocolObjectTypesSupp   PropertyIdentifier = 96
	PropProtocolServicesSupported PropertyIdentifier = 97
	PropProtocolVersion           PropertyIdentifier = 98
	PropSegmentationSupported     PropertyIdentifier = 107
	PropStatusFlags               PropertyIdentifier = 111
	PropSystemStatus              PropertyIdentifier = 112
	PropUnits                     PropertyIdentifier = 117
	PropVendorIdentifier          PropertyIdentifier = 120
	PropVendorName                PropertyIdentifier = 121

	// PropAll is the special identifier requesting every property of an
	// object in a read-property-multiple access specification.
	PropAll PropertyIdentifier = 8
)

// String returns the lowercase dashed name for the common identifiers.
func (p PropertyIdentifier) String() string {
	switch p {
	case PropAPDUSegmentTimeout:
		return "apdu-segment-timeout"
	case PropAPDUTimeout:
		return "apdu-timeout"
	case PropApplicationSoftwareVer:
		return "application-software-version"
	case PropDescription:
		return "description"
	case PropDeviceAddressBinding:
		return "device-address-binding"
	case PropFirmwareRevision:
		return "firmware-revision"
	case PropMaxAPDULengthAccepted:
		return "max-apdu-length-accepted"
	case PropModelName:
		return "model-name"
	case PropNumberOfAPDURetries:
		return "number-of-apdu-retries"
	case PropObjectIdentifier:
		return "object-identifier"
	case PropObjectList:
		return "object-list"
	case PropObjectName:
		return "object-name"
	case PropObjectType:
		return "object-type"
	case PropOutOfService:
		return "out-of-service"
	case PropPresentValue:
		return "present-value"
	case PropPriorityArray:
		return "priority-array"
	case PropProtocolObjectTypesSupp:
		return "protocol-object-types-supported"
	case PropProtocolServicesSupported:
		return "protocol-services-supported"
	case PropProtocolVersion:
		return "protocol-version"
	case PropSegmentationSupported:
		return "segmentation-supported"
	case PropStatusFlags:
		return "status-flags"
	case PropSystemStatus:
		return "system-status"
	case PropUnits:
		return "units"
	case PropVendorIdentifier:
		return "vendor-identifier"
	case PropVendorName:
		return "vendor-name"
	case PropAll:
		return "all"
	default:
		return fmt.Sprintf("property-%d", uint32(p))
	}
}

// Structural reports whether the property is part of the object's identity
// and therefore never written through property updates: object-identifier,
// object-type and object-list.
func (p PropertyIdentifier) Structural() bool {
	switch p {
	case PropObjectIdentifier, PropObjectType, PropObjectList:
		return true
	default:
		return false
	}
}
