package bacnet

import "fmt"

// AbortReason is carried by an APDU abort, sent when a peer gives up on an
// in-progress transaction.
type AbortReason uint8

// Standard abort reasons.
const (
	AbortOther                    AbortReason = 0
	AbortBufferOverflow           AbortReason = 1
	AbortInvalidAPDUInThisState   AbortReason = 2
	AbortPreemptedByHigherPrio    AbortReason = 3
	AbortSegmentationNotSupported AbortReason = 4
	AbortSecurityError            AbortReason = 5
	AbortInsufficientSecurity     AbortReason = 6
	AbortWindowSizeOutOfRange     AbortReason = 7
	AbortApplicationExceededReply AbortReason = 8
	AbortOutOfResources           AbortReason = 9
	AbortTSMTimeout               AbortReason = 10
	AbortAPDUTooLong              AbortReason = 11
)

// String returns the reason name.
func (r AbortReason) String() string {
	switch r {
	case AbortOther:
		return "other"
	case AbortBufferOverflow:
		return "buffer-overflow"
	case AbortInvalidAPDUInThisState:
		return "invalid-apdu-in-this-state"
	case AbortPreemptedByHigherPrio:
		return "preempted-by-higher-priority-task"
	case AbortSegmentationNotSupported:
		return "segmentation-not-supported"
	case AbortSecurityError:
		return "security-error"
	case AbortInsufficientSecurity:
		return "insufficient-security"
	case AbortWindowSizeOutOfRange:
		return "window-size-out-of-range"
	case AbortApplicationExceededReply:
		return "application-exceeded-reply-time"
	case AbortOutOfResources:
		return "out-of-resources"
	case AbortTSMTimeout:
		return "tsm-timeout"
	case AbortAPDUTooLong:
		return "apdu-too-long"
	default:
		return fmt.Sprintf("abort-reason-%d", uint8(r))
	}
}

// RejectReason is carried by an APDU reject, sent when a request is
// malformed or unprocessable before service execution.
type RejectReason uint8

// Standard reject reasons.
const (
	RejectOther                    RejectReason = 0
	RejectBufferOverflow           RejectReason = 1
	RejectInconsistentParameters   RejectReason = 2
	RejectInvalidParameterDataType RejectReason = 3
	RejectInvalidTag               RejectReason = 4
	RejectMissingRequiredParameter RejectReason = 5
	RejectParameterOutOfRange      RejectReason = 6
	RejectTooManyArguments         RejectReason = 7
	RejectUndefinedEnumeration     RejectReason = 8
	RejectUnrecognizedService      RejectReason = 9
)

// String returns the reason name.
func (r RejectReason) String() string {
	switch r {
	case RejectOther:
		return "other"
	case RejectBufferOverflow:
		return "buffer-overflow"
	case RejectInconsistentParameters:
		return "inconsistent-parameters"
	case RejectInvalidParameterDataType:
		return "invalid-parameter-data-type"
	case RejectInvalidTag:
		return "invalid-tag"
	case RejectMissingRequiredParameter:
		return "missing-required-parameter"
	case RejectParameterOutOfRange:
		return "parameter-out-of-range"
	case RejectTooManyArguments:
		return "too-many-arguments"
	case RejectUndefinedEnumeration:
		return "undefined-enumeration"
	case RejectUnrecognizedService:
		return "unrecognized-service"
	default:
		return fmt.Sprintf("reject-reason-%d", uint8(r))
	}
}

// ErrorClass is the coarse category of an application-level error response.
type ErrorClass uint8

// Standard error classes.
const (
	ErrorClassDevice        ErrorClass = 0
	ErrorClassObject        ErrorClass = 1
	ErrorClassProperty      ErrorClass = 2
	ErrorClassResources     ErrorClass = 3
	ErrorClassSecurity      ErrorClass = 4
	ErrorClassServices      ErrorClass = 5
	ErrorClassVT            ErrorClass = 6
	ErrorClassCommunication ErrorClass = 7
)

// String returns the class name.
func (c ErrorClass) String() string {
	switch c {
	case ErrorClassDevice:
		return "device"
	case ErrorClassObject:
		return "object"
	case ErrorClassProperty:
		return "property"
	case ErrorClassResources:
		return "resources"
	case ErrorClassSecurity:
		return "security"
	case ErrorClassServices:
		return "services"
	case ErrorClassVT:
		return "vt"
	case ErrorClassCommunication:
		return "communication"
	default:
		return fmt.Sprintf("error-class-%d", uint8(c))
	}
}

// ErrorCode is the fine-grained code within an error class. Only the codes
// the node itself produces or branches on get names.
type ErrorCode uint16

// Common error codes.
const (
	ErrorCodeOther                 ErrorCode = 0
	ErrorCodeDeviceBusy            ErrorCode = 3
	ErrorCodeInvalidDataType       ErrorCode = 9
	ErrorCodeNoObjectsOfSpecType   ErrorCode = 17
	ErrorCodeObjectDeletionNotPerm ErrorCode = 23
	ErrorCodeObjectIDAlreadyExists ErrorCode = 24
	ErrorCodeOperationalProblem    ErrorCode = 25
	ErrorCodeReadAccessDenied      ErrorCode = 27
	ErrorCodeTimeout               ErrorCode = 30
	ErrorCodeUnknownObject         ErrorCode = 31
	ErrorCodeUnknownProperty       ErrorCode = 32
	ErrorCodeValueOutOfRange       ErrorCode = 37
	ErrorCodeWriteAccessDenied     ErrorCode = 40
)

// String returns the code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeOther:
		return "other"
	case ErrorCodeDeviceBusy:
		return "device-busy"
	case ErrorCodeInvalidDataType:
		return "invalid-data-type"
	case ErrorCodeNoObjectsOfSpecType:
		return "no-objects-of-specified-type"
	case ErrorCodeObjectDeletionNotPerm:
		return "object-deletion-not-permitted"
	case ErrorCodeObjectIDAlreadyExists:
		return "object-identifier-already-exists"
	case ErrorCodeOperationalProblem:
		return "operational-problem"
	case ErrorCodeReadAccessDenied:
		return "read-access-denied"
	case ErrorCodeTimeout:
		return "timeout"
	case ErrorCodeUnknownObject:
		return "unknown-object"
	case ErrorCodeUnknownProperty:
		return "unknown-property"
	case ErrorCodeValueOutOfRange:
		return "value-out-of-range"
	case ErrorCodeWriteAccessDenied:
		return "write-access-denied"
	default:
		return fmt.Sprintf("error-code-%d", uint16(c))
	}
}
