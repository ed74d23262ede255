package interaction

import (
	"fmt"

	"github.com/bacnode-protocol/bacnode-go/pkg/bacnet"
)

// OutcomeKind is the classification of one confirmed-request round trip.
type OutcomeKind uint8

const (
	// OutcomeSuccess is an acknowledgment, possibly carrying a value.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeAbort means the peer aborted the transaction.
	OutcomeAbort

	// OutcomeReject means the peer rejected the request before executing it.
	OutcomeReject

	// OutcomeError is an application-level error response (class + code).
	OutcomeError

	// OutcomeTimeout means no terminal response arrived in time, including
	// transport-level send failures and unreachable peers.
	OutcomeTimeout
)

// String returns the kind name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "SUCCESS"
	case OutcomeAbort:
		return "ABORT"
	case OutcomeReject:
		return "REJECT"
	case OutcomeError:
		return "ERROR"
	case OutcomeTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Outcome is the single terminal result of one confirmed request. Exactly
// one is produced per SendAndWait call. Value is set for OutcomeSuccess
// (true when the service carries no return value); the reason fields are
// set according to Kind.
type Outcome struct {
	Kind         OutcomeKind
	Value        any
	AbortReason  bacnet.AbortReason
	RejectReason bacnet.RejectReason
	ErrorClass   bacnet.ErrorClass
	ErrorCode    bacnet.ErrorCode
}

// Ok reports whether the outcome is a success.
func (o Outcome) Ok() bool {
	return o.Kind == OutcomeSuccess
}

// String renders the outcome for logs and the CLI.
func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeSuccess:
		return "SUCCESS"
	case OutcomeAbort:
		return fmt.Sprintf("ABORT(%s)", o.AbortReason)
	case OutcomeReject:
		return fmt.Sprintf("REJECT(%s)", o.RejectReason)
	case OutcomeError:
		return fmt.Sprintf("ERROR(%s/%s)", o.ErrorClass, o.ErrorCode)
	case OutcomeTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}

// Err returns nil for a success, or a *RequestError wrapping the outcome.
// Higher layers that compose several round trips use it to stop early while
// keeping the outcome kind recoverable via errors.As.
func (o Outcome) Err() error {
	if o.Ok() {
		return nil
	}
	return &RequestError{Outcome: o}
}

// RequestError adapts a non-success Outcome to the error interface.
type RequestError struct {
	Outcome Outcome
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed: %s", e.Outcome)
}
