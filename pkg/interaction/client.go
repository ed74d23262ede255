package interaction

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bacnode-protocol/bacnode-go/pkg/log"
	"github.com/bacnode-protocol/bacnode-go/pkg/transport"
)

// Client errors. Only pre-flight failures are errors; everything that
// happens after a request leaves the node is an Outcome.
var (
	ErrNotInitialized = errors.New("local device not initialized")
)

// timeoutGrace pads the transport's own deadline so the transport always
// gets the first chance to report its timeout. A second application-level
// timer racing the transport's was considered and dropped: two timers for
// the same deadline invite double-delivery races.
const timeoutGrace = 250 * time.Millisecond

// Session is the view of the local device the client needs: whether it is
// live, its transport handle and its log session tag. *node.Node
// implements it.
type Session interface {
	Initialized() bool
	Transport() transport.Transport
	SessionID() string
}

// Options carries the client's optional collaborators.
type Options struct {
	// ProtocolLogger receives structured protocol events. Nil disables it.
	ProtocolLogger log.Logger
}

// Client is the synchronous request bridge bound to one local device.
// It is safe for concurrent use; parallel calls each get an independent
// single-shot completion slot.
type Client struct {
	session Session
	plog    log.Logger

	mu           sync.Mutex
	lastResponse *transport.Completion
}

// NewClient creates a client for the given session. opts may be nil.
func NewClient(session Session, opts *Options) *Client {
	c := &Client{session: session, plog: log.NoopLogger{}}
	if opts != nil && opts.ProtocolLogger != nil {
		c.plog = opts.ProtocolLogger
	}
	return c
}

// LastResponse returns the most recent raw completion delivered to any
// call, for diagnostics and state inspection. Nil until the first response.
func (c *Client) LastResponse() *transport.Completion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResponse
}

func (c *Client) recordResponse(completion transport.Completion) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastResponse = &completion
}

// SendAndWait sends one confirmed request and blocks until its single
// terminal outcome. The only error it returns is ErrNotInitialized, raised
// synchronously before any network I/O; every post-send failure is an
// Outcome variant. The wait is bounded by the transport's configured
// timeout (APDU timeout times attempts) and by ctx.
func (c *Client) SendAndWait(ctx context.Context, dev *transport.RemoteDevice, req transport.Request) (Outcome, error) {
	if !c.session.Initialized() {
		return Outcome{}, ErrNotInitialized
	}
	tr := c.session.Transport()

	c.plog.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: c.session.SessionID(),
		Direction: log.DirectionOut,
		Category:  log.CategoryRequest,
		Service:   req.Service.String(),
		DeviceID:  dev.DeviceID,
		Object:    requestObject(req),
	})

	// Single-shot slot: the buffered channel plus once guarantee
	// at-most-once delivery even if the transport misbehaves.
	slot := make(chan transport.Completion, 1)
	var once sync.Once
	done := func(completion transport.Completion) {
		once.Do(func() { slot <- completion })
	}

	if err := tr.Send(dev, req, done); err != nil {
		// Transport-level exception: unreachable network, closed socket.
		// Classified as a timeout, same as a peer that never answers.
		c.plog.Log(log.Event{
			Timestamp: time.Now(),
			SessionID: c.session.SessionID(),
			Direction: log.DirectionOut,
			Category:  log.CategoryError,
			Service:   req.Service.String(),
			DeviceID:  dev.DeviceID,
			Error:     err.Error(),
		})
		return c.conclude(dev, req, Outcome{Kind: OutcomeTimeout}), nil
	}

	select {
	case <-ctx.Done():
		return c.conclude(dev, req, Outcome{Kind: OutcomeTimeout}), nil
	case <-time.After(tr.Timeout() + timeoutGrace):
		return c.conclude(dev, req, Outcome{Kind: OutcomeTimeout}), nil
	case completion := <-slot:
		c.recordResponse(completion)
		return c.conclude(dev, req, classify(completion)), nil
	}
}

// conclude logs the terminal outcome of one request and passes it through.
func (c *Client) conclude(dev *transport.RemoteDevice, req transport.Request, outcome Outcome) Outcome {
	c.plog.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: c.session.SessionID(),
		Direction: log.DirectionIn,
		Category:  log.CategoryOutcome,
		Service:   req.Service.String(),
		DeviceID:  dev.DeviceID,
		Object:    requestObject(req),
		Outcome:   outcome.String(),
	})
	return outcome
}

// requestObject extracts the target object identifier of a request for
// log events. Empty when the service has no single target object.
func requestObject(req transport.Request) string {
	switch p := req.Payload.(type) {
	case *transport.ReadPropertyMultiple:
		return p.Object.String()
	case *transport.WriteProperty:
		return p.Object.String()
	case *transport.CreateObject:
		return p.Record.ID.String()
	case *transport.DeleteObject:
		return p.Object.String()
	case *transport.SubscribeCOV:
		return p.Object.String()
	default:
		return ""
	}
}

// classify maps a raw transport completion to the outcome sum type.
func classify(completion transport.Completion) Outcome {
	switch completion.Kind {
	case transport.CompletionAck:
		value := completion.Value
		if value == nil {
			// Services without a return value acknowledge with true.
			value = true
		}
		return Outcome{Kind: OutcomeSuccess, Value: value}
	case transport.CompletionAbort:
		return Outcome{Kind: OutcomeAbort, AbortReason: completion.AbortReason}
	case transport.CompletionReject:
		return Outcome{Kind: OutcomeReject, RejectReason: completion.RejectReason}
	case transport.CompletionError:
		return Outcome{Kind: OutcomeError, ErrorClass: completion.ErrorClass, ErrorCode: completion.ErrorCode}
	default:
		return Outcome{Kind: OutcomeTimeout}
	}
}
