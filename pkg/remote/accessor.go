package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bacnode-protocol/bacnode-go/pkg/bacnet"
	"github.com/bacnode-protocol/bacnode-go/pkg/interaction"
	"github.com/bacnode-protocol/bacnode-go/pkg/subscription"
	"github.com/bacnode-protocol/bacnode-go/pkg/transport"
)

// Accessor errors.
var (
	ErrDeviceNotFound = errors.New("device not in discovery table")
	ErrBadObjectList  = errors.New("unexpected object-list payload")
	ErrBadReadResult  = errors.New("unexpected read result payload")
)

// Endpoint is the view of the local device the accessor needs.
// *node.Node implements it.
type Endpoint interface {
	Initialized() bool
	Transport() transport.Transport
	Subscriptions() *subscription.Manager
}

// Accessor performs whole operations against remote devices over the
// synchronous bridge. Safe for concurrent use; operations against
// different devices (or the same one) may overlap freely, and no ordering
// is guaranteed across them.
type Accessor struct {
	endpoint Endpoint
	client   *interaction.Client
}

// NewAccessor creates an accessor for the given endpoint.
func NewAccessor(endpoint Endpoint, client *interaction.Client) *Accessor {
	return &Accessor{endpoint: endpoint, client: client}
}

// device resolves a device ID through the discovery table.
func (a *Accessor) device(deviceID uint32) (*transport.RemoteDevice, error) {
	dev, ok := a.endpoint.Transport().RemoteDevice(deviceID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrDeviceNotFound, deviceID)
	}
	return dev, nil
}

// ReadProperties reads a set of properties from one object in a single
// read-property-multiple round trip. The result maps each requested
// property to its decoded value.
func (a *Accessor) ReadProperties(ctx context.Context, deviceID uint32, oid bacnet.ObjectIdentifier, props ...bacnet.PropertyIdentifier) (bacnet.PropertyMap, error) {
	dev, err := a.device(deviceID)
	if err != nil {
		return nil, err
	}

	outcome, err := a.client.SendAndWait(ctx, dev, transport.Request{
		Service: transport.ServiceReadPropertyMultiple,
		Payload: &transport.ReadPropertyMultiple{Object: oid, Properties: props},
	})
	if err != nil {
		return nil, err
	}
	if !outcome.Ok() {
		return nil, outcome.Err()
	}

	values, ok := outcome.Value.(bacnet.PropertyMap)
	if !ok {
		return nil, ErrBadReadResult
	}
	return values, nil
}

// ReadAllProperties reads every property of one object.
func (a *Accessor) ReadAllProperties(ctx context.Context, deviceID uint32, oid bacnet.ObjectIdentifier) (bacnet.PropertyMap, error) {
	return a.ReadProperties(ctx, deviceID, oid, bacnet.PropAll)
}

// ListObjects reads the remote device object's object-list property and
// returns the identifiers of every object the device hosts.
func (a *Accessor) ListObjects(ctx context.Context, deviceID uint32) ([]bacnet.ObjectIdentifier, error) {
	values, err := a.ReadProperties(ctx, deviceID, bacnet.DeviceObjectID(deviceID), bacnet.PropObjectList)
	if err != nil {
		return nil, err
	}
	list, ok := values[bacnet.PropObjectList].([]bacnet.ObjectIdentifier)
	if !ok {
		return nil, ErrBadObjectList
	}
	return list, nil
}

// ReadAllObjects walks the remote device's object list and reads the full
// property set of each object, one round trip per object. There is no
// batching across objects; a failure on any object aborts the walk.
func (a *Accessor) ReadAllObjects(ctx context.Context, deviceID uint32) ([]bacnet.ObjectRecord, error) {
	oids, err := a.ListObjects(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	records := make([]bacnet.ObjectRecord, 0, len(oids))
	for _, oid := range oids {
		values, err := a.ReadAllProperties(ctx, deviceID, oid)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", oid, err)
		}
		records = append(records, bacnet.ObjectRecord{ID: oid, Properties: values})
	}
	return records, nil
}

// WriteProperties writes every property in the record to the object it
// identifies, one write-property round trip per property. Structural
// properties (object-identifier, object-type, object-list) are skipped.
// The first non-success outcome aborts the sequence.
func (a *Accessor) WriteProperties(ctx context.Context, deviceID uint32, rec bacnet.ObjectRecord) error {
	dev, err := a.device(deviceID)
	if err != nil {
		return err
	}

	for prop, value := range rec.Properties {
		if prop.Structural() {
			continue
		}
		outcome, err := a.client.SendAndWait(ctx, dev, transport.Request{
			Service: transport.ServiceWriteProperty,
			Payload: &transport.WriteProperty{Object: rec.ID, Property: prop, Value: value},
		})
		if err != nil {
			return err
		}
		if !outcome.Ok() {
			return fmt.Errorf("write %s %s: %w", rec.ID, prop, outcome.Err())
		}
	}
	return nil
}

// CreateObject creates an object on the remote device in a single round
// trip.
func (a *Accessor) CreateObject(ctx context.Context, deviceID uint32, rec bacnet.ObjectRecord) error {
	dev, err := a.device(deviceID)
	if err != nil {
		return err
	}
	outcome, err := a.client.SendAndWait(ctx, dev, transport.Request{
		Service: transport.ServiceCreateObject,
		Payload: &transport.CreateObject{Record: rec},
	})
	if err != nil {
		return err
	}
	return outcome.Err()
}

// DeleteObject deletes an object on the remote device in a single round
// trip.
func (a *Accessor) DeleteObject(ctx context.Context, deviceID uint32, oid bacnet.ObjectIdentifier) error {
	dev, err := a.device(deviceID)
	if err != nil {
		return err
	}
	outcome, err := a.client.SendAndWait(ctx, dev, transport.Request{
		Service: transport.ServiceDeleteObject,
		Payload: &transport.DeleteObject{Object: oid},
	})
	if err != nil {
		return err
	}
	return outcome.Err()
}

// SubscribeOptions configures a COV subscription.
type SubscribeOptions struct {
	// Confirmed selects confirmed COV notifications.
	Confirmed bool

	// Lifetime is the requested duration; zero means indefinite.
	Lifetime time.Duration
}

// SubscribeCOV establishes a change-of-value subscription on the remote
// device and registers the handler locally. Returns the subscriber process
// ID used to cancel via UnsubscribeCOV.
func (a *Accessor) SubscribeCOV(ctx context.Context, deviceID uint32, oid bacnet.ObjectIdentifier, opts SubscribeOptions, handler subscription.Handler) (uint32, error) {
	dev, err := a.device(deviceID)
	if err != nil {
		return 0, err
	}

	subs := a.endpoint.Subscriptions()
	processID := subs.NextProcessID()

	outcome, err := a.client.SendAndWait(ctx, dev, transport.Request{
		Service: transport.ServiceSubscribeCOV,
		Payload: &transport.SubscribeCOV{
			ProcessID: processID,
			Object:    oid,
			Confirmed: opts.Confirmed,
			Lifetime:  opts.Lifetime,
		},
	})
	if err != nil {
		return 0, err
	}
	if !outcome.Ok() {
		return 0, outcome.Err()
	}

	err = subs.Add(&subscription.Subscription{
		ProcessID: processID,
		DeviceID:  deviceID,
		Object:    oid,
		Confirmed: opts.Confirmed,
		Lifetime:  opts.Lifetime,
	}, handler)
	if err != nil {
		return 0, err
	}
	return processID, nil
}

// UnsubscribeCOV cancels a subscription on the remote device and drops the
// local record. The local record is removed even when the remote
// cancellation fails; a device that lost state would otherwise pin it
// forever.
func (a *Accessor) UnsubscribeCOV(ctx context.Context, processID uint32) error {
	subs := a.endpoint.Subscriptions()
	sub, ok := subs.Get(processID)
	if !ok {
		return subscription.ErrNotSubscribed
	}
	_ = subs.Remove(processID)

	dev, err := a.device(sub.DeviceID)
	if err != nil {
		return err
	}
	outcome, err := a.client.SendAndWait(ctx, dev, transport.Request{
		Service: transport.ServiceSubscribeCOV,
		Payload: &transport.SubscribeCOV{
			ProcessID: processID,
			Object:    sub.Object,
			Cancel:    true,
		},
	})
	if err != nil {
		return err
	}
	return outcome.Err()
}
