package bacnode_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bacnode-protocol/bacnode-go/pkg/bacnet"
	"github.com/bacnode-protocol/bacnode-go/pkg/discovery"
	"github.com/bacnode-protocol/bacnode-go/pkg/interaction"
	"github.com/bacnode-protocol/bacnode-go/pkg/node"
	"github.com/bacnode-protocol/bacnode-go/pkg/persistence"
	"github.com/bacnode-protocol/bacnode-go/pkg/remote"
	"github.com/bacnode-protocol/bacnode-go/pkg/subscription"
	"github.com/bacnode-protocol/bacnode-go/pkg/transport"
)

func testConfig(deviceID uint32) node.Config {
	return node.Config{
		DeviceID:         deviceID,
		BroadcastAddress: "10.0.0.255",
		APDUTimeout:      30 * time.Millisecond,
		Retries:          0,
	}
}

// startNode brings a node online against the simulated network and
// registers cleanup.
func startNode(t *testing.T, net *transport.SimNetwork, cfg node.Config) *node.Node {
	t.Helper()

	factory := func(node.Config) (transport.Transport, error) {
		return net.NewTransport(), nil
	}
	n, err := node.New(cfg, factory, nil)
	if err != nil {
		t.Fatalf("failed to create node: %v", err)
	}
	if err := n.Initialize(); err != nil {
		t.Fatalf("failed to initialize node: %v", err)
	}
	t.Cleanup(n.Terminate)
	return n
}

func populatedNetwork() *transport.SimNetwork {
	net := transport.NewSimNetwork()

	hvac := transport.NewSimDevice(1001, "HVAC Controller")
	hvac.SetObject(bacnet.ObjectRecord{
		ID:         bacnet.ObjectIdentifier{Type: bacnet.ObjectAnalogValue, Instance: 1},
		Properties: bacnet.PropertyMap{bacnet.PropPresentValue: 21.0, bacnet.PropObjectName: "zone-setpoint"},
	})
	net.AddDevice(hvac)

	sensors := transport.NewSimDevice(1003, "Sensor Hub")
	sensors.SetObject(bacnet.ObjectRecord{
		ID:         bacnet.ObjectIdentifier{Type: bacnet.ObjectAnalogInput, Instance: 10},
		Properties: bacnet.PropertyMap{bacnet.PropPresentValue: 12.0, bacnet.PropObjectName: "outside-temperature"},
	})
	net.AddDevice(sensors)

	return net
}

func TestE2E_Discovery(t *testing.T) {
	net := populatedNetwork()
	n := startNode(t, net, testConfig(1))

	svc := discovery.NewService(n, &discovery.Options{SettleDelay: 20 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Bounded first: the transport remembers every responder it has seen.
	bounded, err := svc.FindDevices(ctx, &discovery.Range{Low: 1002, High: 1100})
	if err != nil {
		t.Fatalf("bounded FindDevices failed: %v", err)
	}
	if len(bounded) != 1 || bounded[0] != 1003 {
		t.Errorf("expected [1003], got %v", bounded)
	}

	devices, err := svc.FindDevices(ctx, nil)
	if err != nil {
		t.Fatalf("FindDevices failed: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %v", devices)
	}
	if devices[0] != 1001 || devices[1] != 1003 {
		t.Errorf("expected [1001 1003], got %v", devices)
	}
}

func TestE2E_ReadWrite(t *testing.T) {
	net := populatedNetwork()
	n := startNode(t, net, testConfig(1))

	accessor := remote.NewAccessor(n, interaction.NewClient(n, nil))
	svc := discovery.NewService(n, &discovery.Options{SettleDelay: 20 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := svc.FindDevices(ctx, nil); err != nil {
		t.Fatalf("FindDevices failed: %v", err)
	}

	oid := bacnet.ObjectIdentifier{Type: bacnet.ObjectAnalogValue, Instance: 1}

	values, err := accessor.ReadProperties(ctx, 1001, oid, bacnet.PropPresentValue)
	if err != nil {
		t.Fatalf("ReadProperties failed: %v", err)
	}
	if values[bacnet.PropPresentValue] != 21.0 {
		t.Errorf("expected 21.0, got %v", values[bacnet.PropPresentValue])
	}

	err = accessor.WriteProperties(ctx, 1001, bacnet.ObjectRecord{
		ID:         oid,
		Properties: bacnet.PropertyMap{bacnet.PropPresentValue: 23.5},
	})
	if err != nil {
		t.Fatalf("WriteProperties failed: %v", err)
	}

	values, err = accessor.ReadProperties(ctx, 1001, oid, bacnet.PropPresentValue)
	if err != nil {
		t.Fatalf("re-read failed: %v", err)
	}
	if values[bacnet.PropPresentValue] != 23.5 {
		t.Errorf("expected 23.5 after write, got %v", values[bacnet.PropPresentValue])
	}

	objects, err := accessor.ReadAllObjects(ctx, 1003)
	if err != nil {
		t.Fatalf("ReadAllObjects failed: %v", err)
	}
	// Device object plus the analog input.
	if len(objects) != 2 {
		t.Errorf("expected 2 objects, got %d", len(objects))
	}
}

func TestE2E_SubscribeNotify(t *testing.T) {
	net := populatedNetwork()
	n := startNode(t, net, testConfig(1))

	accessor := remote.NewAccessor(n, interaction.NewClient(n, nil))
	svc := discovery.NewService(n, &discovery.Options{SettleDelay: 20 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := svc.FindDevices(ctx, nil); err != nil {
		t.Fatalf("FindDevices failed: %v", err)
	}

	oid := bacnet.ObjectIdentifier{Type: bacnet.ObjectAnalogInput, Instance: 10}
	notifications := make(chan float64, 4)

	pid, err := accessor.SubscribeCOV(ctx, 1003, oid, remote.SubscribeOptions{}, func(notif subscription.Notification) {
		if v, ok := notif.Values[bacnet.PropPresentValue].(float64); ok {
			notifications <- v
		}
	})
	if err != nil {
		t.Fatalf("SubscribeCOV failed: %v", err)
	}

	hub, _ := net.Device(1003)
	hub.UpdateProperty(oid, bacnet.PropPresentValue, 13.5)

	select {
	case v := <-notifications:
		if v != 13.5 {
			t.Errorf("expected 13.5, got %v", v)
		}
	case <-time.After(time.Second):
		t.Fatal("notification never arrived")
	}

	if err := accessor.UnsubscribeCOV(ctx, pid); err != nil {
		t.Fatalf("UnsubscribeCOV failed: %v", err)
	}

	hub.UpdateProperty(oid, bacnet.PropPresentValue, 14.0)
	select {
	case v := <-notifications:
		t.Errorf("notification after unsubscribe: %v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestE2E_BackupRestore(t *testing.T) {
	net := transport.NewSimNetwork()
	store := persistence.NewStore(filepath.Join(t.TempDir(), "backup.json"))
	factory := func(node.Config) (transport.Transport, error) {
		return net.NewTransport(), nil
	}

	// The network is empty; cancelling stops the background bootstrap
	// instead of waiting out its attempts.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, _, err := node.Boot(ctx, store, testConfig(500), factory, nil)
	if err != nil {
		t.Fatalf("first boot failed: %v", err)
	}

	oid := bacnet.ObjectIdentifier{Type: bacnet.ObjectAnalogValue, Instance: 3}
	if _, err := first.AddOrUpdateObject(bacnet.ObjectRecord{
		ID:         oid,
		Properties: bacnet.PropertyMap{bacnet.PropPresentValue: 72.5, bacnet.PropObjectName: "stored"},
	}); err != nil {
		t.Fatalf("add object failed: %v", err)
	}

	if _, err := first.Save(store); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	first.Terminate()

	second, _, err := node.Boot(ctx, store, testConfig(999), factory, nil)
	if err != nil {
		t.Fatalf("second boot failed: %v", err)
	}
	defer second.Terminate()

	// The backup wins over boot defaults.
	if second.DeviceID() != 500 {
		t.Errorf("expected restored device ID 500, got %d", second.DeviceID())
	}
	rec, err := second.Object(oid)
	if err != nil {
		t.Fatalf("restored object missing: %v", err)
	}
	if rec.Properties[bacnet.PropPresentValue] != 72.5 {
		t.Errorf("expected 72.5, got %v", rec.Properties[bacnet.PropPresentValue])
	}
}

func TestE2E_Reset(t *testing.T) {
	net := populatedNetwork()
	n := startNode(t, net, testConfig(1))
	oldSession := n.SessionID()

	oid := bacnet.ObjectIdentifier{Type: bacnet.ObjectBinaryValue, Instance: 1}
	if _, err := n.AddOrUpdateObject(bacnet.ObjectRecord{
		ID:         oid,
		Properties: bacnet.PropertyMap{bacnet.PropPresentValue: true},
	}); err != nil {
		t.Fatalf("add object failed: %v", err)
	}

	fresh, err := n.Reset(node.Config{DeviceID: 2})
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	defer fresh.Terminate()

	if fresh.DeviceID() != 2 {
		t.Errorf("expected device ID 2, got %d", fresh.DeviceID())
	}
	if fresh.SessionID() == oldSession {
		t.Error("reset must start a new session")
	}
	if n.State() != node.StateTerminated {
		t.Errorf("old node should be terminated, got %s", n.State())
	}
	if _, err := fresh.Object(oid); err != nil {
		t.Errorf("object lost across reset: %v", err)
	}

	// The replacement node is live on the network.
	svc := discovery.NewService(fresh, &discovery.Options{SettleDelay: 20 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	devices, err := svc.FindDevices(ctx, nil)
	if err != nil {
		t.Fatalf("FindDevices failed: %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("expected 2 devices, got %v", devices)
	}
}
