package node

import (
	"errors"
	"testing"

	"github.com/bacnode-protocol/bacnode-go/pkg/bacnet"
	"github.com/bacnode-protocol/bacnode-go/pkg/transport"
)

func simFactory(net *transport.SimNetwork) TransportFactory {
	return func(Config) (transport.Transport, error) {
		return net.NewTransport(), nil
	}
}

func testConfig() Config {
	return Config{DeviceID: 1338, BroadcastAddress: "10.0.0.255"}
}

func newTestNode(t *testing.T, net *transport.SimNetwork, cfg Config) *Node {
	t.Helper()
	n, err := New(cfg, simFactory(net), nil)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return n
}

func TestNodeLifecycle(t *testing.T) {
	t.Run("initialize and terminate", func(t *testing.T) {
		net := transport.NewSimNetwork()
		n := newTestNode(t, net, testConfig())

		if n.State() != StateUninitialized {
			t.Fatalf("expected UNINITIALIZED, got %s", n.State())
		}
		if n.Initialized() {
			t.Fatal("node should not report initialized yet")
		}

		if err := n.Initialize(); err != nil {
			t.Fatalf("initialize: %v", err)
		}
		if !n.Initialized() {
			t.Fatal("node should report initialized")
		}

		n.Terminate()
		if n.State() != StateTerminated {
			t.Errorf("expected TERMINATED, got %s", n.State())
		}
	})

	t.Run("initialize is idempotent while live", func(t *testing.T) {
		net := transport.NewSimNetwork()
		n := newTestNode(t, net, testConfig())
		if err := n.Initialize(); err != nil {
			t.Fatalf("initialize: %v", err)
		}
		if err := n.Initialize(); err != nil {
			t.Errorf("second initialize: %v", err)
		}
	})

	t.Run("port conflict", func(t *testing.T) {
		net := transport.NewSimNetwork()
		first := newTestNode(t, net, testConfig())
		if err := first.Initialize(); err != nil {
			t.Fatalf("initialize: %v", err)
		}

		second := newTestNode(t, net, Config{DeviceID: 2, BroadcastAddress: "10.0.0.255"})
		if err := second.Initialize(); !errors.Is(err, transport.ErrPortInUse) {
			t.Errorf("expected ErrPortInUse, got %v", err)
		}
	})

	t.Run("terminate frees the port", func(t *testing.T) {
		net := transport.NewSimNetwork()
		first := newTestNode(t, net, testConfig())
		if err := first.Initialize(); err != nil {
			t.Fatalf("initialize: %v", err)
		}
		first.Terminate()

		second := newTestNode(t, net, testConfig())
		if err := second.Initialize(); err != nil {
			t.Errorf("initialize after release: %v", err)
		}
	})

	t.Run("terminate is idempotent", func(t *testing.T) {
		net := transport.NewSimNetwork()
		n := newTestNode(t, net, testConfig())
		n.Terminate()
		n.Terminate()
		if n.State() != StateTerminated {
			t.Errorf("expected TERMINATED, got %s", n.State())
		}
	})

	t.Run("terminated instance is dead", func(t *testing.T) {
		net := transport.NewSimNetwork()
		n := newTestNode(t, net, testConfig())
		n.Terminate()
		if err := n.Initialize(); !errors.Is(err, ErrTerminated) {
			t.Errorf("expected ErrTerminated, got %v", err)
		}
	})
}

func TestNodeObjects(t *testing.T) {
	oid := bacnet.ObjectIdentifier{Type: bacnet.ObjectAnalogValue, Instance: 1}

	t.Run("add and read back", func(t *testing.T) {
		n := newTestNode(t, transport.NewSimNetwork(), testConfig())

		rec, err := n.AddOrUpdateObject(bacnet.ObjectRecord{
			ID:         oid,
			Properties: bacnet.PropertyMap{bacnet.PropPresentValue: 20.0},
		})
		if err != nil {
			t.Fatalf("add object: %v", err)
		}
		if v, _ := rec.Property(bacnet.PropPresentValue); v != 20.0 {
			t.Errorf("unexpected value %v", v)
		}

		got, err := n.Object(oid)
		if err != nil {
			t.Fatalf("object: %v", err)
		}
		if v, _ := got.Property(bacnet.PropPresentValue); v != 20.0 {
			t.Errorf("unexpected value %v", v)
		}
	})

	t.Run("update merges properties", func(t *testing.T) {
		n := newTestNode(t, transport.NewSimNetwork(), testConfig())

		if _, err := n.AddOrUpdateObject(bacnet.ObjectRecord{
			ID:         oid,
			Properties: bacnet.PropertyMap{bacnet.PropPresentValue: 20.0, bacnet.PropObjectName: "zone-temp"},
		}); err != nil {
			t.Fatalf("add object: %v", err)
		}

		rec, err := n.AddOrUpdateObject(bacnet.ObjectRecord{
			ID:         oid,
			Properties: bacnet.PropertyMap{bacnet.PropPresentValue: 22.5},
		})
		if err != nil {
			t.Fatalf("update object: %v", err)
		}
		if v, _ := rec.Property(bacnet.PropPresentValue); v != 22.5 {
			t.Errorf("updated value not applied: %v", v)
		}
		if v, _ := rec.Property(bacnet.PropObjectName); v != "zone-temp" {
			t.Errorf("untouched property lost: %v", v)
		}
		if len(n.Objects()) != 1 {
			t.Errorf("update must not create a second object")
		}
	})

	t.Run("structural properties are dropped", func(t *testing.T) {
		n := newTestNode(t, transport.NewSimNetwork(), testConfig())

		rec, err := n.AddOrUpdateObject(bacnet.ObjectRecord{
			ID: oid,
			Properties: bacnet.PropertyMap{
				bacnet.PropPresentValue:     20.0,
				bacnet.PropObjectIdentifier: "bogus",
				bacnet.PropObjectType:       bacnet.ObjectBinaryValue,
			},
		})
		if err != nil {
			t.Fatalf("add object: %v", err)
		}
		if _, ok := rec.Property(bacnet.PropObjectIdentifier); ok {
			t.Error("object-identifier must not be stored as a property")
		}
		if _, ok := rec.Property(bacnet.PropObjectType); ok {
			t.Error("object-type must not be stored as a property")
		}
	})

	t.Run("invalid instance", func(t *testing.T) {
		n := newTestNode(t, transport.NewSimNetwork(), testConfig())
		_, err := n.AddOrUpdateObject(bacnet.ObjectRecord{
			ID: bacnet.ObjectIdentifier{Type: bacnet.ObjectAnalogValue, Instance: bacnet.MaxInstance + 1},
		})
		if !errors.Is(err, bacnet.ErrInvalidInstance) {
			t.Errorf("expected ErrInvalidInstance, got %v", err)
		}
	})

	t.Run("remove", func(t *testing.T) {
		n := newTestNode(t, transport.NewSimNetwork(), testConfig())
		if _, err := n.AddOrUpdateObject(bacnet.ObjectRecord{ID: oid}); err != nil {
			t.Fatalf("add object: %v", err)
		}
		if err := n.RemoveObject(oid); err != nil {
			t.Fatalf("remove: %v", err)
		}
		if err := n.RemoveObject(oid); !errors.Is(err, bacnet.ErrObjectNotFound) {
			t.Errorf("expected ErrObjectNotFound, got %v", err)
		}
	})

	t.Run("objects are sorted", func(t *testing.T) {
		n := newTestNode(t, transport.NewSimNetwork(), testConfig())
		ids := []bacnet.ObjectIdentifier{
			{Type: bacnet.ObjectBinaryValue, Instance: 2},
			{Type: bacnet.ObjectAnalogValue, Instance: 7},
			{Type: bacnet.ObjectAnalogValue, Instance: 1},
		}
		for _, id := range ids {
			if _, err := n.AddOrUpdateObject(bacnet.ObjectRecord{ID: id}); err != nil {
				t.Fatalf("add object: %v", err)
			}
		}
		objs := n.Objects()
		want := []bacnet.ObjectIdentifier{
			{Type: bacnet.ObjectAnalogValue, Instance: 1},
			{Type: bacnet.ObjectAnalogValue, Instance: 7},
			{Type: bacnet.ObjectBinaryValue, Instance: 2},
		}
		for i, w := range want {
			if objs[i].ID != w {
				t.Errorf("position %d: expected %s, got %s", i, w, objs[i].ID)
			}
		}
	})

	t.Run("remove all", func(t *testing.T) {
		n := newTestNode(t, transport.NewSimNetwork(), testConfig())
		if _, err := n.AddOrUpdateObject(bacnet.ObjectRecord{ID: oid}); err != nil {
			t.Fatalf("add object: %v", err)
		}
		n.RemoveAllObjects()
		if len(n.Objects()) != 0 {
			t.Error("objects remain after RemoveAllObjects")
		}
	})
}

func TestNodeReset(t *testing.T) {
	oid := bacnet.ObjectIdentifier{Type: bacnet.ObjectAnalogValue, Instance: 1}

	t.Run("replacement keeps objects and applies overrides", func(t *testing.T) {
		net := transport.NewSimNetwork()
		n := newTestNode(t, net, testConfig())
		if err := n.Initialize(); err != nil {
			t.Fatalf("initialize: %v", err)
		}
		if _, err := n.AddOrUpdateObject(bacnet.ObjectRecord{
			ID:         oid,
			Properties: bacnet.PropertyMap{bacnet.PropPresentValue: 20.0},
		}); err != nil {
			t.Fatalf("add object: %v", err)
		}
		oldSession := n.SessionID()

		replacement, err := n.Reset(Config{DeviceID: 42})
		if err != nil {
			t.Fatalf("reset: %v", err)
		}

		if n.State() != StateTerminated {
			t.Error("old instance should be terminated")
		}
		if replacement.DeviceID() != 42 {
			t.Errorf("override not applied: device ID %d", replacement.DeviceID())
		}
		if !replacement.Initialized() {
			t.Error("replacement should be live")
		}
		if replacement.SessionID() == oldSession {
			t.Error("replacement must start a new session")
		}

		rec, err := replacement.Object(oid)
		if err != nil {
			t.Fatalf("object after reset: %v", err)
		}
		if v, _ := rec.Property(bacnet.PropPresentValue); v != 20.0 {
			t.Errorf("object table not replayed: %v", v)
		}

		// Untouched fields survive the merge.
		if replacement.Config().BroadcastAddress != "10.0.0.255" {
			t.Errorf("broadcast address lost: %s", replacement.Config().BroadcastAddress)
		}
	})

	t.Run("port moves with the reset", func(t *testing.T) {
		net := transport.NewSimNetwork()
		n := newTestNode(t, net, testConfig())
		if err := n.Initialize(); err != nil {
			t.Fatalf("initialize: %v", err)
		}

		replacement, err := n.Reset(Config{Port: 47809})
		if err != nil {
			t.Fatalf("reset: %v", err)
		}
		if replacement.Config().Port != 47809 {
			t.Errorf("port override not applied: %d", replacement.Config().Port)
		}

		// The old port is free again.
		other := newTestNode(t, net, testConfig())
		if err := other.Initialize(); err != nil {
			t.Errorf("old port still held: %v", err)
		}
	})
}

func TestNodeBackup(t *testing.T) {
	net := transport.NewSimNetwork()
	n := newTestNode(t, net, testConfig())
	oid := bacnet.ObjectIdentifier{Type: bacnet.ObjectAnalogValue, Instance: 1}
	if _, err := n.AddOrUpdateObject(bacnet.ObjectRecord{
		ID:         oid,
		Properties: bacnet.PropertyMap{bacnet.PropPresentValue: 20.0},
	}); err != nil {
		t.Fatalf("add object: %v", err)
	}

	b := n.Backup()
	if b.Version != BackupVersion {
		t.Errorf("expected version %d, got %d", BackupVersion, b.Version)
	}
	if b.Config.DeviceID != 1338 {
		t.Errorf("config not captured: %+v", b.Config)
	}
	if len(b.Objects) != 1 || b.Objects[0].ID != oid {
		t.Fatalf("object table not captured: %+v", b.Objects)
	}

	// The snapshot is detached from the live table.
	b.Objects[0].Properties[bacnet.PropPresentValue] = 99.0
	rec, err := n.Object(oid)
	if err != nil {
		t.Fatalf("object: %v", err)
	}
	if v, _ := rec.Property(bacnet.PropPresentValue); v != 20.0 {
		t.Errorf("backup mutation leaked into live table: %v", v)
	}
}

func TestRestore(t *testing.T) {
	net := transport.NewSimNetwork()
	oid := bacnet.ObjectIdentifier{Type: bacnet.ObjectAnalogValue, Instance: 1}

	backup := &Backup{
		Version: BackupVersion,
		Config:  Config{DeviceID: 555, BroadcastAddress: "10.0.0.255"},
		Objects: []bacnet.ObjectRecord{
			{ID: oid, Properties: bacnet.PropertyMap{bacnet.PropPresentValue: 19.0}},
		},
	}

	n, err := Restore(backup, simFactory(net), nil)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !n.Initialized() {
		t.Error("restored node should be live")
	}
	if n.DeviceID() != 555 {
		t.Errorf("device ID not restored: %d", n.DeviceID())
	}
	rec, err := n.Object(oid)
	if err != nil {
		t.Fatalf("object: %v", err)
	}
	if v, _ := rec.Property(bacnet.PropPresentValue); v != 19.0 {
		t.Errorf("object not restored: %v", v)
	}
}
