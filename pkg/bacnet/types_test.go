package bacnet

import (
	"errors"
	"testing"
)

func TestObjectIdentifier(t *testing.T) {
	t.Run("valid instance", func(t *testing.T) {
		oid, err := NewObjectIdentifier(ObjectAnalogValue, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !oid.Valid() {
			t.Error("expected identifier to be valid")
		}
		if got := oid.String(); got != "analog-value:1" {
			t.Errorf("expected analog-value:1, got %s", got)
		}
	})

	t.Run("max instance", func(t *testing.T) {
		oid, err := NewObjectIdentifier(ObjectDevice, MaxInstance)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !oid.Valid() {
			t.Error("expected identifier to be valid")
		}
	})

	t.Run("instance out of range", func(t *testing.T) {
		_, err := NewObjectIdentifier(ObjectDevice, MaxInstance+1)
		if !errors.Is(err, ErrInvalidInstance) {
			t.Errorf("expected ErrInvalidInstance, got %v", err)
		}
	})

	t.Run("device object id", func(t *testing.T) {
		oid := DeviceObjectID(1234)
		if oid.Type != ObjectDevice {
			t.Errorf("expected device type, got %s", oid.Type)
		}
		if oid.Instance != 1234 {
			t.Errorf("expected instance 1234, got %d", oid.Instance)
		}
	})

	t.Run("unknown type string", func(t *testing.T) {
		if got := ObjectType(999).String(); got != "object-type-999" {
			t.Errorf("unexpected string: %s", got)
		}
	})
}

func TestPropertyIdentifier(t *testing.T) {
	t.Run("names", func(t *testing.T) {
		if got := PropPresentValue.String(); got != "present-value" {
			t.Errorf("unexpected name: %s", got)
		}
		if got := PropObjectList.String(); got != "object-list" {
			t.Errorf("unexpected name: %s", got)
		}
		if got := PropertyIdentifier(40000).String(); got != "property-40000" {
			t.Errorf("unexpected name: %s", got)
		}
	})

	t.Run("structural", func(t *testing.T) {
		structural := []PropertyIdentifier{PropObjectIdentifier, PropObjectType, PropObjectList}
		for _, p := range structural {
			if !p.Structural() {
				t.Errorf("%s should be structural", p)
			}
		}
		if PropPresentValue.Structural() {
			t.Error("present-value should not be structural")
		}
	})
}

func TestObjectRecordClone(t *testing.T) {
	rec := ObjectRecord{
		ID:         ObjectIdentifier{Type: ObjectAnalogValue, Instance: 1},
		Properties: PropertyMap{PropPresentValue: 21.5},
	}

	clone := rec.Clone()
	clone.Properties[PropPresentValue] = 99.0

	if v, _ := rec.Property(PropPresentValue); v != 21.5 {
		t.Errorf("clone mutation leaked into original: %v", v)
	}
	if _, ok := rec.Property(PropObjectName); ok {
		t.Error("unexpected property present")
	}
}

func TestPropertyMapCloneNil(t *testing.T) {
	var m PropertyMap
	if m.Clone() != nil {
		t.Error("nil map should clone to nil")
	}
}
