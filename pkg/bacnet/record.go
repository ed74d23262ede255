package bacnet

// PropertyMap holds decoded property values keyed by identifier.
// Values are whatever the transport's codec produced; the node never
// inspects wire-level layouts.
type PropertyMap map[PropertyIdentifier]any

// Clone returns a shallow copy of the map. Values are shared; BACnet
// property values are treated as immutable once decoded.
func (m PropertyMap) Clone() PropertyMap {
	if m == nil {
		return nil
	}
	out := make(PropertyMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ObjectRecord is one object: its identity plus its property set.
type ObjectRecord struct {
	ID         ObjectIdentifier `json:"id" yaml:"id"`
	Properties PropertyMap      `json:"properties" yaml:"properties"`
}

// Clone returns a copy whose property map is independent of the receiver.
func (r ObjectRecord) Clone() ObjectRecord {
	return ObjectRecord{ID: r.ID, Properties: r.Properties.Clone()}
}

// Property returns a single property value.
func (r ObjectRecord) Property(id PropertyIdentifier) (any, bool) {
	v, ok := r.Properties[id]
	return v, ok
}
