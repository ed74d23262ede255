// Package bacnet defines the object model shared by every layer of the node.
//
// BACnet organizes everything as objects: a device hosts a table of objects,
// each object is a typed bundle of properties, and a property is a single
// named attribute (e.g. present-value). The package deliberately stops at
// the decoded representation - property values are opaque `any` values
// produced and consumed by the transport's codec, never wire bytes.
//
// Identity rules:
//
//   - An object is identified by its ObjectIdentifier (type + instance).
//   - The identifier and the object type are immutable once the object
//     exists; all other properties are mutable.
//   - Device instance numbers share the object instance space: 0..4194303.
package bacnet
