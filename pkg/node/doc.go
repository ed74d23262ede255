// Package node owns the local BACnet device: its configuration, its object
// table and its lifecycle.
//
// A Node moves through three states: uninitialized, initialized (bound to
// its UDP port) and terminated (port released). A terminated node is dead -
// constructing a fresh Node is the only way back, and Reset does exactly
// that: it terminates the old instance and returns a brand-new one built
// from the old backup merged with overrides, with every object replayed.
//
// There is deliberately no package-level "current device". The Node is an
// explicit handle owned by the caller; whoever holds it replaces it on
// Reset. This keeps multiple nodes per process and testing straightforward.
package node
