// Package remote composes the synchronous bridge into whole operations
// against discovered devices: read a batch of properties, walk a device's
// full object list, write a property set, create and delete objects, and
// manage change-of-value subscriptions.
//
// Every operation resolves its target through the transport's discovery
// table at call time - there is no cached binding to a remote device, and
// none survives a restart. Non-success protocol outcomes surface as
// *interaction.RequestError so callers can branch on the outcome kind;
// success, rejection and timeout stay distinguishable through every layer.
package remote
