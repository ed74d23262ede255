// Package subscription tracks the node's outgoing change-of-value (COV)
// subscriptions and dispatches incoming notifications to their handlers.
//
// A COV subscription is a standing request for a remote device to report
// when a property changes. Subscriptions are keyed by the subscriber
// process identifier the node chose when subscribing; the remote device
// echoes it in every notification, which is how Dispatch finds the handler.
//
// The manager holds only local bookkeeping. Establishing and cancelling
// the subscription on the remote device is the accessor's job.
package subscription
