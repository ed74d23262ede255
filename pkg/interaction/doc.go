// Package interaction turns the transport's callback-notified confirmed
// services into blocking calls with a single classified outcome.
//
// Every call to Client.SendAndWait registers a single-shot completion slot
// with the transport, blocks the calling goroutine, and returns exactly one
// Outcome: Success, Abort, Reject, Error or Timeout. The four failure
// variants are ordinary results, not Go errors - a remote device refusing
// a request is expected and common, and callers must branch on the kind.
//
// Concurrent calls are independent; each gets its own slot and the package
// imposes no ordering across calls. Responses may arrive in any order.
package interaction
