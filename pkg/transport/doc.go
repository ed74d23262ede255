// Package transport defines the contract between the node core and the
// BACnet stack that does the actual wire work: BVLC/NPDU/APDU framing,
// value codecs, segmentation and link-layer I/O all live behind the
// Transport interface. The core only ever sees decoded requests, decoded
// completions and a live table of discovered remote devices.
//
// The package also ships SimNetwork/SimTransport, an in-memory network of
// simulated devices. It implements the full Transport contract including
// bind exclusivity, WhoIs range filtering, COV notification fan-out and
// per-device failure injection, and backs both the test suites and the
// bacnode CLI's -simulate mode.
package transport
