// Package discovery finds remote devices and announces the local one.
//
// BACnet discovery is broadcast-based and has no "done" signal: the node
// sends WhoIs (or WhoHas) and devices answer with I-Am whenever they get
// around to it, populating the transport's remote-device table. FindDevices
// therefore sends, sleeps a fixed settle interval, then reads the table and
// fetches extended information for every device it finds. The bootstrap
// wraps that in a bounded retry loop - up to five attempts, stopping at the
// first non-empty result - and is meant to run as a background task so
// device boot never blocks on network convergence.
//
// As a convenience for BACnet/IP installations with mDNS, the package can
// also advertise the local node as a _bacnet._udp service.
package discovery
