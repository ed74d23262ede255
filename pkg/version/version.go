// Package version provides protocol version parsing and comparison helpers.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// ProtocolVersion is the BACnet protocol version implemented by this library.
const ProtocolVersion = 1

// ProtocolRevision is the ASHRAE 135 protocol revision implemented by this
// library.
const ProtocolRevision = 22

// Current is the implemented protocol version as "version.revision".
const Current = "1.22"

// SpecVersion represents a parsed "version.revision" protocol version.
type SpecVersion struct {
	Version  uint16
	Revision uint16
}

// Parse parses a "version.revision" version string.
func Parse(s string) (SpecVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return SpecVersion{}, fmt.Errorf("invalid version %q: expected version.revision", s)
	}

	ver, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return SpecVersion{}, fmt.Errorf("invalid version %q: bad version component", s)
	}

	rev, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return SpecVersion{}, fmt.Errorf("invalid version %q: bad revision component", s)
	}

	return SpecVersion{Version: uint16(ver), Revision: uint16(rev)}, nil
}

// String returns the version as "version.revision".
func (v SpecVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Version, v.Revision)
}

// Compatible returns true if the other version has the same protocol version.
// Revisions within one protocol version interoperate; a peer only loses
// access to services introduced after its own revision.
func (v SpecVersion) Compatible(other SpecVersion) bool {
	return v.Version == other.Version
}

// AtLeast reports whether this version includes revision rev.
func (v SpecVersion) AtLeast(rev uint16) bool {
	return v.Revision >= rev
}
