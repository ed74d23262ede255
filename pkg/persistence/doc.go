// Package persistence stores the local device's configuration snapshot.
//
// The store holds exactly one backup: device config, runtime tunables and
// the full local object table, serialized as JSON. Save overwrites the
// prior snapshot; Load reads it back losslessly. Remote-device handles are
// never persisted - they are rediscovered each boot.
package persistence
