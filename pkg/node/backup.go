package node

import (
	"errors"
	"time"

	"github.com/bacnode-protocol/bacnode-go/pkg/bacnet"
)

// BackupVersion is the current backup format version.
const BackupVersion = 1

// ErrNoBackup is returned by BackupStore.Load when nothing has been saved.
var ErrNoBackup = errors.New("no backup saved")

// Backup is the persisted union of device config (including the runtime
// tunables) and the full local object table. Written on demand, read once
// at boot; it must round-trip losslessly.
type Backup struct {
	// Version is the backup format version.
	Version int `json:"version" yaml:"version"`

	// SavedAt is when the backup was written.
	SavedAt time.Time `json:"saved_at,omitempty" yaml:"saved_at,omitempty"`

	// Config is the device's construction snapshot, tunables included.
	Config Config `json:"config" yaml:"config"`

	// Objects is the full local object table.
	Objects []bacnet.ObjectRecord `json:"objects,omitempty" yaml:"objects,omitempty"`
}

// BackupStore persists backups. Implemented by persistence.Store.
type BackupStore interface {
	// Save writes the backup, overwriting any prior snapshot.
	Save(b *Backup) error

	// Load reads the last saved snapshot. Returns ErrNoBackup when
	// nothing has been saved.
	Load() (*Backup, error)
}
