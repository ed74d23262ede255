package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bacnode-protocol/bacnode-go/pkg/discovery"
)

// Boot brings a device online from persisted state: it restores the last
// saved backup (or constructs a fresh device from defaults when no backup
// exists), initializes it, and schedules the discovery bootstrap as a
// background task. It returns as soon as discovery is scheduled - boot
// never blocks on network convergence.
//
// The returned function reports the discovery result once the bootstrap
// loop completes; calling it blocks until then.
func Boot(ctx context.Context, store BackupStore, defaults Config, factory TransportFactory, opts *Options) (*Node, func() []uint32, error) {
	var n *Node

	backup, err := store.Load()
	switch {
	case err == nil:
		n, err = Restore(backup, factory, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("boot: %w", err)
		}
	case errors.Is(err, ErrNoBackup):
		n, err = New(defaults, factory, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("boot: %w", err)
		}
		if err := n.Initialize(); err != nil {
			return nil, nil, fmt.Errorf("boot: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("boot: load backup: %w", err)
	}

	svc := discovery.NewService(n, &discovery.Options{
		Logger:         n.logger,
		ProtocolLogger: n.plog,
	})

	resultCh := make(chan []uint32, 1)
	go func() {
		resultCh <- svc.Bootstrap(ctx, nil)
	}()

	if n.logger != nil {
		n.logger.Info("device booted",
			slog.Uint64("device_id", uint64(n.DeviceID())),
			slog.Bool("from_backup", backup != nil),
		)
	}

	wait := func() []uint32 {
		ids := <-resultCh
		// Allow wait to be called more than once.
		resultCh <- ids
		return ids
	}
	return n, wait, nil
}

// Save writes the device's current backup to the store and returns the
// snapshot written.
func (n *Node) Save(store BackupStore) (*Backup, error) {
	b := n.Backup()
	if err := store.Save(b); err != nil {
		return nil, fmt.Errorf("save backup: %w", err)
	}
	return b, nil
}
