package main

import (
	"errors"
	"sync"

	"github.com/bacnode-protocol/bacnode-go/pkg/discovery"
	"github.com/bacnode-protocol/bacnode-go/pkg/interaction"
	"github.com/bacnode-protocol/bacnode-go/pkg/node"
	"github.com/bacnode-protocol/bacnode-go/pkg/persistence"
	"github.com/bacnode-protocol/bacnode-go/pkg/remote"
)

// runtime owns the live node handle. Reset replaces the node instance, so
// everything that needs the current node goes through here instead of
// holding a *node.Node of its own.
type runtime struct {
	mu         sync.Mutex
	node       *node.Node
	store      *persistence.Store
	opts       *node.Options
	advertiser *discovery.Advertiser
}

// Node returns the current node handle.
func (r *runtime) Node() *node.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.node
}

// Accessor returns a remote-object accessor bound to the current node.
func (r *runtime) Accessor() *remote.Accessor {
	n := r.Node()
	client := interaction.NewClient(n, &interaction.Options{ProtocolLogger: r.opts.ProtocolLogger})
	return remote.NewAccessor(n, client)
}

// Discovery returns a discovery service bound to the current node.
func (r *runtime) Discovery() *discovery.Service {
	return discovery.NewService(r.Node(), &discovery.Options{
		Logger:         r.opts.Logger,
		ProtocolLogger: r.opts.ProtocolLogger,
	})
}

// Reset replaces the node with a new instance built from its backup merged
// with overrides, and re-announces it over mDNS when advertising.
func (r *runtime) Reset(overrides node.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	replacement, err := r.node.Reset(overrides)
	if err != nil {
		return err
	}
	r.node = replacement

	if r.advertiser != nil {
		if err := r.advertiser.Start(replacement.DeviceID(), config.VendorName, config.ModelName, replacement.Config().Port); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the current node's backup through the persistent store.
func (r *runtime) Save() (*node.Backup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.store == nil {
		return nil, errors.New("persistence disabled (no -state-dir)")
	}
	return r.node.Save(r.store)
}
