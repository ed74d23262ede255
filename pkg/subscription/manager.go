package subscription

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bacnode-protocol/bacnode-go/pkg/bacnet"
)

// Subscription errors.
var (
	ErrDuplicateProcessID = errors.New("process ID already in use")
	ErrNotSubscribed      = errors.New("no subscription with that process ID")
)

// Notification is one incoming change-of-value report.
type Notification struct {
	// DeviceID is the reporting remote device.
	DeviceID uint32

	// ProcessID is the subscriber process identifier echoed by the device.
	ProcessID uint32

	// Object is the monitored object.
	Object bacnet.ObjectIdentifier

	// Values holds the changed properties.
	Values bacnet.PropertyMap

	// Timestamp is when the notification was received locally.
	Timestamp time.Time
}

// Handler receives notifications for one subscription.
type Handler func(Notification)

// Subscription is the local record of one outgoing COV subscription.
type Subscription struct {
	// ProcessID is the subscriber process identifier sent to the device.
	ProcessID uint32

	// DeviceID is the remote device being monitored.
	DeviceID uint32

	// Object is the monitored object.
	Object bacnet.ObjectIdentifier

	// Confirmed selects confirmed COV notifications.
	Confirmed bool

	// Lifetime is the requested duration; zero means indefinite.
	Lifetime time.Duration

	// CreatedAt is when the subscription was established.
	CreatedAt time.Time

	handler Handler
	expiry  *time.Timer
}

// Expired reports whether a finite-lifetime subscription has lapsed.
func (s *Subscription) Expired(now time.Time) bool {
	if s.Lifetime == 0 {
		return false
	}
	return now.After(s.CreatedAt.Add(s.Lifetime))
}

// Manager tracks active subscriptions. Safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	subs     map[uint32]*Subscription
	nextPID  atomic.Uint32
	onExpiry func(*Subscription)
}

// NewManager creates an empty subscription manager.
func NewManager() *Manager {
	return &Manager{subs: make(map[uint32]*Subscription)}
}

// NextProcessID returns a fresh subscriber process identifier.
func (m *Manager) NextProcessID() uint32 {
	return m.nextPID.Add(1)
}

// Add registers a subscription and its handler.
func (m *Manager) Add(sub *Subscription, handler Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.subs[sub.ProcessID]; exists {
		return ErrDuplicateProcessID
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	sub.handler = handler
	m.subs[sub.ProcessID] = sub
	m.schedule(sub)
	return nil
}

// Remove drops a subscription. Returns ErrNotSubscribed if absent.
func (m *Manager) Remove(processID uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, exists := m.subs[processID]
	if !exists {
		return ErrNotSubscribed
	}
	if sub.expiry != nil {
		sub.expiry.Stop()
	}
	delete(m.subs, processID)
	return nil
}

// Get returns the subscription for a process ID.
func (m *Manager) Get(processID uint32) (*Subscription, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subs[processID]
	return s, ok
}

// All returns a snapshot of the active subscriptions.
func (m *Manager) All() []*Subscription {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Subscription, 0, len(m.subs))
	for _, s := range m.subs {
		out = append(out, s)
	}
	return out
}

// Count returns the number of active subscriptions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

// Dispatch routes an incoming notification to its subscription's handler.
// Notifications without a matching subscription are dropped; devices may
// keep reporting briefly after an unsubscribe.
func (m *Manager) Dispatch(deviceID, processID uint32, object bacnet.ObjectIdentifier, values bacnet.PropertyMap) bool {
	m.mu.RLock()
	sub, ok := m.subs[processID]
	m.mu.RUnlock()
	if !ok || sub.DeviceID != deviceID || sub.Object != object {
		return false
	}
	if sub.handler != nil {
		sub.handler(Notification{
			DeviceID:  deviceID,
			ProcessID: processID,
			Object:    object,
			Values:    values,
			Timestamp: time.Now(),
		})
	}
	return true
}

// SweepExpired removes lapsed finite-lifetime subscriptions and returns
// their process IDs so the caller can cancel them remotely.
func (m *Manager) SweepExpired(now time.Time) []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []uint32
	for pid, sub := range m.subs {
		if sub.Expired(now) {
			if sub.expiry != nil {
				sub.expiry.Stop()
			}
			delete(m.subs, pid)
			removed = append(removed, pid)
		}
	}
	return removed
}
