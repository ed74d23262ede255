package subscription

import "time"

// Remaining reports the time left before a finite-lifetime subscription
// lapses. Zero for an already-expired one; indefinite subscriptions report
// a negative duration.
func (s *Subscription) Remaining(now time.Time) time.Duration {
	if s.Lifetime == 0 {
		return -1
	}
	remaining := s.CreatedAt.Add(s.Lifetime).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// OnExpiry sets the callback invoked when a finite-lifetime subscription
// lapses. The expired subscription is already removed when the callback
// runs; it runs outside the manager's lock.
func (m *Manager) OnExpiry(fn func(*Subscription)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpiry = fn
}

// schedule arms the expiry timer for a finite-lifetime subscription.
// Caller holds the lock.
func (m *Manager) schedule(sub *Subscription) {
	if sub.Lifetime == 0 {
		return
	}
	delay := time.Until(sub.CreatedAt.Add(sub.Lifetime))
	pid := sub.ProcessID
	sub.expiry = time.AfterFunc(delay, func() { m.expire(pid) })
}

// expire removes a lapsed subscription and fires the callback. A timer
// racing a Remove finds the entry gone and does nothing.
func (m *Manager) expire(processID uint32) {
	m.mu.Lock()
	sub, ok := m.subs[processID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.subs, processID)
	fn := m.onExpiry
	m.mu.Unlock()

	if fn != nil {
		fn(sub)
	}
}
