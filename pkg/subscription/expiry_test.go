package subscription

import (
	"testing"
	"time"
)

func TestExpiryCallback(t *testing.T) {
	t.Run("finite lifetime fires callback", func(t *testing.T) {
		m := NewManager()
		expired := make(chan uint32, 1)
		m.OnExpiry(func(s *Subscription) { expired <- s.ProcessID })

		if err := m.Add(&Subscription{ProcessID: 7, Lifetime: 20 * time.Millisecond}, nil); err != nil {
			t.Fatalf("add: %v", err)
		}

		select {
		case pid := <-expired:
			if pid != 7 {
				t.Errorf("expired process %d, want 7", pid)
			}
		case <-time.After(time.Second):
			t.Fatal("expiry callback never fired")
		}
		if _, ok := m.Get(7); ok {
			t.Error("expired subscription still registered")
		}
	})

	t.Run("remove cancels the timer", func(t *testing.T) {
		m := NewManager()
		expired := make(chan uint32, 1)
		m.OnExpiry(func(s *Subscription) { expired <- s.ProcessID })

		if err := m.Add(&Subscription{ProcessID: 8, Lifetime: 30 * time.Millisecond}, nil); err != nil {
			t.Fatalf("add: %v", err)
		}
		if err := m.Remove(8); err != nil {
			t.Fatalf("remove: %v", err)
		}

		select {
		case pid := <-expired:
			t.Errorf("callback fired for removed subscription %d", pid)
		case <-time.After(80 * time.Millisecond):
		}
	})

	t.Run("indefinite never fires", func(t *testing.T) {
		m := NewManager()
		expired := make(chan uint32, 1)
		m.OnExpiry(func(s *Subscription) { expired <- s.ProcessID })

		if err := m.Add(&Subscription{ProcessID: 9}, nil); err != nil {
			t.Fatalf("add: %v", err)
		}

		select {
		case <-expired:
			t.Error("indefinite subscription expired")
		case <-time.After(50 * time.Millisecond):
		}
	})
}

func TestRemaining(t *testing.T) {
	now := time.Now()
	sub := &Subscription{ProcessID: 1, Lifetime: time.Minute, CreatedAt: now}

	if got := sub.Remaining(now.Add(20 * time.Second)); got != 40*time.Second {
		t.Errorf("Remaining = %v, want 40s", got)
	}
	if got := sub.Remaining(now.Add(2 * time.Minute)); got != 0 {
		t.Errorf("Remaining past expiry = %v, want 0", got)
	}

	indefinite := &Subscription{ProcessID: 2, CreatedAt: now}
	if got := indefinite.Remaining(now); got >= 0 {
		t.Errorf("indefinite Remaining = %v, want negative", got)
	}
}
