package notify

import (
	"sync"
	"testing"
	"time"
)

func TestBoardPostAndGet(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	b := NewBoard(time.Minute, WithClock(func() time.Time { return fixed }))

	n := b.Post(Notice{Title: "Connection lost", Message: "m"})
	if n.ID == "" {
		t.Fatal("expected generated id")
	}
	if n.Level != LevelInfo {
		t.Errorf("default level = %q, want info", n.Level)
	}
	if !n.CreatedAt.Equal(fixed) || !n.ExpiresAt.Equal(fixed.Add(time.Minute)) {
		t.Errorf("timestamps = %v / %v", n.CreatedAt, n.ExpiresAt)
	}

	got, ok := b.Get(n.ID)
	if !ok || got.Title != "Connection lost" {
		t.Errorf("Get = %+v, %v", got, ok)
	}
	if _, ok := b.Get("missing"); ok {
		t.Error("expected missing notice")
	}
}

func TestBoardActiveOrder(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick int
	b := NewBoard(time.Minute, WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}))

	b.Notify(Notice{ID: "first"})
	b.Notify(Notice{ID: "second"})
	b.Notify(Notice{ID: "third"})

	active := b.Active()
	if len(active) != 3 {
		t.Fatalf("expected 3 notices, got %d", len(active))
	}
	for i, id := range []string{"first", "second", "third"} {
		if active[i].ID != id {
			t.Errorf("active[%d] = %q, want %q", i, active[i].ID, id)
		}
	}
}

func TestBoardDismiss(t *testing.T) {
	b := NewBoard(time.Minute)
	expired := 0
	b.OnExpire(func(Notice) { expired++ })

	n := b.Post(Notice{Title: "x"})
	if !b.Dismiss(n.ID) {
		t.Fatal("expected Dismiss to succeed")
	}
	if b.Dismiss(n.ID) {
		t.Error("second Dismiss should report not found")
	}
	if len(b.Active()) != 0 {
		t.Error("expected no active notices")
	}
	if expired != 0 {
		t.Error("dismissal must not count as expiry")
	}
}

func TestBoardExpiry(t *testing.T) {
	b := NewBoard(20*time.Millisecond, WithCleanupInterval(time.Hour))

	var mu sync.Mutex
	var expired []string
	b.OnExpire(func(n Notice) {
		mu.Lock()
		expired = append(expired, n.ID)
		mu.Unlock()
	})

	n := b.Post(Notice{Title: "x"})
	time.Sleep(40 * time.Millisecond)

	if _, ok := b.Get(n.ID); ok {
		t.Error("expired notice should not be returned")
	}
	if len(b.Active()) != 0 {
		t.Error("expired notice should not be active")
	}
	if b.Len() != 1 {
		t.Errorf("Len before sweep = %d, want 1", b.Len())
	}

	b.items.DeleteExpired()
	mu.Lock()
	defer mu.Unlock()
	if len(expired) != 1 || expired[0] != n.ID {
		t.Errorf("expired = %v, want [%s]", expired, n.ID)
	}
	if b.Len() != 0 {
		t.Errorf("Len after sweep = %d, want 0", b.Len())
	}
}

func TestBoardDismissAfterSweepEvicted(t *testing.T) {
	b := NewBoard(time.Minute)
	expired := 0
	b.OnExpire(func(Notice) { expired++ })

	n := b.Post(Notice{ID: "n1"})
	// The cleanup sweep wins the race after Dismiss has looked the entry up.
	b.items.Delete(n.ID)
	if expired != 1 {
		t.Fatalf("expired = %d, want 1", expired)
	}
	if b.remove(n.ID) {
		t.Error("remove should report the notice as already gone")
	}
	b.mu.Lock()
	left := len(b.dismissed)
	b.mu.Unlock()
	if left != 0 {
		t.Errorf("dismissed marks left = %d, want 0", left)
	}

	// A later notice with the same id must still report its expiry.
	b.Post(Notice{ID: "n1"})
	b.items.Delete("n1")
	if expired != 2 {
		t.Errorf("expired = %d, want 2", expired)
	}
}

func TestNewBoardDefaultTTL(t *testing.T) {
	b := NewBoard(0)
	n := b.Post(Notice{})
	if got := n.ExpiresAt.Sub(n.CreatedAt); got != DefaultTTL {
		t.Errorf("ttl = %v, want %v", got, DefaultTTL)
	}
}
