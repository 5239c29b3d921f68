package notify

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// DefaultTTL is how long a notice stays on the board.
const DefaultTTL = 10 * time.Second

// Board is a Notifier that keeps notices until they expire or are dismissed.
type Board struct {
	items *cache.Cache
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	dismissed map[string]struct{}
	onExpire  func(Notice)
}

// BoardOption configures a Board.
type BoardOption func(*Board)

// WithClock replaces the time source used for CreatedAt and ExpiresAt.
func WithClock(now func() time.Time) BoardOption {
	return func(b *Board) { b.now = now }
}

// WithCleanupInterval sets how often expired notices are swept. Defaults to
// the TTL.
func WithCleanupInterval(d time.Duration) BoardOption {
	return func(b *Board) { b.items = cache.New(b.ttl, d) }
}

// NewBoard creates a board whose notices live for ttl. A non-positive ttl
// uses DefaultTTL.
func NewBoard(ttl time.Duration, opts ...BoardOption) *Board {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	b := &Board{
		ttl:       ttl,
		now:       time.Now,
		dismissed: make(map[string]struct{}),
	}
	b.items = cache.New(ttl, ttl)
	for _, opt := range opts {
		opt(b)
	}
	b.items.OnEvicted(b.evicted)
	return b
}

// OnExpire registers fn to be called when a notice expires without being
// dismissed. Expiry is observed by the periodic cleanup sweep.
func (b *Board) OnExpire(fn func(Notice)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onExpire = fn
}

// Notify implements Notifier. Notices without an ID get a new UUID.
func (b *Board) Notify(n Notice) {
	b.Post(n)
}

// Post stores n and returns it with ID and timestamps filled in.
func (b *Board) Post(n Notice) Notice {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Level == "" {
		n.Level = LevelInfo
	}
	n.CreatedAt = b.now()
	n.ExpiresAt = n.CreatedAt.Add(b.ttl)
	b.items.Set(n.ID, n, b.ttl)
	return n
}

// Get returns the notice with id if it is still active.
func (b *Board) Get(id string) (Notice, bool) {
	v, ok := b.items.Get(id)
	if !ok {
		return Notice{}, false
	}
	return v.(Notice), true
}

// Active returns the notices that have neither expired nor been dismissed,
// oldest first.
func (b *Board) Active() []Notice {
	items := b.items.Items()
	out := make([]Notice, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(Notice))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Dismiss removes an active notice. Returns false if it was not found.
func (b *Board) Dismiss(id string) bool {
	if _, ok := b.items.Get(id); !ok {
		return false
	}
	return b.remove(id)
}

// remove deletes id as a dismissal. The cleanup sweep may evict the entry
// between the lookup and the delete; then the mark is never consumed by
// evicted, so it is cleared here and the notice counts as expired.
func (b *Board) remove(id string) bool {
	b.mu.Lock()
	b.dismissed[id] = struct{}{}
	b.mu.Unlock()

	b.items.Delete(id)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, stale := b.dismissed[id]; stale {
		delete(b.dismissed, id)
		return false
	}
	return true
}

// Len returns the number of stored notices, including expired ones that have
// not been swept yet.
func (b *Board) Len() int {
	return b.items.ItemCount()
}

func (b *Board) evicted(id string, v interface{}) {
	b.mu.Lock()
	_, wasDismissed := b.dismissed[id]
	delete(b.dismissed, id)
	fn := b.onExpire
	b.mu.Unlock()

	if wasDismissed || fn == nil {
		return
	}
	if n, ok := v.(Notice); ok {
		fn(n)
	}
}
