// Package notify holds the in-memory notification collection shown in the
// notification dropdown and counted by the bell badge.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

// Snapshot is published to subscribers after every state change.
type Snapshot struct {
	UnreadCount int
	Total       int
}

// Store is the authoritative list of notifications for one session.
// It is memory-resident; nothing survives a restart.
//
// The unread counter is maintained incrementally and always equals the
// number of entries with Read == false.
type Store struct {
	mu     sync.Mutex
	items  []model.Notification
	index  map[string]int
	unread int

	subs   map[chan Snapshot]struct{}
	subsMu sync.Mutex

	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		index: make(map[string]int),
		subs:  make(map[chan Snapshot]struct{}),
		now:   time.Now,
	}
}

// Add appends notifications in the order given. Entries whose ID is
// already present are skipped. Missing IDs are generated, missing
// timestamps are set to now and unknown types become "other".
// It returns the number of notifications actually added.
func (s *Store) Add(ns ...model.Notification) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, n := range ns {
		if n.ID == "" {
			n.ID = uuid.New().String()
		}
		if _, exists := s.index[n.ID]; exists {
			continue
		}
		n.Type = model.ParseNotificationType(string(n.Type))
		if n.CreatedAt.IsZero() {
			n.CreatedAt = s.now()
		}

		s.index[n.ID] = len(s.items)
		s.items = append(s.items, n)
		if !n.Read {
			s.unread++
		}
		added++
	}
	if added > 0 {
		s.publishLocked()
	}
	return added
}

// MarkAsRead flips a single unread notification to read. Unknown IDs and
// already-read notifications are left alone. It reports whether anything
// changed.
func (s *Store) MarkAsRead(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok || s.items[i].Read {
		return false
	}
	s.items[i].Read = true
	s.unread--
	s.publishLocked()
	return true
}

// MarkAllAsRead marks every unread notification as read and returns how
// many were flipped. Calling it again returns 0.
func (s *Store) MarkAllAsRead() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	flipped := 0
	for i := range s.items {
		if !s.items[i].Read {
			s.items[i].Read = true
			flipped++
		}
	}
	s.unread -= flipped
	if flipped > 0 {
		s.publishLocked()
	}
	return flipped
}

// ClearNotifications removes every notification, read or not.
func (s *Store) ClearNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return
	}
	s.items = nil
	s.index = make(map[string]int)
	s.unread = 0
	s.publishLocked()
}

// UnreadCount returns the number of unread notifications.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Len returns the number of notifications held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Get returns the notification with the given ID.
func (s *Store) Get(id string) (model.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return model.Notification{}, false
	}
	return s.items[i], true
}

// List returns a copy of all notifications in insertion order.
func (s *Store) List() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Newest returns up to limit notifications, most recently inserted first.
// A limit <= 0 returns all of them.
func (s *Store) Newest(limit int) []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.items)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]model.Notification, 0, limit)
	for i := n - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.items[i])
	}
	return out
}

// Snapshot returns the current counts.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers for change notifications. The returned channel has
// a one-slot buffer; a subscriber that falls behind misses intermediate
// snapshots but always receives a later one. Call the returned function
// to unsubscribe.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, ch)
			s.subsMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{UnreadCount: s.unread, Total: len(s.items)}
}

// publishLocked delivers the current snapshot to every subscriber without
// blocking. A stale value sitting in a full buffer is replaced. Callers
// hold s.mu so snapshots reach subscribers in mutation order.
func (s *Store) publishLocked() {
	snap := s.snapshotLocked()

	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
