package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tmrivera/cardhaven-backend/pkg/enums"
)

const (
	defaultNotificationTTL = 5 * time.Second
	defaultNotificationCap = 50
)

// Notification is an ephemeral user-facing record of a cart state transition.
// It auto-expires after the display TTL and is never part of the persisted cart.
type Notification struct {
	ID        uuid.UUID                  `json:"id"`
	Message   string                     `json:"message"`
	Severity  enums.NotificationSeverity `json:"severity"`
	CreatedAt time.Time                  `json:"created_at"`
}

// notificationBuffer accumulates notifications and prunes expired ones on read.
// It carries its own lock so rejected operations can still record feedback
// while the cart lock is held elsewhere.
type notificationBuffer struct {
	mu      sync.Mutex
	entries []Notification
	ttl     time.Duration
	cap     int
}

func newNotificationBuffer(ttl time.Duration, capacity int) *notificationBuffer {
	if ttl <= 0 {
		ttl = defaultNotificationTTL
	}
	if capacity <= 0 {
		capacity = defaultNotificationCap
	}
	return &notificationBuffer{ttl: ttl, cap: capacity}
}

func (b *notificationBuffer) push(now time.Time, severity enums.NotificationSeverity, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune(now)
	b.entries = append(b.entries, Notification{
		ID:        uuid.New(),
		Message:   message,
		Severity:  severity,
		CreatedAt: now,
	})
	if len(b.entries) > b.cap {
		b.entries = b.entries[len(b.entries)-b.cap:]
	}
}

// active returns the notifications that have not yet expired, oldest first.
func (b *notificationBuffer) active(now time.Time) []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune(now)
	out := make([]Notification, len(b.entries))
	copy(out, b.entries)
	return out
}

func (b *notificationBuffer) prune(now time.Time) {
	cutoff := now.Add(-b.ttl)
	kept := b.entries[:0]
	for _, entry := range b.entries {
		if entry.CreatedAt.After(cutoff) {
			kept = append(kept, entry)
		}
	}
	b.entries = kept
}
