package audit

import (
	"sync"

	"github.com/contabilflow/backend/shared/models"
)

// RingCapacity is the number of newest entries kept in the activity-feed
// cache. Older entries stay in the tenant store; only the cache evicts.
const RingCapacity = 1000

// Ring is a bounded, newest-first cache of audit entries for one workspace.
type Ring struct {
	mu       sync.RWMutex
	capacity int
	entries  []models.AuditLogEntry
}

// NewRing creates a ring with the given capacity (RingCapacity when <= 0).
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = RingCapacity
	}
	return &Ring{capacity: capacity}
}

// Prepend inserts the entry at the head and evicts the oldest entries beyond
// capacity.
func (r *Ring) Prepend(entry models.AuditLogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append([]models.AuditLogEntry{entry}, r.entries...)
	if len(r.entries) > r.capacity {
		r.entries = r.entries[:r.capacity]
	}
}

// Replace swaps the cached entries for a freshly loaded newest-first list.
func (r *Ring) Replace(entries []models.AuditLogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(entries) > r.capacity {
		entries = entries[:r.capacity]
	}
	r.entries = append([]models.AuditLogEntry(nil), entries...)
}

// Snapshot returns a copy of the cached entries, newest first.
func (r *Ring) Snapshot() []models.AuditLogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.AuditLogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of cached entries.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// MarkReverted flips the reverted flag on the cached copy of an entry.
func (r *Ring) MarkReverted(entryID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		if r.entries[i].ID == entryID {
			r.entries[i].Reverted = true
			return
		}
	}
}
