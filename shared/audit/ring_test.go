package audit

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contabilflow/backend/shared/models"
)

func TestRingPrependKeepsNewestFirst(t *testing.T) {
	ring := NewRing(10)
	ring.Prepend(models.AuditLogEntry{ID: "a-1"})
	ring.Prepend(models.AuditLogEntry{ID: "a-2"})
	ring.Prepend(models.AuditLogEntry{ID: "a-3"})

	entries := ring.Snapshot()
	require.Len(t, entries, 3)
	assert.Equal(t, "a-3", entries[0].ID)
	assert.Equal(t, "a-1", entries[2].ID)
}

func TestRingEvictsOldestBeyondCapacity(t *testing.T) {
	ring := NewRing(RingCapacity)

	for i := 0; i < RingCapacity+50; i++ {
		ring.Prepend(models.AuditLogEntry{ID: fmt.Sprintf("a-%d", i)})
	}

	assert.Equal(t, RingCapacity, ring.Len())

	entries := ring.Snapshot()
	// Newest entry at the head, the 50 oldest gone
	assert.Equal(t, fmt.Sprintf("a-%d", RingCapacity+49), entries[0].ID)
	assert.Equal(t, "a-50", entries[RingCapacity-1].ID)
}

func TestRingReplaceTruncatesToCapacity(t *testing.T) {
	ring := NewRing(5)

	entries := make([]models.AuditLogEntry, 8)
	for i := range entries {
		entries[i] = models.AuditLogEntry{ID: fmt.Sprintf("a-%d", i)}
	}
	ring.Replace(entries)

	assert.Equal(t, 5, ring.Len())
	assert.Equal(t, "a-0", ring.Snapshot()[0].ID)
}

func TestRingSnapshotIsACopy(t *testing.T) {
	ring := NewRing(5)
	ring.Prepend(models.AuditLogEntry{ID: "a-1"})

	snap := ring.Snapshot()
	snap[0].ID = "mutated"

	assert.Equal(t, "a-1", ring.Snapshot()[0].ID)
}

func TestRingMarkReverted(t *testing.T) {
	ring := NewRing(5)
	ring.Prepend(models.AuditLogEntry{ID: "a-1"})
	ring.Prepend(models.AuditLogEntry{ID: "a-2"})

	ring.MarkReverted("a-1")

	entries := ring.Snapshot()
	assert.False(t, entries[0].Reverted)
	assert.True(t, entries[1].Reverted)
}
