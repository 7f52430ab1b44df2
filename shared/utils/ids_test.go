package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDCarriesPrefix(t *testing.T) {
	id := NewID("t")
	assert.True(t, strings.HasPrefix(id, "t-"))
	// prefix + dash + uuid
	assert.Len(t, id, 2+36)
}

func TestNewIDUniqueUnderRapidCreation(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := NewTaskID()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestEntityIDPrefixes(t *testing.T) {
	assert.True(t, strings.HasPrefix(NewTaskID(), "t-"))
	assert.True(t, strings.HasPrefix(NewClientID(), "c-"))
	assert.True(t, strings.HasPrefix(NewLeadID(), "l-"))
	assert.True(t, strings.HasPrefix(NewPipelineID(), "p-"))
	assert.True(t, strings.HasPrefix(NewUserID(), "u-"))
	assert.True(t, strings.HasPrefix(NewAuditID(), "a-"))
}
