package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionMergeKeepsCachedOnFailedFetch(t *testing.T) {
	cached := FetchedCollection([]Client{{ID: "c-1", Name: "Padaria Central"}})
	failed := Collection[Client]{}

	merged := failed.Merge(cached)

	assert.True(t, merged.Fetched)
	require.Len(t, merged.Items, 1)
	assert.Equal(t, "c-1", merged.Items[0].ID)
}

func TestCollectionMergeFetchedReplacesCached(t *testing.T) {
	cached := FetchedCollection([]Client{{ID: "c-1"}})
	fresh := FetchedCollection([]Client{{ID: "c-2"}, {ID: "c-3"}})

	merged := fresh.Merge(cached)

	require.Len(t, merged.Items, 2)
	assert.Equal(t, "c-2", merged.Items[0].ID)
}

func TestCollectionMergeEmptyFetchIsNotFailure(t *testing.T) {
	// A tenant with zero rows is a real result and must clear the cache
	cached := FetchedCollection([]Task{{ID: "t-1"}})
	empty := FetchedCollection([]Task(nil))

	merged := empty.Merge(cached)

	assert.True(t, merged.Fetched)
	assert.Empty(t, merged.Items)
}

func TestFetchedCollectionNormalizesNilItems(t *testing.T) {
	c := FetchedCollection([]Lead(nil))
	assert.NotNil(t, c.Items)
	assert.True(t, c.Fetched)
}

func TestBundleMergeOverlaysOnlyFetchedCollections(t *testing.T) {
	prev := Bundle{
		WorkspaceSlug: "acme",
		Generation:    3,
		Profile:       &Profile{WorkspaceSlug: "acme"},
		Clients:       FetchedCollection([]Client{{ID: "c-1"}, {ID: "c-2"}, {ID: "c-3"}}),
		Tasks:         FetchedCollection([]Task{{ID: "t-1"}}),
	}

	fresh := Bundle{
		WorkspaceSlug: "acme",
		Generation:    4,
		Degraded:      true,
		Failed:        []string{"clients"},
		Tasks:         FetchedCollection([]Task{{ID: "t-2"}}),
	}

	merged := fresh.Merge(prev)

	assert.Equal(t, uint64(4), merged.Generation)
	assert.True(t, merged.Degraded)

	// Failed collection keeps the three cached clients
	require.Len(t, merged.Clients.Items, 3)
	assert.Equal(t, "c-1", merged.Clients.Items[0].ID)

	// Fetched collection is replaced
	require.Len(t, merged.Tasks.Items, 1)
	assert.Equal(t, "t-2", merged.Tasks.Items[0].ID)

	// Missing profile falls back to the cached one
	require.NotNil(t, merged.Profile)
	assert.Equal(t, "acme", merged.Profile.WorkspaceSlug)
}

func TestBundleMergeKeepsFreshProfile(t *testing.T) {
	prev := Bundle{Profile: &Profile{WorkspaceSlug: "acme", CompanyName: "Old"}}
	fresh := Bundle{Profile: &Profile{WorkspaceSlug: "acme", CompanyName: "New"}}

	merged := fresh.Merge(prev)

	require.NotNil(t, merged.Profile)
	assert.Equal(t, "New", merged.Profile.CompanyName)
}
