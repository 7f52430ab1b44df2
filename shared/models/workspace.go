package models

// Collection wraps one workspace collection with a presence flag so callers
// can tell "tenant has zero rows" apart from "this collection failed to
// load". A collection that was not fetched never replaces cached state.
type Collection[T any] struct {
	Fetched bool `json:"fetched"`
	Items   []T  `json:"items"`
}

// FetchedCollection builds a successfully loaded collection.
func FetchedCollection[T any](items []T) Collection[T] {
	if items == nil {
		items = []T{}
	}
	return Collection[T]{Fetched: true, Items: items}
}

// Merge returns this collection when it was fetched, otherwise the previous
// one. This is the only rule by which cached workspace state is replaced.
func (c Collection[T]) Merge(prev Collection[T]) Collection[T] {
	if c.Fetched {
		return c
	}
	return prev
}

// Bundle is the full per-tenant state payload served by the workspace
// loader. Generation increases monotonically per slug; a bundle with a lower
// generation than the cached one is stale and must be discarded.
type Bundle struct {
	WorkspaceSlug string                    `json:"workspace_slug"`
	Generation    uint64                    `json:"generation"`
	Degraded      bool                      `json:"degraded"`
	Failed        []string                  `json:"failed,omitempty"`
	Profile       *Profile                  `json:"profile,omitempty"`
	Users         Collection[User]          `json:"users"`
	Clients       Collection[Client]        `json:"clients"`
	Tasks         Collection[Task]          `json:"tasks"`
	Leads         Collection[Lead]          `json:"leads"`
	Pipelines     Collection[Pipeline]      `json:"pipelines"`
	AuditLogs     Collection[AuditLogEntry] `json:"audit_logs"`
}

// Merge overlays this bundle on top of a previous snapshot, keeping the
// previous value of every collection that failed to fetch.
func (b Bundle) Merge(prev Bundle) Bundle {
	merged := b
	if merged.Profile == nil {
		merged.Profile = prev.Profile
	}
	merged.Users = b.Users.Merge(prev.Users)
	merged.Clients = b.Clients.Merge(prev.Clients)
	merged.Tasks = b.Tasks.Merge(prev.Tasks)
	merged.Leads = b.Leads.Merge(prev.Leads)
	merged.Pipelines = b.Pipelines.Merge(prev.Pipelines)
	merged.AuditLogs = b.AuditLogs.Merge(prev.AuditLogs)
	return merged
}
