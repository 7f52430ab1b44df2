package utils

import (
	"github.com/google/uuid"
)

// NewID returns a collision-resistant entity id carrying a short type prefix,
// e.g. "t-1b4e28ba-2fa1-11d2-883f-0016d3cca427" for a task. Ids are safe
// under rapid sequential creation and multi-session use.
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// NewTaskID returns a new task id.
func NewTaskID() string { return NewID("t") }

// NewClientID returns a new client id.
func NewClientID() string { return NewID("c") }

// NewLeadID returns a new lead id.
func NewLeadID() string { return NewID("l") }

// NewPipelineID returns a new pipeline id.
func NewPipelineID() string { return NewID("p") }

// NewUserID returns a new user id.
func NewUserID() string { return NewID("u") }

// NewAuditID returns a new audit log entry id.
func NewAuditID() string { return NewID("a") }
