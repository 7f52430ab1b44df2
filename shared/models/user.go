package models

import (
	"database/sql/driver"
	"time"
)

// UserRole is the coarse role assigned to a workspace user
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleManager UserRole = "MANAGER"
	RoleUser    UserRole = "USER"
)

// Permissions is the per-user permission bit set, stored as a JSON column.
// Keys are feature flags such as "view_clients", "edit_tasks", "manage_users".
type Permissions map[string]bool

func (p Permissions) Value() (driver.Value, error) {
	if p == nil {
		return jsonValue(Permissions{})
	}
	return jsonValue(p)
}

func (p *Permissions) Scan(src interface{}) error {
	return jsonScan(p, src)
}

// Has reports whether the permission flag is granted.
func (p Permissions) Has(flag string) bool {
	return p[flag]
}

// User represents a workspace user record. Passwords are stored as bcrypt
// hashes only; the hash never leaves the auth service.
type User struct {
	ID            string      `json:"id" gorm:"type:varchar(64);primaryKey"`
	WorkspaceSlug string      `json:"workspace_slug" gorm:"type:varchar(64);not null;index"`
	Name          string      `json:"name" gorm:"not null"`
	Email         string      `json:"email" gorm:"type:varchar(255);not null;index"`
	Role          UserRole    `json:"role" gorm:"type:varchar(16);default:'USER'"`
	AvatarURL     string      `json:"avatar_url"`
	PasswordHash  string      `json:"-" gorm:"type:varchar(255)"`
	Permissions   Permissions `json:"permissions" gorm:"type:json"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	LastLoginAt   *time.Time  `json:"last_login_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// UserInfo represents the authenticated user extracted from JWT claims
type UserInfo struct {
	UserID        string   `json:"user_id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Role          UserRole `json:"role"`
	WorkspaceSlug string   `json:"workspace_slug"`
}

func (ui *UserInfo) IsAdmin() bool {
	return ui.Role == RoleAdmin
}

func (ui *UserInfo) CanManageWorkspace(slug string) bool {
	return ui.WorkspaceSlug == slug && (ui.Role == RoleAdmin || ui.Role == RoleManager)
}

func (ui *UserInfo) CanAccessWorkspace(slug string) bool {
	return ui.WorkspaceSlug == slug
}

// UserProfile represents the user profile stored in Redis
type UserProfile struct {
	UserID        string   `json:"user_id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Role          UserRole `json:"role"`
	WorkspaceSlug string   `json:"workspace_slug"`
}

// TokenSession represents a session stored in Redis
type TokenSession struct {
	UserProfile UserProfile `json:"user_profile"`
	CreatedAt   time.Time   `json:"created_at"`
	LastUsedAt  time.Time   `json:"last_used_at"`
	ExpiresAt   time.Time   `json:"expires_at"`
	SessionID   string      `json:"session_id"`
}

func (ts *TokenSession) IsExpired() bool {
	return time.Now().After(ts.ExpiresAt)
}

func (ts *TokenSession) UpdateLastUsed() {
	ts.LastUsedAt = time.Now()
}
