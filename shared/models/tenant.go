package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant represents one accounting firm's isolated workspace, identified by a
// URL slug
type Tenant struct {
	ID        uuid.UUID      `json:"id" gorm:"type:varchar(36);primary_key"`
	Slug      string         `json:"slug" gorm:"type:varchar(64);uniqueIndex;not null"`
	Name      string         `json:"name" gorm:"not null"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Relationships
	Users []User `json:"users,omitempty" gorm:"foreignKey:WorkspaceSlug;references:Slug"`
}

// TableName returns the table name for the Tenant model
func (Tenant) TableName() string {
	return "tenants"
}

// Profile holds a tenant's display and theme configuration. Singleton per
// workspace, mutated only through the settings endpoints.
type Profile struct {
	WorkspaceSlug string    `json:"workspace_slug" gorm:"type:varchar(64);primaryKey"`
	CompanyName   string    `json:"company_name" gorm:"not null"`
	PrimaryColor  string    `json:"primary_color" gorm:"type:varchar(16)"`
	SidebarTheme  string    `json:"sidebar_theme" gorm:"type:varchar(16)"`
	LoginTitle    string    `json:"login_title"`
	LoginSubtitle string    `json:"login_subtitle"`
	LogoURL       string    `json:"logo_url"`
	Version       int64     `json:"version" gorm:"default:1"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the table name for the Profile model
func (Profile) TableName() string {
	return "profiles"
}
