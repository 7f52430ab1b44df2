package models

import (
	"time"

	"gorm.io/gorm"
)

// Lead represents a sales opportunity tracked on the funnel board. Leads
// share the pipeline model with tasks (PipelineKindLeads) and persist to the
// tenant store like every other collection.
type Lead struct {
	ID             string         `json:"id" gorm:"type:varchar(64);primaryKey"`
	WorkspaceSlug  string         `json:"workspace_slug" gorm:"type:varchar(64);not null;index"`
	PipelineID     string         `json:"pipeline_id" gorm:"type:varchar(64);not null;index"`
	Status         string         `json:"status" gorm:"type:varchar(64);not null;index"`
	Name           string         `json:"name" gorm:"not null"`
	Company        string         `json:"company"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	EstimatedValue float64        `json:"estimated_value"`
	Source         string         `json:"source"`
	ClientID       string         `json:"client_id" gorm:"type:varchar(64);index"`
	ClientName     string         `json:"client_name"`
	AssigneeID     string         `json:"assignee_id" gorm:"type:varchar(64);index"`
	Comments       Comments       `json:"comments" gorm:"type:json"`
	Tags           Tags           `json:"tags" gorm:"type:json"`
	Version        int64          `json:"version" gorm:"default:1"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

func (Lead) TableName() string {
	return "leads"
}
