package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// TaskPriority is the urgency level assigned to a task
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Subtask is a checklist item nested inside a task, stored as a JSON column
type Subtask struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// Subtasks is the JSON-column list of a task's subtasks
type Subtasks []Subtask

func (s Subtasks) Value() (driver.Value, error) {
	if s == nil {
		return jsonValue(Subtasks{})
	}
	return jsonValue(s)
}
func (s *Subtasks) Scan(src interface{}) error { return jsonScan(s, src) }

// Comment is a user comment on a task or lead, stored as a JSON column
type Comment struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Comments is the JSON-column list of comments
type Comments []Comment

func (c Comments) Value() (driver.Value, error) {
	if c == nil {
		return jsonValue(Comments{})
	}
	return jsonValue(c)
}
func (c *Comments) Scan(src interface{}) error { return jsonScan(c, src) }

// Attachment is a file reference nested in a task, stored as a JSON column
type Attachment struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

// Attachments is the JSON-column list of attachments
type Attachments []Attachment

func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return jsonValue(Attachments{})
	}
	return jsonValue(a)
}
func (a *Attachments) Scan(src interface{}) error { return jsonScan(a, src) }

// Tags is the JSON-column list of free-form labels
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return jsonValue(Tags{})
	}
	return jsonValue(t)
}
func (t *Tags) Scan(src interface{}) error { return jsonScan(t, src) }

// Task represents a unit of work tracked on a kanban board. Status is a
// reference to a column id of the owning pipeline and is validated against
// the pipeline's column set at the command boundary.
type Task struct {
	ID            string         `json:"id" gorm:"type:varchar(64);primaryKey"`
	WorkspaceSlug string         `json:"workspace_slug" gorm:"type:varchar(64);not null;index"`
	PipelineID    string         `json:"pipeline_id" gorm:"type:varchar(64);not null;index"`
	Status        string         `json:"status" gorm:"type:varchar(64);not null;index"`
	Title         string         `json:"title" gorm:"not null"`
	Description   string         `json:"description"`
	Priority      TaskPriority   `json:"priority" gorm:"type:varchar(16);default:'medium'"`
	ClientID      string         `json:"client_id" gorm:"type:varchar(64);index"`
	ClientName    string         `json:"client_name"`
	AssigneeID    string         `json:"assignee_id" gorm:"type:varchar(64);index"`
	DueDate       *time.Time     `json:"due_date,omitempty"`
	Subtasks      Subtasks       `json:"subtasks" gorm:"type:json"`
	Comments      Comments       `json:"comments" gorm:"type:json"`
	Attachments   Attachments    `json:"attachments" gorm:"type:json"`
	Tags          Tags           `json:"tags" gorm:"type:json"`
	Version       int64          `json:"version" gorm:"default:1"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

func (Task) TableName() string {
	return "tasks"
}

// PipelineKind distinguishes task boards from sales funnels. Both share one
// pipeline table and one persistence path.
type PipelineKind string

const (
	PipelineKindTasks PipelineKind = "tasks"
	PipelineKindLeads PipelineKind = "leads"
)

// PipelineColumn is one status column of a pipeline, stored as a JSON column
type PipelineColumn struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// PipelineColumns is the ordered JSON-column list of a pipeline's columns
type PipelineColumns []PipelineColumn

func (p PipelineColumns) Value() (driver.Value, error) {
	if p == nil {
		return jsonValue(PipelineColumns{})
	}
	return jsonValue(p)
}
func (p *PipelineColumns) Scan(src interface{}) error { return jsonScan(p, src) }

// ContainsColumn reports whether the pipeline has a column with the given id.
func (p PipelineColumns) ContainsColumn(columnID string) bool {
	for _, col := range p {
		if col.ID == columnID {
			return true
		}
	}
	return false
}

// Pipeline is a named ordered set of status columns for tasks or leads
type Pipeline struct {
	ID            string          `json:"id" gorm:"type:varchar(64);primaryKey"`
	WorkspaceSlug string          `json:"workspace_slug" gorm:"type:varchar(64);not null;index"`
	Kind          PipelineKind    `json:"kind" gorm:"type:varchar(16);not null;default:'tasks'"`
	Name          string          `json:"name" gorm:"not null"`
	Columns       PipelineColumns `json:"columns" gorm:"type:json"`
	Version       int64           `json:"version" gorm:"default:1"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"deleted_at" gorm:"index"`
}

func (Pipeline) TableName() string {
	return "pipelines"
}
