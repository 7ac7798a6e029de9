package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Deployment run states.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Deployment records one orchestrator run of the platform.
type Deployment struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Status      string         `gorm:"type:varchar(32);index;not null" json:"status" validate:"required,oneof=pending running succeeded failed"`
	Trigger     string         `gorm:"type:varchar(32);not null;default:'api'" json:"trigger" validate:"oneof=api cli worker"`
	URL         string         `json:"url"`
	SummaryPath string         `json:"summary_path,omitempty"`
	ReportPath  string         `json:"report_path,omitempty"`
	LogFile     string         `json:"log_file,omitempty"`
	PublishedTo string         `json:"published_to,omitempty"`
	FailedStep  string         `gorm:"type:varchar(32)" json:"failed_step,omitempty"`
	Error       string         `gorm:"type:text" json:"error,omitempty"`
	Duration    float64        `json:"duration"`
	Logs        datatypes.JSON `gorm:"type:jsonb" json:"logs,omitempty"`
	Summary     datatypes.JSON `gorm:"type:jsonb" json:"summary,omitempty"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	FinishedAt  *time.Time     `json:"finished_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns the ID in Go so SQLite and Postgres behave the same.
func (d *Deployment) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Active reports whether the run has not reached a final state.
func (d *Deployment) Active() bool {
	return d.Status == StatusPending || d.Status == StatusRunning
}

// LastActivity is when the run last changed state: its start once running,
// its creation while it waits in the queue.
func (d *Deployment) LastActivity() time.Time {
	if d.StartedAt != nil {
		return *d.StartedAt
	}
	return d.CreatedAt
}
