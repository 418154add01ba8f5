package models

import "time"

// Extraction sources.
const (
	SourceUpload = "upload"
	SourceWatch  = "watch"
	SourceCLI    = "cli"
	SourceRetry  = "retry"
)

// Extraction records one pipeline run. Failed runs are kept so they can be
// reviewed later.
type Extraction struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	RunID        string    `gorm:"size:36;not null;uniqueIndex" json:"run_id"`
	Source       string    `gorm:"size:16;not null" json:"source"`
	StorePath    string    `gorm:"column:store_path;size:512" json:"store_path"`
	Status       string    `gorm:"size:16;index" json:"status"`
	NewEntries   int       `json:"new_entries"`
	FailedDays   string    `gorm:"size:128" json:"failed_days,omitempty"`
	FailedReason string    `gorm:"size:255" json:"failed_reason,omitempty"`
}
