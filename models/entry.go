package models

import "time"

// TimetableEntry is one (day, subject, time) slot. The triple is unique, so
// re-running an extraction over the same photo never duplicates rows.
type TimetableEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	RunID     string    `gorm:"size:36;index" json:"run_id"`
	Day       string    `gorm:"size:16;not null;uniqueIndex:idx_entry_slot" json:"day"`
	Subject   string    `gorm:"size:128;not null;uniqueIndex:idx_entry_slot" json:"subject"`
	Time      string    `gorm:"size:16;not null;uniqueIndex:idx_entry_slot" json:"time"`
}
