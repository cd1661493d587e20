package domain

import "time"

// LocalEntry is one key–value pair of the durable local storage table.
// Entries with an ExpiresAt read as absent once it passes.
type LocalEntry struct {
	Key       string     `gorm:"primaryKey;size:191"`
	Value     string     `gorm:"type:text;not null"`
	ExpiresAt *time.Time `gorm:"index"`
}
