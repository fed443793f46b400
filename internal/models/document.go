package models

import "time"

// Document is one row of the keyed document store.
type Document struct {
	Collection string `gorm:"primaryKey;size:100"`
	Key        string `gorm:"primaryKey;size:100"`
	Fields     string `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
