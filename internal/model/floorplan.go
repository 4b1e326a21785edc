package model

import "time"

// Floorplan stores a serialized scene document. The data column is
// opaque to the backend: it is persisted and returned verbatim.
type Floorplan struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Name      string    `gorm:"size:255;not null"`
	Data      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
