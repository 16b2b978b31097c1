package model

import "time"

// Station represents one broadcast station owning a media library.
type Station struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	MediaPath string    `json:"mediaPath" gorm:"size:255"` // Station-scoped prefix inside the storage backend
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
