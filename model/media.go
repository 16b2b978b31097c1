package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StationMedia represents one physical audio file owned by one station.
// (StationID, Path) 在库内唯一；Mtime 记录上次成功处理时文件的存储时间戳。
type StationMedia struct {
	ID           int64   `json:"id" gorm:"primaryKey"`
	StationID    int64   `json:"stationId" gorm:"uniqueIndex:idx_station_path;not null"`
	Path         string  `json:"path" gorm:"uniqueIndex:idx_station_path;size:500;not null"`
	UniqueID     string  `json:"uniqueId" gorm:"size:32;index"`
	SongID       string  `json:"songId" gorm:"size:32;index"`
	Title        string  `json:"title" gorm:"size:300"`
	Artist       string  `json:"artist" gorm:"size:300"`
	Album        string  `json:"album" gorm:"size:300"`
	Lyrics       string  `json:"-" gorm:"type:text"`
	ISRC         string  `json:"isrc" gorm:"column:isrc;size:15"`
	Duration     float64 `json:"duration"`     // Duration in seconds
	Mtime        int64   `json:"mtime"`        // Storage timestamp as of the last successful processing
	ArtUpdatedAt int64   `json:"artUpdatedAt"` // 0 when no artwork is stored

	CustomFields []MediaCustomField `json:"customFields,omitempty" gorm:"foreignKey:MediaID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (StationMedia) TableName() string {
	return "station_media"
}

// NewStationMedia 创建一条新的媒体记录并分配唯一ID
func NewStationMedia(stationID int64, path string) *StationMedia {
	return &StationMedia{
		StationID: stationID,
		Path:      path,
		UniqueID:  strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
}

// NeedsReprocessing reports whether the stored mtime is behind the storage timestamp.
func (m *StationMedia) NeedsReprocessing(storageMtime int64) bool {
	return storageMtime > m.Mtime
}

// ArtPath returns the storage path of the media's cover art asset.
func (m *StationMedia) ArtPath() string {
	return fmt.Sprintf("albumart/%s.jpg", m.UniqueID)
}
