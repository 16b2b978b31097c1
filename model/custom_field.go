package model

import "time"

// CustomField is a station-wide metadata extraction rule: which tag key to
// watch for and whether the pipeline may populate it automatically.
type CustomField struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	Name       string    `json:"name" gorm:"size:100;not null"`
	ShortName  string    `json:"shortName" gorm:"size:100;uniqueIndex;not null"` // Tag key matched during extraction
	AutoAssign bool      `json:"autoAssign"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// MediaCustomField associates a concrete value of a custom field with a media record.
// 自动赋值的记录在每次重新处理时整体重建，手工赋值的记录管线不碰。
type MediaCustomField struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	MediaID      int64     `json:"mediaId" gorm:"index;not null"`
	FieldID      int64     `json:"fieldId" gorm:"index;not null"`
	Value        string    `json:"value" gorm:"size:500"`
	AutoAssigned bool      `json:"autoAssigned"`
	CreatedAt    time.Time `json:"createdAt"`
}
