package model

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// Song is the deduplicated (artist, title) identity shared across media records.
// ID 由规整后的 "artist - title" 文本的 md5 生成，同一首歌只存一行。
type Song struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Artist    string    `json:"artist" gorm:"size:300"`
	Title     string    `json:"title" gorm:"size:300"`
	Text      string    `json:"text" gorm:"size:600"` // Combined "artist - title" display text
	CreatedAt time.Time `json:"createdAt"`
}

// SongText builds the combined display text for an (artist, title) pair.
func SongText(artist, title string) string {
	artist = strings.TrimSpace(artist)
	title = strings.TrimSpace(title)
	if artist == "" {
		return title
	}
	return artist + " - " + title
}

// SongID derives the deterministic identity key for an (artist, title) pair.
func SongID(artist, title string) string {
	text := strings.ToLower(SongText(artist, title))
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
