package repository

import (
	"context"
	"fmt"

	"StationFM/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SongRepository resolves deduplicated song identities.
type SongRepository interface {
	GetOrCreate(ctx context.Context, artist, title string) (*model.Song, error)
}

type gormSongRepository struct {
	db *gorm.DB
}

// NewGormSongRepository creates a new song repository instance.
func NewGormSongRepository(db *gorm.DB) SongRepository {
	return &gormSongRepository{db: db}
}

// GetOrCreate 以 (artist, title) 的确定性ID查找歌曲身份，不存在时创建
func (r *gormSongRepository) GetOrCreate(ctx context.Context, artist, title string) (*model.Song, error) {
	song := &model.Song{
		ID:     model.SongID(artist, title),
		Artist: artist,
		Title:  title,
		Text:   model.SongText(artist, title),
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(song).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get or create song %q: %w", song.Text, err)
	}
	return song, nil
}
