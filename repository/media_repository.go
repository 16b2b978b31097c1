package repository

import (
	"context"
	"errors"
	"fmt"

	"StationFM/model"

	"gorm.io/gorm"
)

// MediaRepository defines the interface for media record operations.
type MediaRepository interface {
	FindByID(ctx context.Context, stationID, id int64) (*model.StationMedia, error)
	FindByPath(ctx context.Context, stationID int64, path string) (*model.StationMedia, error)
	FindByUniqueID(ctx context.Context, stationID int64, uniqueID string) (*model.StationMedia, error)
	ListByStation(ctx context.Context, stationID int64) ([]*model.StationMedia, error)
	Save(ctx context.Context, media *model.StationMedia) error
	Delete(ctx context.Context, media *model.StationMedia) error
	ClearAutoAssignedFields(ctx context.Context, mediaID int64) error
	AddCustomFieldValue(ctx context.Context, value *model.MediaCustomField) error
	ListCustomFieldValues(ctx context.Context, mediaID int64) ([]*model.MediaCustomField, error)
}

// gormMediaRepository implements MediaRepository on GORM/MySQL.
type gormMediaRepository struct {
	db *gorm.DB
}

// NewGormMediaRepository creates a new media repository instance.
func NewGormMediaRepository(db *gorm.DB) MediaRepository {
	return &gormMediaRepository{db: db}
}

func (r *gormMediaRepository) FindByID(ctx context.Context, stationID, id int64) (*model.StationMedia, error) {
	var media model.StationMedia
	err := r.db.WithContext(ctx).
		Where("station_id = ? AND id = ?", stationID, id).
		First(&media).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Media not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find media by ID %d: %w", id, err)
	}
	return &media, nil
}

func (r *gormMediaRepository) FindByPath(ctx context.Context, stationID int64, path string) (*model.StationMedia, error) {
	var media model.StationMedia
	err := r.db.WithContext(ctx).
		Where("station_id = ? AND path = ?", stationID, path).
		First(&media).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find media by path %q: %w", path, err)
	}
	return &media, nil
}

func (r *gormMediaRepository) FindByUniqueID(ctx context.Context, stationID int64, uniqueID string) (*model.StationMedia, error) {
	var media model.StationMedia
	err := r.db.WithContext(ctx).
		Where("station_id = ? AND unique_id = ?", stationID, uniqueID).
		First(&media).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find media by unique ID %q: %w", uniqueID, err)
	}
	return &media, nil
}

// ListByStation 按 mtime 升序返回电台全部媒体，最早处理的排在最前
func (r *gormMediaRepository) ListByStation(ctx context.Context, stationID int64) ([]*model.StationMedia, error) {
	var media []*model.StationMedia
	err := r.db.WithContext(ctx).
		Where("station_id = ?", stationID).
		Order("mtime ASC").
		Find(&media).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list media for station %d: %w", stationID, err)
	}
	return media, nil
}

func (r *gormMediaRepository) Save(ctx context.Context, media *model.StationMedia) error {
	if err := r.db.WithContext(ctx).Save(media).Error; err != nil {
		return fmt.Errorf("failed to save media %q: %w", media.Path, err)
	}
	return nil
}

// Delete 删除媒体记录并级联删除其自定义字段值
func (r *gormMediaRepository) Delete(ctx context.Context, media *model.StationMedia) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("media_id = ?", media.ID).Delete(&model.MediaCustomField{}).Error; err != nil {
			return fmt.Errorf("failed to delete custom field values for media %d: %w", media.ID, err)
		}
		if err := tx.Delete(media).Error; err != nil {
			return fmt.Errorf("failed to delete media %d: %w", media.ID, err)
		}
		return nil
	})
}

// ClearAutoAssignedFields 清除一条媒体上全部自动赋值的字段值（重处理前的失效步骤）
func (r *gormMediaRepository) ClearAutoAssignedFields(ctx context.Context, mediaID int64) error {
	err := r.db.WithContext(ctx).
		Where("media_id = ? AND auto_assigned = ?", mediaID, true).
		Delete(&model.MediaCustomField{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear auto-assigned fields for media %d: %w", mediaID, err)
	}
	return nil
}

func (r *gormMediaRepository) AddCustomFieldValue(ctx context.Context, value *model.MediaCustomField) error {
	if err := r.db.WithContext(ctx).Create(value).Error; err != nil {
		return fmt.Errorf("failed to add custom field value for media %d: %w", value.MediaID, err)
	}
	return nil
}

func (r *gormMediaRepository) ListCustomFieldValues(ctx context.Context, mediaID int64) ([]*model.MediaCustomField, error) {
	var values []*model.MediaCustomField
	err := r.db.WithContext(ctx).
		Where("media_id = ?", mediaID).
		Find(&values).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list custom field values for media %d: %w", mediaID, err)
	}
	return values, nil
}
