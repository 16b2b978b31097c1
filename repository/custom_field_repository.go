package repository

import (
	"context"
	"fmt"
	"strings"

	"StationFM/model"

	"gorm.io/gorm"
)

// CustomFieldRepository exposes the station-wide custom field registry.
type CustomFieldRepository interface {
	// AutoAssignableFields returns the fields the pipeline may populate
	// automatically, keyed by their lower-cased tag short name.
	AutoAssignableFields(ctx context.Context) (map[string]*model.CustomField, error)
	All(ctx context.Context) ([]*model.CustomField, error)
	Save(ctx context.Context, field *model.CustomField) error
}

type gormCustomFieldRepository struct {
	db *gorm.DB
}

// NewGormCustomFieldRepository creates a new custom field repository instance.
func NewGormCustomFieldRepository(db *gorm.DB) CustomFieldRepository {
	return &gormCustomFieldRepository{db: db}
}

func (r *gormCustomFieldRepository) AutoAssignableFields(ctx context.Context) (map[string]*model.CustomField, error) {
	var fields []*model.CustomField
	err := r.db.WithContext(ctx).
		Where("auto_assign = ?", true).
		Find(&fields).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load auto-assignable custom fields: %w", err)
	}

	result := make(map[string]*model.CustomField, len(fields))
	for _, field := range fields {
		result[strings.ToLower(field.ShortName)] = field
	}
	return result, nil
}

func (r *gormCustomFieldRepository) All(ctx context.Context) ([]*model.CustomField, error) {
	var fields []*model.CustomField
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&fields).Error; err != nil {
		return nil, fmt.Errorf("failed to list custom fields: %w", err)
	}
	return fields, nil
}

func (r *gormCustomFieldRepository) Save(ctx context.Context, field *model.CustomField) error {
	if err := r.db.WithContext(ctx).Save(field).Error; err != nil {
		return fmt.Errorf("failed to save custom field %q: %w", field.ShortName, err)
	}
	return nil
}
