package repository

import (
	"context"
	"errors"
	"fmt"

	"StationFM/model"

	"gorm.io/gorm"
)

// StationRepository defines station lookups used by the pipeline and API.
type StationRepository interface {
	All(ctx context.Context) ([]*model.Station, error)
	FindByID(ctx context.Context, id int64) (*model.Station, error)
	Save(ctx context.Context, station *model.Station) error
}

type gormStationRepository struct {
	db *gorm.DB
}

// NewGormStationRepository creates a new station repository instance.
func NewGormStationRepository(db *gorm.DB) StationRepository {
	return &gormStationRepository{db: db}
}

func (r *gormStationRepository) All(ctx context.Context) ([]*model.Station, error) {
	var stations []*model.Station
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&stations).Error; err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	return stations, nil
}

func (r *gormStationRepository) FindByID(ctx context.Context, id int64) (*model.Station, error) {
	var station model.Station
	err := r.db.WithContext(ctx).First(&station, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Station not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find station %d: %w", id, err)
	}
	return &station, nil
}

func (r *gormStationRepository) Save(ctx context.Context, station *model.Station) error {
	if err := r.db.WithContext(ctx).Save(station).Error; err != nil {
		return fmt.Errorf("failed to save station %q: %w", station.Name, err)
	}
	return nil
}
