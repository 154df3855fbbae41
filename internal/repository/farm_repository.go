package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/antugrow/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// FarmRepository 农场及其天气、卫星数据的存取
type FarmRepository struct {
	db *gorm.DB
}

// NewFarmRepository 创建农场仓储
func NewFarmRepository(db *gorm.DB) *FarmRepository {
	return &FarmRepository{db: db}
}

// Create 插入农场
func (r *FarmRepository) Create(ctx context.Context, farm *model.FarmModel) error {
	if err := r.db.WithContext(ctx).Create(farm).Error; err != nil {
		return fmt.Errorf("failed to create farm: %w", err)
	}
	return nil
}

// ListByFarmer 农户的全部农场，按创建时间倒序
func (r *FarmRepository) ListByFarmer(ctx context.Context, farmerID string) ([]model.FarmModel, error) {
	var farms []model.FarmModel
	if err := r.db.WithContext(ctx).
		Where("farmer_id = ?", farmerID).
		Order("created_at DESC").
		Find(&farms).Error; err != nil {
		return nil, fmt.Errorf("failed to list farms: %w", err)
	}
	return farms, nil
}

// ListAll 全部农场
func (r *FarmRepository) ListAll(ctx context.Context) ([]model.FarmModel, error) {
	var farms []model.FarmModel
	if err := r.db.WithContext(ctx).Find(&farms).Error; err != nil {
		return nil, fmt.Errorf("failed to list farms: %w", err)
	}
	return farms, nil
}

// Get 按农户和ID获取农场
func (r *FarmRepository) Get(ctx context.Context, farmerID, id string) (*model.FarmModel, error) {
	var farm model.FarmModel
	err := r.db.WithContext(ctx).
		Where("farmer_id = ? AND id = ?", farmerID, id).
		First(&farm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get farm %s: %w", id, err)
	}
	return &farm, nil
}

// Delete 删除农户自己的农场及其天气、卫星数据
func (r *FarmRepository) Delete(ctx context.Context, farmerID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("farmer_id = ? AND id = ?", farmerID, id).Delete(&model.FarmModel{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete farm %s: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("farm_id = ?", id).Delete(&model.FarmWeatherModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete weather of farm %s: %w", id, err)
		}
		if err := tx.Where("farm_id = ?", id).Delete(&model.FarmSatelliteModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete satellite data of farm %s: %w", id, err)
		}
		return nil
	})
}

// Weather 农场天气，不存在时返回 ErrNotFound
func (r *FarmRepository) Weather(ctx context.Context, farmID string) (*model.FarmWeatherModel, error) {
	var weather model.FarmWeatherModel
	err := r.db.WithContext(ctx).Where("farm_id = ?", farmID).First(&weather).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get weather of farm %s: %w", farmID, err)
	}
	return &weather, nil
}

// WeatherByFarm 批量获取天气，键为农场ID
func (r *FarmRepository) WeatherByFarm(ctx context.Context, farmIDs []string) (map[string]model.FarmWeatherModel, error) {
	result := make(map[string]model.FarmWeatherModel, len(farmIDs))
	if len(farmIDs) == 0 {
		return result, nil
	}

	var rows []model.FarmWeatherModel
	if err := r.db.WithContext(ctx).Where("farm_id IN ?", farmIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list weather: %w", err)
	}
	for _, row := range rows {
		result[row.FarmID] = row
	}
	return result, nil
}

// Satellite 农场卫星指数，不存在时返回 ErrNotFound
func (r *FarmRepository) Satellite(ctx context.Context, farmID string) (*model.FarmSatelliteModel, error) {
	var satellite model.FarmSatelliteModel
	err := r.db.WithContext(ctx).Where("farm_id = ?", farmID).First(&satellite).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get satellite data of farm %s: %w", farmID, err)
	}
	return &satellite, nil
}

// SaveWeather 按农场ID写入或覆盖天气
func (r *FarmRepository) SaveWeather(ctx context.Context, weather *model.FarmWeatherModel) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "farm_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"main", "description", "temperature", "feels_like", "humidity", "wind_speed", "wind_deg", "location", "updated_at"}),
	}).Create(weather).Error
	if err != nil {
		return fmt.Errorf("failed to save weather of farm %s: %w", weather.FarmID, err)
	}
	return nil
}

// SaveSatellite 按农场ID写入或覆盖卫星指数
func (r *FarmRepository) SaveSatellite(ctx context.Context, satellite *model.FarmSatelliteModel) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "farm_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"ndvi", "gndvi", "ndmi", "soil_moisture", "water_stress", "updated_at"}),
	}).Create(satellite).Error
	if err != nil {
		return fmt.Errorf("failed to save satellite data of farm %s: %w", satellite.FarmID, err)
	}
	return nil
}
