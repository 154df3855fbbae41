package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/antugrow/internal/model"
	"gorm.io/gorm"
)

// FarmerRepository 农户档案存取
type FarmerRepository struct {
	db *gorm.DB
}

// NewFarmerRepository 创建农户仓储
func NewFarmerRepository(db *gorm.DB) *FarmerRepository {
	return &FarmerRepository{db: db}
}

// ByUserID 按用户ID获取档案
func (r *FarmerRepository) ByUserID(ctx context.Context, userID string) (*model.FarmerModel, error) {
	var farmer model.FarmerModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&farmer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get farmer of user %s: %w", userID, err)
	}
	return &farmer, nil
}

// Create 新建档案
func (r *FarmerRepository) Create(ctx context.Context, farmer *model.FarmerModel) error {
	if err := r.db.WithContext(ctx).Create(farmer).Error; err != nil {
		return fmt.Errorf("failed to create farmer: %w", err)
	}
	return nil
}

// UpdateProfile 更新可编辑字段
func (r *FarmerRepository) UpdateProfile(ctx context.Context, farmer *model.FarmerModel) error {
	err := r.db.WithContext(ctx).Model(&model.FarmerModel{}).
		Where("id = ?", farmer.ID).
		Updates(map[string]interface{}{
			"full_name":        farmer.FullName,
			"bio":              farmer.Bio,
			"phone":            farmer.Phone,
			"experience_years": farmer.ExperienceYears,
			"wallet_address":   farmer.WalletAddress,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update farmer %s: %w", farmer.ID, err)
	}
	return nil
}

// AdjustCredit 在事务中读取并更新信用分，返回新值
func (r *FarmerRepository) AdjustCredit(ctx context.Context, farmerID string, delta int) (int, error) {
	var updated int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var farmer model.FarmerModel
		err := tx.Select("id", "credit").
			Where("id = ?", farmerID).
			First(&farmer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		updated = model.ApplyCredit(farmer.Credit, delta)
		return tx.Model(&model.FarmerModel{}).Where("id = ?", farmerID).Update("credit", updated).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to adjust credit of farmer %s: %w", farmerID, err)
	}
	return updated, nil
}
