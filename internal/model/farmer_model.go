package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 信用分范围
const (
	CreditFloor = 300
	CreditCap   = 800
)

// FarmerModel 农户档案
type FarmerModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID             string  `json:"user_id" gorm:"uniqueIndex;not null"`
	FullName           string  `json:"full_name"`
	Phone              string  `json:"phone"`
	Bio                string  `json:"bio" gorm:"type:text"`
	ExperienceYears    int     `json:"experience_years"`
	SuccessRate        float64 `json:"success_rate"`
	AvgROI             float64 `json:"avg_roi"`
	VerificationStatus string  `json:"verification_status" gorm:"default:'pending'"`
	WalletAddress      string  `json:"wallet_address"`
	Credit             int     `json:"credit" gorm:"default:300"`
}

// TableName 自定义表名
func (FarmerModel) TableName() string {
	return "farmers"
}

// BeforeCreate 生成主键
func (f *FarmerModel) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// ApplyCredit 在当前信用分上加 delta，未设置时从下限开始，结果不超过上限
func ApplyCredit(current, delta int) int {
	if current <= 0 {
		current = CreditFloor
	}
	updated := current + delta
	if updated > CreditCap {
		updated = CreditCap
	}
	return updated
}

// Session 一次请求的用户身份，显式传入业务逻辑
type Session struct {
	UserID string
	Farmer *FarmerModel
}

// FarmerID 当前农户ID，未建档时为空
func (s Session) FarmerID() string {
	if s.Farmer == nil {
		return ""
	}
	return s.Farmer.ID
}
