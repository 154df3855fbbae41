package logic

import (
	"context"
	"errors"
	"strings"

	"github.com/blues/antugrow/internal/logger"
	"github.com/blues/antugrow/internal/model"
	"github.com/blues/antugrow/internal/repository"
)

// 首次填写姓名奖励的信用分
const profileCreditReward = 1

// ProfileUpdate 可编辑的档案字段
type ProfileUpdate struct {
	FullName        string `json:"full_name"`
	Bio             string `json:"bio"`
	Phone           string `json:"phone"`
	ExperienceYears int    `json:"experience_years"`
	WalletAddress   string `json:"wallet_address"`
}

// FarmerLogic 农户档案业务逻辑
type FarmerLogic struct {
	farmers *repository.FarmerRepository
}

// NewFarmerLogic 创建农户档案业务逻辑
func NewFarmerLogic(farmers *repository.FarmerRepository) *FarmerLogic {
	return &FarmerLogic{farmers: farmers}
}

// Session 解析用户身份，首次访问时建立空档案
func (l *FarmerLogic) Session(ctx context.Context, userID string) (model.Session, error) {
	session := model.Session{UserID: userID}
	if userID == "" {
		return session, nil
	}

	farmer, err := l.farmers.ByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		farmer = &model.FarmerModel{UserID: userID, Credit: model.CreditFloor}
		if err := l.farmers.Create(ctx, farmer); err != nil {
			return session, err
		}
		logger.Info("Farmer profile created for user %s", userID)
	} else if err != nil {
		return session, err
	}

	session.Farmer = farmer
	return session, nil
}

// Profile 当前农户档案
func (l *FarmerLogic) Profile(session model.Session) (*model.FarmerModel, error) {
	if session.Farmer == nil {
		return nil, ErrNoProfile
	}
	return session.Farmer, nil
}

// UpdateProfile 更新档案；首次填写姓名时加信用分
func (l *FarmerLogic) UpdateProfile(ctx context.Context, session model.Session, update ProfileUpdate) (*model.FarmerModel, error) {
	if session.Farmer == nil {
		return nil, ErrNoProfile
	}
	if update.ExperienceYears < 0 {
		return nil, ErrMissingFields
	}

	farmer := *session.Farmer
	firstName := farmer.FullName == "" && strings.TrimSpace(update.FullName) != ""

	farmer.FullName = strings.TrimSpace(update.FullName)
	farmer.Bio = update.Bio
	farmer.Phone = strings.TrimSpace(update.Phone)
	farmer.ExperienceYears = update.ExperienceYears
	farmer.WalletAddress = strings.TrimSpace(update.WalletAddress)
	if err := l.farmers.UpdateProfile(ctx, &farmer); err != nil {
		return nil, err
	}

	if firstName {
		credit, err := l.AdjustCredit(ctx, session, profileCreditReward)
		if err != nil {
			logger.Warn("Failed to update credit score of farmer %s: %v", farmer.ID, err)
		} else {
			farmer.Credit = credit
		}
	}
	return &farmer, nil
}

// AdjustCredit 调整信用分，返回新值
func (l *FarmerLogic) AdjustCredit(ctx context.Context, session model.Session, delta int) (int, error) {
	if session.Farmer == nil {
		return 0, ErrNoProfile
	}
	credit, err := l.farmers.AdjustCredit(ctx, session.FarmerID(), delta)
	if err != nil {
		return 0, err
	}
	logger.Info("Credit score of farmer %s updated by %d to %d", session.FarmerID(), delta, credit)
	return credit, nil
}
