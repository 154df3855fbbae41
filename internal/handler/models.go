package handler

import (
	"github.com/blues/antugrow/internal/funding"
	"github.com/blues/antugrow/internal/geo"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// AreaRequest 面积计算请求
type AreaRequest struct {
	Points []geo.Coordinate `json:"points"`
}

// AreaResponse 面积计算结果
type AreaResponse struct {
	Acres        float64 `json:"acres"`
	Label        string  `json:"label"`
	SquareMeters float64 `json:"square_meters"`
	Points       int     `json:"points"`
}

// OverviewResponse 众筹视图及最近一次刷新错误
type OverviewResponse struct {
	funding.Overview
	RefreshError string `json:"refresh_error,omitempty"`
}

// InvestRequest 投资请求，amount 为代币数量（十进制字符串）
type InvestRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// CreateFundingRequest 发起众筹请求
type CreateFundingRequest struct {
	Goal         string `json:"goal" binding:"required"`
	DurationDays uint64 `json:"duration_days" binding:"required"`
}

// TxResponse 已确认的交易
type TxResponse struct {
	TxHash string `json:"tx_hash"`
}

// AmountRequest 代币数量请求（铸造、还款）
type AmountRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// HarvestRequest 上报收成
type HarvestRequest struct {
	Value         string `json:"value" binding:"required"`
	RepaymentDays uint64 `json:"repayment_days" binding:"required"`
}

// VerificationResponse 农户认证状态
type VerificationResponse struct {
	Address  string `json:"address"`
	Verified bool   `json:"verified"`
}
