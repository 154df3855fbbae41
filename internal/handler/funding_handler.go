package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/blues/antugrow/internal/funding"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// FundingService 众筹服务
type FundingService interface {
	Overview() (funding.Overview, error)
	Refresh(ctx context.Context) (funding.Overview, error)
	Invest(ctx context.Context, fundingAddress common.Address, amount string) (funding.Investment, error)
	InvestmentStatus(fundingAddress common.Address) (funding.Investment, bool)
	CancelInvestment(fundingAddress common.Address) error
	CreateFunding(ctx context.Context, goal string, durationDays uint64) (common.Hash, error)
	ReleaseFunds(ctx context.Context, fundingID uint64) (common.Hash, error)
	TokenBalance(ctx context.Context, address common.Address) (funding.Balance, error)
	VerifyFarmer(ctx context.Context, farmer common.Address) (common.Hash, error)
	IsVerifiedFarmer(ctx context.Context, farmer common.Address) (bool, error)
	Mint(ctx context.Context, recipient common.Address, amount string) (common.Hash, error)
	ReportHarvest(ctx context.Context, fundingAddress common.Address, value string, repaymentDays uint64) (common.Hash, error)
	MakeRepayment(ctx context.Context, fundingAddress common.Address, amount string) (common.Hash, error)
}

// fundingParam 众筹路由参数：投资时为合约地址，释放资金时为请求ID
const fundingParam = "ref"

type FundingHandler struct {
	service FundingService
}

func NewFundingHandler(service FundingService) *FundingHandler {
	return &FundingHandler{service: service}
}

// GetFundings 当前众筹视图
func (h *FundingHandler) GetFundings(c *gin.Context) {
	overview, err := h.service.Overview()
	resp := OverviewResponse{Overview: overview}
	if err != nil {
		resp.RefreshError = err.Error()
	}
	SuccessResponse(c, http.StatusOK, "", resp)
}

// RefreshFundings 立即重新读取链上众筹
func (h *FundingHandler) RefreshFundings(c *gin.Context) {
	overview, err := h.service.Refresh(c.Request.Context())
	if err != nil {
		FailResponse(c, err, OverviewResponse{Overview: overview, RefreshError: err.Error()})
		return
	}
	SuccessResponse(c, http.StatusOK, "fundings refreshed", OverviewResponse{Overview: overview})
}

// Invest 向众筹投资，返回投资进度
func (h *FundingHandler) Invest(c *gin.Context) {
	address, ok := addressParam(c, fundingParam)
	if !ok {
		return
	}
	var req InvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	investment, err := h.service.Invest(c.Request.Context(), address, req.Amount)
	if err != nil {
		FailResponse(c, err, investment)
		return
	}
	SuccessResponse(c, http.StatusOK, "investment confirmed", investment)
}

// GetInvestment 最近一次投资的进度
func (h *FundingHandler) GetInvestment(c *gin.Context) {
	address, ok := addressParam(c, fundingParam)
	if !ok {
		return
	}
	investment, ok := h.service.InvestmentStatus(address)
	if !ok {
		ErrorResponse(c, http.StatusNotFound, "no investment for this funding contract")
		return
	}
	SuccessResponse(c, http.StatusOK, "", investment)
}

// CancelInvestment 丢弃尚未提交的投资
func (h *FundingHandler) CancelInvestment(c *gin.Context) {
	address, ok := addressParam(c, fundingParam)
	if !ok {
		return
	}
	if err := h.service.CancelInvestment(address); err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "investment cancelled", nil)
}

// CreateFunding 发起众筹请求
func (h *FundingHandler) CreateFunding(c *gin.Context) {
	var req CreateFundingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := h.service.CreateFunding(c.Request.Context(), req.Goal, req.DurationDays)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "funding request created", TxResponse{TxHash: hash.Hex()})
}

// ReleaseFunds 释放资金给农户
func (h *FundingHandler) ReleaseFunds(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param(fundingParam), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid funding request id")
		return
	}

	hash, err := h.service.ReleaseFunds(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "funds released", TxResponse{TxHash: hash.Hex()})
}

// GetBalance 代币余额
func (h *FundingHandler) GetBalance(c *gin.Context) {
	address, ok := addressParam(c, "address")
	if !ok {
		return
	}
	balance, err := h.service.TokenBalance(c.Request.Context(), address)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", balance)
}

// ReportHarvest 农户上报收成价值及还款期限
func (h *FundingHandler) ReportHarvest(c *gin.Context) {
	address, ok := addressParam(c, fundingParam)
	if !ok {
		return
	}
	var req HarvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := h.service.ReportHarvest(c.Request.Context(), address, req.Value, req.RepaymentDays)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "harvest reported", TxResponse{TxHash: hash.Hex()})
}

// MakeRepayment 向众筹合约还款
func (h *FundingHandler) MakeRepayment(c *gin.Context) {
	address, ok := addressParam(c, fundingParam)
	if !ok {
		return
	}
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := h.service.MakeRepayment(c.Request.Context(), address, req.Amount)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "repayment made", TxResponse{TxHash: hash.Hex()})
}

// VerifyFarmer 认证农户地址
func (h *FundingHandler) VerifyFarmer(c *gin.Context) {
	address, ok := addressParam(c, "address")
	if !ok {
		return
	}
	hash, err := h.service.VerifyFarmer(c.Request.Context(), address)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "farmer verified", TxResponse{TxHash: hash.Hex()})
}

// GetVerification 农户地址的认证状态
func (h *FundingHandler) GetVerification(c *gin.Context) {
	address, ok := addressParam(c, "address")
	if !ok {
		return
	}
	verified, err := h.service.IsVerifiedFarmer(c.Request.Context(), address)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", VerificationResponse{Address: address.Hex(), Verified: verified})
}

// Mint 向地址铸造代币
func (h *FundingHandler) Mint(c *gin.Context) {
	address, ok := addressParam(c, "address")
	if !ok {
		return
	}
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := h.service.Mint(c.Request.Context(), address, req.Amount)
	if err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "tokens minted", TxResponse{TxHash: hash.Hex()})
}

func addressParam(c *gin.Context, name string) (common.Address, bool) {
	raw := c.Param(name)
	if !common.IsHexAddress(raw) {
		ErrorResponse(c, http.StatusBadRequest, "invalid address")
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}
