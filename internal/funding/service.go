package funding

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/blues/antugrow/internal/chain"
	"github.com/blues/antugrow/internal/logger"
	"github.com/blues/antugrow/internal/metrics"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrCampaignNotFound 当前视图中不存在该众筹合约
var ErrCampaignNotFound = errors.New("funding campaign not found")

// Reader 链上只读调用
type Reader interface {
	Read(ctx context.Context, call chain.Call) ([]interface{}, error)
	BatchRead(ctx context.Context, calls []chain.Call) []chain.Result
}

// Writer 链上交易发送与确认
type Writer interface {
	Write(ctx context.Context, call chain.Call) (common.Hash, error)
	WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Contracts 众筹相关合约
type Contracts struct {
	Factory *chain.Contract
	Token   *chain.Contract
	Funding *chain.Contract
}

// Balance 代币余额
type Balance struct {
	Address  common.Address `json:"address"`
	Raw      *big.Int       `json:"raw"`
	Decimals uint8          `json:"decimals"`
	Amount   string         `json:"amount"`
}

// Service 众筹服务：读取链上众筹、维护视图、发起交易
type Service struct {
	reader    Reader
	writer    Writer
	contracts Contracts
	investor  *Investor
	metrics   *metrics.Metrics

	mu       sync.RWMutex
	overview Overview
	lastErr  error
}

// NewService 创建众筹服务，account 为签名账户地址
func NewService(reader Reader, writer Writer, contracts Contracts, account common.Address, m *metrics.Metrics) *Service {
	return &Service{
		reader:    reader,
		writer:    writer,
		contracts: contracts,
		investor:  NewInvestor(writer, contracts.Token, contracts.Funding, account, m),
		metrics:   m,
		overview:  Aggregate(nil),
	}
}

// Refresh 重新读取全部众筹并整体替换视图；失败时保留上一次的视图
func (s *Service) Refresh(ctx context.Context) (Overview, error) {
	campaigns, err := s.fetch(ctx)
	s.metrics.FundingRefreshed(err)
	if err != nil {
		err = fmt.Errorf("failed to load funding campaigns: %w", err)
		s.mu.Lock()
		s.lastErr = err
		overview := s.overview
		s.mu.Unlock()
		logger.Error("Funding refresh failed: %v", err)
		return overview, err
	}

	overview := Aggregate(campaigns)
	overview.RefreshedAt = time.Now()

	s.mu.Lock()
	s.overview = overview
	s.lastErr = nil
	s.mu.Unlock()

	s.metrics.SetCampaigns(len(overview.Ongoing), len(overview.Funded))
	logger.Info("Loaded %d funding campaigns (%d ongoing, %d funded)", len(overview.Campaigns), len(overview.Ongoing), len(overview.Funded))
	return overview, nil
}

// fetch 先读取全部 id，再批量读取每个众筹，结果顺序与 id 顺序一致
func (s *Service) fetch(ctx context.Context) ([]Campaign, error) {
	out, err := s.reader.Read(ctx, s.contracts.Factory.Call("getAllFundingIds"))
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("getAllFundingIds returned %d values", len(out))
	}
	ids, ok := out[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("getAllFundingIds returned unexpected type %T", out[0])
	}
	if len(ids) == 0 {
		return []Campaign{}, nil
	}

	calls := make([]chain.Call, len(ids))
	for i, id := range ids {
		calls[i] = s.contracts.Factory.Call("getFundingContractById", id)
	}

	results := s.reader.BatchRead(ctx, calls)
	campaigns := make([]Campaign, 0, len(results))
	for i, result := range results {
		if result.Err != nil {
			return nil, fmt.Errorf("failed to read funding %v: %w", ids[i], result.Err)
		}
		campaign, err := DecodeCampaign(result.Values)
		if err != nil {
			logger.Warn("Skipping funding %v: %v", ids[i], err)
			continue
		}
		campaigns = append(campaigns, campaign)
	}
	return campaigns, nil
}

// Overview 最近一次成功刷新的视图以及最近一次刷新的错误
func (s *Service) Overview() (Overview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overview, s.lastErr
}

// Campaign 在当前视图中查找众筹
func (s *Service) Campaign(address common.Address) (CampaignView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.overview.Campaigns {
		if c.ContractAddress == address {
			return c, true
		}
	}
	return CampaignView{}, false
}

// Invest 向指定众筹投资，完成后刷新视图
func (s *Service) Invest(ctx context.Context, fundingAddress common.Address, amount string) (Investment, error) {
	campaign, ok := s.Campaign(fundingAddress)
	if !ok {
		return Investment{FundingAddress: fundingAddress, Amount: amount, Stage: StageIdle}, ErrCampaignNotFound
	}

	investment, err := s.investor.Invest(ctx, Investment{
		FundingAddress: fundingAddress,
		FarmerAddress:  campaign.FarmerAddress,
		Amount:         amount,
	})
	if err != nil {
		return investment, err
	}

	if _, err := s.Refresh(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("Funding refresh after investment failed: %v", err)
	}
	return investment, nil
}

// InvestmentStatus 最近一次投资的进度
func (s *Service) InvestmentStatus(fundingAddress common.Address) (Investment, bool) {
	return s.investor.Status(fundingAddress)
}

// CancelInvestment 丢弃尚未提交的投资意图
func (s *Service) CancelInvestment(fundingAddress common.Address) error {
	return s.investor.Cancel(fundingAddress)
}

// CreateFunding 发起众筹请求，goal 为代币数量（十进制字符串）
func (s *Service) CreateFunding(ctx context.Context, goal string, durationDays uint64) (common.Hash, error) {
	scaled, err := ParseAmount(goal)
	if err != nil {
		return common.Hash{}, err
	}
	if durationDays == 0 {
		return common.Hash{}, fmt.Errorf("%w: duration must be at least one day", ErrInvalidAmount)
	}

	call := s.contracts.Factory.Call("createFundingContract", scaled, new(big.Int).SetUint64(durationDays))
	return s.transact(ctx, call)
}

// ReleaseFunds 将众筹资金释放给农户
func (s *Service) ReleaseFunds(ctx context.Context, fundingID uint64) (common.Hash, error) {
	return s.transact(ctx, s.contracts.Factory.Call("releaseFundsToFarmer", new(big.Int).SetUint64(fundingID)))
}

// VerifyFarmer 在工厂合约中认证农户地址
func (s *Service) VerifyFarmer(ctx context.Context, farmer common.Address) (common.Hash, error) {
	return s.transact(ctx, s.contracts.Factory.Call("verifyFarmer", farmer))
}

// IsVerifiedFarmer 农户地址是否已认证
func (s *Service) IsVerifiedFarmer(ctx context.Context, farmer common.Address) (bool, error) {
	values, err := s.reader.Read(ctx, s.contracts.Factory.Call("verifiedFarmers", farmer))
	if err != nil {
		return false, fmt.Errorf("failed to read farmer verification: %w", err)
	}
	if len(values) != 1 {
		return false, fmt.Errorf("verifiedFarmers returned %d values", len(values))
	}
	verified, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("verifiedFarmers returned unexpected type %T", values[0])
	}
	return verified, nil
}

// Mint 向指定地址铸造代币，amount 为代币数量（十进制字符串）
func (s *Service) Mint(ctx context.Context, recipient common.Address, amount string) (common.Hash, error) {
	scaled, err := ParseAmount(amount)
	if err != nil {
		return common.Hash{}, err
	}
	return s.transact(ctx, s.contracts.Token.Call("mint", recipient, scaled))
}

// ReportHarvest 农户上报收成价值及还款期限
func (s *Service) ReportHarvest(ctx context.Context, fundingAddress common.Address, value string, repaymentDays uint64) (common.Hash, error) {
	scaled, err := ParseAmount(value)
	if err != nil {
		return common.Hash{}, err
	}
	if repaymentDays == 0 {
		return common.Hash{}, fmt.Errorf("%w: repayment period must be at least one day", ErrInvalidAmount)
	}
	if _, ok := s.Campaign(fundingAddress); !ok {
		return common.Hash{}, ErrCampaignNotFound
	}

	call := s.contracts.Funding.At(fundingAddress).Call("reportHarvest", scaled, new(big.Int).SetUint64(repaymentDays))
	return s.transact(ctx, call)
}

// MakeRepayment 农户向众筹合约还款
func (s *Service) MakeRepayment(ctx context.Context, fundingAddress common.Address, amount string) (common.Hash, error) {
	scaled, err := ParseAmount(amount)
	if err != nil {
		return common.Hash{}, err
	}
	if _, ok := s.Campaign(fundingAddress); !ok {
		return common.Hash{}, ErrCampaignNotFound
	}
	return s.transact(ctx, s.contracts.Funding.At(fundingAddress).Call("makeRepayment", scaled))
}

// transact 发送交易并等待确认，成功后刷新视图
func (s *Service) transact(ctx context.Context, call chain.Call) (common.Hash, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultTxTimeout)
	defer cancel()

	hash, err := s.writer.Write(ctx, call)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%s failed: %w", call.Method, err)
	}
	if _, err := s.writer.WaitForReceipt(ctx, hash); err != nil {
		return hash, fmt.Errorf("%s failed: %w", call.Method, err)
	}

	if _, err := s.Refresh(ctx); err != nil {
		logger.Warn("Funding refresh after %s failed: %v", call.Method, err)
	}
	return hash, nil
}

// TokenBalance 查询代币余额
func (s *Service) TokenBalance(ctx context.Context, address common.Address) (Balance, error) {
	results := s.reader.BatchRead(ctx, []chain.Call{
		s.contracts.Token.Call("balanceOf", address),
		s.contracts.Token.Call("decimals"),
	})

	for _, r := range results {
		if r.Err != nil {
			return Balance{}, fmt.Errorf("failed to read token balance: %w", r.Err)
		}
		if len(r.Values) != 1 {
			return Balance{}, fmt.Errorf("failed to read token balance: unexpected result %v", r.Values)
		}
	}

	raw, ok := results[0].Values[0].(*big.Int)
	if !ok {
		return Balance{}, fmt.Errorf("balanceOf returned unexpected type %T", results[0].Values[0])
	}
	decimals, ok := results[1].Values[0].(uint8)
	if !ok {
		return Balance{}, fmt.Errorf("decimals returned unexpected type %T", results[1].Values[0])
	}

	return Balance{
		Address:  address,
		Raw:      raw,
		Decimals: decimals,
		Amount:   FormatDecimals(raw, decimals),
	}, nil
}
