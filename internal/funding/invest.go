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
)

// Stage 投资流程阶段
type Stage string

const (
	StageIdle      Stage = "idle"
	StageApproving Stage = "approving"
	StageInvesting Stage = "investing"
	StageDone      Stage = "done"
	StageFailed    Stage = "failed"
)

var (
	// ErrSelfInvestment 农户不能投资自己的众筹
	ErrSelfInvestment = errors.New("farmers cannot invest in their own funding request")
	// ErrInvestmentInProgress 同一众筹已有进行中的投资
	ErrInvestmentInProgress = errors.New("an investment is already in progress for this funding contract")
)

// defaultTxTimeout 交易提交到确认的最长等待时间
const defaultTxTimeout = 10 * time.Minute

// Investment 一次投资意图及其进度
type Investment struct {
	FundingAddress common.Address `json:"funding_address"`
	FarmerAddress  common.Address `json:"farmer_address"`
	Investor       common.Address `json:"investor"`
	Amount         string         `json:"amount"`
	ScaledAmount   *big.Int       `json:"scaled_amount,omitempty"`
	Stage          Stage          `json:"stage"`
	Error          string         `json:"error,omitempty"`
	Blocked        string         `json:"blocked,omitempty"`
	ApproveTx      string         `json:"approve_tx,omitempty"`
	InvestTx       string         `json:"invest_tx,omitempty"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Active 是否已提交交易且未结束
func (i Investment) Active() bool {
	return i.Stage == StageApproving || i.Stage == StageInvesting
}

// Investor 执行 approve -> invest 两步交易
type Investor struct {
	writer  Writer
	token   *chain.Contract
	funding *chain.Contract
	account common.Address
	timeout time.Duration
	metrics *metrics.Metrics

	mu      sync.Mutex
	records map[common.Address]Investment
}

// NewInvestor 创建投资执行器，account 为签名账户
func NewInvestor(writer Writer, token, funding *chain.Contract, account common.Address, m *metrics.Metrics) *Investor {
	return &Investor{
		writer:  writer,
		token:   token,
		funding: funding,
		account: account,
		timeout: defaultTxTimeout,
		metrics: m,
		records: make(map[common.Address]Investment),
	}
}

// Invest 按顺序执行投资：校验 -> approve 并确认 -> invest 并确认。
// 交易一旦提交就不再受 ctx 取消影响，只受超时限制。
func (inv *Investor) Invest(ctx context.Context, intent Investment) (Investment, error) {
	intent.Investor = inv.account
	intent.Stage = StageIdle
	intent.Error = ""
	intent.Blocked = ""
	intent.ApproveTx = ""
	intent.InvestTx = ""
	intent.UpdatedAt = time.Now()

	if intent.Investor == intent.FarmerAddress {
		intent.Blocked = ErrSelfInvestment.Error()
		return intent, ErrSelfInvestment
	}

	scaled, err := ParseAmount(intent.Amount)
	if err != nil {
		intent.Error = err.Error()
		return intent, err
	}
	intent.ScaledAmount = scaled

	if !inv.begin(intent) {
		return intent, ErrInvestmentInProgress
	}

	// 提交前取消则丢弃意图
	if err := ctx.Err(); err != nil {
		inv.discard(intent.FundingAddress)
		return intent, err
	}

	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), inv.timeout)
	defer cancel()

	intent = inv.advance(intent, StageApproving)
	approveTx, err := inv.writer.Write(txCtx, inv.token.Call("approve", intent.FundingAddress, scaled))
	if err != nil {
		return inv.fail(intent, "approve", err)
	}
	intent.ApproveTx = approveTx.Hex()
	inv.store(intent)

	if _, err := inv.writer.WaitForReceipt(txCtx, approveTx); err != nil {
		return inv.fail(intent, "approve", err)
	}

	intent = inv.advance(intent, StageInvesting)
	investTx, err := inv.writer.Write(txCtx, inv.funding.At(intent.FundingAddress).Call("invest", scaled))
	if err != nil {
		return inv.fail(intent, "invest", err)
	}
	intent.InvestTx = investTx.Hex()
	inv.store(intent)

	if _, err := inv.writer.WaitForReceipt(txCtx, investTx); err != nil {
		return inv.fail(intent, "invest", err)
	}

	intent = inv.advance(intent, StageDone)
	inv.metrics.InvestmentFinished(string(StageDone))
	logger.Info("Investment of %s into %s completed, tx: %s", intent.Amount, intent.FundingAddress.Hex(), intent.InvestTx)
	return intent, nil
}

// Status 查询某众筹最近一次投资
func (inv *Investor) Status(fundingAddress common.Address) (Investment, bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	record, ok := inv.records[fundingAddress]
	return record, ok
}

// Cancel 丢弃未提交或已结束的投资意图；交易已提交时返回 ErrInvestmentInProgress
func (inv *Investor) Cancel(fundingAddress common.Address) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if record, ok := inv.records[fundingAddress]; ok && record.Active() {
		return ErrInvestmentInProgress
	}
	delete(inv.records, fundingAddress)
	return nil
}

// begin 占用该众筹的投资槽位
func (inv *Investor) begin(intent Investment) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if record, ok := inv.records[intent.FundingAddress]; ok && record.Active() {
		return false
	}
	// 占位记录视为进行中
	intent.Stage = StageApproving
	inv.records[intent.FundingAddress] = intent
	return true
}

func (inv *Investor) discard(fundingAddress common.Address) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	delete(inv.records, fundingAddress)
}

func (inv *Investor) advance(intent Investment, stage Stage) Investment {
	intent.Stage = stage
	intent.UpdatedAt = time.Now()
	inv.store(intent)
	logger.Debug("Investment into %s moved to %s", intent.FundingAddress.Hex(), stage)
	return intent
}

func (inv *Investor) store(intent Investment) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.records[intent.FundingAddress] = intent
}

func (inv *Investor) fail(intent Investment, step string, err error) (Investment, error) {
	err = fmt.Errorf("%s failed: %w", step, err)
	intent.Error = err.Error()
	intent = inv.advance(intent, StageFailed)
	inv.metrics.InvestmentFinished(string(StageFailed))
	logger.Error("Investment into %s failed: %v", intent.FundingAddress.Hex(), err)
	return intent, err
}
