package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/blues/antugrow/internal/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/panjf2000/ants/v2"
)

var (
	// ErrNoSigner 未配置签名私钥
	ErrNoSigner = errors.New("no signing key configured")
	// ErrTxReverted 交易被回滚
	ErrTxReverted = errors.New("transaction reverted")
)

// Backend 客户端依赖的链后端，*ethclient.Client 满足该接口
type Backend interface {
	bind.ContractBackend
	BlockNumber(ctx context.Context) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Call 一次合约方法调用
type Call struct {
	Contract common.Address
	ABI      abi.ABI
	Method   string
	Args     []interface{}
}

// Result 批量读取中单个调用的结果
type Result struct {
	Values []interface{}
	Err    error
}

// Client 合约读写客户端
type Client struct {
	backend       Backend
	privateKey    *ecdsa.PrivateKey
	chainID       *big.Int
	confirmations uint64
	pollInterval  time.Duration
	batchSize     int
}

// ClientOptions 客户端参数
type ClientOptions struct {
	PrivateKey    string
	ChainID       int64
	Confirmations uint64
	PollInterval  time.Duration
	BatchSize     int
}

// NewClient 基于链后端创建客户端
func NewClient(backend Backend, opts ClientOptions) (*Client, error) {
	c := &Client{
		backend:       backend,
		chainID:       big.NewInt(opts.ChainID),
		confirmations: opts.Confirmations,
		pollInterval:  opts.PollInterval,
		batchSize:     opts.BatchSize,
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 2 * time.Second
	}
	if c.batchSize <= 0 {
		c.batchSize = 8
	}

	// 解析私钥，未配置时客户端只读
	if key := strings.TrimPrefix(opts.PrivateKey, "0x"); key != "" {
		privateKey, err := crypto.HexToECDSA(key)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		c.privateKey = privateKey
	}

	return c, nil
}

// Address 签名账户地址，只读客户端返回零地址
func (c *Client) Address() common.Address {
	if c.privateKey == nil {
		return common.Address{}
	}
	return crypto.PubkeyToAddress(c.privateKey.PublicKey)
}

// CanSign 是否配置了签名私钥
func (c *Client) CanSign() bool {
	return c.privateKey != nil
}

func (c *Client) bound(call Call) *bind.BoundContract {
	return bind.NewBoundContract(call.Contract, call.ABI, c.backend, c.backend, c.backend)
}

// Read 调用只读方法
func (c *Client) Read(ctx context.Context, call Call) ([]interface{}, error) {
	var out []interface{}
	if err := c.bound(call).Call(&bind.CallOpts{Context: ctx}, &out, call.Method, call.Args...); err != nil {
		return nil, fmt.Errorf("failed to call %s on %s: %w", call.Method, call.Contract.Hex(), err)
	}
	return out, nil
}

// BatchRead 并发执行多个只读调用，结果顺序与入参一致
func (c *Client) BatchRead(ctx context.Context, calls []Call) []Result {
	results := make([]Result, len(calls))
	if len(calls) == 0 {
		return results
	}

	size := c.batchSize
	if len(calls) < size {
		size = len(calls)
	}

	pool, err := ants.NewPool(size)
	if err != nil {
		for i := range results {
			results[i].Err = fmt.Errorf("failed to create pool for %d calls: %w", len(calls), err)
		}
		return results
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, call := range calls {
		i, call := i, call
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			values, err := c.Read(ctx, call)
			results[i] = Result{Values: values, Err: err}
		}); err != nil {
			wg.Done()
			results[i].Err = fmt.Errorf("failed to submit call %s: %w", call.Method, err)
		}
	}
	wg.Wait()

	return results
}

// Write 发送交易，返回交易哈希
func (c *Client) Write(ctx context.Context, call Call) (common.Hash, error) {
	if c.privateKey == nil {
		return common.Hash{}, ErrNoSigner
	}

	auth, err := bind.NewKeyedTransactorWithChainID(c.privateKey, c.chainID)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to create transactor: %w", err)
	}
	auth.Context = ctx

	tx, err := c.bound(call).Transact(auth, call.Method, call.Args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to send %s to %s: %w", call.Method, call.Contract.Hex(), err)
	}

	logger.Info("Sent %s to %s, tx: %s", call.Method, call.Contract.Hex(), tx.Hash().Hex())
	return tx.Hash(), nil
}

// WaitForReceipt 等待交易上链并达到确认块数
func (c *Client) WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.confirmedReceipt(ctx, txHash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// confirmedReceipt 返回已确认的回执；尚未确认时返回 nil, nil
func (c *Client) confirmedReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	receipt, err := c.backend.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		logger.Debug("Transaction %s not mined yet", txHash.Hex())
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt for %s: %w", txHash.Hex(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s", ErrTxReverted, txHash.Hex())
	}

	latest, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get block number: %w", err)
	}

	mined := receipt.BlockNumber.Uint64()
	if latest+1 < mined+c.confirmations {
		logger.Debug("Transaction %s mined at %d, head %d, waiting for %d confirmations", txHash.Hex(), mined, latest, c.confirmations)
		return nil, nil
	}
	return receipt, nil
}

// BlockNumber 当前区块号
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.backend.BlockNumber(ctx)
}
