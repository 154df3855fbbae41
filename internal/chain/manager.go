package chain

import (
	"context"
	"fmt"
	"sync"

	"github.com/blues/antugrow/internal/config"
	"github.com/blues/antugrow/internal/logger"
	"github.com/ethereum/go-ethereum/ethclient"
)

var supportedTypes = []string{"ethereum", "polygon", "bsc", "arbitrum", "optimism", "scroll"}

// Manager 单链管理器：持有RPC连接、读写客户端和已注册的合约
type Manager struct {
	mu        sync.RWMutex
	contracts map[string]*Contract
	eth       *ethclient.Client
	client    *Client
	config    config.ChainConfig
}

// NewManager 连接链节点并注册合约
func NewManager(cfg config.ChainConfig) (*Manager, error) {
	eth, err := createChainClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize client: %w", err)
	}

	client, err := NewClient(eth, ClientOptions{
		PrivateKey:    cfg.PrivateKey,
		ChainID:       cfg.ChainId,
		Confirmations: cfg.Confirmations,
		PollInterval:  cfg.PollInterval,
		BatchSize:     cfg.BatchSize,
	})
	if err != nil {
		eth.Close()
		return nil, err
	}

	m, err := NewManagerWithClient(client, cfg)
	if err != nil {
		eth.Close()
		return nil, err
	}
	m.eth = eth
	return m, nil
}

// NewManagerWithClient 使用已有客户端创建管理器
func NewManagerWithClient(client *Client, cfg config.ChainConfig) (*Manager, error) {
	m := &Manager{
		contracts: make(map[string]*Contract),
		client:    client,
		config:    cfg,
	}
	if err := m.initContracts(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize contracts: %w", err)
	}
	return m, nil
}

// initContracts 初始化合约；funding 合约地址按众筹动态确定，不要求配置
func (m *Manager) initContracts(cfg config.ChainConfig) error {
	for _, name := range []string{FactoryContract, TokenContract, FundingContract} {
		contractCfg, ok := cfg.Contracts[name]
		if ok && !contractCfg.Enabled {
			logger.Info("Skipping disabled contract: %s", name)
			continue
		}
		if !ok && name != FundingContract {
			return fmt.Errorf("contract %s is not configured", name)
		}

		contract, err := NewContract(name, contractCfg)
		if err != nil {
			return fmt.Errorf("failed to create contract %s: %w", name, err)
		}
		m.contracts[name] = contract
		logger.Info("Registered contract %s at %s", name, contract.Address().Hex())
	}
	return nil
}

// createChainClient 创建链客户端
func createChainClient(cfg config.ChainConfig) (*ethclient.Client, error) {
	if cfg.RpcUrl == "" {
		return nil, fmt.Errorf("no RPC URL configured")
	}

	isSupported := false
	for _, supportedType := range supportedTypes {
		if cfg.ChainType == supportedType {
			isSupported = true
			break
		}
	}
	if !isSupported {
		return nil, fmt.Errorf("unsupported chain type %s, supported types: %v", cfg.ChainType, supportedTypes)
	}

	logger.Info("Creating %s client connection (RPC: %s)", cfg.ChainType, cfg.RpcUrl)
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.ChainType, err)
	}

	if _, err := client.BlockNumber(context.TODO()); err != nil {
		client.Close()
		return nil, fmt.Errorf("client connection test failed (%s): %w", cfg.ChainType, err)
	}

	return client, nil
}

// Client 读写客户端
func (m *Manager) Client() *Client {
	return m.client
}

// GetContract 获取指定合约
func (m *Manager) GetContract(name string) (*Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	contract, exists := m.contracts[name]
	if !exists {
		return nil, fmt.Errorf("contract %s not found", name)
	}
	return contract, nil
}

// GetHealthStatus 获取健康状态
func (m *Manager) GetHealthStatus(ctx context.Context) map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	health := map[string]interface{}{
		"chain_type":    m.config.ChainType,
		"chain_id":      m.config.ChainId,
		"client_status": "connected",
		"signer":        m.client.Address().Hex(),
	}

	if block, err := m.client.BlockNumber(ctx); err != nil {
		health["client_status"] = "disconnected"
	} else {
		health["block_number"] = block
	}

	contracts := make(map[string]string, len(m.contracts))
	for name, contract := range m.contracts {
		contracts[name] = contract.Address().Hex()
	}
	health["contracts"] = contracts

	return health
}

// Close 关闭管理器
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.eth != nil {
		m.eth.Close()
	}
	logger.Info("Chain manager closed")
}
