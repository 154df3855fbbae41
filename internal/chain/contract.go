package chain

import (
	"fmt"

	"github.com/blues/antugrow/internal/config"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Contract 合约描述：名称、地址和ABI
type Contract struct {
	name    string
	address common.Address
	abi     abi.ABI
}

// NewContract 根据配置创建合约；未配置 abi_path 时使用内置ABI
func NewContract(name string, cfg config.ContractConfig) (*Contract, error) {
	if !common.IsHexAddress(cfg.Address) && name != FundingContract {
		return nil, fmt.Errorf("invalid address %q for contract %s", cfg.Address, name)
	}

	var (
		parsed abi.ABI
		err    error
	)
	if cfg.ABIPath != "" {
		parsed, err = LoadABI(cfg.ABIPath)
	} else {
		parsed, err = BuiltinABI(name)
	}
	if err != nil {
		return nil, err
	}

	return &Contract{
		name:    name,
		address: common.HexToAddress(cfg.Address),
		abi:     parsed,
	}, nil
}

// Name 合约名称
func (c *Contract) Name() string {
	return c.name
}

// Address 合约地址
func (c *Contract) Address() common.Address {
	return c.address
}

// ABI 合约ABI
func (c *Contract) ABI() abi.ABI {
	return c.abi
}

// At 以同一ABI指向另一个地址（每个众筹合约地址不同）
func (c *Contract) At(address common.Address) *Contract {
	return &Contract{name: c.name, address: address, abi: c.abi}
}

// Call 构造一次调用
func (c *Contract) Call(method string, args ...interface{}) Call {
	return Call{
		Contract: c.address,
		ABI:      c.abi,
		Method:   method,
		Args:     args,
	}
}
