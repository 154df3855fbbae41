package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// 合约名称
const (
	FactoryContract = "factory"
	TokenContract   = "token"
	FundingContract = "funding"
)

// 众筹工厂合约ABI（只保留用到的方法）
const factoryABI = `[
	{"type":"function","name":"getAllFundingIds","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint256[]"}]},
	{"type":"function","name":"getFundingContractById","stateMutability":"view",
	 "inputs":[{"name":"id","type":"uint256"}],
	 "outputs":[
		{"name":"contractAddress","type":"address"},
		{"name":"farmer","type":"address"},
		{"name":"fundingRequestId","type":"uint256"},
		{"name":"totalFundingGoal","type":"uint256"},
		{"name":"currentFunding","type":"uint256"},
		{"name":"createdAt","type":"uint256"},
		{"name":"isActive","type":"bool"}
	 ]},
	{"type":"function","name":"createFundingContract","stateMutability":"nonpayable",
	 "inputs":[{"name":"fundingGoal","type":"uint256"},{"name":"durationDays","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"releaseFundsToFarmer","stateMutability":"nonpayable",
	 "inputs":[{"name":"fundingId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"verifyFarmer","stateMutability":"nonpayable",
	 "inputs":[{"name":"farmer","type":"address"}],"outputs":[]},
	{"type":"function","name":"verifiedFarmers","stateMutability":"view",
	 "inputs":[{"name":"farmer","type":"address"}],"outputs":[{"name":"","type":"bool"}]}
]`

// ERC20 代币合约ABI
const tokenABI = `[
	{"type":"function","name":"approve","stateMutability":"nonpayable",
	 "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"mint","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]}
]`

// 单个众筹合约ABI
const fundingABI = `[
	{"type":"function","name":"invest","stateMutability":"nonpayable",
	 "inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"reportHarvest","stateMutability":"nonpayable",
	 "inputs":[{"name":"harvestValue","type":"uint256"},{"name":"repaymentDays","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"makeRepayment","stateMutability":"nonpayable",
	 "inputs":[{"name":"amount","type":"uint256"}],"outputs":[]}
]`

var builtinABIs = map[string]string{
	FactoryContract: factoryABI,
	TokenContract:   tokenABI,
	FundingContract: fundingABI,
}

// BuiltinABI 返回内置的合约ABI
func BuiltinABI(name string) (abi.ABI, error) {
	raw, ok := builtinABIs[name]
	if !ok {
		return abi.ABI{}, fmt.Errorf("no builtin ABI for contract %s", name)
	}
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse builtin ABI %s: %w", name, err)
	}
	return parsed, nil
}

// MustBuiltinABI 同 BuiltinABI，解析失败时 panic
func MustBuiltinABI(name string) abi.ABI {
	parsed, err := BuiltinABI(name)
	if err != nil {
		panic(err)
	}
	return parsed
}

// LoadABI 从文件加载ABI，支持完整编译输出（含 "abi" 字段）或纯ABI数组
func LoadABI(path string) (abi.ABI, error) {
	abiData, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to load ABI from %s: %w", path, err)
	}
	return ParseABI(abiData)
}

// ParseABI 解析ABI字节
func ParseABI(abiData []byte) (abi.ABI, error) {
	var compiledOutput struct {
		ABI json.RawMessage `json:"abi"`
	}

	// 先尝试编译输出格式
	if err := json.Unmarshal(abiData, &compiledOutput); err == nil && compiledOutput.ABI != nil {
		parsed, err := abi.JSON(bytes.NewReader(compiledOutput.ABI))
		if err != nil {
			return abi.ABI{}, fmt.Errorf("failed to parse ABI from compiled output: %w", err)
		}
		return parsed, nil
	}

	parsed, err := abi.JSON(bytes.NewReader(abiData))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse ABI: %w", err)
	}
	return parsed, nil
}
