package funding

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// TokenDecimals 代币精度
const TokenDecimals = 18

// ErrInvalidAmount 金额不是正数或格式错误
var ErrInvalidAmount = errors.New("invalid amount")

// ParseUnits 十进制字符串按 10^18 放大为整数
func ParseUnits(value string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}
	if strings.ContainsAny(value, "eE") {
		return nil, fmt.Errorf("%w: %q must be a plain decimal", ErrInvalidAmount, value)
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, value)
	}
	if !d.Equal(d.Truncate(TokenDecimals)) {
		return nil, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, value, TokenDecimals)
	}
	return d.Shift(TokenDecimals).BigInt(), nil
}

// ParseAmount 解析用户输入的投资金额，必须为正数
func ParseAmount(value string) (*big.Int, error) {
	scaled, err := ParseUnits(value)
	if err != nil {
		return nil, err
	}
	if scaled.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
	}
	return scaled, nil
}

// FormatUnits 按 10^18 缩小为十进制字符串
func FormatUnits(value *big.Int) string {
	return FormatDecimals(value, TokenDecimals)
}

// FormatDecimals 按指定精度缩小为十进制字符串
func FormatDecimals(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).String()
}
