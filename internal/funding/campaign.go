package funding

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ErrMalformedCampaign 链上返回的众筹元组不符合预期
var ErrMalformedCampaign = errors.New("malformed campaign tuple")

// campaignFields getFundingContractById 返回值个数
const campaignFields = 7

// Campaign 链上众筹请求
type Campaign struct {
	ContractAddress  common.Address `json:"contract_address"`
	FarmerAddress    common.Address `json:"farmer_address"`
	FundingRequestID uint64         `json:"funding_request_id"`
	TotalFundingGoal *big.Int       `json:"total_funding_goal"`
	CurrentFunding   *big.Int       `json:"current_funding"`
	CreatedAt        uint64         `json:"created_at"`
	IsActive         bool           `json:"is_active"`
}

// DecodeCampaign 将 [address, address, uint, uint256, uint256, uint256, bool] 解码为 Campaign
func DecodeCampaign(values []interface{}) (Campaign, error) {
	if len(values) != campaignFields {
		return Campaign{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedCampaign, campaignFields, len(values))
	}

	var (
		c   Campaign
		err error
		ok  bool
	)
	if c.ContractAddress, ok = values[0].(common.Address); !ok {
		return Campaign{}, fieldError("contractAddress", values[0])
	}
	if c.FarmerAddress, ok = values[1].(common.Address); !ok {
		return Campaign{}, fieldError("farmerAddress", values[1])
	}
	if c.FundingRequestID, err = uint64Field("fundingRequestId", values[2]); err != nil {
		return Campaign{}, err
	}
	if c.TotalFundingGoal, err = bigField("totalFundingGoal", values[3]); err != nil {
		return Campaign{}, err
	}
	if c.CurrentFunding, err = bigField("currentFunding", values[4]); err != nil {
		return Campaign{}, err
	}
	if c.CreatedAt, err = uint64Field("createdAt", values[5]); err != nil {
		return Campaign{}, err
	}
	if c.IsActive, ok = values[6].(bool); !ok {
		return Campaign{}, fieldError("isActive", values[6])
	}
	return c, nil
}

func bigField(name string, v interface{}) (*big.Int, error) {
	n, ok := v.(*big.Int)
	if !ok || n == nil || n.Sign() < 0 {
		return nil, fieldError(name, v)
	}
	return new(big.Int).Set(n), nil
}

func uint64Field(name string, v interface{}) (uint64, error) {
	switch n := v.(type) {
	case *big.Int:
		if n != nil && n.IsUint64() {
			return n.Uint64(), nil
		}
	case uint64:
		return n, nil
	}
	return 0, fieldError(name, v)
}

func fieldError(name string, v interface{}) error {
	return fmt.Errorf("%w: field %s has unexpected value %v (%T)", ErrMalformedCampaign, name, v, v)
}
