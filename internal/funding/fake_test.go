package funding

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/blues/antugrow/internal/chain"
	"github.com/blues/antugrow/internal/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

var (
	signer      = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	farmer      = common.HexToAddress("0x00000000000000000000000000000000000000fa")
	factoryAddr = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	tokenAddr   = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

// fakeChain 同时实现 Reader 和 Writer 的内存链
type fakeChain struct {
	mu sync.Mutex

	ids      []*big.Int
	tuples   map[uint64][]interface{}
	readErr  error
	balance  *big.Int
	verified map[common.Address]bool

	writes        []chain.Call
	writeErr      map[string]error
	receiptErr    map[string]error
	txMethod      map[common.Hash]string
	receiptGate   chan struct{}
	waitingForTx  chan string
	receiptChecks int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		tuples:     make(map[uint64][]interface{}),
		verified:   make(map[common.Address]bool),
		writeErr:   make(map[string]error),
		receiptErr: make(map[string]error),
		txMethod:   make(map[common.Hash]string),
	}
}

func tuple(id uint64, goal, current int64, created uint64) []interface{} {
	return []interface{}{
		common.BigToAddress(new(big.Int).SetUint64(0x1000 + id)), farmer,
		new(big.Int).SetUint64(id), big.NewInt(goal), big.NewInt(current),
		new(big.Int).SetUint64(created), true,
	}
}

func (f *fakeChain) addCampaign(id uint64, goal, current int64, created uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, new(big.Int).SetUint64(id))
	f.tuples[id] = tuple(id, goal, current, created)
}

func (f *fakeChain) Read(ctx context.Context, call chain.Call) ([]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}

	switch call.Method {
	case "getAllFundingIds":
		ids := make([]*big.Int, len(f.ids))
		copy(ids, f.ids)
		return []interface{}{ids}, nil
	case "getFundingContractById":
		values, ok := f.tuples[call.Args[0].(*big.Int).Uint64()]
		if !ok {
			return nil, errors.New("execution reverted")
		}
		return values, nil
	case "balanceOf":
		return []interface{}{f.balance}, nil
	case "decimals":
		return []interface{}{uint8(18)}, nil
	case "verifiedFarmers":
		return []interface{}{f.verified[call.Args[0].(common.Address)]}, nil
	}
	return nil, fmt.Errorf("unexpected read %s", call.Method)
}

func (f *fakeChain) BatchRead(ctx context.Context, calls []chain.Call) []chain.Result {
	results := make([]chain.Result, len(calls))
	for i, call := range calls {
		values, err := f.Read(ctx, call)
		results[i] = chain.Result{Values: values, Err: err}
	}
	return results
}

func (f *fakeChain) Write(ctx context.Context, call chain.Call) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, call)
	if err := f.writeErr[call.Method]; err != nil {
		return common.Hash{}, err
	}
	hash := common.BigToHash(big.NewInt(int64(len(f.writes))))
	f.txMethod[hash] = call.Method
	return hash, nil
}

func (f *fakeChain) WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	method := f.txMethod[txHash]
	gate, waiting := f.receiptGate, f.waitingForTx
	f.receiptChecks++
	err := f.receiptErr[method]
	f.mu.Unlock()

	if waiting != nil {
		waiting <- method
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &types.Receipt{TxHash: txHash, Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(1)}, nil
}

func (f *fakeChain) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.writes))
	for i, w := range f.writes {
		out[i] = w.Method
	}
	return out
}

func (f *fakeChain) written() []chain.Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chain.Call(nil), f.writes...)
}

func testContracts(t *testing.T) Contracts {
	t.Helper()
	factory, err := chain.NewContract(chain.FactoryContract, config.ContractConfig{Address: factoryAddr.Hex()})
	require.NoError(t, err)
	token, err := chain.NewContract(chain.TokenContract, config.ContractConfig{Address: tokenAddr.Hex()})
	require.NoError(t, err)
	funding, err := chain.NewContract(chain.FundingContract, config.ContractConfig{})
	require.NoError(t, err)
	return Contracts{Factory: factory, Token: token, Funding: funding}
}
