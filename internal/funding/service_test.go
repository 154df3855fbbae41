package funding

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/blues/antugrow/internal/metrics"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, fc *fakeChain) *Service {
	return NewService(fc, fc, testContracts(t), signer, metrics.New())
}

func TestRefreshBuildsOverview(t *testing.T) {
	fc := newFakeChain()
	fc.addCampaign(1, 1000, 500, 100)
	fc.addCampaign(2, 1000, 1000, 50)
	fc.addCampaign(3, 500, 0, 200)
	svc := newTestService(t, fc)

	overview, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, overview.RefreshedAt.IsZero())

	require.Len(t, overview.Campaigns, 3)
	for i, want := range []uint64{1, 2, 3} {
		assert.Equal(t, want, overview.Campaigns[i].FundingRequestID)
	}
	require.Len(t, overview.Ongoing, 2)
	assert.Equal(t, uint64(3), overview.Ongoing[0].FundingRequestID)
	assert.Equal(t, uint64(1), overview.Ongoing[1].FundingRequestID)
	require.Len(t, overview.Funded, 1)
	assert.Equal(t, uint64(2), overview.Funded[0].FundingRequestID)

	cached, lastErr := svc.Overview()
	assert.NoError(t, lastErr)
	assert.Equal(t, overview, cached)
}

func TestRefreshSkipsMalformedTuples(t *testing.T) {
	fc := newFakeChain()
	fc.addCampaign(1, 1000, 500, 100)
	fc.addCampaign(2, 1000, 100, 300)
	fc.tuples[2] = fc.tuples[2][:5]
	svc := newTestService(t, fc)

	overview, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, overview.Campaigns, 1)
	assert.Equal(t, uint64(1), overview.Campaigns[0].FundingRequestID)
}

func TestRefreshEmpty(t *testing.T) {
	svc := newTestService(t, newFakeChain())
	overview, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, overview.Campaigns)
	assert.NotNil(t, overview.Ongoing)
}

func TestRefreshErrorKeepsPreviousOverview(t *testing.T) {
	fc := newFakeChain()
	fc.addCampaign(1, 1000, 500, 100)
	svc := newTestService(t, fc)

	first, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	fc.mu.Lock()
	fc.readErr = errors.New("rpc unavailable")
	fc.mu.Unlock()

	got, err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc unavailable")
	assert.Equal(t, first, got)

	cached, lastErr := svc.Overview()
	assert.Equal(t, first, cached)
	assert.Error(t, lastErr)

	fc.mu.Lock()
	fc.readErr = nil
	fc.mu.Unlock()
	_, err = svc.Refresh(context.Background())
	require.NoError(t, err)
	_, lastErr = svc.Overview()
	assert.NoError(t, lastErr)
}

func TestRefreshFailsWhenAnyDetailReadFails(t *testing.T) {
	fc := newFakeChain()
	fc.addCampaign(1, 1000, 500, 100)
	fc.ids = append(fc.ids, big.NewInt(9))
	svc := newTestService(t, fc)

	_, err := svc.Refresh(context.Background())
	assert.Error(t, err)
	overview, _ := svc.Overview()
	assert.Empty(t, overview.Campaigns)
}

func TestServiceInvest(t *testing.T) {
	fc := newFakeChain()
	fc.addCampaign(1, 1000, 500, 100)
	svc := newTestService(t, fc)

	_, err := svc.Invest(context.Background(), common.BigToAddress(big.NewInt(0x1001)), "1")
	assert.ErrorIs(t, err, ErrCampaignNotFound)

	_, err = svc.Refresh(context.Background())
	require.NoError(t, err)

	got, err := svc.Invest(context.Background(), common.BigToAddress(big.NewInt(0x1001)), "10")
	require.NoError(t, err)
	assert.Equal(t, StageDone, got.Stage)
	assert.Equal(t, farmer, got.FarmerAddress)
	assert.Equal(t, []string{"approve", "invest"}, fc.methods())

	status, ok := svc.InvestmentStatus(common.BigToAddress(big.NewInt(0x1001)))
	require.True(t, ok)
	assert.Equal(t, StageDone, status.Stage)
	require.NoError(t, svc.CancelInvestment(common.BigToAddress(big.NewInt(0x1001))))
}

func TestServiceInvestBlocksFarmer(t *testing.T) {
	fc := newFakeChain()
	fc.addCampaign(1, 1000, 500, 100)
	svc := NewService(fc, fc, testContracts(t), farmer, nil)
	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	got, err := svc.Invest(context.Background(), common.BigToAddress(big.NewInt(0x1001)), "10")
	assert.ErrorIs(t, err, ErrSelfInvestment)
	assert.Equal(t, StageIdle, got.Stage)
	assert.NotEmpty(t, got.Blocked)
	assert.Empty(t, fc.methods())
}

func TestCreateFundingAndRelease(t *testing.T) {
	fc := newFakeChain()
	svc := newTestService(t, fc)

	_, err := svc.CreateFunding(context.Background(), "0", 30)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.CreateFunding(context.Background(), "100", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Empty(t, fc.methods())

	hash, err := svc.CreateFunding(context.Background(), "100", 30)
	require.NoError(t, err)
	assert.NotEqual(t, common.Hash{}, hash)

	hash, err = svc.ReleaseFunds(context.Background(), 4)
	require.NoError(t, err)
	assert.NotEqual(t, common.Hash{}, hash)

	writes := fc.written()
	require.Len(t, writes, 2)
	assert.Equal(t, "createFundingContract", writes[0].Method)
	assert.Equal(t, factoryAddr, writes[0].Contract)
	assert.Equal(t, "100000000000000000000", writes[0].Args[0].(*big.Int).String())
	assert.Equal(t, int64(30), writes[0].Args[1].(*big.Int).Int64())
	assert.Equal(t, "releaseFundsToFarmer", writes[1].Method)
	assert.Equal(t, int64(4), writes[1].Args[0].(*big.Int).Int64())

	fc.receiptErr["releaseFundsToFarmer"] = errors.New("reverted")
	_, err = svc.ReleaseFunds(context.Background(), 5)
	assert.Error(t, err)
}

func TestTokenBalance(t *testing.T) {
	fc := newFakeChain()
	fc.balance, _ = new(big.Int).SetString("1234500000000000000000", 10)
	svc := newTestService(t, fc)

	balance, err := svc.TokenBalance(context.Background(), signer)
	require.NoError(t, err)
	assert.Equal(t, uint8(18), balance.Decimals)
	assert.Equal(t, "1234.5", balance.Amount)
	assert.Equal(t, signer, balance.Address)

	fc.readErr = errors.New("rpc unavailable")
	_, err = svc.TokenBalance(context.Background(), signer)
	assert.Error(t, err)
}

func TestVerifyFarmer(t *testing.T) {
	fc := newFakeChain()
	svc := newTestService(t, fc)

	verified, err := svc.IsVerifiedFarmer(context.Background(), farmer)
	require.NoError(t, err)
	assert.False(t, verified)

	hash, err := svc.VerifyFarmer(context.Background(), farmer)
	require.NoError(t, err)
	assert.NotEqual(t, common.Hash{}, hash)

	writes := fc.written()
	require.Len(t, writes, 1)
	assert.Equal(t, "verifyFarmer", writes[0].Method)
	assert.Equal(t, factoryAddr, writes[0].Contract)
	assert.Equal(t, farmer, writes[0].Args[0])

	fc.mu.Lock()
	fc.verified[farmer] = true
	fc.mu.Unlock()
	verified, err = svc.IsVerifiedFarmer(context.Background(), farmer)
	require.NoError(t, err)
	assert.True(t, verified)

	fc.mu.Lock()
	fc.readErr = errors.New("rpc unavailable")
	fc.mu.Unlock()
	_, err = svc.IsVerifiedFarmer(context.Background(), farmer)
	assert.Error(t, err)
}

func TestMint(t *testing.T) {
	fc := newFakeChain()
	svc := newTestService(t, fc)

	_, err := svc.Mint(context.Background(), signer, "0")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.Mint(context.Background(), signer, "1e3")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Empty(t, fc.methods())

	_, err = svc.Mint(context.Background(), signer, "12.5")
	require.NoError(t, err)
	writes := fc.written()
	require.Len(t, writes, 1)
	assert.Equal(t, "mint", writes[0].Method)
	assert.Equal(t, tokenAddr, writes[0].Contract)
	assert.Equal(t, signer, writes[0].Args[0])
	assert.Equal(t, "12500000000000000000", writes[0].Args[1].(*big.Int).String())
}

func TestReportHarvestAndRepayment(t *testing.T) {
	fc := newFakeChain()
	fc.addCampaign(1, 1000, 1000, 100)
	svc := newTestService(t, fc)
	campaign := common.BigToAddress(big.NewInt(0x1001))
	unknown := common.HexToAddress("0x00000000000000000000000000000000000000dd")

	_, err := svc.ReportHarvest(context.Background(), campaign, "1500", 30)
	assert.ErrorIs(t, err, ErrCampaignNotFound)

	_, err = svc.Refresh(context.Background())
	require.NoError(t, err)

	_, err = svc.ReportHarvest(context.Background(), campaign, "-5", 30)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.ReportHarvest(context.Background(), campaign, "1500", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.MakeRepayment(context.Background(), campaign, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.MakeRepayment(context.Background(), unknown, "10")
	assert.ErrorIs(t, err, ErrCampaignNotFound)
	assert.Empty(t, fc.methods())

	_, err = svc.ReportHarvest(context.Background(), campaign, "1500", 30)
	require.NoError(t, err)
	_, err = svc.MakeRepayment(context.Background(), campaign, "250.75")
	require.NoError(t, err)

	writes := fc.written()
	require.Len(t, writes, 2)
	assert.Equal(t, "reportHarvest", writes[0].Method)
	assert.Equal(t, campaign, writes[0].Contract)
	assert.Equal(t, "1500000000000000000000", writes[0].Args[0].(*big.Int).String())
	assert.Equal(t, int64(30), writes[0].Args[1].(*big.Int).Int64())
	assert.Equal(t, "makeRepayment", writes[1].Method)
	assert.Equal(t, campaign, writes[1].Contract)
	assert.Equal(t, "250750000000000000000", writes[1].Args[0].(*big.Int).String())

	fc.receiptErr["makeRepayment"] = errors.New("reverted")
	_, err = svc.MakeRepayment(context.Background(), campaign, "1")
	assert.Error(t, err)
}
