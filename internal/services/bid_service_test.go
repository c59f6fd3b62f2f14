package services

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"dao-auction/internal/domain"

	"github.com/stretchr/testify/require"
)

const (
	testChainID   = int64(1)
	testTokenAddr = "0x1111111111111111111111111111111111111111"
	testBidder    = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Fatal(string, ...interface{}) {}

type fakeReader struct {
	mu     sync.Mutex
	params []*domain.AuctionParams
	err    error
	calls  int
}

func (f *fakeReader) AuctionParams(ctx context.Context) (*domain.AuctionParams, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	i := f.calls
	if i >= len(f.params) {
		i = len(f.params) - 1
	}
	f.calls++
	return f.params[i], nil
}

type fakeSubmitter struct {
	mu      sync.Mutex
	calls   int
	err     error
	entered chan struct{}
	release chan struct{}
}

func (f *fakeSubmitter) SubmitBid(ctx context.Context, tokenID, amount *big.Int) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.entered != nil {
		close(f.entered)
		f.entered = nil
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return "", f.err
	}
	return "0xdeadbeef", nil
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeStats struct {
	avg *big.Int
	err error
}

func (f *fakeStats) AverageWinningBid(ctx context.Context, chainID int64, tokenAddress string) (*big.Int, error) {
	return f.avg, f.err
}

type fakeCache struct {
	mu                 sync.Mutex
	bidList            []*domain.Bid
	avg                *big.Int
	bidListSets        int
	avgSets            int
	bidListInvalidated int
	avgInvalidated     int
}

func (f *fakeCache) GetBidList(ctx context.Context, chainID int64, tokenAddress, tokenID string) ([]*domain.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bidList, nil
}

func (f *fakeCache) SetBidList(ctx context.Context, chainID int64, tokenAddress, tokenID string, bids []*domain.Bid) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bidList = bids
	f.bidListSets++
	return nil
}

func (f *fakeCache) InvalidateBidList(ctx context.Context, chainID int64, tokenAddress, tokenID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bidList = nil
	f.bidListInvalidated++
	return nil
}

func (f *fakeCache) GetAverageBid(ctx context.Context, chainID int64, tokenAddress string) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.avg, nil
}

func (f *fakeCache) SetAverageBid(ctx context.Context, chainID int64, tokenAddress string, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.avg = amount
	f.avgSets++
	return nil
}

func (f *fakeCache) InvalidateAverageBid(ctx context.Context, chainID int64, tokenAddress string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.avg = nil
	f.avgInvalidated++
	return nil
}

// defaultParams: reserve 1 ETH, increment 10%. With a 2 ETH highest bid the
// minimum is 2.2 ETH and, absent an average, the warning threshold is 11 ETH.
func defaultParams() *domain.AuctionParams {
	return &domain.AuctionParams{ReservePrice: eth("1"), MinBidIncrementPct: 10}
}

func testRequest(amount *big.Int, confirmed bool) *domain.BidRequest {
	return &domain.BidRequest{
		ChainID:      testChainID,
		TokenAddress: testTokenAddr,
		TokenID:      big.NewInt(42),
		Bidder:       testBidder,
		Amount:       amount,
		HighestBid:   eth("2"),
		Confirmed:    confirmed,
	}
}

func ethFrac(whole string, tenths int64) *big.Int {
	v := eth(whole)
	return v.Add(v, new(big.Int).Mul(big.NewInt(tenths), new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil)))
}

func TestPlaceBid_BelowMinimumDisablesSubmission(t *testing.T) {
	reader := &fakeReader{params: []*domain.AuctionParams{defaultParams()}}
	submitter := &fakeSubmitter{}
	cache := &fakeCache{}
	service := NewBidService(reader, submitter, &fakeStats{}, cache, nopLogger{})

	// 2.1 ETH is under the 2.2 ETH minimum
	result, err := service.PlaceBid(context.Background(), testRequest(ethFrac("2", 1), false))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeBelowMinimum, result.Outcome)
	require.Zero(t, ethFrac("2", 2).Cmp(result.MinimumBid))
	require.Zero(t, submitter.callCount())
	require.Zero(t, cache.bidListInvalidated)
}

func TestPlaceBid_ExactMinimumSubmits(t *testing.T) {
	reader := &fakeReader{params: []*domain.AuctionParams{defaultParams()}}
	submitter := &fakeSubmitter{}
	service := NewBidService(reader, submitter, &fakeStats{}, &fakeCache{}, nopLogger{})

	result, err := service.PlaceBid(context.Background(), testRequest(ethFrac("2", 2), false))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeSubmitted, result.Outcome)
	require.Equal(t, "0xdeadbeef", result.TxHash)
	require.Equal(t, 1, submitter.callCount())
}

func TestPlaceBid_WarningAboveThreshold(t *testing.T) {
	reader := &fakeReader{params: []*domain.AuctionParams{defaultParams()}}
	submitter := &fakeSubmitter{}
	service := NewBidService(reader, submitter, &fakeStats{}, &fakeCache{}, nopLogger{})

	// no average available: threshold = 5 x 2.2 = 11 ETH
	result, err := service.PlaceBid(context.Background(), testRequest(ethFrac("11", 5), false))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeWarningRequired, result.Outcome)
	require.Zero(t, eth("11").Cmp(result.Threshold))
	require.Zero(t, submitter.callCount())
	require.Equal(t, domain.StateWarningPending, service.State(testBidder))
}

func TestPlaceBid_UnderThresholdSubmitsDirectly(t *testing.T) {
	reader := &fakeReader{params: []*domain.AuctionParams{defaultParams()}}
	submitter := &fakeSubmitter{}
	service := NewBidService(reader, submitter, &fakeStats{}, &fakeCache{}, nopLogger{})

	result, err := service.PlaceBid(context.Background(), testRequest(eth("10"), false))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeSubmitted, result.Outcome)
	require.Equal(t, 1, submitter.callCount())
}

func TestPlaceBid_WarningUsesAverageWhenAvailable(t *testing.T) {
	reader := &fakeReader{params: []*domain.AuctionParams{defaultParams()}}
	submitter := &fakeSubmitter{}
	service := NewBidService(reader, submitter, &fakeStats{avg: eth("1")}, &fakeCache{}, nopLogger{})

	// average 1 ETH -> threshold 5 ETH, even though 6 ETH is under 5 x minimum
	result, err := service.PlaceBid(context.Background(), testRequest(eth("6"), false))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeWarningRequired, result.Outcome)
	require.Zero(t, eth("5").Cmp(result.Threshold))
	require.Zero(t, submitter.callCount())
}

func TestPlaceBid_ConfirmedBypassesWarning(t *testing.T) {
	reader := &fakeReader{params: []*domain.AuctionParams{defaultParams()}}
	submitter := &fakeSubmitter{}
	service := NewBidService(reader, submitter, &fakeStats{}, &fakeCache{}, nopLogger{})

	first, err := service.PlaceBid(context.Background(), testRequest(eth("12"), false))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeWarningRequired, first.Outcome)

	second, err := service.PlaceBid(context.Background(), testRequest(eth("12"), true))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeSubmitted, second.Outcome)
	require.Equal(t, 1, submitter.callCount())
	require.Equal(t, domain.StateIdle, service.State(testBidder))
}

func TestCancelWarning_NoSideEffects(t *testing.T) {
	reader := &fakeReader{params: []*domain.AuctionParams{defaultParams()}}
	submitter := &fakeSubmitter{}
	cache := &fakeCache{}
	service := NewBidService(reader, submitter, &fakeStats{}, cache, nopLogger{})

	result, err := service.PlaceBid(context.Background(), testRequest(eth("12"), false))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeWarningRequired, result.Outcome)

	service.CancelWarning(testBidder)

	require.Equal(t, domain.StateIdle, service.State(testBidder))
	require.Zero(t, submitter.callCount())
	require.Zero(t, cache.bidListInvalidated)
	require.Zero(t, cache.avgInvalidated)

	// the bidder is free to try again
	next, err := service.PlaceBid(context.Background(), testRequest(eth("10"), false))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeSubmitted, next.Outcome)
}

func TestPlaceBid_SecondAttemptWhileInFlightIsNoOp(t *testing.T) {
	reader := &fakeReader{params: []*domain.AuctionParams{defaultParams()}}
	submitter := &fakeSubmitter{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	entered := submitter.entered
	service := NewBidService(reader, submitter, &fakeStats{}, &fakeCache{}, nopLogger{})

	done := make(chan *domain.SubmitResult, 1)
	go func() {
		result, _ := service.PlaceBid(context.Background(), testRequest(eth("10"), false))
		done <- result
	}()

	<-entered // first attempt is now inside the submitter

	second, err := service.PlaceBid(context.Background(), testRequest(eth("10"), false))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeInFlight, second.Outcome)

	close(submitter.release)
	first := <-done
	require.Equal(t, domain.OutcomeSubmitted, first.Outcome)
	require.Equal(t, 1, submitter.callCount())
}

func TestPlaceBid_InvalidatesBothCachesExactlyOnce(t *testing.T) {
	reader := &fakeReader{params: []*domain.AuctionParams{defaultParams()}}
	cache := &fakeCache{}
	service := NewBidService(reader, &fakeSubmitter{}, &fakeStats{}, cache, nopLogger{})

	result, err := service.PlaceBid(context.Background(), testRequest(eth("3"), false))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeSubmitted, result.Outcome)
	require.Equal(t, 1, cache.bidListInvalidated)
	require.Equal(t, 1, cache.avgInvalidated)
}

func TestPlaceBid_TransactionFailureIsSwallowed(t *testing.T) {
	reader := &fakeReader{params: []*domain.AuctionParams{defaultParams()}}
	submitter := &fakeSubmitter{err: errors.New("insufficient funds")}
	cache := &fakeCache{}
	service := NewBidService(reader, submitter, &fakeStats{}, cache, nopLogger{})

	result, err := service.PlaceBid(context.Background(), testRequest(eth("3"), false))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeFailed, result.Outcome)
	require.Zero(t, cache.bidListInvalidated)
	require.Zero(t, cache.avgInvalidated)

	// the in-flight flag reset: a retry goes through
	submitter.err = nil
	retry, err := service.PlaceBid(context.Background(), testRequest(eth("3"), false))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeSubmitted, retry.Outcome)
}

func TestPlaceBid_ParameterFetchFailureIsReturned(t *testing.T) {
	reader := &fakeReader{err: errors.New("rpc unreachable")}
	service := NewBidService(reader, &fakeSubmitter{}, &fakeStats{}, &fakeCache{}, nopLogger{})

	_, err := service.PlaceBid(context.Background(), testRequest(eth("3"), false))
	require.Error(t, err)
	require.Equal(t, domain.StateIdle, service.State(testBidder))
}

func TestPlaceBid_StatsFailureFallsBackToMinimum(t *testing.T) {
	reader := &fakeReader{params: []*domain.AuctionParams{defaultParams()}}
	submitter := &fakeSubmitter{}
	stats := &fakeStats{err: errors.New("mysql down")}
	service := NewBidService(reader, submitter, stats, &fakeCache{}, nopLogger{})

	// threshold falls back to 5 x 2.2 = 11 ETH
	result, err := service.PlaceBid(context.Background(), testRequest(eth("12"), false))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeWarningRequired, result.Outcome)
	require.Zero(t, eth("11").Cmp(result.Threshold))
}

func TestPlaceBid_RecheckCatchesRaisedMinimum(t *testing.T) {
	// The second parameter read returns a raised reserve, so the defensive
	// re-check fails even though the first check passed.
	reader := &fakeReader{params: []*domain.AuctionParams{
		defaultParams(),
		{ReservePrice: eth("50"), MinBidIncrementPct: 10},
	}}
	submitter := &fakeSubmitter{}
	service := NewBidService(reader, submitter, &fakeStats{}, &fakeCache{}, nopLogger{})

	result, err := service.PlaceBid(context.Background(), testRequest(eth("3"), false))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeBelowMinimum, result.Outcome)
	require.Zero(t, eth("50").Cmp(result.MinimumBid))
	require.Zero(t, submitter.callCount())
}
