package services

import (
	"context"
	"sync"
	"testing"

	"dao-auction/internal/domain"

	"github.com/stretchr/testify/require"
)

type fakeBidRepo struct {
	mu    sync.Mutex
	bids  []*domain.Bid
	calls int
}

func (f *fakeBidRepo) SaveBid(ctx context.Context, bid *domain.Bid) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bids = append(f.bids, bid)
	return nil
}

func (f *fakeBidRepo) RecentBids(ctx context.Context, chainID int64, tokenAddress, tokenID string, limit int) ([]*domain.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.bids, nil
}

func TestBidQuery_CacheMissPopulatesCache(t *testing.T) {
	repo := &fakeBidRepo{bids: []*domain.Bid{{Bidder: testBidder, Amount: "1000"}}}
	cache := &fakeCache{}
	service := NewBidQueryService(repo, cache, nopLogger{})

	bids, err := service.RecentBids(context.Background(), testChainID, testTokenAddr, "42")
	require.NoError(t, err)
	require.Len(t, bids, 1)
	require.Equal(t, 1, repo.calls)
	require.Equal(t, 1, cache.bidListSets)
}

func TestBidQuery_CacheHitSkipsRepo(t *testing.T) {
	repo := &fakeBidRepo{}
	cache := &fakeCache{bidList: []*domain.Bid{{Bidder: testBidder, Amount: "2000"}}}
	service := NewBidQueryService(repo, cache, nopLogger{})

	bids, err := service.RecentBids(context.Background(), testChainID, testTokenAddr, "42")
	require.NoError(t, err)
	require.Len(t, bids, 1)
	require.Equal(t, "2000", bids[0].Amount)
	require.Zero(t, repo.calls)
}

func TestBidQuery_InvalidationForcesRefetch(t *testing.T) {
	repo := &fakeBidRepo{bids: []*domain.Bid{{Bidder: testBidder, Amount: "1000"}}}
	cache := &fakeCache{}
	service := NewBidQueryService(repo, cache, nopLogger{})

	_, err := service.RecentBids(context.Background(), testChainID, testTokenAddr, "42")
	require.NoError(t, err)
	require.Equal(t, 1, repo.calls)

	// cached now
	_, err = service.RecentBids(context.Background(), testChainID, testTokenAddr, "42")
	require.NoError(t, err)
	require.Equal(t, 1, repo.calls)

	require.NoError(t, cache.InvalidateBidList(context.Background(), testChainID, testTokenAddr, "42"))

	_, err = service.RecentBids(context.Background(), testChainID, testTokenAddr, "42")
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}
