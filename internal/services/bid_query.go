package services

import (
	"context"

	"dao-auction/internal/domain"
	"dao-auction/pkg/logger"
)

const recentBidLimit = 50

// BidQueryService answers bid-list reads through the query cache. Submissions
// and the indexer invalidate the cache key; the next read repopulates it from
// MySQL.
type BidQueryService struct {
	bidRepo domain.BidRepository
	cache   domain.QueryCache
	log     logger.Logger
}

func NewBidQueryService(bidRepo domain.BidRepository, cache domain.QueryCache, log logger.Logger) *BidQueryService {
	return &BidQueryService{
		bidRepo: bidRepo,
		cache:   cache,
		log:     log,
	}
}

func (s *BidQueryService) RecentBids(ctx context.Context, chainID int64, tokenAddress, tokenID string) ([]*domain.Bid, error) {
	cached, err := s.cache.GetBidList(ctx, chainID, tokenAddress, tokenID)
	if err != nil {
		s.log.Warn("Bid list cache read failed", "error", err)
	} else if cached != nil {
		return cached, nil
	}

	bids, err := s.bidRepo.RecentBids(ctx, chainID, tokenAddress, tokenID, recentBidLimit)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetBidList(ctx, chainID, tokenAddress, tokenID, bids); err != nil {
		s.log.Warn("Bid list cache write failed", "error", err)
	}
	return bids, nil
}
