package services

import (
	"context"
	"math/big"

	"dao-auction/internal/domain"
	"dao-auction/pkg/logger"
)

// StatsService serves the historical average winning bid through the query
// cache, falling back to a MySQL aggregate over settled auctions on a miss.
type StatsService struct {
	auctionRepo domain.AuctionRepository
	cache       domain.QueryCache
	log         logger.Logger
}

func NewStatsService(auctionRepo domain.AuctionRepository, cache domain.QueryCache, log logger.Logger) *StatsService {
	return &StatsService{
		auctionRepo: auctionRepo,
		cache:       cache,
		log:         log,
	}
}

func (s *StatsService) AverageWinningBid(ctx context.Context, chainID int64, tokenAddress string) (*big.Int, error) {
	cached, err := s.cache.GetAverageBid(ctx, chainID, tokenAddress)
	if err != nil {
		s.log.Warn("Average bid cache read failed", "error", err)
	} else if cached != nil {
		return cached, nil
	}

	avg, err := s.auctionRepo.AverageWinningBid(ctx, chainID, tokenAddress)
	if err != nil {
		return nil, err
	}
	if avg == nil {
		return nil, nil
	}

	if err := s.cache.SetAverageBid(ctx, chainID, tokenAddress, avg); err != nil {
		s.log.Warn("Average bid cache write failed", "error", err)
	}
	return avg, nil
}

// Refresh recomputes the statistic and rewrites the cache entry. Run
// periodically so the warning reference does not go stale between settlements.
func (s *StatsService) Refresh(ctx context.Context, chainID int64, tokenAddress string) error {
	avg, err := s.auctionRepo.AverageWinningBid(ctx, chainID, tokenAddress)
	if err != nil {
		return err
	}
	if avg == nil {
		return s.cache.InvalidateAverageBid(ctx, chainID, tokenAddress)
	}
	return s.cache.SetAverageBid(ctx, chainID, tokenAddress, avg)
}
