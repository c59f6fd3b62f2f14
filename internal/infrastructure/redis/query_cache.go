package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"dao-auction/internal/domain"

	"github.com/go-redis/redis/v8"
)

// QueryCache holds the two query results the submission flow invalidates:
// the recent-bid list keyed by (chain, token address, auction token id) and
// the average winning bid keyed by (chain, token address). A deleted key makes
// the next read fall through to MySQL.
type QueryCache struct {
	client        *redis.Client
	bidListTTL    time.Duration
	averageBidTTL time.Duration
}

func NewQueryCache(client *redis.Client, bidListTTL, averageBidTTL time.Duration) *QueryCache {
	return &QueryCache{
		client:        client,
		bidListTTL:    bidListTTL,
		averageBidTTL: averageBidTTL,
	}
}

func bidListKey(chainID int64, tokenAddress, tokenID string) string {
	return fmt.Sprintf("bids:%d:%s:%s", chainID, strings.ToLower(tokenAddress), tokenID)
}

func averageBidKey(chainID int64, tokenAddress string) string {
	return fmt.Sprintf("avg_bid:%d:%s", chainID, strings.ToLower(tokenAddress))
}

func (c *QueryCache) GetBidList(ctx context.Context, chainID int64, tokenAddress, tokenID string) ([]*domain.Bid, error) {
	data, err := c.client.Get(ctx, bidListKey(chainID, tokenAddress, tokenID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var bids []*domain.Bid
	if err := json.Unmarshal([]byte(data), &bids); err != nil {
		return nil, err
	}
	return bids, nil
}

func (c *QueryCache) SetBidList(ctx context.Context, chainID int64, tokenAddress, tokenID string, bids []*domain.Bid) error {
	if bids == nil {
		bids = []*domain.Bid{}
	}
	data, err := json.Marshal(bids)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, bidListKey(chainID, tokenAddress, tokenID), data, c.bidListTTL).Err()
}

func (c *QueryCache) InvalidateBidList(ctx context.Context, chainID int64, tokenAddress, tokenID string) error {
	return c.client.Del(ctx, bidListKey(chainID, tokenAddress, tokenID)).Err()
}

func (c *QueryCache) GetAverageBid(ctx context.Context, chainID int64, tokenAddress string) (*big.Int, error) {
	data, err := c.client.Get(ctx, averageBidKey(chainID, tokenAddress)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	avg, ok := new(big.Int).SetString(data, 10)
	if !ok {
		return nil, fmt.Errorf("corrupt average bid entry: %q", data)
	}
	return avg, nil
}

func (c *QueryCache) SetAverageBid(ctx context.Context, chainID int64, tokenAddress string, amount *big.Int) error {
	return c.client.Set(ctx, averageBidKey(chainID, tokenAddress), amount.String(), c.averageBidTTL).Err()
}

func (c *QueryCache) InvalidateAverageBid(ctx context.Context, chainID int64, tokenAddress string) error {
	return c.client.Del(ctx, averageBidKey(chainID, tokenAddress)).Err()
}
