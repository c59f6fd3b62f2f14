package domain

import (
	"context"
	"math/big"
)

// Chain interfaces
type AuctionReader interface {
	// AuctionParams reads reservePrice and minBidIncrementPercentage from the
	// auction house in a single batched RPC call.
	AuctionParams(ctx context.Context) (*AuctionParams, error)
}

type BidSubmitter interface {
	// SubmitBid sends createBid(tokenId) with amount as transaction value and
	// waits for the transaction to be mined. Returns the transaction hash.
	SubmitBid(ctx context.Context, tokenID *big.Int, amount *big.Int) (string, error)
}

// Repository interfaces
type AuctionRepository interface {
	UpsertAuction(ctx context.Context, auction *Auction) error
	GetAuction(ctx context.Context, chainID int64, tokenAddress, tokenID string) (*Auction, error)
	SettleAuction(ctx context.Context, chainID int64, tokenAddress, tokenID, winner, amount string) error
	// AverageWinningBid returns the mean winning bid in wei over settled
	// auctions, or nil when none have settled yet.
	AverageWinningBid(ctx context.Context, chainID int64, tokenAddress string) (*big.Int, error)
}

type BidRepository interface {
	SaveBid(ctx context.Context, bid *Bid) error
	RecentBids(ctx context.Context, chainID int64, tokenAddress, tokenID string, limit int) ([]*Bid, error)
}

type GovernanceRepository interface {
	SaveProposal(ctx context.Context, proposal *Proposal) error
	UpdateProposalStatus(ctx context.Context, chainID int64, proposalID string, status ProposalStatus) error
	SaveVote(ctx context.Context, vote *Vote) error
}

// Cache interfaces
type QueryCache interface {
	GetBidList(ctx context.Context, chainID int64, tokenAddress, tokenID string) ([]*Bid, error)
	SetBidList(ctx context.Context, chainID int64, tokenAddress, tokenID string, bids []*Bid) error
	InvalidateBidList(ctx context.Context, chainID int64, tokenAddress, tokenID string) error

	GetAverageBid(ctx context.Context, chainID int64, tokenAddress string) (*big.Int, error)
	SetAverageBid(ctx context.Context, chainID int64, tokenAddress string, amount *big.Int) error
	InvalidateAverageBid(ctx context.Context, chainID int64, tokenAddress string) error
}

// StatsProvider yields the historical average winning bid for the risk gate.
// A nil amount with nil error means no statistic is available.
type StatsProvider interface {
	AverageWinningBid(ctx context.Context, chainID int64, tokenAddress string) (*big.Int, error)
}

// Event interfaces
type EventPublisher interface {
	PublishBidEvent(ctx context.Context, event *BidEvent) error
}

type EventSubscriber interface {
	SubscribeToBidEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *BidEvent) error

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	ClientID() string
	FeedKey() string
}

type ConnectionManager interface {
	RegisterConnection(clientID, feedKey string, conn WebSocketConnection) error
	UnregisterConnection(clientID, feedKey string) error
	BroadcastToFeed(feedKey string, message interface{}) error
}
