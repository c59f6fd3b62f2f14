package indexer

import (
	"context"
	"database/sql"
	"errors"
	"math/big"
	"time"

	"dao-auction/internal/domain"
	"dao-auction/internal/infrastructure/chain"
	"dao-auction/pkg/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func (i *Indexer) handlerRegistry() map[string]logHandler {
	return map[string]logHandler{
		"handleAuctionCreated":   i.handleAuctionCreated,
		"handleAuctionBid":       i.handleAuctionBid,
		"handleAuctionSettled":   i.handleAuctionSettled,
		"handleProposalCreated":  i.handleProposalCreated,
		"handleVoteCast":         i.handleVoteCast,
		"handleProposalExecuted": i.handleProposalExecuted,
		"handleProposalCanceled": i.handleProposalCanceled,
		"handleProposalVetoed":   i.handleProposalVetoed,
	}
}

func (i *Indexer) handleAuctionCreated(ctx context.Context, lg types.Log) error {
	var ev struct {
		StartTime *big.Int
		EndTime   *big.Int
	}
	if err := chain.AuctionHouseABI().UnpackIntoInterface(&ev, "AuctionCreated", lg.Data); err != nil {
		return err
	}
	tokenID := new(big.Int).SetBytes(lg.Topics[1].Bytes())

	now := time.Now()
	auction := &domain.Auction{
		ID:           utils.GenerateID("auction"),
		ChainID:      i.chainID,
		TokenAddress: i.tokenAddress,
		TokenID:      tokenID.String(),
		StartTime:    time.Unix(ev.StartTime.Int64(), 0),
		EndTime:      time.Unix(ev.EndTime.Int64(), 0),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := i.auctionRepo.UpsertAuction(ctx, auction); err != nil {
		return err
	}

	i.log.Info("Auction indexed", "token_id", auction.TokenID, "end_time", auction.EndTime)

	return i.publisher.PublishBidEvent(ctx, &domain.BidEvent{
		Type:         domain.AuctionStarted,
		ChainID:      i.chainID,
		TokenAddress: i.tokenAddress,
		TokenID:      auction.TokenID,
		Timestamp:    now,
	})
}

func (i *Indexer) handleAuctionBid(ctx context.Context, lg types.Log) error {
	var ev struct {
		Bidder   common.Address
		Amount   *big.Int
		Extended bool
		EndTime  *big.Int
	}
	if err := chain.AuctionHouseABI().UnpackIntoInterface(&ev, "AuctionBid", lg.Data); err != nil {
		return err
	}
	tokenID := new(big.Int).SetBytes(lg.Topics[1].Bytes()).String()
	bidTime := i.blockTime(ctx, lg)

	bid := &domain.Bid{
		ID:           utils.GenerateID("bid"),
		ChainID:      i.chainID,
		TokenAddress: i.tokenAddress,
		TokenID:      tokenID,
		Bidder:       ev.Bidder.Hex(),
		Amount:       ev.Amount.String(),
		Extended:     ev.Extended,
		TxHash:       lg.TxHash.Hex(),
		BlockNumber:  lg.BlockNumber,
		BidTime:      bidTime,
	}
	if err := i.bidRepo.SaveBid(ctx, bid); err != nil {
		return err
	}

	auction, err := i.auctionRepo.GetAuction(ctx, i.chainID, i.tokenAddress, tokenID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		// Bid seen before its AuctionCreated; start from a stub row.
		auction = &domain.Auction{
			ID:           utils.GenerateID("auction"),
			ChainID:      i.chainID,
			TokenAddress: i.tokenAddress,
			TokenID:      tokenID,
			CreatedAt:    bidTime,
		}
	}
	auction.HighestBid = ev.Amount.String()
	auction.HighestBidder = ev.Bidder.Hex()
	auction.EndTime = time.Unix(ev.EndTime.Int64(), 0)
	auction.UpdatedAt = time.Now()
	if err := i.auctionRepo.UpsertAuction(ctx, auction); err != nil {
		return err
	}

	if err := i.cache.InvalidateBidList(ctx, i.chainID, i.tokenAddress, tokenID); err != nil {
		i.log.Warn("Failed to invalidate bid list after indexed bid", "error", err)
	}

	return i.publisher.PublishBidEvent(ctx, &domain.BidEvent{
		Type:         domain.AuctionBidPlaced,
		ChainID:      i.chainID,
		TokenAddress: i.tokenAddress,
		TokenID:      tokenID,
		Bidder:       bid.Bidder,
		Amount:       bid.Amount,
		Extended:     bid.Extended,
		Timestamp:    bidTime,
	})
}

func (i *Indexer) handleAuctionSettled(ctx context.Context, lg types.Log) error {
	var ev struct {
		Winner common.Address
		Amount *big.Int
	}
	if err := chain.AuctionHouseABI().UnpackIntoInterface(&ev, "AuctionSettled", lg.Data); err != nil {
		return err
	}
	tokenID := new(big.Int).SetBytes(lg.Topics[1].Bytes()).String()

	if err := i.auctionRepo.SettleAuction(ctx, i.chainID, i.tokenAddress, tokenID,
		ev.Winner.Hex(), ev.Amount.String()); err != nil {
		return err
	}

	// A new settlement shifts the average winning bid.
	if err := i.cache.InvalidateAverageBid(ctx, i.chainID, i.tokenAddress); err != nil {
		i.log.Warn("Failed to invalidate average bid after settlement", "error", err)
	}

	i.log.Info("Auction settled", "token_id", tokenID, "winner", ev.Winner.Hex())

	return i.publisher.PublishBidEvent(ctx, &domain.BidEvent{
		Type:         domain.AuctionSettled,
		ChainID:      i.chainID,
		TokenAddress: i.tokenAddress,
		TokenID:      tokenID,
		Bidder:       ev.Winner.Hex(),
		Amount:       ev.Amount.String(),
		Timestamp:    i.blockTime(ctx, lg),
	})
}

func (i *Indexer) handleProposalCreated(ctx context.Context, lg types.Log) error {
	var ev struct {
		ProposalId  *big.Int
		Proposer    common.Address
		Description string
		StartBlock  *big.Int
		EndBlock    *big.Int
	}
	if err := chain.GovernorABI().UnpackIntoInterface(&ev, "ProposalCreated", lg.Data); err != nil {
		return err
	}

	now := time.Now()
	return i.govRepo.SaveProposal(ctx, &domain.Proposal{
		ID:          ev.ProposalId.String(),
		ChainID:     i.chainID,
		Proposer:    ev.Proposer.Hex(),
		Description: ev.Description,
		Status:      domain.ProposalPending,
		StartBlock:  ev.StartBlock.Uint64(),
		EndBlock:    ev.EndBlock.Uint64(),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (i *Indexer) handleVoteCast(ctx context.Context, lg types.Log) error {
	var ev struct {
		ProposalId *big.Int
		Support    uint8
		Weight     *big.Int
		Reason     string
	}
	if err := chain.GovernorABI().UnpackIntoInterface(&ev, "VoteCast", lg.Data); err != nil {
		return err
	}
	voter := common.BytesToAddress(lg.Topics[1].Bytes())

	return i.govRepo.SaveVote(ctx, &domain.Vote{
		ID:         utils.GenerateID("vote"),
		ChainID:    i.chainID,
		ProposalID: ev.ProposalId.String(),
		Voter:      voter.Hex(),
		Support:    ev.Support,
		Weight:     ev.Weight.String(),
		Reason:     ev.Reason,
		CastAt:     i.blockTime(ctx, lg),
	})
}

func (i *Indexer) handleProposalExecuted(ctx context.Context, lg types.Log) error {
	return i.updateProposalStatus(ctx, lg, "ProposalExecuted", domain.ProposalExecuted)
}

func (i *Indexer) handleProposalCanceled(ctx context.Context, lg types.Log) error {
	return i.updateProposalStatus(ctx, lg, "ProposalCanceled", domain.ProposalCanceled)
}

func (i *Indexer) handleProposalVetoed(ctx context.Context, lg types.Log) error {
	return i.updateProposalStatus(ctx, lg, "ProposalVetoed", domain.ProposalVetoed)
}

func (i *Indexer) updateProposalStatus(ctx context.Context, lg types.Log, event string, status domain.ProposalStatus) error {
	var ev struct {
		ProposalId *big.Int
	}
	if err := chain.GovernorABI().UnpackIntoInterface(&ev, event, lg.Data); err != nil {
		return err
	}
	return i.govRepo.UpdateProposalStatus(ctx, i.chainID, ev.ProposalId.String(), status)
}

func (i *Indexer) blockTime(ctx context.Context, lg types.Log) time.Time {
	header, err := i.source.HeaderByHash(ctx, lg.BlockHash)
	if err != nil {
		i.log.Warn("Failed to fetch block header", "block", lg.BlockNumber, "error", err)
		return time.Now()
	}
	return time.Unix(int64(header.Time), 0)
}
