package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"dao-auction/internal/domain"
	"dao-auction/internal/services"
	"dao-auction/pkg/logger"

	"github.com/labstack/echo/v4"
)

type AuctionHandler struct {
	reader       domain.AuctionReader
	auctionRepo  domain.AuctionRepository
	bidQuery     *services.BidQueryService
	stats        domain.StatsProvider
	riskGate     *services.RiskGate
	chainID      int64
	tokenAddress string
	log          logger.Logger
}

type AuctionResponse struct {
	TokenID       string    `json:"token_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	HighestBid    string    `json:"highest_bid,omitempty"`
	HighestBidder string    `json:"highest_bidder,omitempty"`
	Settled       bool      `json:"settled"`
	MinimumBid    string    `json:"minimum_bid"`
	Threshold     string    `json:"warning_threshold"`
}

type BidResponse struct {
	Bidder   string    `json:"bidder"`
	Amount   string    `json:"amount"`
	Extended bool      `json:"extended"`
	TxHash   string    `json:"tx_hash"`
	BidTime  time.Time `json:"bid_time"`
}

func NewAuctionHandler(
	reader domain.AuctionReader,
	auctionRepo domain.AuctionRepository,
	bidQuery *services.BidQueryService,
	stats domain.StatsProvider,
	chainID int64,
	tokenAddress string,
	log logger.Logger,
) *AuctionHandler {
	return &AuctionHandler{
		reader:       reader,
		auctionRepo:  auctionRepo,
		bidQuery:     bidQuery,
		stats:        stats,
		riskGate:     services.NewRiskGate(),
		chainID:      chainID,
		tokenAddress: tokenAddress,
		log:          log,
	}
}

// GetAuction returns the indexed auction state together with the computed
// minimum valid bid and the risk warning threshold.
func (h *AuctionHandler) GetAuction(c echo.Context) error {
	tokenID := c.Param("tokenId")
	ctx := c.Request().Context()

	auction, err := h.auctionRepo.GetAuction(ctx, h.chainID, h.tokenAddress, tokenID)
	if err != nil {
		if isNotFound(err) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Auction not found"})
		}
		h.log.Error("Failed to load auction", "token_id", tokenID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load auction"})
	}

	params, err := h.reader.AuctionParams(ctx)
	if err != nil {
		h.log.Error("Failed to read auction parameters", "error", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "Failed to read chain state"})
	}

	highest, err := domain.ParseWei(auction.HighestBid)
	if err != nil {
		h.log.Error("Corrupt highest bid", "token_id", tokenID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Corrupt auction state"})
	}

	minimum := services.MinimumBid(params.ReservePrice, highest, params.MinBidIncrementPct)

	reference := minimum
	if avg, err := h.stats.AverageWinningBid(ctx, h.chainID, h.tokenAddress); err != nil {
		h.log.Warn("Average winning bid unavailable", "error", err)
	} else if avg != nil {
		reference = avg
	}

	return c.JSON(http.StatusOK, AuctionResponse{
		TokenID:       auction.TokenID,
		StartTime:     auction.StartTime,
		EndTime:       auction.EndTime,
		HighestBid:    formatOptionalWei(auction.HighestBid),
		HighestBidder: auction.HighestBidder,
		Settled:       auction.Settled,
		MinimumBid:    domain.FormatWei(minimum),
		Threshold:     domain.FormatWei(h.riskGate.Threshold(reference)),
	})
}

// ListBids returns recent bids for an auction through the query cache.
func (h *AuctionHandler) ListBids(c echo.Context) error {
	tokenID := c.Param("tokenId")

	bids, err := h.bidQuery.RecentBids(c.Request().Context(), h.chainID, h.tokenAddress, tokenID)
	if err != nil {
		h.log.Error("Failed to list bids", "token_id", tokenID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list bids"})
	}

	responses := make([]BidResponse, 0, len(bids))
	for _, bid := range bids {
		responses = append(responses, BidResponse{
			Bidder:   bid.Bidder,
			Amount:   formatOptionalWei(bid.Amount),
			Extended: bid.Extended,
			TxHash:   bid.TxHash,
			BidTime:  bid.BidTime,
		})
	}

	return c.JSON(http.StatusOK, responses)
}

// GetAverageWinningBid exposes the historical statistic.
func (h *AuctionHandler) GetAverageWinningBid(c echo.Context) error {
	avg, err := h.stats.AverageWinningBid(c.Request().Context(), h.chainID, h.tokenAddress)
	if err != nil {
		h.log.Error("Failed to compute average winning bid", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to compute statistic"})
	}
	if avg == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"average_winning_bid": nil})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"average_winning_bid": domain.FormatWei(avg)})
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func formatOptionalWei(s string) string {
	wei, err := domain.ParseWei(s)
	if err != nil || wei == nil {
		return ""
	}
	return domain.FormatWei(wei)
}
