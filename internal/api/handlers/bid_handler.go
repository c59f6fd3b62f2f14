package handlers

import (
	"math/big"
	"net/http"

	"dao-auction/internal/domain"
	"dao-auction/internal/services"
	"dao-auction/pkg/logger"

	"github.com/labstack/echo/v4"
)

type BidHandler struct {
	bidService   *services.BidService
	auctionRepo  domain.AuctionRepository
	chainID      int64
	tokenAddress string
	log          logger.Logger
}

type PlaceBidRequest struct {
	Bidder  string `json:"bidder"`
	Amount  string `json:"amount"` // decimal ETH, e.g. "2.2"
	Confirm bool   `json:"confirm"`
}

type PlaceBidResponse struct {
	Outcome    string `json:"outcome"`
	MinimumBid string `json:"minimum_bid,omitempty"`
	Threshold  string `json:"threshold,omitempty"`
	TxHash     string `json:"tx_hash,omitempty"`
}

func NewBidHandler(bidService *services.BidService, auctionRepo domain.AuctionRepository,
	chainID int64, tokenAddress string, log logger.Logger) *BidHandler {
	return &BidHandler{
		bidService:   bidService,
		auctionRepo:  auctionRepo,
		chainID:      chainID,
		tokenAddress: tokenAddress,
		log:          log,
	}
}

func (h *BidHandler) PlaceBid(c echo.Context) error {
	tokenID, ok := new(big.Int).SetString(c.Param("tokenId"), 10)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid token id"})
	}

	var req PlaceBidRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if req.Bidder == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Bidder required"})
	}

	amount, err := domain.ParseEth(req.Amount)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid bid amount"})
	}

	highestBid, err := h.currentHighestBid(c, tokenID.String())
	if err != nil {
		h.log.Error("Failed to load auction", "token_id", tokenID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load auction"})
	}

	result, err := h.bidService.PlaceBid(c.Request().Context(), &domain.BidRequest{
		ChainID:      h.chainID,
		TokenAddress: h.tokenAddress,
		TokenID:      tokenID,
		Bidder:       req.Bidder,
		Amount:       amount,
		HighestBid:   highestBid,
		Confirmed:    req.Confirm,
	})
	if err != nil {
		h.log.Error("Failed to place bid", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to place bid"})
	}

	resp := PlaceBidResponse{Outcome: result.Outcome.String()}
	if result.MinimumBid != nil {
		resp.MinimumBid = domain.FormatWei(result.MinimumBid)
	}
	if result.Threshold != nil {
		resp.Threshold = domain.FormatWei(result.Threshold)
	}
	resp.TxHash = result.TxHash

	switch result.Outcome {
	case domain.OutcomeSubmitted:
		return c.JSON(http.StatusCreated, resp)
	case domain.OutcomeWarningRequired:
		return c.JSON(http.StatusConflict, resp)
	case domain.OutcomeBelowMinimum:
		return c.JSON(http.StatusUnprocessableEntity, resp)
	default:
		return c.JSON(http.StatusOK, resp)
	}
}

// CancelPendingBid dismisses a pending risk warning for a bidder without
// submitting anything.
func (h *BidHandler) CancelPendingBid(c echo.Context) error {
	bidder := c.QueryParam("bidder")
	if bidder == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Bidder required"})
	}

	h.bidService.CancelWarning(bidder)
	return c.NoContent(http.StatusNoContent)
}

func (h *BidHandler) currentHighestBid(c echo.Context, tokenID string) (*big.Int, error) {
	auction, err := h.auctionRepo.GetAuction(c.Request().Context(), h.chainID, h.tokenAddress, tokenID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return domain.ParseWei(auction.HighestBid)
}
