package services

import (
	"context"
	"sync"

	"dao-auction/internal/domain"
	"dao-auction/pkg/logger"
)

// BidService drives the bid submission flow: eligibility check, risk warning
// gate, transaction submission, cache invalidation. One submission per bidder
// may be in flight at a time; a second attempt is a no-op.
type BidService struct {
	reader    domain.AuctionReader
	submitter domain.BidSubmitter
	stats     domain.StatsProvider
	cache     domain.QueryCache
	riskGate  *RiskGate
	log       logger.Logger

	stateMutex sync.Mutex
	inFlight   map[string]bool
	states     map[string]domain.SubmissionState
}

func NewBidService(
	reader domain.AuctionReader,
	submitter domain.BidSubmitter,
	stats domain.StatsProvider,
	cache domain.QueryCache,
	log logger.Logger,
) *BidService {
	return &BidService{
		reader:    reader,
		submitter: submitter,
		stats:     stats,
		cache:     cache,
		riskGate:  NewRiskGate(),
		log:       log,
		inFlight:  make(map[string]bool),
		states:    make(map[string]domain.SubmissionState),
	}
}

// PlaceBid runs one submission attempt. Parameter-fetch failures are returned;
// transaction failures are logged and swallowed, the caller only sees the
// attempt end (OutcomeFailed). A warning-gated attempt returns
// OutcomeWarningRequired and must be resubmitted with Confirmed set.
func (s *BidService) PlaceBid(ctx context.Context, req *domain.BidRequest) (*domain.SubmitResult, error) {
	s.stateMutex.Lock()
	if s.inFlight[req.Bidder] {
		s.stateMutex.Unlock()
		s.log.Info("Submission already in flight", "bidder", req.Bidder)
		return &domain.SubmitResult{Outcome: domain.OutcomeInFlight}, nil
	}
	s.inFlight[req.Bidder] = true
	s.states[req.Bidder] = domain.StateValidating
	s.stateMutex.Unlock()

	// Finalizer: the in-flight flag always resets, and the warning state only
	// survives when this very attempt raised it.
	warningRaised := false
	defer func() {
		s.stateMutex.Lock()
		delete(s.inFlight, req.Bidder)
		if !warningRaised {
			s.states[req.Bidder] = domain.StateIdle
		}
		s.stateMutex.Unlock()
	}()

	params, err := s.reader.AuctionParams(ctx)
	if err != nil {
		return nil, err
	}

	minimum := MinimumBid(params.ReservePrice, req.HighestBid, params.MinBidIncrementPct)
	result := &domain.SubmitResult{MinimumBid: minimum}

	if !IsEligible(req.Amount, minimum) {
		result.Outcome = domain.OutcomeBelowMinimum
		return result, nil
	}

	reference := minimum
	if avg, err := s.stats.AverageWinningBid(ctx, req.ChainID, req.TokenAddress); err != nil {
		// The statistic is a heuristic only; treat a failed lookup as absent.
		s.log.Warn("Average winning bid unavailable", "error", err)
	} else if avg != nil {
		reference = avg
	}

	if !req.Confirmed && s.riskGate.Exceeds(req.Amount, reference) {
		s.setState(req.Bidder, domain.StateWarningPending)
		warningRaised = true
		result.Outcome = domain.OutcomeWarningRequired
		result.Threshold = s.riskGate.Threshold(reference)
		return result, nil
	}

	s.setState(req.Bidder, domain.StateSubmitting)

	// Re-check eligibility against fresh chain state before spending gas; the
	// confirm round trip can outlive the auction parameters it was shown for.
	fresh, err := s.reader.AuctionParams(ctx)
	if err != nil {
		s.log.Error("Failed to refresh auction parameters", "error", err)
		result.Outcome = domain.OutcomeFailed
		return result, nil
	}
	minimum = MinimumBid(fresh.ReservePrice, req.HighestBid, fresh.MinBidIncrementPct)
	result.MinimumBid = minimum
	if !IsEligible(req.Amount, minimum) {
		result.Outcome = domain.OutcomeBelowMinimum
		return result, nil
	}

	txHash, err := s.submitter.SubmitBid(ctx, req.TokenID, req.Amount)
	if err != nil {
		s.log.Error("Bid transaction failed", "bidder", req.Bidder,
			"token_id", req.TokenID, "error", err)
		result.Outcome = domain.OutcomeFailed
		return result, nil
	}

	tokenID := req.TokenID.String()
	if err := s.cache.InvalidateBidList(ctx, req.ChainID, req.TokenAddress, tokenID); err != nil {
		s.log.Error("Failed to invalidate bid list cache", "error", err)
	}
	if err := s.cache.InvalidateAverageBid(ctx, req.ChainID, req.TokenAddress); err != nil {
		s.log.Error("Failed to invalidate average bid cache", "error", err)
	}

	s.log.Info("Bid submitted", "bidder", req.Bidder, "token_id", tokenID, "tx", txHash)
	result.Outcome = domain.OutcomeSubmitted
	result.TxHash = txHash
	return result, nil
}

// CancelWarning dismisses a pending risk warning without submitting anything.
func (s *BidService) CancelWarning(bidder string) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	if s.states[bidder] == domain.StateWarningPending {
		s.states[bidder] = domain.StateIdle
	}
}

// State reports the submission state for a bidder.
func (s *BidService) State(bidder string) domain.SubmissionState {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	return s.states[bidder]
}

func (s *BidService) setState(bidder string, state domain.SubmissionState) {
	s.stateMutex.Lock()
	s.states[bidder] = state
	s.stateMutex.Unlock()
}
