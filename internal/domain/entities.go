package domain

import (
	"math/big"
	"time"
)

// Auction is one token auction as indexed from chain events. Wei amounts are
// kept as decimal strings so they survive MySQL round-trips without precision
// loss.
type Auction struct {
	ID            string
	ChainID       int64
	TokenAddress  string
	TokenID       string
	StartTime     time.Time
	EndTime       time.Time
	HighestBid    string
	HighestBidder string
	Settled       bool
	Winner        string
	WinningBid    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Bid struct {
	ID           string
	ChainID      int64
	TokenAddress string
	TokenID      string
	Bidder       string
	Amount       string
	Extended     bool
	TxHash       string
	BlockNumber  uint64
	BidTime      time.Time
}

// Proposal and Vote are governance entities indexed for querying only; no
// decision logic reads them.
type Proposal struct {
	ID          string
	ChainID     int64
	Proposer    string
	Description string
	Status      ProposalStatus
	StartBlock  uint64
	EndBlock    uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalActive   ProposalStatus = "active"
	ProposalExecuted ProposalStatus = "executed"
	ProposalCanceled ProposalStatus = "canceled"
	ProposalVetoed   ProposalStatus = "vetoed"
)

type Vote struct {
	ID         string
	ChainID    int64
	ProposalID string
	Voter      string
	Support    uint8
	Weight     string
	Reason     string
	CastAt     time.Time
}

// AuctionParams are the on-chain auction house settings read per request.
type AuctionParams struct {
	ReservePrice       *big.Int
	MinBidIncrementPct uint8
}

// BidRequest carries everything the submission flow needs. HighestBid is the
// current leading bid supplied by the caller (nil when there is none yet).
type BidRequest struct {
	ChainID      int64
	TokenAddress string
	TokenID      *big.Int
	Bidder       string
	Amount       *big.Int
	HighestBid   *big.Int
	Confirmed    bool
}

type SubmitOutcome int

const (
	OutcomeSubmitted SubmitOutcome = iota
	OutcomeBelowMinimum
	OutcomeWarningRequired
	OutcomeInFlight
	OutcomeFailed
)

func (o SubmitOutcome) String() string {
	switch o {
	case OutcomeSubmitted:
		return "submitted"
	case OutcomeBelowMinimum:
		return "below_minimum"
	case OutcomeWarningRequired:
		return "warning_required"
	case OutcomeInFlight:
		return "in_flight"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SubmitResult reports how a submission attempt ended. MinimumBid is always
// populated once parameters were fetched; Threshold only when the risk gate
// fired; TxHash only on success.
type SubmitResult struct {
	Outcome    SubmitOutcome
	MinimumBid *big.Int
	Threshold  *big.Int
	TxHash     string
}

type SubmissionState int

const (
	StateIdle SubmissionState = iota
	StateValidating
	StateWarningPending
	StateSubmitting
)

func (s SubmissionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateWarningPending:
		return "warning_pending"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

type BidEvent struct {
	Type         BidEventType `json:"type"`
	ChainID      int64        `json:"chain_id"`
	TokenAddress string       `json:"token_address"`
	TokenID      string       `json:"token_id"`
	Bidder       string       `json:"bidder"`
	Amount       string       `json:"amount"`
	Extended     bool         `json:"extended"`
	Timestamp    time.Time    `json:"timestamp"`
}

type BidEventType string

const (
	AuctionBidPlaced BidEventType = "auction_bid"
	AuctionStarted   BidEventType = "auction_created"
	AuctionSettled   BidEventType = "auction_settled"
)
