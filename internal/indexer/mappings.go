package indexer

// The mapping table is the declarative heart of the indexer: which contract
// events feed the queryable dataset, and which handler each one runs. Handler
// names resolve against the registry in handlers.go; adding a row without a
// registered handler fails at construction, not at dispatch time.

type DataSource string

const (
	SourceAuctionHouse DataSource = "auction_house"
	SourceGovernor     DataSource = "governor"
)

type EventMapping struct {
	Source  DataSource
	Event   string
	Handler string
}

var Mappings = []EventMapping{
	{Source: SourceAuctionHouse, Event: "AuctionCreated", Handler: "handleAuctionCreated"},
	{Source: SourceAuctionHouse, Event: "AuctionBid", Handler: "handleAuctionBid"},
	{Source: SourceAuctionHouse, Event: "AuctionSettled", Handler: "handleAuctionSettled"},
	{Source: SourceGovernor, Event: "ProposalCreated", Handler: "handleProposalCreated"},
	{Source: SourceGovernor, Event: "VoteCast", Handler: "handleVoteCast"},
	{Source: SourceGovernor, Event: "ProposalExecuted", Handler: "handleProposalExecuted"},
	{Source: SourceGovernor, Event: "ProposalCanceled", Handler: "handleProposalCanceled"},
	{Source: SourceGovernor, Event: "ProposalVetoed", Handler: "handleProposalVetoed"},
}
