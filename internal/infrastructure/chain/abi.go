package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract fragments for the DAO auction house and governor. Only the
// functions and events this module consumes are declared.
const auctionHouseABIJSON = `[
	{"type":"function","name":"reservePrice","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"minBidIncrement","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"createBid","stateMutability":"payable","inputs":[{"name":"_tokenId","type":"uint256"}],"outputs":[]},
	{"type":"event","name":"AuctionCreated","inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"startTime","type":"uint256","indexed":false},{"name":"endTime","type":"uint256","indexed":false}],"anonymous":false},
	{"type":"event","name":"AuctionBid","inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"bidder","type":"address","indexed":false},{"name":"amount","type":"uint256","indexed":false},{"name":"extended","type":"bool","indexed":false},{"name":"endTime","type":"uint256","indexed":false}],"anonymous":false},
	{"type":"event","name":"AuctionSettled","inputs":[{"name":"tokenId","type":"uint256","indexed":true},{"name":"winner","type":"address","indexed":false},{"name":"amount","type":"uint256","indexed":false}],"anonymous":false}
]`

const governorABIJSON = `[
	{"type":"event","name":"ProposalCreated","inputs":[{"name":"proposalId","type":"uint256","indexed":false},{"name":"proposer","type":"address","indexed":false},{"name":"description","type":"string","indexed":false},{"name":"startBlock","type":"uint256","indexed":false},{"name":"endBlock","type":"uint256","indexed":false}],"anonymous":false},
	{"type":"event","name":"VoteCast","inputs":[{"name":"voter","type":"address","indexed":true},{"name":"proposalId","type":"uint256","indexed":false},{"name":"support","type":"uint8","indexed":false},{"name":"weight","type":"uint256","indexed":false},{"name":"reason","type":"string","indexed":false}],"anonymous":false},
	{"type":"event","name":"ProposalExecuted","inputs":[{"name":"proposalId","type":"uint256","indexed":false}],"anonymous":false},
	{"type":"event","name":"ProposalCanceled","inputs":[{"name":"proposalId","type":"uint256","indexed":false}],"anonymous":false},
	{"type":"event","name":"ProposalVetoed","inputs":[{"name":"proposalId","type":"uint256","indexed":false}],"anonymous":false}
]`

var (
	auctionHouseABI = mustParseABI(auctionHouseABIJSON)
	governorABI     = mustParseABI(governorABIJSON)
)

func mustParseABI(data string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(data))
	if err != nil {
		panic(err)
	}
	return parsed
}

// AuctionHouseABI exposes the parsed auction house ABI for event decoding.
func AuctionHouseABI() abi.ABI {
	return auctionHouseABI
}

// GovernorABI exposes the parsed governor ABI for event decoding.
func GovernorABI() abi.ABI {
	return governorABI
}
